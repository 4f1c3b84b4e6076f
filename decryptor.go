// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package ginx

import (
	"github.com/luxfi/lattice/v7/ring"
)

// Decryptor recovers the phase of accumulator ciphertexts under a ring
// secret key. The key must be in NTT and Montgomery form, as produced by
// KeyGenerator.GenRingSecretKey.
type Decryptor struct {
	params Parameters
	ringQ  *ring.Ring
	skNTT  ring.Poly
	buf    ring.Poly
}

// NewDecryptor creates a new decryptor from the ring secret key.
func NewDecryptor(params Parameters, skNTT ring.Poly) *Decryptor {
	return &Decryptor{
		params: params,
		ringQ:  params.RingQ(),
		skNTT:  skNTT,
		buf:    params.RingQ().NewPoly(),
	}
}

// DecryptAcc writes the phase body - mask*sk of the accumulator into pt, in
// coefficient form. For a freshly rotated accumulator the phase is the test
// vector rotated by the blind-rotation index, plus the accumulated noise.
func (dec *Decryptor) DecryptAcc(acc *Ciphertext, pt ring.Poly) {
	if !acc.IsNTT {
		panic("ginx: accumulator must be in NTT form")
	}

	r := dec.ringQ
	r.MulCoeffsMontgomery(acc.Value[0], dec.skNTT, dec.buf)
	r.Sub(acc.Value[1], dec.buf, dec.buf)
	r.INTT(dec.buf, pt)
}

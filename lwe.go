// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package ginx

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/lattice/v7/utils/sampling"
)

// LWEKey is a ternary LWE secret key. Coefficients are stored as residues
// mod Q, so a coefficient of -1 appears as Q-1.
type LWEKey struct {
	Value []uint64
	Q     uint64
}

// LWECiphertext is an LWE encryption (a, b) with b = <a, s> + m + e mod Q.
type LWECiphertext struct {
	A []uint64
	B uint64
}

// NewLWECiphertext allocates a zero LWE ciphertext of dimension n.
func NewLWECiphertext(n int) *LWECiphertext {
	return &LWECiphertext{A: make([]uint64, n)}
}

// EncryptLWE encrypts a message residue m mod QLWE under sk.
// The mask is uniform; no noise is added beyond the message placement, which
// is the convention used when the caller pre-scales m to a padded plaintext
// slot (noise then comes from downstream homomorphic operations).
func (p Parameters) EncryptLWE(prng sampling.PRNG, sk *LWEKey, m uint64) (*LWECiphertext, error) {
	if len(sk.Value) != p.nLWE {
		return nil, fmt.Errorf("lwe encrypt: key dimension %d, expected %d", len(sk.Value), p.nLWE)
	}

	q := p.qLWE
	ct := NewLWECiphertext(p.nLWE)

	buf := make([]byte, 8)
	for i := range ct.A {
		if _, err := prng.Read(buf); err != nil {
			return nil, fmt.Errorf("lwe encrypt: sample mask: %w", err)
		}
		ct.A[i] = binary.LittleEndian.Uint64(buf) % q
	}

	b := m % q
	for i, a := range ct.A {
		b = (b + mulMod(a, sk.Value[i], q)) % q
	}
	ct.B = b

	return ct, nil
}

// DecryptLWE recovers the phase b - <a, s> mod QLWE.
func (p Parameters) DecryptLWE(sk *LWEKey, ct *LWECiphertext) uint64 {
	q := p.qLWE
	acc := ct.B
	for i, a := range ct.A {
		acc = (acc + q - mulMod(a, sk.Value[i], q)) % q
	}
	return acc
}

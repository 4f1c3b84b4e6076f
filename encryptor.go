// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package ginx

import (
	"github.com/luxfi/lattice/v7/ring"
	"github.com/luxfi/lattice/v7/utils/sampling"
)

// Encryptor produces non-trivial RLWE accumulators under a ring secret key.
// The trivial (0, testVector) accumulator of NewAccumulator carries no mask;
// an Encryptor is used when the starting accumulator itself must hide its
// test vector, and in noise-growth measurements.
type Encryptor struct {
	params  Parameters
	ringQ   *ring.Ring
	skNTT   ring.Poly
	uniform *ring.UniformSampler
	gauss   ring.Sampler
	buf     ring.Poly
}

// NewEncryptor creates a new encryptor from the ring secret key, which must
// be in NTT and Montgomery form.
func NewEncryptor(params Parameters, skNTT ring.Poly) *Encryptor {
	prng, err := sampling.NewPRNG()
	if err != nil {
		panic(err)
	}

	r := params.RingQ()
	gauss, err := ring.NewSampler(prng, r, ring.DiscreteGaussian{Sigma: params.Sigma(), Bound: 6 * params.Sigma()}, false)
	if err != nil {
		panic(err)
	}

	return &Encryptor{
		params:  params,
		ringQ:   r,
		skNTT:   skNTT,
		uniform: ring.NewUniformSampler(prng, r),
		gauss:   gauss,
		buf:     r.NewPoly(),
	}
}

// EncryptAcc returns the RLWE encryption (a, a*sk + e + pt) in NTT form.
// The plaintext is given in coefficient form and is not modified.
func (enc *Encryptor) EncryptAcc(pt ring.Poly) *Ciphertext {
	r := enc.ringQ

	acc := &Ciphertext{IsNTT: true}
	acc.Value[0] = r.NewPoly()
	acc.Value[1] = r.NewPoly()

	enc.uniform.Read(acc.Value[0])
	r.NTT(acc.Value[0], acc.Value[0])
	r.MulCoeffsMontgomery(acc.Value[0], enc.skNTT, acc.Value[1])

	enc.gauss.Read(enc.buf)
	r.NTT(enc.buf, enc.buf)
	r.Add(acc.Value[1], enc.buf, acc.Value[1])

	r.NTT(pt, enc.buf)
	r.Add(acc.Value[1], enc.buf, acc.Value[1])

	return acc
}

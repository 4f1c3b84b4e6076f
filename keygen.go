// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package ginx

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/luxfi/lattice/v7/ring"
	"github.com/luxfi/lattice/v7/utils/sampling"
)

// ErrNotTernary is returned by GenAccKey when the LWE secret contains a
// coefficient outside {-1, 0, 1}. The accumulator construction encodes each
// secret coefficient as a pair of RGSW bits and has no representation for
// wider distributions.
var ErrNotTernary = errors.New("only ternary secret key distributions are supported")

// KeyGenerator generates the secret keys and the blind-rotation
// bootstrapping key. A KeyGenerator is not safe for concurrent use; the keys
// it produces are.
type KeyGenerator struct {
	params  Parameters
	prng    sampling.PRNG
	uniform *ring.UniformSampler
	gauss   ring.Sampler
	ternary ring.Sampler
}

// NewKeyGenerator creates a new key generator with fresh randomness.
func NewKeyGenerator(params Parameters) *KeyGenerator {
	prng, err := sampling.NewPRNG()
	if err != nil {
		panic(err)
	}

	gauss, err := ring.NewSampler(prng, params.ringQ, ring.DiscreteGaussian{Sigma: params.sigma, Bound: 6 * params.sigma}, false)
	if err != nil {
		panic(err)
	}

	ternary, err := ring.NewSampler(prng, params.ringQ, ring.Ternary{P: 2.0 / 3.0}, false)
	if err != nil {
		panic(err)
	}

	return &KeyGenerator{
		params:  params,
		prng:    prng,
		uniform: ring.NewUniformSampler(prng, params.ringQ),
		gauss:   gauss,
		ternary: ternary,
	}
}

// GenRingSecretKey samples a ternary ring secret key and returns it in
// NTT + Montgomery form, the representation every RGSW operation expects.
func (kg *KeyGenerator) GenRingSecretKey() ring.Poly {
	r := kg.params.ringQ
	sk := r.NewPoly()
	kg.ternary.Read(sk)
	r.NTT(sk, sk)
	r.MForm(sk, sk)
	return sk
}

// GenLWEKey samples a ternary LWE secret key of dimension NLWE over the LWE
// modulus. Coefficient -1 is stored as QLWE-1.
func (kg *KeyGenerator) GenLWEKey() *LWEKey {
	p := kg.params
	sk := &LWEKey{Value: make([]uint64, p.nLWE), Q: p.qLWE}

	buf := make([]byte, 1)
	for i := range sk.Value {
		// Rejection sampling: 255 = 85*3, so bytes below 255 are unbiased.
		for {
			if _, err := kg.prng.Read(buf); err != nil {
				panic(err)
			}
			if buf[0] < 255 {
				break
			}
		}
		switch buf[0] % 3 {
		case 0:
			sk.Value[i] = 0
		case 1:
			sk.Value[i] = 1
		case 2:
			sk.Value[i] = p.qLWE - 1
		}
	}

	return sk
}

// GenAccKey builds the bootstrapping key: one pair of RGSW encryptions per
// LWE secret coefficient, encoding its ternary value as
// 0 -> (0,0), 1 -> (1,0), -1 -> (0,1).
//
// The secret is validated up front; a non-ternary coefficient aborts key
// generation with ErrNotTernary. Generation is then fanned out across
// GOMAXPROCS workers, each writing disjoint slots of the key with its own
// samplers.
func (kg *KeyGenerator) GenAccKey(skNTT ring.Poly, skLWE *LWEKey) (*AccKey, error) {
	p := kg.params

	if len(skLWE.Value) != p.nLWE {
		return nil, fmt.Errorf("acc keygen: secret dimension %d, expected %d", len(skLWE.Value), p.nLWE)
	}

	mod := int64(skLWE.Q)
	modHalf := mod >> 1

	// bits[i] = (enc(s==1), enc(s==-1)) plaintexts for coefficient i.
	bits := make([][2]int, p.nLWE)
	for i, v := range skLWE.Value {
		s := int64(v % skLWE.Q)
		if s > modHalf {
			s -= mod
		}
		switch s {
		case 0:
			bits[i] = [2]int{0, 0}
		case 1:
			bits[i] = [2]int{1, 0}
		case -1:
			bits[i] = [2]int{0, 1}
		default:
			return nil, fmt.Errorf("acc keygen: coefficient %d is %d: %w", i, s, ErrNotTernary)
		}
	}

	ak := NewAccKey(p)

	workers := runtime.GOMAXPROCS(0)
	if workers > p.nLWE {
		workers = p.nLWE
	}

	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()

			prng, err := sampling.NewPRNG()
			if err != nil {
				errs[w] = err
				return
			}
			uniform := ring.NewUniformSampler(prng, p.ringQ)
			gauss, err := ring.NewSampler(prng, p.ringQ, ring.DiscreteGaussian{Sigma: p.sigma, Bound: 6 * p.sigma}, false)
			if err != nil {
				errs[w] = err
				return
			}

			for i := w; i < p.nLWE; i += workers {
				ak.Keys[i][0] = kg.encryptBit(uniform, gauss, skNTT, bits[i][0])
				ak.Keys[i][1] = kg.encryptBit(uniform, gauss, skNTT, bits[i][1])
			}
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("acc keygen: %w", err)
		}
	}

	return ak, nil
}

// GenEvalKey encrypts a single plaintext bit m in {0, 1} as an RGSW
// ciphertext under skNTT.
func (kg *KeyGenerator) GenEvalKey(skNTT ring.Poly, m int) *EvalKey {
	return kg.encryptBit(kg.uniform, kg.gauss, skNTT, m)
}

// encryptBit encrypts a plaintext bit m as an RGSW ciphertext under skNTT.
//
// Each row starts as an RLWE encryption of zero in coefficient form:
// a uniform mask in column 0 and fresh noise in column 1. For m = 1 the i-th
// gadget power is injected into the constant term of row 2i's mask and row
// 2i+1's body. The body is completed in the NTT domain with the
// pre-injection mask, so the gadget term rides on top of an encryption of
// zero. Three NTTs per row.
func (kg *KeyGenerator) encryptBit(uniform *ring.UniformSampler, gauss ring.Sampler, skNTT ring.Poly, m int) *EvalKey {
	p := kg.params
	r := p.ringQ
	rows := 2 * p.digitsG

	ek := NewEvalKey(p)

	masks := make([]ring.Poly, rows)
	for i := 0; i < rows; i++ {
		uniform.Read(ek.Value[i][0])
		masks[i] = r.NewPoly()
		copy(masks[i].Coeffs[0], ek.Value[i][0].Coeffs[0])
		gauss.Read(ek.Value[i][1])
	}

	if m != 0 {
		for i := 0; i < p.digitsG; i++ {
			g := p.gPow[i]
			mask0 := ek.Value[2*i][0].Coeffs[0]
			mask0[0] = (mask0[0] + g) % p.q
			body1 := ek.Value[2*i+1][1].Coeffs[0]
			body1[0] = (body1[0] + g) % p.q
		}
	}

	for i := 0; i < rows; i++ {
		r.NTT(ek.Value[i][0], ek.Value[i][0])
		r.NTT(ek.Value[i][1], ek.Value[i][1])
		r.NTT(masks[i], masks[i])
		r.MulCoeffsMontgomeryThenAdd(masks[i], skNTT, ek.Value[i][1])
		r.MForm(ek.Value[i][0], ek.Value[i][0])
		r.MForm(ek.Value[i][1], ek.Value[i][1])
	}

	return ek
}

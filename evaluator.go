// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package ginx

import (
	"fmt"

	"github.com/luxfi/lattice/v7/ring"
)

// Ciphertext is an RLWE ciphertext (mask, body) used as the blind-rotation
// accumulator. Its phase is body - mask*sk. The IsNTT flag tracks the
// representation of both polynomials; accumulator updates require NTT form
// and fail fast otherwise.
//
// Exactly one goroutine may mutate a Ciphertext at a time; concurrent
// bootstrap evaluations must each own their accumulator.
type Ciphertext struct {
	Value [2]ring.Poly
	IsNTT bool
}

// NewAccumulator returns the trivial RLWE encryption (0, testVector) in NTT
// form. The test vector is given in coefficient form and is not modified.
func NewAccumulator(p Parameters, testVector ring.Poly) *Ciphertext {
	r := p.ringQ
	acc := &Ciphertext{IsNTT: true}
	acc.Value[0] = r.NewPoly()
	acc.Value[1] = r.NewPoly()
	r.NTT(testVector, acc.Value[1])
	return acc
}

// CopyNew returns a deep copy of the ciphertext.
func (ct *Ciphertext) CopyNew() *Ciphertext {
	cp := &Ciphertext{IsNTT: ct.IsNTT}
	cp.Value[0] = *ct.Value[0].CopyNew()
	cp.Value[1] = *ct.Value[1].CopyNew()
	return cp
}

// Evaluator performs blind rotations. It owns the scratch polynomials of the
// accumulator update, so it is not safe for concurrent use; ShallowCopy
// returns an independent evaluator sharing the read-only parameters.
type Evaluator struct {
	params Parameters
	ringQ  *ring.Ring

	// coefficient-form copy of the accumulator, input of the decomposition
	ct [2]ring.Poly
	// decomposition digits, 2*DigitsG rows
	dct []ring.Poly
	// external product outputs for ek1 and ek2: (mask, body) each
	t1 [2]ring.Poly
	t2 [2]ring.Poly
}

// NewEvaluator creates a new blind-rotation evaluator.
func NewEvaluator(params Parameters) *Evaluator {
	r := params.RingQ()

	eval := &Evaluator{
		params: params,
		ringQ:  r,
		dct:    make([]ring.Poly, 2*params.DigitsG()),
	}

	eval.ct[0] = r.NewPoly()
	eval.ct[1] = r.NewPoly()
	for i := range eval.dct {
		eval.dct[i] = r.NewPoly()
	}
	eval.t1[0], eval.t1[1] = r.NewPoly(), r.NewPoly()
	eval.t2[0], eval.t2[1] = r.NewPoly(), r.NewPoly()

	return eval
}

// ShallowCopy creates a copy of the evaluator with fresh scratch buffers.
// The copy shares the parameters and can run concurrently with the receiver.
func (eval *Evaluator) ShallowCopy() *Evaluator {
	return NewEvaluator(eval.params)
}

// BlindRotate applies the accumulator update once per LWE mask coefficient,
// in index order. Each coefficient is negated mod QLWE and scaled into the
// rotation index space [0, 2N) before driving the update with the matching
// bootstrapping-key pair.
//
// The fold is strictly sequential: step i+1 reads the accumulator produced
// by step i. The accumulator must be in NTT form on entry and remains in
// NTT form on exit.
func (eval *Evaluator) BlindRotate(ak *AccKey, a []uint64, acc *Ciphertext) error {
	p := eval.params

	if len(a) != len(ak.Keys) {
		return fmt.Errorf("blind rotate: mask length %d, bootstrapping key has %d slots", len(a), len(ak.Keys))
	}

	q := p.qLWE
	scale := uint64(2*p.N()) / q

	for i := range a {
		ai := a[i] % q
		eval.addToAcc(ak.Keys[i][0], ak.Keys[i][1], ((q-ai)%q)*scale, acc)
	}

	return nil
}

// addToAcc updates acc with the contribution of one LWE coefficient:
// acc += (X^a - 1) * CMUX(ek1, ek2, acc), where a indexes the rotation
// group [0, 2N) and ek1, ek2 encrypt the "secret = 1" and "secret = -1"
// bits.
//
// The accumulator is decomposed once and multiplied against both keys; the
// monomials are applied after the external products, which halves the
// polynomial multiplications spent under the inner products. That ordering
// is load-bearing for performance and must not be swapped.
func (eval *Evaluator) addToAcc(ek1, ek2 *EvalKey, a uint64, acc *Ciphertext) {
	if !acc.IsNTT {
		panic("ginx: accumulator must be in NTT form")
	}

	p := eval.params
	r := eval.ringQ
	rows := 2 * p.digitsG
	M := uint64(2 * p.N())

	// The decomposition works on coefficients; the accumulator itself stays
	// in the evaluation domain.
	r.INTT(acc.Value[0], eval.ct[0])
	r.INTT(acc.Value[1], eval.ct[1])

	p.signedDigitDecompose(eval.ct[0], eval.ct[1], eval.dct)

	for i := 0; i < rows; i++ {
		r.NTT(eval.dct[i], eval.dct[i])
	}

	// External products: inner products of the digit vector against both
	// key columns, all in the evaluation domain.
	r.MulCoeffsMontgomery(eval.dct[0], ek1.Value[0][0], eval.t1[0])
	r.MulCoeffsMontgomery(eval.dct[0], ek1.Value[0][1], eval.t1[1])
	r.MulCoeffsMontgomery(eval.dct[0], ek2.Value[0][0], eval.t2[0])
	r.MulCoeffsMontgomery(eval.dct[0], ek2.Value[0][1], eval.t2[1])
	for l := 1; l < rows; l++ {
		r.MulCoeffsMontgomeryThenAdd(eval.dct[l], ek1.Value[l][0], eval.t1[0])
		r.MulCoeffsMontgomeryThenAdd(eval.dct[l], ek1.Value[l][1], eval.t1[1])
		r.MulCoeffsMontgomeryThenAdd(eval.dct[l], ek2.Value[l][0], eval.t2[0])
		r.MulCoeffsMontgomeryThenAdd(eval.dct[l], ek2.Value[l][1], eval.t2[1])
	}

	// Monomials for sk = 1 and sk = -1. Indices live in [0, 2N); 2N wraps
	// to the identity.
	indexPos := a % M
	indexNeg := (M - indexPos) % M
	monomial := p.Monomial(indexPos)
	monomialNeg := p.Monomial(indexNeg)

	// acc += t1*X^a + t2*X^-a - (t1 + t2), i.e. the (X^a - 1)-weighted CMUX.
	for c := 0; c < 2; c++ {
		r.MulCoeffsMontgomeryThenAdd(eval.t1[c], monomial, acc.Value[c])
		r.MulCoeffsMontgomeryThenAdd(eval.t2[c], monomialNeg, acc.Value[c])
		r.Sub(acc.Value[c], eval.t1[c], acc.Value[c])
		r.Sub(acc.Value[c], eval.t2[c], acc.Value[c])
	}
}

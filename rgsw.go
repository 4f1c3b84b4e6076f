// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package ginx

import "github.com/luxfi/lattice/v7/ring"

// EvalKey is an RGSW encryption of a single bit, laid out as a
// 2*DigitsG x 2 matrix of ring polynomials. Row 2i carries the i-th gadget
// power on the mask column, row 2i+1 on the body column. All polynomials are
// kept in NTT + Montgomery form so that accumulator updates operate directly
// in the evaluation domain.
//
// An EvalKey is immutable after generation and safe to share across
// concurrent evaluations.
type EvalKey struct {
	Value [][2]ring.Poly
}

// NewEvalKey allocates a zero EvalKey for the given parameters.
func NewEvalKey(p Parameters) *EvalKey {
	rows := 2 * p.digitsG
	ek := &EvalKey{Value: make([][2]ring.Poly, rows)}
	for i := range ek.Value {
		ek.Value[i][0] = p.ringQ.NewPoly()
		ek.Value[i][1] = p.ringQ.NewPoly()
	}
	return ek
}

// AccKey is the blind-rotation bootstrapping key: for each coefficient of
// the LWE secret, a pair of RGSW encryptions encoding its ternary value as
// (enc(s==1), enc(s==-1)).
//
// The key is generated once and shared read-only by every subsequent
// bootstrap evaluation.
type AccKey struct {
	Keys [][2]*EvalKey
}

// NewAccKey allocates an empty AccKey with one slot per LWE coefficient.
func NewAccKey(p Parameters) *AccKey {
	return &AccKey{Keys: make([][2]*EvalKey, p.nLWE)}
}

// Package ginx implements the blind-rotation accumulator of CGGI/GINX-style
// bootstrapping for boolean FHE schemes.
//
// The package covers the inner bootstrapping kernel:
//   - RGSW bootstrapping-key generation for ternary LWE secrets
//   - the per-coefficient accumulator update (signed gadget decomposition,
//     two external products, ternary CMUX, monomial rotation)
//   - the sequential blind-rotation loop driving the full rotation
//
// Ring arithmetic (NTT, modular coefficient operations) is provided by
// luxfi/lattice primitives. Key switching, modulus switching and the outer
// gate protocol are out of scope and belong to the consumer of this package.
//
// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause
package ginx

import (
	"fmt"
	"math/bits"

	"github.com/luxfi/lattice/v7/ring"
)

// Parameters holds the accumulator parameter set together with the
// precomputed tables shared by all evaluations: the polynomial ring, the
// gadget vector and the monomial table. Parameters are immutable after
// creation and safe for concurrent use.
type Parameters struct {
	logN     int
	q        uint64 // ring modulus Q
	logBaseG int
	digitsG  int
	nLWE     int
	qLWE     uint64 // LWE modulus, must divide 2N
	sigma    float64

	ringQ *ring.Ring

	// gPow[i] = BaseG^i mod Q
	gPow []uint64

	// monomials[k] = X^k mod (X^N + 1) for k in [0, 2N), NTT + Montgomery form
	monomials []ring.Poly
}

// ParametersLiteral is a user-friendly parameter specification.
type ParametersLiteral struct {
	// LogN is log2 of the ring dimension (typically 10-11)
	LogN int
	// Q is the ring modulus, an NTT-friendly prime for dimension 2^LogN
	Q uint64
	// LogBaseG is log2 of the gadget decomposition base
	LogBaseG int
	// DigitsG is the gadget digit count; BaseG^DigitsG must reach Q
	DigitsG int
	// NLWE is the LWE dimension (length of the mask vector)
	NLWE int
	// QLWE is the LWE modulus; it must divide the cyclotomic order 2N
	QLWE uint64
	// Sigma is the standard deviation of the RGSW noise distribution
	Sigma float64
}

// Standard parameter sets
var (
	// PN10QP27 provides ~128-bit security with good performance.
	// N=1024, Q=134215681, gadget base 2^7 with 4 digits.
	PN10QP27 = ParametersLiteral{
		LogN:     10,
		Q:        0x7fff801,
		LogBaseG: 7,
		DigitsG:  4,
		NLWE:     512,
		QLWE:     2048,
		Sigma:    3.19,
	}

	// PN11QP58 provides ~128-bit security with higher precision.
	// N=2048, Q~2^58, gadget base 2^9 with 7 digits.
	PN11QP58 = ParametersLiteral{
		LogN:     11,
		Q:        0x3FFFFFFFFFF9001,
		LogBaseG: 9,
		DigitsG:  7,
		NLWE:     1024,
		QLWE:     4096,
		Sigma:    3.19,
	}
)

// NewParametersFromLiteral creates Parameters from a literal specification.
// It allocates the polynomial ring and precomputes the gadget vector and the
// monomial table.
func NewParametersFromLiteral(lit ParametersLiteral) (params Parameters, err error) {
	if lit.LogN < 1 || lit.LogN > 17 {
		return Parameters{}, fmt.Errorf("invalid LogN %d: must be in [1, 17]", lit.LogN)
	}

	N := 1 << lit.LogN
	M := uint64(2 * N)

	if lit.QLWE == 0 || M%lit.QLWE != 0 {
		return Parameters{}, fmt.Errorf("invalid QLWE %d: must divide the cyclotomic order %d", lit.QLWE, M)
	}

	if lit.NLWE < 1 {
		return Parameters{}, fmt.Errorf("invalid NLWE %d: must be positive", lit.NLWE)
	}

	if lit.LogBaseG < 1 || lit.DigitsG < 1 {
		return Parameters{}, fmt.Errorf("invalid gadget shape: base 2^%d, %d digits", lit.LogBaseG, lit.DigitsG)
	}

	// The signed decomposition is exact only if the gadget covers Q.
	if lit.LogBaseG*lit.DigitsG < 64 && uint64(1)<<(lit.LogBaseG*lit.DigitsG) < lit.Q {
		return Parameters{}, fmt.Errorf("gadget 2^(%d*%d) does not cover Q=%d", lit.LogBaseG, lit.DigitsG, lit.Q)
	}

	params = Parameters{
		logN:     lit.LogN,
		q:        lit.Q,
		logBaseG: lit.LogBaseG,
		digitsG:  lit.DigitsG,
		nLWE:     lit.NLWE,
		qLWE:     lit.QLWE,
		sigma:    lit.Sigma,
	}

	if params.ringQ, err = ring.NewRing(N, []uint64{lit.Q}); err != nil {
		return Parameters{}, fmt.Errorf("create ring: %w", err)
	}

	// Gadget vector: increasing powers of the decomposition base mod Q.
	params.gPow = make([]uint64, lit.DigitsG)
	g := uint64(1)
	baseG := uint64(1) << lit.LogBaseG
	for i := 0; i < lit.DigitsG; i++ {
		params.gPow[i] = g
		g = mulMod(g, baseG, lit.Q)
	}

	// Monomial table: X^k for every residue of the rotation group, kept in
	// NTT + Montgomery form so accumulator updates never transform them.
	params.monomials = make([]ring.Poly, M)
	for k := uint64(0); k < M; k++ {
		mon := params.ringQ.NewMonomialXi(int(k))
		params.ringQ.NTT(mon, mon)
		params.ringQ.MForm(mon, mon)
		params.monomials[k] = mon
	}

	return params, nil
}

// N returns the ring dimension.
func (p Parameters) N() int {
	return 1 << p.logN
}

// LogN returns log2 of the ring dimension.
func (p Parameters) LogN() int {
	return p.logN
}

// Q returns the ring modulus.
func (p Parameters) Q() uint64 {
	return p.q
}

// BaseG returns the gadget decomposition base.
func (p Parameters) BaseG() uint64 {
	return 1 << p.logBaseG
}

// DigitsG returns the gadget digit count.
func (p Parameters) DigitsG() int {
	return p.digitsG
}

// NLWE returns the LWE dimension.
func (p Parameters) NLWE() int {
	return p.nLWE
}

// QLWE returns the LWE modulus.
func (p Parameters) QLWE() uint64 {
	return p.qLWE
}

// Sigma returns the RGSW noise standard deviation.
func (p Parameters) Sigma() float64 {
	return p.sigma
}

// RingQ returns the polynomial ring.
func (p Parameters) RingQ() *ring.Ring {
	return p.ringQ
}

// GPower returns the gadget vector.
func (p Parameters) GPower() []uint64 {
	return p.gPow
}

// Monomial returns X^k for k in [0, 2N), in NTT + Montgomery form.
// The returned polynomial is shared and read-only.
func (p Parameters) Monomial(k uint64) ring.Poly {
	return p.monomials[k]
}

// mulMod multiplies two residues mod q without overflowing uint64.
func mulMod(a, b, q uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	_, rem := bits.Div64(hi%q, lo, q)
	return rem
}

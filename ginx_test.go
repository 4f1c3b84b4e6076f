// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package ginx

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
)

// testLiteral is PN10QP27 with a small LWE dimension, keeping key
// generation fast in tests that drive full rotations.
var testLiteral = ParametersLiteral{
	LogN:     10,
	Q:        0x7fff801,
	LogBaseG: 7,
	DigitsG:  4,
	NLWE:     8,
	QLWE:     2048,
	Sigma:    3.19,
}

func testParameters(t *testing.T) Parameters {
	t.Helper()
	params, err := NewParametersFromLiteral(testLiteral)
	require.NoError(t, err)
	return params
}

func TestParameters(t *testing.T) {
	t.Run("Accessors", func(t *testing.T) {
		params := testParameters(t)
		require.Equal(t, 1024, params.N())
		require.Equal(t, 10, params.LogN())
		require.Equal(t, uint64(0x7fff801), params.Q())
		require.Equal(t, uint64(128), params.BaseG())
		require.Equal(t, 4, params.DigitsG())
		require.Equal(t, 8, params.NLWE())
		require.Equal(t, uint64(2048), params.QLWE())
	})

	t.Run("GadgetVector", func(t *testing.T) {
		params := testParameters(t)
		g := params.GPower()
		require.Len(t, g, params.DigitsG())
		require.Equal(t, uint64(1), g[0])
		for i := 1; i < len(g); i++ {
			require.Equal(t, mulMod(g[i-1], params.BaseG(), params.Q()), g[i])
		}
	})

	t.Run("InvalidLogN", func(t *testing.T) {
		lit := testLiteral
		lit.LogN = 0
		_, err := NewParametersFromLiteral(lit)
		require.Error(t, err)
	})

	t.Run("QLWEMustDivideCyclotomicOrder", func(t *testing.T) {
		lit := testLiteral
		lit.QLWE = 1000
		_, err := NewParametersFromLiteral(lit)
		require.Error(t, err)
	})

	t.Run("GadgetMustCoverQ", func(t *testing.T) {
		lit := testLiteral
		lit.DigitsG = 2 // 2^14 < Q
		_, err := NewParametersFromLiteral(lit)
		require.Error(t, err)
	})
}

// Multiplying by X^i and then X^(2N-i) must return the original polynomial:
// the monomial table forms a cyclic group of order 2N with X^0 as identity.
func TestMonomialInverse(t *testing.T) {
	params := testParameters(t)
	r := params.RingQ()
	N := params.N()
	M := uint64(2 * N)

	orig := r.NewPoly()
	for j := 0; j < N; j++ {
		orig.Coeffs[0][j] = uint64(j*j+1) % params.Q()
	}

	p := r.NewPoly()
	r.NTT(orig, p)

	got := r.NewPoly()
	for i := uint64(0); i < M; i++ {
		r.MulCoeffsMontgomery(p, params.Monomial(i), got)
		r.MulCoeffsMontgomery(got, params.Monomial((M-i)%M), got)
		r.INTT(got, got)
		require.Equal(t, orig.Coeffs[0], got.Coeffs[0], "X^%d * X^%d != 1", i, (M-i)%M)
	}
}

func TestSecurityParams(t *testing.T) {
	for _, sp := range AllSecurityParams() {
		sp := sp
		t.Run(sp.Name, func(t *testing.T) {
			params, err := NewParametersFromLiteral(sp.ToParametersLiteral())
			require.NoError(t, err)
			require.Equal(t, sp.RingDim, params.N())
			require.Equal(t, sp.LWEDim, params.NLWE())
			require.Equal(t, sp.DigitsG, params.DigitsG())
			require.Equal(t, sp.LogQ, bits.Len64(params.Q()))
			require.EqualValues(t, 1, params.Q()%uint64(2*params.N()))
		})
	}

	_, ok := GetSecurityParams("STD128_GINX")
	require.True(t, ok)
	_, ok = GetSecurityParams("nope")
	require.False(t, ok)
}

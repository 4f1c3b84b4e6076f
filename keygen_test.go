// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package ginx

import (
	"testing"

	"github.com/luxfi/lattice/v7/utils/sampling"
	"github.com/stretchr/testify/require"
)

func TestGenLWEKey(t *testing.T) {
	params := testParameters(t)
	kg := NewKeyGenerator(params)

	sk := kg.GenLWEKey()
	require.Len(t, sk.Value, params.NLWE())
	require.Equal(t, params.QLWE(), sk.Q)

	for i, v := range sk.Value {
		switch v {
		case 0, 1, params.QLWE() - 1:
		default:
			t.Fatalf("coefficient %d is %d, not ternary", i, v)
		}
	}
}

func TestLWEEncryptDecrypt(t *testing.T) {
	params := testParameters(t)
	kg := NewKeyGenerator(params)
	sk := kg.GenLWEKey()

	prng, err := sampling.NewPRNG()
	require.NoError(t, err)

	for _, m := range []uint64{0, 1, params.QLWE() / 2, params.QLWE() - 1} {
		ct, err := params.EncryptLWE(prng, sk, m)
		require.NoError(t, err)
		require.Equal(t, m, params.DecryptLWE(sk, ct))
	}

	t.Run("DimensionMismatch", func(t *testing.T) {
		short := &LWEKey{Value: make([]uint64, params.NLWE()-1), Q: params.QLWE()}
		_, err := params.EncryptLWE(prng, short, 0)
		require.Error(t, err)
	})
}

func TestGenAccKey(t *testing.T) {
	params := testParameters(t)
	kg := NewKeyGenerator(params)
	skNTT := kg.GenRingSecretKey()

	t.Run("RejectsNonTernary", func(t *testing.T) {
		sk := &LWEKey{Value: make([]uint64, params.NLWE()), Q: params.QLWE()}
		sk.Value[3] = 2
		_, err := kg.GenAccKey(skNTT, sk)
		require.ErrorIs(t, err, ErrNotTernary)
	})

	t.Run("RejectsDimensionMismatch", func(t *testing.T) {
		sk := &LWEKey{Value: make([]uint64, params.NLWE()+1), Q: params.QLWE()}
		_, err := kg.GenAccKey(skNTT, sk)
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrNotTernary)
	})

	t.Run("Shape", func(t *testing.T) {
		sk := kg.GenLWEKey()
		ak, err := kg.GenAccKey(skNTT, sk)
		require.NoError(t, err)
		require.Len(t, ak.Keys, params.NLWE())
		for i := range ak.Keys {
			require.NotNil(t, ak.Keys[i][0], "slot %d", i)
			require.NotNil(t, ak.Keys[i][1], "slot %d", i)
			require.Len(t, ak.Keys[i][0].Value, 2*params.DigitsG())
		}
	})
}

// The RGSW phase of row 2i+1 carries +g_i for an encryption of one and only
// noise for an encryption of zero. This pins down the gadget layout the
// external product depends on.
func TestEvalKeyGadgetLayout(t *testing.T) {
	params := testParameters(t)
	r := params.RingQ()
	kg := NewKeyGenerator(params)
	skNTT := kg.GenRingSecretKey()
	q := params.Q()

	bound := uint64(64 * params.Sigma())

	phase := r.NewPoly()
	buf := r.NewPoly()

	checkPhase := func(t *testing.T, ek *EvalKey, row int, want uint64) {
		// phase = body - mask*sk, all rows are NTT + Montgomery form.
		r.IMForm(ek.Value[row][0], buf)
		r.MulCoeffsMontgomery(buf, skNTT, phase)
		r.IMForm(ek.Value[row][1], buf)
		r.Sub(buf, phase, phase)
		r.INTT(phase, phase)

		for j := 0; j < params.N(); j++ {
			got := phase.Coeffs[0][j]
			target := uint64(0)
			if j == 0 {
				target = want
			}
			require.LessOrEqual(t, signedDist(got, target, q), bound,
				"row %d coeff %d: got %d want %d", row, j, got, target)
		}
	}

	t.Run("EncryptionOfOne", func(t *testing.T) {
		ek := kg.GenEvalKey(skNTT, 1)
		for i := 0; i < params.DigitsG(); i++ {
			checkPhase(t, ek, 2*i+1, params.GPower()[i])
		}
	})

	t.Run("EncryptionOfZero", func(t *testing.T) {
		ek := kg.GenEvalKey(skNTT, 0)
		for i := 0; i < 2*params.DigitsG(); i++ {
			checkPhase(t, ek, i, 0)
		}
	})
}

// signedDist returns the distance between two residues mod q, taking the
// shorter way around.
func signedDist(a, b, q uint64) uint64 {
	d := (a + q - b) % q
	if d > q/2 {
		d = q - d
	}
	return d
}

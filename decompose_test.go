// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package ginx

import (
	"math/rand"
	"testing"

	"github.com/luxfi/lattice/v7/ring"
	"github.com/stretchr/testify/require"
)

// Recombining the signed digits against the gadget vector must reconstruct
// every coefficient exactly: BaseG^DigitsG covers Q, so no digit is lost.
func TestSignedDigitDecompose(t *testing.T) {
	params := testParameters(t)
	r := params.RingQ()
	rng := rand.New(rand.NewSource(1))

	mask := r.NewPoly()
	body := r.NewPoly()
	for j := 0; j < params.N(); j++ {
		mask.Coeffs[0][j] = rng.Uint64() % params.Q()
		body.Coeffs[0][j] = rng.Uint64() % params.Q()
	}
	// Exercise the boundary representatives as well.
	mask.Coeffs[0][0] = 0
	mask.Coeffs[0][1] = params.Q() - 1
	mask.Coeffs[0][2] = params.Q() >> 1
	mask.Coeffs[0][3] = (params.Q() >> 1) + 1

	dct := make([]ring.Poly, 2*params.DigitsG())
	for i := range dct {
		dct[i] = r.NewPoly()
	}

	params.signedDigitDecompose(mask, body, dct)

	q := params.Q()
	baseHalf := params.BaseG() >> 1
	g := params.GPower()

	for j := 0; j < params.N(); j++ {
		var recMask, recBody uint64
		for i := 0; i < params.DigitsG(); i++ {
			dm := dct[2*i].Coeffs[0][j]
			db := dct[2*i+1].Coeffs[0][j]

			// Digits are signed representatives in [-BaseG/2, BaseG/2).
			for _, d := range []uint64{dm, db} {
				if d > q>>1 {
					require.LessOrEqual(t, q-d, baseHalf, "coeff %d digit %d", j, i)
				} else {
					require.Less(t, d, baseHalf, "coeff %d digit %d", j, i)
				}
			}

			recMask = (recMask + mulMod(dm, g[i], q)) % q
			recBody = (recBody + mulMod(db, g[i], q)) % q
		}
		require.Equal(t, mask.Coeffs[0][j], recMask, "mask coeff %d", j)
		require.Equal(t, body.Coeffs[0][j], recBody, "body coeff %d", j)
	}
}

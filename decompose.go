// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package ginx

import "github.com/luxfi/lattice/v7/ring"

// signedDigitDecompose decomposes the accumulator pair (mask, body), given
// in coefficient form, into 2*DigitsG digit polynomials written to dct.
// Digits are signed base-BaseG digits in [-BaseG/2, BaseG/2) with carry
// propagation, matching the gadget vector: summing dct[2i]*GPower[i]
// reconstructs the mask mod Q, dct[2i+1]*GPower[i] the body.
//
// Row 2i holds digit i of the mask, row 2i+1 digit i of the body, mirroring
// the gadget layout of EvalKey rows.
func (p Parameters) signedDigitDecompose(mask, body ring.Poly, dct []ring.Poly) {
	N := p.N()
	q := int64(p.q)
	qHalf := q >> 1
	logBase := p.logBaseG
	base := int64(1) << logBase
	baseHalf := base >> 1
	digitMask := base - 1

	maskCoeffs := mask.Coeffs[0]
	bodyCoeffs := body.Coeffs[0]

	for k := 0; k < N; k++ {
		d0 := int64(maskCoeffs[k])
		if d0 > qHalf {
			d0 -= q
		}
		d1 := int64(bodyCoeffs[k])
		if d1 > qHalf {
			d1 -= q
		}

		for i := 0; i < p.digitsG; i++ {
			r0 := d0 & digitMask
			if r0 >= baseHalf {
				r0 -= base
			}
			d0 = (d0 - r0) >> logBase

			r1 := d1 & digitMask
			if r1 >= baseHalf {
				r1 -= base
			}
			d1 = (d1 - r1) >> logBase

			if r0 < 0 {
				r0 += q
			}
			dct[2*i].Coeffs[0][k] = uint64(r0)

			if r1 < 0 {
				r1 += q
			}
			dct[2*i+1].Coeffs[0][k] = uint64(r1)
		}
	}
}

/*
NAME
  optimize.go

DESCRIPTION
  optimize.go implements a bounded single-variable golden-section search,
  the minimizer backing CRI alignment.

AUTHORS
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package decode

import "math"

// goldenSectionMin finds an approximate minimizer of the unimodal function
// f over the bracket [lo, hi], to within tol of the true minimizer.
//
// gonum's optimize package targets multivariate gradient-based methods and
// has no bounded scalar Brent/golden-section routine, so this is a small
// hand-rolled minimizer rather than a wrapped library call - the one piece
// of the decoder built directly on the algorithm rather than on a
// third-party implementation of it (see DESIGN.md).
func goldenSectionMin(f func(float64) float64, lo, hi, tol float64) float64 {
	const invPhi = 0.6180339887498949 // (sqrt(5)-1)/2

	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc := f(c)
	fd := f(d)

	for math.Abs(b-a) > tol {
		if fc < fd {
			b = d
			d = c
			fd = fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a = c
			c = d
			fc = fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return (a + b) / 2
}

/*
NAME
  align.go

DESCRIPTION
  align.go implements find_offset_and_scale: a bounded 1-D search for the
  sample offset of the Clock Run-In, and the scale calibration that
  search derives along the way (the black level it uses is computed
  beforehand, when the line is loaded).

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

import (
	"github.com/ausocean/vbi/signal"
)

// align runs find_offset_and_scale: it searches the CRI bracket
// [LineStartMin, LineStartMax] for the offset that best aligns the framing
// guess to the observed samples, and reports whether the residual at that
// offset is below the configured convergence threshold. d.offset and
// d.scale are set as a side effect for the rest of the line's decoding.
func (d *Decoder) align() bool {
	lo := float64(d.cfg.LineStartMin)
	hi := float64(d.cfg.LineStartMax)

	target := signal.Gauss(d.samples[64:256], d.cfg.GaussSigma)

	loss := func(offset float64) float64 {
		d.setOffset(offset)

		window := d.guessX[64:256]
		guessScaled := signal.Gauss(signal.InterpLinear(d.interpX[:], d.guess[:], window, 0), d.cfg.GaussSigma)
		maskScaled := signal.InterpLinear(d.interpX[:], d.mask[:], window, 1)

		a := make([]float64, len(window))
		b := make([]float64, len(window))
		for i := range a {
			a[i] = guessScaled[i] * maskScaled[i]
			b[i] = signal.Clip(target[i]*maskScaled[i], d.black, 256)
		}

		scale := stddev(a) / stddev(b)
		for i := range b {
			b[i] = (b[i] - d.black) * scale
		}
		for i := range a {
			a[i] = signal.Clip(a[i], 0, 256*scale)
		}

		d.scale = scale

		var sum float64
		for i := range a {
			diff := a[i] - b[i]
			sum += diff * diff
		}
		return sum
	}

	offset := goldenSectionMin(loss, lo, hi, 1e-4)
	residual := loss(offset)

	d.setOffset(offset)
	return residual < d.cfg.AlignThreshold
}

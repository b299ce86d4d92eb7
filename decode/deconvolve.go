/*
NAME
  deconvolve.go

DESCRIPTION
  deconvolve.go implements the constrained discrete search over the 42
  data-byte alphabets: repeated sweeps that, for each undetermined
  position, pick the byte whose rendered-and-smoothed waveform best
  matches the observed line, using a one-byte look-ahead to break
  otherwise-tied candidates.

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

import "github.com/ausocean/vbi/signal"

// computeTarget smooths and normalises the full raw line once per line;
// every deconvolution candidate is scored against this fixed target.
func (d *Decoder) computeTarget() {
	smoothed := signal.Gauss(d.samples, d.cfg.GaussSigma)
	copy(d.target, signal.Normalise(smoothed))
}

// resetBytes clears the committed-byte history that deconvolve uses to
// detect convergence. Called once at the start of a fresh top-level
// decode; deliberately not called between the initial deconvolve and a
// finder's tightened re-run, so the second run converges on its first
// sweep if the tightened alphabets leave every committed byte unchanged.
func (d *Decoder) resetBytes() {
	d.bytes = [NDataBytes]byte{}
	d.oldBytes = [NDataBytes]byte{}
}

// deconvolve implements the up-to-MaxSweeps discrete refinement described
// in spec.md section 4.2.4. It returns the committed 42 data bytes.
// Calling it again immediately, with possibleBytes/target unchanged, is a
// no-op that converges on its first sweep, since d.bytes/d.oldBytes already
// reflect the previous call's fixed point.
func (d *Decoder) deconvolve() [NDataBytes]byte {
	for sweep := 0; sweep < d.cfg.MaxSweeps; sweep++ {
		d.iterations++

		for n := 0; n < NDataBytes; n++ {
			candidates := d.possibleBytes[n]

			if len(candidates) == 1 {
				signal.SetByte(d.guess[:], n+3, candidates[0])
				d.bytes[n] = candidates[0]
				continue
			}

			lookahead := []byte{0}
			if n < NDataBytes-1 {
				lookahead = d.halfPossibleBytes[n+1]
			}

			bestB1, bestB2 := candidates[0], lookahead[0]
			bestErr := -1.0

			for _, b1 := range candidates {
				signal.SetByte(d.guess[:], n+3, b1)
				for _, b2 := range lookahead {
					d.candidateEvals++
					signal.SetByte(d.guess[:], n+4, b2)

					rendered := signal.Gauss(signal.InterpLinear(d.interpX[:], d.guess[:], d.guessX, 0), d.cfg.GaussSigma)
					rendered = signal.Normalise(rendered)

					var sum float64
					for i := range rendered {
						diff := rendered[i] - d.target[i]
						sum += diff * diff
					}

					// The tie-break matters: HammBytes (the MRAG alphabet)
					// isn't in ascending byte-value order, so a later,
					// lower-valued b1 can tie an earlier candidate's error
					// and must still win, per the lowest-b1-then-b2 rule.
					if bestErr < 0 || sum < bestErr ||
						(sum == bestErr && (b1 < bestB1 || (b1 == bestB1 && b2 < bestB2))) {
						bestErr = sum
						bestB1 = b1
						bestB2 = b2
					}
				}
			}

			signal.SetByte(d.guess[:], n+3, bestB1)
			d.bytes[n] = bestB1
		}

		if d.bytes == d.oldBytes {
			break
		}
		d.oldBytes = d.bytes
	}

	return d.bytes
}

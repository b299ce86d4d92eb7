/*
NAME
  decode.go

DESCRIPTION
  decode.go implements the per-line VBI decoder: bit-grid alignment against
  the Clock Run-In, forward-model convolution, and constrained discrete
  search over the byte alphabets to recover the 42 data bytes of a
  teletext packet from a raw captured scanline.

AUTHORS
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package decode implements the per-line VBI decoder described by the
// reference vhs-teletext analyser: CRI alignment, forward-model
// convolution, and byte-space constrained search ("deconvolution").
package decode

import (
	"github.com/ausocean/utils/logging"
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/vbi/config"
	"github.com/ausocean/vbi/finder"
	"github.com/ausocean/vbi/signal"
)

// NDataBytes is the number of data bytes in a teletext packet.
const NDataBytes = 42

// guessLen is the length of the expanded bit-level guess/mask buffers:
// 47 bytes (1 pre-roll pad + 3 framing + 42 data + 1 post-roll pad) times
// 8 bits.
const guessLen = 47 * signal.BitsPerByte

// Framing bytes that occupy byte positions 0, 1, 2 of every packet and
// must never change across a line's decoding.
const (
	framing0 = 0x55
	framing1 = 0x55
	framing2 = 0x27
)

// Decoder holds the per-line state of a single VBI decode: the bit-grid
// parameters, the current guess and mask buffers, the per-position byte
// alphabets, and diagnostics. A Decoder is constructed once per worker
// (expensive scratch allocation and alphabet tables are set up in
// NewDecoder) and reused, via Decode, across many lines.
type Decoder struct {
	cfg config.Config
	log logging.Logger

	// interpX holds the nominal sample position, in grid units, of each of
	// the guessLen expanded bit positions; it depends only on BitWidth so
	// it's computed once in NewDecoder.
	interpX [guessLen]float64

	// guessX holds, for the current offset, the sample positions (in grid
	// units) of every raw sample; recomputed by setOffset.
	guessX []float64

	guess [guessLen]float64
	mask  [guessLen]float64

	mask0, mask1 [NDataBytes]byte

	possibleBytes     [NDataBytes][]byte
	halfPossibleBytes [NDataBytes][]byte

	// bytes and oldBytes persist across calls to deconvolve so that
	// calling it again without an intervening reset (e.g. once the search
	// has already converged) can detect the fixed point on its very first
	// sweep; resetBytes zeroes them at the start of a fresh top-level
	// decode.
	bytes, oldBytes [NDataBytes]byte

	samples []float64
	black   float64
	scale   float64
	offset  float64
	alignOK bool

	// target is the normalised, gaussian-smoothed full line, computed once
	// per line and compared against during every deconvolution candidate
	// evaluation.
	target []float64

	iterations     int
	candidateEvals int
}

// seedAlphabet is the initial per-position byte alphabet before any
// observation masking or finder narrowing: positions 0 and 1 (the MRAG
// bytes) are Hamming 8/4 encoded, positions 2..41 are odd-parity encoded.
func seedAlphabet() [NDataBytes][]byte {
	var a [NDataBytes][]byte
	a[0] = signal.HammBytes
	a[1] = signal.HammBytes
	for n := 2; n < NDataBytes; n++ {
		a[n] = signal.ParityBytes
	}
	return a
}

// NewDecoder returns a Decoder configured for cfg. cfg is assumed valid
// (call cfg.Validate first); NewDecoder does the one-time setup -
// precomputing the interpolation grid and scratch buffers - that the
// spec requires happen once per worker, not once per line.
func NewDecoder(cfg config.Config) *Decoder {
	log := cfg.Logger
	if log == nil {
		log = noopLogger{}
	}
	d := &Decoder{
		cfg:     cfg,
		log:     log,
		guessX:  make([]float64, cfg.LineLength),
		samples: make([]float64, cfg.LineLength),
		target:  make([]float64, cfg.LineLength),
	}
	d.setBitWidth(cfg.BitWidth)

	signal.SetByte(d.guess[:], -1, 0x00)
	signal.SetByte(d.guess[:], 0, framing0)
	signal.SetByte(d.guess[:], 1, framing1)
	signal.SetByte(d.guess[:], 2, framing2)

	signal.SetByte(d.mask[:], -1, 0xff)
	signal.SetByte(d.mask[:], 0, 0xff)
	signal.SetByte(d.mask[:], 1, 0xff)
	signal.SetByte(d.mask[:], 2, 0xff)

	d.setOffset(0)
	return d
}

func (d *Decoder) setBitWidth(bitWidth float64) {
	for i := range d.interpX {
		d.interpX[i] = float64(i)*bitWidth - 8*bitWidth
	}
}

func (d *Decoder) setOffset(offset float64) {
	d.offset = offset
	for i := range d.guessX {
		d.guessX[i] = float64(i) - offset
	}
}

// Diagnostics reports the alignment outcome and search effort of the most
// recently decoded line, for profiling.
func (d *Decoder) Diagnostics() (alignOK bool, iterations, candidateEvals int) {
	return d.alignOK, d.iterations, d.candidateEvals
}

// Decode recovers the 42 data bytes of the teletext packet encoded in
// samples, an N_SAMPLES-length vector of raw scanline samples. finders,
// if non-nil, is tendered the refined draft and may replace it with a
// corrected packet. The returned alignOK reports whether CRI alignment
// converged; a false value does not stop the line being decoded, per the
// decoder's non-fatal alignment policy.
func (d *Decoder) Decode(samples []float64, finders *finder.Set) (packet [NDataBytes]byte, alignOK bool) {
	d.reset(samples)

	d.alignOK = d.align()
	d.makeGuessMask()
	d.makePossibleBytes(seedAlphabet())
	d.computeTarget()
	d.resetBytes()

	bytes := d.deconvolve()

	if finders != nil {
		if f, ok := finders.Dispatch(bytes); ok {
			d.log.Debug("finder matched draft packet")
			d.makePossibleBytes(f.PossibleBytes())
			bytes = d.deconvolve()
			f.Find(bytes) // Refresh the finder's internal stash against the refined draft.
			bytes = f.Fixup()
		}
	}

	return bytes, d.alignOK
}

func (d *Decoder) reset(samples []float64) {
	copy(d.samples, samples)
	var sum float64
	for _, s := range d.samples[:80] {
		sum += s
	}
	d.black = sum / 80
	d.iterations = 0
	d.candidateEvals = 0

	// The data-byte region of the guess buffer (positions 3..44) holds
	// whatever deconvolve last committed there; left alone, a fresh line
	// would start its first sweep scoring candidates against the previous
	// line's bytes, and Normalise's global min/max would shift with them.
	// Zero it so every line starts from the same framing-only buffer
	// NewDecoder built.
	for n := 0; n < NDataBytes; n++ {
		signal.SetByte(d.guess[:], n+3, 0)
	}
}

// stddev computes the population standard deviation of v using gonum/stat,
// matching the CRI-fit objective's a.std()/b.std() in the reference
// implementation.
func stddev(v []float64) float64 {
	return stat.StdDev(v, nil)
}

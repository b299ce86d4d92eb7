/*
NAME
  signal.go

DESCRIPTION
  signal.go provides the numerical primitives used by the VBI line decoder:
  gaussian smoothing, piecewise-linear interpolation between non-uniform
  grids, min/max normalisation, and the bit-level packing of a byte into an
  expanded guess/mask buffer.

AUTHORS
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package signal provides stateless numerical operations on real-valued
// sample vectors: gaussian smoothing, linear interpolation, normalisation,
// and the bit-level buffer packing used by the VBI line decoder.
package signal

import (
	"math"
	"math/bits"

	"github.com/mjibson/go-dsp/fft"
)

// BitsPerByte is the number of expanded guess/mask positions a single
// transmitted byte occupies.
const BitsPerByte = 8

// Gauss returns a copy of v smoothed by a gaussian kernel with standard
// deviation sigma samples. The signal is mirrored about its end samples
// (the end sample itself is not repeated, as in scipy's 'mirror' mode)
// before convolution so that the returned vector has the same length as v.
//
// The convolution itself is done in the frequency domain, the same way
// codec/pcm's fastConvolve computes FIR filtering: pad to the next power
// of two, multiply the DFTs, and take the inverse DFT's real part.
func Gauss(v []float64, sigma float64) []float64 {
	if len(v) == 0 {
		return nil
	}
	kernel := gaussKernel(sigma)
	radius := (len(kernel) - 1) / 2

	padded := reflectPad(v, radius)
	conv := fftConvolveSame(padded, kernel)

	// fftConvolveSame returns a vector aligned with padded; the portion
	// corresponding to the original v starts at radius and has len(v)
	// samples once the kernel's own radius is accounted for.
	return conv[radius : radius+len(v)]
}

// gaussKernel builds a normalised gaussian kernel truncated at 4 standard
// deviations either side of its centre, which is tight enough that the
// tails contribute negligibly to the result.
func gaussKernel(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	radius := int(math.Ceil(4 * sigma))
	if radius < 1 {
		radius = 1
	}
	k := make([]float64, 2*radius+1)
	var sum float64
	for i := range k {
		x := float64(i - radius)
		k[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// reflectPad extends v by radius samples at each end, mirroring the signal
// about its boundary samples.
func reflectPad(v []float64, radius int) []float64 {
	n := len(v)
	out := make([]float64, n+2*radius)
	for i := 0; i < radius; i++ {
		out[radius-1-i] = v[min(i+1, n-1)]
		out[radius+n+i] = v[max(n-2-i, 0)]
	}
	copy(out[radius:radius+n], v)
	return out
}

// fftConvolveSame convolves x and h (full linear convolution) using
// go-dsp/fft, the same library codec/pcm uses for FIR filtering, and
// returns the portion of the full convolution that's centred on x.
func fftConvolveSame(x, h []float64) []float64 {
	convLen := len(x) + len(h) - 1
	padLen := nextPow2(convLen)

	xp := make([]float64, padLen)
	copy(xp, x)
	hp := make([]float64, padLen)
	copy(hp, h)

	xFFT, hFFT := fft.FFTReal(xp), fft.FFTReal(hp)
	yFFT := make([]complex128, padLen)
	for i := range xFFT {
		yFFT[i] = xFFT[i] * hFFT[i]
	}
	iy := fft.IFFT(yFFT)

	full := make([]float64, convLen)
	for i := range full {
		full[i] = real(iy[i])
	}

	// The kernel h is centred on its own midpoint, so the "same"-length
	// result aligned with x starts (len(h)-1)/2 samples into full.
	start := (len(h) - 1) / 2
	same := make([]float64, len(x))
	copy(same, full[start:start+len(x)])
	return same
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// InterpLinear evaluates the piecewise-linear function defined by the
// monotonically increasing grid xs and values ys at each point in query,
// returning fill for any query point outside [xs[0], xs[len(xs)-1]].
func InterpLinear(xs, ys []float64, query []float64, fill float64) []float64 {
	out := make([]float64, len(query))
	j := 0
	for i, q := range query {
		if q < xs[0] || q > xs[len(xs)-1] {
			out[i] = fill
			continue
		}
		for j < len(xs)-2 && xs[j+1] < q {
			j++
		}
		x0, x1 := xs[j], xs[j+1]
		y0, y1 := ys[j], ys[j+1]
		if x1 == x0 {
			out[i] = y0
			continue
		}
		t := (q - x0) / (x1 - x0)
		out[i] = y0 + t*(y1-y0)
	}
	return out
}

// Normalise returns a copy of v shifted and scaled so that its minimum maps
// to 0 and its maximum maps to 255. A constant v maps to all zeros.
func Normalise(v []float64) []float64 {
	if len(v) == 0 {
		return nil
	}
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	out := make([]float64, len(v))
	span := hi - lo
	if span == 0 {
		return out
	}
	for i, x := range v {
		out[i] = (x - lo) / span * 255
	}
	return out
}

// SetByte writes byte b into the expanded bit-level buffer buf at byte
// position n+1 (the +1 accounts for one byte of pre-roll padding at the
// start of the buffer), low bit first: a 0 bit becomes 0, a 1 bit becomes
// 255. n may be -1 to address the pre-roll padding byte itself.
func SetByte(buf []float64, n int, b byte) {
	base := (n + 1) * BitsPerByte
	for i := 0; i < BitsPerByte; i++ {
		v := 0.0
		if b&(1<<uint(i)) != 0 {
			v = 255
		}
		buf[base+i] = v
	}
}

// Clip returns x clamped to [lo, hi].
func Clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// HammBytes is the table of 16 valid Hamming 8/4 codewords: a 4-bit payload
// (bits 0..3 of the argument to Hamm) Hamming-encoded into 8 bits with the
// standard (7,4) parity equations on bits 1..7 plus an 8th even-parity
// check bit, giving single-error correction and double-error detection.
var HammBytes = buildHammBytes()

// ParityBytes is the table of 128 odd-parity bytes: every byte value whose
// population count is odd.
var ParityBytes = buildParityBytes()

// AllBytes is the table of all 256 byte values.
var AllBytes = buildAllBytes()

// Hamm encodes the low 4 bits of d into a Hamming 8/4 codeword.
func Hamm(d byte) byte {
	d &= 0xf
	d1 := d & 1
	d2 := (d >> 1) & 1
	d3 := (d >> 2) & 1
	d4 := (d >> 3) & 1

	p1 := d1 ^ d2 ^ d4
	p2 := d1 ^ d3 ^ d4
	p3 := d2 ^ d3 ^ d4

	var b byte
	b |= p1 << 0
	b |= p2 << 1
	b |= d1 << 2
	b |= p3 << 3
	b |= d2 << 4
	b |= d3 << 5
	b |= d4 << 6

	var parity byte
	for i := 0; i < 7; i++ {
		parity ^= (b >> uint(i)) & 1
	}
	b |= parity << 7
	return b
}

// Unhamm recovers the 4-bit payload from a Hamming 8/4 codeword, ignoring
// error correction (the decoder relies on alphabet filtering, not on-the-fly
// correction, to reject corrupted codewords).
func Unhamm(b byte) byte {
	d1 := (b >> 2) & 1
	d2 := (b >> 4) & 1
	d3 := (b >> 5) & 1
	d4 := (b >> 6) & 1
	return d1 | d2<<1 | d3<<2 | d4<<3
}

func buildHammBytes() []byte {
	out := make([]byte, 0, 16)
	for d := 0; d < 16; d++ {
		out = append(out, Hamm(byte(d)))
	}
	return out
}

func buildParityBytes() []byte {
	out := make([]byte, 0, 128)
	for v := 0; v < 256; v++ {
		if bits.OnesCount8(byte(v))%2 == 1 {
			out = append(out, byte(v))
		}
	}
	return out
}

func buildAllBytes() []byte {
	out := make([]byte, 256)
	for v := range out {
		out[v] = byte(v)
	}
	return out
}

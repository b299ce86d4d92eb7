/*
NAME
  mask.go

DESCRIPTION
  mask.go implements make_guess_mask (bucketing raw samples by nominal bit
  position to derive forced-0/forced-1 observation masks) and
  make_possible_bytes (narrowing the per-position byte alphabets by those
  masks).

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

// dataBitOffset is the bit index, within the 42*8 data-byte bit buckets,
// of data byte 0's first bit: byte slots -1, 0, 1, 2 (padding + framing)
// occupy the first 4*8 bit positions of the full 47-byte layout.
const dataBitOffset = 4 * 8

// makeGuessMask implements make_guess_mask: it buckets each raw sample
// against the nominal bit position it falls within (half a bit width past
// the current offset, per the reference implementation), then derives
// mask0/mask1 from the bucket extremes relative to the black level.
func (d *Decoder) makeGuessMask() {
	var buckets [NDataBytes * 8][]float64

	b := dataBitOffset
	for i, s := range d.samples {
		gx := d.guessX[i] + d.cfg.BitWidth*0.5
		for b < 368 && gx > d.interpX[b+1] {
			b++
		}
		if d.interpX[b] < gx && b < 368 {
			idx := b - dataBitOffset
			if idx >= 0 && idx < len(buckets) {
				buckets[idx] = append(buckets[idx], s)
			}
		}
	}

	for n := 0; n < NDataBytes; n++ {
		var mask0 byte = 0xff
		var mask1 byte
		for j := 0; j < 8; j++ {
			bucket := buckets[n*8+j]
			if len(bucket) == 0 {
				// No sample landed in this bucket; leave the bit
				// unconstrained in both masks.
				continue
			}
			lo, hi := bucket[0], bucket[0]
			for _, v := range bucket[1:] {
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
			if lo < d.black+10 {
				mask0 &^= 1 << uint(j)
			}
			if hi > d.black*2.5 {
				mask1 |= 1 << uint(j)
			}
		}
		d.mask0[n] = mask0
		d.mask1[n] = mask1
	}

	// mask0 is widened to cover bits forced set by mask1 (tmp preserves the
	// bits both masks agree on before the widening). This is the reference
	// implementation's own ordering; simplifying it to "mask0 |= mask1"
	// without staging tmp first silently changes mask1's final value too.
	for n := 0; n < NDataBytes; n++ {
		tmp := d.mask1[n] & d.mask0[n]
		d.mask0[n] |= d.mask1[n]
		d.mask1[n] = tmp
	}
}

// makePossibleBytes implements make_possible_bytes: it filters each
// position's seed alphabet down to the bytes admissible under mask0/mask1,
// falling back to the unfiltered seed when filtering would leave a
// position with no candidates (the mask is conservative, not
// authoritative), and precomputes each position's low-5-bit look-ahead
// prefixes.
func (d *Decoder) makePossibleBytes(seed [NDataBytes][]byte) {
	for n := 0; n < NDataBytes; n++ {
		m0, m1 := d.mask0[n], d.mask1[n]
		var filtered []byte
		for _, x := range seed[n] {
			if (x&m0) == x && x == (x|m1) {
				filtered = append(filtered, x)
			}
		}
		if len(filtered) == 0 {
			filtered = seed[n]
		}
		d.possibleBytes[n] = filtered
	}

	for n := 0; n < NDataBytes; n++ {
		seen := make(map[byte]bool, len(d.possibleBytes[n]))
		var half []byte
		for _, x := range d.possibleBytes[n] {
			p := x & 0x1f
			if !seen[p] {
				seen[p] = true
				half = append(half, p)
			}
		}
		d.halfPossibleBytes[n] = half
	}
}

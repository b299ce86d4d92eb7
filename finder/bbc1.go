/*
NAME
  bbc1.go

DESCRIPTION
  bbc1.go implements a worked-example Finder for a BBC1-shaped packet-0
  header: magazine 1, row 0, and a literal service identifier in the page
  header text.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package finder

import "github.com/ausocean/vbi/signal"

// Packet-0 field layout within the 42 data bytes, after the 3 framing
// bytes: bytes 0-1 are the MRAG (magazine/row address group, Hamming 8/4
// encoded), bytes 2-9 are page number, subcode and control bits (also
// Hamming 8/4 encoded), and bytes 10-41 are the page header text, odd-
// parity encoded (usually displayed as ASCII with the parity bit masked
// off).
const (
	mragMag0        = 0
	mragMag1        = 1
	headerTextStart = 10
	headerTextLen   = 4
)

// bbc1ServiceID is the literal text this finder looks for at the start of
// the page header.
var bbc1ServiceID = [headerTextLen]byte{'B', 'B', 'C', '1'}

// BBC1 recognises a packet-0 draft whose MRAG decodes to magazine 1, row 0,
// and whose header text begins with "BBC1".
type BBC1 struct {
	matched bool
	mag     byte
	row     byte
	draft   Packet
}

// NewBBC1 returns a new, unmatched BBC1 finder.
func NewBBC1() *BBC1 {
	return &BBC1{}
}

// Find implements Finder. On a match it stashes the whole draft, not just
// the matched fields, so Fixup can regenerate the header bytes while
// leaving the rest of the packet exactly as the decoder last left it.
func (f *BBC1) Find(draft Packet) bool {
	f.matched = false

	y1 := signal.Unhamm(draft[mragMag0])
	y2 := signal.Unhamm(draft[mragMag1])

	row := y1 | (y2&0x1)<<4
	mag := (y2 >> 1) & 0x7
	if mag == 0 {
		mag = 8
	}

	if row != 0 || mag != 1 {
		return false
	}

	for i := 0; i < headerTextLen; i++ {
		if draft[headerTextStart+i]&0x7f != bbc1ServiceID[i] {
			return false
		}
	}

	f.mag, f.row = mag, row
	f.draft = draft
	f.matched = true
	return true
}

// PossibleBytes implements Finder: it narrows the MRAG bytes to the exact
// codewords for magazine 1 row 0 and the header text bytes to the literal
// service identifier, gives the page/control bytes 2..9 the Hamming 8/4
// alphabet (the core seed alphabet has odd parity there), and leaves the
// remaining header text bytes with the odd-parity alphabet.
func (f *BBC1) PossibleBytes() [NDataBytes][]byte {
	var a [NDataBytes][]byte
	a[mragMag0] = []byte{mragByte0(0)}
	a[mragMag1] = []byte{mragByte1(1, 0)}
	for n := 2; n < headerTextStart; n++ {
		a[n] = signal.HammBytes
	}
	for i, c := range bbc1ServiceID {
		a[headerTextStart+i] = oddParityVariants(c)
	}
	for n := headerTextStart + headerTextLen; n < NDataBytes; n++ {
		a[n] = signal.ParityBytes
	}
	return a
}

// Fixup implements Finder: it starts from the draft stashed by the most
// recent matching Find, regenerates the MRAG and service-identifier bytes
// authoritatively, and leaves every other byte exactly as that draft left
// it.
func (f *BBC1) Fixup() Packet {
	p := f.draft
	p[mragMag0] = mragByte0(f.row)
	p[mragMag1] = mragByte1(f.mag, f.row)
	for i, c := range bbc1ServiceID {
		p[headerTextStart+i] = oddParityVariants(c)[0]
	}
	return p
}

// mragByte0 and mragByte1 Hamming-encode a magazine/row pair into the two
// MRAG bytes, inverse of the decode performed in Find. Only row's low 4
// bits go into byte 0; magazine and row's high bit go into byte 1, so
// mragByte0 takes no magazine argument.
func mragByte0(row byte) byte {
	return signal.Hamm(row & 0xf)
}

func mragByte1(mag, row byte) byte {
	m := mag & 0x7
	if mag == 8 {
		m = 0
	}
	d := (m << 1) | (row>>4)&0x1
	return signal.Hamm(d)
}

// oddParityVariants returns, as a one-element slice, the odd-parity byte
// whose low 7 bits equal c's low 7 bits: c with the parity bit set if
// needed so the total population count is odd.
func oddParityVariants(c byte) []byte {
	c &= 0x7f
	ones := 0
	for i := 0; i < 7; i++ {
		if c&(1<<uint(i)) != 0 {
			ones++
		}
	}
	if ones%2 == 1 {
		return []byte{c}
	}
	return []byte{c | 0x80}
}

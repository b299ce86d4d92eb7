/*
NAME
  finder.go

DESCRIPTION
  finder.go defines the Finder interface and the ordered Set that performs
  first-match-wins dispatch over a fixed bank of packet-0 pattern matchers.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package finder provides the Finder interface and Set dispatcher used to
// recognise and correct broadcaster-specific packet-0 headers once a line
// has been through the core byte-space search.
package finder

// NDataBytes is the number of data bytes in a teletext packet, duplicated
// here (rather than imported from decode) to keep finder free of a
// dependency on the decoder it's used by.
const NDataBytes = 42

// Packet is a draft or final 42-byte teletext packet.
type Packet = [NDataBytes]byte

// Finder recognises a specific broadcaster's packet-0 signature and knows
// how to regenerate its header fields authoritatively once matched.
type Finder interface {
	// Find reports whether draft looks like a packet this finder
	// recognises. A successful match stashes whatever fields Fixup will
	// need internally.
	Find(draft Packet) bool

	// PossibleBytes returns this finder's narrower per-position byte
	// alphabets, reflecting its structural knowledge of the packet it
	// matched.
	PossibleBytes() [NDataBytes][]byte

	// Fixup returns the final packet, with header fields regenerated
	// authoritatively from the fields Find stashed.
	Fixup() Packet
}

// Set holds a fixed, ordered bank of Finders and performs first-match-wins
// dispatch: the set and its priority order are fixed at construction, and
// only the first Finder to report a match owns the line.
type Set struct {
	finders []Finder
}

// NewSet returns a Set that dispatches to finders in the given order.
func NewSet(finders ...Finder) *Set {
	return &Set{finders: finders}
}

// Dispatch tenders draft to each finder in order and returns the first one
// that matches. It reports false if no finder recognises draft.
func (s *Set) Dispatch(draft Packet) (Finder, bool) {
	if s == nil {
		return nil, false
	}
	for _, f := range s.finders {
		if f.Find(draft) {
			return f, true
		}
	}
	return nil, false
}

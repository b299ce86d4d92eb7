/*
NAME
  vbi.go

DESCRIPTION
  vbi.go wires the per-line decoder and finder set into a pipeline.Stage,
  so that a whole capture - many raw scanlines - can be decoded in
  parallel while still yielding packets in capture order.

AUTHORS
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vbi ties together signal, decode, finder and pipeline into the
// end-to-end API a caller actually wants: submit raw scanlines, get back
// decoded teletext packets in the same order, with as much of the work
// done in parallel as the configuration allows.
package vbi

import (
	"fmt"

	"github.com/ausocean/vbi/config"
	"github.com/ausocean/vbi/decode"
	"github.com/ausocean/vbi/finder"
	"github.com/ausocean/vbi/pipeline"
)

// LineInput is one raw scanline submitted for decoding.
type LineInput struct {
	// Samples is the raw captured line; its length must equal the
	// Config's LineLength.
	Samples []float64
}

// Packet is a decoded teletext packet together with the diagnostics from
// the decode that produced it.
type Packet struct {
	Bytes [decode.NDataBytes]byte

	// AlignOK reports whether CRI alignment converged for this line. A
	// false value doesn't mean Bytes is unusable, only that it was
	// decoded against a best-effort rather than a converged alignment.
	AlignOK bool

	Iterations     int
	CandidateEvals int
}

// stage adapts a *decode.Decoder and a *finder.Set to pipeline.Stage. One
// stage, and the Decoder inside it, is constructed per pipeline worker;
// Decoder's internal scratch buffers and alphabet tables are exactly the
// per-worker one-time setup the pipeline is designed to amortise.
type stage struct {
	dec     *decode.Decoder
	finders *finder.Set
}

// Process implements pipeline.Stage.
func (s *stage) Process(in LineInput) (Packet, error) {
	bytes, alignOK := s.dec.Decode(in.Samples, s.finders)
	_, iterations, evals := s.dec.Diagnostics()
	return Packet{
		Bytes:          bytes,
		AlignOK:        alignOK,
		Iterations:     iterations,
		CandidateEvals: evals,
	}, nil
}

// Decoder drives a bank of VBI line decoders over a stream of raw
// scanlines, in parallel, yielding decoded Packets in submission order.
type Decoder struct {
	p   *pipeline.Pipeline[LineInput, Packet]
	cfg config.Config
}

// NewDecoder validates cfg and starts cfg.Workers decoder workers, each
// with its own finder set built by newFinders (finders hold no shared
// mutable state by design, but each worker still gets its own instances
// so that a Finder's per-draft stash, set in Find and read in Fixup,
// can never be touched by more than one goroutine).
func NewDecoder(cfg config.Config, newFinders func() *finder.Set) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vbi: invalid config: %w", err)
	}
	if newFinders == nil {
		newFinders = func() *finder.Set { return finder.NewSet() }
	}

	p, err := pipeline.New[LineInput, Packet](cfg.Workers, cfg.Prefetch, cfg.Logger, func() (pipeline.Stage[LineInput, Packet], error) {
		return &stage{
			dec:     decode.NewDecoder(cfg),
			finders: newFinders(),
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("vbi: %w", err)
	}

	return &Decoder{p: p, cfg: cfg}, nil
}

// Decode runs every line in lines through the decoder pool and invokes
// yield, in submission order, once per decoded Packet. It stops and
// returns the first error either a worker or yield produces.
func (d *Decoder) Decode(lines []LineInput, yield func(index int, p Packet) error) error {
	return d.p.Apply(lines, yield)
}

// Close releases the decoder's worker pool.
func (d *Decoder) Close() {
	d.p.Close()
}

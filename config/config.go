/*
NAME
  config.go

DESCRIPTION
  config.go contains the configuration settings for the VBI line decoder
  and its parallel pipeline.

AUTHORS
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for the VBI line
// decoder: capture-card geometry, optimizer tolerances, and pipeline
// parallelism.
package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
)

// Capture card presets, named the way revid/config names its Input/Output
// enums.
const (
	CardBT8x8 = "bt8x8"
)

// Defaults, taken from the reference implementation's empirically tuned
// constants.
const (
	DefaultLineLength     = 2048
	DefaultLineStartMin   = 96
	DefaultLineStartMax   = 110
	DefaultBitWidth       = 5.112
	DefaultGaussSigma     = 5.5
	DefaultAlignThreshold = 5.0
	DefaultMaxSweeps      = 10
	DefaultWorkers        = 1
	DefaultPrefetch       = 32
)

// cardSampleRate maps a card preset to its nominal VBI capture sample rate
// in Hz.
var cardSampleRate = map[string]float64{
	CardBT8x8: 27_000_000,
}

// Config holds the parameters that a capture card and a deployment fix
// ahead of time. The core decoder reads these as constants; it never
// chooses them itself.
type Config struct {
	// Card is the capture card preset this config was derived from, or
	// empty if the fields were set directly.
	Card string

	// SampleRate is the capture card's sample rate in Hz.
	SampleRate float64

	// LineLength is the number of samples captured per scanline.
	LineLength int

	// LineStartMin and LineStartMax bound the sample offset at which the
	// Clock Run-In may begin; alignment searches this bracket.
	LineStartMin, LineStartMax int

	// BitWidth is the nominal number of samples per transmitted bit.
	BitWidth float64

	// GaussSigma is the standard deviation, in samples, of the gaussian
	// smoothing applied before comparing guess and target waveforms.
	GaussSigma float64

	// AlignThreshold is the residual below which alignment is considered
	// to have converged. This is an empirical constant (see spec
	// discussion) and is deliberately exposed rather than hardwired, since
	// it may need per-card tuning.
	AlignThreshold float64

	// MaxSweeps bounds the number of deconvolution sweeps over the 42
	// data bytes.
	MaxSweeps int

	// Workers is the pipeline's worker count P. Workers == 1 runs the same
	// pipeline with a single worker goroutine; there is no separate
	// single-process path.
	Workers int

	// Prefetch bounds how many in-flight line decodes the pipeline may
	// have outstanding at once.
	Prefetch int

	// Logger receives diagnostic and lifecycle messages.
	Logger logging.Logger
}

// New returns a Config for the named capture card, populated with that
// card's sample rate and this package's other defaults.
func New(card string) (Config, error) {
	rate, ok := cardSampleRate[card]
	if !ok {
		return Config{}, fmt.Errorf("unrecognised capture card: %q", card)
	}
	return Config{
		Card:           card,
		SampleRate:     rate,
		LineLength:     DefaultLineLength,
		LineStartMin:   DefaultLineStartMin,
		LineStartMax:   DefaultLineStartMax,
		BitWidth:       DefaultBitWidth,
		GaussSigma:     DefaultGaussSigma,
		AlignThreshold: DefaultAlignThreshold,
		MaxSweeps:      DefaultMaxSweeps,
		Workers:        DefaultWorkers,
		Prefetch:       DefaultPrefetch,
		Logger:         logging.New(logging.Debug, io.Discard, false),
	}, nil
}

// Validate checks that c's fields describe a usable decoder configuration.
func (c *Config) Validate() error {
	if c.LineLength <= 0 {
		return errors.New("LineLength must be positive")
	}
	if c.LineStartMin < 0 || c.LineStartMax <= c.LineStartMin {
		return errors.New("LineStartMin/LineStartMax must describe a non-empty bracket")
	}
	if c.LineStartMax >= c.LineLength {
		return errors.New("LineStartMax must be within LineLength")
	}
	if c.BitWidth <= 0 {
		return errors.New("BitWidth must be positive")
	}
	if c.GaussSigma <= 0 {
		return errors.New("GaussSigma must be positive")
	}
	if c.AlignThreshold <= 0 {
		return errors.New("AlignThreshold must be positive")
	}
	if c.MaxSweeps <= 0 {
		return errors.New("MaxSweeps must be positive")
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Prefetch <= 0 {
		c.Prefetch = DefaultPrefetch
	}
	if c.Logger == nil {
		c.Logger = logging.New(logging.Debug, io.Discard, false)
	}
	return nil
}

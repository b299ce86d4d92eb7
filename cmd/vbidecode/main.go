/*
NAME
  vbidecode

DESCRIPTION
  vbidecode is a minimal example driver for the vbi package: it reads raw
  VBI scanlines from a file (each line a fixed-length run of little-endian
  float64 samples) and writes the decoded teletext packets to stdout, one
  line per packet: the line index, whether alignment converged, and the
  packet bytes in hex.

AUTHORS
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main is the vbidecode example driver.
package main

import (
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vbi/config"
	"github.com/ausocean/vbi/finder"
	"github.com/ausocean/vbi/vbi"
)

// Logging configuration, named and valued the way cmd/rv configures its
// own file logger.
const (
	logPath      = "vbidecode.log"
	logMaxSize   = 10 // MB
	logMaxBackup = 3
	logMaxAge    = 7 // days
	logVerbosity = logging.Info
	logSuppress  = false
)

const pkg = "vbidecode: "

func main() {
	card := flag.String("card", config.CardBT8x8, "capture card preset")
	workers := flag.Int("workers", 0, "decoder worker count (0 uses the config default)")
	in := flag.String("in", "", "path to a raw VBI capture (concatenated little-endian float64 scanlines)")
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)

	if *in == "" {
		log.Fatal(pkg + "no -in file given")
	}

	cfg, err := config.New(*card)
	if err != nil {
		log.Fatal(pkg+"invalid card", "error", err.Error())
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	cfg.Logger = log
	if err := cfg.Validate(); err != nil {
		log.Fatal(pkg+"invalid config", "error", err.Error())
	}

	lines, err := readLines(*in, cfg.LineLength)
	if err != nil {
		log.Fatal(pkg+"could not read input", "error", err.Error())
	}
	log.Info(pkg+"read lines", "count", len(lines))

	dec, err := vbi.NewDecoder(cfg, func() *finder.Set {
		return finder.NewSet(finder.NewBBC1())
	})
	if err != nil {
		log.Fatal(pkg+"could not start decoder", "error", err.Error())
	}
	defer dec.Close()

	out := make([]vbi.Packet, len(lines))
	err = dec.Decode(lines, func(i int, p vbi.Packet) error {
		out[i] = p
		return nil
	})
	if err != nil {
		log.Fatal(pkg+"decode failed", "error", err.Error())
	}

	for i, p := range out {
		fmt.Printf("%06d %v %s\n", i, p.AlignOK, hex.EncodeToString(p.Bytes[:]))
	}
}

// readLines loads a raw capture file as a sequence of fixed-length
// scanlines, each lineLength little-endian float64 samples.
func readLines(path string, lineLength int) ([]vbi.LineInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	defer f.Close()

	var lines []vbi.LineInput
	buf := make([]byte, lineLength*8)
	for {
		_, err := io.ReadFull(f, buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading scanline %d: %w", len(lines), err)
		}

		samples := make([]float64, lineLength)
		for i := range samples {
			bits := binary.LittleEndian.Uint64(buf[i*8 : i*8+8])
			samples[i] = math.Float64frombits(bits)
		}
		lines = append(lines, vbi.LineInput{Samples: samples})
	}
	return lines, nil
}

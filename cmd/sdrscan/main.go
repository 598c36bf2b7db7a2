/*
NAME
  main.go

DESCRIPTION
  sdrscan reads an I/Q recording (iqrec format) from a file or stdin and
  prints the detected station peaks, exercising the scanner package the
  way cmd/rv exercises revid: a thin flag-driven wrapper over a library
  package.

AUTHOR
  Scott Barnard <scott@ausocean.org>

LICENSE
  This software is Copyright (C) 2024 the Australian Ocean Laboratory (AusOcean).

  It is free software: you can redistribute it and/or modify them
  under the terms of the GNU General Public License as published by the
  Free Software Foundation, either version 3 of the License, or (at your
  option) any later version.

  It is distributed in the hope that it will be useful, but WITHOUT ANY
  WARRANTY; without even the implied warranty of MERCHANTABILITY or
  FITNESS FOR A PARTICULAR PURPOSE. See the GNU General Public License
  for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses.
*/

// Package sdrscan is a command-line front end for scanner.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/sdr/iqrec"
	"github.com/ausocean/sdr/scanner"
	"github.com/ausocean/utils/logging"
)

const pkg = "sdrscan: "

func main() {
	path := flag.String("path", "", "path to an iqrec recording; defaults to stdin")
	fftSize := flag.Int("fft", 4096, "FFT size used for the scan (must be a power of two)")
	auto := flag.Bool("auto-threshold", true, "use noise-floor-relative thresholding")
	flag.Parse()

	log := logging.New(logging.Info, os.Stderr, false)

	r := os.Stdin
	if *path != "" {
		f, err := os.Open(*path)
		if err != nil {
			log.Fatal(pkg+"could not open input", "error", err.Error())
		}
		defer f.Close()
		r = f
	}

	rec, _, err := iqrec.Decode(r)
	if err != nil {
		log.Fatal(pkg+"could not decode recording", "error", err.Error())
	}

	cfg := scanner.Config{AutoThreshold: *auto}
	n := largestPowerOfTwoAtMost(len(rec.I), *fftSize)
	if n == 0 {
		log.Fatal(pkg + "recording is too short to scan")
	}

	peaks, err := scanner.Scan(rec.I[:n], rec.Q[:n], rec.Header.SampleRateHz, rec.Header.CenterFreqHz, n, cfg)
	if err != nil {
		log.Fatal(pkg+"scan failed", "error", err.Error())
	}

	fmt.Printf("found %d station(s) around center frequency %.3f MHz:\n", len(peaks), rec.Header.CenterFreqHz/1e6)
	for _, p := range peaks {
		fmt.Printf("  %.4f MHz  %.1f dB\n", p.FrequencyHz/1e6, p.PowerDb)
	}
}

// largestPowerOfTwoAtMost returns the largest power of two <= both n and
// cap, or 0 if none exists (n < 1).
func largestPowerOfTwoAtMost(n, cap int) int {
	limit := n
	if cap < limit {
		limit = cap
	}
	p := 1
	for p*2 <= limit {
		p *= 2
	}
	if p > limit {
		return 0
	}
	return p
}

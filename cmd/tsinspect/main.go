/*
NAME
  main.go

DESCRIPTION
  tsinspect reads an MPEG-2 transport stream from a file or stdin and
  prints a summary of the programs and elementary streams it finds, the
  PSIP virtual channel table, and the parser's counters, exercising the tsdemux package the way cmd/rv exercises
  revid: a thin flag-driven wrapper over a library package.

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

// Package tsinspect is a command-line front end for tsdemux.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/sdr/tsdemux"
	"github.com/ausocean/utils/logging"
)

const pkg = "tsinspect: "

func main() {
	path := flag.String("path", "", "path to a transport stream file; defaults to stdin")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := logging.Info
	if *verbose {
		level = logging.Debug
	}
	log := logging.New(level, os.Stderr, false)

	r := os.Stdin
	if *path != "" {
		f, err := os.Open(*path)
		if err != nil {
			log.Fatal(pkg+"could not open input", "error", err.Error())
		}
		defer f.Close()
		r = f
	}

	dmx := tsdemux.NewDemuxer(log)
	if err := dmx.ParseStreamReader(r); err != nil {
		log.Error(pkg+"stream ended with error", "error", err.Error())
	}

	report(dmx)
}

func report(dmx *tsdemux.Demuxer) {
	pat := dmx.GetPAT()
	if pat == nil {
		fmt.Println("no PAT observed")
		return
	}
	fmt.Printf("transport stream id: %d\n", pat.TransportStreamID)
	fmt.Printf("programs:\n")
	for program, pmtPID := range pat.Programs {
		fmt.Printf("  program %d -> PMT PID 0x%04X\n", program, pmtPID)
		pmt := dmx.GetPMT(program)
		if pmt == nil {
			continue
		}
		for _, es := range pmt.Streams {
			fmt.Printf("    elementary stream: type=0x%02X pid=0x%04X\n", es.StreamType, es.PID)
		}
	}

	if vct := dmx.GetVCT(); vct != nil {
		fmt.Println("virtual channel table:")
		for _, ch := range vct.Channels {
			fmt.Printf("  %d.%d %s\n", ch.MajorNumber, ch.MinorNumber, ch.ShortName)
		}
	}

	counters := dmx.Counters()
	fmt.Printf("counters: %+v\n", counters)
}

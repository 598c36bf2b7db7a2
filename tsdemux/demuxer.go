/*
NAME
  demuxer.go

DESCRIPTION
  demuxer.go implements the stateful transport stream parser: sync
  recovery, the 188-byte packet loop, continuity tracking, PID filtering,
  and dispatch to PAT/PMT/PSIP processing, generalizing
  ausocean/av/container/mts.Packet's field extraction and
  discontinuity.go's counter-state idiom to the decode direction per §4.5.

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

package tsdemux

import (
	"io"
	"sync"

	"github.com/ausocean/sdr/tsdemux/psip"
)

// PSIP table ids, per §6.
const (
	TableIDPAT  = 0x00
	TableIDPMT  = 0x02
	TableIDMGT  = 0xC7
	TableIDTVCT = 0xC8
	TableIDCVCT = 0xC9
	TableIDRRT  = 0xCA
	TableIDEIT  = 0xCB
	TableIDETT  = 0xCC
	TableIDSTT  = 0xCD
)

// Logger is the subset of github.com/ausocean/utils/logging.Logger used by
// this package.
type Logger interface {
	Debug(msg string, params ...interface{})
	Warning(msg string, params ...interface{})
	Error(msg string, params ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{})   {}
func (noopLogger) Warning(string, ...interface{}) {}
func (noopLogger) Error(string, ...interface{})   {}

// Demuxer parses a byte-oriented MPEG-2 transport stream into PAT/PMT and
// ATSC PSIP tables. Exclusive to its caller; no internal locking beyond
// what's needed to make snapshot queries safe alongside ParseStream.
type Demuxer struct {
	mu sync.Mutex

	pat *PAT
	pmt map[uint16]*PMT // program_number -> PMT.

	pmtPIDToProgram map[uint16]uint16 // PMT PID -> program_number, derived from pat.

	continuity *continuityTracker
	pidFilter  map[uint16]bool // nil = allow all.

	mgt *psip.MGT
	vct *psip.VCT
	eit map[uint16]*psip.EIT // keyed by source_id.
	ett map[uint32]*psip.ETT // keyed by ETM id.

	counters Counters

	log Logger
}

// NewDemuxer constructs an empty Demuxer. log may be nil.
func NewDemuxer(log Logger) *Demuxer {
	if log == nil {
		log = noopLogger{}
	}
	psip.SetHuffmanWarningLogger(func(msg string) { log.Warning(msg) })
	return &Demuxer{
		pmt:             make(map[uint16]*PMT),
		pmtPIDToProgram: make(map[uint16]uint16),
		continuity:      newContinuityTracker(),
		eit:             make(map[uint16]*psip.EIT),
		ett:             make(map[uint32]*psip.ETT),
		log:             log,
	}
}

// SetPIDFilter restricts packet dispatch to the given PIDs. PAT (0x0000) and
// PSIP (0x1FFB) are always allowed through regardless of filter. A nil or
// empty list disables filtering (allow all).
func (d *Demuxer) SetPIDFilter(pids []uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(pids) == 0 {
		d.pidFilter = nil
		return
	}
	d.pidFilter = make(map[uint16]bool, len(pids))
	for _, p := range pids {
		d.pidFilter[p] = true
	}
}

func (d *Demuxer) allowed(pid uint16) bool {
	if pid == PATPID || pid == PSIPPID {
		return true
	}
	if d.pidFilter == nil {
		return true
	}
	return d.pidFilter[pid]
}

// ParseStream advances past any bytes that are not the sync byte (each
// counts as a sync error), then parses 188-byte packets until fewer than
// 188 bytes remain, updating continuity state and dispatching each packet
// to PAT/PMT/PSIP processing per §4.5.
func (d *Demuxer) ParseStream(b []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cursor := 0
	for cursor < len(b) {
		if b[cursor] != SyncByte {
			cursor++
			d.counters.SyncErrors++
			continue
		}
		if len(b)-cursor < PacketSize {
			break
		}

		pkt, err := ParsePacket(b[cursor : cursor+PacketSize])
		cursor += PacketSize
		if err != nil {
			d.counters.SyncErrors++
			continue
		}
		if pkt.TEI {
			d.counters.TEIErrors++
		}

		ok := d.continuity.observe(pkt)
		if !ok {
			d.counters.ContinuityErrors++
			continue
		}
		if !pkt.HasPayload {
			continue
		}
		if !d.allowed(pkt.PID) {
			continue
		}

		d.dispatch(pkt)
	}
}

// ParseStreamReader drains r and feeds it to ParseStream in fixed-size
// chunks, for callers streaming from a file or socket.
func (d *Demuxer) ParseStreamReader(r io.Reader) error {
	const chunk = PacketSize * 256
	buf := make([]byte, chunk)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			d.ParseStream(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// section extracts the pointer-byte-stripped section bytes from a
// PUSI-flagged packet's payload, validating that the declared section
// length does not exceed available bytes. Returns false when the pointer
// byte or declared length is inconsistent with the available payload.
func section(payload []byte, pusi bool) ([]byte, bool) {
	if !pusi {
		return payload, len(payload) > 0
	}
	if len(payload) < 1 {
		return nil, false
	}
	pointer := int(payload[0])
	start := 1 + pointer
	if start > len(payload) {
		return nil, false
	}
	sec := payload[start:]
	if len(sec) < 3 {
		return nil, false
	}
	sectionLength := int(sec[1]&0x0F)<<8 | int(sec[2])
	end := 3 + sectionLength
	if end > len(sec) {
		return nil, false // incomplete section, dropped.
	}
	return sec, true
}

func (d *Demuxer) dispatch(pkt *Packet) {
	sec, ok := section(pkt.Payload, pkt.PUSI)
	if !ok {
		return
	}

	switch {
	case pkt.PID == PATPID:
		d.handlePAT(sec)
	case pkt.PID == PSIPPID:
		d.handlePSIP(sec)
	default:
		if program, ok := d.pmtPIDToProgram[pkt.PID]; ok {
			d.handlePMT(program, sec)
		}
	}
}

func (d *Demuxer) handlePAT(sec []byte) {
	pat, ok := parsePAT(sec)
	if !ok {
		return
	}
	// Atomic replace: clear the reverse map before installing new entries.
	d.pmtPIDToProgram = make(map[uint16]uint16, len(pat.Programs))
	for program, pid := range pat.Programs {
		d.pmtPIDToProgram[pid] = program
	}
	for program := range d.pmt {
		if _, ok := pat.Programs[program]; !ok {
			delete(d.pmt, program)
		}
	}
	d.pat = pat
	d.counters.TableUpdates++
}

func (d *Demuxer) handlePMT(program uint16, sec []byte) {
	if sec[0] != TableIDPMT {
		return
	}
	pmt, ok := parsePMT(sec)
	if !ok {
		return
	}
	d.pmt[program] = pmt
	d.counters.TableUpdates++
}

func (d *Demuxer) handlePSIP(sec []byte) {
	if len(sec) < 1 {
		return
	}
	switch sec[0] {
	case TableIDMGT:
		if mgt, ok := psip.ParseMGT(sec); ok {
			d.mgt = mgt
			d.counters.TableUpdates++
		}
	case TableIDTVCT:
		if vct, ok := psip.ParseVCT(TableIDTVCT, sec); ok {
			d.vct = vct
			d.counters.TableUpdates++
		}
	case TableIDCVCT:
		if vct, ok := psip.ParseVCT(TableIDCVCT, sec); ok {
			d.vct = vct
			d.counters.TableUpdates++
		}
	case TableIDEIT:
		if eit, ok := psip.ParseEIT(sec); ok {
			d.eit[eit.SourceID] = eit
			d.counters.TableUpdates++
		}
	case TableIDETT:
		if ett, ok := psip.ParseETT(sec); ok {
			d.ett[ett.ETMID] = ett
			d.counters.TableUpdates++
		}
	default:
		d.log.Debug("unhandled PSIP table", "tableID", sec[0])
	}
}

// Reset clears all parser state: tables, continuity tracking, and
// counters.
func (d *Demuxer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pat = nil
	d.pmt = make(map[uint16]*PMT)
	d.pmtPIDToProgram = make(map[uint16]uint16)
	d.continuity.reset()
	d.mgt = nil
	d.vct = nil
	d.eit = make(map[uint16]*psip.EIT)
	d.ett = make(map[uint32]*psip.ETT)
	d.counters = Counters{}
}

// Counters returns a snapshot of parser error/update telemetry.
func (d *Demuxer) Counters() Counters {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counters
}

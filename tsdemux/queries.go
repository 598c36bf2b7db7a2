/*
NAME
  queries.go

DESCRIPTION
  queries.go exposes the Demuxer's public read accessors, plus
  DemultiplexTo, generalizing
  ausocean/av/container/mts.FindPid/mts.Payload's write-once-buffer
  extraction to the read/decode direction: copy out only the payload bytes
  belonging to one PID from a raw packet stream.
*/

package tsdemux

import (
	"io"

	"github.com/ausocean/sdr/tsdemux/psip"
)

// GetPAT returns a snapshot of the latest accepted PAT, or nil if none has
// been seen.
func (d *Demuxer) GetPAT() *PAT {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pat == nil {
		return nil
	}
	cp := *d.pat
	cp.Programs = make(map[uint16]uint16, len(d.pat.Programs))
	for k, v := range d.pat.Programs {
		cp.Programs[k] = v
	}
	return &cp
}

// GetPMT returns the PMT for programNumber, or nil if unknown -- including
// when programNumber was present in a prior PAT but absent from the
// current one (PAT atomicity, per §8).
func (d *Demuxer) GetPMT(programNumber uint16) *PMT {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pmt[programNumber]
}

// GetAllPMTs returns a snapshot of every known program's PMT.
func (d *Demuxer) GetAllPMTs() map[uint16]*PMT {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[uint16]*PMT, len(d.pmt))
	for k, v := range d.pmt {
		out[k] = v
	}
	return out
}

// GetMGT returns the latest Master Guide Table, or nil.
func (d *Demuxer) GetMGT() *psip.MGT {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mgt
}

// GetVCT returns the latest Virtual Channel Table, or nil.
func (d *Demuxer) GetVCT() *psip.VCT {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vct
}

// GetEIT returns the EIT for sourceID, or nil.
func (d *Demuxer) GetEIT(sourceID uint16) *psip.EIT {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eit[sourceID]
}

// GetAllEITs returns a snapshot of every known source_id's EIT.
func (d *Demuxer) GetAllEITs() map[uint16]*psip.EIT {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[uint16]*psip.EIT, len(d.eit))
	for k, v := range d.eit {
		out[k] = v
	}
	return out
}

// GetETT returns the extended text table entry for ettID, or nil.
func (d *Demuxer) GetETT(ettID uint32) *psip.ETT {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ett[ettID]
}

// GetElementaryStreams maps stream_type to the list of elementary PIDs
// carrying it, for the given program.
func (d *Demuxer) GetElementaryStreams(programNumber uint16) map[uint8][]uint16 {
	d.mu.Lock()
	pmt := d.pmt[programNumber]
	d.mu.Unlock()
	if pmt == nil {
		return nil
	}
	out := make(map[uint8][]uint16)
	for _, es := range pmt.Streams {
		out[es.StreamType] = append(out[es.StreamType], es.PID)
	}
	return out
}

// GetVideoPIDs returns the elementary PIDs of recognized video stream types
// for the given program.
func (d *Demuxer) GetVideoPIDs(programNumber uint16) []uint16 {
	d.mu.Lock()
	pmt := d.pmt[programNumber]
	d.mu.Unlock()
	if pmt == nil {
		return nil
	}
	var out []uint16
	for _, es := range pmt.Streams {
		if isVideoStreamType(es.StreamType) {
			out = append(out, es.PID)
		}
	}
	return out
}

// GetAudioPIDs returns the elementary PIDs of recognized audio stream types
// for the given program.
func (d *Demuxer) GetAudioPIDs(programNumber uint16) []uint16 {
	d.mu.Lock()
	pmt := d.pmt[programNumber]
	d.mu.Unlock()
	if pmt == nil {
		return nil
	}
	var out []uint16
	for _, es := range pmt.Streams {
		if isAudioStreamType(es.StreamType) {
			out = append(out, es.PID)
		}
	}
	return out
}

// Demultiplex returns the concatenated payload bytes of every packet in
// packets (a raw byte stream, not yet parsed by this Demuxer) belonging to
// pid, in stream order. Malformed packets are skipped.
func Demultiplex(packets []byte, pid uint16) []byte {
	var out []byte
	cursor := 0
	for cursor+PacketSize <= len(packets) {
		if packets[cursor] != SyncByte {
			cursor++
			continue
		}
		pkt, err := ParsePacket(packets[cursor : cursor+PacketSize])
		cursor += PacketSize
		if err != nil {
			continue
		}
		if pkt.PID == pid && pkt.HasPayload {
			out = append(out, pkt.Payload...)
		}
	}
	return out
}

// DemultiplexTo streams the payload bytes of every packet in packets
// belonging to pid directly to dst, avoiding the full-buffer allocation of
// Demultiplex.
func DemultiplexTo(dst io.Writer, packets []byte, pid uint16) error {
	cursor := 0
	for cursor+PacketSize <= len(packets) {
		if packets[cursor] != SyncByte {
			cursor++
			continue
		}
		pkt, err := ParsePacket(packets[cursor : cursor+PacketSize])
		cursor += PacketSize
		if err != nil {
			continue
		}
		if pkt.PID == pid && pkt.HasPayload {
			if _, err := dst.Write(pkt.Payload); err != nil {
				return err
			}
		}
	}
	return nil
}

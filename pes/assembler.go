/*
NAME
  assembler.go

DESCRIPTION
  assembler.go buffers elementary stream payload bytes per PID until the
  next PES start code appears, then parses the completed packet,
  generalizing tonalfitness/ivsmeta's PESAccumulator (which buffers to a
  declared PacketSize) to payloads whose PacketLength is commonly zero
  (unbounded), the usual case for video: completion is instead detected by
  the next start code, as §4.6 specifies.
*/

package pes

// Packet is one fully reassembled PES packet.
type Packet struct {
	Header  Header
	Payload []byte
}

// Assembler reassembles PES packets for one PID from a sequence of
// transport-stream payload chunks, each possibly beginning a new PES
// packet (PUSI-equivalent) or continuing the current one.
type Assembler struct {
	buf     []byte
	started bool
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Write feeds one chunk of payload bytes. start indicates whether this
// chunk begins a new PES packet (payload-unit-start). When start is true
// and a packet was already in progress, the in-progress packet is
// finalized and returned before buffering the new chunk.
func (a *Assembler) Write(chunk []byte, start bool) (*Packet, error) {
	if start {
		var out *Packet
		if a.started && len(a.buf) > 0 {
			pkt, err := a.finalize()
			if err != nil {
				out = nil
			} else {
				out = pkt
			}
		}
		a.buf = append([]byte(nil), chunk...)
		a.started = true
		return out, nil
	}

	if !a.started {
		return nil, nil // discard bytes before the first start code.
	}
	a.buf = append(a.buf, chunk...)
	return nil, nil
}

// Flush finalizes any in-progress packet, e.g. at end of stream.
func (a *Assembler) Flush() (*Packet, error) {
	if !a.started || len(a.buf) == 0 {
		return nil, nil
	}
	pkt, err := a.finalize()
	a.started = false
	a.buf = nil
	return pkt, err
}

func (a *Assembler) finalize() (*Packet, error) {
	h, err := ParseHeader(a.buf)
	if err != nil {
		return nil, err
	}
	start := h.DataStartIndex
	if start > len(a.buf) {
		start = len(a.buf)
	}
	return &Packet{Header: *h, Payload: a.buf[start:]}, nil
}

/*
NAME
  continuity.go

DESCRIPTION
  continuity.go tracks per-PID continuity counter state, generalizing
  ausocean/av/container/mts/discontinuity.go's DiscontinuityRepairer (which
  repairs counters on the encode side) to the decode side: here a mismatch
  is recorded as an error count and the stored counter is simply
  resynchronized to the observed value, never corrected in the stream
  itself.
*/

package tsdemux

// continuityTracker holds per-PID continuity counter state: {untracked,
// tracked(cc)}, per §4.5's state machine.
type continuityTracker struct {
	tracked map[uint16]uint8
}

func newContinuityTracker() *continuityTracker {
	return &continuityTracker{tracked: make(map[uint16]uint8)}
}

// observe validates pkt's continuity counter against the tracked state for
// its PID. Packets without payload do not advance state and are always
// considered valid (their CC is not meaningful). Returns false on a
// violation; the stored state is set to the observed value regardless.
func (c *continuityTracker) observe(pkt *Packet) bool {
	if !pkt.HasPayload {
		return true
	}

	prev, tracked := c.tracked[pkt.PID]
	c.tracked[pkt.PID] = pkt.ContinuityCounter
	if !tracked {
		return true
	}

	want := (prev + 1) % 16
	return pkt.ContinuityCounter == want
}

func (c *continuityTracker) reset() {
	c.tracked = make(map[uint16]uint8)
}

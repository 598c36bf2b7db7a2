package tsdemux

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// buildPacket assembles one 188-byte packet with the given header fields
// and payload, zero-padding (stuffing) the remainder.
func buildPacket(pid uint16, pusi bool, cc uint8, payload []byte) []byte {
	b := make([]byte, PacketSize)
	b[0] = SyncByte
	b[1] = byte(pid >> 8 & 0x1F)
	if pusi {
		b[1] |= 0x40
	}
	b[2] = byte(pid)
	b[3] = 0x10 | (cc & 0x0F) // adaptation_field_control = payload only (01) << 4.
	n := copy(b[4:], payload)
	_ = n
	return b
}

// TestSyncRecovery grounds scenario S1: 400 bytes of 0x00 followed by one
// valid packet with PID 0x0000 recovers sync and counts >= 400 sync errors.
func TestSyncRecovery(t *testing.T) {
	junk := make([]byte, 400)
	pkt := buildPacket(PATPID, true, 0, []byte{0x00, 0x00, 0xB0, 0x0D, 0x00, 0x01, 0xC1, 0x00, 0x00, 0x00, 0x01, 0xE1, 0x00, 0x00, 0x00, 0x00, 0x00})
	stream := append(junk, pkt...)

	d := NewDemuxer(nil)
	d.ParseStream(stream)

	require.GreaterOrEqual(t, d.Counters().SyncErrors, int64(400))
	require.NotNil(t, d.GetPAT())
}

// TestMinimalPAT grounds scenario S2.
func TestMinimalPAT(t *testing.T) {
	payload := []byte{0x00, 0x00, 0xB0, 0x0D, 0x00, 0x01, 0xC1, 0x00, 0x00, 0x00, 0x01, 0xE1, 0x00, 0x00, 0x00, 0x00, 0x00}
	pkt := buildPacket(PATPID, true, 0, payload)

	d := NewDemuxer(nil)
	d.ParseStream(pkt)

	pat := d.GetPAT()
	require.NotNil(t, pat)
	require.Equal(t, uint16(1), pat.TransportStreamID)
	require.Equal(t, map[uint16]uint16{1: 0x0100}, pat.Programs)
}

// TestPMTLinkage grounds scenario S3: after accepting the S2 PAT, a PMT
// packet on PID 0x0100 resolves streams, video PIDs, and audio PIDs.
func TestPMTLinkage(t *testing.T) {
	patPayload := []byte{0x00, 0x00, 0xB0, 0x0D, 0x00, 0x01, 0xC1, 0x00, 0x00, 0x00, 0x01, 0xE1, 0x00, 0x00, 0x00, 0x00, 0x00}
	patPkt := buildPacket(PATPID, true, 0, patPayload)

	pmtPayload := []byte{
		0x00, // pointer byte
		0x02, 0xB0, 0x17, 0x00, 0x01, 0xC1, 0x00, 0x00,
		0xE1, 0x00, 0xF0, 0x00,
		0x1B, 0xE1, 0x01, 0xF0, 0x00,
		0x0F, 0xE1, 0x02, 0xF0, 0x00,
		0x00, 0x00, 0x00, 0x00, // CRC32 placeholder.
	}
	pmtPkt := buildPacket(0x0100, true, 0, pmtPayload)

	d := NewDemuxer(nil)
	d.ParseStream(patPkt)
	d.ParseStream(pmtPkt)

	pmt := d.GetPMT(1)
	require.NotNil(t, pmt)
	require.Len(t, pmt.Streams, 2)
	require.Equal(t, uint8(0x1B), pmt.Streams[0].StreamType)
	require.Equal(t, uint16(0x0101), pmt.Streams[0].PID)
	require.Equal(t, uint8(0x0F), pmt.Streams[1].StreamType)
	require.Equal(t, uint16(0x0102), pmt.Streams[1].PID)

	require.Equal(t, []uint16{0x0101}, d.GetVideoPIDs(1))
	require.Equal(t, []uint16{0x0102}, d.GetAudioPIDs(1))
}

// TestContinuityErrorScenario grounds §8's continuity property: packets
// carrying payload with counters c, c+1, c+3 (mod 16) record exactly one
// continuity error and end tracked at c+3.
func TestContinuityErrorScenario(t *testing.T) {
	const pid = 0x0101
	d := NewDemuxer(nil)

	payload := make([]byte, 180)
	p1 := buildPacket(pid, false, 4, payload)
	p2 := buildPacket(pid, false, 5, payload)
	p3 := buildPacket(pid, false, 7, payload) // skips 6: one violation.

	d.ParseStream(p1)
	d.ParseStream(p2)
	d.ParseStream(p3)

	require.Equal(t, int64(1), d.Counters().ContinuityErrors)
	require.Equal(t, uint8(7), d.continuity.tracked[pid])
}

// TestPATAtomicity grounds §8's PAT atomicity property: getPMT returns nil
// for any program absent from a newly accepted PAT, even if present in the
// prior one.
func TestPATAtomicity(t *testing.T) {
	d := NewDemuxer(nil)

	firstPAT := []byte{0x00, 0x00, 0xB0, 0x0D, 0x00, 0x01, 0xC1, 0x00, 0x00, 0x00, 0x01, 0xE1, 0x00, 0x00, 0x00, 0x00, 0x00}
	d.ParseStream(buildPacket(PATPID, true, 0, firstPAT))

	pmtPayload := []byte{
		0x00,
		0x02, 0xB0, 0x17, 0x00, 0x01, 0xC1, 0x00, 0x00,
		0xE1, 0x00, 0xF0, 0x00,
		0x1B, 0xE1, 0x01, 0xF0, 0x00,
		0x0F, 0xE1, 0x02, 0xF0, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	d.ParseStream(buildPacket(0x0100, true, 1, pmtPayload))
	require.NotNil(t, d.GetPMT(1))

	// New PAT with a different (single) program replaces the old map.
	secondPAT := []byte{0x00, 0x00, 0xB0, 0x0D, 0x00, 0x01, 0xC1, 0x00, 0x00, 0x00, 0x02, 0xE1, 0x01, 0x00, 0x00, 0x00, 0x00}
	d.ParseStream(buildPacket(PATPID, true, 1, secondPAT))

	pat := d.GetPAT()
	require.NotNil(t, pat)
	_, stillProgram1 := pat.Programs[1]
	require.False(t, stillProgram1)
	require.Nil(t, d.GetPMT(1))
}

// TestParsePacketSyncProperty grounds §8's universal property: any
// 188-byte block starting with 0x47 parses with PID/continuity fields
// intact; any other first byte fails.
func TestParsePacketSyncProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		pid := uint16(rapid.IntRange(0, 0x1FFF).Draw(rt, "pid"))
		cc := uint8(rapid.IntRange(0, 15).Draw(rt, "cc"))
		good := buildPacket(pid, false, cc, nil)

		pkt, err := ParsePacket(good)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		if pkt.PID != pid {
			rt.Fatalf("expected PID %x, got %x", pid, pkt.PID)
		}
		if pkt.ContinuityCounter != cc {
			rt.Fatalf("expected CC %d, got %d", cc, pkt.ContinuityCounter)
		}

		bad := make([]byte, PacketSize)
		copy(bad, good)
		bad[0] = byte(rapid.IntRange(0, 255).Filter(func(v int) bool { return v != SyncByte }).Draw(rt, "badSync"))
		if _, err := ParsePacket(bad); err == nil {
			rt.Fatalf("expected error for non-sync first byte %x", bad[0])
		}
	})
}

func TestResetClearsState(t *testing.T) {
	payload := []byte{0x00, 0x00, 0xB0, 0x0D, 0x00, 0x01, 0xC1, 0x00, 0x00, 0x00, 0x01, 0xE1, 0x00, 0x00, 0x00, 0x00, 0x00}
	d := NewDemuxer(nil)
	d.ParseStream(buildPacket(PATPID, true, 0, payload))
	require.NotNil(t, d.GetPAT())

	d.Reset()
	require.Nil(t, d.GetPAT())
	require.Equal(t, Counters{}, d.Counters())
}

func TestPIDFilterAlwaysAllowsPATAndPSIP(t *testing.T) {
	d := NewDemuxer(nil)
	d.SetPIDFilter([]uint16{0x0200}) // some unrelated PID.

	payload := []byte{0x00, 0x00, 0xB0, 0x0D, 0x00, 0x01, 0xC1, 0x00, 0x00, 0x00, 0x01, 0xE1, 0x00, 0x00, 0x00, 0x00, 0x00}
	d.ParseStream(buildPacket(PATPID, true, 0, payload))
	require.NotNil(t, d.GetPAT(), "PAT PID must always be allowed through a filter")

	mgt := []byte{0x00, 0xC7, 0xF0, 0x0D, 0x00, 0x00, 0xC1, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	d.ParseStream(buildPacket(PSIPPID, true, 0, mgt))
	require.NotNil(t, d.GetMGT(), "PSIP PID must always be allowed through a filter")
}

func TestDemultiplex(t *testing.T) {
	payload1 := make([]byte, 180)
	payload1[0] = 0xAA
	payload2 := make([]byte, 180)
	payload2[0] = 0xBB

	stream := append(buildPacket(0x0101, false, 0, payload1), buildPacket(0x0102, false, 0, payload2)...)
	out := Demultiplex(stream, 0x0101)
	require.NotEmpty(t, out)
	require.Equal(t, byte(0xAA), out[0])
}

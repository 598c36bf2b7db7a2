/*
NAME
  codec.go

DESCRIPTION
  codec.go encodes and decodes Recording values in both the JSON and
  binary container formats.
*/

package iqrec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"time"

	"github.com/pkg/errors"
)

// jsonDoc is the on-disk JSON shape: header fields plus parallel I/Q
// sample arrays.
type jsonDoc struct {
	Header
	I []float32 `json:"i"`
	Q []float32 `json:"q"`
}

// Encode writes r to w in the given format.
func Encode(w io.Writer, r *Recording, format Format) error {
	if err := r.validate(); err != nil {
		return err
	}
	switch format {
	case FormatJSON:
		return encodeJSON(w, r)
	case FormatBinary:
		return encodeBinary(w, r)
	default:
		return errors.Errorf("iqrec: unknown format %d", format)
	}
}

// Decode reads a Recording from r, detecting JSON vs binary by the
// leading magic bytes.
func Decode(r io.Reader) (*Recording, Format, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, errors.Wrap(err, "iqrec: failed to read recording")
	}
	if len(buf) >= 4 && bytes.Equal(buf[:4], binaryMagic[:]) {
		rec, err := decodeBinary(buf)
		return rec, FormatBinary, err
	}
	rec, err := decodeJSON(buf)
	return rec, FormatJSON, err
}

func encodeJSON(w io.Writer, r *Recording) error {
	doc := jsonDoc{Header: r.Header, I: r.I, Q: r.Q}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "iqrec: failed to encode JSON recording")
	}
	return nil
}

func decodeJSON(buf []byte) (*Recording, error) {
	var doc jsonDoc
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, errors.Wrap(ErrMissingMetadata, err.Error())
	}
	rec := &Recording{Header: doc.Header, I: doc.I, Q: doc.Q}
	if err := rec.validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// binary layout, all little-endian:
//
//	magic       [4]byte  "IQR1"
//	majVer      uint8
//	minVer      uint8
//	_reserved   uint16
//	timestampMs uint64   Unix milliseconds.
//	centerHz    float64
//	sampleRate  float64
//	sampleCount uint32
//	signalTypeLen uint16
//	signalType  []byte
//	deviceNameLen uint16
//	deviceName  []byte
//	samples     sampleCount * (float32 I, float32 Q)
const (
	binMajVer = 1
	binMinVer = 0
)

func encodeBinary(w io.Writer, r *Recording) error {
	var buf bytes.Buffer
	buf.Write(binaryMagic[:])
	buf.WriteByte(binMajVer)
	buf.WriteByte(binMinVer)
	buf.Write([]byte{0, 0}) // reserved.

	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(r.Header.Timestamp.UnixMilli()))
	buf.Write(scratch[:])
	binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(r.Header.CenterFreqHz))
	buf.Write(scratch[:])
	binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(r.Header.SampleRateHz))
	buf.Write(scratch[:])

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(r.I)))
	buf.Write(u32[:])

	writeString(&buf, r.Header.SignalType)
	writeString(&buf, r.Header.DeviceName)

	sample := make([]byte, 8)
	for idx := range r.I {
		putFloat32(sample[0:4], r.I[idx])
		putFloat32(sample[4:8], r.Q[idx])
		buf.Write(sample)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "iqrec: failed to write binary recording")
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func decodeBinary(buf []byte) (*Recording, error) {
	const fixedHeaderLen = 4 + 1 + 1 + 2 + 8 + 8 + 8 + 4
	if len(buf) < fixedHeaderLen {
		return nil, errors.Wrap(ErrMissingMetadata, "binary header truncated")
	}
	if !bytes.Equal(buf[:4], binaryMagic[:]) {
		return nil, ErrBadMagic
	}
	cursor := 8 // skip magic(4), majVer(1), minVer(1), reserved(2).
	timestampMs := binary.LittleEndian.Uint64(buf[cursor : cursor+8])
	cursor += 8
	centerHz := math.Float64frombits(binary.LittleEndian.Uint64(buf[cursor : cursor+8]))
	cursor += 8
	sampleRate := math.Float64frombits(binary.LittleEndian.Uint64(buf[cursor : cursor+8]))
	cursor += 8
	sampleCount := binary.LittleEndian.Uint32(buf[cursor : cursor+4])
	cursor += 4

	signalType, n, err := readString(buf, cursor)
	if err != nil {
		return nil, err
	}
	cursor = n
	deviceName, n, err := readString(buf, cursor)
	if err != nil {
		return nil, err
	}
	cursor = n

	want := cursor + int(sampleCount)*8
	if want > len(buf) {
		return nil, errors.Wrapf(ErrMissingSamples, "expected %d sample bytes, have %d", want-cursor, len(buf)-cursor)
	}

	i := make([]float32, sampleCount)
	q := make([]float32, sampleCount)
	for idx := 0; idx < int(sampleCount); idx++ {
		off := cursor + idx*8
		i[idx] = getFloat32(buf[off : off+4])
		q[idx] = getFloat32(buf[off+4 : off+8])
	}

	rec := &Recording{
		Header: Header{
			Version:      version,
			Timestamp:    timeFromUnixMilli(timestampMs),
			CenterFreqHz: centerHz,
			SampleRateHz: sampleRate,
			SampleCount:  int(sampleCount),
			DurationSecs: durationSecs(sampleRate, int(sampleCount)),
			SignalType:   signalType,
			DeviceName:   deviceName,
		},
		I: i,
		Q: q,
	}
	if err := rec.validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func readString(buf []byte, cursor int) (string, int, error) {
	if cursor+2 > len(buf) {
		return "", 0, errors.Wrap(ErrMissingMetadata, "truncated string length")
	}
	n := int(binary.LittleEndian.Uint16(buf[cursor : cursor+2]))
	cursor += 2
	if cursor+n > len(buf) {
		return "", 0, errors.Wrap(ErrMissingMetadata, "truncated string data")
	}
	return string(buf[cursor : cursor+n]), cursor + n, nil
}

func durationSecs(sampleRateHz float64, n int) float64 {
	if sampleRateHz <= 0 {
		return 0
	}
	return float64(n) / sampleRateHz
}

func timeFromUnixMilli(ms uint64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}

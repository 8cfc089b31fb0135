// Package testutil provides shared test utilities and fixtures.
//
// The capture builders here encode sensor frames independently of the
// parse package so decoder tests do not check the decoder against itself.
package testutil

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Magic is the frame sync pattern.
var Magic = []byte{0x02, 0x01, 0x04, 0x03, 0x06, 0x05, 0x08, 0x07}

// TLV type codes used by the fixtures.
const (
	TLVDetectedObjects uint32 = 1
	TLVRangeProfile    uint32 = 2
	TLVStats           uint32 = 6
)

// MinFrameBytes matches the decoder's remaining-buffer guard. Frames built
// by CaptureBuilder.Frame are padded to at least this size so that every
// frame in a fixture is decodable, including the last.
const MinFrameBytes = 500

// padByte never appears in Magic, so padding cannot create a false sync.
const padByte = 0xAA

// Object is a raw detected-object record.
type Object struct {
	RangeIdx   uint16
	DopplerIdx uint16
	PeakVal    uint16
	X, Y, Z    int16
}

// TLV is a type code and its payload.
type TLV struct {
	Type    uint32
	Payload []byte
}

// ObjectsTLV builds a detected-objects TLV from raw records.
func ObjectsTLV(q uint16, objs ...Object) TLV {
	return TLV{Type: TLVDetectedObjects, Payload: ObjectsPayload(q, objs...)}
}

// ObjectsPayload encodes a detected-objects payload: count, Q-format, records.
func ObjectsPayload(q uint16, objs ...Object) []byte {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.LittleEndian, uint16(len(objs)))
	_ = binary.Write(&b, binary.LittleEndian, q)
	for _, o := range objs {
		_ = binary.Write(&b, binary.LittleEndian, o)
	}
	return b.Bytes()
}

// OpaqueTLV builds a TLV of any type with n filler bytes.
func OpaqueTLV(typ uint32, n int) TLV {
	return TLV{Type: typ, Payload: bytes.Repeat([]byte{padByte}, n)}
}

// EncodeTLV returns the header and payload of t.
func EncodeTLV(t TLV) []byte {
	out := make([]byte, 8, 8+len(t.Payload))
	binary.LittleEndian.PutUint32(out[0:4], t.Type)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(t.Payload)))
	return append(out, t.Payload...)
}

// EncodeFrame returns a complete frame: header followed by tlvs, unpadded.
func EncodeFrame(frameNumber uint32, tlvs ...TLV) []byte {
	var body []byte
	numObj := 0
	for _, t := range tlvs {
		body = append(body, EncodeTLV(t)...)
		if t.Type == TLVDetectedObjects && len(t.Payload) >= 2 {
			numObj += int(binary.LittleEndian.Uint16(t.Payload[0:2]))
		}
	}

	hdr := make([]byte, 36)
	copy(hdr[0:8], Magic)
	le := binary.LittleEndian
	le.PutUint32(hdr[8:12], 0x02010004)
	le.PutUint32(hdr[12:16], uint32(36+len(body)))
	le.PutUint32(hdr[16:20], 0xA1443)
	le.PutUint32(hdr[20:24], frameNumber)
	le.PutUint32(hdr[24:28], 123456)
	le.PutUint32(hdr[28:32], uint32(numObj))
	le.PutUint32(hdr[32:36], uint32(len(tlvs)))
	return append(hdr, body...)
}

// PaddedFrame appends a stats TLV of filler so the frame encodes to at
// least minBytes.
func PaddedFrame(frameNumber uint32, minBytes int, tlvs ...TLV) []byte {
	size := 36
	for _, t := range tlvs {
		size += 8 + len(t.Payload)
	}
	if size < minBytes {
		pad := minBytes - size - 8
		if pad < 0 {
			pad = 0
		}
		tlvs = append(tlvs, OpaqueTLV(TLVStats, pad))
	}
	return EncodeFrame(frameNumber, tlvs...)
}

// CaptureBuilder accumulates a synthetic capture.
type CaptureBuilder struct {
	buf  bytes.Buffer
	next uint32
}

// NewCaptureBuilder returns an empty builder. Frame numbers start at 1.
func NewCaptureBuilder() *CaptureBuilder {
	return &CaptureBuilder{next: 1}
}

// Frame appends a frame padded to MinFrameBytes.
func (b *CaptureBuilder) Frame(tlvs ...TLV) *CaptureBuilder {
	b.buf.Write(PaddedFrame(b.next, MinFrameBytes, tlvs...))
	b.next++
	return b
}

// Points appends a frame holding one detected-objects TLV with the given
// (x, y) pairs in Q-format q. Z is zero.
func (b *CaptureBuilder) Points(q uint16, xy ...[2]int16) *CaptureBuilder {
	objs := make([]Object, len(xy))
	for i, p := range xy {
		objs[i] = Object{RangeIdx: uint16(i), PeakVal: 100, X: p[0], Y: p[1]}
	}
	return b.Frame(ObjectsTLV(q, objs...))
}

// Empty appends n frames that carry no detected objects.
func (b *CaptureBuilder) Empty(n int) *CaptureBuilder {
	for i := 0; i < n; i++ {
		b.Frame()
	}
	return b
}

// Raw appends arbitrary bytes.
func (b *CaptureBuilder) Raw(p []byte) *CaptureBuilder {
	b.buf.Write(p)
	return b
}

// Bytes returns the capture built so far.
func (b *CaptureBuilder) Bytes() []byte {
	return append([]byte(nil), b.buf.Bytes()...)
}

// Cluster appends a frame holding n identical points at (x, y) plus two
// distant outliers that set the standardization scale, followed by
// fill-1 empty frames. With the default window of five frames, fill=5
// makes the whole window.
func (b *CaptureBuilder) Cluster(q uint16, n int, x, y int16, fill int) *CaptureBuilder {
	far := int16(10 << q)
	xy := make([][2]int16, 0, n+2)
	for i := 0; i < n; i++ {
		xy = append(xy, [2]int16{x, y})
	}
	xy = append(xy, [2]int16{far, far}, [2]int16{-far, far})
	b.Points(q, xy...)
	return b.Empty(fill - 1)
}

// Scatter appends a frame of four widely spaced points that cluster into
// nothing, followed by fill-1 empty frames.
func (b *CaptureBuilder) Scatter(q uint16, fill int) *CaptureBuilder {
	s := int16(5 << q)
	b.Points(q, [2]int16{0, 0}, [2]int16{s, s}, [2]int16{2 * s, 0}, [2]int16{0, 2 * s})
	return b.Empty(fill - 1)
}

// PresenceCapture is a 26-frame capture whose five windows are, in order:
// a 10-point cluster at (1, 1), a 10-point cluster at (1.25, 1), an empty
// window, a window with no cluster, and a 10-point cluster at (3, 3).
// The first two windows form a stationary run; the last is a singleton.
func PresenceCapture() []byte {
	const q = 8 // 256 counts per metre
	return NewCaptureBuilder().
		Empty(1).
		Cluster(q, 10, 256, 256, 5).
		Cluster(q, 10, 320, 256, 5).
		Empty(5).
		Scatter(q, 5).
		Cluster(q, 10, 768, 768, 5).
		Bytes()
}

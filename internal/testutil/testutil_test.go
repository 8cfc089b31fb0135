package testutil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()
	AssertError(t, errors.New("boom"))
}

func TestObjectsPayload_Layout(t *testing.T) {
	t.Parallel()

	p := ObjectsPayload(7, Object{RangeIdx: 1, DopplerIdx: 2, PeakVal: 3, X: -1, Y: 256, Z: 5})
	if len(p) != 4+12 {
		t.Fatalf("len = %d, want 16", len(p))
	}
	le := binary.LittleEndian
	if got := le.Uint16(p[0:2]); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
	if got := le.Uint16(p[2:4]); got != 7 {
		t.Errorf("q = %d, want 7", got)
	}
	if got := int16(le.Uint16(p[10:12])); got != -1 {
		t.Errorf("x = %d, want -1", got)
	}
}

func TestPaddedFrame_MinimumSize(t *testing.T) {
	t.Parallel()

	f := PaddedFrame(9, MinFrameBytes, ObjectsTLV(0, Object{X: 1}))
	if len(f) < MinFrameBytes {
		t.Fatalf("frame is %d bytes, want >= %d", len(f), MinFrameBytes)
	}
	if !bytes.HasPrefix(f, Magic) {
		t.Fatal("frame does not start with magic")
	}
	if bytes.Count(f, Magic) != 1 {
		t.Error("padding introduced a second sync pattern")
	}
	if got := binary.LittleEndian.Uint32(f[32:36]); got != 2 {
		t.Errorf("numTLVs = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(f[12:16]); int(got) != len(f) {
		t.Errorf("total length field = %d, want %d", got, len(f))
	}
}

func TestCaptureBuilder_FrameNumbers(t *testing.T) {
	t.Parallel()

	data := NewCaptureBuilder().Empty(3).Bytes()
	for i := 0; i < 3; i++ {
		off := bytes.Index(data, Magic)
		if off < 0 {
			t.Fatalf("frame %d: magic not found", i)
		}
		if got := binary.LittleEndian.Uint32(data[off+20 : off+24]); got != uint32(i+1) {
			t.Errorf("frame %d number = %d, want %d", i, got, i+1)
		}
		data = data[off+len(Magic):]
	}
}

func TestPresenceCapture_FrameCount(t *testing.T) {
	t.Parallel()

	data := PresenceCapture()
	if got := bytes.Count(data, Magic); got != 26 {
		t.Errorf("capture holds %d sync patterns, want 26", got)
	}
	if len(data) < 26*MinFrameBytes {
		t.Errorf("capture is %d bytes, want >= %d", len(data), 26*MinFrameBytes)
	}
}

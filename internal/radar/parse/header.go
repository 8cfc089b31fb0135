package parse

import (
	"encoding/binary"
	"fmt"
)

// Byte counts of the fixed-size wire structures.
const (
	FrameHeaderBytes   = 36 // 8-byte magic + 7 × u32
	TLVHeaderBytes     = 8  // type u32 + length u32
	ObjectsHeaderBytes = 4  // count u16 + xyzQFormat u16
	ObjectBytes        = 12 // 3 × u16 + 3 × i16
	StatsBytes         = 24 // stats TLV payload, skipped

	// DefaultMinFrameBufferBytes is the smallest remaining buffer in which
	// a frame decode is attempted. Shorter tails are treated as truncated.
	DefaultMinFrameBufferBytes = 500
)

// TLVType identifies the payload carried by a TLV record.
type TLVType uint32

// TLV type codes emitted by the sensor.
const (
	TLVDetectedObjects TLVType = 1
	TLVRangeProfile    TLVType = 2
	TLVStats           TLVType = 6
)

// String returns a short name for known types and the numeric code otherwise.
func (t TLVType) String() string {
	switch t {
	case TLVDetectedObjects:
		return "detected_objects"
	case TLVRangeProfile:
		return "range_profile"
	case TLVStats:
		return "stats"
	default:
		return fmt.Sprintf("type_%d", uint32(t))
	}
}

// FrameHeader is the fixed 36-byte header that opens each frame.
type FrameHeader struct {
	Magic             uint64
	Version           uint32
	TotalPacketLength uint32
	Platform          uint32
	FrameNumber       uint32
	CPUCycleCount     uint32
	NumDetectedObj    uint32
	NumTLVs           uint32
}

// TLVHeader precedes every TLV payload.
type TLVHeader struct {
	Type   TLVType
	Length uint32 // payload bytes, excluding this header
}

// ParseFrameHeader decodes a frame header from the first FrameHeaderBytes of
// data. It fails if data is short or does not start with the sync pattern.
func ParseFrameHeader(data []byte) (FrameHeader, error) {
	var h FrameHeader
	if len(data) < FrameHeaderBytes {
		return h, fmt.Errorf("frame header needs %d bytes, have %d", FrameHeaderBytes, len(data))
	}

	le := binary.LittleEndian
	h.Magic = le.Uint64(data[0:8])
	if h.Magic != MagicWord {
		return h, fmt.Errorf("bad frame magic 0x%016x", h.Magic)
	}
	h.Version = le.Uint32(data[8:12])
	h.TotalPacketLength = le.Uint32(data[12:16])
	h.Platform = le.Uint32(data[16:20])
	h.FrameNumber = le.Uint32(data[20:24])
	h.CPUCycleCount = le.Uint32(data[24:28])
	h.NumDetectedObj = le.Uint32(data[28:32])
	h.NumTLVs = le.Uint32(data[32:36])
	return h, nil
}

// ParseTLVHeader decodes a TLV header from the first TLVHeaderBytes of data.
func ParseTLVHeader(data []byte) (TLVHeader, error) {
	if len(data) < TLVHeaderBytes {
		return TLVHeader{}, fmt.Errorf("tlv header needs %d bytes, have %d", TLVHeaderBytes, len(data))
	}
	return TLVHeader{
		Type:   TLVType(binary.LittleEndian.Uint32(data[0:4])),
		Length: binary.LittleEndian.Uint32(data[4:8]),
	}, nil
}

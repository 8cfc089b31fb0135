package parse

import (
	"encoding/binary"
	"math"
)

// MaxQFormat is the largest xyzQFormat whose scale factor 2^q is a finite
// float64. Larger values make every object record in the payload malformed.
const MaxQFormat = 1023

// DetectedObject is one point reported by the sensor, converted from Q-format
// fixed point into metres.
type DetectedObject struct {
	RangeIdx   uint16
	DopplerIdx uint16
	PeakVal    uint16
	X, Y, Z    float64
	Range      float64 // planar range, sqrt(X² + Y²)
}

// DetectedObjects is the decoded payload of a detected-objects TLV.
type DetectedObjects struct {
	NumDetectedObj uint16
	XYZQFormat     uint16
	Objects        []DetectedObject
}

// NewDetectedObject converts a raw wire record using the payload's Q-format.
func NewDetectedObject(raw RawObject, xyzQFormat uint16) (DetectedObject, error) {
	if xyzQFormat > MaxQFormat {
		return DetectedObject{}, ErrQFormatRange
	}
	q := -int(xyzQFormat)
	x := math.Ldexp(float64(raw.X), q)
	y := math.Ldexp(float64(raw.Y), q)
	z := math.Ldexp(float64(raw.Z), q)
	return DetectedObject{
		RangeIdx:   raw.RangeIdx,
		DopplerIdx: raw.DopplerIdx,
		PeakVal:    raw.PeakVal,
		X:          x,
		Y:          y,
		Z:          z,
		Range:      math.Hypot(x, y),
	}, nil
}

// ParseDetectedObjects decodes a detected-objects payload. data must be
// exactly the TLV's declared payload: the header, then NumDetectedObj
// 12-byte records and nothing else.
//
// Errors are *ParseError with Frame and TLV unset; the Decoder fills those in.
func ParseDetectedObjects(data []byte) (*DetectedObjects, error) {
	if len(data) < ObjectsHeaderBytes {
		return nil, newParseError(-1, nil, ErrShortObjectsHeader)
	}

	le := binary.LittleEndian
	out := &DetectedObjects{
		NumDetectedObj: le.Uint16(data[0:2]),
		XYZQFormat:     le.Uint16(data[2:4]),
	}
	data = data[ObjectsHeaderBytes:]

	out.Objects = make([]DetectedObject, 0, out.NumDetectedObj)
	for i := 0; i < int(out.NumDetectedObj); i++ {
		if len(data) < ObjectBytes {
			return nil, newParseError(i, nil, ErrTruncatedObject)
		}
		raw := RawObject{
			RangeIdx:   le.Uint16(data[0:2]),
			DopplerIdx: le.Uint16(data[2:4]),
			PeakVal:    le.Uint16(data[4:6]),
			X:          int16(le.Uint16(data[6:8])),
			Y:          int16(le.Uint16(data[8:10])),
			Z:          int16(le.Uint16(data[10:12])),
		}
		obj, err := NewDetectedObject(raw, out.XYZQFormat)
		if err != nil {
			return nil, newParseError(i, &raw, err)
		}
		out.Objects = append(out.Objects, obj)
		data = data[ObjectBytes:]
	}

	if len(data) != 0 {
		return nil, newParseError(-1, nil, ErrTrailingPayload)
	}
	return out, nil
}

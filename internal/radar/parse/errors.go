package parse

import (
	"errors"
	"fmt"
	"strings"
)

// Causes wrapped by ParseError.
var (
	ErrShortObjectsHeader = errors.New("detected-objects payload shorter than its header")
	ErrTruncatedObject    = errors.New("detected-objects payload ends inside an object record")
	ErrTrailingPayload    = errors.New("received more data than expected, indicates earlier parsing error")
	ErrQFormatRange       = errors.New("xyz q-format out of range")
)

// RawObject is an object record exactly as it appeared on the wire.
type RawObject struct {
	RangeIdx   uint16
	DopplerIdx uint16
	PeakVal    uint16
	X, Y, Z    int16
}

// String renders the raw tuple in record order.
func (r RawObject) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d, %d, %d)", r.RangeIdx, r.DopplerIdx, r.PeakVal, r.X, r.Y, r.Z)
}

// ParseError reports a detected-objects payload that could not be decoded.
// It is fatal for the capture: once a payload disagrees with its declared
// length the frame boundaries that follow cannot be trusted.
//
// Frame, TLV and Object are zero-based positions, or -1 when unknown.
type ParseError struct {
	Frame  int
	TLV    int
	Object int
	Offset int        // absolute byte offset of the TLV payload, -1 if unknown
	Raw    *RawObject // offending record, nil if the failure is not per-object
	Err    error
}

func newParseError(object int, raw *RawObject, err error) *ParseError {
	return &ParseError{Frame: -1, TLV: -1, Object: object, Offset: -1, Raw: raw, Err: err}
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.Frame >= 0 {
		fmt.Fprintf(&b, " frame=%d", e.Frame)
	}
	if e.TLV >= 0 {
		fmt.Fprintf(&b, " tlv=%d", e.TLV)
	}
	if e.Object >= 0 {
		fmt.Fprintf(&b, " object=%d", e.Object)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " offset=%d", e.Offset)
	}
	if e.Raw != nil {
		fmt.Fprintf(&b, " tuple=%s", e.Raw)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

package parse

import (
	"errors"

	"github.com/banshee-data/presence.report/internal/monitoring"
)

// StopReason records why decoding ended.
type StopReason string

// Reasons a decode can end without error.
const (
	StopEndOfStream  StopReason = "end_of_stream" // buffer fully consumed
	StopNoSync       StopReason = "no_sync"       // trailing bytes hold no sync pattern
	StopShortBuffer  StopReason = "short_buffer"  // fewer than MinFrameBufferBytes remain at a sync pattern
	StopTruncatedTLV StopReason = "truncated_tlv" // a TLV header or payload runs past the end
	StopParseFailure StopReason = "parse_failure" // a ParseError aborted the decode
)

// Options tunes the decoder.
type Options struct {
	// MinFrameBufferBytes is the smallest remaining buffer, measured from
	// the sync pattern, in which a frame is attempted. Zero means
	// DefaultMinFrameBufferBytes.
	MinFrameBufferBytes int
}

// DefaultOptions returns the decoder settings used for sensor captures.
func DefaultOptions() Options {
	return Options{MinFrameBufferBytes: DefaultMinFrameBufferBytes}
}

// DecodeStats summarises a decode.
type DecodeStats struct {
	Frames        int
	TLVs          map[TLVType]int
	TLVBytes      map[TLVType]int
	Objects       int
	ResyncSkipped int // bytes discarded while hunting for the sync pattern
	Unconsumed    int // bytes left unparsed when decoding stopped
	Truncated     bool
	StopReason    StopReason
}

// Decoder turns a captured byte buffer into frames. It is single use.
type Decoder struct {
	cursor *Cursor
	opts   Options
	asm    Assembler
	stats  DecodeStats
}

// NewDecoder returns a decoder over buf.
func NewDecoder(buf []byte, opts Options) *Decoder {
	if opts.MinFrameBufferBytes <= 0 {
		opts.MinFrameBufferBytes = DefaultMinFrameBufferBytes
	}
	return &Decoder{
		cursor: NewCursor(buf),
		opts:   opts,
		stats: DecodeStats{
			TLVs:     make(map[TLVType]int),
			TLVBytes: make(map[TLVType]int),
		},
	}
}

// DecodeFrames decodes buf in one call.
func DecodeFrames(buf []byte, opts Options) ([]Frame, DecodeStats, error) {
	d := NewDecoder(buf, opts)
	frames, err := d.Decode()
	return frames, d.Stats(), err
}

// Decode runs until the buffer is exhausted, truncated or corrupt. On a
// ParseError the frames committed before the failing frame are returned
// together with the error.
func (d *Decoder) Decode() ([]Frame, error) {
	c := d.cursor
	for {
		skipped, found := c.ResyncToMagic()
		d.stats.ResyncSkipped += skipped
		if skipped > 0 {
			monitoring.Debugf("[parse] resync skipped %d bytes, now at offset %d", skipped, c.Offset())
		}
		if !found {
			if skipped == 0 {
				d.stop(StopEndOfStream)
			} else {
				d.stop(StopNoSync)
			}
			break
		}

		if !c.HasAtLeast(FrameHeaderBytes) || !c.HasAtLeast(d.opts.MinFrameBufferBytes) {
			d.stop(StopShortBuffer)
			break
		}

		raw, _ := c.ReadExact(FrameHeaderBytes)
		hdr, err := ParseFrameHeader(raw)
		if err != nil {
			// Unreachable after a successful resync.
			d.stop(StopNoSync)
			return d.asm.Frames(), err
		}

		d.asm.Begin(hdr)
		complete, err := d.decodeTLVs(hdr)
		if err != nil {
			d.asm.Discard()
			d.stop(StopParseFailure)
			return d.asm.Frames(), err
		}
		if !complete {
			d.asm.Discard()
			d.stop(StopTruncatedTLV)
			break
		}
		d.asm.Commit()
		d.stats.Frames++
	}
	return d.asm.Frames(), nil
}

// decodeTLVs consumes hdr.NumTLVs records. It returns false when the
// stream ends inside a TLV.
func (d *Decoder) decodeTLVs(hdr FrameHeader) (bool, error) {
	c := d.cursor
	frameIdx := len(d.asm.Frames())

	for i := 0; i < int(hdr.NumTLVs); i++ {
		raw, err := c.ReadExact(TLVHeaderBytes)
		if err != nil {
			monitoring.Debugf("[parse] frame %d: stream ends inside tlv %d header", frameIdx, i)
			return false, nil
		}
		th, _ := ParseTLVHeader(raw)

		payloadOffset := c.Offset()
		payload, err := c.ReadExact(int(th.Length))
		if err != nil {
			monitoring.Debugf("[parse] frame %d: tlv %d (%s) declares %d bytes, %d remain",
				frameIdx, i, th.Type, th.Length, c.Remaining())
			return false, nil
		}
		d.stats.TLVs[th.Type]++
		d.stats.TLVBytes[th.Type] += len(payload)

		switch th.Type {
		case TLVDetectedObjects:
			objs, err := ParseDetectedObjects(payload)
			if err != nil {
				var pe *ParseError
				if errors.As(err, &pe) {
					pe.Frame = frameIdx
					pe.TLV = i
					pe.Offset = payloadOffset
				}
				return false, err
			}
			d.asm.Add(objs.Objects)
			d.stats.Objects += len(objs.Objects)
		default:
			monitoring.Debugf("[parse] frame %d: skipped tlv %d (%s, %d bytes)", frameIdx, i, th.Type, th.Length)
		}
	}
	return true, nil
}

func (d *Decoder) stop(reason StopReason) {
	d.stats.StopReason = reason
	d.stats.Unconsumed = d.cursor.Remaining()
	d.stats.Truncated = reason == StopShortBuffer || reason == StopTruncatedTLV
}

// Stats returns counters for the decode so far.
func (d *Decoder) Stats() DecodeStats {
	return d.stats
}

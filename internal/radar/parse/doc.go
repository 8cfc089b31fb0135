// Package parse decodes the binary UART output of the mmWave presence sensor.
//
// Responsibilities: locating the frame sync pattern, decoding frame and TLV
// headers, unpacking detected-object records into physical coordinates and
// assembling the decoded points into an ordered sequence of frames.
// Key types: Cursor, FrameHeader, TLVHeader, DetectedObjects, Frame, Decoder.
//
// Stream layout (all fields little-endian):
//
//	Frame header (36 bytes)
//	├── magic        8 bytes  02 01 04 03 06 05 08 07
//	├── version      u32
//	├── length       u32  total packet length
//	├── platform     u32
//	├── frameNumber  u32
//	├── cpuCycles    u32
//	├── numObj       u32
//	└── numTLVs      u32
//	TLV × numTLVs
//	├── type         u32
//	├── length       u32  payload bytes, excluding this 8-byte header
//	└── payload      length bytes
//
// Only the detected-objects TLV (type 1) is interpreted. Every other type is
// skipped by its declared length so that framing survives unknown records.
//
// Truncation at the tail of a capture is not an error: decoding stops and
// the frames assembled so far are returned. A detected-objects payload that
// does not match its declared object count is a ParseError, because frame
// boundaries can no longer be trusted past that point.
package parse

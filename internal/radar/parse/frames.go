package parse

// Point is a decoded 3-D position in metres.
type Point struct {
	X, Y, Z float64
}

// Frame holds every point decoded from the detected-objects TLVs of one
// sensor frame. Index is assigned by the Assembler and is independent of
// the header's FrameNumber, which is not trusted for sequencing because a
// resync can skip frames.
type Frame struct {
	Index       int
	FrameNumber uint32
	Points      []Point
	Objects     []DetectedObject
}

// Assembler groups decoded objects into ordered frames.
type Assembler struct {
	frames  []Frame
	current *Frame
}

// Begin opens a new frame for hdr. An unfinished frame is discarded.
func (a *Assembler) Begin(hdr FrameHeader) {
	a.current = &Frame{
		Index:       len(a.frames),
		FrameNumber: hdr.FrameNumber,
	}
}

// Add routes objects into the open frame. It is a no-op with no open frame.
func (a *Assembler) Add(objects []DetectedObject) {
	if a.current == nil {
		return
	}
	for _, o := range objects {
		a.current.Points = append(a.current.Points, Point{X: o.X, Y: o.Y, Z: o.Z})
		a.current.Objects = append(a.current.Objects, o)
	}
}

// Commit appends the open frame to the output sequence.
func (a *Assembler) Commit() {
	if a.current == nil {
		return
	}
	a.frames = append(a.frames, *a.current)
	a.current = nil
}

// Discard drops the open frame without emitting it.
func (a *Assembler) Discard() {
	a.current = nil
}

// Frames returns the committed frames in stream order.
func (a *Assembler) Frames() []Frame {
	return a.frames
}

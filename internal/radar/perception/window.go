package perception

import (
	"fmt"

	"github.com/banshee-data/presence.report/internal/radar/parse"
	"gonum.org/v1/gonum/stat"
)

// Window defaults.
const (
	// DefaultFrameCombination is the number of consecutive frames pooled
	// into one clustering window.
	DefaultFrameCombination = 5
	// DefaultWindowsPerTimeSlot groups windows into report time slots.
	DefaultWindowsPerTimeSlot = 4
	// FirstWindowFrame is the index of the first frame that can belong to a
	// window. Frame 0 is always excluded.
	FirstWindowFrame = 1
)

// WindowStatus is the outcome of clustering one window.
type WindowStatus int

// Window outcomes.
const (
	WindowInsufficientData WindowStatus = iota // fewer than two pooled points
	WindowNoCluster                            // clustered, every point is noise
	WindowClustered                            // a dominant cluster was found
)

func (s WindowStatus) String() string {
	switch s {
	case WindowInsufficientData:
		return "insufficient_data"
	case WindowNoCluster:
		return "no_cluster"
	case WindowClustered:
		return "clustered"
	default:
		return fmt.Sprintf("WindowStatus(%d)", int(s))
	}
}

// WindowResult summarises one window of frames.
type WindowResult struct {
	Index      int // running window index, from 0
	StartFrame int // index of the first frame in the window
	Frames     int
	Points     int // pooled points before clustering
	Status     WindowStatus

	// Populated when Status is WindowClustered.
	MeanX       float64 // mean X of the dominant cluster's core points, metres
	MeanY       float64 // mean Y of the dominant cluster's core points, metres
	ClusterSize int     // all members of the dominant cluster, core or border
	CorePoints  int
	NumClusters int
	NoisePoints int

	// Report labels: TimeSlot advances every WindowsPerTimeSlot windows.
	TimeSlot int
	SubSlot  int
}

// WindowParams configures a WindowClusterer.
type WindowParams struct {
	FrameCombination   int
	WindowsPerTimeSlot int
	DBSCAN             DBSCANParams
}

// DefaultWindowParams returns the parameters used for presence captures.
func DefaultWindowParams() WindowParams {
	return WindowParams{
		FrameCombination:   DefaultFrameCombination,
		WindowsPerTimeSlot: DefaultWindowsPerTimeSlot,
		DBSCAN:             DefaultDBSCANParams(),
	}
}

// WindowSummary is the output of clustering a whole capture.
type WindowSummary struct {
	Windows []WindowResult

	// ValidWindows counts windows that had enough points to cluster.
	ValidWindows int
	// NoClusterWindows counts valid windows in which every point was noise.
	NoClusterWindows int
	// InsufficientWindows counts windows with fewer than two points.
	InsufficientWindows int
}

// Clustered returns the windows that produced a dominant cluster, in order.
func (s WindowSummary) Clustered() []WindowResult {
	var out []WindowResult
	for _, w := range s.Windows {
		if w.Status == WindowClustered {
			out = append(out, w)
		}
	}
	return out
}

// WindowClusterer pools frames into non-overlapping windows and finds each
// window's dominant cluster.
type WindowClusterer struct {
	params WindowParams
}

// NewWindowClusterer creates a clusterer. Zero fields in params take their
// defaults.
func NewWindowClusterer(params WindowParams) *WindowClusterer {
	def := DefaultWindowParams()
	if params.FrameCombination <= 0 {
		params.FrameCombination = def.FrameCombination
	}
	if params.WindowsPerTimeSlot <= 0 {
		params.WindowsPerTimeSlot = def.WindowsPerTimeSlot
	}
	if params.DBSCAN.Eps <= 0 {
		params.DBSCAN.Eps = def.DBSCAN.Eps
	}
	if params.DBSCAN.MinPts <= 0 {
		params.DBSCAN.MinPts = def.DBSCAN.MinPts
	}
	return &WindowClusterer{params: params}
}

// Params returns the effective parameters.
func (wc *WindowClusterer) Params() WindowParams {
	return wc.params
}

// ClusterWindows clusters frames[1:] in windows of FrameCombination frames.
// A trailing remainder shorter than a full window is ignored.
func (wc *WindowClusterer) ClusterWindows(frames []parse.Frame) WindowSummary {
	var summary WindowSummary
	size := wc.params.FrameCombination

	for start := FirstWindowFrame; start+size <= len(frames); start += size {
		idx := len(summary.Windows)
		res := wc.ClusterWindow(frames[start : start+size])
		res.Index = idx
		res.StartFrame = start
		res.TimeSlot = idx / wc.params.WindowsPerTimeSlot
		res.SubSlot = idx % wc.params.WindowsPerTimeSlot

		switch res.Status {
		case WindowInsufficientData:
			summary.InsufficientWindows++
		case WindowNoCluster:
			summary.ValidWindows++
			summary.NoClusterWindows++
		case WindowClustered:
			summary.ValidWindows++
		}
		summary.Windows = append(summary.Windows, res)
	}
	return summary
}

// ClusterWindow pools the X/Y points of frames and clusters them. Index,
// StartFrame and slot labels are left for the caller.
func (wc *WindowClusterer) ClusterWindow(frames []parse.Frame) WindowResult {
	var pooled []Point2
	for _, f := range frames {
		for _, p := range f.Points {
			pooled = append(pooled, Point2{X: p.X, Y: p.Y})
		}
	}

	res := WindowResult{Frames: len(frames), Points: len(pooled)}
	if len(pooled) < 2 {
		res.Status = WindowInsufficientData
		return res
	}

	db := DBSCAN(Standardize(pooled), wc.params.DBSCAN)
	res.NumClusters = db.NumClusters
	for _, l := range db.Labels {
		if l == Noise {
			res.NoisePoints++
		}
	}

	id, size, ok := db.Largest()
	if !ok {
		res.Status = WindowNoCluster
		return res
	}

	// Centre on core points only, in original units.
	var xs, ys []float64
	for i, l := range db.Labels {
		if l == id && db.Core[i] {
			xs = append(xs, pooled[i].X)
			ys = append(ys, pooled[i].Y)
		}
	}

	res.Status = WindowClustered
	res.ClusterSize = size
	res.CorePoints = len(xs)
	res.MeanX = stat.Mean(xs, nil)
	res.MeanY = stat.Mean(ys, nil)
	return res
}

// Package classify turns the sequence of per-window cluster results into
// human / rodent verdicts.
//
// Consecutive clustered windows are merged into runs. A run's mean cluster
// size and the displacement of its cluster centre between its first and
// last window decide the verdict: large clusters are people, small clusters
// that stay put are people standing still, and small clusters that move are
// rodents.
package classify

import (
	"fmt"
	"math"

	"github.com/banshee-data/presence.report/internal/radar/perception"
)

// Classification defaults.
const (
	// DefaultMaxWindowGap is the largest window-index step that keeps two
	// clustered windows in the same run; 2 tolerates one empty window.
	DefaultMaxWindowGap = 2
	// DefaultHumanClusterSize is the mean cluster size above which a run
	// is a person regardless of motion.
	DefaultHumanClusterSize = 10.0
	// DefaultStationaryDisplacement is the per-axis displacement, in
	// metres, below which a run counts as not moving.
	DefaultStationaryDisplacement = 0.5
)

// Verdict is the decision for one run.
type Verdict int

// Verdicts, in evaluation order.
const (
	HumanClusterSize Verdict = iota
	HumanNoMotion
	Rodent
)

func (v Verdict) String() string {
	switch v {
	case HumanClusterSize:
		return "human detected (cluster size)"
	case HumanNoMotion:
		return "human detected (no motion)"
	case Rodent:
		return "rodent detected"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// IsHuman reports whether v is either human verdict.
func (v Verdict) IsHuman() bool {
	return v == HumanClusterSize || v == HumanNoMotion
}

// ComboRecord is one window that produced a dominant cluster.
type ComboRecord struct {
	Window      int // running window index
	MeanX       float64
	MeanY       float64
	ClusterSize int
}

// CombosFromWindows materialises the clustered windows as combo records.
func CombosFromWindows(windows []perception.WindowResult) []ComboRecord {
	var out []ComboRecord
	for _, w := range windows {
		if w.Status != perception.WindowClustered {
			continue
		}
		out = append(out, ComboRecord{
			Window:      w.Index,
			MeanX:       w.MeanX,
			MeanY:       w.MeanY,
			ClusterSize: w.ClusterSize,
		})
	}
	return out
}

// Params configures Classify.
type Params struct {
	MaxWindowGap           int
	HumanClusterSize       float64
	StationaryDisplacement float64
}

// DefaultParams returns the thresholds used for presence captures.
func DefaultParams() Params {
	return Params{
		MaxWindowGap:           DefaultMaxWindowGap,
		HumanClusterSize:       DefaultHumanClusterSize,
		StationaryDisplacement: DefaultStationaryDisplacement,
	}
}

// Run is a maximal sequence of temporally adjacent combo records that
// received a verdict.
type Run struct {
	First, Last     int // positions in the combo slice, inclusive
	StartWindow     int
	EndWindow       int
	Length          int
	TotalSize       int
	MeanClusterSize float64
	DisplacementX   float64
	DisplacementY   float64
	Verdict         Verdict
}

// Classify scans records left to right, merging neighbours whose window
// indices differ by at most p.MaxWindowGap. Runs of a single record carry
// no verdict and are omitted.
func Classify(records []ComboRecord, p Params) []Run {
	var runs []Run
	i := 0
	for i < len(records) {
		first := records[i]
		total := first.ClusterSize
		j := i + 1
		for j < len(records) && records[j].Window-records[j-1].Window <= p.MaxWindowGap {
			total += records[j].ClusterSize
			j++
		}

		if n := j - i; n > 1 {
			last := records[j-1]
			run := Run{
				First:           i,
				Last:            j - 1,
				StartWindow:     first.Window,
				EndWindow:       last.Window,
				Length:          n,
				TotalSize:       total,
				MeanClusterSize: float64(total) / float64(n),
				DisplacementX:   math.Abs(last.MeanX - first.MeanX),
				DisplacementY:   math.Abs(last.MeanY - first.MeanY),
			}
			run.Verdict = decide(run, p)
			runs = append(runs, run)
		}
		i = j
	}
	return runs
}

func decide(r Run, p Params) Verdict {
	if r.MeanClusterSize > p.HumanClusterSize {
		return HumanClusterSize
	}
	if r.DisplacementX < p.StationaryDisplacement && r.DisplacementY < p.StationaryDisplacement {
		return HumanNoMotion
	}
	return Rodent
}

// Summary aggregates a whole capture.
type Summary struct {
	Windows          int
	ValidWindows     int // windows with enough points to cluster
	NoClusterWindows int
	ClusteredWindows int
	Runs             int
	Humans           int
	Rodents          int
}

// Summarize combines window counters with run verdicts.
func Summarize(ws perception.WindowSummary, runs []Run) Summary {
	s := Summary{
		Windows:          len(ws.Windows),
		ValidWindows:     ws.ValidWindows,
		NoClusterWindows: ws.NoClusterWindows,
		ClusteredWindows: ws.ValidWindows - ws.NoClusterWindows,
		Runs:             len(runs),
	}
	for _, r := range runs {
		if r.Verdict.IsHuman() {
			s.Humans++
		} else {
			s.Rodents++
		}
	}
	return s
}

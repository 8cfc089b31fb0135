package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/banshee-data/presence.report/internal/radar/parse"
	"github.com/banshee-data/presence.report/internal/radar/perception"
)

// Report line fragments.
const (
	NotEnoughData  = "Not enough data"
	NoClusterFound = "No cluster found"
)

// WriteReport writes the line-oriented analysis report: one line per
// window, one per verdict, then the totals line.
func WriteReport(w io.Writer, r *AnalysisResult) error {
	bw := bufio.NewWriter(w)
	for _, win := range r.Windows.Windows {
		fmt.Fprintln(bw, WindowLine(win))
	}
	for _, run := range r.Runs {
		fmt.Fprintf(bw, "%s: windows %d-%d, mean cluster size %.2f, displacement (%.3f, %.3f)\n",
			run.Verdict, run.StartWindow, run.EndWindow, run.MeanClusterSize, run.DisplacementX, run.DisplacementY)
	}
	fmt.Fprintf(bw, "Total Valid Frame Combinations : %d No cluster Combinations : %d\n",
		r.Summary.ValidWindows, r.Summary.NoClusterWindows)
	return bw.Flush()
}

// WindowLine formats one window as " <slot> [<sub>] : <outcome>".
func WindowLine(w perception.WindowResult) string {
	prefix := fmt.Sprintf(" %d [%d] : ", w.TimeSlot, w.SubSlot)
	switch w.Status {
	case perception.WindowInsufficientData:
		return prefix + NotEnoughData
	case perception.WindowNoCluster:
		return prefix + NoClusterFound
	default:
		return prefix + fmt.Sprintf("%v %v", w.MeanX, w.MeanY)
	}
}

// WriteObjectDump writes every decoded object, grouped by frame.
func WriteObjectDump(w io.Writer, frames []parse.Frame) error {
	bw := bufio.NewWriter(w)
	for _, f := range frames {
		fmt.Fprintf(bw, "frame %d (header #%d): %d objects\n", f.Index, f.FrameNumber, len(f.Objects))
		for i, o := range f.Objects {
			fmt.Fprintf(bw, "  %3d range_idx=%d doppler_idx=%d peak=%d x=%.4f y=%.4f z=%.4f range=%.4f\n",
				i, o.RangeIdx, o.DopplerIdx, o.PeakVal, o.X, o.Y, o.Z, o.Range)
		}
	}
	return bw.Flush()
}

// WriteDecodeStats writes a summary of the decode.
func WriteDecodeStats(w io.Writer, s parse.DecodeStats) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "frames=%d objects=%d stop=%s truncated=%v resync_skipped=%d unconsumed=%d\n",
		s.Frames, s.Objects, s.StopReason, s.Truncated, s.ResyncSkipped, s.Unconsumed)

	types := make([]parse.TLVType, 0, len(s.TLVs))
	for t := range s.TLVs {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Fprintf(bw, "  tlv %-16s count=%d bytes=%d\n", t, s.TLVs[t], s.TLVBytes[t])
	}
	return bw.Flush()
}

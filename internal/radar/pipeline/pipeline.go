// Package pipeline runs the batch analysis of one capture: decode every
// frame, cluster fixed-size windows, then classify runs of clustered
// windows. Each stage fully consumes the previous stage's output.
package pipeline

import (
	"fmt"

	"github.com/banshee-data/presence.report/internal/config"
	"github.com/banshee-data/presence.report/internal/monitoring"
	"github.com/banshee-data/presence.report/internal/radar/classify"
	"github.com/banshee-data/presence.report/internal/radar/parse"
	"github.com/banshee-data/presence.report/internal/radar/perception"
)

// Params gathers the tunables of every stage.
type Params struct {
	Decode   parse.Options
	Window   perception.WindowParams
	Classify classify.Params
}

// DefaultParams returns the built-in parameters.
func DefaultParams() Params {
	return Params{
		Decode:   parse.DefaultOptions(),
		Window:   perception.DefaultWindowParams(),
		Classify: classify.DefaultParams(),
	}
}

// ParamsFromConfig maps a tuning config onto stage parameters. A nil cfg
// yields DefaultParams.
func ParamsFromConfig(cfg *config.TuningConfig) Params {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return Params{
		Decode: parse.Options{MinFrameBufferBytes: cfg.GetMinFrameBufferBytes()},
		Window: perception.WindowParams{
			FrameCombination:   cfg.GetFrameCombination(),
			WindowsPerTimeSlot: cfg.GetWindowsPerTimeSlot(),
			DBSCAN: perception.DBSCANParams{
				Eps:    cfg.GetDBSCANEps(),
				MinPts: cfg.GetDBSCANMinSamples(),
			},
		},
		Classify: classify.Params{
			MaxWindowGap:           cfg.GetMaxWindowGap(),
			HumanClusterSize:       cfg.GetHumanClusterSize(),
			StationaryDisplacement: cfg.GetStationaryDisplacement(),
		},
	}
}

// AnalysisResult is everything produced from one capture.
type AnalysisResult struct {
	Params  Params
	Frames  []parse.Frame
	Decode  parse.DecodeStats
	Windows perception.WindowSummary
	Combos  []classify.ComboRecord
	Runs    []classify.Run
	Summary classify.Summary
}

// Analyze decodes data and classifies it. A *parse.ParseError aborts the
// analysis and is returned wrapped; truncation is not an error and shows up
// in Decode.
func Analyze(data []byte, p Params) (*AnalysisResult, error) {
	frames, stats, err := parse.DecodeFrames(data, p.Decode)
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	monitoring.Debugf("[pipeline] decoded %d frames (%d objects), stop=%s unconsumed=%d skipped=%d",
		stats.Frames, stats.Objects, stats.StopReason, stats.Unconsumed, stats.ResyncSkipped)

	wc := perception.NewWindowClusterer(p.Window)
	windows := wc.ClusterWindows(frames)
	combos := classify.CombosFromWindows(windows.Windows)
	runs := classify.Classify(combos, p.Classify)

	res := &AnalysisResult{
		Params:  Params{Decode: p.Decode, Window: wc.Params(), Classify: p.Classify},
		Frames:  frames,
		Decode:  stats,
		Windows: windows,
		Combos:  combos,
		Runs:    runs,
		Summary: classify.Summarize(windows, runs),
	}
	monitoring.Debugf("[pipeline] %d windows, %d clustered, %d runs (%d human, %d rodent)",
		res.Summary.Windows, res.Summary.ClusteredWindows, res.Summary.Runs, res.Summary.Humans, res.Summary.Rodents)
	return res, nil
}

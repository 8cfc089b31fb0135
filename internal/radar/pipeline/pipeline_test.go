package pipeline

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/banshee-data/presence.report/internal/config"
	"github.com/banshee-data/presence.report/internal/radar/classify"
	"github.com/banshee-data/presence.report/internal/radar/parse"
	"github.com/banshee-data/presence.report/internal/radar/perception"
	"github.com/banshee-data/presence.report/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_PresenceCapture(t *testing.T) {
	t.Parallel()

	res, err := Analyze(testutil.PresenceCapture(), DefaultParams())
	require.NoError(t, err)

	assert.Len(t, res.Frames, 26)
	assert.Equal(t, parse.StopEndOfStream, res.Decode.StopReason)
	assert.False(t, res.Decode.Truncated)

	require.Len(t, res.Windows.Windows, 5)
	statuses := make([]perception.WindowStatus, 0, 5)
	for _, w := range res.Windows.Windows {
		statuses = append(statuses, w.Status)
	}
	assert.Equal(t, []perception.WindowStatus{
		perception.WindowClustered,
		perception.WindowClustered,
		perception.WindowInsufficientData,
		perception.WindowNoCluster,
		perception.WindowClustered,
	}, statuses)

	assert.Equal(t, []classify.ComboRecord{
		{Window: 0, MeanX: 1, MeanY: 1, ClusterSize: 10},
		{Window: 1, MeanX: 1.25, MeanY: 1, ClusterSize: 10},
		{Window: 4, MeanX: 3, MeanY: 3, ClusterSize: 10},
	}, res.Combos)

	require.Len(t, res.Runs, 1)
	assert.Equal(t, classify.HumanNoMotion, res.Runs[0].Verdict)
	assert.Equal(t, 0, res.Runs[0].StartWindow)
	assert.Equal(t, 1, res.Runs[0].EndWindow)

	assert.Equal(t, classify.Summary{
		Windows:          5,
		ValidWindows:     4,
		NoClusterWindows: 1,
		ClusteredWindows: 3,
		Runs:             1,
		Humans:           1,
	}, res.Summary)
}

func TestAnalyze_Deterministic(t *testing.T) {
	t.Parallel()

	data := testutil.PresenceCapture()
	a, err := Analyze(data, DefaultParams())
	require.NoError(t, err)
	b, err := Analyze(data, DefaultParams())
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Analyze not reproducible (-first +second):\n%s", diff)
	}
}

func TestAnalyze_ParseErrorAborts(t *testing.T) {
	t.Parallel()

	bad := testutil.TLV{
		Type:    testutil.TLVDetectedObjects,
		Payload: append(testutil.ObjectsPayload(8, testutil.Object{X: 1}), 0xFF),
	}
	data := testutil.NewCaptureBuilder().Empty(2).Frame(bad).Empty(1).Bytes()

	res, err := Analyze(data, DefaultParams())
	require.Error(t, err)
	assert.Nil(t, res)

	var pe *parse.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Frame)
	assert.ErrorIs(t, err, parse.ErrTrailingPayload)
}

func TestAnalyze_TruncatedCaptureIsNotAnError(t *testing.T) {
	t.Parallel()

	full := testutil.PresenceCapture()
	res, err := Analyze(full[:len(full)-100], DefaultParams())
	require.NoError(t, err)

	assert.True(t, res.Decode.Truncated)
	assert.Len(t, res.Frames, 25)
	// The last window loses its final frame and is no longer complete.
	assert.Len(t, res.Windows.Windows, 4)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	t.Parallel()

	res, err := Analyze(nil, DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, res.Frames)
	assert.Empty(t, res.Windows.Windows)
	assert.Empty(t, res.Runs)
	assert.Zero(t, res.Summary.ValidWindows)
}

func TestParamsFromConfig(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultParams(), ParamsFromConfig(nil))
	assert.Equal(t, DefaultParams(), ParamsFromConfig(config.DefaultTuningConfig()))

	cfg := config.EmptyTuningConfig()
	fc, gap, eps := 3, 4, 0.4
	cfg.FrameCombination = &fc
	cfg.MaxWindowGap = &gap
	cfg.DBSCANEps = &eps

	p := ParamsFromConfig(cfg)
	assert.Equal(t, 3, p.Window.FrameCombination)
	assert.Equal(t, 4, p.Classify.MaxWindowGap)
	assert.Equal(t, 0.4, p.Window.DBSCAN.Eps)
	assert.Equal(t, perception.DefaultDBSCANMinPts, p.Window.DBSCAN.MinPts)
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	res, err := Analyze(testutil.PresenceCapture(), DefaultParams())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, res))

	want := []string{
		" 0 [0] : 1 1",
		" 0 [1] : 1.25 1",
		" 0 [2] : Not enough data",
		" 0 [3] : No cluster found",
		" 1 [0] : 3 3",
		"human detected (no motion): windows 0-1, mean cluster size 10.00, displacement (0.250, 0.000)",
		"Total Valid Frame Combinations : 4 No cluster Combinations : 1",
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteObjectDump(t *testing.T) {
	t.Parallel()

	data := testutil.NewCaptureBuilder().
		Points(8, [2]int16{256, 512}).
		Empty(1).
		Bytes()
	frames, _, err := parse.DecodeFrames(data, parse.DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteObjectDump(&buf, frames))
	out := buf.String()
	assert.Contains(t, out, "frame 0 (header #1): 1 objects")
	assert.Contains(t, out, "x=1.0000 y=2.0000 z=0.0000 range=2.2361")
	assert.Contains(t, out, "frame 1 (header #2): 0 objects")
}

func TestWriteDecodeStats(t *testing.T) {
	t.Parallel()

	res, err := Analyze(testutil.PresenceCapture(), DefaultParams())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDecodeStats(&buf, res.Decode))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "frames=26 "))
	assert.Contains(t, lines[1], "detected_objects")
	assert.Contains(t, lines[2], "stats")
}

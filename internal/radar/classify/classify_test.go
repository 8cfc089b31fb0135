package classify

import (
	"testing"

	"github.com/banshee-data/presence.report/internal/radar/perception"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run3 builds three consecutive windows moving linearly from (0,0) to end.
func run3(sizes [3]int, endX, endY float64) []ComboRecord {
	recs := make([]ComboRecord, 3)
	for i := range recs {
		f := float64(i) / 2
		recs[i] = ComboRecord{Window: i + 1, MeanX: endX * f, MeanY: endY * f, ClusterSize: sizes[i]}
	}
	return recs
}

func TestClassify_Verdicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		records  []ComboRecord
		want     Verdict
		wantMean float64
	}{
		{"large cluster", run3([3]int{12, 8, 15}, 0.2, 0.1), HumanClusterSize, 35.0 / 3},
		{"small and still", run3([3]int{4, 5, 6}, 0.1, 0.1), HumanNoMotion, 5},
		{"small and moving", run3([3]int{4, 5, 6}, 1.0, 1.0), Rodent, 5},
		{"moving on one axis only", run3([3]int{4, 5, 6}, 0.0, 0.7), Rodent, 5},
		{"size exactly at threshold", run3([3]int{10, 10, 10}, 0, 0), HumanNoMotion, 10},
		{"large cluster wins over motion", run3([3]int{20, 20, 20}, 5, 5), HumanClusterSize, 20},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			runs := Classify(tt.records, DefaultParams())
			require.Len(t, runs, 1)
			r := runs[0]
			assert.Equal(t, tt.want, r.Verdict)
			assert.InDelta(t, tt.wantMean, r.MeanClusterSize, 1e-9)
			assert.Equal(t, 3, r.Length)
			assert.Equal(t, 0, r.First)
			assert.Equal(t, 2, r.Last)
		})
	}
}

func TestClassify_DisplacementBoundary(t *testing.T) {
	t.Parallel()

	// Exactly 0.5 is not "< 0.5", so the run is not stationary.
	recs := []ComboRecord{
		{Window: 0, MeanX: 0, MeanY: 0, ClusterSize: 3},
		{Window: 1, MeanX: 0.5, MeanY: 0, ClusterSize: 3},
	}
	runs := Classify(recs, DefaultParams())
	require.Len(t, runs, 1)
	assert.Equal(t, Rodent, runs[0].Verdict)
	assert.InDelta(t, 0.5, runs[0].DisplacementX, 1e-12)
}

func TestClassify_Grouping(t *testing.T) {
	t.Parallel()

	recs := []ComboRecord{
		{Window: 0, ClusterSize: 1},
		{Window: 2, ClusterSize: 1}, // gap 2 joins
		{Window: 5, ClusterSize: 1}, // gap 3 splits
		{Window: 9, ClusterSize: 1}, // singleton
		{Window: 20, ClusterSize: 30},
		{Window: 21, ClusterSize: 30},
		{Window: 23, ClusterSize: 30},
	}
	runs := Classify(recs, DefaultParams())
	require.Len(t, runs, 2)

	assert.Equal(t, 0, runs[0].StartWindow)
	assert.Equal(t, 2, runs[0].EndWindow)
	assert.Equal(t, 2, runs[0].Length)

	assert.Equal(t, 4, runs[1].First)
	assert.Equal(t, 6, runs[1].Last)
	assert.Equal(t, 20, runs[1].StartWindow)
	assert.Equal(t, 23, runs[1].EndWindow)
	assert.Equal(t, 90, runs[1].TotalSize)
	assert.Equal(t, HumanClusterSize, runs[1].Verdict)
}

func TestClassify_StartUsesOwnRecord(t *testing.T) {
	t.Parallel()

	// The second run's displacement is measured from its own first record,
	// not from the last record of the previous run.
	recs := []ComboRecord{
		{Window: 0, MeanX: 100, MeanY: 100, ClusterSize: 2},
		{Window: 1, MeanX: 100, MeanY: 100, ClusterSize: 2},
		{Window: 10, MeanX: 0, MeanY: 0, ClusterSize: 2},
		{Window: 11, MeanX: 0.1, MeanY: 0.1, ClusterSize: 2},
	}
	runs := Classify(recs, DefaultParams())
	require.Len(t, runs, 2)
	assert.Equal(t, HumanNoMotion, runs[1].Verdict)
	assert.InDelta(t, 0.1, runs[1].DisplacementX, 1e-12)
}

func TestClassify_EmptyAndSingle(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Classify(nil, DefaultParams()))
	assert.Empty(t, Classify([]ComboRecord{{Window: 3, ClusterSize: 50}}, DefaultParams()))
}

func TestCombosFromWindows(t *testing.T) {
	t.Parallel()

	ws := []perception.WindowResult{
		{Index: 0, Status: perception.WindowInsufficientData},
		{Index: 1, Status: perception.WindowClustered, MeanX: 1, MeanY: 2, ClusterSize: 7},
		{Index: 2, Status: perception.WindowNoCluster},
		{Index: 3, Status: perception.WindowClustered, MeanX: -1, MeanY: 0.5, ClusterSize: 4},
	}
	got := CombosFromWindows(ws)
	assert.Equal(t, []ComboRecord{
		{Window: 1, MeanX: 1, MeanY: 2, ClusterSize: 7},
		{Window: 3, MeanX: -1, MeanY: 0.5, ClusterSize: 4},
	}, got)

	// Windows 1 and 3 are two apart, so they form one run.
	runs := Classify(got, DefaultParams())
	require.Len(t, runs, 1)
	assert.Equal(t, Rodent, runs[0].Verdict)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	ws := perception.WindowSummary{
		Windows:             make([]perception.WindowResult, 10),
		ValidWindows:        8,
		NoClusterWindows:    3,
		InsufficientWindows: 2,
	}
	runs := []Run{{Verdict: HumanClusterSize}, {Verdict: Rodent}, {Verdict: HumanNoMotion}}

	s := Summarize(ws, runs)
	assert.Equal(t, Summary{
		Windows:          10,
		ValidWindows:     8,
		NoClusterWindows: 3,
		ClusteredWindows: 5,
		Runs:             3,
		Humans:           2,
		Rodents:          1,
	}, s)
}

func TestVerdict_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "human detected (cluster size)", HumanClusterSize.String())
	assert.Equal(t, "human detected (no motion)", HumanNoMotion.String())
	assert.Equal(t, "rodent detected", Rodent.String())
	assert.True(t, HumanNoMotion.IsHuman())
	assert.False(t, Rodent.IsHuman())
}

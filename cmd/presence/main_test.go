package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/presence.report/internal/db"
	"github.com/banshee-data/presence.report/internal/fsutil"
	"github.com/banshee-data/presence.report/internal/radar/plot"
	"github.com/banshee-data/presence.report/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memCapture(t *testing.T, data []byte) (*fsutil.MemoryFileSystem, string) {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	path := "/captures/run.bin"
	mfs.WriteFile(path, data)
	return mfs, path
}

func TestRun_Usage(t *testing.T) {
	for _, args := range [][]string{nil, {"a.bin", "b.bin"}, {"-nope", "a.bin"}} {
		var stdout, stderr bytes.Buffer
		code := run(args, &stdout, &stderr, fsutil.NewMemoryFileSystem())
		assert.Equal(t, exitUsage, code, "args %v", args)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "Usage: presence")
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-version"}, &stdout, &stderr, fsutil.NewMemoryFileSystem())
	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(stdout.String(), "presence "))
}

func TestRun_Report(t *testing.T) {
	mfs, path := memCapture(t, testutil.PresenceCapture())

	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr, mfs)
	require.Equal(t, exitOK, code, stderr.String())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, " 0 [0] : 1 1", lines[0])
	assert.Equal(t, " 0 [2] : Not enough data", lines[2])
	assert.True(t, strings.HasPrefix(lines[5], "human detected (no motion)"))
	assert.Equal(t, "Total Valid Frame Combinations : 4 No cluster Combinations : 1", lines[6])
}

func TestRun_MissingCapture(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"/nope.bin"}, &stdout, &stderr, fsutil.NewMemoryFileSystem())
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr.String(), "presence:")
}

func TestRun_ParseErrorExitsNonZero(t *testing.T) {
	bad := testutil.TLV{
		Type:    testutil.TLVDetectedObjects,
		Payload: append(testutil.ObjectsPayload(8, testutil.Object{X: 1}), 0, 0),
	}
	mfs, path := memCapture(t, testutil.NewCaptureBuilder().Empty(1).Frame(bad).Bytes())

	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr, mfs)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr.String(), "malformed capture")
	assert.Contains(t, stderr.String(), "frame=1")
	assert.NotContains(t, stdout.String(), "Total Valid")
}

func TestRun_DumpAndStats(t *testing.T) {
	mfs, path := memCapture(t, testutil.NewCaptureBuilder().Points(8, [2]int16{256, 256}).Bytes())

	var stdout, stderr bytes.Buffer
	code := run([]string{"-dump", "-stats", path}, &stdout, &stderr, mfs)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "frame 0 (header #1): 1 objects")
	assert.Contains(t, stdout.String(), "Total Valid Frame Combinations : 0 No cluster Combinations : 0")
	assert.Contains(t, stderr.String(), "frames=1 ")
}

func TestRun_ConfigPlotsAndDB(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "tuning.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"human_cluster_size": 5}`), 0o644))
	capPath := filepath.Join(dir, "capture.bin")
	require.NoError(t, os.WriteFile(capPath, testutil.PresenceCapture(), 0o644))
	dbPath := filepath.Join(dir, "presence.db")
	plotDir := filepath.Join(dir, "plots")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", cfgPath, "-db", dbPath, "-plot-dir", plotDir, capPath},
		&stdout, &stderr, fsutil.OSFileSystem{})
	require.Equal(t, exitOK, code, stderr.String())

	// Mean size 10 now exceeds the lowered threshold.
	assert.Contains(t, stdout.String(), "human detected (cluster size)")

	for _, name := range []string{plot.CentroidFile, plot.ClusterSizeFile, plot.HTMLFile} {
		info, err := os.Stat(filepath.Join(plotDir, name))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	database, err := db.NewDB(dbPath)
	require.NoError(t, err)
	defer database.Close()
	runs, err := db.NewRunStore(database).List(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, capPath, runs[0].CapturePath)
	assert.Equal(t, 1, runs[0].Humans)
}

func TestRun_BadConfig(t *testing.T) {
	mfs, path := memCapture(t, testutil.PresenceCapture())

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", "tuning.yaml", path}, &stdout, &stderr, mfs)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr.String(), "load config")
}

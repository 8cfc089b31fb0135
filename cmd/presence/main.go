// Command presence analyses a binary mmWave radar capture and reports
// whether the tracked clusters look like a person or a rodent.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/presence.report/internal/config"
	"github.com/banshee-data/presence.report/internal/db"
	"github.com/banshee-data/presence.report/internal/fsutil"
	"github.com/banshee-data/presence.report/internal/monitoring"
	"github.com/banshee-data/presence.report/internal/radar/parse"
	"github.com/banshee-data/presence.report/internal/radar/pipeline"
	"github.com/banshee-data/presence.report/internal/radar/plot"
	"github.com/banshee-data/presence.report/internal/timeutil"
	"github.com/banshee-data/presence.report/internal/version"
)

const program = "presence"

// maxCaptureBytes bounds the capture read into memory.
const maxCaptureBytes = 1 << 30

// Exit statuses.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	configPath  string
	dbPath      string
	plotDir     string
	dump        bool
	stats       bool
	debug       bool
	showVersion bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, fsutil.OSFileSystem{}))
}

func newFlagSet(stderr io.Writer, o *options) *flag.FlagSet {
	fs := flag.NewFlagSet(program, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "JSON tuning config (default: built-in values)")
	fs.StringVar(&o.dbPath, "db", "", "SQLite database to record the run in (default: none)")
	fs.StringVar(&o.plotDir, "plot-dir", "", "directory for PNG and HTML charts (default: none)")
	fs.BoolVar(&o.dump, "dump", false, "print every decoded object before the report")
	fs.BoolVar(&o.stats, "stats", false, "print decode statistics to stderr")
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] <capture.bin>\n\nFlags:\n", program)
		fs.PrintDefaults()
	}
	return fs
}

func run(args []string, stdout, stderr io.Writer, fsys fsutil.FileSystem) int {
	var o options
	fs := newFlagSet(stderr, &o)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if o.showVersion {
		fmt.Fprintln(stdout, version.String(program))
		return exitOK
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	capturePath := fs.Arg(0)

	prevLogf := monitoring.Logf
	defer monitoring.SetLogger(prevLogf)
	monitoring.SetLogger(log.New(stderr, "", log.LstdFlags).Printf)
	monitoring.SetDebug(o.debug)
	defer monitoring.SetDebug(false)

	if err := analyze(capturePath, o, stdout, stderr, fsys); err != nil {
		var pe *parse.ParseError
		if errors.As(err, &pe) {
			fmt.Fprintf(stderr, "%s: malformed capture %s: %v\n", program, capturePath, err)
		} else {
			fmt.Fprintf(stderr, "%s: %v\n", program, err)
		}
		return exitError
	}
	return exitOK
}

func analyze(capturePath string, o options, stdout, stderr io.Writer, fsys fsutil.FileSystem) error {
	cfg := config.EmptyTuningConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(o.configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	data, err := fsutil.ReadCapture(fsys, capturePath, maxCaptureBytes)
	if err != nil {
		return err
	}

	if o.dump {
		frames, _, err := parse.DecodeFrames(data, pipeline.ParamsFromConfig(cfg).Decode)
		if dumpErr := pipeline.WriteObjectDump(stdout, frames); dumpErr != nil {
			return fmt.Errorf("write dump: %w", dumpErr)
		}
		if err != nil {
			return err
		}
	}

	clock := timeutil.RealClock{}
	started := clock.Now()
	res, err := pipeline.Analyze(data, pipeline.ParamsFromConfig(cfg))
	if err != nil {
		return err
	}
	monitoring.Debugf("analysed %d frames in %v", len(res.Frames), clock.Since(started))

	if o.stats {
		if err := pipeline.WriteDecodeStats(stderr, res.Decode); err != nil {
			return fmt.Errorf("write stats: %w", err)
		}
	}
	if res.Decode.Truncated {
		monitoring.Logf("capture ends mid-frame (%s); %d trailing bytes ignored", res.Decode.StopReason, res.Decode.Unconsumed)
	}

	if err := pipeline.WriteReport(stdout, res); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if o.plotDir != "" {
		written, err := plot.WriteAll(fsys, o.plotDir, res)
		if err != nil {
			return fmt.Errorf("write plots: %w", err)
		}
		monitoring.Logf("wrote %d charts to %s", len(written), o.plotDir)
	}

	if o.dbPath != "" {
		database, err := db.NewDB(o.dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer database.Close()

		runID, err := db.NewRunStore(database).Insert(capturePath, int64(len(data)), res)
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		monitoring.Logf("recorded run %s in %s", runID, o.dbPath)
	}
	return nil
}

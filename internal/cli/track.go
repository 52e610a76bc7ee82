package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yildizm/FlowTrack/internal/config"
	"github.com/yildizm/FlowTrack/internal/logger"
	"github.com/yildizm/FlowTrack/internal/record"
	"github.com/yildizm/FlowTrack/internal/session"
	"github.com/yildizm/FlowTrack/internal/ui"
	"github.com/yildizm/FlowTrack/internal/video"
)

// sessionLogName is written into the output directory during a session
const sessionLogName = "flowtrack.log"

var (
	trackOutputDir   string
	trackDelay       int
	trackZoom        float64
	trackDecodeWidth int
)

func newTrackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track <video>",
		Short: "Play a video and capture points by clicking",
		Long: `Play a video in the terminal and record a point for every left click on
the frame. Points are grouped by section, flow level and run, and each run
is saved to its own record file in the output directory.

Press ? during the session for the key table. The session log is written
to flowtrack.log in the output directory.

Examples:
  flowtrack track experiment.mp4
  flowtrack track --output-dir ./runs --delay 50 experiment.mp4`,
		Args: cobra.ExactArgs(1),
		RunE: runTrack,
	}

	cmd.Flags().StringVar(&trackOutputDir, "output-dir", "", "record file directory (default from config)")
	cmd.Flags().IntVar(&trackDelay, "delay", 0, "initial frame delay in ms (default from config)")
	cmd.Flags().Float64Var(&trackZoom, "zoom", 0, "initial zoom (default from config)")
	cmd.Flags().IntVar(&trackDecodeWidth, "decode-width", 0, "width frames are decoded at (default from config)")

	return cmd
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg := applyTrackFlags(cmd, globalConfig)

	state, err := session.NewState(cfg.Catalog(), cfg.Session.Zoom, cfg.Session.FrameDelayMs)
	if err != nil {
		return fmt.Errorf("invalid session settings: %w", err)
	}

	src, err := video.Open(cmd.Context(), args[0], video.Options{
		FFmpegPath:  cfg.Video.FFmpegPath,
		FFprobePath: cfg.Video.FFprobePath,
		DecodeWidth: cfg.Video.DecodeWidth,
	})
	if err != nil {
		return err
	}

	outputDir := cfg.Session.OutputDir
	log, closeLog, err := openSessionLog(outputDir)
	if err != nil {
		_ = src.Close()
		return err
	}
	defer closeLog()

	width, height := src.Size()
	log.InfoWithFields("Session started", []logger.Field{
		logger.File(args[0]),
		logger.F("width", width),
		logger.F("height", height),
		logger.Seconds(src.Duration()),
	})

	err = ui.Run(cmd.Context(), ui.Options{
		Source:    src,
		State:     state,
		Persister: record.NewPersister(outputDir),
		Logger:    log,
		Keymap: ui.Keymap{
			RewindSeconds:   cfg.Session.RewindSeconds,
			SkipSeconds:     cfg.Session.SkipSeconds,
			FastSkipSeconds: cfg.Session.FastSkipSeconds,
		},
		RecentPoints: cfg.Session.RecentPoints,
		SnapshotDir:  filepath.Join(outputDir, "snapshots"),
	})
	if err != nil {
		log.Error("Session failed: %v", err)
		return err
	}
	log.Info("Session finished")
	return nil
}

// applyTrackFlags layers the track flags over a copy of the loaded config
func applyTrackFlags(cmd *cobra.Command, base *config.Config) *config.Config {
	cfg := *base
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Session.OutputDir = trackOutputDir
	}
	if flags.Changed("delay") {
		cfg.Session.FrameDelayMs = trackDelay
	}
	if flags.Changed("zoom") {
		cfg.Session.Zoom = trackZoom
	}
	if flags.Changed("decode-width") {
		cfg.Video.DecodeWidth = trackDecodeWidth
	}
	return &cfg
}

// openSessionLog sends session logging to a file, since the alternate
// screen owns the terminal while the session runs
func openSessionLog(dir string) (*logger.Logger, func(), error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, sessionLogName)
	// #nosec G304 - path is built from the configured output directory
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session log: %w", err)
	}

	log := logger.NewWithCallback("session", func() bool { return true })
	log.SetOutput(f)
	closeLog := func() {
		if err := f.Close(); err != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close session log: %v\n", err)
		}
	}
	return log, closeLog, nil
}

// Command trackviz renders per-frame detections, tracked across frames, onto
// an image sequence and encodes the result as a video.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"trackviz/config"
	"trackviz/logging"
	"trackviz/pipeline"
)

const (
	// Flags.
	flagImages         = "images"
	flagPattern        = "pattern"
	flagDetections     = "detections"
	flagDetectionExt   = "detection-ext"
	flagOutput         = "output"
	flagFPS            = "fps"
	flagWidth          = "width"
	flagHeight         = "height"
	flagSink           = "sink"
	flagFourCC         = "fourcc"
	flagCodec          = "codec"
	flagFFmpeg         = "ffmpeg"
	flagImageExt       = "image-ext"
	flagTracker        = "tracker"
	flagTrackerCmd     = "tracker-cmd"
	flagTrackerArg     = "tracker-arg"
	flagIoUThreshold   = "iou-threshold"
	flagMaxLost        = "max-lost"
	flagMinHits        = "min-hits"
	flagDrawDetections = "draw-detections"
	flagProgress       = "progress"
	flagDebug          = "debug"
	flagLogFile        = "log-file"
	flagSummaryJSON    = "summary-json"
)

func env(name string) []string {
	return []string{"TRACKVIZ_" + name}
}

func newApp(stdout io.Writer) *cli.App {
	def := config.Default()
	return &cli.App{
		Name:      "trackviz",
		Usage:     "draw tracked detections onto an image sequence and write a video",
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagImages, Aliases: []string{"i"}, EnvVars: env("IMAGES"), Required: true, Usage: "directory of input frames"},
			&cli.StringFlag{Name: flagPattern, EnvVars: env("PATTERN"), Value: def.ImagePattern, Usage: "glob selecting frames inside the images directory"},
			&cli.StringFlag{Name: flagDetections, Aliases: []string{"d"}, EnvVars: env("DETECTIONS"), Required: true, Usage: "directory of per-frame detection files"},
			&cli.StringFlag{Name: flagDetectionExt, EnvVars: env("DETECTION_EXT"), Value: def.DetectionExt, Usage: "detection file extension"},
			&cli.StringFlag{Name: flagOutput, Aliases: []string{"o"}, EnvVars: env("OUTPUT"), Value: def.Output, Usage: "output video path, or directory for the images sink"},
			&cli.Float64Flag{Name: flagFPS, EnvVars: env("FPS"), Value: def.Fps, Usage: "output frame rate"},
			&cli.IntFlag{Name: flagWidth, EnvVars: env("WIDTH"), Value: def.Width, Usage: "output frame width"},
			&cli.IntFlag{Name: flagHeight, EnvVars: env("HEIGHT"), Value: def.Height, Usage: "output frame height"},
			&cli.StringFlag{Name: flagSink, EnvVars: env("SINK"), Value: def.Sink, Usage: "output writer: opencv, ffmpeg or images"},
			&cli.StringFlag{Name: flagFourCC, EnvVars: env("FOURCC"), Value: def.FourCC, Usage: "fourcc for the opencv sink"},
			&cli.StringFlag{Name: flagCodec, EnvVars: env("CODEC"), Value: def.Codec, Usage: "codec for the ffmpeg sink"},
			&cli.StringFlag{Name: flagFFmpeg, EnvVars: env("FFMPEG"), Usage: "ffmpeg binary (default: from PATH)"},
			&cli.StringFlag{Name: flagImageExt, EnvVars: env("IMAGE_EXT"), Value: def.ImageExt, Usage: "file extension for the images sink"},
			&cli.StringFlag{Name: flagTracker, EnvVars: env("TRACKER"), Value: def.Tracker, Usage: "tracker: iou or process"},
			&cli.StringFlag{Name: flagTrackerCmd, EnvVars: env("TRACKER_CMD"), Usage: "command line of an external tracker process, split on whitespace (quotes are not interpreted)"},
			&cli.StringSliceFlag{Name: flagTrackerArg, EnvVars: env("TRACKER_ARGS"), Usage: "extra tracker argument passed verbatim, may contain spaces; repeatable"},
			&cli.Float64Flag{Name: flagIoUThreshold, EnvVars: env("IOU_THRESHOLD"), Value: def.IoUThreshold, Usage: "minimum IoU to continue a track"},
			&cli.IntFlag{Name: flagMaxLost, EnvVars: env("MAX_LOST"), Value: def.MaxLost, Usage: "frames a track may go unmatched before it is dropped"},
			&cli.IntFlag{Name: flagMinHits, EnvVars: env("MIN_HITS"), Value: def.MinHits, Usage: "matches before a track is drawn"},
			&cli.BoolFlag{Name: flagDrawDetections, EnvVars: env("DRAW_DETECTIONS"), Usage: "also draw raw detections"},
			&cli.BoolFlag{Name: flagProgress, EnvVars: env("PROGRESS"), Value: def.Progress, Usage: "show a progress bar"},
			&cli.BoolFlag{Name: flagDebug, EnvVars: env("DEBUG"), Usage: "enable debug logging"},
			&cli.StringFlag{Name: flagLogFile, EnvVars: env("LOG_FILE"), Usage: "also write JSON logs to `FILE`, rotated"},
			&cli.StringFlag{Name: flagSummaryJSON, EnvVars: env("SUMMARY_JSON"), Usage: "write a run manifest to `FILE`"},
		},
		Action: run,
	}
}

func configFromContext(c *cli.Context) config.Config {
	cfg := config.Default()
	cfg.ImagesDir = c.String(flagImages)
	cfg.ImagePattern = c.String(flagPattern)
	cfg.DetectionsDir = c.String(flagDetections)
	cfg.DetectionExt = c.String(flagDetectionExt)
	cfg.Output = c.String(flagOutput)
	cfg.Fps = c.Float64(flagFPS)
	cfg.Width = c.Int(flagWidth)
	cfg.Height = c.Int(flagHeight)
	cfg.Sink = c.String(flagSink)
	cfg.FourCC = c.String(flagFourCC)
	cfg.Codec = c.String(flagCodec)
	cfg.FFmpegBin = c.String(flagFFmpeg)
	cfg.ImageExt = c.String(flagImageExt)
	cfg.Tracker = c.String(flagTracker)
	cfg.TrackerCmd = config.TrackerCommand(c.String(flagTrackerCmd), c.StringSlice(flagTrackerArg))
	cfg.IoUThreshold = c.Float64(flagIoUThreshold)
	cfg.MaxLost = c.Int(flagMaxLost)
	cfg.MinHits = c.Int(flagMinHits)
	cfg.DrawDetections = c.Bool(flagDrawDetections)
	cfg.Progress = c.Bool(flagProgress)
	cfg.Debug = c.Bool(flagDebug)
	cfg.LogFile = c.String(flagLogFile)
	cfg.SummaryJSON = c.String(flagSummaryJSON)
	return cfg
}

func run(c *cli.Context) error {
	cfg := configFromContext(c)

	logger, err := logging.New(logging.Options{Debug: cfg.Debug, File: cfg.LogFile})
	if err != nil {
		return errors.Wrap(err, "set up logging")
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	summary, err := p.Run(ctx)
	if err != nil {
		return errors.Wrap(err, "run")
	}
	logger.Sugar().Infow("run finished", "run_id", summary.RunID, "result", summary.Line())

	fmt.Fprintln(c.App.Writer, summary.String())
	if cfg.SummaryJSON != "" {
		if err := summary.WriteJSON(cfg.SummaryJSON); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := newApp(os.Stdout).RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "trackviz:", err)
		os.Exit(1)
	}
}

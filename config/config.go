// Package config holds the run configuration and its validation.
package config

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"trackviz/tracking"
	"trackviz/video"
)

// Tracker kinds.
const (
	TrackerIOU     = "iou"
	TrackerProcess = "process"
)

// Config is everything a run needs.
type Config struct {
	ImagesDir     string
	ImagePattern  string
	DetectionsDir string
	DetectionExt  string

	Output    string
	Fps       float64
	Width     int
	Height    int
	Sink      string
	FourCC    string
	Codec     string
	FFmpegBin string
	ImageExt  string

	Tracker      string
	TrackerCmd   []string
	IoUThreshold float64
	MaxLost      int
	MinHits      int

	DrawDetections bool
	Progress       bool
	Debug          bool
	LogFile        string
	SummaryJSON    string
}

// Default returns the stock configuration: PNG frames, .txt detections and
// an XVID AVI at 10 fps and 1920x1080.
func Default() Config {
	return Config{
		ImagePattern: "*.png",
		DetectionExt: ".txt",
		Output:       "output.avi",
		Fps:          10,
		Width:        1920,
		Height:       1080,
		Sink:         video.KindOpenCV,
		FourCC:       "XVID",
		Codec:        "libx264",
		ImageExt:     ".jpg",
		Tracker:      TrackerIOU,
		IoUThreshold: tracking.BaseIOUConfig.IoUThreshold,
		MaxLost:      tracking.BaseIOUConfig.MaxLost,
		MinHits:      tracking.BaseIOUConfig.MinHits,
		Progress:     true,
	}
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var err error
	if c.ImagesDir == "" {
		err = multierr.Append(err, errors.New("images directory is required"))
	}
	if c.DetectionsDir == "" {
		err = multierr.Append(err, errors.New("detections directory is required"))
	}
	if c.ImagePattern == "" {
		err = multierr.Append(err, errors.New("image pattern is required"))
	} else if _, matchErr := filepath.Match(c.ImagePattern, ""); matchErr != nil {
		err = multierr.Append(err, errors.Wrapf(matchErr, "image pattern %q", c.ImagePattern))
	}
	if c.Output == "" {
		err = multierr.Append(err, errors.New("output path is required"))
	}
	if c.Fps <= 0 {
		err = multierr.Append(err, errors.Errorf("fps must be positive, got %g", c.Fps))
	}
	if c.Width <= 0 || c.Height <= 0 {
		err = multierr.Append(err, errors.Errorf("output size must be positive, got %dx%d", c.Width, c.Height))
	}

	switch c.Sink {
	case video.KindOpenCV:
		if len(c.FourCC) != 4 {
			err = multierr.Append(err, errors.Errorf("fourcc %q must be 4 characters", c.FourCC))
		}
	case video.KindFFmpeg:
		if c.Codec == "" {
			err = multierr.Append(err, errors.New("ffmpeg sink needs a codec"))
		}
	case video.KindImages:
	default:
		err = multierr.Append(err, errors.Errorf("unknown sink %q (want %s, %s or %s)",
			c.Sink, video.KindOpenCV, video.KindFFmpeg, video.KindImages))
	}

	switch c.Tracker {
	case TrackerIOU:
		if c.IoUThreshold <= 0 || c.IoUThreshold > 1 {
			err = multierr.Append(err, errors.Errorf("iou threshold must be in (0,1], got %g", c.IoUThreshold))
		}
		if c.MaxLost < 0 {
			err = multierr.Append(err, errors.Errorf("max lost must not be negative, got %d", c.MaxLost))
		}
		if c.MinHits < 1 {
			err = multierr.Append(err, errors.Errorf("min hits must be at least 1, got %d", c.MinHits))
		}
	case TrackerProcess:
		if len(c.TrackerCmd) == 0 {
			err = multierr.Append(err, errors.New("process tracker needs a command"))
		}
	default:
		err = multierr.Append(err, errors.Errorf("unknown tracker %q (want %s or %s)", c.Tracker, TrackerIOU, TrackerProcess))
	}
	return err
}

// SinkOptions returns the video sink settings.
func (c Config) SinkOptions() video.Options {
	return video.Options{
		Kind:      c.Sink,
		Path:      c.Output,
		FPS:       c.Fps,
		Width:     c.Width,
		Height:    c.Height,
		FourCC:    c.FourCC,
		Codec:     c.Codec,
		FFmpegBin: c.FFmpegBin,
		ImageExt:  c.ImageExt,
	}
}

// IOUConfig returns the built-in tracker tuning.
func (c Config) IOUConfig() tracking.IOUConfig {
	return tracking.IOUConfig{
		IoUThreshold: c.IoUThreshold,
		MaxLost:      c.MaxLost,
		MinHits:      c.MinHits,
	}
}

// SplitCommand splits a tracker command line on whitespace. Quotes are not
// interpreted.
func SplitCommand(cmd string) []string {
	return strings.Fields(cmd)
}

// TrackerCommand builds the tracker argv from a whitespace-split command line
// followed by extra arguments taken verbatim.
func TrackerCommand(cmd string, args []string) []string {
	argv := SplitCommand(cmd)
	if len(args) == 0 {
		return argv
	}
	return append(argv, args...)
}

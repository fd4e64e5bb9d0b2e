package pipeline

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"trackviz/config"
	"trackviz/detection"
	"trackviz/overlay"
	"trackviz/tracking"
	"trackviz/video"
)

// Build validates cfg and wires the stock components: a directory frame
// source, the detection file loader, the configured tracker, the overlay
// renderer and the configured sink.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	registry := detection.NewLabelRegistry()
	parser := detection.NewParser(registry, logger.Named("parser").Sugar())
	loader := detection.NewLoader(cfg.DetectionsDir, cfg.DetectionExt, parser, logger.Named("loader").Sugar())

	tracker, err := NewTracker(ctx, cfg, logger.Named("tracker").Sugar())
	if err != nil {
		return nil, err
	}

	sink, err := video.Open(ctx, cfg.SinkOptions(), logger.Named("sink").Sugar())
	if err != nil {
		if cerr := tracker.Close(); cerr != nil {
			logger.Sugar().Warnw("closing tracker after failed setup", "error", cerr)
		}
		return nil, errors.Wrap(err, "open output")
	}

	return New(Components{
		Frames:     NewDirSource(cfg.ImagesDir, cfg.ImagePattern),
		Detections: loader,
		Tracker:    tracker,
		Drawer:     overlay.NewRenderer(),
		Sink:       sink,
	}, Options{
		Size:           image.Pt(cfg.Width, cfg.Height),
		Output:         cfg.Output,
		Progress:       cfg.Progress,
		DrawDetections: cfg.DrawDetections,
		Labels:         registry,
	}, logger.Named("pipeline").Sugar()), nil
}

// NewTracker starts the tracker cfg names.
func NewTracker(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (tracking.Tracker, error) {
	switch cfg.Tracker {
	case config.TrackerIOU:
		return tracking.NewIOUTracker(cfg.IOUConfig()), nil
	case config.TrackerProcess:
		pt, err := tracking.NewProcessTracker(ctx, cfg.TrackerCmd, logger)
		if err != nil {
			return nil, errors.Wrap(err, "start tracker process")
		}
		return pt, nil
	default:
		return nil, errors.Errorf("unknown tracker %q", cfg.Tracker)
	}
}

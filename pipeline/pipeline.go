// Package pipeline turns a directory of frames and per-frame detection files
// into an annotated video.
package pipeline

import (
	"context"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"trackviz/detection"
	"trackviz/tracking"
	"trackviz/video"
)

// Drawer annotates frames in place.
type Drawer interface {
	DrawTracks(img *gocv.Mat, tracks []tracking.Track)
	DrawDetections(img *gocv.Mat, dets []detection.Record, labels []string)
}

// Components are the collaborators a Pipeline drives. Run takes ownership
// of the Tracker and the Sink and closes both.
type Components struct {
	Frames     FrameSource
	Detections detection.Source
	Tracker    tracking.Tracker
	Drawer     Drawer
	Sink       video.Sink
}

// Options control output geometry and extras.
type Options struct {
	// Size is the output frame size. Every written frame is resized to it.
	Size image.Point
	// Output is recorded in the summary.
	Output string
	// Progress shows a terminal progress bar.
	Progress bool
	// DrawDetections overlays raw detections under the tracks.
	DrawDetections bool
	// Labels resolves class ids for DrawDetections and the summary.
	Labels *detection.LabelRegistry
}

// Pipeline processes frames strictly in order on a single goroutine.
type Pipeline struct {
	c      Components
	opts   Options
	logger *zap.SugaredLogger
	runID  string
	stats  Stats
	ran    bool
}

// New returns a pipeline over the given components.
func New(c Components, opts Options, logger *zap.SugaredLogger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Pipeline{
		c:      c,
		opts:   opts,
		logger: logger,
		runID:  uuid.NewString(),
	}
}

// RunID identifies this pipeline's run in logs and the summary.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run processes every frame and closes the sink exactly once, whether or
// not an error occurred. Unreadable images are skipped, a detection read
// failure keeps whatever records were read before it and tracker failures
// leave the frame unannotated. Listing, sink and context errors abort the run.
func (p *Pipeline) Run(ctx context.Context) (summary Summary, err error) {
	if p.ran {
		return Summary{}, errors.New("pipeline already ran")
	}
	p.ran = true
	start := time.Now()

	defer func() {
		if cerr := p.c.Sink.Close(); cerr != nil {
			err = multierr.Append(err, errors.Wrap(cerr, "close output"))
		}
		if terr := p.c.Tracker.Close(); terr != nil {
			p.logger.Warnw("tracker did not shut down cleanly", "error", terr)
		}
		summary = p.summary(time.Since(start))
	}()

	paths, err := p.c.Frames.List()
	if err != nil {
		return Summary{}, errors.Wrap(err, "list frames")
	}
	if len(paths) == 0 {
		p.logger.Warnw("no frames found")
	}
	p.logger.Infow("starting run", "run_id", p.runID, "frames", len(paths), "size", p.opts.Size)

	bar := startProgress(p.opts.Progress, len(paths), p.logger)
	defer bar.stop()

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		if err := p.processFrame(path); err != nil {
			return Summary{}, err
		}
		bar.increment()
	}
	return Summary{}, nil
}

func (p *Pipeline) processFrame(path string) error {
	p.stats.FramesTotal++
	frameID := detection.FrameID(path)

	readStart := time.Now()
	frame, err := p.c.Frames.Decode(path)
	p.stats.UpdateRead(time.Since(readStart))
	if err != nil {
		p.stats.FramesSkipped++
		p.logger.Warnw("skipping frame", "frame", frameID, "path", path, "error", err)
		return nil
	}
	defer frame.Close()

	dets, err := p.c.Detections.Load(frameID)
	if err != nil {
		p.stats.LoadErrors++
		p.logger.Warnw("could not read all detections", "frame", frameID, "kept", len(dets), "error", err)
	}
	if len(dets) == 0 {
		p.stats.FramesEmpty++
		return p.write(frame)
	}

	trackStart := time.Now()
	p.stats.TrackerCalls++
	tracks, err := p.c.Tracker.Update(dets, frame)
	p.stats.UpdateTracking(time.Since(trackStart))
	if err != nil {
		p.stats.TrackerErrors++
		p.logger.Warnw("tracker failed, writing frame unannotated", "frame", frameID, "error", err)
		return p.write(frame)
	}

	if p.opts.DrawDetections {
		p.c.Drawer.DrawDetections(&frame, dets, p.labels())
	}
	if len(tracks) > 0 {
		p.c.Drawer.DrawTracks(&frame, tracks)
		p.stats.FramesAnnotated++
		p.stats.TracksDrawn += len(tracks)
	}
	p.logger.Debugw("frame processed", "frame", frameID, "detections", len(dets), "tracks", len(tracks))
	return p.write(frame)
}

func (p *Pipeline) write(frame gocv.Mat) error {
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(frame, &resized, p.opts.Size, 0, 0, gocv.InterpolationLinear)

	writeStart := time.Now()
	if err := p.c.Sink.Write(resized); err != nil {
		return errors.Wrapf(err, "write frame %d", p.stats.FramesWritten)
	}
	p.stats.UpdateWrite(time.Since(writeStart))
	p.stats.FramesWritten++
	return nil
}

func (p *Pipeline) labels() []string {
	if p.opts.Labels == nil {
		return nil
	}
	return p.opts.Labels.Labels()
}

func (p *Pipeline) summary(elapsed time.Duration) Summary {
	avgRead, avgTrack, avgWrite := p.stats.Averages()
	s := Summary{
		RunID:           p.runID,
		Output:          p.opts.Output,
		FramesTotal:     p.stats.FramesTotal,
		FramesWritten:   p.stats.FramesWritten,
		FramesSkipped:   p.stats.FramesSkipped,
		FramesEmpty:     p.stats.FramesEmpty,
		FramesAnnotated: p.stats.FramesAnnotated,
		TrackerCalls:    p.stats.TrackerCalls,
		TrackerErrors:   p.stats.TrackerErrors,
		LoadErrors:      p.stats.LoadErrors,
		TracksDrawn:     p.stats.TracksDrawn,
		Labels:          p.labels(),
		Elapsed:         elapsed,
		AvgRead:         avgRead,
		AvgTrack:        avgTrack,
		AvgWrite:        avgWrite,
	}
	if r, ok := p.c.Detections.(interface{ Rejected() int }); ok {
		s.RejectedLines = r.Rejected()
	}
	return s
}

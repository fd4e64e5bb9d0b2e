// Package video holds the output stages of the pipeline: everything that
// accepts finished frames in order and turns them into a file.
package video

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Sink kinds.
const (
	KindOpenCV = "opencv"
	KindFFmpeg = "ffmpeg"
	KindImages = "images"
)

// Sink receives output frames in order. Every frame must already be at the
// sink's size. Close finalizes the output and is called exactly once.
type Sink interface {
	Write(frame gocv.Mat) error
	Close() error
}

// Options selects and configures a Sink.
type Options struct {
	Kind   string
	Path   string
	FPS    float64
	Width  int
	Height int
	// FourCC is the OpenCV codec code, e.g. XVID or MJPG.
	FourCC string
	// Codec and FFmpegBin configure the ffmpeg sink.
	Codec     string
	FFmpegBin string
	// ImageExt is the file extension for the images sink.
	ImageExt string
}

// Size returns the output frame size.
func (o Options) Size() image.Point {
	return image.Pt(o.Width, o.Height)
}

// Open creates the sink described by opts. Failure here aborts a run.
func Open(ctx context.Context, opts Options, logger *zap.SugaredLogger) (Sink, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	switch opts.Kind {
	case KindOpenCV, "":
		return NewOpenCVWriter(opts, logger)
	case KindFFmpeg:
		return NewFFmpegSink(ctx, opts, logger)
	case KindImages:
		return NewImageDirSink(opts, logger)
	default:
		return nil, errors.Errorf("unknown sink %q", opts.Kind)
	}
}

func checkFrame(frame gocv.Mat, size image.Point) error {
	if frame.Empty() {
		return errors.New("empty frame")
	}
	if frame.Cols() != size.X || frame.Rows() != size.Y {
		return errors.Errorf("frame is %dx%d, sink expects %dx%d", frame.Cols(), frame.Rows(), size.X, size.Y)
	}
	if frame.Type() != gocv.MatTypeCV8UC3 {
		return errors.Errorf("frame type %v, sink expects 8-bit BGR", frame.Type())
	}
	return nil
}

package video

import (
	"image"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// OpenCVWriter writes frames through OpenCV's VideoWriter.
type OpenCVWriter struct {
	vw     *gocv.VideoWriter
	size   image.Point
	path   string
	logger *zap.SugaredLogger
	frames int
	closed bool
}

// NewOpenCVWriter opens opts.Path for writing with the opts.FourCC codec.
func NewOpenCVWriter(opts Options, logger *zap.SugaredLogger) (*OpenCVWriter, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}
	fourcc := opts.FourCC
	if fourcc == "" {
		fourcc = "XVID"
	}
	if len(fourcc) != 4 {
		return nil, errors.Errorf("fourcc %q must be 4 characters", fourcc)
	}
	vw, err := gocv.VideoWriterFile(opts.Path, fourcc, opts.FPS, opts.Width, opts.Height, true)
	if err != nil {
		return nil, errors.Wrapf(err, "open video %s", opts.Path)
	}
	if !vw.IsOpened() {
		vw.Close()
		return nil, errors.Errorf("open video %s: codec %s not available", opts.Path, fourcc)
	}
	logger.Infow("video writer opened", "path", opts.Path, "fourcc", fourcc, "fps", opts.FPS, "size", opts.Size())
	return &OpenCVWriter{vw: vw, size: opts.Size(), path: opts.Path, logger: logger}, nil
}

// Write appends one frame.
func (w *OpenCVWriter) Write(frame gocv.Mat) error {
	if w.closed {
		return errors.New("video writer is closed")
	}
	if err := checkFrame(frame, w.size); err != nil {
		return err
	}
	if err := w.vw.Write(frame); err != nil {
		return errors.Wrapf(err, "write frame %d", w.frames+1)
	}
	w.frames++
	return nil
}

// Close releases the writer, finalizing the container.
func (w *OpenCVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.logger.Infow("video writer closed", "path", w.path, "frames", w.frames)
	return w.vw.Close()
}

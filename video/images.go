package video

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// ImageDirSink writes every frame as a numbered image file in a directory,
// e.g. 000001.jpg, 000002.jpg. Useful for inspecting output frame by frame.
type ImageDirSink struct {
	dir    string
	ext    string
	size   image.Point
	logger *zap.SugaredLogger
	frames int
}

// NewImageDirSink creates opts.Path if needed.
func NewImageDirSink(opts Options, logger *zap.SugaredLogger) (*ImageDirSink, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}
	if err := os.MkdirAll(opts.Path, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create frame directory %s", opts.Path)
	}
	ext := opts.ImageExt
	if ext == "" {
		ext = ".jpg"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &ImageDirSink{dir: opts.Path, ext: ext, size: opts.Size(), logger: logger}, nil
}

// Write saves the next frame.
func (s *ImageDirSink) Write(frame gocv.Mat) error {
	if err := checkFrame(frame, s.size); err != nil {
		return err
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%06d%s", s.frames+1, s.ext))
	if !gocv.IMWrite(path, frame) {
		return errors.Errorf("write frame %s", path)
	}
	s.frames++
	return nil
}

// Close reports how many frames were written.
func (s *ImageDirSink) Close() error {
	s.logger.Infow("frames saved", "dir", s.dir, "frames", s.frames)
	return nil
}

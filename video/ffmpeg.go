package video

import (
	"context"
	"image"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"trackviz/pkg/ffmpeg"
)

// FFmpegSink pipes raw BGR frames into an ffmpeg encoder process.
type FFmpegSink struct {
	w    *ffmpeg.Writer
	size image.Point
}

// NewFFmpegSink starts ffmpeg writing opts.Path with opts.Codec.
func NewFFmpegSink(ctx context.Context, opts Options, logger *zap.SugaredLogger) (*FFmpegSink, error) {
	w, err := ffmpeg.NewWriter(ctx, ffmpeg.Config{
		Binary: opts.FFmpegBin,
		Output: opts.Path,
		Width:  opts.Width,
		Height: opts.Height,
		FPS:    opts.FPS,
		Codec:  opts.Codec,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &FFmpegSink{w: w, size: opts.Size()}, nil
}

// Write sends one frame to the encoder.
func (s *FFmpegSink) Write(frame gocv.Mat) error {
	if err := checkFrame(frame, s.size); err != nil {
		return err
	}
	if !frame.IsContinuous() {
		c := frame.Clone()
		defer c.Close()
		return s.w.WriteFrame(c.ToBytes())
	}
	return s.w.WriteFrame(frame.ToBytes())
}

// Close waits for ffmpeg to finish the file.
func (s *FFmpegSink) Close() error {
	return s.w.Close()
}

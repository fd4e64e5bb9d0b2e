// Package ffmpeg encodes raw frames into a video file through an ffmpeg
// subprocess.
package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const crashLines = 50

// Config describes the encoder process.
type Config struct {
	// Binary is the ffmpeg executable; empty means "ffmpeg" on PATH.
	Binary string
	Output string
	Width  int
	Height int
	FPS    float64
	// Codec is the output video codec, e.g. libx264 or mpeg4.
	Codec string
}

// Args returns the ffmpeg command line, without the binary, that reads
// packed bgr24 frames from stdin and encodes them into cfg.Output.
func Args(cfg Config) []string {
	codec := cfg.Codec
	if codec == "" {
		codec = "libx264"
	}
	return ffmpeggo.
		Input("pipe:", ffmpeggo.KwArgs{
			"f":         "rawvideo",
			"pix_fmt":   "bgr24",
			"s":         fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
			"framerate": fmt.Sprintf("%g", cfg.FPS),
		}).
		Output(cfg.Output, ffmpeggo.KwArgs{
			"c:v":     codec,
			"pix_fmt": "yuv420p",
		}).
		OverWriteOutput().
		GetArgs()
}

// Writer feeds frames to a running ffmpeg encoder.
type Writer struct {
	cfg        Config
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	monitor    *Monitor
	logger     *zap.SugaredLogger
	frameBytes int
	written    int
	closed     bool
}

// NewWriter starts the encoder.
func NewWriter(ctx context.Context, cfg Config, logger *zap.SugaredLogger) (*Writer, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Errorf("invalid frame size %dx%d", cfg.Width, cfg.Height)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	binary := cfg.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, errors.Wrapf(err, "find %s", binary)
	}

	args := Args(cfg)
	cmd := exec.CommandContext(ctx, path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg stdin pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg stderr pipe")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "start ffmpeg")
	}
	logger.Infow("ffmpeg started", "pid", cmd.Process.Pid, "cmd", path+" "+strings.Join(args, " "))

	monitor := NewMonitor(crashLines, logger)
	go monitor.Watch(stderr)

	return &Writer{
		cfg:        cfg,
		cmd:        cmd,
		stdin:      stdin,
		monitor:    monitor,
		logger:     logger,
		frameBytes: cfg.Width * cfg.Height * 3,
	}, nil
}

// WriteFrame appends one packed bgr24 frame of exactly Width*Height*3 bytes.
func (w *Writer) WriteFrame(data []byte) error {
	if w.closed {
		return errors.New("ffmpeg writer is closed")
	}
	if len(data) != w.frameBytes {
		return errors.Errorf("frame is %d bytes, want %d", len(data), w.frameBytes)
	}
	if _, err := w.stdin.Write(data); err != nil {
		return w.withOutput(errors.Wrapf(err, "write frame %d to ffmpeg", w.written+1))
	}
	w.written++
	return nil
}

// Written returns how many frames have been handed to ffmpeg.
func (w *Writer) Written() int {
	return w.written
}

// Close flushes the encoder and waits for it to finalize the file. It is
// safe to call more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.stdin.Close()
	w.monitor.Wait()
	if waitErr := w.cmd.Wait(); waitErr != nil {
		err = multierr.Append(err, w.withOutput(errors.Wrap(waitErr, "ffmpeg exited")))
	}
	w.logger.Infow("ffmpeg finished", "frames_written", w.written, "frames_encoded", w.monitor.LastFrame(), "output", w.cfg.Output)
	return err
}

func (w *Writer) withOutput(err error) error {
	recent := w.monitor.Recent()
	if len(recent) == 0 {
		return err
	}
	return errors.Wrapf(err, "ffmpeg output:\n%s", strings.Join(recent, "\n"))
}

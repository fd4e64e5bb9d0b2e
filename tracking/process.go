package tracking

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"trackviz/detection"
)

type processRequest struct {
	Frame      int          `json:"frame"`
	Image      string       `json:"image"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Detections [][6]float64 `json:"detections"`
}

type processResponse struct {
	Tracks [][]float64 `json:"tracks"`
	Error  string      `json:"error,omitempty"`
}

// ProcessTracker drives an external tracker program, for example a wrapper
// around a Python BoT-SORT model. For every frame it writes the image to a
// scratch file and sends one JSON request line on the program's stdin:
//
//	{"frame":1,"image":"/tmp/.../frame.png","width":W,"height":H,"detections":[[x1,y1,x2,y2,score,cls],...]}
//
// and reads one JSON response line from its stdout:
//
//	{"tracks":[[x1,y1,x2,y2,id,conf,cls,ind],...]}  or  {"error":"..."}
//
// The program keeps its own state between requests. Stdout lines that are not
// JSON objects, such as banners or print output, are logged and skipped.
type ProcessTracker struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	enc     *json.Encoder
	out     *bufio.Reader
	scratch string
	frame   int
	logger  *zap.SugaredLogger
	done    chan struct{}
}

// NewProcessTracker starts argv and returns a tracker talking to it.
func NewProcessTracker(ctx context.Context, argv []string, logger *zap.SugaredLogger) (*ProcessTracker, error) {
	if len(argv) == 0 {
		return nil, errors.New("tracker command is empty")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	scratch, err := os.MkdirTemp("", "trackviz-tracker-")
	if err != nil {
		return nil, errors.Wrap(err, "create tracker scratch dir")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		os.RemoveAll(scratch)
		return nil, errors.Wrap(err, "tracker stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		os.RemoveAll(scratch)
		return nil, errors.Wrap(err, "tracker stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		os.RemoveAll(scratch)
		return nil, errors.Wrap(err, "tracker stderr pipe")
	}
	if err := cmd.Start(); err != nil {
		os.RemoveAll(scratch)
		return nil, errors.Wrapf(err, "start tracker %s", argv[0])
	}
	logger.Infow("tracker process started", "cmd", argv, "pid", cmd.Process.Pid)

	pt := &ProcessTracker{
		cmd:     cmd,
		stdin:   stdin,
		enc:     json.NewEncoder(stdin),
		out:     bufio.NewReader(stdout),
		scratch: scratch,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go pt.drainStderr(stderr)
	return pt, nil
}

func (pt *ProcessTracker) drainStderr(r io.Reader) {
	defer close(pt.done)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		pt.logger.Debugw("tracker stderr", "line", scanner.Text())
	}
}

// Update sends one frame to the tracker program and waits for its tracks.
func (pt *ProcessTracker) Update(dets []detection.Record, frame gocv.Mat) ([]Track, error) {
	pt.frame++

	imagePath := filepath.Join(pt.scratch, "frame.png")
	if !gocv.IMWrite(imagePath, frame) {
		return nil, errors.Errorf("write frame %d for tracker", pt.frame)
	}

	req := processRequest{
		Frame:      pt.frame,
		Image:      imagePath,
		Width:      frame.Cols(),
		Height:     frame.Rows(),
		Detections: Rows(dets),
	}
	if err := pt.enc.Encode(req); err != nil {
		return nil, errors.Wrapf(err, "send frame %d to tracker", pt.frame)
	}

	resp, err := pt.readResponse()
	if err != nil {
		return nil, errors.Wrapf(err, "read tracks for frame %d", pt.frame)
	}
	if resp.Error != "" {
		return nil, errors.Errorf("tracker failed on frame %d: %s", pt.frame, resp.Error)
	}

	tracks := make([]Track, 0, len(resp.Tracks))
	for i, row := range resp.Tracks {
		tr, err := FromRow(row)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d track %d", pt.frame, i)
		}
		tracks = append(tracks, tr)
	}
	return tracks, nil
}

// readResponse returns the next JSON object line from the tracker's stdout.
// A line that looks like JSON but does not decode fails only this frame.
func (pt *ProcessTracker) readResponse() (processResponse, error) {
	for {
		line, err := pt.out.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			if line[0] != '{' {
				pt.logger.Debugw("skipping non-JSON tracker output", "line", string(line))
			} else {
				var resp processResponse
				if uerr := json.Unmarshal(line, &resp); uerr != nil {
					return processResponse{}, errors.Wrap(uerr, "decode tracker response")
				}
				return resp, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return processResponse{}, io.ErrUnexpectedEOF
			}
			return processResponse{}, err
		}
	}
}

// Close ends the tracker's input, waits for it to exit and removes the
// scratch directory.
func (pt *ProcessTracker) Close() error {
	err := pt.stdin.Close()
	<-pt.done
	err = multierr.Append(err, pt.cmd.Wait())
	return multierr.Append(err, os.RemoveAll(pt.scratch))
}

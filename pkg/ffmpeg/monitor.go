package ffmpeg

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"
)

var frameRegex = regexp.MustCompile(`frame=\s*(\d+)`)

// Monitor drains an ffmpeg output stream, keeping the tail for diagnostics and
// following the encoder's frame counter.
type Monitor struct {
	buffer    *OutputBuffer
	logger    *zap.SugaredLogger
	lastFrame atomic.Int64
	done      chan struct{}
}

// NewMonitor returns a monitor that remembers the last maxLines lines.
func NewMonitor(maxLines int, logger *zap.SugaredLogger) *Monitor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Monitor{
		buffer: NewOutputBuffer(maxLines),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Watch reads r until EOF. It is meant to run on its own goroutine; Wait
// blocks until it returns.
func (m *Monitor) Watch(r io.Reader) {
	defer close(m.done)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanProgressLines)
	for scanner.Scan() {
		line := string(bytes.TrimSpace(scanner.Bytes()))
		if line == "" {
			continue
		}
		m.buffer.Add(line)
		if matches := frameRegex.FindStringSubmatch(line); len(matches) > 1 {
			if n, err := strconv.ParseInt(matches[1], 10, 64); err == nil && n > m.lastFrame.Load() {
				m.lastFrame.Store(n)
			}
		}
		m.logger.Debugw("ffmpeg", "line", line)
	}
	if err := scanner.Err(); err != nil {
		m.buffer.Add("scanner error: " + err.Error())
	}
}

// Wait blocks until Watch has consumed its stream.
func (m *Monitor) Wait() {
	<-m.done
}

// LastFrame returns the highest frame number ffmpeg has reported.
func (m *Monitor) LastFrame() int64 {
	return m.lastFrame.Load()
}

// Recent returns the buffered output lines, oldest first.
func (m *Monitor) Recent() []string {
	return m.buffer.Recent()
}

// scanProgressLines splits on '\n' or '\r'; ffmpeg rewrites its progress
// line in place with carriage returns.
func scanProgressLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

package detection

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultExt is the extension of per-frame detection files.
const DefaultExt = ".txt"

const (
	maxLineBytes   = 1 << 20
	longLinePrefix = 64
)

// Source supplies the detections recorded for a frame. When Load fails part
// way through a file it returns the records it did read with the error.
type Source interface {
	Load(frameID string) ([]Record, error)
}

// Loader reads per-frame detection files named <dir>/<frameID><ext>.
type Loader struct {
	dir      string
	ext      string
	parser   *Parser
	logger   *zap.SugaredLogger
	rejected int
}

// NewLoader returns a Loader over dir. An empty ext means DefaultExt.
func NewLoader(dir, ext string, parser *Parser, logger *zap.SugaredLogger) *Loader {
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if parser == nil {
		parser = NewParser(nil, logger)
	}
	return &Loader{dir: dir, ext: ext, parser: parser, logger: logger}
}

// Path returns the detection file path for frameID.
func (l *Loader) Path(frameID string) string {
	return filepath.Join(l.dir, frameID+l.ext)
}

// Load returns the records for frameID in file order. A missing file is not
// an error: the frame simply has no detections. Lines the parser rejects, and
// lines longer than maxLineBytes, are dropped after being logged. On a read
// error the records parsed so far are returned along with the error.
func (l *Loader) Load(frameID string) ([]Record, error) {
	path := l.Path(frameID)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debugw("no detection file", "frame", frameID)
			return nil, nil
		}
		return nil, errors.Wrapf(err, "open detections for frame %s", frameID)
	}
	defer f.Close()

	var records []Record
	r := bufio.NewReaderSize(f, 64*1024)
	for lineNo := 1; ; lineNo++ {
		line, tooLong, err := readLine(r)
		switch {
		case tooLong:
			l.rejected++
			lineErr := &LineError{Line: string(line), Reason: fmt.Sprintf("line longer than %d bytes", maxLineBytes)}
			l.logger.Warnw("skipped detection line", "file", path, "line", lineNo, "prefix", lineErr.Line, "reason", lineErr.Reason)
		case len(line) > 0 || err == nil:
			rec, ok := l.parser.Parse(string(line))
			if !ok {
				l.rejected++
				l.logger.Debugw("line rejected", "file", path, "line", lineNo)
				break
			}
			records = append(records, rec)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, errors.Wrapf(err, "read detections %s", path)
		}
	}
}

// readLine returns the next line without its terminator. A line longer than
// maxLineBytes is consumed to its end and reported as too long, with only a
// short prefix returned.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if len(bytes.TrimRight(line, "\r\n")) > maxLineBytes {
				tooLong = true
				line = line[:longLinePrefix]
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return bytes.TrimRight(line, "\r\n"), tooLong, err
	}
}

// Rejected returns how many lines have been dropped across all loads.
func (l *Loader) Rejected() int {
	return l.rejected
}

// Parser returns the parser backing the loader.
func (l *Loader) Parser() *Parser {
	return l.parser
}

// FrameID derives the frame identifier from an image path: the base name cut
// at its first dot, so "dir/000123.png" becomes "000123".
func FrameID(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

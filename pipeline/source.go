package pipeline

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrUnreadable is returned by Decode when an image cannot be decoded.
var ErrUnreadable = errors.New("unreadable image")

// FrameSource enumerates input frames and decodes them.
type FrameSource interface {
	// List returns frame paths in processing order.
	List() ([]string, error)
	// Decode loads a frame as an 8-bit BGR image. The caller closes it.
	Decode(path string) (gocv.Mat, error)
}

// DirSource reads frames matching a glob pattern from one directory, in
// lexicographic filename order.
type DirSource struct {
	dir     string
	pattern string
}

// NewDirSource returns a source over dir/pattern.
func NewDirSource(dir, pattern string) *DirSource {
	return &DirSource{dir: dir, pattern: pattern}
}

// List returns the matching regular files sorted by name.
func (s *DirSource) List() ([]string, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "images directory %s", s.dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("images path %s is not a directory", s.dir)
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, s.pattern))
	if err != nil {
		return nil, errors.Wrapf(err, "glob %s", s.pattern)
	}
	paths := matches[:0]
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.IsDir() {
			continue
		}
		paths = append(paths, m)
	}
	sort.Strings(paths)
	return paths, nil
}

// Decode reads path with OpenCV. Files OpenCV cannot decode yield
// ErrUnreadable.
func (s *DirSource) Decode(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, errors.Wrap(ErrUnreadable, path)
	}
	return img, nil
}

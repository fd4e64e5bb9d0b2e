package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirSourceListSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.png", "c.jpg", "10.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "z.png"), 0o755))

	paths, err := NewDirSource(dir, "*.png").List()
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "10.png"),
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.png"),
	}, paths)
}

func TestDirSourceListErrors(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "missing"), "*.png").List()
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewDirSource(file, "*.png").List()
	require.ErrorContains(t, err, "not a directory")
}

func TestDirSourceDecode(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	writePNG(t, good, 12, 9)
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))

	s := NewDirSource(dir, "*.png")
	img, err := s.Decode(good)
	require.NoError(t, err)
	defer img.Close()
	require.Equal(t, 12, img.Cols())
	require.Equal(t, 9, img.Rows())

	_, err = s.Decode(bad)
	require.ErrorIs(t, err, ErrUnreadable)
	_, err = s.Decode(filepath.Join(dir, "absent.png"))
	require.ErrorIs(t, err, ErrUnreadable)
}

package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"trackviz/config"
	"trackviz/video"
)

func testConfig(imagesDir, detsDir, output string) config.Config {
	cfg := config.Default()
	cfg.ImagesDir = imagesDir
	cfg.DetectionsDir = detsDir
	cfg.Output = output
	cfg.Width = frameW
	cfg.Height = frameH
	cfg.Progress = false
	return cfg
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	_, err := Build(context.Background(), config.Default(), nil)
	require.ErrorContains(t, err, "invalid configuration")
}

func TestBuildUnknownTrackerCommand(t *testing.T) {
	imagesDir, detsDir := fixture(t)
	cfg := testConfig(imagesDir, detsDir, filepath.Join(t.TempDir(), "out.avi"))
	cfg.Tracker = config.TrackerProcess
	cfg.TrackerCmd = []string{"trackviz-no-such-tracker-binary"}
	_, err := Build(context.Background(), cfg, nil)
	require.ErrorContains(t, err, "start tracker process")
}

func TestBuildEndToEndVideo(t *testing.T) {
	imagesDir, detsDir := fixture(t)
	out := filepath.Join(t.TempDir(), "out.avi")
	cfg := testConfig(imagesDir, detsDir, out)
	cfg.FourCC = "MJPG"

	p, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, summary.FramesWritten)
	require.Equal(t, 1, summary.FramesAnnotated)
	require.Equal(t, out, summary.Output)

	vc, err := gocv.VideoCaptureFile(out)
	require.NoError(t, err)
	defer vc.Close()
	img := gocv.NewMat()
	defer img.Close()
	n := 0
	for vc.Read(&img) && !img.Empty() {
		require.Equal(t, frameW, img.Cols())
		require.Equal(t, frameH, img.Rows())
		n++
	}
	require.Equal(t, 2, n)
}

func runToImages(t *testing.T, imagesDir, detsDir string) string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "frames")
	cfg := testConfig(imagesDir, detsDir, out)
	cfg.Sink = video.KindImages
	cfg.ImageExt = ".png"

	p, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	require.NoError(t, err)
	return out
}

func TestBuildIsDeterministic(t *testing.T) {
	imagesDir, detsDir := fixture(t)
	first := runToImages(t, imagesDir, detsDir)
	second := runToImages(t, imagesDir, detsDir)

	entries, err := os.ReadDir(first)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		a, err := os.ReadFile(filepath.Join(first, e.Name()))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(second, e.Name()))
		require.NoError(t, err)
		require.True(t, bytes.Equal(a, b), "frame %s differs between runs", e.Name())
	}
}

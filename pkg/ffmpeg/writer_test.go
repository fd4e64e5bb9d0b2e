package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	args := Args(Config{Output: "/tmp/out.mp4", Width: 64, Height: 48, FPS: 10})
	for _, want := range []string{"pipe:", "rawvideo", "bgr24", "64x48", "10", "libx264", "yuv420p", "/tmp/out.mp4", "-y"} {
		require.Contains(t, args, want)
	}

	args = Args(Config{Output: "out.avi", Width: 8, Height: 8, FPS: 2.5, Codec: "mpeg4"})
	require.Contains(t, args, "mpeg4")
	require.Contains(t, args, "2.5")
	require.NotContains(t, args, "libx264")
}

func TestNewWriterRejectsBadSize(t *testing.T) {
	_, err := NewWriter(context.Background(), Config{Output: "x.mp4"}, nil)
	require.Error(t, err)
}

func TestWriterEncodes(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	out := filepath.Join(t.TempDir(), "out.avi")
	w, err := NewWriter(context.Background(), Config{Output: out, Width: 32, Height: 16, FPS: 5, Codec: "mpeg4"}, nil)
	require.NoError(t, err)

	frame := make([]byte, 32*16*3)
	for i := 0; i < 4; i++ {
		require.NoError(t, w.WriteFrame(frame))
	}
	require.Error(t, w.WriteFrame(frame[:10]))
	require.Equal(t, 4, w.Written())

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.Error(t, w.WriteFrame(frame))

	info, err := os.Stat(out)
	require.NoError(t, err)
	require.NotZero(t, info.Size())
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestAppRendersImages(t *testing.T) {
	root := t.TempDir()
	images := filepath.Join(root, "images")
	dets := filepath.Join(root, "dets")
	require.NoError(t, os.MkdirAll(images, 0o755))
	require.NoError(t, os.MkdirAll(dets, 0o755))

	for _, name := range []string{"000001.png", "000002.png"} {
		m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(20, 40, 60, 0), 48, 64, gocv.MatTypeCV8UC3)
		require.True(t, gocv.IMWrite(filepath.Join(images, name), m))
		m.Close()
	}
	require.NoError(t, os.WriteFile(filepath.Join(dets, "000002.txt"),
		[]byte("person 0.75 [[4,4],[30,4],[30,30],[4,30]]\n"), 0o644))

	out := filepath.Join(root, "out")
	manifest := filepath.Join(root, "summary.json")
	var stdout bytes.Buffer
	err := newApp(&stdout).RunContext(context.Background(), []string{
		"trackviz",
		"--images", images,
		"--detections", dets,
		"--output", out,
		"--sink", "images",
		"--width", "32", "--height", "24",
		"--progress=false",
		"--summary-json", manifest,
	})
	require.NoError(t, err)
	require.Contains(t, stdout.String(), "Frames written")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	data, err := os.ReadFile(manifest)
	require.NoError(t, err)
	var got struct {
		FramesWritten   int      `json:"frames_written"`
		FramesAnnotated int      `json:"frames_annotated"`
		Labels          []string `json:"labels"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, 2, got.FramesWritten)
	require.Equal(t, 1, got.FramesAnnotated)
	require.Equal(t, []string{"person"}, got.Labels)
}

func TestAppReportsConfigErrors(t *testing.T) {
	err := newApp(&bytes.Buffer{}).RunContext(context.Background(), []string{
		"trackviz", "--images", "a", "--detections", "b", "--fps", "0", "--tracker", "magic", "--progress=false",
	})
	require.ErrorContains(t, err, "fps must be positive")
	require.ErrorContains(t, err, "unknown tracker")
}

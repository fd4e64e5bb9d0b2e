package ffmpeg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMonitorTracksFrames(t *testing.T) {
	stderr := "Input #0, rawvideo, from 'pipe:':\n" +
		"frame=    5 fps=0.0 q=0.0 size=       0kB\r" +
		"frame=   12 fps= 11 q=28.0 size=      12kB\r" +
		"frame=   30 fps= 12 q=-1.0 Lsize=     40kB\n" +
		"\n"
	m := NewMonitor(2, nil)
	go m.Watch(strings.NewReader(stderr))
	m.Wait()

	require.Equal(t, int64(30), m.LastFrame())
	recent := m.Recent()
	require.Len(t, recent, 2)
	require.True(t, strings.HasPrefix(recent[1], "frame=   30"))
}

package overlay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColorForTrackIsPure(t *testing.T) {
	first := make(map[int][4]uint8)
	for id := 0; id < 50; id++ {
		c := ColorForTrack(id)
		require.Equal(t, uint8(255), c.A)
		first[id] = [4]uint8{c.R, c.G, c.B, c.A}
	}
	// Query in a different order; earlier calls must not influence later ones.
	for id := 49; id >= 0; id-- {
		c := ColorForTrack(id)
		require.Equal(t, first[id], [4]uint8{c.R, c.G, c.B, c.A}, "track %d", id)
	}
}

func TestColorForTrackSpread(t *testing.T) {
	seen := make(map[[3]uint8]bool)
	for id := 0; id < 200; id++ {
		c := ColorForTrack(id)
		seen[[3]uint8{c.R, c.G, c.B}] = true
	}
	require.GreaterOrEqual(t, len(seen), 195)
	require.NotEqual(t, ColorForTrack(1), ColorForTrack(2))
}

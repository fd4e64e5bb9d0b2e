package overlay

import (
	"image/color"
	"math/rand/v2"
)

// colorStream fixes the PCG stream so the track id alone selects the color.
const colorStream = 0x7472616b76697a

// ColorForTrack returns the display color for a track id. The id seeds a
// private PCG generator, so the result depends only on the id and is the
// same on every call and every run.
func ColorForTrack(id int) color.RGBA {
	rng := rand.New(rand.NewPCG(uint64(id), colorStream))
	return color.RGBA{
		R: uint8(rng.IntN(256)),
		G: uint8(rng.IntN(256)),
		B: uint8(rng.IntN(256)),
		A: 255,
	}
}

package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"trackviz/detection"
	"trackviz/tracking"
)

// Renderer draws tracking results onto frames.
type Renderer struct {
	BoxThickness  int
	FontScale     float64
	TextThickness int
	// LabelOffset is how far above the box's top edge the label baseline sits.
	LabelOffset int

	detectionColor color.RGBA
}

// NewRenderer returns a renderer with the default styling.
func NewRenderer() *Renderer {
	return &Renderer{
		BoxThickness:   2,
		FontScale:      0.5,
		TextThickness:  2,
		LabelOffset:    10,
		detectionColor: color.RGBA{R: 0x00, G: 0x7f, B: 0xff, A: 180},
	}
}

// Label returns the text drawn next to a track.
func Label(t tracking.Track) string {
	return fmt.Sprintf("ID: %d, Conf: %.2f, Class: %d", t.ID, t.Confidence, t.ClassID)
}

// DrawTracks outlines every track in its own color and writes its label just
// above the box. Tracks are drawn in the order given; none are skipped.
func (r *Renderer) DrawTracks(img *gocv.Mat, tracks []tracking.Track) {
	for _, t := range tracks {
		rect := t.Rect()
		c := ColorForTrack(t.ID)
		gocv.Rectangle(img, rect, c, r.BoxThickness)
		gocv.PutText(img, Label(t), image.Pt(rect.Min.X, rect.Min.Y-r.LabelOffset),
			gocv.FontHersheySimplex, r.FontScale, c, r.TextThickness)
	}
}

// DrawDetections draws raw detections as thin boxes for debugging, labelled
// with class name and confidence. labels maps class id to name; ids without
// a name fall back to the number.
func (r *Renderer) DrawDetections(img *gocv.Mat, dets []detection.Record, labels []string) {
	for _, d := range dets {
		rect := d.Rect()
		gocv.Rectangle(img, rect, r.detectionColor, 1)

		name := fmt.Sprintf("%d", d.ClassID)
		if d.ClassID >= 0 && d.ClassID < len(labels) {
			name = labels[d.ClassID]
		}
		labelPos := image.Pt(rect.Min.X, rect.Max.Y+15)
		gocv.PutText(img, fmt.Sprintf("%s %.0f%%", name, d.Score*100), labelPos,
			gocv.FontHersheySimplex, 0.4, r.detectionColor, 1)
	}
}

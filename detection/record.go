package detection

import "image"

// Record is a single detection in corner form: box, confidence and class.
type Record struct {
	XMin    int
	YMin    int
	XMax    int
	YMax    int
	Score   float64
	ClassID int
}

// Row returns the record as [x_min, y_min, x_max, y_max, score, class_id],
// the numeric row layout trackers consume.
func (r Record) Row() [6]float64 {
	return [6]float64{
		float64(r.XMin),
		float64(r.YMin),
		float64(r.XMax),
		float64(r.YMax),
		r.Score,
		float64(r.ClassID),
	}
}

// Rect returns the box as an image.Rectangle.
func (r Record) Rect() image.Rectangle {
	return image.Rect(r.XMin, r.YMin, r.XMax, r.YMax)
}

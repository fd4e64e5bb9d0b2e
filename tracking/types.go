package tracking

import (
	"image"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gocv.io/x/gocv"

	"trackviz/detection"
)

// TrackRowLen is the number of values in a tracker output row:
// x_min, y_min, x_max, y_max, track_id, confidence, class_id, detection_index.
const TrackRowLen = 8

// Track is a detection the tracker has bound to a persistent identity.
type Track struct {
	XMin           float64
	YMin           float64
	XMax           float64
	YMax           float64
	ID             int
	Confidence     float64
	ClassID        int
	DetectionIndex int
}

// Rect returns the track box truncated to integer pixels.
func (t Track) Rect() image.Rectangle {
	return image.Rect(int(t.XMin), int(t.YMin), int(t.XMax), int(t.YMax))
}

// Row returns the track in tracker output row layout.
func (t Track) Row() [TrackRowLen]float64 {
	return [TrackRowLen]float64{
		t.XMin, t.YMin, t.XMax, t.YMax,
		float64(t.ID), t.Confidence, float64(t.ClassID), float64(t.DetectionIndex),
	}
}

// FromRow builds a Track from a tracker output row.
func FromRow(row []float64) (Track, error) {
	if len(row) < TrackRowLen {
		return Track{}, errors.Errorf("track row has %d values, want %d", len(row), TrackRowLen)
	}
	return Track{
		XMin:           row[0],
		YMin:           row[1],
		XMax:           row[2],
		YMax:           row[3],
		ID:             int(row[4]),
		Confidence:     row[5],
		ClassID:        int(row[6]),
		DetectionIndex: int(row[7]),
	}, nil
}

// Rows converts detections into the numeric rows trackers consume.
func Rows(dets []detection.Record) [][6]float64 {
	return lo.Map(dets, func(d detection.Record, _ int) [6]float64 {
		return d.Row()
	})
}

// Tracker associates per-frame detections with persistent track identities.
// Update is called once per frame that has detections, in frame order, and
// state carries over between calls.
type Tracker interface {
	Update(dets []detection.Record, frame gocv.Mat) ([]Track, error)
	Close() error
}

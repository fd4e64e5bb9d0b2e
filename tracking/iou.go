package tracking

import (
	"sort"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"trackviz/detection"
)

// IOUConfig tunes the built-in IoU tracker.
type IOUConfig struct {
	// IoUThreshold is the minimum overlap between a predicted track box and a
	// detection for them to be associated.
	IoUThreshold float64
	// MaxLost is how many consecutive frames a track may go unmatched before
	// it is dropped.
	MaxLost int
	// MinHits is how many matches a track needs before it is reported.
	MinHits int
}

// BaseIOUConfig is the default tracker tuning.
var BaseIOUConfig = IOUConfig{
	IoUThreshold: 0.3,
	MaxLost:      30,
	MinHits:      1,
}

type iouTrack struct {
	id       int
	kf       *KalmanFilter
	width    float64
	height   float64
	box      [4]float64
	score    float64
	classID  int
	detIndex int
	hits     int
	lost     int
}

func (t *iouTrack) predictedBox() [4]float64 {
	cx, cy := t.kf.Predict()
	return [4]float64{cx - t.width/2, cy - t.height/2, cx + t.width/2, cy + t.height/2}
}

func (t *iouTrack) update(d detection.Record, index int) {
	box := recordBox(d)
	t.width = box[2] - box[0]
	t.height = box[3] - box[1]
	t.kf.Update((box[0]+box[2])/2, (box[1]+box[3])/2)
	t.box = box
	t.score = d.Score
	t.classID = d.ClassID
	t.detIndex = index
	t.hits++
	t.lost = 0
}

// IOUTracker is a lightweight stand-in for an appearance-based tracker. Each
// track predicts its next center with a Kalman filter, predictions are
// matched to detections of the same class greedily by IoU, and unmatched
// detections start new tracks. Track ids start at 1 and are never reused.
type IOUTracker struct {
	IOUConfig
	tracks []*iouTrack
	nextID int
	frame  int
}

// NewIOUTracker returns an empty tracker.
func NewIOUTracker(config IOUConfig) *IOUTracker {
	return &IOUTracker{
		IOUConfig: config,
		nextID:    1,
	}
}

// Update associates dets with existing tracks and returns the tracks matched
// on this frame, ordered by detection index. The frame image is unused.
func (t *IOUTracker) Update(dets []detection.Record, _ gocv.Mat) ([]Track, error) {
	t.frame++

	trackBoxes := make([][4]float64, len(t.tracks))
	for i, tr := range t.tracks {
		trackBoxes[i] = tr.predictedBox()
	}
	detBoxes := make([][4]float64, len(dets))
	for i, d := range dets {
		detBoxes[i] = recordBox(d)
	}

	ious := IoUMatrix(trackBoxes, detBoxes)
	for i, tr := range t.tracks {
		for j, d := range dets {
			if tr.classID != d.ClassID {
				ious.Set(i, j, 0)
			}
		}
	}

	matchedTracks := make(map[int]bool, len(t.tracks))
	matchedDets := make(map[int]bool, len(dets))
	for _, m := range greedyMatch(ious, t.IoUThreshold) {
		t.tracks[m[0]].update(dets[m[1]], m[1])
		matchedTracks[m[0]] = true
		matchedDets[m[1]] = true
	}

	kept := t.tracks[:0]
	for i, tr := range t.tracks {
		if !matchedTracks[i] {
			tr.lost++
			if tr.lost > t.MaxLost {
				continue
			}
		}
		kept = append(kept, tr)
	}
	t.tracks = kept

	for j, d := range dets {
		if matchedDets[j] {
			continue
		}
		tr := &iouTrack{id: t.nextID, kf: NewKalmanFilter()}
		t.nextID++
		tr.update(d, j)
		t.tracks = append(t.tracks, tr)
	}

	var out []Track
	for _, tr := range t.tracks {
		if tr.lost != 0 || tr.hits < t.MinHits {
			continue
		}
		out = append(out, Track{
			XMin:           tr.box[0],
			YMin:           tr.box[1],
			XMax:           tr.box[2],
			YMax:           tr.box[3],
			ID:             tr.id,
			Confidence:     tr.score,
			ClassID:        tr.classID,
			DetectionIndex: tr.detIndex,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DetectionIndex < out[j].DetectionIndex
	})
	return out, nil
}

// Close is a no-op.
func (t *IOUTracker) Close() error {
	return nil
}

// IoUMatrix returns the pairwise intersection over union of two box sets in
// x1, y1, x2, y2 form. Rows index boxes1 and columns index boxes2. Either set
// being empty yields nil.
func IoUMatrix(boxes1, boxes2 [][4]float64) *mat.Dense {
	if len(boxes1) == 0 || len(boxes2) == 0 {
		return nil
	}
	out := mat.NewDense(len(boxes1), len(boxes2), nil)
	for i, b1 := range boxes1 {
		for j, b2 := range boxes2 {
			out.Set(i, j, IoU(b1, b2))
		}
	}
	return out
}

// IoU returns the intersection over union of two x1, y1, x2, y2 boxes.
func IoU(b1, b2 [4]float64) float64 {
	iw := min(b1[2], b2[2]) - max(b1[0], b2[0])
	ih := min(b1[3], b2[3]) - max(b1[1], b2[1])
	if iw <= 0 || ih <= 0 {
		return 0
	}
	inter := iw * ih
	union := (b1[2]-b1[0])*(b1[3]-b1[1]) + (b2[2]-b2[0])*(b2[3]-b2[1]) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// greedyMatch pairs rows and columns by descending score, skipping pairs
// below threshold. Ties resolve by row then column.
func greedyMatch(scores *mat.Dense, threshold float64) [][2]int {
	if scores == nil {
		return nil
	}
	rows, cols := scores.Dims()
	type candidate struct {
		row, col int
		score    float64
	}
	var candidates []candidate
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if s := scores.At(i, j); s >= threshold && s > 0 {
				candidates = append(candidates, candidate{i, j, s})
			}
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	usedRows := make([]bool, rows)
	usedCols := make([]bool, cols)
	var matches [][2]int
	for _, c := range candidates {
		if usedRows[c.row] || usedCols[c.col] {
			continue
		}
		usedRows[c.row] = true
		usedCols[c.col] = true
		matches = append(matches, [2]int{c.row, c.col})
	}
	return matches
}

func recordBox(d detection.Record) [4]float64 {
	return [4]float64{float64(d.XMin), float64(d.YMin), float64(d.XMax), float64(d.YMax)}
}

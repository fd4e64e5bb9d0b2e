package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
)

// Summary describes a finished run.
type Summary struct {
	RunID           string   `json:"run_id"`
	Output          string   `json:"output"`
	FramesTotal     int      `json:"frames_total"`
	FramesWritten   int      `json:"frames_written"`
	FramesSkipped   int      `json:"frames_skipped"`
	FramesEmpty     int      `json:"frames_empty"`
	FramesAnnotated int      `json:"frames_annotated"`
	TrackerCalls    int      `json:"tracker_calls"`
	TrackerErrors   int      `json:"tracker_errors"`
	LoadErrors      int      `json:"load_errors"`
	RejectedLines   int      `json:"rejected_lines"`
	TracksDrawn     int      `json:"tracks_drawn"`
	Labels          []string `json:"labels"`

	Elapsed  time.Duration `json:"-"`
	AvgRead  time.Duration `json:"-"`
	AvgTrack time.Duration `json:"-"`
	AvgWrite time.Duration `json:"-"`
}

// String renders the summary as a table.
func (s Summary) String() string {
	t := table.NewWriter()
	t.SetTitle("trackviz run %s", s.RunID)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Output", s.Output},
		{"Frames listed", s.FramesTotal},
		{"Frames written", s.FramesWritten},
		{"Frames skipped (unreadable)", s.FramesSkipped},
		{"Frames without detections", s.FramesEmpty},
		{"Frames annotated", s.FramesAnnotated},
		{"Tracker calls", s.TrackerCalls},
		{"Tracker errors", s.TrackerErrors},
		{"Detection load errors", s.LoadErrors},
		{"Rejected detection lines", s.RejectedLines},
		{"Tracks drawn", s.TracksDrawn},
		{"Labels", strings.Join(s.Labels, ", ")},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Elapsed", s.Elapsed.Round(time.Millisecond)},
		{"Avg decode", s.AvgRead.Round(time.Microsecond)},
		{"Avg track", s.AvgTrack.Round(time.Microsecond)},
		{"Avg write", s.AvgWrite.Round(time.Microsecond)},
	})
	return t.Render()
}

// MarshalJSON adds the timings in seconds and milliseconds.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	return json.Marshal(struct {
		plain
		ElapsedSeconds float64 `json:"elapsed_seconds"`
		AvgReadMs      float64 `json:"avg_read_ms"`
		AvgTrackMs     float64 `json:"avg_track_ms"`
		AvgWriteMs     float64 `json:"avg_write_ms"`
	}{
		plain:          plain(s),
		ElapsedSeconds: s.Elapsed.Seconds(),
		AvgReadMs:      ms(s.AvgRead),
		AvgTrackMs:     ms(s.AvgTrack),
		AvgWriteMs:     ms(s.AvgWrite),
	})
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// WriteJSON writes the summary manifest to path.
func (s Summary) WriteJSON(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode summary")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "write summary %s", path)
	}
	return nil
}

// Line is a one-line form of the summary for logs.
func (s Summary) Line() string {
	return fmt.Sprintf("%d/%d frames written, %d skipped, %d annotated, %d tracker errors",
		s.FramesWritten, s.FramesTotal, s.FramesSkipped, s.FramesAnnotated, s.TrackerErrors)
}

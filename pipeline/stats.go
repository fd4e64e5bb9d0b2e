package pipeline

import "time"

// Stats counts what happened to each frame and how long the stages took.
// It is only touched from the pipeline's goroutine.
type Stats struct {
	FramesTotal     int
	FramesWritten   int
	FramesSkipped   int
	FramesEmpty     int
	FramesAnnotated int
	TrackerCalls    int
	TrackerErrors   int
	LoadErrors      int
	TracksDrawn     int

	readTimeTotal  time.Duration
	trackTimeTotal time.Duration
	writeTimeTotal time.Duration
	readCount      int
	trackCount     int
	writeCount     int
}

// UpdateRead records an image decode.
func (s *Stats) UpdateRead(d time.Duration) {
	s.readTimeTotal += d
	s.readCount++
}

// UpdateTracking records a tracker call.
func (s *Stats) UpdateTracking(d time.Duration) {
	s.trackTimeTotal += d
	s.trackCount++
}

// UpdateWrite records a frame handed to the sink.
func (s *Stats) UpdateWrite(d time.Duration) {
	s.writeTimeTotal += d
	s.writeCount++
}

// Averages returns the mean decode, tracking and write times.
func (s *Stats) Averages() (avgRead, avgTrack, avgWrite time.Duration) {
	if s.readCount > 0 {
		avgRead = s.readTimeTotal / time.Duration(s.readCount)
	}
	if s.trackCount > 0 {
		avgTrack = s.trackTimeTotal / time.Duration(s.trackCount)
	}
	if s.writeCount > 0 {
		avgWrite = s.writeTimeTotal / time.Duration(s.writeCount)
	}
	return
}

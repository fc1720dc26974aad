package core

import "time"

// FrameStats keeps the last K frame durations in a ring and reports their
// rolling average. Not safe for concurrent use; the frame loop is the only
// caller.
type FrameStats struct {
	samples []time.Duration
	next    int
	filled  int
}

func NewFrameStats(window int) *FrameStats {
	if window < 1 {
		window = 1
	}
	return &FrameStats{samples: make([]time.Duration, window)}
}

func (f *FrameStats) Record(d time.Duration) {
	f.samples[f.next] = d
	f.next = (f.next + 1) % len(f.samples)
	if f.filled < len(f.samples) {
		f.filled++
	}
}

// Average returns the mean of the recorded samples, zero if none yet.
func (f *FrameStats) Average() time.Duration {
	if f.filled == 0 {
		return 0
	}
	var sum time.Duration
	for i := 0; i < f.filled; i++ {
		sum += f.samples[i]
	}
	return sum / time.Duration(f.filled)
}

func (f *FrameStats) Count() int { return f.filled }

package core

import (
	"testing"
	"time"
)

func TestFrameStatsEmpty(t *testing.T) {
	f := NewFrameStats(120)
	if got := f.Average(); got != 0 {
		t.Errorf("empty average = %v, want 0", got)
	}
	if got := f.Count(); got != 0 {
		t.Errorf("empty count = %d, want 0", got)
	}
}

func TestFrameStatsConstant(t *testing.T) {
	f := NewFrameStats(8)
	for i := 0; i < 8; i++ {
		f.Record(16 * time.Millisecond)
	}
	if got := f.Average(); got != 16*time.Millisecond {
		t.Errorf("average = %v, want 16ms", got)
	}
}

func TestFrameStatsPartialFill(t *testing.T) {
	f := NewFrameStats(100)
	f.Record(10 * time.Millisecond)
	f.Record(30 * time.Millisecond)

	if got := f.Count(); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}
	if got := f.Average(); got != 20*time.Millisecond {
		t.Errorf("average = %v, want 20ms", got)
	}
}

func TestFrameStatsWindowEviction(t *testing.T) {
	f := NewFrameStats(4)
	for i := 0; i < 4; i++ {
		f.Record(10 * time.Millisecond)
	}
	for i := 0; i < 4; i++ {
		f.Record(20 * time.Millisecond)
	}

	if got := f.Average(); got != 20*time.Millisecond {
		t.Errorf("average after eviction = %v, want 20ms", got)
	}
	if got := f.Count(); got != 4 {
		t.Errorf("count = %d, want 4", got)
	}
}

func TestFrameStatsMinimumWindow(t *testing.T) {
	f := NewFrameStats(0)
	f.Record(5 * time.Millisecond)
	f.Record(7 * time.Millisecond)
	if got := f.Average(); got != 7*time.Millisecond {
		t.Errorf("window-1 average = %v, want latest sample 7ms", got)
	}
}

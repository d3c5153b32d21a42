package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeFitnessStats(t *testing.T) {
	values := []float64{10, 2, 8, 4, 6}
	fs := ComputeFitnessStats(values)

	if math.Abs(fs.Mean-6) > 1e-9 {
		t.Errorf("mean = %v, want 6", fs.Mean)
	}
	// Population std of {2,4,6,8,10} is sqrt(8)
	if math.Abs(fs.Std-math.Sqrt(8)) > 1e-9 {
		t.Errorf("std = %v, want %v", fs.Std, math.Sqrt(8))
	}
	if fs.Max != 10 {
		t.Errorf("max = %v, want 10", fs.Max)
	}
	if math.Abs(fs.P50-6) > 1e-9 {
		t.Errorf("p50 = %v, want 6", fs.P50)
	}

	// Input must not be reordered
	if values[0] != 10 || values[1] != 2 {
		t.Errorf("ComputeFitnessStats sorted its input: %v", values)
	}
}

func TestComputeFitnessStatsEmpty(t *testing.T) {
	if fs := ComputeFitnessStats(nil); fs != (FitnessSummary{}) {
		t.Errorf("empty input should return zero summary, got %+v", fs)
	}
}

func TestCollector_Flush(t *testing.T) {
	c := NewCollector("run-1")

	c.Record(NewJumpEvent(1, 7))
	c.Record(NewJumpEvent(2, 7))
	c.Record(NewFaultEvent(2, 8))
	c.Record(NewCollisionEvent(3, 8))
	c.Record(NewOutOfBoundsEvent(4, 9))
	c.Record(NewPipePassedEvent(5))

	stats := c.Flush(GenerationSummary{
		Generation: 3,
		Ticks:      5,
		Score:      1,
		Outcome:    "extinct",
		Fitness:    []float64{1.5, 4.0, 4.0},
		IDs:        []int{7, 8, 9},
	})

	if stats.RunID != "run-1" || stats.Generation != 3 {
		t.Errorf("identity = %q/%d", stats.RunID, stats.Generation)
	}
	if stats.Jumps != 2 || stats.Faults != 1 || stats.Collisions != 1 || stats.OutOfBounds != 1 || stats.PipesPassed != 1 {
		t.Errorf("counters = %+v", stats)
	}
	if stats.Agents != 3 {
		t.Errorf("Agents = %d, want 3", stats.Agents)
	}
	if stats.BestID != 8 {
		t.Errorf("BestID = %d, want first max holder 8", stats.BestID)
	}

	// Counters reset
	next := c.Flush(GenerationSummary{Generation: 4})
	if next.Jumps != 0 || next.Faults != 0 || next.Collisions != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.BestID != -1 {
		t.Errorf("BestID with no agents = %d, want -1", next.BestID)
	}
}

func TestLifetimeTracker(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.Register(1, 0)
	lt.Register(2, 0)

	lt.Record(NewJumpEvent(1, 1))
	lt.Record(NewFaultEvent(1, 1))
	lt.Record(NewCollisionEvent(5, 2))
	lt.Record(NewOutOfBoundsEvent(6, 2)) // already dead, ignored
	lt.Record(NewPipePassedEvent(7))     // world event, ignored

	if s := lt.Get(1); s.Jumps != 1 || s.Faults != 1 || s.DiedAt != -1 {
		t.Errorf("agent 1 = %+v", s)
	}
	if s := lt.Get(2); s.Cause != "collision" || s.DiedAt != 5 {
		t.Errorf("agent 2 = %+v", s)
	}
	if lt.AliveCount() != 1 {
		t.Errorf("AliveCount() = %d, want 1", lt.AliveCount())
	}

	lt.UpdateFitness(2, 3.5)
	if removed := lt.Remove(2); removed == nil || removed.Fitness != 3.5 {
		t.Errorf("Remove(2) = %+v", removed)
	}
	lt.Reset()
	if lt.Count() != 0 {
		t.Errorf("Count() after Reset = %d", lt.Count())
	}
}

package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GenerationStats holds aggregated statistics for one generation.
type GenerationStats struct {
	RunID      string `csv:"run_id"`
	Generation int    `csv:"generation"`
	Ticks      int    `csv:"ticks"`
	Score      int    `csv:"score"`
	Outcome    string `csv:"outcome"`
	PipeSeed   int64  `csv:"pipe_seed"`

	// Population
	Agents    int `csv:"agents"`
	Survivors int `csv:"survivors"`

	// Events during the generation
	Jumps       int `csv:"jumps"`
	Faults      int `csv:"faults"`
	Collisions  int `csv:"collisions"`
	OutOfBounds int `csv:"out_of_bounds"`
	PipesPassed int `csv:"pipes_passed"`

	// Fitness distribution at generation end
	FitnessMean float64 `csv:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std"`
	FitnessMax  float64 `csv:"fitness_max"`
	FitnessP10  float64 `csv:"fitness_p10"`
	FitnessP50  float64 `csv:"fitness_p50"`
	FitnessP90  float64 `csv:"fitness_p90"`

	// Best agent
	BestID int `csv:"best_id"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// FitnessSummary is the distribution of one generation's fitness values.
type FitnessSummary struct {
	Mean, Std, Max float64
	P10, P50, P90  float64
}

// ComputeFitnessStats calculates mean, population std, max and percentiles.
func ComputeFitnessStats(values []float64) FitnessSummary {
	n := len(values)
	if n == 0 {
		return FitnessSummary{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	// Sort for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return FitnessSummary{
		Mean: mean,
		Std:  std,
		Max:  floats.Max(values),
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("ticks", s.Ticks),
		slog.Int("score", s.Score),
		slog.String("outcome", s.Outcome),
		slog.Int("agents", s.Agents),
		slog.Int("survivors", s.Survivors),
		slog.Int("jumps", s.Jumps),
		slog.Int("faults", s.Faults),
		slog.Int("collisions", s.Collisions),
		slog.Int("out_of_bounds", s.OutOfBounds),
		slog.Float64("fitness_mean", s.FitnessMean),
		slog.Float64("fitness_max", s.FitnessMax),
		slog.Int("best_id", s.BestID),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation",
		"generation", s.Generation,
		"ticks", s.Ticks,
		"score", s.Score,
		"outcome", s.Outcome,
		"agents", s.Agents,
		"survivors", s.Survivors,
		"jumps", s.Jumps,
		"faults", s.Faults,
		"collisions", s.Collisions,
		"out_of_bounds", s.OutOfBounds,
		"pipes_passed", s.PipesPassed,
		"fitness_mean", s.FitnessMean,
		"fitness_std", s.FitnessStd,
		"fitness_max", s.FitnessMax,
		"fitness_p10", s.FitnessP10,
		"fitness_p50", s.FitnessP50,
		"fitness_p90", s.FitnessP90,
		"best_id", s.BestID,
	)
}

// Package main searches feedforward controller weights with CMA-ES. Each
// candidate flies a single bird over a fixed set of pipe seeds; the best
// controller is written to the output directory and the champion store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/neural"
	"github.com/pthm-cable/flap/store"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// evalRow is one line of optimize_log.csv.
type evalRow struct {
	Eval      int     `csv:"eval"`
	Fitness   float64 `csv:"fitness"`
	MeanScore float64 `csv:"mean_score"`
	Best      float64 `csv:"best_fitness"`
	Elapsed   float64 `csv:"elapsed_sec"`
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 5000, "Tick cap per episode")
	seeds := flag.Int("seeds", 3, "Number of pipe seeds per evaluation")
	maxEvals := flag.Int("max-evals", 500, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	bound := flag.Float64("bound", 5, "Absolute weight bound")
	outputDir := flag.String("output", "", "Output directory for results")
	saveStore := flag.Bool("store", true, "Save the best controller to the configured champion store")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if *outputDir == "" {
		fail("--output is required", nil)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fail("failed to create output directory", err)
	}

	if err := config.Init(*configPath); err != nil {
		fail("failed to load config", err)
	}
	baseCfg := config.Cfg()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	weights := NewWeightVector(rand.New(rand.NewSource(baseCfg.Sim.Seed+1)), *bound)

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(weights, *maxTicks, evalSeeds, baseCfg)

	dim := weights.Dim()
	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	logFile, err := os.Create(filepath.Join(*outputDir, "optimize_log.csv"))
	if err != nil {
		fail("failed to create log file", err)
	}
	defer logFile.Close()

	evalCount := 0
	bestFitness := 1e9
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			fitness := evaluator.Evaluate(ctx, x)
			evalCount++
			bestFitness = min(bestFitness, fitness)

			elapsed := time.Since(startTime)
			rows := []evalRow{{
				Eval:      evalCount,
				Fitness:   fitness,
				MeanScore: evaluator.LastScore(),
				Best:      bestFitness,
				Elapsed:   elapsed.Seconds(),
			}}
			if evalCount == 1 {
				err = gocsv.Marshal(rows, logFile)
			} else {
				err = gocsv.MarshalWithoutHeaders(rows, logFile)
			}
			if err != nil {
				slog.Error("failed to write eval log", "error", err)
			}

			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(*maxEvals-evalCount) * avgPerEval
			slog.Info("evaluation",
				"eval", fmt.Sprintf("%d/%d", evalCount, *maxEvals),
				"fitness", humanize.FormatFloat("#,###.##", -fitness),
				"mean_score", evaluator.LastScore(),
				"best", humanize.FormatFloat("#,###.##", -bestFitness),
				"elapsed", formatDuration(elapsed),
				"eta", formatDuration(remaining),
			)
			return fitness
		},
		Status: func() (optimize.Status, error) {
			if ctx.Err() != nil {
				return optimize.MethodConverge, nil
			}
			return optimize.NotTerminated, nil
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0,
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	slog.Info("starting CMA-ES",
		"params", dim,
		"population", popSize,
		"max_evals", *maxEvals,
		"seeds", *seeds,
		"max_ticks", *maxTicks,
	)

	if _, err := optimize.Minimize(problem, weights.Normalize(weights.Init), settings, method); err != nil {
		slog.Warn("optimization ended", "error", err)
	}

	best, bestScore := evaluator.Best()
	slog.Info("optimization complete",
		"evals", evalCount,
		"duration", formatDuration(time.Since(startTime)),
		"best_fitness", humanize.FormatFloat("#,###.##", -bestFitness),
		"best_score", bestScore,
	)
	if best == nil {
		return
	}

	if err := writeBest(*outputDir, weights, best); err != nil {
		slog.Error("failed to write best controller", "error", err)
	}

	if *saveStore {
		if err := storeBest(baseCfg, best, -bestFitness, bestScore); err != nil {
			slog.Error("failed to store best controller", "error", err)
		}
	}
}

// writeBest saves the controller envelope and a name-to-weight table.
func writeBest(dir string, wv *WeightVector, best *neural.FFNNController) error {
	data, err := json.MarshalIndent(best, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "best_controller.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	named := make(map[string]float64, wv.Dim())
	params := best.Net.Params()
	for i, name := range wv.Names() {
		named[name] = params[i]
	}
	data, err = json.MarshalIndent(named, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "best_weights.json"), data, 0644); err != nil {
		return err
	}

	slog.Info("best controller saved", "path", path)
	return nil
}

func storeBest(cfg *config.Config, best *neural.FFNNController, fitness float64, score int) error {
	st, err := store.NewStore(cfg.Store.Kind, cfg.Store.Path)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := st.Init(ctx); err != nil {
		return err
	}
	defer st.Close()

	data, err := best.MarshalJSON()
	if err != nil {
		return err
	}
	rec := store.NewChampion("optimize-"+uuid.NewString(), 0, best.Kind(), fitness, data)
	rec.Score = score
	return st.SaveChampion(ctx, rec)
}

func fail(msg string, err error) {
	if err != nil {
		slog.Error(msg, "error", err)
	} else {
		slog.Error(msg)
	}
	os.Exit(1)
}

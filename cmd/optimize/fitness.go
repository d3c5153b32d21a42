package main

import (
	"context"
	"math"
	"sync"

	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/game"
	"github.com/pthm-cable/flap/neural"
)

// FitnessEvaluator plays single-bird episodes and scores weight vectors.
type FitnessEvaluator struct {
	weights    *WeightVector
	seeds      []int64
	baseConfig *config.Config

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	best        *neural.FFNNController
	bestScore   int
	lastScore   float64 // mean pipes passed in the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Every evaluation plays one
// episode per seed with the same controller, capped at maxTicks when positive.
func NewFitnessEvaluator(weights *WeightVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	cfg := baseCfg.Clone()
	if maxTicks > 0 {
		cfg.Sim.MaxTicks = maxTicks
	}
	cfg.HallOfFame.Enabled = false
	return &FitnessEvaluator{
		weights:     weights,
		seeds:       seeds,
		baseConfig:  cfg,
		bestFitness: math.Inf(1),
	}
}

// Best returns the controller of the best evaluation and its best score.
func (fe *FitnessEvaluator) Best() (*neural.FFNNController, int) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.best, fe.bestScore
}

// LastScore returns the mean score of the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastScore
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	score   int
	err     error
}

// Evaluate computes the fitness of a coordinate vector (lower = better).
// Fitness is the negated mean episode fitness across seeds.
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			// Controllers are not shared between concurrent games
			ctrl := fe.weights.Controller(x, fe.baseConfig.Playfield.Height)
			results[idx] = fe.runEpisode(ctx, ctrl, s)
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalScore float64
	bestSeedScore := 0
	for _, r := range results {
		if r.err != nil {
			return math.Inf(1)
		}
		totalFitness += r.fitness
		totalScore += float64(r.score)
		bestSeedScore = max(bestSeedScore, r.score)
	}

	n := float64(len(fe.seeds))
	avgFitness := -totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.best = fe.weights.Controller(x, fe.baseConfig.Playfield.Height)
		fe.bestScore = bestSeedScore
	}
	fe.lastScore = totalScore / n
	fe.mu.Unlock()

	return avgFitness
}

// runEpisode plays one generation with a single bird.
func (fe *FitnessEvaluator) runEpisode(ctx context.Context, ctrl neural.Controller, seed int64) seedResult {
	g, err := game.NewGame(fe.baseConfig, game.Options{Seed: seed})
	if err != nil {
		return seedResult{err: err}
	}
	defer g.Close()

	res, err := g.RunGeneration(ctx, []game.Entrant{{ID: 1, Controller: ctrl}})
	if err != nil {
		return seedResult{err: err}
	}
	return seedResult{fitness: res.Fitness[0].Fitness, score: res.Score}
}

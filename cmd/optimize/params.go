package main

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/flap/neural"
)

// WeightVector maps optimizer coordinates to feedforward controller weights.
// The optimizer works in [-1, 1] per coordinate; Bound scales that to the
// raw weight range.
type WeightVector struct {
	Bound float64
	Init  []float64 // Raw starting weights
}

// NewWeightVector starts from a randomly initialized network.
func NewWeightVector(rng *rand.Rand, bound float64) *WeightVector {
	return &WeightVector{
		Bound: bound,
		Init:  neural.NewFFNN(rng).Params(),
	}
}

// Dim returns the number of parameters.
func (wv *WeightVector) Dim() int {
	return neural.NumParams
}

// Names labels each coordinate the way Params orders them.
func (wv *WeightVector) Names() []string {
	names := make([]string, 0, neural.NumParams)
	for h := 0; h < neural.NumHidden; h++ {
		for i := 0; i < neural.NumInputs; i++ {
			names = append(names, fmt.Sprintf("w1_%d_%d", h, i))
		}
	}
	for h := 0; h < neural.NumHidden; h++ {
		names = append(names, fmt.Sprintf("b1_%d", h))
	}
	for o := 0; o < neural.NumOutputs; o++ {
		for h := 0; h < neural.NumHidden; h++ {
			names = append(names, fmt.Sprintf("w2_%d_%d", o, h))
		}
	}
	for o := 0; o < neural.NumOutputs; o++ {
		names = append(names, fmt.Sprintf("b2_%d", o))
	}
	return names
}

// Normalize converts raw weights to optimizer coordinates.
func (wv *WeightVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = v / wv.Bound
	}
	return out
}

// Denormalize converts optimizer coordinates to raw weights, clamped to Bound.
func (wv *WeightVector) Denormalize(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = max(-wv.Bound, min(wv.Bound, v*wv.Bound))
	}
	return out
}

// Controller builds the controller a coordinate vector describes.
func (wv *WeightVector) Controller(x []float64, scale float64) *neural.FFNNController {
	net := &neural.FFNN{}
	net.SetParams(wv.Denormalize(x))
	return neural.NewFFNNController(net, scale)
}

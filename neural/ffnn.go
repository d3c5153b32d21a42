// Package neural provides the bird controllers: a fixed-shape feedforward
// network and a goNEAT genome-backed network.
package neural

import (
	"math"
	"math/rand"
)

// Network dimensions (compile-time constants for array sizing).
const (
	NumInputs  = 3 // bird y, gap top, gap bottom
	NumHidden  = 6
	NumOutputs = 1 // jump
)

// FFNN is a simple two-layer feedforward neural network.
type FFNN struct {
	W1 [NumHidden][NumInputs]float64  // input -> hidden weights
	B1 [NumHidden]float64             // hidden biases
	W2 [NumOutputs][NumHidden]float64 // hidden -> output weights
	B2 [NumOutputs]float64            // output biases
}

// NewFFNN creates a randomly initialized network.
func NewFFNN(rng *rand.Rand) *FFNN {
	nn := &FFNN{}
	// Xavier initialization
	scale1 := math.Sqrt(2.0 / float64(NumInputs))
	scale2 := math.Sqrt(2.0 / float64(NumHidden))

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = rng.NormFloat64() * scale1
		}
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = rng.NormFloat64() * scale2
		}
	}

	return nn
}

// Forward computes the jump output in [-1, 1].
func (nn *FFNN) Forward(inputs []float64) float64 {
	var hidden [NumHidden]float64
	for i := 0; i < NumHidden; i++ {
		sum := nn.B1[i]
		for j := 0; j < NumInputs; j++ {
			sum += nn.W1[i][j] * inputs[j]
		}
		hidden[i] = tanh(sum)
	}

	sum := nn.B2[0]
	for j := 0; j < NumHidden; j++ {
		sum += nn.W2[0][j] * hidden[j]
	}
	return tanh(sum)
}

// MutateSparse applies sparse per-weight mutation.
// rate: probability each weight mutates (e.g., 0.2)
// sigma: standard deviation of normal perturbation (e.g., 0.3)
// bigRate: probability a mutation is large (e.g., 0.05)
// bigSigma: sigma for large mutations (e.g., 1.0)
// Returns the average absolute delta of all applied mutations.
func (nn *FFNN) MutateSparse(rng *rand.Rand, rate, sigma, bigRate, bigSigma float64) float64 {
	biasRate := rate * 0.5 // biases mutate at half the rate

	var totalDelta float64
	var count int

	perturb := func(w *float64, p float64) {
		if rng.Float64() >= p {
			return
		}
		s := sigma
		if rng.Float64() < bigRate {
			s = bigSigma
		}
		delta := rng.NormFloat64() * s
		*w += delta
		totalDelta += math.Abs(delta)
		count++
	}

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			perturb(&nn.W1[i][j], rate)
		}
		perturb(&nn.B1[i], biasRate)
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			perturb(&nn.W2[i][j], rate)
		}
		perturb(&nn.B2[i], biasRate)
	}

	if count == 0 {
		return 0
	}
	return totalDelta / float64(count)
}

// Clone creates a deep copy of the network.
func (nn *FFNN) Clone() *FFNN {
	clone := *nn
	return &clone
}

// NumParams is the length of the flat parameter vector.
const NumParams = NumHidden*NumInputs + NumHidden + NumOutputs*NumHidden + NumOutputs

// Params flattens every weight and bias into one vector (W1, B1, W2, B2).
func (nn *FFNN) Params() []float64 {
	bw := nn.MarshalWeights()
	out := make([]float64, 0, NumParams)
	out = append(out, bw.W1...)
	out = append(out, bw.B1...)
	out = append(out, bw.W2...)
	out = append(out, bw.B2...)
	return out
}

// SetParams is the inverse of Params. Short vectors leave the tail untouched.
func (nn *FFNN) SetParams(p []float64) {
	take := func(n int) []float64 {
		if n > len(p) {
			n = len(p)
		}
		s := p[:n]
		p = p[n:]
		return s
	}
	nn.UnmarshalWeights(BrainWeights{
		W1: take(NumHidden * NumInputs),
		B1: take(NumHidden),
		W2: take(NumOutputs * NumHidden),
		B2: take(NumOutputs),
	})
}

// tanh uses a fast rational approximation.
func tanh(x float64) float64 {
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	return max(-1, min(1, x*(27+x2)/(27+9*x2)))
}

// BrainWeights holds flattened network weights for serialization.
type BrainWeights struct {
	W1 []float64 `json:"w1"` // [NumHidden * NumInputs]
	B1 []float64 `json:"b1"` // [NumHidden]
	W2 []float64 `json:"w2"` // [NumOutputs * NumHidden]
	B2 []float64 `json:"b2"` // [NumOutputs]
}

// MarshalWeights flattens the network weights for JSON serialization.
func (nn *FFNN) MarshalWeights() BrainWeights {
	bw := BrainWeights{
		W1: make([]float64, NumHidden*NumInputs),
		B1: make([]float64, NumHidden),
		W2: make([]float64, NumOutputs*NumHidden),
		B2: make([]float64, NumOutputs),
	}

	for i := 0; i < NumHidden; i++ {
		copy(bw.W1[i*NumInputs:], nn.W1[i][:])
	}
	copy(bw.B1, nn.B1[:])
	for i := 0; i < NumOutputs; i++ {
		copy(bw.W2[i*NumHidden:], nn.W2[i][:])
	}
	copy(bw.B2, nn.B2[:])

	return bw
}

// UnmarshalWeights restores network weights from flattened form.
func (nn *FFNN) UnmarshalWeights(bw BrainWeights) {
	for i := 0; i < NumHidden; i++ {
		for j := 0; j < NumInputs; j++ {
			if i*NumInputs+j < len(bw.W1) {
				nn.W1[i][j] = bw.W1[i*NumInputs+j]
			}
		}
	}

	for i := 0; i < NumHidden && i < len(bw.B1); i++ {
		nn.B1[i] = bw.B1[i]
	}

	for i := 0; i < NumOutputs; i++ {
		for j := 0; j < NumHidden; j++ {
			if i*NumHidden+j < len(bw.W2) {
				nn.W2[i][j] = bw.W2[i*NumHidden+j]
			}
		}
	}

	for i := 0; i < NumOutputs && i < len(bw.B2); i++ {
		nn.B2[i] = bw.B2[i]
	}
}

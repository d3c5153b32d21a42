package neural

import (
	"github.com/yaricom/goNEAT/v4/neat"
)

// Controller kinds, as written into encoded controllers.
const (
	KindFFNN = "ffnn"
	KindNEAT = "neat"
)

// DefaultNEATOptions returns the mutation rates used for brain genomes.
// Only the mutation and speciation fields are read; the population loop
// belongs to the caller.
func DefaultNEATOptions() *neat.Options {
	return &neat.Options{
		// Weight mutation
		WeightMutPower:        2.5,
		MutateLinkWeightsProb: 0.8,

		// Structural mutation rates
		MutateAddNodeProb:      0.03,
		MutateAddLinkProb:      0.05,
		MutateToggleEnableProb: 0.01,

		// Speciation
		CompatThreshold: 1.2,
		DisjointCoeff:   1.0,
		ExcessCoeff:     1.0,
		MutdiffCoeff:    0.4,
		DropOffAge:      15,
	}
}

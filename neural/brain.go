package neural

import (
	"fmt"
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// BrainController wraps a goNEAT network for runtime evaluation.
type BrainController struct {
	Genome  *genetics.Genome
	Scale   float64 // Inputs are divided by Scale before activation
	network *network.Network
}

// NewBrainController creates a controller from a genome.
func NewBrainController(genome *genetics.Genome, scale float64) (*BrainController, error) {
	phenotype, err := genome.Genesis(genome.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to build network from genome: %w", err)
	}
	if scale <= 0 {
		scale = 1
	}

	return &BrainController{
		Genome:  genome,
		Scale:   scale,
		network: phenotype,
	}, nil
}

// Decide scales the observation and runs the network. The single output is in [-1, 1].
func (b *BrainController) Decide(inputs []float64) ([]float64, error) {
	if len(inputs) != NumInputs {
		return nil, fmt.Errorf("expected %d inputs, got %d", NumInputs, len(inputs))
	}

	var scaled [NumInputs]float64
	for i, v := range inputs {
		scaled[i] = v / b.Scale
	}

	if err := b.network.LoadSensors(scaled[:]); err != nil {
		return nil, fmt.Errorf("failed to load sensors: %w", err)
	}

	// Activate with depth-based steps for proper signal propagation
	depth, err := b.network.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = 5 // Fallback for simple networks
	}

	for i := 0; i < depth; i++ {
		if _, err := b.network.Activate(); err != nil {
			return nil, fmt.Errorf("activation failed: %w", err)
		}
	}

	outputs := b.network.ReadOutputs()

	// Flush network state for next tick
	if _, err := b.network.Flush(); err != nil {
		return nil, fmt.Errorf("flush failed: %w", err)
	}

	return outputs, nil
}

// Kind reports the controller implementation.
func (b *BrainController) Kind() string { return KindNEAT }

// RebuildNetwork recreates the phenotype network from the genome.
// Call this after the genome has been mutated.
func (b *BrainController) RebuildNetwork() error {
	phenotype, err := b.Genome.Genesis(b.Genome.Id)
	if err != nil {
		return fmt.Errorf("failed to rebuild network: %w", err)
	}
	b.network = phenotype
	return nil
}

// NodeCount returns the number of nodes in the network.
func (b *BrainController) NodeCount() int {
	return b.network.NodeCount()
}

// LinkCount returns the number of links (connections) in the network.
func (b *BrainController) LinkCount() int {
	return b.network.LinkCount()
}

// brainNodes builds the input and output nodes shared by every brain genome.
func brainNodes() []*network.NNode {
	nodes := make([]*network.NNode, 0, NumInputs+NumOutputs)

	// Input nodes (IDs 1 to NumInputs)
	for i := 1; i <= NumInputs; i++ {
		node := network.NewNNode(i, network.InputNeuron)
		node.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, node)
	}

	// Output nodes (IDs NumInputs+1 to NumInputs+NumOutputs)
	for i := 1; i <= NumOutputs; i++ {
		node := network.NewNNode(NumInputs+i, network.OutputNeuron)
		node.ActivationType = neatmath.TanhActivation
		nodes = append(nodes, node)
	}

	return nodes
}

// CreateBrainGenome creates a new brain genome with the specified ID.
// Each input connects to each output with probability connectionProb.
func CreateBrainGenome(rng *rand.Rand, id int, connectionProb float64) *genetics.Genome {
	nodes := brainNodes()

	genes := make([]*genetics.Gene, 0, NumInputs*NumOutputs)
	innovNum := int64(1)

	for i := 0; i < NumInputs; i++ {
		for j := 0; j < NumOutputs; j++ {
			// Always increment innovation for consistent tracking
			currentInnov := innovNum
			innovNum++

			if rng.Float64() < connectionProb {
				weight := rng.Float64()*4 - 2 // [-2, 2]
				gene := genetics.NewGeneWithTrait(
					nil,                // trait
					weight,             // weight
					nodes[i],           // input node
					nodes[NumInputs+j], // output node
					false,              // recurrent
					currentInnov,       // innovation number
					0,                  // mutation number
				)
				genes = append(genes, gene)
			}
		}
	}

	// Ensure at least one connection exists
	if len(genes) == 0 {
		gene := genetics.NewGeneWithTrait(
			nil,
			rng.Float64()*2-1,
			nodes[0],
			nodes[NumInputs],
			false,
			1,
			0,
		)
		genes = append(genes, gene)
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}

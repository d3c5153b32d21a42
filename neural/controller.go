package neural

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// ErrUnknownKind is returned when decoding a controller of an unsupported kind.
var ErrUnknownKind = errors.New("unknown controller kind")

// Controller is a decision function that can describe and encode itself.
type Controller interface {
	Decide(inputs []float64) ([]float64, error)
	Kind() string
	json.Marshaler
}

// FFNNController drives a bird with a fixed-shape network.
type FFNNController struct {
	Net   *FFNN
	Scale float64 // Inputs are divided by Scale before the forward pass
}

// NewFFNNController wraps net. A non-positive scale means no scaling.
func NewFFNNController(net *FFNN, scale float64) *FFNNController {
	if scale <= 0 {
		scale = 1
	}
	return &FFNNController{Net: net, Scale: scale}
}

// Decide runs the forward pass on the scaled observation.
func (c *FFNNController) Decide(inputs []float64) ([]float64, error) {
	if len(inputs) != NumInputs {
		return nil, fmt.Errorf("expected %d inputs, got %d", NumInputs, len(inputs))
	}
	var scaled [NumInputs]float64
	for i, v := range inputs {
		scaled[i] = v / c.Scale
	}
	return []float64{c.Net.Forward(scaled[:])}, nil
}

// Kind reports the controller implementation.
func (c *FFNNController) Kind() string { return KindFFNN }

// encoded is the on-disk form of any controller.
type encoded struct {
	Kind    string        `json:"kind"`
	Scale   float64       `json:"scale"`
	Weights *BrainWeights `json:"weights,omitempty"`
	Genome  *GenomeJSON   `json:"genome,omitempty"`
}

// MarshalJSON encodes the network weights.
func (c *FFNNController) MarshalJSON() ([]byte, error) {
	bw := c.Net.MarshalWeights()
	return json.Marshal(encoded{Kind: KindFFNN, Scale: c.Scale, Weights: &bw})
}

// GenomeJSON is a flat, self-contained encoding of a brain genome.
type GenomeJSON struct {
	ID    int        `json:"id"`
	Nodes []NodeJSON `json:"nodes"`
	Genes []GeneJSON `json:"genes"`
}

// NodeJSON is one genome node.
type NodeJSON struct {
	ID         int    `json:"id"`
	Type       string `json:"type"` // input, output, hidden, bias
	Activation int    `json:"activation"`
}

// GeneJSON is one genome connection.
type GeneJSON struct {
	In         int     `json:"in"`
	Out        int     `json:"out"`
	Weight     float64 `json:"weight"`
	Enabled    bool    `json:"enabled"`
	Recurrent  bool    `json:"recurrent,omitempty"`
	Innovation int64   `json:"innovation"`
}

// EncodeGenome flattens a goNEAT genome.
func EncodeGenome(genome *genetics.Genome) *GenomeJSON {
	gj := &GenomeJSON{ID: genome.Id}
	for _, n := range genome.Nodes {
		var typ string
		switch n.NeuronType {
		case network.InputNeuron:
			typ = "input"
		case network.OutputNeuron:
			typ = "output"
		case network.BiasNeuron:
			typ = "bias"
		default:
			typ = "hidden"
		}
		gj.Nodes = append(gj.Nodes, NodeJSON{ID: n.Id, Type: typ, Activation: int(n.ActivationType)})
	}
	for _, g := range genome.Genes {
		gj.Genes = append(gj.Genes, GeneJSON{
			In:         g.Link.InNode.Id,
			Out:        g.Link.OutNode.Id,
			Weight:     g.Link.ConnectionWeight,
			Enabled:    g.IsEnabled,
			Recurrent:  g.Link.IsRecurrent,
			Innovation: g.InnovationNum,
		})
	}
	return gj
}

// DecodeGenome rebuilds a goNEAT genome.
func DecodeGenome(gj *GenomeJSON) (*genetics.Genome, error) {
	nodeMap := make(map[int]*network.NNode, len(gj.Nodes))
	nodes := make([]*network.NNode, 0, len(gj.Nodes))
	for _, n := range gj.Nodes {
		var node *network.NNode
		switch n.Type {
		case "input":
			node = network.NewNNode(n.ID, network.InputNeuron)
		case "output":
			node = network.NewNNode(n.ID, network.OutputNeuron)
		case "bias":
			node = network.NewNNode(n.ID, network.BiasNeuron)
		case "hidden":
			node = network.NewNNode(n.ID, network.HiddenNeuron)
		default:
			return nil, fmt.Errorf("node %d: unknown type %q", n.ID, n.Type)
		}
		node.ActivationType = neatmath.NodeActivationType(n.Activation)
		nodeMap[n.ID] = node
		nodes = append(nodes, node)
	}

	genes := make([]*genetics.Gene, 0, len(gj.Genes))
	for _, g := range gj.Genes {
		in, out := nodeMap[g.In], nodeMap[g.Out]
		if in == nil || out == nil {
			return nil, fmt.Errorf("gene %d: dangling link %d -> %d", g.Innovation, g.In, g.Out)
		}
		gene := genetics.NewGeneWithTrait(nil, g.Weight, in, out, g.Recurrent, g.Innovation, 0)
		gene.IsEnabled = g.Enabled
		genes = append(genes, gene)
	}

	return genetics.NewGenome(gj.ID, nil, nodes, genes), nil
}

// MarshalJSON encodes the genome.
func (b *BrainController) MarshalJSON() ([]byte, error) {
	return json.Marshal(encoded{Kind: KindNEAT, Scale: b.Scale, Genome: EncodeGenome(b.Genome)})
}

// Decode rebuilds a controller from its JSON encoding.
func Decode(data []byte) (Controller, error) {
	var enc encoded
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, fmt.Errorf("parsing controller: %w", err)
	}

	switch enc.Kind {
	case KindFFNN:
		if enc.Weights == nil {
			return nil, fmt.Errorf("ffnn controller without weights")
		}
		net := &FFNN{}
		net.UnmarshalWeights(*enc.Weights)
		return NewFFNNController(net, enc.Scale), nil
	case KindNEAT:
		if enc.Genome == nil {
			return nil, fmt.Errorf("neat controller without genome")
		}
		genome, err := DecodeGenome(enc.Genome)
		if err != nil {
			return nil, err
		}
		return NewBrainController(genome, enc.Scale)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, enc.Kind)
	}
}

// NewRandom creates a fresh controller of the given kind.
func NewRandom(kind string, rng *rand.Rand, id int, scale, connectionProb float64) (Controller, error) {
	switch kind {
	case KindFFNN:
		return NewFFNNController(NewFFNN(rng), scale), nil
	case KindNEAT:
		return NewBrainController(CreateBrainGenome(rng, id, connectionProb), scale)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Offspring returns a mutated copy of parent. NEAT genomes take ids and
// innovations from idGen; FFNN parents ignore it.
func Offspring(rng *rand.Rand, parent Controller, id int, m Mutation, idGen *GenomeIDGenerator) (Controller, error) {
	switch p := parent.(type) {
	case *FFNNController:
		net := p.Net.Clone()
		net.MutateSparse(rng, m.Rate, m.Sigma, m.BigRate, m.BigSigma)
		return NewFFNNController(net, p.Scale), nil
	case *BrainController:
		child, err := CloneGenome(p.Genome, id)
		if err != nil {
			return nil, err
		}
		if _, err := MutateBrainGenome(rng, child, DefaultNEATOptions(), idGen); err != nil {
			return nil, err
		}
		return NewBrainController(child, p.Scale)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, parent)
	}
}

// Mutation holds the sparse mutation parameters for FFNN offspring.
type Mutation struct {
	Rate, Sigma       float64
	BigRate, BigSigma float64
}

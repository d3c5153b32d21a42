package neural

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// Mutation constants
const (
	perturbProb         = 0.9  // Probability of perturbing vs replacing weights
	maxConnectionWeight = 8.0  // Maximum absolute connection weight
	maxLinkAttempts     = 20   // Maximum attempts to find a new connection
	initialInnovNum     = 1000 // Starting innovation number to avoid conflicts
)

// GenomeIDGenerator generates unique genome IDs and innovation numbers.
type GenomeIDGenerator struct {
	nextID       int
	nextInnovNum int64
}

// NewGenomeIDGenerator creates a new ID generator.
func NewGenomeIDGenerator() *GenomeIDGenerator {
	return &GenomeIDGenerator{
		nextID:       1,
		nextInnovNum: initialInnovNum,
	}
}

// NextID returns the next unique genome ID.
func (g *GenomeIDGenerator) NextID() int {
	id := g.nextID
	g.nextID++
	return id
}

// NextInnovation returns the next innovation number.
func (g *GenomeIDGenerator) NextInnovation() int64 {
	num := g.nextInnovNum
	g.nextInnovNum++
	return num
}

// Observe advances the generator past ids and innovations already used by genome.
func (g *GenomeIDGenerator) Observe(genome *genetics.Genome) {
	if genome.Id >= g.nextID {
		g.nextID = genome.Id + 1
	}
	g.ObserveInnovations(genome)
}

// ObserveInnovations advances only the innovation counter.
func (g *GenomeIDGenerator) ObserveInnovations(genome *genetics.Genome) {
	for _, gene := range genome.Genes {
		if gene.InnovationNum >= g.nextInnovNum {
			g.nextInnovNum = gene.InnovationNum + 1
		}
	}
}

// CrossoverGenomes performs NEAT-style crossover between two parent genomes.
// Genes are aligned by innovation number; the fitter parent contributes
// disjoint and excess genes.
func CrossoverGenomes(rng *rand.Rand, parent1, parent2 *genetics.Genome, fitness1, fitness2 float64, childID int) (*genetics.Genome, error) {
	if parent1 == nil || parent2 == nil {
		return nil, fmt.Errorf("cannot crossover nil genomes")
	}

	var primary, secondary *genetics.Genome
	if fitness1 >= fitness2 {
		primary, secondary = parent1, parent2
	} else {
		primary, secondary = parent2, parent1
	}

	primaryGenes := make(map[int64]*genetics.Gene)
	for _, gene := range primary.Genes {
		primaryGenes[gene.InnovationNum] = gene
	}
	secondaryGenes := make(map[int64]*genetics.Gene)
	for _, gene := range secondary.Genes {
		secondaryGenes[gene.InnovationNum] = gene
	}

	// Sorted innovations for deterministic ordering
	innovSet := make(map[int64]bool)
	for innov := range primaryGenes {
		innovSet[innov] = true
	}
	for innov := range secondaryGenes {
		innovSet[innov] = true
	}
	innovations := make([]int64, 0, len(innovSet))
	for innov := range innovSet {
		innovations = append(innovations, innov)
	}
	sort.Slice(innovations, func(i, j int) bool { return innovations[i] < innovations[j] })

	childNodeMap := make(map[int]*network.NNode)
	for _, node := range primary.Nodes {
		childNodeMap[node.Id] = copyNode(node)
	}
	for _, node := range secondary.Nodes {
		if _, exists := childNodeMap[node.Id]; !exists {
			childNodeMap[node.Id] = copyNode(node)
		}
	}

	childGenes := make([]*genetics.Gene, 0, len(innovations))
	for _, innov := range innovations {
		pGene := primaryGenes[innov]
		sGene := secondaryGenes[innov]

		var selected *genetics.Gene
		switch {
		case pGene != nil && sGene != nil:
			// Matching gene: either parent
			selected = pGene
			if rng.Float64() < 0.5 {
				selected = sGene
			}
		case pGene != nil:
			selected = pGene
		case fitness1 == fitness2 && sGene != nil:
			if rng.Float64() < 0.5 {
				selected = sGene
			}
		}
		if selected == nil {
			continue
		}

		inNode := childNodeMap[selected.Link.InNode.Id]
		outNode := childNodeMap[selected.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}
		childGene := genetics.NewGeneWithTrait(
			nil,
			selected.Link.ConnectionWeight,
			inNode,
			outNode,
			selected.Link.IsRecurrent,
			selected.InnovationNum,
			selected.MutationNum,
		)
		childGene.IsEnabled = selected.IsEnabled
		childGenes = append(childGenes, childGene)
	}

	childNodes := make([]*network.NNode, 0, len(childNodeMap))
	for _, node := range childNodeMap {
		childNodes = append(childNodes, node)
	}
	sort.Slice(childNodes, func(i, j int) bool { return childNodes[i].Id < childNodes[j].Id })

	return genetics.NewGenome(childID, nil, childNodes, childGenes), nil
}

func copyNode(node *network.NNode) *network.NNode {
	newNode := network.NewNNode(node.Id, node.NeuronType)
	newNode.ActivationType = node.ActivationType
	return newNode
}

func mutateWeights(rng *rand.Rand, genome *genetics.Genome, power float64) {
	for _, gene := range genome.Genes {
		if rng.Float64() < perturbProb {
			gene.Link.ConnectionWeight += (rng.Float64()*2 - 1) * power
		} else {
			gene.Link.ConnectionWeight = rng.Float64()*4 - 2
		}
		gene.Link.ConnectionWeight = clampWeight(gene.Link.ConnectionWeight)
	}
}

// clampWeight clamps a connection weight to the valid range.
func clampWeight(w float64) float64 {
	if w > maxConnectionWeight {
		return maxConnectionWeight
	}
	if w < -maxConnectionWeight {
		return -maxConnectionWeight
	}
	return w
}

// hiddenActivators are the activations a new hidden node may get.
var hiddenActivators = []neatmath.NodeActivationType{
	neatmath.TanhActivation,
	neatmath.SigmoidSteepenedActivation,
	neatmath.LinearActivation,
}

func addNode(rng *rand.Rand, genome *genetics.Genome, idGen *GenomeIDGenerator) bool {
	enabledGenes := make([]*genetics.Gene, 0, len(genome.Genes))
	for _, gene := range genome.Genes {
		if gene.IsEnabled {
			enabledGenes = append(enabledGenes, gene)
		}
	}
	if len(enabledGenes) == 0 {
		return false
	}

	geneToSplit := enabledGenes[rng.Intn(len(enabledGenes))]
	geneToSplit.IsEnabled = false

	maxNodeID := 0
	for _, node := range genome.Nodes {
		if node.Id > maxNodeID {
			maxNodeID = node.Id
		}
	}

	newNode := network.NewNNode(maxNodeID+1, network.HiddenNeuron)
	newNode.ActivationType = hiddenActivators[rng.Intn(len(hiddenActivators))]

	// old_in -> new (1.0), new -> old_out (old weight)
	gene1 := genetics.NewGeneWithTrait(nil, 1.0, geneToSplit.Link.InNode, newNode, false, idGen.NextInnovation(), 0)
	gene2 := genetics.NewGeneWithTrait(nil, geneToSplit.Link.ConnectionWeight, newNode, geneToSplit.Link.OutNode, false, idGen.NextInnovation(), 0)

	genome.Nodes = append(genome.Nodes, newNode)
	genome.Genes = append(genome.Genes, gene1, gene2)

	return true
}

func addLink(rng *rand.Rand, genome *genetics.Genome, idGen *GenomeIDGenerator) bool {
	var sources, targets []*network.NNode
	for _, node := range genome.Nodes {
		switch node.NeuronType {
		case network.InputNeuron, network.BiasNeuron:
			sources = append(sources, node)
		case network.OutputNeuron:
			targets = append(targets, node)
		case network.HiddenNeuron:
			sources = append(sources, node)
			targets = append(targets, node)
		}
	}
	if len(sources) == 0 || len(targets) == 0 {
		return false
	}

	existing := make(map[int64]bool, len(genome.Genes))
	for _, gene := range genome.Genes {
		existing[connectionKey(gene.Link.InNode.Id, gene.Link.OutNode.Id)] = true
	}

	for attempt := 0; attempt < maxLinkAttempts; attempt++ {
		source := sources[rng.Intn(len(sources))]
		target := targets[rng.Intn(len(targets))]

		if source.Id == target.Id || existing[connectionKey(source.Id, target.Id)] {
			continue
		}

		gene := genetics.NewGeneWithTrait(nil, rng.Float64()*4-2, source, target, false, idGen.NextInnovation(), 0)
		genome.Genes = append(genome.Genes, gene)
		return true
	}

	return false
}

// connectionKey creates a unique key for a connection between two nodes.
func connectionKey(inID, outID int) int64 {
	return int64(inID)<<32 | int64(outID)
}

func toggleEnable(rng *rand.Rand, genome *genetics.Genome) {
	if len(genome.Genes) == 0 {
		return
	}

	gene := genome.Genes[rng.Intn(len(genome.Genes))]
	gene.IsEnabled = !gene.IsEnabled

	// Keep every output reachable
	if !gene.IsEnabled {
		for _, g := range genome.Genes {
			if g.Link.OutNode.Id == gene.Link.OutNode.Id && g.IsEnabled {
				return
			}
		}
		gene.IsEnabled = true
	}
}

// MutateBrainGenome applies weight and structural mutations in place.
// Returns whether anything changed.
func MutateBrainGenome(rng *rand.Rand, genome *genetics.Genome, opts *neat.Options, idGen *GenomeIDGenerator) (bool, error) {
	if genome == nil {
		return false, fmt.Errorf("cannot mutate nil genome")
	}

	mutated := false

	if rng.Float64() < opts.MutateLinkWeightsProb {
		mutateWeights(rng, genome, opts.WeightMutPower)
		mutated = true
	}
	if rng.Float64() < opts.MutateAddNodeProb && addNode(rng, genome, idGen) {
		mutated = true
	}
	if rng.Float64() < opts.MutateAddLinkProb && addLink(rng, genome, idGen) {
		mutated = true
	}
	if rng.Float64() < opts.MutateToggleEnableProb {
		toggleEnable(rng, genome)
		mutated = true
	}

	return mutated, nil
}

// CloneGenome creates a deep copy of a genome with a new ID.
func CloneGenome(genome *genetics.Genome, newID int) (*genetics.Genome, error) {
	if genome == nil {
		return nil, fmt.Errorf("cannot clone nil genome")
	}

	nodeMap := make(map[int]*network.NNode, len(genome.Nodes))
	newNodes := make([]*network.NNode, 0, len(genome.Nodes))
	for _, node := range genome.Nodes {
		newNode := copyNode(node)
		nodeMap[node.Id] = newNode
		newNodes = append(newNodes, newNode)
	}

	newGenes := make([]*genetics.Gene, 0, len(genome.Genes))
	for _, gene := range genome.Genes {
		inNode := nodeMap[gene.Link.InNode.Id]
		outNode := nodeMap[gene.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}
		newGene := genetics.NewGeneWithTrait(
			nil,
			gene.Link.ConnectionWeight,
			inNode,
			outNode,
			gene.Link.IsRecurrent,
			gene.InnovationNum,
			gene.MutationNum,
		)
		newGene.IsEnabled = gene.IsEnabled
		newGenes = append(newGenes, newGene)
	}

	return genetics.NewGenome(newID, nil, newNodes, newGenes), nil
}

package neural

import (
	"math/rand"
	"testing"
)

func TestGenomeIDGenerator(t *testing.T) {
	gen := NewGenomeIDGenerator()

	id1 := gen.NextID()
	id2 := gen.NextID()
	id3 := gen.NextID()
	if id1 >= id2 || id2 >= id3 {
		t.Errorf("IDs should be strictly increasing: %d, %d, %d", id1, id2, id3)
	}

	innov1 := gen.NextInnovation()
	innov2 := gen.NextInnovation()
	if innov1 >= innov2 {
		t.Errorf("innovations should be strictly increasing: %d, %d", innov1, innov2)
	}
}

func TestGenomeIDGeneratorObserve(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	genome := CreateBrainGenome(rng, 50, 1.0)
	genome.Genes[0].InnovationNum = 5000

	gen := NewGenomeIDGenerator()
	gen.Observe(genome)

	if id := gen.NextID(); id != 51 {
		t.Errorf("NextID() = %d, want 51", id)
	}
	if innov := gen.NextInnovation(); innov != 5001 {
		t.Errorf("NextInnovation() = %d, want 5001", innov)
	}
}

func TestCrossoverGenomes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	parent1 := CreateBrainGenome(rng, 1, 0.5)
	parent2 := CreateBrainGenome(rng, 2, 0.5)

	child, err := CrossoverGenomes(rng, parent1, parent2, 1.0, 1.0, 3)
	if err != nil {
		t.Fatalf("CrossoverGenomes failed: %v", err)
	}
	if child.Id != 3 {
		t.Errorf("expected child ID 3, got %d", child.Id)
	}
	if len(child.Nodes) != NumInputs+NumOutputs {
		t.Errorf("expected %d nodes, got %d", NumInputs+NumOutputs, len(child.Nodes))
	}
	if _, err := child.Genesis(child.Id); err != nil {
		t.Errorf("child cannot build network: %v", err)
	}
}

func TestCrossoverKeepsFitterParentGenes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	fit := CreateBrainGenome(rng, 1, 1.0)
	weak := CreateBrainGenome(rng, 2, 0)
	idGen := NewGenomeIDGenerator()
	addNode(rng, fit, idGen)

	child, err := CrossoverGenomes(rng, weak, fit, 1.0, 5.0, 3)
	if err != nil {
		t.Fatalf("CrossoverGenomes failed: %v", err)
	}

	innovations := make(map[int64]bool)
	for _, g := range child.Genes {
		innovations[g.InnovationNum] = true
	}
	for _, g := range fit.Genes {
		if !innovations[g.InnovationNum] {
			t.Errorf("child is missing fitter parent's gene %d", g.InnovationNum)
		}
	}
}

func TestCrossoverNilParent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := CrossoverGenomes(rng, nil, CreateBrainGenome(rng, 1, 1), 1, 1, 2); err == nil {
		t.Error("expected error for nil parent")
	}
}

func TestMutateBrainGenome(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	genome := CreateBrainGenome(rng, 1, 1.0)
	opts := DefaultNEATOptions()
	opts.MutateLinkWeightsProb = 1.0
	idGen := NewGenomeIDGenerator()

	before := genome.Genes[0].Link.ConnectionWeight
	mutated, err := MutateBrainGenome(rng, genome, opts, idGen)
	if err != nil {
		t.Fatalf("MutateBrainGenome failed: %v", err)
	}
	if !mutated {
		t.Error("expected mutation to occur")
	}
	if genome.Genes[0].Link.ConnectionWeight == before {
		t.Error("weights were not mutated")
	}
	for _, g := range genome.Genes {
		w := g.Link.ConnectionWeight
		if w > maxConnectionWeight || w < -maxConnectionWeight {
			t.Errorf("weight %f outside clamp", w)
		}
	}
}

func TestMutateBrainGenomeStructural(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	genome := CreateBrainGenome(rng, 1, 1.0)
	opts := DefaultNEATOptions()
	opts.MutateLinkWeightsProb = 0
	opts.MutateAddNodeProb = 1.0
	opts.MutateAddLinkProb = 0
	opts.MutateToggleEnableProb = 0
	idGen := NewGenomeIDGenerator()

	if _, err := MutateBrainGenome(rng, genome, opts, idGen); err != nil {
		t.Fatalf("MutateBrainGenome failed: %v", err)
	}
	if len(genome.Nodes) != NumInputs+NumOutputs+1 {
		t.Errorf("expected one new node, have %d nodes", len(genome.Nodes))
	}
	if len(genome.Genes) != NumInputs*NumOutputs+2 {
		t.Errorf("expected two new genes, have %d", len(genome.Genes))
	}
	if _, err := genome.Genesis(genome.Id); err != nil {
		t.Errorf("mutated genome cannot build network: %v", err)
	}
}

func TestMutateBrainGenomeNil(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := MutateBrainGenome(rng, nil, DefaultNEATOptions(), NewGenomeIDGenerator()); err == nil {
		t.Error("expected error for nil genome")
	}
}

func TestToggleEnableKeepsOutputReachable(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	genome := CreateBrainGenome(rng, 1, 0) // single gene

	for i := 0; i < 10; i++ {
		toggleEnable(rng, genome)
		if !genome.Genes[0].IsEnabled {
			t.Fatal("the only link into the output was disabled")
		}
	}
}

func TestCloneGenome(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	original := CreateBrainGenome(rng, 1, 0.5)

	clone, err := CloneGenome(original, 2)
	if err != nil {
		t.Fatalf("CloneGenome failed: %v", err)
	}
	if clone.Id != 2 {
		t.Errorf("expected clone ID 2, got %d", clone.Id)
	}
	if len(clone.Nodes) != len(original.Nodes) {
		t.Errorf("node count mismatch: original %d, clone %d", len(original.Nodes), len(clone.Nodes))
	}
	if len(clone.Genes) != len(original.Genes) {
		t.Errorf("gene count mismatch: original %d, clone %d", len(original.Genes), len(clone.Genes))
	}

	clone.Genes[0].Link.ConnectionWeight = 99
	if original.Genes[0].Link.ConnectionWeight == 99 {
		t.Error("clone shares genes with original")
	}
}

func BenchmarkCrossoverGenomes(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	parent1 := CreateBrainGenome(rng, 1, 0.5)
	parent2 := CreateBrainGenome(rng, 2, 0.5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = CrossoverGenomes(rng, parent1, parent2, 1.0, 1.0, i+3)
	}
}

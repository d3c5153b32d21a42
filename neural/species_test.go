package neural

import (
	"math/rand"
	"testing"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

func TestNewSpeciesManager(t *testing.T) {
	sm := NewSpeciesManager(DefaultNEATOptions())

	if len(sm.Species) != 0 {
		t.Errorf("expected 0 species, got %d", len(sm.Species))
	}
	if len(sm.speciesColors) < 32 {
		t.Errorf("expected at least 32 pre-generated colors, got %d", len(sm.speciesColors))
	}
}

func TestSpeciateIdenticalGenomes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sm := NewSpeciesManager(DefaultNEATOptions())

	base := CreateBrainGenome(rng, 1, 1.0)
	genomes := make([]*genetics.Genome, 4)
	for i := range genomes {
		genomes[i], _ = CloneGenome(base, i+1)
	}

	assigned := sm.Speciate(genomes, []float64{1, 2, 3, 4})
	for i, id := range assigned {
		if id != assigned[0] || id == 0 {
			t.Errorf("genome %d assigned to species %d, want %d", i, id, assigned[0])
		}
	}
	if len(sm.Species) != 1 {
		t.Fatalf("expected 1 species, got %d", len(sm.Species))
	}

	sp := sm.Species[0]
	if sp.BestFitness != 4 || sp.AvgFitness != 2.5 {
		t.Errorf("best=%f avg=%f, want 4 and 2.5", sp.BestFitness, sp.AvgFitness)
	}
	if len(sp.Members) != 4 {
		t.Errorf("expected 4 members, got %d", len(sp.Members))
	}
}

func TestSpeciateSplitsDistantGenomes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sm := NewSpeciesManager(DefaultNEATOptions())

	a := CreateBrainGenome(rng, 1, 1.0)
	b, _ := CloneGenome(a, 2)
	for _, g := range b.Genes {
		g.Link.ConnectionWeight += 6
	}

	assigned := sm.Speciate([]*genetics.Genome{a, b}, []float64{1, 1})
	if assigned[0] == assigned[1] {
		t.Errorf("distant genomes share species %d", assigned[0])
	}
	if sm.GetSpeciesColor(assigned[0]) == sm.GetSpeciesColor(assigned[1]) {
		t.Error("distinct species should have distinct colors")
	}
}

func TestSpeciateDropsStaleSpecies(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	opts := DefaultNEATOptions()
	opts.DropOffAge = 2
	sm := NewSpeciesManager(opts)

	a := CreateBrainGenome(rng, 1, 1.0)
	b, _ := CloneGenome(a, 2)
	for _, g := range b.Genes {
		g.Link.ConnectionWeight += 6
	}
	genomes := []*genetics.Genome{a, b}

	// b's species never improves while a keeps improving
	var assigned []int
	for gen := 0; gen < 3; gen++ {
		assigned = sm.Speciate(genomes, []float64{float64(10 + gen), 1})
	}

	if assigned[1] != 0 {
		t.Errorf("stale species member assigned to %d, want 0", assigned[1])
	}
	if assigned[0] == 0 {
		t.Error("improving species was dropped")
	}
	if len(sm.Species) != 1 {
		t.Errorf("expected 1 species, got %d", len(sm.Species))
	}
}

func TestSpeciateKeepsBestEvenWhenStale(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	opts := DefaultNEATOptions()
	opts.DropOffAge = 1
	sm := NewSpeciesManager(opts)

	genomes := []*genetics.Genome{CreateBrainGenome(rng, 1, 1.0)}
	for gen := 0; gen < 3; gen++ {
		sm.Speciate(genomes, []float64{5})
	}

	if len(sm.Species) != 1 {
		t.Errorf("species holding the best genome was dropped")
	}
}

func TestSpeciesStats(t *testing.T) {
	sm := NewSpeciesManager(DefaultNEATOptions())

	stats := sm.GetStats()
	if stats.Count != 0 {
		t.Errorf("expected 0 species, got %d", stats.Count)
	}

	rng := rand.New(rand.NewSource(1))
	a := CreateBrainGenome(rng, 1, 1.0)
	b, _ := CloneGenome(a, 2)
	c, _ := CloneGenome(a, 3)
	for _, g := range c.Genes {
		g.Link.ConnectionWeight -= 6
	}
	sm.Speciate([]*genetics.Genome{a, b, c}, []float64{1, 2, 7})

	stats = sm.GetStats()
	if stats.Count != 2 || stats.LargestSize != 2 || stats.SmallestSize != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.BestFitness != 7 {
		t.Errorf("BestFitness = %f, want 7", stats.BestFitness)
	}

	top := sm.TopSpecies(1)
	if len(top) != 1 || len(top[0].Members) != 2 {
		t.Errorf("TopSpecies(1) should return the two-member species")
	}
}

func TestGenomeCompatibility(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	opts := DefaultNEATOptions()

	genome := CreateBrainGenome(rng, 1, 0.5)
	if dist := GenomeCompatibility(genome, genome, opts); dist != 0 {
		t.Errorf("same genome should have 0 distance, got %f", dist)
	}

	genome2 := CreateBrainGenome(rng, 2, 0.5)
	if dist := GenomeCompatibility(genome, genome2, opts); dist < 0 {
		t.Error("distance should not be negative")
	}

	if dist := GenomeCompatibility(genome, nil, opts); dist < opts.CompatThreshold {
		t.Error("nil genome should be incompatible")
	}
}

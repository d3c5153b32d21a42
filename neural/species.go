package neural

import (
	"math"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// SpeciesColor represents an RGB color for species visualization.
type SpeciesColor struct {
	R, G, B uint8
}

// Species is a group of genetically similar genomes within one generation.
type Species struct {
	ID             int
	Representative *genetics.Genome // Used for compatibility comparisons
	Members        []int            // Population indices of this generation's members
	BestFitness    float64          // Best fitness ever seen
	AvgFitness     float64          // Mean fitness of the last generation
	Age            int              // Generations since species was created
	Staleness      int              // Generations without improving BestFitness
	Color          SpeciesColor
}

// SpeciesManager re-speciates a population once per generation.
type SpeciesManager struct {
	Species       []*Species
	opts          *neat.Options
	nextSpeciesID int
	generation    int
	speciesColors []SpeciesColor
}

// NewSpeciesManager creates a new species manager.
func NewSpeciesManager(opts *neat.Options) *SpeciesManager {
	return &SpeciesManager{
		opts:          opts,
		nextSpeciesID: 1,
		speciesColors: generateDistinctColors(64),
	}
}

// generateDistinctColors creates visually distinct colors using golden angle.
func generateDistinctColors(count int) []SpeciesColor {
	colors := make([]SpeciesColor, count)
	goldenAngle := 137.508

	for i := 0; i < count; i++ {
		hue := math.Mod(float64(i)*goldenAngle, 360.0)
		r, g, b := hsvToRGB(hue, 0.7, 0.9)
		colors[i] = SpeciesColor{R: r, G: g, B: b}
	}
	return colors
}

// hsvToRGB converts HSV to RGB.
func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}

// Speciate assigns every genome to a species and folds in its fitness.
// It returns the species ID per population index. Species left empty or
// stale beyond DropOffAge are removed, except the one holding the best genome.
func (sm *SpeciesManager) Speciate(genomes []*genetics.Genome, fitness []float64) []int {
	sm.generation++
	for _, sp := range sm.Species {
		sp.Members = sp.Members[:0]
	}

	assigned := make([]int, len(genomes))
	for i, genome := range genomes {
		sp := sm.find(genome)
		if sp == nil {
			sp = &Species{
				ID:             sm.nextSpeciesID,
				Representative: genome,
				BestFitness:    math.Inf(-1),
				Color:          sm.speciesColors[sm.nextSpeciesID%len(sm.speciesColors)],
			}
			sm.nextSpeciesID++
			sm.Species = append(sm.Species, sp)
		}
		sp.Members = append(sp.Members, i)
		assigned[i] = sp.ID
	}

	best, bestFit := -1, math.Inf(-1)
	for i, f := range fitness {
		if f > bestFit {
			best, bestFit = i, f
		}
	}

	active := sm.Species[:0]
	for _, sp := range sm.Species {
		if len(sp.Members) == 0 {
			continue
		}
		sp.Age++

		total, top := 0.0, math.Inf(-1)
		for _, idx := range sp.Members {
			total += fitness[idx]
			top = math.Max(top, fitness[idx])
		}
		sp.AvgFitness = total / float64(len(sp.Members))
		if top > sp.BestFitness {
			sp.BestFitness = top
			sp.Staleness = 0
		} else {
			sp.Staleness++
		}

		// Next generation compares against a current member
		sp.Representative = genomes[sp.Members[0]]

		holdsBest := best >= 0 && assigned[best] == sp.ID
		if sp.Staleness >= sm.opts.DropOffAge && !holdsBest {
			for _, idx := range sp.Members {
				assigned[idx] = 0
			}
			continue
		}
		active = append(active, sp)
	}
	sm.Species = active

	return assigned
}

func (sm *SpeciesManager) find(genome *genetics.Genome) *Species {
	for _, sp := range sm.Species {
		if sp.Representative == nil {
			continue
		}
		if GenomeCompatibility(genome, sp.Representative, sm.opts) < sm.opts.CompatThreshold {
			return sp
		}
	}
	return nil
}

// Get returns the species with the given ID, or nil.
func (sm *SpeciesManager) Get(speciesID int) *Species {
	for _, sp := range sm.Species {
		if sp.ID == speciesID {
			return sp
		}
	}
	return nil
}

// GetSpeciesColor returns the color for a species ID.
// Returns a default gray if species not found.
func (sm *SpeciesManager) GetSpeciesColor(speciesID int) SpeciesColor {
	if sp := sm.Get(speciesID); sp != nil {
		return sp.Color
	}
	return SpeciesColor{R: 128, G: 128, B: 128}
}

// SpeciesStats contains summary statistics about all species.
type SpeciesStats struct {
	Count            int
	LargestSize      int
	SmallestSize     int
	AverageStaleness float64
	Generation       int
	BestFitness      float64
}

// GetStats returns summary statistics about species distribution.
func (sm *SpeciesManager) GetStats() SpeciesStats {
	if len(sm.Species) == 0 {
		return SpeciesStats{Generation: sm.generation}
	}

	stats := SpeciesStats{
		Count:        len(sm.Species),
		SmallestSize: math.MaxInt,
		Generation:   sm.generation,
		BestFitness:  math.Inf(-1),
	}

	totalStaleness := 0
	for _, sp := range sm.Species {
		size := len(sp.Members)
		stats.LargestSize = max(stats.LargestSize, size)
		stats.SmallestSize = min(stats.SmallestSize, size)
		stats.BestFitness = math.Max(stats.BestFitness, sp.BestFitness)
		totalStaleness += sp.Staleness
	}
	stats.AverageStaleness = float64(totalStaleness) / float64(stats.Count)

	return stats
}

// TopSpecies returns the n largest species.
func (sm *SpeciesManager) TopSpecies(n int) []*Species {
	sorted := make([]*Species, len(sm.Species))
	copy(sorted, sm.Species)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Members) > len(sorted[j].Members)
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// GenomeCompatibility calculates the compatibility distance between two genomes.
func GenomeCompatibility(g1, g2 *genetics.Genome, opts *neat.Options) float64 {
	if g1 == nil || g2 == nil {
		return math.MaxFloat64
	}

	genes1 := make(map[int64]*genetics.Gene, len(g1.Genes))
	maxInnov1 := int64(0)
	for _, gene := range g1.Genes {
		genes1[gene.InnovationNum] = gene
		maxInnov1 = max(maxInnov1, gene.InnovationNum)
	}
	genes2 := make(map[int64]*genetics.Gene, len(g2.Genes))
	maxInnov2 := int64(0)
	for _, gene := range g2.Genes {
		genes2[gene.InnovationNum] = gene
		maxInnov2 = max(maxInnov2, gene.InnovationNum)
	}

	matching, disjoint, excess := 0, 0, 0
	weightDiff := 0.0

	for innov, gene1 := range genes1 {
		if gene2, exists := genes2[innov]; exists {
			matching++
			weightDiff += math.Abs(gene1.Link.ConnectionWeight - gene2.Link.ConnectionWeight)
		} else if innov > maxInnov2 {
			excess++
		} else {
			disjoint++
		}
	}
	for innov := range genes2 {
		if _, exists := genes1[innov]; !exists {
			if innov > maxInnov1 {
				excess++
			} else {
				disjoint++
			}
		}
	}

	// Small genomes are not normalized
	n := float64(max(len(g1.Genes), len(g2.Genes)))
	if n < 20 {
		n = 1
	}

	avgWeightDiff := 0.0
	if matching > 0 {
		avgWeightDiff = weightDiff / float64(matching)
	}

	return (opts.ExcessCoeff*float64(excess)+opts.DisjointCoeff*float64(disjoint))/n +
		opts.MutdiffCoeff*avgWeightDiff
}

// Package evolve is a reference population search over game generations:
// fitness-sorted truncation selection with mutation, NEAT speciation for
// genome controllers and reseeding from the hall of fame.
package evolve

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/game"
	"github.com/pthm-cable/flap/neural"
	"github.com/pthm-cable/flap/telemetry"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// ErrInvalidEvolution is returned for unusable evolution settings.
var ErrInvalidEvolution = errors.New("invalid evolution settings")

type member struct {
	id      int
	ctrl    neural.Controller
	species int // 0 when not speciated
}

// Population owns the controllers of the current generation.
type Population struct {
	cfg     config.EvolutionConfig
	kind    string
	scale   float64
	connP   float64
	rng     *rand.Rand
	hall    *telemetry.HallOfFame
	members []member
	index   map[int]int // Member id to position in members

	idGen   *neural.GenomeIDGenerator
	species *neural.SpeciesManager
	mut     neural.Mutation
}

// New seeds a random population. hall may be nil; when present, a fraction of
// each generation's offspring is drawn from it.
func New(cfg *config.Config, rng *rand.Rand, hall *telemetry.HallOfFame) (*Population, error) {
	ev := cfg.Evolution
	switch {
	case ev.Population < 1:
		return nil, fmt.Errorf("%w: population must be positive, got %d", ErrInvalidEvolution, ev.Population)
	case ev.EliteFraction <= 0 || ev.EliteFraction > 1:
		return nil, fmt.Errorf("%w: elite fraction must be in (0, 1], got %v", ErrInvalidEvolution, ev.EliteFraction)
	case ev.HallOfFameReseed < 0 || ev.HallOfFameReseed > 1:
		return nil, fmt.Errorf("%w: hall of fame reseed must be in [0, 1], got %v", ErrInvalidEvolution, ev.HallOfFameReseed)
	}

	p := &Population{
		cfg:   ev,
		kind:  cfg.Neural.Kind,
		scale: cfg.Playfield.Height,
		connP: cfg.Neural.ConnectionProb,
		rng:   rng,
		hall:  hall,
		idGen: neural.NewGenomeIDGenerator(),
		mut: neural.Mutation{
			Rate:     ev.MutationRate,
			Sigma:    ev.MutationSigma,
			BigRate:  ev.MutationBigRate,
			BigSigma: ev.MutationBigSigma,
		},
	}
	if p.kind == neural.KindNEAT {
		p.species = neural.NewSpeciesManager(neural.DefaultNEATOptions())
	}

	for i := 0; i < ev.Population; i++ {
		id := p.idGen.NextID()
		ctrl, err := neural.NewRandom(p.kind, rng, id, p.scale, p.connP)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvolution, err)
		}
		p.members = append(p.members, member{id: id, ctrl: ctrl})
	}
	p.reindex()

	return p, nil
}

// Entrants returns the current generation in a stable order.
func (p *Population) Entrants() []game.Entrant {
	out := make([]game.Entrant, len(p.members))
	for i, m := range p.members {
		out[i] = game.Entrant{ID: m.id, Controller: m.ctrl}
	}
	return out
}

// Controller returns the member controller with the given ID.
func (p *Population) Controller(id int) (neural.Controller, bool) {
	i, ok := p.index[id]
	if !ok {
		return nil, false
	}
	return p.members[i].ctrl, true
}

// Species returns the species of a member, or 0.
func (p *Population) Species(id int) int {
	if i, ok := p.index[id]; ok {
		return p.members[i].species
	}
	return 0
}

// SpeciesColor returns the display color for a member's species.
func (p *Population) SpeciesColor(id int) (neural.SpeciesColor, bool) {
	if p.species == nil {
		return neural.SpeciesColor{}, false
	}
	sp := p.Species(id)
	if sp == 0 {
		return neural.SpeciesColor{}, false
	}
	return p.species.GetSpeciesColor(sp), true
}

// SpeciesManager returns the NEAT species tracker, nil for feedforward runs.
func (p *Population) SpeciesManager() *neural.SpeciesManager { return p.species }

// Len returns the population size.
func (p *Population) Len() int { return len(p.members) }

// ranked pairs a member index with its fitness.
type ranked struct {
	idx     int
	fitness float64
}

// Advance replaces the population with the offspring of res.
// Elites survive unchanged and keep their IDs, so a controller's sighting count
// grows for as long as it stays in the elite.
func (p *Population) Advance(res *game.Result) error {
	if res == nil || len(res.Fitness) != len(p.members) {
		return fmt.Errorf("result does not match population of %d", len(p.members))
	}

	fitness := make([]float64, len(p.members))
	for i, f := range res.Fitness {
		if f.ID != p.members[i].id {
			return fmt.Errorf("result entry %d has id %d, expected %d", i, f.ID, p.members[i].id)
		}
		fitness[i] = f.Fitness
	}

	// Sharing fitness within species keeps small niches alive
	adjusted := fitness
	if p.species != nil {
		adjusted = p.speciate(fitness)
	}

	order := make([]ranked, 0, len(p.members))
	for i := range p.members {
		if p.species != nil && p.members[i].species == 0 {
			continue // dropped with a stale species
		}
		order = append(order, ranked{idx: i, fitness: adjusted[i]})
	}
	sort.SliceStable(order, func(a, b int) bool { return order[a].fitness > order[b].fitness })

	eliteCount := int(float64(len(p.members)) * p.cfg.EliteFraction)
	eliteCount = max(1, min(eliteCount, len(order)))
	elites := order[:eliteCount]

	next := make([]member, 0, len(p.members))
	for _, e := range elites {
		next = append(next, p.members[e.idx])
	}

	reseed := int(float64(len(p.members)-eliteCount) * p.cfg.HallOfFameReseed)
	for len(next) < len(p.members) {
		id := p.idGen.NextID()
		var (
			child neural.Controller
			err   error
		)
		if reseed > 0 && p.hall != nil && p.hall.Len() > 0 {
			reseed--
			child, err = p.fromHall(id)
		} else {
			child, err = p.breed(id, elites, fitness)
		}
		if err != nil {
			return err
		}
		next = append(next, member{id: id, ctrl: child})
	}

	p.members = next
	p.reindex()

	best := fitness[0]
	for _, f := range fitness[1:] {
		best = max(best, f)
	}
	slog.Info("population advanced",
		"generation", res.Generation,
		"best", humanize.FormatFloat("#,###.##", best),
		"elites", eliteCount,
		"species", p.speciesCount(),
		"ticks", humanize.Comma(int64(res.Ticks)),
	)
	return nil
}

// speciate assigns species and returns fitness shared by species size.
func (p *Population) speciate(fitness []float64) []float64 {
	genomes := make([]*genetics.Genome, len(p.members))
	for i, m := range p.members {
		if b, ok := m.ctrl.(*neural.BrainController); ok {
			genomes[i] = b.Genome
		}
	}

	assigned := p.species.Speciate(genomes, fitness)
	adjusted := make([]float64, len(fitness))
	for i, sp := range assigned {
		p.members[i].species = sp
		if s := p.species.Get(sp); s != nil {
			adjusted[i] = fitness[i] / float64(len(s.Members))
		}
	}
	return adjusted
}

func (p *Population) speciesCount() int {
	if p.species == nil {
		return 0
	}
	return len(p.species.Species)
}

// breed picks a parent uniformly from the elites and mutates a copy. Genome
// parents may first cross over with an elite of the same species.
func (p *Population) breed(id int, elites []ranked, fitness []float64) (neural.Controller, error) {
	firstIdx := elites[p.rng.Intn(len(elites))].idx
	first := p.members[firstIdx]

	parent := first.ctrl
	if brain, ok := first.ctrl.(*neural.BrainController); ok && p.rng.Float64() < p.cfg.CrossoverProb {
		if mateIdx, ok := p.mate(firstIdx, elites); ok {
			mateBrain := p.members[mateIdx].ctrl.(*neural.BrainController)
			genome, err := neural.CrossoverGenomes(p.rng, brain.Genome, mateBrain.Genome,
				fitness[firstIdx], fitness[mateIdx], id)
			if err != nil {
				return nil, err
			}
			crossed, err := neural.NewBrainController(genome, brain.Scale)
			if err != nil {
				return nil, err
			}
			parent = crossed
		}
	}

	return neural.Offspring(p.rng, parent, id, p.mut, p.idGen)
}

// mate picks the index of another elite from the same species.
func (p *Population) mate(firstIdx int, elites []ranked) (int, bool) {
	first := p.members[firstIdx]
	var candidates []int
	for _, e := range elites {
		m := p.members[e.idx]
		if e.idx != firstIdx && m.species == first.species {
			if _, ok := m.ctrl.(*neural.BrainController); ok {
				candidates = append(candidates, e.idx)
			}
		}
	}
	if len(candidates) == 0 {
		return -1, false
	}
	return candidates[p.rng.Intn(len(candidates))], true
}

// reindex rebuilds the id lookup after the member list changes.
func (p *Population) reindex() {
	p.index = make(map[int]int, len(p.members))
	for i, m := range p.members {
		p.index[m.id] = i
	}
}

// fromHall decodes a hall of fame entry and mutates it.
func (p *Population) fromHall(id int) (neural.Controller, error) {
	entry := p.hall.Sample(p.rng)
	ctrl, err := neural.Decode(entry.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("decoding hall of fame entry %d: %w", entry.ControllerID, err)
	}
	if ctrl.Kind() != p.kind {
		// Hall from a run with the other controller kind
		return neural.NewRandom(p.kind, p.rng, id, p.scale, p.connP)
	}
	if b, ok := ctrl.(*neural.BrainController); ok {
		p.idGen.ObserveInnovations(b.Genome)
	}
	return neural.Offspring(p.rng, ctrl, id, p.mut, p.idGen)
}

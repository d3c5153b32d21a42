package telemetry

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"
)

// HallEntry is one archived controller with the result that earned its place.
// Snapshot holds the controller's own JSON encoding.
type HallEntry struct {
	ControllerID int             `json:"controller_id"`
	Generation   int             `json:"generation"`
	Fitness      float64         `json:"fitness"`
	Score        int             `json:"score"`
	Kind         string          `json:"kind"`
	Snapshot     json.RawMessage `json:"snapshot"`
}

// HallOfFame keeps the best controllers seen over a run, sorted by fitness.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a new hall of fame with the given capacity.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider offers an entry to the hall.
// Returns true if the entry was added.
func (hof *HallOfFame) Consider(entry HallEntry) bool {
	var added bool
	hof.entries, added = hof.insertEntry(hof.entries, entry)
	return added
}

// insertEntry adds an entry, maintaining sorted order by fitness (descending).
// If the hall is full, the lowest-fitness entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) ([]HallEntry, bool) {
	// Find insertion point (sorted descending by fitness)
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	// If hall is full and entry would be last (lowest), skip it
	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall, false
	}

	// Insert at position
	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	// Trim if over capacity
	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}

	return hall, true
}

// Sample selects an entry using tournament selection.
// Returns nil if the hall is empty.
func (hof *HallOfFame) Sample(rng *rand.Rand) *HallEntry {
	if len(hof.entries) == 0 {
		return nil
	}

	// Tournament selection with k=3
	const tournamentSize = 3
	var best *HallEntry

	for i := 0; i < tournamentSize && i < len(hof.entries); i++ {
		candidate := &hof.entries[rng.Intn(len(hof.entries))]
		if best == nil || candidate.Fitness > best.Fitness {
			best = candidate
		}
	}

	entryCopy := *best
	return &entryCopy
}

// Top returns the best entry, or nil if the hall is empty.
func (hof *HallOfFame) Top() *HallEntry {
	if len(hof.entries) == 0 {
		return nil
	}
	top := hof.entries[0]
	return &top
}

// TopFitness returns the highest fitness in the hall, or 0 if empty.
func (hof *HallOfFame) TopFitness() float64 {
	if len(hof.entries) == 0 {
		return 0
	}
	return hof.entries[0].Fitness
}

// Len returns the number of entries.
func (hof *HallOfFame) Len() int {
	return len(hof.entries)
}

// Entries returns a copy of the entries, best first.
func (hof *HallOfFame) Entries() []HallEntry {
	out := make([]HallEntry, len(hof.entries))
	copy(out, hof.entries)
	return out
}

// MarshalJSON serializes the hall of fame to JSON.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.entries, "", "  ")
}

// LoadHallOfFameFromFile reads a hall of fame JSON file.
func LoadHallOfFameFromFile(path string, maxSize int) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var raw []HallEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	if len(raw) > maxSize {
		maxSize = len(raw)
	}
	hof := NewHallOfFame(maxSize)
	for _, e := range raw {
		hof.Consider(e)
	}

	return hof, nil
}

package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the episode state at the end of a generation.
type Snapshot struct {
	Version  int    `json:"version"`
	RunID    string `json:"run_id"`
	RNGSeed  int64  `json:"rng_seed"`
	PipeSeed int64  `json:"pipe_seed"`

	Generation int `json:"generation"`
	Tick       int `json:"tick"`
	Score      int `json:"score"`

	Pipes  []PipeState  `json:"pipes"`
	Agents []AgentState `json:"agents"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// PipeState holds one pipe.
type PipeState struct {
	X      float64 `json:"x"`
	GapTop float64 `json:"gap_top"`
	Passed bool    `json:"passed"`
}

// AgentState holds one agent's body and record.
type AgentState struct {
	ID        int     `json:"id"`
	Y         float64 `json:"y"`
	VelY      float64 `json:"vel_y"`
	TickCount int     `json:"tick_count"`
	Alive     bool    `json:"alive"`
	Fitness   float64 `json:"fitness"`

	// Controller weights, when the controller can encode itself
	Controller json.RawMessage `json:"controller,omitempty"`

	// Lifetime stats
	Lifetime *LifetimeStatsJSON `json:"lifetime,omitempty"`
}

// LifetimeStatsJSON is the JSON-serializable form of LifetimeStats.
type LifetimeStatsJSON struct {
	Generation int     `json:"generation"`
	Jumps      int     `json:"jumps"`
	Faults     int     `json:"faults"`
	Cause      string  `json:"cause,omitempty"`
	DiedAt     int     `json:"died_at"`
	Fitness    float64 `json:"fitness"`
}

// ToJSON converts LifetimeStats to its JSON form.
func (ls *LifetimeStats) ToJSON() *LifetimeStatsJSON {
	if ls == nil {
		return nil
	}
	return &LifetimeStatsJSON{
		Generation: ls.Generation,
		Jumps:      ls.Jumps,
		Faults:     ls.Faults,
		Cause:      ls.Cause,
		DiedAt:     ls.DiedAt,
		Fitness:    ls.Fitness,
	}
}

// FromJSON converts the JSON form back to LifetimeStats.
func (lsj *LifetimeStatsJSON) FromJSON(agentID int) *LifetimeStats {
	if lsj == nil {
		return nil
	}
	return &LifetimeStats{
		AgentID:    agentID,
		Generation: lsj.Generation,
		Jumps:      lsj.Jumps,
		Faults:     lsj.Faults,
		Cause:      lsj.Cause,
		DiedAt:     lsj.DiedAt,
		Fitness:    lsj.Fitness,
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_gen%d", snapshot.Generation)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_gen%d_%s", snapshot.Generation, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

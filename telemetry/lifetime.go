package telemetry

// LifetimeStats tracks one agent over a single generation.
type LifetimeStats struct {
	AgentID    int
	Generation int
	Jumps      int
	Faults     int
	Cause      string // Empty while alive
	DiedAt     int    // Tick of elimination, -1 while alive
	Fitness    float64
}

// LifetimeTracker manages per-agent lifetime statistics.
type LifetimeTracker struct {
	stats map[int]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[int]*LifetimeStats),
	}
}

// Register creates lifetime stats for an agent entering a generation.
func (lt *LifetimeTracker) Register(agentID, generation int) {
	lt.stats[agentID] = &LifetimeStats{
		AgentID:    agentID,
		Generation: generation,
		DiedAt:     -1,
	}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(agentID int) *LifetimeStats {
	return lt.stats[agentID]
}

// Remove removes an agent's stats and returns them.
func (lt *LifetimeTracker) Remove(agentID int) *LifetimeStats {
	stats := lt.stats[agentID]
	delete(lt.stats, agentID)
	return stats
}

// Record applies an agent event. World events are ignored.
func (lt *LifetimeTracker) Record(ev Event) {
	s := lt.stats[ev.AgentID]
	if s == nil {
		return
	}
	switch ev.Type {
	case EventJump:
		s.Jumps++
	case EventFault:
		s.Faults++
	case EventCollision, EventOutOfBounds:
		if s.DiedAt < 0 {
			s.DiedAt = ev.Tick
			s.Cause = ev.Type.String()
		}
	}
}

// UpdateFitness stores the agent's latest fitness.
func (lt *LifetimeTracker) UpdateFitness(agentID int, fitness float64) {
	if s := lt.stats[agentID]; s != nil {
		s.Fitness = fitness
	}
}

// All returns all tracked stats (for snapshots).
func (lt *LifetimeTracker) All() map[int]*LifetimeStats {
	return lt.stats
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// AliveCount returns the number of tracked agents not yet eliminated.
func (lt *LifetimeTracker) AliveCount() int {
	n := 0
	for _, s := range lt.stats {
		if s.DiedAt < 0 {
			n++
		}
	}
	return n
}

// Reset drops every tracked agent.
func (lt *LifetimeTracker) Reset() {
	lt.stats = make(map[int]*LifetimeStats)
}

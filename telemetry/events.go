// Package telemetry provides generation statistics, bookmarking, perf timing and snapshots.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventJump EventType = iota
	EventFault
	EventCollision
	EventOutOfBounds
	EventPipePassed
)

func (t EventType) String() string {
	switch t {
	case EventJump:
		return "jump"
	case EventFault:
		return "fault"
	case EventCollision:
		return "collision"
	case EventOutOfBounds:
		return "out_of_bounds"
	case EventPipePassed:
		return "pipe_passed"
	default:
		return "unknown"
	}
}

// Event represents a single telemetry event.
type Event struct {
	Type    EventType
	Tick    int
	AgentID int // Controller id; -1 for world events
}

// NewJumpEvent creates a jump event.
func NewJumpEvent(tick, agentID int) Event {
	return Event{Type: EventJump, Tick: tick, AgentID: agentID}
}

// NewFaultEvent creates a controller fault event.
func NewFaultEvent(tick, agentID int) Event {
	return Event{Type: EventFault, Tick: tick, AgentID: agentID}
}

// NewCollisionEvent creates a pipe collision event.
func NewCollisionEvent(tick, agentID int) Event {
	return Event{Type: EventCollision, Tick: tick, AgentID: agentID}
}

// NewOutOfBoundsEvent creates an out-of-bounds elimination event.
func NewOutOfBoundsEvent(tick, agentID int) Event {
	return Event{Type: EventOutOfBounds, Tick: tick, AgentID: agentID}
}

// NewPipePassedEvent creates a pipe passed event. It belongs to no agent.
func NewPipePassedEvent(tick int) Event {
	return Event{Type: EventPipePassed, Tick: tick, AgentID: -1}
}

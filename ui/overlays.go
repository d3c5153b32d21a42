package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayGuideLines     OverlayID = "guide_lines"
	OverlayHistoryTint    OverlayID = "history_tint"
	OverlaySpeciesColors  OverlayID = "species_colors"
	OverlayCollisionBoxes OverlayID = "collision_boxes"
	OverlayPerf           OverlayID = "perf"
	OverlaySpeciesPanel   OverlayID = "species_panel"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID        OverlayID   // Unique identifier
	Name      string      // Display name
	Key       int32       // Keyboard key to toggle (0 = no key)
	KeyLabel  string      // Key label for display (e.g., "S", "V")
	Category  string      // Grouping (e.g., "visual", "debug")
	Exclusive []OverlayID // Other overlays to disable when this is enabled
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:        OverlayHistoryTint,
		Name:      "History Tint",
		Key:       rl.KeyT,
		KeyLabel:  "T",
		Category:  "visual",
		Exclusive: []OverlayID{OverlaySpeciesColors},
	})
	r.Register(OverlayDescriptor{
		ID:        OverlaySpeciesColors,
		Name:      "Species Colors",
		Key:       rl.KeyS,
		KeyLabel:  "S",
		Category:  "visual",
		Exclusive: []OverlayID{OverlayHistoryTint},
	})
	r.Register(OverlayDescriptor{
		ID:       OverlayGuideLines,
		Name:     "Guide Lines",
		Key:      rl.KeyL,
		KeyLabel: "L",
		Category: "visual",
	})
	r.Register(OverlayDescriptor{
		ID:       OverlayCollisionBoxes,
		Name:     "Collision Boxes",
		Key:      rl.KeyB,
		KeyLabel: "B",
		Category: "debug",
	})
	r.Register(OverlayDescriptor{
		ID:       OverlayPerf,
		Name:     "Performance",
		Key:      rl.KeyF3,
		KeyLabel: "F3",
		Category: "debug",
	})
	r.Register(OverlayDescriptor{
		ID:       OverlaySpeciesPanel,
		Name:     "Species Panel",
		Key:      rl.KeyN,
		KeyLabel: "N",
		Category: "debug",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	newState := !r.enabled[id]
	r.SetEnabled(id, newState)
	return newState
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}

	r.enabled[id] = enabled
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}

// Keys returns every bound toggle key.
func (r *OverlayRegistry) Keys() []int32 {
	keys := make([]int32, 0, len(r.descriptors))
	for _, desc := range r.descriptors {
		if desc.Key != 0 {
			keys = append(keys, desc.Key)
		}
	}
	return keys
}

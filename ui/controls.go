package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxSpeed is the highest ticks-per-frame the speed slider offers.
const MaxSpeed = 64

// ControlsState is what the controls panel edits.
type ControlsState struct {
	Speed  int
	Paused bool
}

// ControlsPanel renders the left-side panel: speed, pause and overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the panel and applies widget changes to state and overlays.
func (c *ControlsPanel) Draw(state *ControlsState, overlays *OverlayRegistry) {
	if !c.visible {
		return
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight + 6

	items := 0
	for _, cat := range overlays.Categories() {
		items += len(overlays.ByCategory(cat)) + 1
	}
	panelHeight := int32(items)*lineHeight + padding*2 + 110
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	x := float32(c.x + padding)
	y := float32(c.y + padding)
	inner := float32(c.width - padding*2)

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += 24

	// Speed slider on a log scale so 1x..64x is usable
	rl.DrawText(fmt.Sprintf("Speed: %dx", state.Speed), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += 16
	logSpeed := float32(math.Log2(float64(state.Speed)))
	newLog := gui.SliderBar(rl.Rectangle{X: x + 20, Y: y, Width: inner - 60, Height: 16},
		"1x", fmt.Sprintf("%dx", MaxSpeed), logSpeed, 0, float32(math.Log2(MaxSpeed)))
	if newLog != logSpeed {
		state.Speed = SpeedFromSlider(newLog)
	}
	y += 26

	label := "Pause"
	if state.Paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: inner, Height: 24}, label) {
		state.Paused = !state.Paused
	}
	y += 34

	for _, cat := range overlays.Categories() {
		rl.DrawText(categoryLabel(cat), int32(x), int32(y), r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += float32(lineHeight)
		for _, desc := range overlays.ByCategory(cat) {
			enabled := overlays.IsEnabled(desc.ID)
			text := fmt.Sprintf("%s [%s]", desc.Name, desc.KeyLabel)
			checked := gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 14, Height: 14}, text, enabled)
			if checked != enabled {
				overlays.SetEnabled(desc.ID, checked)
			}
			y += float32(lineHeight)
		}
	}
}

// SpeedFromSlider converts a log2 slider position to a whole speed.
func SpeedFromSlider(v float32) int {
	speed := int(math.Round(math.Exp2(float64(v))))
	return max(1, min(speed, MaxSpeed))
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "visual":
		return "Visual"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}

package ui

import (
	"fmt"
	"sort"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flap/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Score      int
	Generation int
	Alive      int
	Tick       int
	Speed      int
	FPS        int32
	Paused     bool
	Mode       string
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the score in the top-right corner and run info below it.
func (h *HUD) Draw(data HUDData, screenWidth int32) {
	score := fmt.Sprintf("Score: %d", data.Score)
	rl.DrawText(score, screenWidth-rl.MeasureText(score, 30)-10, 10, 30, rl.White)

	info := fmt.Sprintf("Gen: %d  Alive: %d", data.Generation, data.Alive)
	rl.DrawText(info, screenWidth-rl.MeasureText(info, 20)-10, 45, 20, rl.White)

	status := fmt.Sprintf("%s | Tick: %d | Speed: %dx | FPS: %d", data.Mode, data.Tick, data.Speed, data.FPS)
	if data.Paused {
		status += " | PAUSED"
	}
	rl.DrawText(status, screenWidth-rl.MeasureText(status, 14)-10, 70, 14, rl.LightGray)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase tick timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel, slowest phases first.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	names := make([]string, 0, len(stats.PhaseAvg))
	for name := range stats.PhaseAvg {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return stats.PhaseAvg[names[i]] > stats.PhaseAvg[names[j]]
	})

	height := int32(len(names))*14 + 60
	p.renderer.DrawPanel(p.x, p.y, 260, height)

	x, y := p.x+p.renderer.Theme.Padding, p.y+p.renderer.Theme.Padding
	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20
	rl.DrawText(fmt.Sprintf("Avg: %s  (%.0f ticks/s)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond),
		x, y, 12, rl.Yellow)
	y += 16

	for _, name := range names {
		pct := stats.PhasePct[name]
		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(fmt.Sprintf("%-10s %8s %5.1f%%", name, stats.PhaseAvg[name].Round(time.Microsecond), pct),
			x, y, 12, color)
		y += 14
	}
}

// SpeciesInfo holds info about a single species.
type SpeciesInfo struct {
	ID      int
	Size    int
	Age     int
	BestFit float64
	Color   rl.Color
}

// SpeciesPanelData holds data for the species panel.
type SpeciesPanelData struct {
	Count       int
	BestFitness float64
	Top         []SpeciesInfo
}

// SpeciesPanel renders NEAT speciation statistics.
type SpeciesPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewSpeciesPanel creates a new species panel.
func NewSpeciesPanel(x, y, width int32) *SpeciesPanel {
	return &SpeciesPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// Draw renders the species panel.
func (s *SpeciesPanel) Draw(data SpeciesPanelData) {
	r := s.renderer
	height := int32(len(data.Top))*r.Theme.LineHeight + 70
	r.DrawPanel(s.x, s.y, s.width, height)

	x, y := s.x+r.Theme.Padding, s.y+r.Theme.Padding
	y = r.DrawSectionHeader(x, y, "Species")
	y = r.DrawLabelValue(x, y, "Count", fmt.Sprint(data.Count))
	y = r.DrawLabelValue(x, y, "Best", fmt.Sprintf("%.1f", data.BestFitness))

	for _, sp := range data.Top {
		y = r.DrawColorSwatch(x, y, sp.Color,
			fmt.Sprintf("#%d: %d members (age %d, fit %.0f)", sp.ID, sp.Size, sp.Age, sp.BestFit))
	}
}

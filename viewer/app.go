// Package viewer is the raylib window around a game.Driver.
package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flap/camera"
	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/evolve"
	"github.com/pthm-cable/flap/game"
	"github.com/pthm-cable/flap/renderer"
	"github.com/pthm-cable/flap/ui"
)

const controlsLegend = "[Space] Pause  [<>] Speed  [Tab] Controls  [L] Lines  [T] Tint  [S] Species  [B] Boxes  [F3] Perf  [N] Species panel  [Arrows/Wheel] Camera  [Home] Reset"

// App renders a driver's sessions and forwards keyboard input to it.
type App struct {
	driver *game.Driver
	pop    *evolve.Population // nil when no population is evolving

	camera   *camera.Camera
	scene    *renderer.SceneRenderer
	hud      *ui.HUD
	perf     *ui.PerfPanel
	species  *ui.SpeciesPanel
	controls *ui.ControlsPanel
	overlays *ui.OverlayRegistry
	state    ui.ControlsState

	screenWidth  float32
	screenHeight float32
	err          error
}

// New creates the viewer. The raylib window must already be open. pop may be
// nil; it supplies species colors while training.
func New(cfg *config.Config, driver *game.Driver, pop *evolve.Population) *App {
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())

	overlays := ui.NewOverlayRegistry()
	overlays.SetEnabled(ui.OverlayGuideLines, cfg.UI.DrawLines)
	overlays.SetEnabled(ui.OverlayHistoryTint, cfg.UI.TintByHistory)

	return &App{
		driver:       driver,
		pop:          pop,
		camera:       camera.New(w, h, float32(cfg.Playfield.Width), float32(cfg.Playfield.Height)),
		scene:        renderer.NewSceneRenderer(),
		hud:          ui.NewHUD(),
		perf:         ui.NewPerfPanel(10, 10),
		species:      ui.NewSpeciesPanel(int32(w)-230, 100, 220),
		controls:     ui.NewControlsPanel(10, 10, 220),
		overlays:     overlays,
		state:        ui.ControlsState{Speed: 1},
		screenWidth:  w,
		screenHeight: h,
	}
}

// SetPopulation swaps the population used for species colors, nil to clear.
func (a *App) SetPopulation(pop *evolve.Population) { a.pop = pop }

// Done reports whether the driver has nothing left to play or failed.
func (a *App) Done() bool { return a.driver.Done() || a.err != nil }

// Err returns the error that stopped the driver.
func (a *App) Err() error { return a.err }

// Update handles input and advances the simulation by the current speed.
func (a *App) Update() {
	a.handleInput()
	if a.state.Paused || a.Done() {
		return
	}
	if err := a.driver.Advance(a.state.Speed); err != nil {
		a.err = err
	}
}

// Draw renders one frame.
func (a *App) Draw() {
	g := a.driver.Game()
	snap := g.Snapshot()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 24, G: 24, B: 32, A: 255})

	a.scene.Draw(snap, a.camera, renderer.SceneOptions{
		TintByHistory:  a.overlays.IsEnabled(ui.OverlayHistoryTint),
		GuideLines:     a.overlays.IsEnabled(ui.OverlayGuideLines),
		CollisionBoxes: a.overlays.IsEnabled(ui.OverlayCollisionBoxes),
		BirdColor:      a.birdColor(),
	})

	a.hud.Draw(ui.HUDData{
		Score:      snap.Score,
		Generation: snap.Generation,
		Alive:      snap.Alive,
		Tick:       snap.Tick,
		Speed:      a.state.Speed,
		FPS:        rl.GetFPS(),
		Paused:     a.state.Paused,
		Mode:       g.Mode().String(),
	}, int32(a.screenWidth))
	a.hud.DrawControls(int32(a.screenHeight), controlsLegend)

	if a.overlays.IsEnabled(ui.OverlayPerf) {
		y := int32(10)
		if a.controls.IsVisible() {
			y = int32(a.screenHeight) / 2
		}
		a.perf.SetPosition(10, y)
		a.perf.Draw(g.PerfStats())
	}
	if a.overlays.IsEnabled(ui.OverlaySpeciesPanel) {
		if data, ok := a.speciesData(); ok {
			a.species.Draw(data)
		}
	}
	a.controls.Draw(&a.state, a.overlays)

	rl.EndDrawing()
	g.RecordFrame()
}

// Close releases the driver's game.
func (a *App) Close() error {
	return a.driver.Close()
}

func (a *App) birdColor() func(id int) (rl.Color, bool) {
	if a.pop == nil || !a.overlays.IsEnabled(ui.OverlaySpeciesColors) {
		return nil
	}
	return func(id int) (rl.Color, bool) {
		c, ok := a.pop.SpeciesColor(id)
		if !ok {
			return rl.Color{}, false
		}
		return rl.Color{R: c.R, G: c.G, B: c.B, A: 255}, true
	}
}

func (a *App) speciesData() (ui.SpeciesPanelData, bool) {
	if a.pop == nil || a.pop.SpeciesManager() == nil {
		return ui.SpeciesPanelData{}, false
	}
	sm := a.pop.SpeciesManager()
	stats := sm.GetStats()

	data := ui.SpeciesPanelData{Count: stats.Count, BestFitness: stats.BestFitness}
	for _, sp := range sm.TopSpecies(5) {
		data.Top = append(data.Top, ui.SpeciesInfo{
			ID:      sp.ID,
			Size:    len(sp.Members),
			Age:     sp.Age,
			BestFit: sp.BestFitness,
			Color:   rl.Color{R: sp.Color.R, G: sp.Color.G, B: sp.Color.B, A: 255},
		})
	}
	return data, true
}

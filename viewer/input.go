package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flap/ui"
)

// handleInput processes keyboard and mouse input.
func (a *App) handleInput() {
	a.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		a.state.Paused = !a.state.Paused
	}

	// Speed doubles and halves with < > (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && a.state.Speed > 1 {
		a.state.Speed /= 2
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && a.state.Speed < ui.MaxSpeed {
		a.state.Speed = min(a.state.Speed*2, ui.MaxSpeed)
	}

	if rl.IsKeyPressed(rl.KeyTab) || rl.IsKeyPressed(rl.KeyC) {
		a.controls.Toggle()
	}

	for _, key := range a.overlays.Keys() {
		if rl.IsKeyPressed(key) {
			a.overlays.HandleKeyPress(key)
		}
	}

	a.handleCameraInput()
}

// handleResize refits the camera and moves right-anchored panels.
func (a *App) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == a.screenWidth && h == a.screenHeight {
		return
	}
	a.screenWidth = w
	a.screenHeight = h

	a.camera.Resize(w, h)
	a.species = ui.NewSpeciesPanel(int32(w)-230, 100, 220)
}

// handleCameraInput processes camera pan and zoom.
func (a *App) handleCameraInput() {
	// Pan speed scales inversely with zoom
	panSpeed := float32(8.0) / a.camera.Zoom

	if rl.IsKeyDown(rl.KeyRight) {
		a.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		a.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		a.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		a.camera.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		a.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		a.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		a.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		a.camera.Reset()
	}
}

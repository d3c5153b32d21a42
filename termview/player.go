package termview

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/pthm-cable/flap/game"
)

// ErrQuit is returned by Play when the viewer asks to leave.
var ErrQuit = errors.New("viewer quit")

// maxTicksPerFrame bounds the fast-forward speed.
const maxTicksPerFrame = 64

// Stepper advances an episode one tick at a time. *game.Game satisfies it.
type Stepper interface {
	Step() bool
	Snapshot() game.FrameSnapshot
}

// StartKeys reads bytes from r until it fails and delivers them on the
// returned channel, which is closed when r is exhausted.
func StartKeys(r io.Reader) <-chan byte {
	ch := make(chan byte, 16)
	go func() {
		defer close(ch)
		br := bufio.NewReader(r)
		for {
			b, err := br.ReadByte()
			if err != nil {
				return
			}
			ch <- b
		}
	}()
	return ch
}

// Player paces an episode for a terminal viewer. Speed and pause state carry
// over between Play calls, so one Player follows a whole training run.
type Player struct {
	out   io.Writer
	keys  <-chan byte
	size  TermSizeFunc
	fps   int
	speed int

	paused bool
	view   *View
	cols   int
	rows   int
}

// NewPlayer creates a player writing to out. keys may be nil for a
// non-interactive viewer.
func NewPlayer(out io.Writer, keys <-chan byte, size TermSizeFunc, fps int) *Player {
	if size == nil {
		size = DefaultTermSizeFunc
	}
	if fps <= 0 {
		fps = 30
	}
	return &Player{out: out, keys: keys, size: size, fps: fps, speed: 1}
}

// Speed returns the ticks advanced per rendered frame.
func (p *Player) Speed() int { return p.speed }

// Paused reports whether stepping is suspended.
func (p *Player) Paused() bool { return p.paused }

// Play steps s until the episode ends, rendering at the configured frame rate.
// It returns nil when the episode is over, ErrQuit when the viewer quits and
// the context error on cancellation.
func (p *Player) Play(ctx context.Context, s Stepper) error {
	ticker := time.NewTicker(time.Second / time.Duration(p.fps))
	defer ticker.Stop()

	running := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-p.keys:
			if !ok {
				// Input closed: keep playing without controls
				p.keys = nil
				continue
			}
			if err := p.handleKey(b); err != nil {
				return err
			}
		case <-ticker.C:
			if !p.paused {
				for i := 0; i < p.speed && running; i++ {
					running = s.Step()
				}
			}
			if err := p.render(s.Snapshot()); err != nil {
				return err
			}
			if !running {
				return nil
			}
		}
	}
}

// handleKey applies one keypress: q or ctrl-c quits, space pauses,
// + and - change speed.
func (p *Player) handleKey(b byte) error {
	switch b {
	case 'q', 'Q', 3:
		return ErrQuit
	case ' ':
		p.paused = !p.paused
	case '+', '=':
		p.speed = min(p.speed*2, maxTicksPerFrame)
	case '-', '_':
		p.speed = max(p.speed/2, 1)
	}
	return nil
}

func (p *Player) render(snap game.FrameSnapshot) error {
	cols, rows, err := p.size()
	if err != nil || cols <= 0 || rows <= 0 {
		cols, rows = 80, 24
	}

	if p.view == nil {
		ClearScreen(p.out)
		HideCursor(p.out)
		p.view = NewView(NewChunkWriter(p.out), cols, rows, snap)
	} else if cols != p.cols || rows != p.rows {
		ClearScreen(p.out)
		p.view.Resize(cols, rows)
	}
	p.cols, p.rows = cols, rows

	return p.view.Draw(snap, p.status())
}

func (p *Player) status() string {
	if p.paused {
		return "[paused]"
	}
	if p.speed > 1 {
		return "[x" + strconv.Itoa(p.speed) + "]"
	}
	return ""
}

// Close restores the cursor.
func (p *Player) Close() {
	if p.view != nil {
		ShowCursor(p.out)
	}
}

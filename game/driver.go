package game

// Session is a run of generations on one game.
type Session struct {
	Game *Game

	// Next supplies the entrants of each generation given the previous result
	// (nil for the first). Returning false ends the session.
	Next func(prev *Result) ([]Entrant, bool)

	// Done runs once when the session ends, after a champion or when Next
	// declines. It may return a follow-up session, such as a champion replay.
	Done func(last *Result) (*Session, error)
}

// Driver steps sessions one tick at a time for interactive viewers. It plays
// the same generations Run would, but lets the caller render between ticks.
type Driver struct {
	sess    *Session
	last    *Result
	running bool
	done    bool
}

// NewDriver creates a driver positioned before the first generation.
func NewDriver(sess *Session) *Driver {
	return &Driver{sess: sess}
}

// Game returns the game of the current session.
func (d *Driver) Game() *Game { return d.sess.Game }

// Last returns the result of the most recently finished generation.
func (d *Driver) Last() *Result { return d.last }

// Done reports whether every session has ended.
func (d *Driver) Done() bool { return d.done }

// Advance runs up to ticks ticks, starting generations and sessions as needed.
func (d *Driver) Advance(ticks int) error {
	for i := 0; i < ticks && !d.done; i++ {
		if !d.running {
			if err := d.begin(); err != nil {
				return err
			}
			if d.done {
				return nil
			}
			// Begin alone counts as the tick that shows the spawn frame
			continue
		}

		g := d.sess.Game
		if g.Step() {
			continue
		}
		d.last = g.Finish()
		d.running = false
		if d.last.Outcome == OutcomeChampion {
			if err := d.endSession(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Driver) begin() error {
	entrants, ok := d.sess.Next(d.last)
	if !ok {
		return d.endSession()
	}
	if err := d.sess.Game.Begin(entrants); err != nil {
		return err
	}
	d.running = true
	return nil
}

func (d *Driver) endSession() error {
	var next *Session
	if d.sess.Done != nil {
		var err error
		if next, err = d.sess.Done(d.last); err != nil {
			d.done = true
			return err
		}
	}
	if next == nil {
		d.done = true
		return nil
	}
	if next.Game != d.sess.Game {
		_ = d.sess.Game.Close()
	}
	d.sess = next
	d.last = nil
	return nil
}

// Close cancels a running generation and releases the current game.
func (d *Driver) Close() error {
	if d.running {
		d.sess.Game.Cancel()
		d.sess.Game.Finish()
		d.running = false
	}
	d.done = true
	return d.sess.Game.Close()
}

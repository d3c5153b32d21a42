package game

import (
	"testing"

	"github.com/pthm-cable/flap/systems"
)

func TestDriverPlaysGenerations(t *testing.T) {
	g := newTestGame(t, testConfig())

	calls, doneCalls := 0, 0
	var doneWith *Result
	d := NewDriver(&Session{
		Game: g,
		Next: func(prev *Result) ([]Entrant, bool) {
			calls++
			return []Entrant{{ID: calls, Controller: constant(0)}}, calls <= 2
		},
		Done: func(last *Result) (*Session, error) {
			doneCalls++
			doneWith = last
			return nil, nil
		},
	})

	// A falling bird lasts 28 ticks; ten ticks at a time never overshoots the end
	for i := 0; i < 20 && !d.Done(); i++ {
		if err := d.Advance(10); err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
	}

	if !d.Done() {
		t.Fatal("driver did not finish")
	}
	if calls != 3 || doneCalls != 1 {
		t.Errorf("next/done calls = %d/%d, want 3/1", calls, doneCalls)
	}
	if doneWith == nil || doneWith.Generation != 1 || doneWith.Outcome != OutcomeExtinct {
		t.Errorf("done with %+v, want generation 1 extinct", doneWith)
	}
	if d.Last() != doneWith {
		t.Error("Last differs from the result passed to Done")
	}
}

func TestDriverFollowUpSession(t *testing.T) {
	train := newTestGame(t, openSkyConfig())
	replay, err := NewGame(testConfig(), Options{Seed: 7, Mode: systems.ModeReplay})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { replay.Close() })

	replayed := 0
	d := NewDriver(&Session{
		Game: train,
		Next: func(prev *Result) ([]Entrant, bool) {
			return []Entrant{{ID: 1, Controller: hover()}}, prev == nil
		},
		Done: func(last *Result) (*Session, error) {
			if last == nil || last.Outcome != OutcomeChampion {
				t.Errorf("training ended with %+v, want champion", last)
			}
			return &Session{
				Game: replay,
				Next: func(prev *Result) ([]Entrant, bool) {
					replayed++
					return []Entrant{{ID: 1, Controller: constant(0)}}, prev == nil
				},
			}, nil
		},
	})

	for i := 0; i < 1000 && !d.Done(); i++ {
		if err := d.Advance(50); err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
	}

	if !d.Done() {
		t.Fatal("driver did not finish")
	}
	if d.Game() != replay {
		t.Error("driver did not switch to the follow-up game")
	}
	if replayed != 2 {
		t.Errorf("replay next calls = %d, want 2", replayed)
	}
}

func TestDriverClose(t *testing.T) {
	g, err := NewGame(testConfig(), Options{Seed: 7})
	if err != nil {
		t.Fatal(err)
	}

	d := NewDriver(&Session{
		Game: g,
		Next: func(prev *Result) ([]Entrant, bool) {
			return []Entrant{{ID: 1, Controller: hover()}}, true
		},
	})
	if err := d.Advance(5); err != nil {
		t.Fatal(err)
	}
	if !g.Running() || g.Tick() != 4 {
		t.Fatalf("running/tick = %v/%d, want true/4", g.Running(), g.Tick())
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !d.Done() || g.Running() {
		t.Error("Close left the generation running")
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/neural"
	"github.com/pthm-cable/flap/store"
	"github.com/pthm-cable/flap/termview"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Sim.Seed = 5
	cfg.Sim.MaxTicks = 20
	cfg.Evolution.Population = 4
	return cfg
}

func testPlayer(out *bytes.Buffer) *termview.Player {
	size := newSizeTracker(60, 20)
	return termview.NewPlayer(out, nil, size.getSize, 1000)
}

func TestSpectateTrainsWithEmptyStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	if err := st.Init(ctx); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err := spectate(ctx, testConfig(), st, testPlayer(&out))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("spectate error = %v, want deadline exceeded", err)
	}
	if !strings.Contains(out.String(), "Alive: ") {
		t.Error("nothing was rendered")
	}
}

func TestSpectateReplaysChampion(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	if err := st.Init(ctx); err != nil {
		t.Fatal(err)
	}

	ctrl := neural.NewFFNNController(neural.NewFFNN(rand.New(rand.NewSource(1))), 800)
	data, err := json.Marshal(ctrl)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SaveChampion(ctx, store.NewChampion("run", 3, neural.KindFFNN, 42, data)); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err = spectate(ctx, testConfig(), st, testPlayer(&out))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("spectate error = %v, want deadline exceeded", err)
	}
	if !strings.Contains(out.String(), "Gen: 0") {
		t.Error("replay was not rendered")
	}
}

func TestSpectateRejectsBadChampion(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	if err := st.Init(ctx); err != nil {
		t.Fatal(err)
	}
	bad := store.NewChampion("run", 0, "lstm", 1, json.RawMessage(`{"kind":"lstm"}`))
	if err := st.SaveChampion(ctx, bad); err != nil {
		t.Fatal(err)
	}

	err := spectate(ctx, testConfig(), st, testPlayer(&bytes.Buffer{}))
	if !errors.Is(err, neural.ErrUnknownKind) {
		t.Errorf("spectate error = %v, want ErrUnknownKind", err)
	}
}

func TestSizeTracker(t *testing.T) {
	s := newSizeTracker(80, 24)
	s.update(100, 30)
	w, h, err := s.getSize()
	if err != nil || w != 100 || h != 30 {
		t.Errorf("getSize = %d, %d, %v", w, h, err)
	}
}

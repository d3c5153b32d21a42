package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/game"
	"github.com/pthm-cable/flap/store"
)

// runOptions carries the CLI settings shared by every run mode.
type runOptions struct {
	game        game.Options
	generations int
	replay      bool
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output generation stats via slog")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for bookmark snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot (empty = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config, then time-based)")
	generations := flag.Int("generations", -1, "Generations to train or replay (-1 = use config, 0 = until a champion)")
	storeKind := flag.String("store", "", "Champion store kind: memory, file or sqlite (empty = use config)")
	storePath := flag.String("store-path", "", "Champion store path (empty = use config)")
	replay := flag.Bool("replay", false, "Replay the best stored champion instead of training")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	opts := runOptions{
		game: game.Options{
			Seed:        *seed,
			OutputDir:   cfg.Telemetry.OutputDir,
			SnapshotDir: *snapshotDir,
			LogStats:    *logStats,
		},
		generations: cfg.Evolution.Generations,
		replay:      *replay,
	}
	if *outputDir != "" {
		opts.game.OutputDir = *outputDir
	}
	if *generations >= 0 {
		opts.generations = *generations
	}

	kind, path := cfg.Store.Kind, cfg.Store.Path
	if *storeKind != "" {
		kind = *storeKind
	}
	if *storePath != "" {
		path = *storePath
	}
	st, err := store.NewStore(kind, path)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := st.Init(ctx); err != nil {
		slog.Error("failed to init store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if *headless {
		err = runHeadless(ctx, cfg, st, opts)
	} else {
		err = runWindowed(ctx, cfg, st, opts)
	}
	if err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

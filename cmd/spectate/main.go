// Command spectate streams flappy-bird episodes to terminals. Over SSH every
// session watches the stored champion replay, or a live training run when the
// store is empty. With -local it plays in the current terminal instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"

	"github.com/pthm-cable/flap/config"
	"github.com/pthm-cable/flap/store"
	"github.com/pthm-cable/flap/termview"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	storeKind := flag.String("store", "", "Champion store kind: memory, file or sqlite (empty = use config)")
	storePath := flag.String("store-path", "", "Champion store path (empty = use config)")
	local := flag.Bool("local", false, "Play in this terminal instead of serving SSH")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Local play owns stdout, so logs go to stderr there
	logOut := os.Stdout
	if *local {
		logOut = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, nil)))

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

	if *local {
		if err := playLocal(ctx, cfg, st); err != nil {
			slog.Error("spectate failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, cfg, st); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func playLocal(ctx context.Context, cfg *config.Config, st store.Store) error {
	restore, err := termview.MakeRaw()
	if err != nil {
		return err
	}
	defer restore()

	player := termview.NewPlayer(os.Stdout, termview.StartKeys(os.Stdin), termview.DefaultTermSizeFunc, cfg.Spectate.FPS)
	defer func() {
		player.Close()
		termview.ClearScreen(os.Stdout)
	}()

	err = spectate(ctx, cfg, st, player)
	if errors.Is(err, termview.ErrQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serve(ctx context.Context, cfg *config.Config, st store.Store) error {
	sc := cfg.Spectate
	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(sc.Host, sc.Port)),
		wish.WithMiddleware(
			spectateMiddleware(ctx, cfg, st),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	}
	if sc.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(sc.HostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	slog.Info("starting ssh server", "host", sc.Host, "port", sc.Port)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// spectateMiddleware runs one spectator per SSH session.
func spectateMiddleware(ctx context.Context, cfg *config.Config, st store.Store) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			pty, winCh, ok := sess.Pty()
			if !ok {
				fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
				return
			}

			slog.Info("spectator joined",
				"user", sess.User(),
				"term", pty.Term,
				"width", pty.Window.Width,
				"height", pty.Window.Height,
			)

			size := newSizeTracker(pty.Window.Width, pty.Window.Height)
			go func() {
				for win := range winCh {
					size.update(win.Width, win.Height)
				}
			}()

			// Ends with the session or the server
			sessCtx, cancel := context.WithCancel(sess.Context())
			stopAfter := context.AfterFunc(ctx, cancel)
			defer stopAfter()
			defer cancel()

			player := termview.NewPlayer(sess, termview.StartKeys(sess), size.getSize, cfg.Spectate.FPS)
			err := spectate(sessCtx, cfg, st, player)
			player.Close()
			if err != nil && !errors.Is(err, termview.ErrQuit) && !errors.Is(err, context.Canceled) {
				slog.Error("spectator failed", "user", sess.User(), "error", err)
				fmt.Fprintln(sess, "\r\nError:", err)
			}

			slog.Info("spectator left", "user", sess.User())
			next(sess)
		}
	}
}

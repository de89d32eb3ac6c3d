package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/mmcdole/reel/internal/config"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/log"
	"github.com/mmcdole/reel/internal/metrics"
	"github.com/mmcdole/reel/internal/player"
	"github.com/mmcdole/reel/internal/service"
	"github.com/mmcdole/reel/internal/store"
	"github.com/mmcdole/reel/internal/tui"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                                  \r"

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		showVersion bool
		configPath  string
		simulate    bool
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.BoolVar(&simulate, "simulate", false, "use the simulated player instead of mpv")
	flag.Usage = usage
	flag.Parse()

	if showVersion {
		fmt.Printf("reel %s\n", Version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configPath, simulate, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  reel [flags]                 browse the catalog
  reel [flags] play <query>    play an item by id or title
  reel [flags] history         list saved progress

Flags:
`)
	flag.PrintDefaults()
}

func run(ctx context.Context, configPath string, simulate bool, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if simulate {
		cfg.Player.Backend = config.BackendSim
	}

	// Setup logger
	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting reel", "version", Version, "backend", cfg.Player.Backend)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "":
		return a.runTUI(ctx)
	case "play":
		if len(args) < 2 {
			return fmt.Errorf("usage: reel play <query>")
		}
		return a.runPlay(ctx, strings.Join(args[1:], " "))
	case "history":
		return a.runHistory()
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// app wires services for one invocation
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.ProgressStore
	catalog  *service.CatalogService
	coord    *service.Coordinator
	playback *service.PlaybackService
	tracker  *service.ProgressTracker
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	storePath, err := config.ExpandPath(cfg.Store.File)
	if err != nil {
		return nil, err
	}
	socketDir, err := config.ExpandPath(cfg.Player.SocketDir)
	if err != nil {
		return nil, err
	}

	progressStore, err := store.NewProgressStore(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open progress store: %w", err)
	}

	catalog := service.NewCatalogService(cfg.Items(), logger)
	coord := service.NewCoordinator(newProvider(cfg, catalog, socketDir, logger), logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    progressStore,
		catalog:  catalog,
		coord:    coord,
		playback: service.NewPlaybackService(coord, progressStore, logger),
		tracker:  service.NewProgressTracker(progressStore, logger),
	}, nil
}

// newProvider selects the playback backend
func newProvider(cfg *config.Config, catalog *service.CatalogService, socketDir string, logger *slog.Logger) domain.Provider {
	if cfg.Player.Backend == config.BackendSim {
		return player.NewSimProvider(catalog, player.SimOptions{
			Tick:      cfg.Player.StatusInterval,
			LoadDelay: 300 * time.Millisecond,
			Autoplay:  cfg.Player.Autoplay,
			ExitAtEnd: true,
		}, logger)
	}

	// Create launcher (uses configured player or auto-detects)
	launcher := player.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger)
	return player.NewMPVProvider(catalog, launcher, player.MPVOptions{
		SocketDir:      socketDir,
		Autoplay:       cfg.Player.Autoplay,
		StatusInterval: cfg.Player.StatusInterval,
		ConnectTimeout: cfg.Player.ConnectTimeout,
	}, logger)
}

// close releases the player and closes the store
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.coord.Shutdown(ctx); err != nil {
		a.logger.Warn("coordinator shutdown incomplete", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close progress store", "error", err)
	}
	a.logger.Info("shutting down")
}

// runBackground starts progress tracking and the optional metrics endpoint
func (a *app) runBackground(ctx context.Context, g *errgroup.Group) {
	snaps, cancel := a.coord.Watch()
	g.Go(func() error {
		defer cancel()
		return a.tracker.Run(ctx, snaps)
	})

	if addr := a.cfg.Metrics.Listen; addr != "" {
		g.Go(func() error {
			return metrics.Serve(ctx, addr, a.logger)
		})
	}
}

func (a *app) runTUI(ctx context.Context) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the browser needs a terminal; use 'reel play <query>' instead")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	a.runBackground(gctx, g)

	snaps, stopWatch := a.coord.Watch()
	model := tui.NewModel(a.catalog, a.playback, snaps, a.cfg.UI.SeekStep)

	g.Go(func() error {
		defer cancel()
		defer stopWatch()

		// Run the TUI
		p := tea.NewProgram(
			model,
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
			tea.WithContext(gctx),
		)

		a.logger.Info("starting TUI")
		if _, err := p.Run(); err != nil && gctx.Err() == nil {
			a.logger.Error("TUI error", "error", err)
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// runPlay plays one item headless and prints its status until it ends
func (a *app) runPlay(ctx context.Context, query string) error {
	item, err := a.catalog.Find(query)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	a.runBackground(gctx, g)

	g.Go(func() error {
		defer cancel()

		if err := a.startWithSpinner(gctx, item); err != nil {
			if gctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Printf("▶ %s\n", item.Title)

		watchStatus(gctx, a.coord)

		closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer closeCancel()
		return a.playback.Close(closeCtx)
	})

	err = g.Wait()
	if ctx.Err() != nil {
		// Interrupted: end the status line
		fmt.Println()
	}
	return err
}

// startWithSpinner starts playback with a visual spinner
func (a *app) startWithSpinner(ctx context.Context, item domain.Item) error {
	errCh := make(chan error, 1)

	// Start playback in background
	go func() {
		errCh <- a.playback.Resume(ctx, item)
	}()

	// Spinner animation
	frame := 0
	fmt.Printf("\r%s Starting %s...", styles.SpinnerFrames[frame], item.Title)

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			// Clear spinner line
			fmt.Print(clearSpinnerLine)
			return err

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Starting %s...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)], item.Title)
		}
	}
}

// watchStatus prints position updates until the session ends (the player
// exited or it was closed elsewhere) or ctx is cancelled
func watchStatus(ctx context.Context, coord *service.Coordinator) {
	snaps, cancel := coord.Watch()
	defer cancel()

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	last := ""

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok || snap.State == service.StateIdle {
				if interactive && last != "" {
					fmt.Println()
				}
				return
			}
			if !snap.HasSession() {
				continue
			}

			line := statusLine(snap)
			if line != last {
				if interactive {
					fmt.Print(clearSpinnerLine + line)
				} else {
					fmt.Println(line)
				}
				last = line
			}
		}
	}
}

func statusLine(snap service.Snapshot) string {
	state := "▶"
	if !snap.Playing {
		state = "⏸"
	}
	if snap.Duration > 0 {
		return fmt.Sprintf("%s %s / %s", state, domain.FormatDuration(snap.Position), domain.FormatDuration(snap.Duration))
	}
	return fmt.Sprintf("%s %s", state, domain.FormatDuration(snap.Position))
}

// runHistory prints saved progress, most recent first
func (a *app) runHistory() error {
	entries, err := a.store.ListProgress()
	if err != nil {
		return fmt.Errorf("failed to read progress: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No saved progress.")
		return nil
	}

	for _, p := range entries {
		title := p.ItemID
		if item, err := a.catalog.Get(p.ItemID); err == nil {
			title = item.Title
		}

		when := time.Unix(p.UpdatedAt, 0).Format("2006-01-02 15:04")
		fmt.Printf("%s %-40s %8s / %-8s %s\n",
			styles.RenderWatchStatus(p.Watched, p.ShouldResume()),
			styles.Truncate(title, 40),
			domain.FormatDuration(p.Position),
			domain.FormatDuration(p.Duration),
			styles.DimStyle.Render(when),
		)
	}
	return nil
}

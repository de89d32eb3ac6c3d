package player

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

// Launcher starts an mpv-compatible player process with an IPC socket
type Launcher struct {
	command  string   // configured player command, empty to auto-detect
	args     []string // additional arguments for the player
	logger   *slog.Logger
	goos     string
	lookPath func(string) (string, error)
}

// launchPath defines a single way to launch a player
type launchPath struct {
	path string // Command name or absolute path
}

// playerConfig defines the flags and platform launch paths for a player
type playerConfig struct {
	ipcFlag    string                  // IPC socket flag prefix (e.g., "--input-ipc-server=")
	offsetFlag string                  // Start offset flag prefix (e.g., "--start=")
	pauseFlag  string                  // Start paused
	keepAlive  string                  // Keeps the launched process attached until the player exits
	platforms  map[string][]launchPath // Platform -> launch paths to try in order
}

// players registry - single source of truth for all player configuration.
// Only players that speak the mpv JSON IPC protocol are listed.
var players = map[string]playerConfig{
	"mpv": {
		ipcFlag:    "--input-ipc-server=",
		offsetFlag: "--start=",
		pauseFlag:  "--pause",
		platforms: map[string][]launchPath{
			"darwin": {
				{path: "mpv"},
				{path: "/Applications/mpv.app/Contents/MacOS/mpv"},
			},
			"linux":   {{path: "mpv"}},
			"windows": {{path: "mpv"}},
		},
	},
	"iina": {
		ipcFlag:    "--mpv-input-ipc-server=",
		offsetFlag: "--mpv-start=",
		pauseFlag:  "--mpv-pause",
		keepAlive:  "--keep-running", // iina-cli otherwise exits once the app is open
		platforms: map[string][]launchPath{
			"darwin": {
				{path: "iina-cli"},
				{path: "/Applications/IINA.app/Contents/MacOS/iina-cli"},
			},
		},
	},
	"celluloid": {
		ipcFlag:    "--mpv-input-ipc-server=",
		offsetFlag: "--mpv-start=",
		pauseFlag:  "--mpv-pause",
		platforms: map[string][]launchPath{
			"linux": {{path: "celluloid"}},
		},
	},
}

// candidatePlayers defines the preferred player order for each platform
var candidatePlayers = map[string][]string{
	"darwin":  {"iina", "mpv"},
	"linux":   {"mpv", "celluloid"},
	"windows": {"mpv"},
}

// LaunchOptions controls a single player launch
type LaunchOptions struct {
	Socket string        // IPC socket path
	Paused bool          // Start with playback paused
	Start  time.Duration // Start offset, zero for the beginning
}

// NewLauncher creates a new Launcher
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Launcher{
		command:  command,
		args:     args,
		logger:   logger,
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
	}
}

// playerName maps a command path to its registry key ("/usr/bin/mpv" -> "mpv")
func playerName(command string) string {
	base := filepath.Base(command)
	// Strip any extension (for Windows .exe)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(base)
	return strings.TrimSuffix(base, "-cli")
}

// Resolve finds the player binary to run and the flags it understands
func (l *Launcher) Resolve() (string, playerConfig, error) {
	// Tier 1: User configured a specific player
	if l.command != "" {
		path, err := l.lookPath(l.command)
		if err != nil {
			return "", playerConfig{}, fmt.Errorf("%w: %s: %v", domain.ErrPlayerNotFound, l.command, err)
		}

		name := playerName(l.command)
		cfg, ok := players[name]
		if !ok {
			l.logger.Debug("unknown player, assuming mpv-compatible flags", "command", l.command)
			cfg = players["mpv"]
		}
		return path, cfg, nil
	}

	// Tier 2: Try candidate chain for this platform
	candidates, ok := candidatePlayers[l.goos]
	if !ok {
		candidates = candidatePlayers["linux"] // default
	}

	for _, name := range candidates {
		cfg := players[name]
		for _, lp := range cfg.platforms[l.goos] {
			path, err := l.lookPath(lp.path)
			if err != nil {
				l.logger.Debug("launch path not available", "player", name, "path", lp.path, "error", err)
				continue
			}
			l.logger.Debug("detected player", "player", name, "path", path)
			return path, cfg, nil
		}
	}

	return "", playerConfig{}, fmt.Errorf("%w: tried %s", domain.ErrPlayerNotFound, strings.Join(candidates, ", "))
}

// Launch starts the player for url. The caller owns the returned process.
func (l *Launcher) Launch(url string, opts LaunchOptions) (*exec.Cmd, error) {
	path, cfg, err := l.Resolve()
	if err != nil {
		return nil, err
	}

	args := buildArgs(cfg, l.args, opts, url)
	l.logger.Info("launching player", "command", path, "args", args)

	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	return cmd, nil
}

// buildArgs assembles player flags, user arguments and the URL (last)
func buildArgs(cfg playerConfig, extra []string, opts LaunchOptions, url string) []string {
	args := make([]string, 0, len(extra)+5)
	if cfg.keepAlive != "" {
		args = append(args, cfg.keepAlive)
	}
	if opts.Socket != "" {
		args = append(args, cfg.ipcFlag+opts.Socket)
	}
	if opts.Paused && cfg.pauseFlag != "" {
		args = append(args, cfg.pauseFlag)
	}
	if opts.Start > 0 && cfg.offsetFlag != "" {
		args = append(args, fmt.Sprintf("%s%.0f", cfg.offsetFlag, opts.Start.Seconds()))
	}
	args = append(args, extra...)
	return append(args, url)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mmcdole/reel/internal/domain"
)

// Backend selects the playback resource provider
type Backend string

const (
	BackendMPV Backend = "mpv"
	BackendSim Backend = "sim"
)

// Config holds all application configuration
type Config struct {
	Player  PlayerConfig  `mapstructure:"player"`
	Catalog []ItemConfig  `mapstructure:"catalog"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	UI      UIConfig      `mapstructure:"ui"`
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Backend        Backend       `mapstructure:"backend"`         // "mpv" or "sim"
	Command        string        `mapstructure:"command"`         // empty to auto-detect
	Args           []string      `mapstructure:"args"`            // extra player arguments
	Autoplay       bool          `mapstructure:"autoplay"`        // start unpaused
	SocketDir      string        `mapstructure:"socket_dir"`      // IPC socket directory, empty for temp dir
	StatusInterval time.Duration `mapstructure:"status_interval"` // minimum gap between position-only updates
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"` // how long to wait for the IPC socket
}

// ItemConfig is one catalog entry
type ItemConfig struct {
	ID       string        `mapstructure:"id"`
	Title    string        `mapstructure:"title"`
	Channel  string        `mapstructure:"channel"`
	Kind     string        `mapstructure:"kind"` // "video" or "short"
	URL      string        `mapstructure:"url"`
	Duration time.Duration `mapstructure:"duration"`
}

// StoreConfig holds progress store configuration
type StoreConfig struct {
	File string `mapstructure:"file"` // empty for memory-only
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// MetricsConfig holds the optional Prometheus endpoint
type MetricsConfig struct {
	Listen string `mapstructure:"listen"` // e.g. "127.0.0.1:9310", empty to disable
}

// UIConfig holds UI configuration
type UIConfig struct {
	SeekStep time.Duration `mapstructure:"seek_step"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Player: PlayerConfig{
			Backend:        BackendMPV,
			Command:        "",
			Args:           []string{},
			StatusInterval: 250 * time.Millisecond,
			ConnectTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			File: filepath.Join(defaultDataPath(), "reel.db"),
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "reel.log"),
			Level: "INFO",
		},
		UI: UIConfig{
			SeekStep: 10 * time.Second,
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "reel")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "reel")
	}
}

// LoadConfig loads configuration from file and environment.
// An empty path searches the default config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides, e.g. REEL_PLAYER_BACKEND=sim
	v.SetEnvPrefix("REEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"player.backend", "player.command", "store.file", "logging.file", "logging.level", "metrics.listen"} {
		_ = v.BindEnv(key)
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the services cannot work with
func (c *Config) Validate() error {
	switch c.Player.Backend {
	case BackendMPV, BackendSim:
	default:
		return fmt.Errorf("invalid player backend %q (want %q or %q)", c.Player.Backend, BackendMPV, BackendSim)
	}

	if c.Player.StatusInterval < 0 || c.Player.ConnectTimeout < 0 || c.UI.SeekStep < 0 {
		return errors.New("durations must not be negative")
	}

	seen := make(map[string]bool, len(c.Catalog))
	for i, item := range c.Catalog {
		if item.ID == "" {
			return fmt.Errorf("catalog item %d has no id", i)
		}
		if seen[item.ID] {
			return fmt.Errorf("duplicate catalog id %q", item.ID)
		}
		seen[item.ID] = true

		switch domain.ItemKind(item.Kind) {
		case "", domain.ItemKindVideo, domain.ItemKindShort:
		default:
			return fmt.Errorf("catalog item %q has unknown kind %q", item.ID, item.Kind)
		}
	}
	return nil
}

// Items converts the catalog section into domain items
func (c *Config) Items() []domain.Item {
	items := make([]domain.Item, 0, len(c.Catalog))
	for _, ic := range c.Catalog {
		kind := domain.ItemKind(ic.Kind)
		if kind == "" {
			kind = domain.ItemKindVideo
		}
		title := ic.Title
		if title == "" {
			title = ic.ID
		}
		items = append(items, domain.Item{
			ID:       ic.ID,
			Title:    title,
			Channel:  ic.Channel,
			Kind:     kind,
			URL:      ic.URL,
			Duration: ic.Duration,
		})
	}
	return items
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

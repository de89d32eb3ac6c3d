package player

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/log"
)

func fakeLookPath(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/opt/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestPlayerName(t *testing.T) {
	assert.Equal(t, "mpv", playerName("/usr/bin/mpv"))
	assert.Equal(t, "mpv", playerName("MPV.exe"))
	assert.Equal(t, "iina", playerName("/Applications/IINA.app/Contents/MacOS/iina-cli"))
}

func TestLauncher_ResolveDetectsCandidate(t *testing.T) {
	l := NewLauncher("", nil, log.NullLogger())
	l.goos = "darwin"
	l.lookPath = fakeLookPath("mpv")

	path, cfg, err := l.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "/opt/bin/mpv", path)
	assert.Equal(t, "--input-ipc-server=", cfg.ipcFlag)

	l.lookPath = fakeLookPath("iina-cli", "mpv")
	_, cfg, err = l.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "--keep-running", cfg.keepAlive, "iina is preferred on darwin")
}

func TestLauncher_ResolveConfigured(t *testing.T) {
	l := NewLauncher("my-player", nil, log.NullLogger())
	l.lookPath = fakeLookPath("my-player")

	_, cfg, err := l.Resolve()
	require.NoError(t, err)
	assert.Equal(t, players["mpv"].ipcFlag, cfg.ipcFlag, "unknown players get mpv flags")

	l.lookPath = fakeLookPath()
	_, _, err = l.Resolve()
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestLauncher_ResolveNothingInstalled(t *testing.T) {
	l := NewLauncher("", nil, log.NullLogger())
	l.goos = "plan9"
	l.lookPath = fakeLookPath()

	_, _, err := l.Resolve()
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestBuildArgs(t *testing.T) {
	got := buildArgs(players["mpv"], []string{"--no-border"}, LaunchOptions{Socket: "/tmp/s.sock", Paused: true}, "https://example.com/a.mp4")
	assert.Equal(t, []string{"--input-ipc-server=/tmp/s.sock", "--pause", "--no-border", "https://example.com/a.mp4"}, got)

	got = buildArgs(players["iina"], nil, LaunchOptions{Socket: "/tmp/s.sock"}, "a.mp4")
	assert.Equal(t, []string{"--keep-running", "--mpv-input-ipc-server=/tmp/s.sock", "a.mp4"}, got)
}

func TestBuildArgsStartOffset(t *testing.T) {
	tests := []struct {
		player string
		start  time.Duration
		want   []string
	}{
		{"mpv", 42 * time.Second, []string{"--input-ipc-server=/tmp/s.sock", "--start=42", "a.mp4"}},
		{"mpv", 1500 * time.Millisecond, []string{"--input-ipc-server=/tmp/s.sock", "--start=2", "a.mp4"}},
		{"mpv", 0, []string{"--input-ipc-server=/tmp/s.sock", "a.mp4"}},
		{"iina", 90 * time.Second, []string{"--keep-running", "--mpv-input-ipc-server=/tmp/s.sock", "--mpv-start=90", "a.mp4"}},
		{"celluloid", 5 * time.Second, []string{"--mpv-input-ipc-server=/tmp/s.sock", "--mpv-start=5", "a.mp4"}},
	}
	for _, tt := range tests {
		got := buildArgs(players[tt.player], nil, LaunchOptions{Socket: "/tmp/s.sock", Start: tt.start}, "a.mp4")
		assert.Equal(t, tt.want, got, "%s at %s", tt.player, tt.start)
	}
}

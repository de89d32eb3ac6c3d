package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/reel/internal/domain"
)

const dialRetryInterval = 50 * time.Millisecond

// URLResolver maps catalog item ids to something a player can open
type URLResolver interface {
	ResolvePlayableURL(ctx context.Context, itemID string) (string, error)
}

// MPVOptions configures MPVProvider
type MPVOptions struct {
	SocketDir      string        // empty for the system temp dir
	Autoplay       bool          // start unpaused
	StatusInterval time.Duration // minimum gap between position-only updates
	ConnectTimeout time.Duration // how long to wait for the IPC socket
}

// MPVProvider acquires playback resources by launching an mpv-compatible
// player per session and driving it over JSON IPC.
type MPVProvider struct {
	resolver URLResolver
	launcher *Launcher
	opts     MPVOptions
	logger   *slog.Logger
}

// NewMPVProvider creates a provider
func NewMPVProvider(resolver URLResolver, launcher *Launcher, opts MPVOptions, logger *slog.Logger) *MPVProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SocketDir == "" {
		opts.SocketDir = os.TempDir()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	return &MPVProvider{resolver: resolver, launcher: launcher, opts: opts, logger: logger}
}

// Acquire launches a player for itemID and returns once its IPC socket is
// connected and status properties are observed.
func (p *MPVProvider) Acquire(ctx context.Context, itemID string) (domain.Resource, error) {
	return p.AcquireAt(ctx, itemID, 0)
}

// AcquireAt is Acquire with the player told to open the media at start.
// The returned resource reports Ended if the player exits on its own.
func (p *MPVProvider) AcquireAt(ctx context.Context, itemID string, start time.Duration) (domain.Resource, error) {
	url, err := p.resolver.ResolvePlayableURL(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.opts.SocketDir, 0700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	id := uuid.NewString()
	socket := filepath.Join(p.opts.SocketDir, "reel-"+id+".sock")

	cmd, err := p.launcher.Launch(url, LaunchOptions{
		Socket: socket,
		Paused: !p.opts.Autoplay,
		Start:  start,
	})
	if err != nil {
		return nil, err
	}

	r := newMPVResource("mpv:"+id, itemID, cmd, socket, p.opts.StatusInterval, p.logger)

	conn, err := dialSocket(ctx, socket, p.opts.ConnectTimeout, r.exited)
	if err != nil {
		r.Release(context.Background())
		return nil, err
	}

	r.client = newIPCClient(conn, r.onEvent, p.logger)
	go r.watchEnd()
	if err := r.observe(ctx); err != nil {
		r.Release(context.Background())
		return nil, fmt.Errorf("observe player properties: %w", err)
	}

	p.logger.Debug("player connected", "itemID", itemID, "socket", socket, "pid", cmd.Process.Pid, "start", start)
	return r, nil
}

// dialSocket retries until the player creates its socket, the process
// exits, the timeout passes or ctx ends.
func dialSocket(ctx context.Context, socket string, timeout time.Duration, exited <-chan struct{}) (net.Conn, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "unix", socket)
		if err == nil {
			return conn, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-exited:
			return nil, errors.New("player exited before ipc socket was ready")
		case <-deadline.C:
			return nil, fmt.Errorf("timed out waiting for ipc socket %s: %w", socket, err)
		case <-time.After(dialRetryInterval):
		}
	}
}

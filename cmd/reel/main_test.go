package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/reel/internal/config"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/log"
	"github.com/mmcdole/reel/internal/player"
	"github.com/mmcdole/reel/internal/service"
)

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "▶ 0:30 / 2:00", statusLine(service.Snapshot{Position: 30 * time.Second, Duration: 2 * time.Minute, Playing: true}))
	assert.Equal(t, "⏸ 0:05", statusLine(service.Snapshot{Position: 5 * time.Second}))
}

func TestWatchStatusReturnsWhenPlaybackEnds(t *testing.T) {
	catalog := service.NewCatalogService([]domain.Item{{ID: "v1", Title: "One", Duration: 50 * time.Millisecond}}, log.NullLogger())
	cfg := config.DefaultConfig()
	cfg.Player.Backend = config.BackendSim
	cfg.Player.StatusInterval = 10 * time.Millisecond
	cfg.Player.Autoplay = true

	coord := service.NewCoordinator(newProvider(cfg, catalog, "", log.NullLogger()), log.NullLogger())
	defer coord.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, coord.RequestPlay(ctx, "v1"))

	done := make(chan struct{})
	go func() {
		watchStatus(ctx, coord)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("watchStatus did not return after the item ended")
	}
	require.NoError(t, ctx.Err())
	assert.Equal(t, service.StateIdle, coord.Snapshot().State)
}

func TestNewProviderSelectsBackend(t *testing.T) {
	catalog := service.NewCatalogService(nil, log.NullLogger())

	cfg := config.DefaultConfig()
	assert.IsType(t, &player.MPVProvider{}, newProvider(cfg, catalog, t.TempDir(), log.NullLogger()))

	cfg.Player.Backend = config.BackendSim
	assert.IsType(t, &player.SimProvider{}, newProvider(cfg, catalog, "", log.NullLogger()))
}

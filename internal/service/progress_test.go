package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/reel/internal/log"
	"github.com/mmcdole/reel/internal/store"
)

func runTracker(t *testing.T, snaps ...Snapshot) *store.ProgressStore {
	t.Helper()
	s, err := store.NewProgressStore("")
	require.NoError(t, err)

	ch := make(chan Snapshot, len(snaps))
	for _, snap := range snaps {
		ch <- snap
	}
	close(ch)

	require.NoError(t, NewProgressTracker(s, log.NullLogger()).Run(context.Background(), ch))
	return s
}

func active(itemID string, pos, dur time.Duration, playing bool) Snapshot {
	return Snapshot{State: StateActive, ItemID: itemID, Position: pos, Duration: dur, Playing: playing}
}

func TestProgressTracker_SavesOnSwitch(t *testing.T) {
	s := runTracker(t,
		active("v1", 10*time.Second, time.Minute, true),
		active("v1", 20*time.Second, time.Minute, true),
		Snapshot{State: StateLoading, PendingItemID: "v2"},
	)

	p, ok := s.GetProgress("v1")
	require.True(t, ok)
	assert.Equal(t, 20*time.Second, p.Position)
	assert.False(t, p.Watched)
	assert.True(t, p.ShouldResume())
}

func TestProgressTracker_SavesOnPause(t *testing.T) {
	s, err := store.NewProgressStore("")
	require.NoError(t, err)

	ch := make(chan Snapshot)
	tr := NewProgressTracker(s, log.NullLogger())
	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { done <- tr.Run(ctx, ch) }()

	ch <- active("v1", 5*time.Second, time.Minute, true)
	ch <- active("v1", 7*time.Second, time.Minute, false)

	require.Eventually(t, func() bool {
		p, ok := s.GetProgress("v1")
		return ok && p.Position == 7*time.Second
	}, waitFor, tick)

	cancel()
	require.NoError(t, <-done)
}

func TestProgressTracker_NearEndIsWatched(t *testing.T) {
	s := runTracker(t,
		active("v1", 58*time.Second, time.Minute, true),
		Snapshot{},
	)

	p, ok := s.GetProgress("v1")
	require.True(t, ok)
	assert.True(t, p.Watched)
	assert.False(t, p.ShouldResume())
}

func TestProgressTracker_FlushesOnExit(t *testing.T) {
	s := runTracker(t, active("v1", 3*time.Second, time.Minute, true))

	p, ok := s.GetProgress("v1")
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, p.Position)
}

func TestProgressTracker_IgnoresEmptySessions(t *testing.T) {
	s := runTracker(t,
		Snapshot{State: StateLoading, PendingItemID: "v1"},
		active("v1", 0, 0, false),
		Snapshot{},
	)

	list, err := s.ListProgress()
	require.NoError(t, err)
	assert.Empty(t, list)
}

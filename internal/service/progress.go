package service

import (
	"context"
	"log/slog"

	"github.com/mmcdole/reel/internal/domain"
)

// ProgressTracker persists watch positions from the coordinator's snapshot
// stream. It saves when the session leaves an item and when playback pauses.
type ProgressTracker struct {
	store  domain.ProgressStore
	logger *slog.Logger
	last   Snapshot
}

// NewProgressTracker creates a tracker
func NewProgressTracker(store domain.ProgressStore, logger *slog.Logger) *ProgressTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressTracker{store: store, logger: logger}
}

// Run consumes snapshots until ctx ends or the channel closes, saving the
// last known position on the way out.
func (t *ProgressTracker) Run(ctx context.Context, snapshots <-chan Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			t.save(t.last)
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				t.save(t.last)
				return nil
			}
			t.observe(snap)
		}
	}
}

func (t *ProgressTracker) observe(snap Snapshot) {
	prev := t.last
	t.last = snap

	switch {
	case prev.ItemID != "" && prev.ItemID != snap.ItemID:
		// Closed or switched away; the new snapshot is already reset.
		t.save(prev)
	case snap.ItemID != "" && prev.Playing && !snap.Playing:
		t.save(snap)
	}
}

func (t *ProgressTracker) save(snap Snapshot) {
	if snap.ItemID == "" || (snap.Position == 0 && snap.Duration == 0) {
		return
	}

	p := domain.Progress{
		ItemID:   snap.ItemID,
		Position: snap.Position,
		Duration: snap.Duration,
		Watched:  domain.IsWatched(snap.Position, snap.Duration),
	}
	if err := t.store.SaveProgress(p); err != nil {
		t.logger.Warn("failed to save progress", "error", err, "itemID", snap.ItemID)
		return
	}
	t.logger.Debug("saved progress", "itemID", p.ItemID, "position", p.Position, "watched", p.Watched)
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

// sessionCoordinator abstracts the coordinator (consumer-defined interface)
type sessionCoordinator interface {
	RequestPlay(ctx context.Context, itemID string) error
	RequestPlayAt(ctx context.Context, itemID string, start time.Duration) error
	Close(ctx context.Context) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, target time.Duration) error
	Minimize(ctx context.Context) error
	Restore(ctx context.Context) error
	Snapshot() Snapshot
	Watch() (<-chan Snapshot, func())
}

// PlaybackService orchestrates playback operations for the UI
type PlaybackService struct {
	coord    sessionCoordinator
	progress domain.ProgressStore
	logger   *slog.Logger
}

// NewPlaybackService creates a new playback service
func NewPlaybackService(
	coord sessionCoordinator,
	progress domain.ProgressStore,
	logger *slog.Logger,
) *PlaybackService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaybackService{
		coord:    coord,
		progress: progress,
		logger:   logger,
	}
}

// Play opens an item and starts playback
func (s *PlaybackService) Play(ctx context.Context, item domain.Item) error {
	s.logger.Info("starting playback", "title", item.Title, "itemID", item.ID)

	if err := s.coord.RequestPlay(ctx, item.ID); err != nil {
		return err
	}
	return s.coord.Play(ctx)
}

// resumeTolerance is how far the opened position may be from the saved
// one before Resume seeks.
const resumeTolerance = 2 * time.Second

// Resume opens an item at its saved position, or from the start when
// there is nothing to resume. The player is asked to open at the offset;
// if it did not, Resume seeks once the media has loaded.
func (s *PlaybackService) Resume(ctx context.Context, item domain.Item) error {
	p, ok := s.progress.GetProgress(item.ID)
	if !ok || !p.ShouldResume() {
		return s.Play(ctx, item)
	}
	if s.coord.Snapshot().ItemID == item.ID {
		return s.coord.Play(ctx)
	}

	s.logger.Info("resuming playback", "title", item.Title, "itemID", item.ID, "offset", p.Position)

	if err := s.coord.RequestPlayAt(ctx, item.ID, p.Position); err != nil {
		return err
	}
	snap, err := s.waitLoaded(ctx, item.ID)
	if err != nil {
		return err
	}
	if d := snap.Position - p.Position; d < -resumeTolerance || d > resumeTolerance {
		s.logger.Debug("player did not open at offset, seeking", "itemID", item.ID, "position", snap.Position, "offset", p.Position)
		if err := s.coord.Seek(ctx, p.Position); err != nil {
			return err
		}
	}
	return s.coord.Play(ctx)
}

// waitLoaded blocks until itemID's session reports loaded media.
func (s *PlaybackService) waitLoaded(ctx context.Context, itemID string) (Snapshot, error) {
	snaps, cancel := s.coord.Watch()
	defer cancel()

	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				return Snapshot{}, domain.ErrClosed
			}
			switch {
			case snap.ItemID == itemID && snap.Loaded:
				return snap, nil
			case snap.ItemID == itemID || snap.PendingItemID == itemID:
				// still loading
			case snap.HasSession() || snap.PendingItemID != "":
				return snap, domain.ErrSuperseded
			default:
				return snap, domain.ErrNoSession
			}
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
}

// TogglePause pauses when playing and plays when paused
func (s *PlaybackService) TogglePause(ctx context.Context) error {
	snap := s.coord.Snapshot()
	if !snap.HasSession() {
		return domain.ErrNoSession
	}
	if snap.Playing {
		return s.coord.Pause(ctx)
	}
	return s.coord.Play(ctx)
}

// SeekBy moves the playhead relative to the last known position,
// clamped to the item's bounds
func (s *PlaybackService) SeekBy(ctx context.Context, delta time.Duration) error {
	snap := s.coord.Snapshot()
	if !snap.HasSession() {
		return domain.ErrNoSession
	}

	target := max(snap.Position+delta, 0)
	if snap.Duration > 0 {
		target = min(target, snap.Duration)
	}
	return s.coord.Seek(ctx, target)
}

func (s *PlaybackService) Minimize(ctx context.Context) error { return s.coord.Minimize(ctx) }
func (s *PlaybackService) Restore(ctx context.Context) error  { return s.coord.Restore(ctx) }
func (s *PlaybackService) Close(ctx context.Context) error    { return s.coord.Close(ctx) }

// Snapshot returns the current session state
func (s *PlaybackService) Snapshot() Snapshot { return s.coord.Snapshot() }

// Watch streams session state changes
func (s *PlaybackService) Watch() (<-chan Snapshot, func()) { return s.coord.Watch() }

// Progress returns saved progress for an item
func (s *PlaybackService) Progress(itemID string) (domain.Progress, bool) {
	return s.progress.GetProgress(itemID)
}

// MarkWatched marks an item as fully watched
func (s *PlaybackService) MarkWatched(ctx context.Context, itemID string) error {
	p, _ := s.progress.GetProgress(itemID)
	p.ItemID = itemID
	p.Watched = true
	p.UpdatedAt = 0
	if err := s.progress.SaveProgress(p); err != nil {
		return fmt.Errorf("mark watched: %w", err)
	}
	return nil
}

// MarkUnwatched clears saved progress for an item
func (s *PlaybackService) MarkUnwatched(ctx context.Context, itemID string) error {
	return s.progress.DeleteProgress(itemID)
}

package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/reel/internal/domain"
)

// Command factories for async operations

const commandTimeout = 10 * time.Second

// PlayItemCmd opens an item, resuming from saved progress when asked
func PlayItemCmd(svc PlaybackController, item domain.Item, resume bool) tea.Cmd {
	return func() tea.Msg {
		// Acquisition waits on the player; no timeout here so a slow
		// start is not mistaken for a failure.
		ctx := context.Background()

		var err error
		if resume {
			err = svc.Resume(ctx, item)
		} else {
			err = svc.Play(ctx, item)
		}

		if err != nil {
			return playbackErr(err, "starting playback")
		}
		return PlaybackStartedMsg{Item: item}
	}
}

// sessionCmd runs one session operation with a timeout
func sessionCmd(what string, op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		if err := op(ctx); err != nil {
			return playbackErr(err, what)
		}
		return nil
	}
}

// TogglePauseCmd toggles play/pause
func TogglePauseCmd(svc PlaybackController) tea.Cmd {
	return sessionCmd("toggling playback", svc.TogglePause)
}

// SeekByCmd seeks relative to the current position
func SeekByCmd(svc PlaybackController, delta time.Duration) tea.Cmd {
	return sessionCmd("seeking", func(ctx context.Context) error {
		return svc.SeekBy(ctx, delta)
	})
}

// MinimizeCmd shrinks the player to the mini overlay
func MinimizeCmd(svc PlaybackController) tea.Cmd {
	return sessionCmd("minimizing player", svc.Minimize)
}

// RestoreCmd brings the player back full screen
func RestoreCmd(svc PlaybackController) tea.Cmd {
	return sessionCmd("restoring player", svc.Restore)
}

// ClosePlayerCmd ends the session and releases the player
func ClosePlayerCmd(svc PlaybackController) tea.Cmd {
	return sessionCmd("closing player", svc.Close)
}

// MarkWatchedCmd marks an item as watched
func MarkWatchedCmd(svc PlaybackController, itemID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		if err := svc.MarkWatched(ctx, itemID); err != nil {
			return ErrMsg{Err: err, Context: "marking as watched"}
		}
		return ProgressChangedMsg{ItemID: itemID}
	}
}

// MarkUnwatchedCmd marks an item as unwatched
func MarkUnwatchedCmd(svc PlaybackController, itemID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		if err := svc.MarkUnwatched(ctx, itemID); err != nil {
			return ErrMsg{Err: err, Context: "marking as unwatched"}
		}
		return ProgressChangedMsg{ItemID: itemID}
	}
}

// playbackErr maps session errors to messages. A superseded request is
// the expected outcome of switching items and is not shown.
func playbackErr(err error, what string) tea.Msg {
	if errors.Is(err, domain.ErrSuperseded) {
		return nil
	}
	if errors.Is(err, domain.ErrNoSession) {
		return StatusMsg{Message: "Nothing is playing"}
	}
	return ErrMsg{Err: err, Context: what}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

package tui

import (
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/service"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// SnapshotMsg carries a new session snapshot from the coordinator
type SnapshotMsg struct {
	Snapshot service.Snapshot
}

// SnapshotsClosedMsg signals the snapshot stream ended
type SnapshotsClosedMsg struct{}

// PlaybackStartedMsg signals that the player attached for an item
type PlaybackStartedMsg struct {
	Item domain.Item
}

// ProgressChangedMsg signals that saved progress for an item changed
type ProgressChangedMsg struct {
	ItemID string
}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/reel/internal/service"
)

// ChannelObserver adapts the coordinator's snapshot stream to Bubble Tea.
// Each Next command delivers one SnapshotMsg; the model re-arms it.
type ChannelObserver struct {
	ch <-chan service.Snapshot
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch <-chan service.Snapshot) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// Next waits for the next snapshot.
func (o *ChannelObserver) Next() tea.Cmd {
	if o == nil || o.ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-o.ch
		if !ok {
			return SnapshotsClosedMsg{}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

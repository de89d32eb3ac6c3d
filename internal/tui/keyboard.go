package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/reel/internal/service"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.State == StateHelp {
		m.State = StateBrowsing
		return m, nil
	}

	if m.Filtering {
		return m.handleFilterKey(msg)
	}

	if key.Matches(msg, Keys.Quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, Keys.Help) {
		m.State = StateHelp
		return m, nil
	}

	if m.PlayerVisible() {
		return m.handlePlayerKey(msg)
	}
	return m.handleBrowseKey(msg)
}

// handlePlayerKey handles keys while the full-screen player is shown
func (m Model) handlePlayerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Toggle):
		return m, TogglePauseCmd(m.PlaybackSvc)

	case key.Matches(msg, Keys.SeekBack):
		return m, SeekByCmd(m.PlaybackSvc, -m.SeekStep)

	case key.Matches(msg, Keys.SeekForward):
		return m, SeekByCmd(m.PlaybackSvc, m.SeekStep)

	case key.Matches(msg, Keys.Minimize, Keys.Escape):
		// Nothing to minimize until the player reports in; esc cancels the load.
		if m.Session.State == service.StateLoading {
			if key.Matches(msg, Keys.Escape) {
				return m, ClosePlayerCmd(m.PlaybackSvc)
			}
			return m, nil
		}
		return m, MinimizeCmd(m.PlaybackSvc)

	case key.Matches(msg, Keys.Close):
		return m, ClosePlayerCmd(m.PlaybackSvc)
	}
	return m, nil
}

// handleBrowseKey handles keys in the browse list, with an optional mini player
func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	minimized := m.Session.State == service.StateMinimized

	switch {
	case key.Matches(msg, Keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, Keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, Keys.Home):
		m.Cursor = 0
		m.clampCursor()
	case key.Matches(msg, Keys.End):
		m.Cursor = len(m.Results) - 1
		m.clampCursor()

	case key.Matches(msg, Keys.Enter):
		item, ok := m.SelectedItem()
		if !ok {
			return m, nil
		}
		p, saved := m.PlaybackSvc.Progress(item.ID)
		return m, PlayItemCmd(m.PlaybackSvc, item, saved && p.ShouldResume())

	case key.Matches(msg, Keys.Filter):
		m.Filtering = true
		m.filter.Focus()
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.refilter()
		}

	case key.Matches(msg, Keys.MarkWatched):
		if item, ok := m.SelectedItem(); ok {
			return m, MarkWatchedCmd(m.PlaybackSvc, item.ID)
		}

	case key.Matches(msg, Keys.MarkUnwatched):
		if item, ok := m.SelectedItem(); ok {
			return m, MarkUnwatchedCmd(m.PlaybackSvc, item.ID)
		}

	case minimized && key.Matches(msg, Keys.Restore):
		return m, RestoreCmd(m.PlaybackSvc)

	case minimized && key.Matches(msg, Keys.Close):
		return m, ClosePlayerCmd(m.PlaybackSvc)

	case minimized && key.Matches(msg, Keys.Toggle):
		return m, TogglePauseCmd(m.PlaybackSvc)

	case minimized && key.Matches(msg, Keys.SeekBack):
		return m, SeekByCmd(m.PlaybackSvc, -m.SeekStep)

	case minimized && key.Matches(msg, Keys.SeekForward):
		return m, SeekByCmd(m.PlaybackSvc, m.SeekStep)
	}
	return m, nil
}

// handleFilterKey routes keys to the filter input
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.refilter()
		return m, nil

	case tea.KeyEnter:
		m.Filtering = false
		m.filter.Blur()
		return m, nil

	case tea.KeyUp:
		m.moveCursor(-1)
		return m, nil

	case tea.KeyDown:
		m.moveCursor(1)
		return m, nil
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.refilter()
	}
	return m, cmd
}

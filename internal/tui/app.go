package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/service"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateHelp
)

// Layout constants
const (
	ChromeHeight     = 1 // footer
	FilterHeight     = 1
	MiniPlayerHeight = 3
	DefaultSeekStep  = 10 * time.Second
)

// PlaybackController is what the TUI needs from the playback service
type PlaybackController interface {
	Play(ctx context.Context, item domain.Item) error
	Resume(ctx context.Context, item domain.Item) error
	TogglePause(ctx context.Context) error
	SeekBy(ctx context.Context, delta time.Duration) error
	Minimize(ctx context.Context) error
	Restore(ctx context.Context) error
	Close(ctx context.Context) error
	Progress(itemID string) (domain.Progress, bool)
	MarkWatched(ctx context.Context, itemID string) error
	MarkUnwatched(ctx context.Context, itemID string) error
}

// Catalog is what the TUI needs from the catalog service
type Catalog interface {
	Items() []domain.Item
	Filter(query string) []service.FilterResult
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	// Services
	CatalogSvc  Catalog
	PlaybackSvc PlaybackController
	observer    *ChannelObserver
	SeekStep    time.Duration

	// Browse list
	Results   []service.FilterResult
	Cursor    int
	Offset    int
	Filtering bool
	filter    textinput.Model
	titles    map[string]domain.Item

	// Latest coordinator snapshot
	Session service.Snapshot

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	SpinnerFrame int
}

// NewModel creates a new application model
func NewModel(
	catalogSvc Catalog,
	playbackSvc PlaybackController,
	snapshots <-chan service.Snapshot,
	seekStep time.Duration,
) Model {
	if seekStep <= 0 {
		seekStep = DefaultSeekStep
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "filter..."
	ti.CharLimit = 64
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	titles := make(map[string]domain.Item)
	for _, item := range catalogSvc.Items() {
		titles[item.ID] = item
	}

	return Model{
		State:       StateBrowsing,
		CatalogSvc:  catalogSvc,
		PlaybackSvc: playbackSvc,
		observer:    NewChannelObserver(snapshots),
		SeekStep:    seekStep,
		Results:     catalogSvc.Filter(""),
		filter:      ti,
		titles:      titles,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.observer.Next(),
		TickCmd(100*time.Millisecond),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, TickCmd(100 * time.Millisecond)

	case SnapshotMsg:
		m.Session = msg.Snapshot
		return m, m.observer.Next()

	case SnapshotsClosedMsg:
		return m, nil

	case PlaybackStartedMsg:
		m.StatusMsg = "Playing " + msg.Item.Title
		m.StatusIsErr = false
		return m, ClearStatusCmd(2 * time.Second)

	case ProgressChangedMsg:
		m.StatusMsg = "Updated " + m.itemTitle(msg.ItemID)
		m.StatusIsErr = false
		return m, ClearStatusCmd(2 * time.Second)

	case StatusMsg:
		m.StatusMsg = msg.Message
		m.StatusIsErr = msg.IsError
		return m, ClearStatusCmd(3 * time.Second)

	case ErrMsg:
		m.StatusMsg = msg.Error()
		m.StatusIsErr = true
		return m, ClearStatusCmd(5 * time.Second)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

// PlayerVisible reports whether the full-screen player owns the screen
func (m Model) PlayerVisible() bool {
	switch m.Session.State {
	case service.StateLoading, service.StateActive:
		return true
	default:
		return false
	}
}

// SelectedItem returns the item under the cursor
func (m Model) SelectedItem() (domain.Item, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Results) {
		return domain.Item{}, false
	}
	return m.Results[m.Cursor].Item, true
}

func (m Model) itemTitle(id string) string {
	if item, ok := m.titles[id]; ok && item.Title != "" {
		return item.Title
	}
	return id
}

// sessionItem returns the item the session is about, attached or pending
func (m Model) sessionItem() domain.Item {
	id := m.Session.ItemID
	if id == "" {
		id = m.Session.PendingItemID
	}
	if item, ok := m.titles[id]; ok {
		return item
	}
	return domain.Item{ID: id, Title: id}
}

// listHeight is the number of rows available to the browse list
func (m Model) listHeight() int {
	h := m.Height - ChromeHeight
	if m.Filtering || m.filter.Value() != "" {
		h -= FilterHeight
	}
	if m.Session.State == service.StateMinimized {
		h -= MiniPlayerHeight
	}
	return max(h, 1)
}

func (m *Model) refilter() {
	m.Results = m.CatalogSvc.Filter(m.filter.Value())
	m.Cursor = 0
	m.Offset = 0
}

func (m *Model) moveCursor(delta int) {
	m.Cursor += delta
	m.clampCursor()
}

// clampCursor keeps the cursor in range and scrolled into view
func (m *Model) clampCursor() {
	if len(m.Results) == 0 {
		m.Cursor, m.Offset = 0, 0
		return
	}
	m.Cursor = max(0, min(m.Cursor, len(m.Results)-1))

	h := m.listHeight()
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+h {
		m.Offset = m.Cursor - h + 1
	}
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	if m.State == StateHelp {
		return m.renderHelp()
	}

	if m.PlayerVisible() {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderPlayer(m.Height-ChromeHeight),
			m.renderFooter(),
		)
	}

	var sections []string
	if m.Filtering || m.filter.Value() != "" {
		sections = append(sections, m.renderFilterLine())
	}
	sections = append(sections, m.renderList(m.listHeight()))
	if m.Session.State == service.StateMinimized {
		sections = append(sections, m.renderMiniPlayer())
	}
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

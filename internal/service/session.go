package service

import (
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

// State is the coordinator's lifecycle state
type State int

const (
	StateIdle      State = iota // no session
	StateLoading                // acquisition in flight or waiting for the first status event
	StateActive                 // resource attached, status flowing
	StateMinimized              // active, shown in the mini-player overlay
	StateClosing                // a previous resource is being released
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateMinimized:
		return "minimized"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the session taken on the coordinator loop.
type Snapshot struct {
	State         State
	Generation    uint64
	ItemID        string // empty when no resource is attached
	PendingItemID string // item being acquired, if any
	Loaded        bool   // the resource has reported loaded media
	Position      time.Duration
	Duration      time.Duration
	Playing       bool
	Minimized     bool
	Overlay       bool
}

// HasSession reports whether a resource is attached.
func (s Snapshot) HasSession() bool {
	return s.ItemID != ""
}

// session is the mutable session data. Only the coordinator loop touches it.
type session struct {
	itemID    string
	loaded    bool
	position  time.Duration
	duration  time.Duration
	playing   bool
	minimized bool
	overlay   bool
}

func (s *session) reset() {
	*s = session{}
}

// apply copies a loaded status report into the session.
func (s *session) apply(st domain.Status) {
	if !st.Loaded {
		return
	}
	s.loaded = true
	s.position = st.Position
	s.duration = st.Duration
	s.playing = st.Playing
}

// Minimized implies overlay; hiding the overlay implies restored.
func (s *session) minimize() {
	s.minimized = true
	s.overlay = true
}

func (s *session) restore() {
	s.minimized = false
	s.overlay = false
}

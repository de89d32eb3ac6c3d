package domain

import "time"

// WatchedThreshold is the fraction of an item's duration after which it counts as watched.
const WatchedThreshold = 0.95

// Progress is the saved watch position for one item.
type Progress struct {
	ItemID    string        `json:"item_id"`
	Position  time.Duration `json:"position"`
	Duration  time.Duration `json:"duration"`
	Watched   bool          `json:"watched"`
	UpdatedAt int64         `json:"updated_at"` // Unix timestamp
}

// ShouldResume returns true if playback should resume from the saved position
func (p Progress) ShouldResume() bool {
	return p.Position > 0 && !p.Watched
}

// IsWatched reports whether position is close enough to duration to count as watched
func IsWatched(position, duration time.Duration) bool {
	if duration <= 0 {
		return false
	}
	return float64(position) >= float64(duration)*WatchedThreshold
}

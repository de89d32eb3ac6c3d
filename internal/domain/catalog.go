package domain

import (
	"fmt"
	"time"
)

// ItemKind distinguishes feed content types
type ItemKind string

const (
	ItemKindVideo ItemKind = "video"
	ItemKindShort ItemKind = "short"
)

// Item represents a playable entry in the feed
type Item struct {
	ID       string        // Unique identifier within the catalog
	Title    string        // Display title
	Channel  string        // Publishing channel name
	Kind     ItemKind      // Video or short
	URL      string        // Playable location handed to the player
	Duration time.Duration // Known runtime, 0 if unknown
}

// GetDescription returns secondary info for list rendering
func (i Item) GetDescription() string {
	switch {
	case i.Duration <= 0:
		return i.Channel
	case i.Channel == "":
		return FormatDuration(i.Duration)
	}
	return fmt.Sprintf("%s · %s", i.Channel, FormatDuration(i.Duration))
}

// FormatDuration renders a duration as h:mm:ss or m:ss
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

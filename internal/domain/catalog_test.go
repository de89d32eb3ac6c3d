package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{59 * time.Second, "0:59"},
		{2*time.Minute + 5*time.Second, "2:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{1500 * time.Millisecond, "0:01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), tt.in.String())
	}
}

func TestItemDescription(t *testing.T) {
	assert.Equal(t, "Orbit · 2:00", Item{Channel: "Orbit", Duration: 2 * time.Minute}.GetDescription())
	assert.Equal(t, "Orbit", Item{Channel: "Orbit"}.GetDescription())
	assert.Equal(t, "2:00", Item{Duration: 2 * time.Minute}.GetDescription())
	assert.Empty(t, Item{}.GetDescription())
}

func TestProgressWatched(t *testing.T) {
	assert.False(t, IsWatched(time.Minute, 0))
	assert.False(t, IsWatched(90*time.Second, 100*time.Second))
	assert.True(t, IsWatched(95*time.Second, 100*time.Second))

	assert.True(t, Progress{Position: time.Second}.ShouldResume())
	assert.False(t, Progress{Position: time.Second, Watched: true}.ShouldResume())
	assert.False(t, Progress{}.ShouldResume())
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("socket gone")

	acq := &AcquisitionError{ItemID: "v1", Err: cause}
	assert.ErrorIs(t, acq, cause)
	assert.Contains(t, acq.Error(), "v1")

	cmd := &CommandError{Op: "seek", ItemID: "v1", Err: ErrSuperseded}
	assert.ErrorIs(t, cmd, ErrSuperseded)
	assert.Contains(t, cmd.Error(), "seek")
}

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/reel/internal/domain"
)

func TestProgressStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "reel.db")

	s, err := NewProgressStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveProgress(domain.Progress{ItemID: "v1", Position: 42 * time.Second, Duration: 2 * time.Minute, UpdatedAt: 100}))
	require.NoError(t, s.Close())

	s, err = NewProgressStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, ok := s.GetProgress("v1")
	require.True(t, ok)
	assert.Equal(t, domain.Progress{ItemID: "v1", Position: 42 * time.Second, Duration: 2 * time.Minute, UpdatedAt: 100}, got)

	_, ok = s.GetProgress("missing")
	assert.False(t, ok)
}

func TestProgressStore_ListAndDelete(t *testing.T) {
	for _, tc := range []struct {
		name string
		path func(t *testing.T) string
	}{
		{"memory", func(*testing.T) string { return "" }},
		{"bolt", func(t *testing.T) string { return filepath.Join(t.TempDir(), "reel.db") }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewProgressStore(tc.path(t))
			require.NoError(t, err)
			defer s.Close()

			require.NoError(t, s.SaveProgress(domain.Progress{ItemID: "old", Position: time.Second, UpdatedAt: 10}))
			require.NoError(t, s.SaveProgress(domain.Progress{ItemID: "new", Position: 2 * time.Second, UpdatedAt: 20}))

			list, err := s.ListProgress()
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "new", list[0].ItemID, "most recent first")
			assert.Equal(t, "old", list[1].ItemID)

			require.NoError(t, s.DeleteProgress("old"))
			list, err = s.ListProgress()
			require.NoError(t, err)
			require.Len(t, list, 1)
			_, ok := s.GetProgress("old")
			assert.False(t, ok)
		})
	}
}

func TestProgressStore_SaveStampsTimeAndRejectsEmptyID(t *testing.T) {
	s, err := NewProgressStore("")
	require.NoError(t, err)

	require.NoError(t, s.SaveProgress(domain.Progress{ItemID: "v1"}))
	got, ok := s.GetProgress("v1")
	require.True(t, ok)
	assert.NotZero(t, got.UpdatedAt)

	assert.ErrorIs(t, s.SaveProgress(domain.Progress{}), domain.ErrItemNotFound)
}

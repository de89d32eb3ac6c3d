package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/log"
)

func testCatalog() *CatalogService {
	return NewCatalogService([]domain.Item{
		{ID: "v1", Title: "Launch Day Recap", Channel: "Orbit", URL: "https://example.com/v1.mp4"},
		{ID: "v2", Title: "Deep Sea Cameras", Channel: "Blue", URL: "https://example.com/v2.mp4"},
		{ID: "s1", Title: "Cat vs Laser", Kind: domain.ItemKindShort},
	}, log.NullLogger())
}

func TestCatalog_FilterEmptyReturnsAll(t *testing.T) {
	got := testCatalog().Filter("  ")
	require.Len(t, got, 3)
	assert.Equal(t, "v1", got[0].Item.ID)
	assert.Empty(t, got[0].MatchedIndexes)
}

func TestCatalog_FilterFuzzy(t *testing.T) {
	got := testCatalog().Filter("dsc")
	require.NotEmpty(t, got)
	assert.Equal(t, "v2", got[0].Item.ID)
	assert.Len(t, got[0].MatchedIndexes, 3)

	assert.Empty(t, testCatalog().Filter("zzzz"))
}

func TestCatalog_Find(t *testing.T) {
	c := testCatalog()

	item, err := c.Find("s1")
	require.NoError(t, err)
	assert.Equal(t, "Cat vs Laser", item.Title)

	item, err = c.Find("launch")
	require.NoError(t, err)
	assert.Equal(t, "v1", item.ID)

	_, err = c.Find("nothing like it")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestCatalog_ResolvePlayableURL(t *testing.T) {
	c := testCatalog()
	ctx := context.Background()

	url, err := c.ResolvePlayableURL(ctx, "v2")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v2.mp4", url)

	_, err = c.ResolvePlayableURL(ctx, "s1")
	assert.Error(t, err, "items without a url cannot be played")

	_, err = c.ResolvePlayableURL(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

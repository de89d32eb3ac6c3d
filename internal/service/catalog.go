package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	rankfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/reel/internal/domain"
)

// FilterResult represents a filter hit with match metadata for highlighting
type FilterResult struct {
	Item           domain.Item
	MatchedIndexes []int // Character positions that matched
	Score          int   // Match score (higher is better)
}

// FilterIndex implements sahilm/fuzzy.Source for zero-allocation fuzzy matching
type FilterIndex struct {
	items       []domain.Item
	lowerTitles []string // Pre-computed lowercase titles
}

// String returns the searchable text at index i (implements fuzzy.Source)
func (idx *FilterIndex) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of items (implements fuzzy.Source)
func (idx *FilterIndex) Len() int { return len(idx.items) }

// CatalogService serves the feed: listing, filtering and URL resolution
type CatalogService struct {
	items  []domain.Item
	byID   map[string]int
	index  *FilterIndex
	logger *slog.Logger
}

// NewCatalogService creates a catalog over a fixed item list
func NewCatalogService(items []domain.Item, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}

	s := &CatalogService{
		items:  items,
		byID:   make(map[string]int, len(items)),
		index:  &FilterIndex{items: items, lowerTitles: make([]string, len(items))},
		logger: logger,
	}
	for i, item := range items {
		s.byID[item.ID] = i
		s.index.lowerTitles[i] = strings.ToLower(item.Title)
	}
	return s
}

// Items returns all catalog items in configuration order
func (s *CatalogService) Items() []domain.Item {
	return s.items
}

// Get returns the item with the given id
func (s *CatalogService) Get(id string) (domain.Item, error) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}
	return s.items[i], nil
}

// Filter returns items whose title fuzzy-matches query, best first.
// An empty query returns everything.
func (s *CatalogService) Filter(query string) []FilterResult {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]FilterResult, len(s.items))
		for i, item := range s.items {
			out[i] = FilterResult{Item: item}
		}
		return out
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), s.index)
	out := make([]FilterResult, len(matches))
	for i, m := range matches {
		out[i] = FilterResult{
			Item:           s.items[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return out
}

// Find resolves a user-supplied id or title to a single item.
// Exact ids win; otherwise the closest title by edit distance.
func (s *CatalogService) Find(query string) (domain.Item, error) {
	if item, err := s.Get(query); err == nil {
		return item, nil
	}

	titles := make([]string, len(s.items))
	for i, item := range s.items {
		titles[i] = item.Title
	}

	ranks := rankfuzzy.RankFindFold(query, titles)
	if len(ranks) == 0 {
		return domain.Item{}, fmt.Errorf("%w: %q", domain.ErrItemNotFound, query)
	}
	sort.Sort(ranks)

	best := s.items[ranks[0].OriginalIndex]
	s.logger.Debug("resolved catalog query", "query", query, "itemID", best.ID, "distance", ranks[0].Distance)
	return best, nil
}

// ResolvePlayableURL returns the location a player should open for itemID
func (s *CatalogService) ResolvePlayableURL(ctx context.Context, itemID string) (string, error) {
	item, err := s.Get(itemID)
	if err != nil {
		return "", err
	}
	if item.URL == "" {
		return "", fmt.Errorf("item %s has no playable url", itemID)
	}
	return item.URL, nil
}

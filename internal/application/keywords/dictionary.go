package keywords

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/asimaster/pricerank/internal/domain/keywordgen"
	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

const dictionaryTTL = 24 * time.Hour

// DictionaryCache serves the DB-derived brand/type dictionary with a 24-hour
// in-process TTL. A refresh failure falls back to the stale copy (or an empty
// dictionary) so keyword suggestion keeps working without the database.
type DictionaryCache struct {
	rankings ranking.RankingRepository
	clock    shared.Clock

	mu        sync.Mutex
	cached    *keywordgen.Dictionary
	fetchedAt time.Time
}

func NewDictionaryCache(rankings ranking.RankingRepository, clock shared.Clock) *DictionaryCache {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &DictionaryCache{rankings: rankings, clock: clock}
}

// Get returns the current dictionary, refreshing it when the TTL has lapsed
func (c *DictionaryCache) Get(ctx context.Context) *keywordgen.Dictionary {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.clock.Now().Sub(c.fetchedAt) < dictionaryTTL {
		return c.cached
	}

	dict, err := c.load(ctx)
	if err != nil {
		log.Printf("[keywords] dictionary refresh failed: %v", err)
		if c.cached != nil {
			return c.cached
		}
		return &keywordgen.Dictionary{}
	}
	c.cached = dict
	c.fetchedAt = c.clock.Now()
	return dict
}

func (c *DictionaryCache) load(ctx context.Context) (*keywordgen.Dictionary, error) {
	brands, err := c.rankings.DistinctBrands(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := c.rankings.DistinctCategories(ctx)
	if err != nil {
		return nil, err
	}

	dict := &keywordgen.Dictionary{
		Brands: make(map[string]bool, len(brands)),
		Types:  make(map[string]bool, len(categories)),
	}
	for _, b := range brands {
		if b != "" {
			dict.Brands[b] = true
		}
	}
	for _, cat := range categories {
		if cat != "" {
			dict.Types[cat] = true
		}
	}
	return dict, nil
}

package crawl

import (
	"context"
	"fmt"
	"sort"

	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/ranking"
)

// bucket groups keywords that share (lowercase-trimmed text, sort_mode); the
// marketplace is called once per bucket and every keyword in the bucket
// receives the identical listing set.
type bucket struct {
	text     string
	sortMode catalog.SortMode
	keywords []*catalog.Keyword

	// fetch outcome
	listings   []*ranking.Listing
	fetchErr   error
	durationMs int
}

// runPlan is everything loaded up front for one run so the fetch and persist
// phases never issue N+1 queries.
type runPlan struct {
	tenant   *catalog.Tenant
	products map[int]*catalog.Product
	buckets  []*bucket

	blacklist     map[int]map[string]bool // productID → listing ids
	includes      map[int]map[string]bool
	shipOverrides map[int]map[string]int
	ownListingIDs map[string]bool // tenant-wide
}

// buildPlan deduplicates keywords into buckets and batch-loads the relevance
// sets for every product the keywords belong to.
func (c *Coordinator) buildPlan(ctx context.Context, tenant *catalog.Tenant, keywords []*catalog.Keyword) (*runPlan, error) {
	byKey := make(map[string]*bucket)
	var order []string
	productIDs := make(map[int]bool)

	for _, kw := range keywords {
		productIDs[kw.ProductID] = true
		key := kw.DedupKey()
		b, ok := byKey[key]
		if !ok {
			b = &bucket{text: kw.Text, sortMode: kw.SortMode}
			byKey[key] = b
			order = append(order, key)
		}
		b.keywords = append(b.keywords, kw)
	}
	sort.Strings(order)

	ids := make([]int, 0, len(productIDs))
	for id := range productIDs {
		ids = append(ids, id)
	}

	products, err := c.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	blacklist, err := c.blacklists.MapByProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load blacklists: %w", err)
	}
	includes, err := c.includes.MapByProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load include overrides: %w", err)
	}
	shipOverrides, err := c.shipOverrides.MapByProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load shipping overrides: %w", err)
	}

	// Own listing ids span the whole tenant so sibling SKUs never count as
	// competitors of each other.
	ownIDs := make(map[string]bool)
	tenantProducts, err := c.products.ListActiveByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant products: %w", err)
	}
	for _, p := range tenantProducts {
		if p.OwnListingID != "" {
			ownIDs[p.OwnListingID] = true
		}
	}

	plan := &runPlan{
		tenant:        tenant,
		products:      products,
		blacklist:     blacklist,
		includes:      includes,
		shipOverrides: shipOverrides,
		ownListingIDs: ownIDs,
	}
	for _, key := range order {
		plan.buckets = append(plan.buckets, byKey[key])
	}
	return plan, nil
}

// relevanceContext assembles the classifier inputs for one product
func (p *runPlan) relevanceContext(productID int) *ranking.RelevanceContext {
	rc := &ranking.RelevanceContext{
		Blacklist:        p.blacklist[productID],
		IncludeOverrides: p.includes[productID],
		OwnListingIDs:    p.ownListingIDs,
	}
	if rc.Blacklist == nil {
		rc.Blacklist = map[string]bool{}
	}
	if rc.IncludeOverrides == nil {
		rc.IncludeOverrides = map[string]bool{}
	}
	return rc
}

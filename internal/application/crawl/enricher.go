package crawl

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

const (
	retryJitterMin = 200 * time.Millisecond
	retryJitterMax = 400 * time.Millisecond
)

type shippingResult struct {
	fee     int
	feeType ranking.ShippingFeeType
}

// inflight is one in-progress page fetch; waiters block on done and then
// read res.
type inflight struct {
	done chan struct{}
	res  shippingResult
}

// shippingEnricher fills in shipping fees for the listings of one crawl run.
// The memo table is scoped to the run: a listing id seen under one keyword
// short-circuits the page fetch for every later keyword in the same run, and
// the pending table collapses concurrent requests for the same listing id
// into a single fetch whose result every caller shares. Only paid and free
// outcomes are memoized so a later keyword can retry a listing that answered
// unknown or error.
type shippingEnricher struct {
	client ranking.SearchClient
	sem    *semaphore.Weighted
	clock  shared.Clock

	mu      sync.Mutex
	memo    map[string]shippingResult
	pending map[string]*inflight
}

func newShippingEnricher(client ranking.SearchClient, concurrency int, clock shared.Clock) *shippingEnricher {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &shippingEnricher{
		client:  client,
		sem:     semaphore.NewWeighted(int64(concurrency)),
		clock:   clock,
		memo:    make(map[string]shippingResult),
		pending: make(map[string]*inflight),
	}
}

// Enrich resolves the shipping fee of every listing with a listing id,
// bounded by the enricher's semaphore. Page-fetch errors get a single retry
// after a short random jitter.
func (e *shippingEnricher) Enrich(ctx context.Context, listings []*ranking.Listing) {
	var wg sync.WaitGroup
	for _, l := range listings {
		if l.ListingID == "" {
			continue
		}

		e.mu.Lock()
		if res, ok := e.memo[l.ListingID]; ok {
			e.mu.Unlock()
			l.ShippingFee = res.fee
			l.ShippingFeeType = res.feeType
			continue
		}
		if fl, ok := e.pending[l.ListingID]; ok {
			// Another goroutine is already scraping this listing; wait for
			// its result instead of fetching the page a second time.
			e.mu.Unlock()
			wg.Add(1)
			go func(l *ranking.Listing, fl *inflight) {
				defer wg.Done()
				<-fl.done
				l.ShippingFee = fl.res.fee
				l.ShippingFeeType = fl.res.feeType
			}(l, fl)
			continue
		}
		fl := &inflight{done: make(chan struct{})}
		e.pending[l.ListingID] = fl
		e.mu.Unlock()

		if err := e.sem.Acquire(ctx, 1); err != nil {
			// Context is gone; release the claim and let the launched
			// goroutines finish before callers read the listings.
			e.settle(l, fl)
			break
		}
		wg.Add(1)
		go func(l *ranking.Listing, fl *inflight) {
			defer wg.Done()
			defer e.sem.Release(1)
			e.enrichOne(ctx, l)
			e.settle(l, fl)
		}(l, fl)
	}
	wg.Wait()

	counts := make(map[ranking.ShippingFeeType]int)
	for _, l := range listings {
		counts[l.ShippingFeeType]++
	}
	log.Printf("[crawl] shipping enrichment: paid=%d free=%d unknown=%d error=%d",
		counts[ranking.ShippingPaid], counts[ranking.ShippingFree],
		counts[ranking.ShippingUnknown], counts[ranking.ShippingError])
}

func (e *shippingEnricher) enrichOne(ctx context.Context, l *ranking.Listing) {
	fee, feeType := e.client.FetchShipping(ctx, l.URL)
	if feeType == ranking.ShippingError {
		e.clock.Sleep(retryJitterMin + time.Duration(rand.Int63n(int64(retryJitterMax-retryJitterMin))))
		fee, feeType = e.client.FetchShipping(ctx, l.URL)
	}

	l.ShippingFee = fee
	l.ShippingFeeType = feeType

	if feeType == ranking.ShippingPaid || feeType == ranking.ShippingFree {
		e.store(l.ListingID, shippingResult{fee: fee, feeType: feeType})
	}
}

// settle publishes the fetch outcome to waiters and releases the in-flight
// claim, so a later keyword can retry an unknown or error outcome.
func (e *shippingEnricher) settle(l *ranking.Listing, fl *inflight) {
	fl.res = shippingResult{fee: l.ShippingFee, feeType: l.ShippingFeeType}
	e.mu.Lock()
	delete(e.pending, l.ListingID)
	e.mu.Unlock()
	close(fl.done)
}

func (e *shippingEnricher) store(listingID string, res shippingResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.memo[listingID] = res
}

package crawl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

// stubShippingClient serves canned shipping answers and counts page fetches.
// When release is set, fetches close started once and then block until
// release is closed, so tests can hold a fetch open.
type stubShippingClient struct {
	mu      sync.Mutex
	calls   map[string]int
	answers map[string][]shippingResult // consumed in order; last one repeats

	started     chan struct{}
	release     chan struct{}
	startedOnce sync.Once
}

func (s *stubShippingClient) Search(ctx context.Context, keyword string, sort catalog.SortMode) ([]*ranking.Listing, error) {
	return nil, nil
}

func (s *stubShippingClient) FetchShipping(ctx context.Context, listingURL string) (int, ranking.ShippingFeeType) {
	s.mu.Lock()
	s.calls[listingURL]++
	res := shippingResult{feeType: ranking.ShippingUnknown}
	if answers := s.answers[listingURL]; len(answers) > 0 {
		res = answers[0]
		if len(answers) > 1 {
			s.answers[listingURL] = answers[1:]
		}
	}
	s.mu.Unlock()

	if s.release != nil {
		s.startedOnce.Do(func() { close(s.started) })
		<-s.release
	}
	return res.fee, res.feeType
}

func (s *stubShippingClient) callCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

func newStubShippingClient() *stubShippingClient {
	return &stubShippingClient{
		calls:   make(map[string]int),
		answers: make(map[string][]shippingResult),
	}
}

func TestShippingEnricher_MemoizesWithinRun(t *testing.T) {
	client := newStubShippingClient()
	client.answers["u-a"] = []shippingResult{{fee: 3000, feeType: ranking.ShippingPaid}}
	clock := shared.NewMockClock(time.Now())
	enricher := newShippingEnricher(client, 2, clock)

	first := []*ranking.Listing{{ListingID: "A", URL: "u-a"}}
	enricher.Enrich(context.Background(), first)

	// Same listing under a later keyword of the same run
	second := []*ranking.Listing{{ListingID: "A", URL: "u-a"}}
	enricher.Enrich(context.Background(), second)

	assert.Equal(t, 1, client.callCount("u-a"))
	assert.Equal(t, 3000, second[0].ShippingFee)
	assert.Equal(t, ranking.ShippingPaid, second[0].ShippingFeeType)
}

func TestShippingEnricher_UnknownIsNotMemoized(t *testing.T) {
	client := newStubShippingClient()
	client.answers["u-b"] = []shippingResult{
		{feeType: ranking.ShippingUnknown},
		{fee: 0, feeType: ranking.ShippingFree},
	}
	clock := shared.NewMockClock(time.Now())
	enricher := newShippingEnricher(client, 2, clock)

	first := []*ranking.Listing{{ListingID: "B", URL: "u-b"}}
	enricher.Enrich(context.Background(), first)
	require.Equal(t, ranking.ShippingUnknown, first[0].ShippingFeeType)

	// A later keyword retries the listing instead of reusing unknown
	second := []*ranking.Listing{{ListingID: "B", URL: "u-b"}}
	enricher.Enrich(context.Background(), second)

	assert.Equal(t, 2, client.callCount("u-b"))
	assert.Equal(t, ranking.ShippingFree, second[0].ShippingFeeType)
}

func TestShippingEnricher_RetriesErrorOnce(t *testing.T) {
	client := newStubShippingClient()
	client.answers["u-c"] = []shippingResult{
		{feeType: ranking.ShippingError},
		{fee: 2500, feeType: ranking.ShippingPaid},
	}
	clock := shared.NewMockClock(time.Now())
	enricher := newShippingEnricher(client, 2, clock)

	listings := []*ranking.Listing{{ListingID: "C", URL: "u-c"}}
	enricher.Enrich(context.Background(), listings)

	assert.Equal(t, 2, client.callCount("u-c"))
	assert.Equal(t, 2500, listings[0].ShippingFee)
	assert.Equal(t, ranking.ShippingPaid, listings[0].ShippingFeeType)
}

func TestShippingEnricher_ConcurrentCallersShareOneFetch(t *testing.T) {
	client := newStubShippingClient()
	client.answers["u-e"] = []shippingResult{{fee: 3000, feeType: ranking.ShippingPaid}}
	client.started = make(chan struct{})
	client.release = make(chan struct{})
	clock := shared.NewMockClock(time.Now())
	enricher := newShippingEnricher(client, 2, clock)

	// Two keyword buckets of the same run carry the same listing id
	first := []*ranking.Listing{{ListingID: "E", URL: "u-e"}}
	second := []*ranking.Listing{{ListingID: "E", URL: "u-e"}}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		enricher.Enrich(context.Background(), first)
	}()
	<-client.started

	// The second bucket arrives while the first fetch is still on the wire
	wg.Add(1)
	go func() {
		defer wg.Done()
		enricher.Enrich(context.Background(), second)
	}()
	time.Sleep(20 * time.Millisecond)
	close(client.release)
	wg.Wait()

	assert.Equal(t, 1, client.callCount("u-e"))
	assert.Equal(t, 3000, first[0].ShippingFee)
	assert.Equal(t, 3000, second[0].ShippingFee)
	assert.Equal(t, ranking.ShippingPaid, second[0].ShippingFeeType)
}

func TestShippingEnricher_CancelledContextStopsCleanly(t *testing.T) {
	client := newStubShippingClient()
	clock := shared.NewMockClock(time.Now())
	enricher := newShippingEnricher(client, 2, clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	listings := []*ranking.Listing{{ListingID: "F", URL: "u-f"}, {ListingID: "G", URL: "u-g"}}
	enricher.Enrich(ctx, listings)

	assert.Equal(t, 0, client.callCount("u-f"))
	assert.Equal(t, ranking.ShippingFeeType(""), listings[0].ShippingFeeType)
}

func TestShippingEnricher_SkipsListingsWithoutID(t *testing.T) {
	client := newStubShippingClient()
	clock := shared.NewMockClock(time.Now())
	enricher := newShippingEnricher(client, 2, clock)

	listings := []*ranking.Listing{{URL: "u-d"}}
	enricher.Enrich(context.Background(), listings)

	assert.Equal(t, 0, client.callCount("u-d"))
	assert.Equal(t, ranking.ShippingFeeType(""), listings[0].ShippingFeeType)
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/ranking"
)

const (
	defaultSearchURL       = "https://openapi.naver.com/v1/search/shop.json"
	defaultSearchTimeout   = 10 * time.Second
	defaultShippingTimeout = 8 * time.Second
	defaultDisplay         = 10

	// mobileUserAgent is required for the store pages to serve the mobile
	// markup the shipping scraper parses.
	mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// ClientConfig carries the marketplace client settings
type ClientConfig struct {
	ClientID        string
	ClientSecret    string
	SearchURL       string
	SearchTimeout   time.Duration
	ShippingTimeout time.Duration

	// Token bucket for outbound calls, shared by search and shipping
	RateLimitRequests int
	RateLimitBurst    int
}

// MarketplaceClient implements ranking.SearchClient against the shopping
// search API and the store product pages. It is shared across crawl runs and
// safe for concurrent use; the bounded connection pool is the sole
// back-pressure onto the upstream.
type MarketplaceClient struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	cfg         ClientConfig
	extractors  []shippingExtractor
}

// NewMarketplaceClient creates a client with a keepalive connection pool
// capped at 10 connections per host.
func NewMarketplaceClient(cfg ClientConfig) *MarketplaceClient {
	if cfg.SearchURL == "" {
		cfg.SearchURL = defaultSearchURL
	}
	if cfg.SearchTimeout == 0 {
		cfg.SearchTimeout = defaultSearchTimeout
	}
	if cfg.ShippingTimeout == 0 {
		cfg.ShippingTimeout = defaultShippingTimeout
	}
	if cfg.RateLimitRequests <= 0 {
		cfg.RateLimitRequests = 5
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = cfg.RateLimitRequests
	}
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &MarketplaceClient{
		httpClient: &http.Client{
			Transport: transport,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRequests), cfg.RateLimitBurst),
		cfg:         cfg,
		extractors:  []shippingExtractor{currentShapeExtractor{}, legacyShapeExtractor{}},
	}
}

// sortParam maps the domain sort mode to the API's sort values
func sortParam(sort catalog.SortMode) string {
	if sort == catalog.SortPriceAsc {
		return "asc"
	}
	return "sim"
}

// Search performs one search call and returns listings in marketplace order
// with ranks 1..10. Shipping fees are left at unknown; the enricher fills
// them in.
func (c *MarketplaceClient) Search(ctx context.Context, keyword string, sort catalog.SortMode) ([]*ranking.Listing, error) {
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return nil, NewCredentialsMissingError()
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.SearchTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("query", keyword)
	params.Set("display", strconv.Itoa(defaultDisplay))
	params.Set("sort", sortParam(sort))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.SearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("X-Naver-Client-Id", c.cfg.ClientID)
	req.Header.Set("X-Naver-Client-Secret", c.cfg.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, NewSearchFailedError(resp.StatusCode)
	}

	var response struct {
		Total int `json:"total"`
		Items []struct {
			Title       string `json:"title"`
			Link        string `json:"link"`
			Image       string `json:"image"`
			Lprice      string `json:"lprice"`
			Hprice      string `json:"hprice"`
			MallName    string `json:"mallName"`
			ProductID   string `json:"productId"`
			ProductType string `json:"productType"`
			Brand       string `json:"brand"`
			Maker       string `json:"maker"`
			Category1   string `json:"category1"`
			Category2   string `json:"category2"`
			Category3   string `json:"category3"`
			Category4   string `json:"category4"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if len(response.Items) == 0 {
		return nil, NewNoResultsError(keyword)
	}

	listings := make([]*ranking.Listing, 0, len(response.Items))
	for i, item := range response.Items {
		lprice, _ := strconv.Atoi(item.Lprice)
		hprice, _ := strconv.Atoi(item.Hprice)
		listings = append(listings, &ranking.Listing{
			Rank:            i + 1,
			Title:           stripTags(item.Title),
			Price:           lprice,
			HighPrice:       hprice,
			Mall:            item.MallName,
			ListingID:       item.ProductID,
			URL:             item.Link,
			ImageURL:        item.Image,
			Brand:           item.Brand,
			Maker:           item.Maker,
			ProductType:     item.ProductType,
			Category1:       item.Category1,
			Category2:       item.Category2,
			Category3:       item.Category3,
			Category4:       item.Category4,
			ShippingFee:     0,
			ShippingFeeType: ranking.ShippingUnknown,
		})
	}
	return listings, nil
}

func stripTags(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

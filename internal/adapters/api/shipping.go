package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/asimaster/pricerank/internal/domain/ranking"
)

// allowedStoreHosts is the marketplace-store host set; shipping is only
// scraped from product pages on these hosts.
var allowedStoreHosts = map[string]bool{
	"smartstore.naver.com":   true,
	"m.smartstore.naver.com": true,
	"brand.naver.com":        true,
}

const (
	statePreloadPrefix = "window.__PRELOADED_STATE__="
	scriptClose        = "</script>"

	// errorTitleMarker appears in the <title> of the store's error page
	errorTitleMarker = "에러"
)

// shippingExtractor reads the shipping object out of the page's preloaded
// state. The vendor page has shipped two shapes; each is one extractor so a
// new shape can be added without changing call sites.
type shippingExtractor interface {
	extract(state map[string]json.RawMessage) (fee int, feeType ranking.ShippingFeeType, ok bool)
}

// currentShapeExtractor reads product.A.productDeliveryInfo
type currentShapeExtractor struct{}

func (currentShapeExtractor) extract(state map[string]json.RawMessage) (int, ranking.ShippingFeeType, bool) {
	raw, ok := state["product"]
	if !ok {
		return 0, ranking.ShippingError, false
	}
	var product struct {
		A struct {
			ProductDeliveryInfo *deliveryInfo `json:"productDeliveryInfo"`
		} `json:"A"`
	}
	if err := json.Unmarshal(raw, &product); err != nil || product.A.ProductDeliveryInfo == nil {
		return 0, ranking.ShippingError, false
	}
	return product.A.ProductDeliveryInfo.result()
}

// legacyShapeExtractor reads the older top-level productDeliveryInfo
type legacyShapeExtractor struct{}

func (legacyShapeExtractor) extract(state map[string]json.RawMessage) (int, ranking.ShippingFeeType, bool) {
	raw, ok := state["productDeliveryInfo"]
	if !ok {
		return 0, ranking.ShippingError, false
	}
	var info deliveryInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return 0, ranking.ShippingError, false
	}
	return info.result()
}

type deliveryInfo struct {
	DeliveryFeeType string `json:"deliveryFeeType"`
	BaseFee         int    `json:"baseFee"`
	DeliveryFee     int    `json:"deliveryFee"`
}

func (d *deliveryInfo) result() (int, ranking.ShippingFeeType, bool) {
	switch strings.ToUpper(d.DeliveryFeeType) {
	case "FREE":
		return 0, ranking.ShippingFree, true
	case "PAID", "CONDITIONAL_FREE":
		fee := d.BaseFee
		if fee == 0 {
			fee = d.DeliveryFee
		}
		return fee, ranking.ShippingPaid, true
	}
	return 0, ranking.ShippingError, false
}

// FetchShipping scrapes a listing's product page for its shipping fee. URLs
// whose host is not in the allowed store set return (0, unknown) without a
// request. Parse failures return (0, error).
func (c *MarketplaceClient) FetchShipping(ctx context.Context, listingURL string) (int, ranking.ShippingFeeType) {
	parsed, err := url.Parse(listingURL)
	if err != nil || !allowedStoreHosts[parsed.Hostname()] {
		return 0, ranking.ShippingUnknown
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ShippingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return 0, ranking.ShippingError
	}
	req.Header.Set("User-Agent", mobileUserAgent)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, ranking.ShippingError
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return 0, ranking.ShippingError
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, ranking.ShippingError
	}

	return c.parseShippingPage(string(body))
}

// parseShippingPage locates the embedded state preload and tries the known
// shapes in order (current, then legacy).
func (c *MarketplaceClient) parseShippingPage(html string) (int, ranking.ShippingFeeType) {
	if title := pageTitle(html); strings.Contains(title, errorTitleMarker) {
		return 0, ranking.ShippingError
	}

	blob, err := extractPreloadedState(html)
	if err != nil {
		return 0, ranking.ShippingError
	}

	var state map[string]json.RawMessage
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return 0, ranking.ShippingError
	}

	for _, ex := range c.extractors {
		if fee, feeType, ok := ex.extract(state); ok {
			return fee, feeType
		}
	}
	return 0, ranking.ShippingError
}

func pageTitle(html string) string {
	start := strings.Index(html, "<title>")
	if start < 0 {
		return ""
	}
	rest := html[start+len("<title>"):]
	end := strings.Index(rest, "</title>")
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// extractPreloadedState returns the balanced JSON object assigned to the
// state preload, terminated before the closing script tag.
func extractPreloadedState(html string) (string, error) {
	start := strings.Index(html, statePreloadPrefix)
	if start < 0 {
		return "", fmt.Errorf("state preload not found")
	}
	rest := html[start+len(statePreloadPrefix):]
	if end := strings.Index(rest, scriptClose); end >= 0 {
		rest = rest[:end]
	}

	open := strings.IndexByte(rest, '{')
	if open < 0 {
		return "", fmt.Errorf("state preload has no object")
	}

	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(rest); i++ {
		ch := rest[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[open : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("state preload object is unbalanced")
}

package ranking

import (
	"strings"

	"github.com/asimaster/pricerank/internal/domain/catalog"
)

// Reason records why the classifier accepted or rejected a listing. The
// string forms are persisted verbatim on Ranking rows.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonManualBlacklist  Reason = "manual_blacklist"
	ReasonMyProduct        Reason = "my_product"
	ReasonIncludedOverride Reason = "included_override"
	ReasonPriceFilterMin   Reason = "price_filter_min"
	ReasonPriceFilterMax   Reason = "price_filter_max"
	ReasonModelCode        Reason = "model_code"
	ReasonSpecKeywords     Reason = "spec_keywords"
)

// RelevanceContext carries the per-product sets the classifier consults.
// All sets key on listing_id.
type RelevanceContext struct {
	Blacklist        map[string]bool
	IncludeOverrides map[string]bool
	// OwnListingIDs spans the whole tenant so the tenant's other SKUs are
	// excluded from competitor stats, not just the product under test.
	OwnListingIDs map[string]bool
}

// Classify decides whether a listing competes with the given product.
// It is a pure total function; the check order is fixed and the first match
// wins.
func Classify(l *Listing, p *catalog.Product, rc *RelevanceContext) (bool, Reason) {
	if l.ListingID != "" {
		if rc.Blacklist[l.ListingID] {
			return false, ReasonManualBlacklist
		}
		if rc.OwnListingIDs[l.ListingID] {
			return false, ReasonMyProduct
		}
		if rc.IncludeOverrides[l.ListingID] {
			return true, ReasonIncludedOverride
		}
	}

	total := l.Total()
	if p.PriceFilterMinPct != nil && total < p.PriceFloor() {
		return false, ReasonPriceFilterMin
	}
	if p.PriceFilterMaxPct != nil && total > p.PriceCeiling() {
		return false, ReasonPriceFilterMax
	}

	if p.ModelCode != "" && !containsFold(l.Title, p.ModelCode) {
		return false, ReasonModelCode
	}

	for _, kw := range p.SpecKeywords {
		if kw != "" && !containsFold(l.Title, kw) {
			return false, ReasonSpecKeywords
		}
	}

	return true, ReasonNone
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

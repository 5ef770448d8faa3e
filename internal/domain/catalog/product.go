package catalog

import (
	"time"

	"github.com/asimaster/pricerank/internal/domain/shared"
)

// Product is one catalog entry of a tenant. All monetary values are integers
// in the minor currency unit.
type Product struct {
	ID                int
	TenantID          int
	Name              string
	Category          string
	CostPrice         int
	SellingPrice      int
	OwnListingID      string // the tenant's own listing on the marketplace, if registered
	ModelCode         string
	SpecKeywords      []string // required substrings for a listing to count as a competitor
	PriceFilterMinPct *float64 // percentage of SellingPrice
	PriceFilterMaxPct *float64
	PriceLocked       bool
	IsActive          bool
	CreatedAt         time.Time
}

// Validate checks the product's price invariants
func (p *Product) Validate() error {
	if p.CostPrice < 0 {
		return shared.NewValidationError("cost_price", "must not be negative")
	}
	if p.SellingPrice < 0 {
		return shared.NewValidationError("selling_price", "must not be negative")
	}
	return nil
}

// PriceFloor returns the minimum acceptable competitor total, or 0 if no
// minimum price filter is configured.
func (p *Product) PriceFloor() int {
	if p.PriceFilterMinPct == nil {
		return 0
	}
	return int(float64(p.SellingPrice) * *p.PriceFilterMinPct / 100)
}

// PriceCeiling returns the maximum acceptable competitor total, or 0 if no
// maximum price filter is configured.
func (p *Product) PriceCeiling() int {
	if p.PriceFilterMaxPct == nil {
		return 0
	}
	return int(float64(p.SellingPrice) * *p.PriceFilterMaxPct / 100)
}

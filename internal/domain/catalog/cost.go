package catalog

import (
	"context"
	"time"
)

// CostType discriminates how a cost item is applied to the selling price
type CostType string

const (
	CostPercent CostType = "percent"
	CostFixed   CostType = "fixed"
)

// CostItem is one named cost component of a product (marketplace commission,
// packaging, shipping subsidy and so on).
type CostItem struct {
	ID        int
	ProductID int
	Name      string
	Type      CostType
	Value     float64
	SortOrder int
	CreatedAt time.Time
}

// Calculated resolves the item against a selling price, in won
func (c *CostItem) Calculated(sellingPrice int) int {
	if c.Type == CostPercent {
		return int(float64(sellingPrice) * c.Value / 100)
	}
	return int(c.Value)
}

// CostPresetItem is one entry of a reusable cost template
type CostPresetItem struct {
	Name  string   `json:"name"`
	Type  CostType `json:"type"`
	Value float64  `json:"value"`
}

// CostPreset is a tenant-owned cost template applied to products in bulk
type CostPreset struct {
	ID        int
	TenantID  int
	Name      string
	Items     []CostPresetItem
	CreatedAt time.Time
}

// Margin is the net-margin breakdown for one product at one selling price
type Margin struct {
	SellingPrice  int     `json:"selling_price"`
	CostPrice     int     `json:"cost_price"`
	TotalCosts    int     `json:"total_costs"`
	NetMargin     int     `json:"net_margin"`
	MarginPercent float64 `json:"margin_percent"`
}

// ComputeMargin sums the cost items against a selling price. Percent items
// resolve against the given price, so the same items can simulate margins at
// hypothetical prices.
func ComputeMargin(sellingPrice, costPrice int, items []*CostItem) Margin {
	totalCosts := 0
	for _, item := range items {
		totalCosts += item.Calculated(sellingPrice)
	}
	net := sellingPrice - costPrice - totalCosts
	pct := 0.0
	if sellingPrice > 0 {
		pct = float64(net) / float64(sellingPrice) * 100
	}
	return Margin{
		SellingPrice:  sellingPrice,
		CostPrice:     costPrice,
		TotalCosts:    totalCosts,
		NetMargin:     net,
		MarginPercent: pct,
	}
}

// CostItemRepository defines persistence for cost items
type CostItemRepository interface {
	ListByProduct(ctx context.Context, productID int) ([]*CostItem, error)
	// MapByProducts returns cost items per product in one batched query
	MapByProducts(ctx context.Context, productIDs []int) (map[int][]*CostItem, error)
	Save(ctx context.Context, item *CostItem) error
	// ReplaceForProduct swaps the product's full item list atomically
	ReplaceForProduct(ctx context.Context, productID int, items []*CostItem) error
	Delete(ctx context.Context, id int) error
}

// CostPresetRepository defines persistence for cost presets
type CostPresetRepository interface {
	ListByTenant(ctx context.Context, tenantID int) ([]*CostPreset, error)
	Save(ctx context.Context, preset *CostPreset) error
	Delete(ctx context.Context, id int) error
}

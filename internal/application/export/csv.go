package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/ranking"
)

var columns = []string{
	"name", "category", "selling_price", "lowest_total", "gap", "gap_pct",
	"rank", "margin", "margin_pct", "status", "price_locked",
}

// Service writes the tenant's competitive snapshot as CSV: one row per
// active product, derived from the latest crawl of each keyword.
type Service struct {
	products   catalog.ProductRepository
	keywords   catalog.KeywordRepository
	costItems  catalog.CostItemRepository
	rankings   ranking.RankingRepository
	blacklists ranking.BlacklistRepository
}

func NewService(
	products catalog.ProductRepository,
	keywords catalog.KeywordRepository,
	costItems catalog.CostItemRepository,
	rankings ranking.RankingRepository,
	blacklists ranking.BlacklistRepository,
) *Service {
	return &Service{
		products:   products,
		keywords:   keywords,
		costItems:  costItems,
		rankings:   rankings,
		blacklists: blacklists,
	}
}

// WriteTenantCSV streams the export for one tenant
func (s *Service) WriteTenantCSV(ctx context.Context, tenantID int, out io.Writer) error {
	products, err := s.products.ListActiveByTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	productIDs := make([]int, 0, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
	}
	costs, err := s.costItems.MapByProducts(ctx, productIDs)
	if err != nil {
		return err
	}
	blacklist, err := s.blacklists.MapByProducts(ctx, productIDs)
	if err != nil {
		return err
	}

	w := csv.NewWriter(out)
	if err := w.Write(columns); err != nil {
		return err
	}
	for _, p := range products {
		row, err := s.productRow(ctx, p, costs[p.ID], blacklist[p.ID])
		if err != nil {
			return err
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Service) productRow(ctx context.Context, p *catalog.Product, costs []*catalog.CostItem, blocked map[string]bool) ([]string, error) {
	keywords, err := s.keywords.ListActiveByProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	keywordIDs := make([]int, 0, len(keywords))
	for _, kw := range keywords {
		keywordIDs = append(keywordIDs, kw.ID)
	}

	var latest map[int][]*ranking.Ranking
	if len(keywordIDs) > 0 {
		latest, err = s.rankings.LatestByKeywords(ctx, keywordIDs)
		if err != nil {
			return nil, err
		}
	}

	lowest, ownRank := competitorSnapshot(latest, p, blocked)

	gap, gapPct := 0, 0.0
	if lowest > 0 {
		gap = p.SellingPrice - lowest
		gapPct = float64(gap) / float64(lowest) * 100
	}
	margin := catalog.ComputeMargin(p.SellingPrice, p.CostPrice, costs)

	locked := "N"
	if p.PriceLocked {
		locked = "Y"
	}
	return []string{
		p.Name,
		p.Category,
		strconv.Itoa(p.SellingPrice),
		strconv.Itoa(lowest),
		strconv.Itoa(gap),
		fmt.Sprintf("%.1f", gapPct),
		strconv.Itoa(ownRank),
		strconv.Itoa(margin.NetMargin),
		fmt.Sprintf("%.1f", margin.MarginPercent),
		competitiveStatus(p.SellingPrice, lowest),
		locked,
	}, nil
}

// competitorSnapshot reduces the latest rankings to the cheapest relevant
// competitor total and the tenant's best own rank. Zeroes mean "not seen".
func competitorSnapshot(latest map[int][]*ranking.Ranking, p *catalog.Product, blocked map[string]bool) (lowest, ownRank int) {
	for _, rows := range latest {
		for _, row := range rows {
			own := row.IsOwnStore || (row.ListingID != "" && row.ListingID == p.OwnListingID)
			if own {
				if ownRank == 0 || row.Rank < ownRank {
					ownRank = row.Rank
				}
				continue
			}
			if !row.IsRelevant || blocked[row.ListingID] {
				continue
			}
			if lowest == 0 || row.Total() < lowest {
				lowest = row.Total()
			}
		}
	}
	return lowest, ownRank
}

// competitiveStatus buckets the price position: winning at or below the
// lowest competitor, close within 3 percent above it, losing beyond.
func competitiveStatus(sellingPrice, lowest int) string {
	if lowest == 0 || sellingPrice <= lowest {
		return "winning"
	}
	gapPct := float64(sellingPrice-lowest) / float64(lowest) * 100
	if gapPct <= 3.0 {
		return "close"
	}
	return "losing"
}

package persistence

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/asimaster/pricerank/internal/domain/ranking"
)

// GormRankingRepository implements RankingRepository using GORM
type GormRankingRepository struct {
	db *gorm.DB
}

// NewGormRankingRepository creates a new GORM ranking repository
func NewGormRankingRepository(db *gorm.DB) *GormRankingRepository {
	return &GormRankingRepository{db: db}
}

// InsertBatch appends all rows of one keyword crawl in order
func (r *GormRankingRepository) InsertBatch(ctx context.Context, rows []*ranking.Ranking) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]RankingModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, *rankingEntityToModel(row))
	}
	result := r.db.WithContext(ctx).Create(&models)
	if result.Error != nil {
		return fmt.Errorf("failed to insert rankings: %w", result.Error)
	}
	for i := range models {
		rows[i].ID = models[i].ID
	}
	return nil
}

// LatestByKeywords returns, per keyword, the rows sharing MAX(crawled_at)
// for that keyword, in a single joined query.
func (r *GormRankingRepository) LatestByKeywords(ctx context.Context, keywordIDs []int) (map[int][]*ranking.Ranking, error) {
	out := make(map[int][]*ranking.Ranking, len(keywordIDs))
	if len(keywordIDs) == 0 {
		return out, nil
	}

	latest := r.db.Model(&RankingModel{}).
		Select("keyword_id, MAX(crawled_at) AS max_crawled_at").
		Where("keyword_id IN ?", keywordIDs).
		Group("keyword_id")

	var models []RankingModel
	result := r.db.WithContext(ctx).
		Joins("JOIN (?) latest ON latest.keyword_id = rankings.keyword_id AND latest.max_crawled_at = rankings.crawled_at", latest).
		Order("rankings.keyword_id, rankings.rank").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load latest rankings: %w", result.Error)
	}

	for i := range models {
		entity := rankingModelToEntity(&models[i])
		out[entity.KeywordID] = append(out[entity.KeywordID], entity)
	}
	return out, nil
}

// OwnRankingsSince returns own-store rows for the keyword set, newest first
func (r *GormRankingRepository) OwnRankingsSince(ctx context.Context, keywordIDs []int, ownListingIDs []string, since time.Time) ([]*ranking.Ranking, error) {
	if len(keywordIDs) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).
		Where("keyword_id IN ? AND crawled_at >= ?", keywordIDs, since)
	if len(ownListingIDs) > 0 {
		query = query.Where("is_own_store = ? OR listing_id IN ?", true, ownListingIDs)
	} else {
		query = query.Where("is_own_store = ?", true)
	}

	var models []RankingModel
	result := query.Order("crawled_at DESC, rank").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load own rankings: %w", result.Error)
	}

	rows := make([]*ranking.Ranking, 0, len(models))
	for i := range models {
		rows = append(rows, rankingModelToEntity(&models[i]))
	}
	return rows, nil
}

// DailyLowestTotals returns the per-day minimum relevant total over the window
func (r *GormRankingRepository) DailyLowestTotals(ctx context.Context, keywordIDs []int, since time.Time) ([]ranking.DailyLow, error) {
	if len(keywordIDs) == 0 {
		return nil, nil
	}

	type row struct {
		Day   string
		Total int
	}
	var rows []row
	result := r.db.WithContext(ctx).
		Model(&RankingModel{}).
		Select("DATE(crawled_at) AS day, MIN(price + shipping_fee) AS total").
		Where("keyword_id IN ? AND crawled_at >= ? AND is_relevant = ? AND is_own_store = ?",
			keywordIDs, since, true, false).
		Group("DATE(crawled_at)").
		Order("day").
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load daily lows: %w", result.Error)
	}

	lows := make([]ranking.DailyLow, 0, len(rows))
	for _, rr := range rows {
		s := rr.Day
		if len(s) > 10 {
			s = s[:10]
		}
		day, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse day %q: %w", rr.Day, err)
		}
		lows = append(lows, ranking.DailyLow{Day: day, Total: rr.Total})
	}
	return lows, nil
}

// DeleteOlderThan removes at most limit rows crawled before the cutoff
func (r *GormRankingRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	victims := r.db.Model(&RankingModel{}).
		Select("id").
		Where("crawled_at < ?", cutoff).
		Limit(limit)

	result := r.db.WithContext(ctx).
		Where("id IN (?)", victims).
		Delete(&RankingModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old rankings: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// DistinctBrands returns lowercase distinct brand and maker values
func (r *GormRankingRepository) DistinctBrands(ctx context.Context) ([]string, error) {
	return r.distinctLowered(ctx, "brand", "maker")
}

// DistinctCategories returns lowercase distinct category1..4 values
func (r *GormRankingRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	return r.distinctLowered(ctx, "category1", "category2", "category3", "category4")
}

func (r *GormRankingRepository) distinctLowered(ctx context.Context, columns ...string) ([]string, error) {
	seen := make(map[string]bool)
	for _, col := range columns {
		var values []string
		result := r.db.WithContext(ctx).
			Model(&RankingModel{}).
			Distinct(fmt.Sprintf("LOWER(%s)", col)).
			Where(fmt.Sprintf("%s <> ''", col)).
			Pluck(fmt.Sprintf("LOWER(%s)", col), &values)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to load distinct %s: %w", col, result.Error)
		}
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v != "" {
				seen[v] = true
			}
		}
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// ListByProductListing returns extant rows of the product's keywords matching
// the listing id, oldest first.
func (r *GormRankingRepository) ListByProductListing(ctx context.Context, productID int, listingID string) ([]*ranking.Ranking, error) {
	keywordIDs := r.db.Model(&KeywordModel{}).
		Select("id").
		Where("product_id = ?", productID)

	var models []RankingModel
	result := r.db.WithContext(ctx).
		Where("listing_id = ? AND keyword_id IN (?)", listingID, keywordIDs).
		Order("crawled_at, rank").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load rankings by listing: %w", result.Error)
	}

	rows := make([]*ranking.Ranking, 0, len(models))
	for i := range models {
		rows = append(rows, rankingModelToEntity(&models[i]))
	}
	return rows, nil
}

// UpdateRelevance sets the relevance verdict on one row
func (r *GormRankingRepository) UpdateRelevance(ctx context.Context, rankingID int, relevant bool, reason ranking.Reason) error {
	result := r.db.WithContext(ctx).
		Model(&RankingModel{}).
		Where("id = ?", rankingID).
		Updates(map[string]interface{}{
			"is_relevant":      relevant,
			"relevance_reason": string(reason),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update relevance: %w", result.Error)
	}
	return nil
}

// SetRelevanceByListing retro-applies a relevance verdict to extant rows of
// the product's keywords matching the listing id.
func (r *GormRankingRepository) SetRelevanceByListing(ctx context.Context, productID int, listingID string, relevant bool, reason ranking.Reason) error {
	keywordIDs := r.db.Model(&KeywordModel{}).
		Select("id").
		Where("product_id = ?", productID)

	result := r.db.WithContext(ctx).
		Model(&RankingModel{}).
		Where("listing_id = ? AND keyword_id IN (?)", listingID, keywordIDs).
		Updates(map[string]interface{}{
			"is_relevant":      relevant,
			"relevance_reason": string(reason),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to retro-apply relevance: %w", result.Error)
	}
	return nil
}

// SetShippingFeeByListing retro-applies a shipping override to extant rows
// of the product's keywords matching the listing id.
func (r *GormRankingRepository) SetShippingFeeByListing(ctx context.Context, productID int, listingID string, fee int) error {
	feeType := ranking.ShippingFree
	if fee > 0 {
		feeType = ranking.ShippingPaid
	}
	keywordIDs := r.db.Model(&KeywordModel{}).
		Select("id").
		Where("product_id = ?", productID)

	result := r.db.WithContext(ctx).
		Model(&RankingModel{}).
		Where("listing_id = ? AND keyword_id IN (?)", listingID, keywordIDs).
		Updates(map[string]interface{}{
			"shipping_fee":      fee,
			"shipping_fee_type": string(feeType),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to retro-apply shipping fee: %w", result.Error)
	}
	return nil
}

func rankingModelToEntity(model *RankingModel) *ranking.Ranking {
	return &ranking.Ranking{
		ID:              model.ID,
		KeywordID:       model.KeywordID,
		Rank:            model.Rank,
		Title:           model.Title,
		Price:           model.Price,
		HighPrice:       model.HighPrice,
		Mall:            model.Mall,
		ListingID:       model.ListingID,
		URL:             model.URL,
		ImageURL:        model.ImageURL,
		Brand:           model.Brand,
		Maker:           model.Maker,
		ProductType:     model.ProductType,
		Category1:       model.Category1,
		Category2:       model.Category2,
		Category3:       model.Category3,
		Category4:       model.Category4,
		ShippingFee:     model.ShippingFee,
		ShippingFeeType: ranking.ShippingFeeType(model.ShippingFeeType),
		IsOwnStore:      model.IsOwnStore,
		IsRelevant:      model.IsRelevant,
		RelevanceReason: ranking.Reason(model.RelevanceReason),
		CrawledAt:       model.CrawledAt,
	}
}

func rankingEntityToModel(row *ranking.Ranking) *RankingModel {
	return &RankingModel{
		ID:              row.ID,
		KeywordID:       row.KeywordID,
		Rank:            row.Rank,
		Title:           row.Title,
		Price:           row.Price,
		HighPrice:       row.HighPrice,
		Mall:            row.Mall,
		ListingID:       row.ListingID,
		URL:             row.URL,
		ImageURL:        row.ImageURL,
		Brand:           row.Brand,
		Maker:           row.Maker,
		ProductType:     row.ProductType,
		Category1:       row.Category1,
		Category2:       row.Category2,
		Category3:       row.Category3,
		Category4:       row.Category4,
		ShippingFee:     row.ShippingFee,
		ShippingFeeType: string(row.ShippingFeeType),
		IsOwnStore:      row.IsOwnStore,
		IsRelevant:      row.IsRelevant,
		RelevanceReason: string(row.RelevanceReason),
		CrawledAt:       row.CrawledAt,
	}
}

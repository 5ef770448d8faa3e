package alerting

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/asimaster/pricerank/internal/domain/alert"
	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

const defaultRankWindow = 7 * 24 * time.Hour

// Engine evaluates the undercut and rank-drop conditions for a product after
// its crawl results have been persisted, and fans successful alerts out to the
// tenant's push subscriptions.
type Engine struct {
	alerts     alert.Repository
	settings   alert.SettingRepository
	subs       alert.SubscriptionRepository
	push       alert.PushSender
	rankings   ranking.RankingRepository
	blacklists ranking.BlacklistRepository
	clock      shared.Clock

	dedupWindow time.Duration
	rankWindow  time.Duration
}

func NewEngine(
	alerts alert.Repository,
	settings alert.SettingRepository,
	subs alert.SubscriptionRepository,
	push alert.PushSender,
	rankings ranking.RankingRepository,
	blacklists ranking.BlacklistRepository,
	clock shared.Clock,
	dedupWindow time.Duration,
) *Engine {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if dedupWindow <= 0 {
		dedupWindow = 24 * time.Hour
	}
	return &Engine{
		alerts:      alerts,
		settings:    settings,
		subs:        subs,
		push:        push,
		rankings:    rankings,
		blacklists:  blacklists,
		clock:       clock,
		dedupWindow: dedupWindow,
		rankWindow:  defaultRankWindow,
	}
}

// CheckProduct runs both alert checks. Check failures are independent: a
// failing undercut check never blocks the rank-drop check.
func (e *Engine) CheckProduct(ctx context.Context, tenant *catalog.Tenant, product *catalog.Product, keywords []*catalog.Keyword) error {
	if len(keywords) == 0 {
		return nil
	}
	keywordIDs := make([]int, 0, len(keywords))
	byID := make(map[int]*catalog.Keyword, len(keywords))
	for _, kw := range keywords {
		keywordIDs = append(keywordIDs, kw.ID)
		byID[kw.ID] = kw
	}

	if err := e.checkUndercut(ctx, tenant, product, keywordIDs); err != nil {
		log.Printf("[alerts] undercut check failed for product %d: %v", product.ID, err)
	}
	if err := e.checkRankDrop(ctx, tenant, product, keywordIDs, byID); err != nil {
		log.Printf("[alerts] rank-drop check failed for product %d: %v", product.ID, err)
	}
	return nil
}

// checkUndercut fires when the cheapest relevant competitor total across the
// product's latest crawls is strictly below the selling price. A price-locked
// product never alerts: the tenant has pinned the price on purpose.
func (e *Engine) checkUndercut(ctx context.Context, tenant *catalog.Tenant, product *catalog.Product, keywordIDs []int) error {
	if product.PriceLocked || product.SellingPrice <= 0 {
		return nil
	}
	enabled, err := e.enabled(ctx, tenant.ID, alert.KindPriceUndercut)
	if err != nil || !enabled {
		return err
	}

	latest, err := e.rankings.LatestByKeywords(ctx, keywordIDs)
	if err != nil {
		return err
	}
	blacklist, err := e.blacklists.MapByProducts(ctx, []int{product.ID})
	if err != nil {
		return err
	}
	blocked := blacklist[product.ID]

	var cheapest *ranking.Ranking
	for _, rows := range latest {
		for _, row := range rows {
			if !row.IsRelevant || row.IsOwnStore {
				continue
			}
			if row.ListingID != "" && (blocked[row.ListingID] || row.ListingID == product.OwnListingID) {
				continue
			}
			if cheapest == nil || row.Total() < cheapest.Total() {
				cheapest = row
			}
		}
	}
	if cheapest == nil || cheapest.Total() >= product.SellingPrice {
		return nil
	}

	dup, err := e.alerts.HasRecentUnread(ctx, tenant.ID, product.ID, alert.KindPriceUndercut, e.clock.Now().Add(-e.dedupWindow))
	if err != nil || dup {
		return err
	}

	gap := product.SellingPrice - cheapest.Total()
	gapPct := float64(gap) / float64(product.SellingPrice) * 100

	a := &alert.Alert{
		TenantID:  tenant.ID,
		ProductID: &product.ID,
		Kind:      alert.KindPriceUndercut,
		Title:     fmt.Sprintf("%s - 최저가 이탈", product.Name),
		Body: fmt.Sprintf("경쟁사 가격 %s원 (내 가격 대비 -%s원, -%.1f%%)",
			formatWon(cheapest.Total()), formatWon(gap), gapPct),
		Payload: map[string]interface{}{
			"competitor_mall":  cheapest.Mall,
			"my_price":         product.SellingPrice,
			"competitor_total": cheapest.Total(),
			"gap":              gap,
			"gap_percent":      round1(gapPct),
		},
		CreatedAt: e.clock.Now(),
	}
	if err := e.alerts.Insert(ctx, a); err != nil {
		return err
	}
	e.fanout(ctx, tenant.ID, a)
	return nil
}

// checkRankDrop compares the own-store minimum rank at the two most recent
// distinct crawl instants of each keyword. The check needs a way to recognise
// the tenant's own rows, so it is skipped without an own_store_label.
func (e *Engine) checkRankDrop(ctx context.Context, tenant *catalog.Tenant, product *catalog.Product, keywordIDs []int, byID map[int]*catalog.Keyword) error {
	if tenant.OwnStoreLabel == "" {
		return nil
	}
	enabled, err := e.enabled(ctx, tenant.ID, alert.KindRankDrop)
	if err != nil || !enabled {
		return err
	}

	var ownIDs []string
	if product.OwnListingID != "" {
		ownIDs = []string{product.OwnListingID}
	}
	rows, err := e.rankings.OwnRankingsSince(ctx, keywordIDs, ownIDs, e.clock.Now().Add(-e.rankWindow))
	if err != nil {
		return err
	}

	byKeyword := make(map[int][]*ranking.Ranking)
	for _, row := range rows {
		byKeyword[row.KeywordID] = append(byKeyword[row.KeywordID], row)
	}

	for kwID, kwRows := range byKeyword {
		change, ok := rankChange(kwRows)
		if !ok || change.CurrentRank <= change.PreviousRank {
			continue
		}

		dup, err := e.alerts.HasRecentUnread(ctx, tenant.ID, product.ID, alert.KindRankDrop, e.clock.Now().Add(-e.dedupWindow))
		if err != nil {
			return err
		}
		if dup {
			return nil
		}

		kwText := ""
		if kw := byID[kwID]; kw != nil {
			kwText = kw.Text
		}
		a := &alert.Alert{
			TenantID:  tenant.ID,
			ProductID: &product.ID,
			Kind:      alert.KindRankDrop,
			Title:     fmt.Sprintf("%s - 순위 하락", product.Name),
			Body:      fmt.Sprintf("'%s' 순위 %d위 → %d위", kwText, change.PreviousRank, change.CurrentRank),
			Payload: map[string]interface{}{
				"keyword_id":    kwID,
				"keyword":       kwText,
				"prev_rank":     change.PreviousRank,
				"current_rank":  change.CurrentRank,
				"prev_at":       change.PreviousAt.UTC().Format(time.RFC3339),
				"current_at":    change.CurrentAt.UTC().Format(time.RFC3339),
			},
			CreatedAt: e.clock.Now(),
		}
		if err := e.alerts.Insert(ctx, a); err != nil {
			return err
		}
		e.fanout(ctx, tenant.ID, a)
		// One rank-drop alert per product per run; the dedup window would
		// suppress the rest anyway.
		return nil
	}
	return nil
}

// rankChange reduces one keyword's own-store rows to the minimum rank at the
// two most recent distinct crawl instants.
func rankChange(rows []*ranking.Ranking) (ranking.RankChange, bool) {
	minByInstant := make(map[time.Time]int)
	for _, row := range rows {
		if cur, ok := minByInstant[row.CrawledAt]; !ok || row.Rank < cur {
			minByInstant[row.CrawledAt] = row.Rank
		}
	}
	if len(minByInstant) < 2 {
		return ranking.RankChange{}, false
	}

	instants := make([]time.Time, 0, len(minByInstant))
	for t := range minByInstant {
		instants = append(instants, t)
	}
	sort.Slice(instants, func(i, j int) bool { return instants[i].After(instants[j]) })

	current, previous := instants[0], instants[1]
	return ranking.RankChange{
		CurrentAt:    current,
		CurrentRank:  minByInstant[current],
		PreviousAt:   previous,
		PreviousRank: minByInstant[previous],
	}, true
}

// fanout pushes the alert to every subscription of the tenant. Gone endpoints
// (404/410) are dropped; any other failure is logged and swallowed.
func (e *Engine) fanout(ctx context.Context, tenantID int, a *alert.Alert) {
	if e.push == nil {
		return
	}
	subs, err := e.subs.ListByTenant(ctx, tenantID)
	if err != nil {
		log.Printf("[alerts] failed to list push subscriptions for tenant %d: %v", tenantID, err)
		return
	}
	for _, sub := range subs {
		err := e.push.Send(ctx, sub, a.Title, a.Body, a.Payload)
		if err == nil {
			continue
		}
		var gone *alert.SubscriptionGoneError
		if errors.As(err, &gone) {
			if delErr := e.subs.Delete(ctx, sub.ID); delErr != nil {
				log.Printf("[alerts] failed to delete gone subscription %d: %v", sub.ID, delErr)
			} else {
				log.Printf("[alerts] deleted gone push subscription %d", sub.ID)
			}
			continue
		}
		log.Printf("[alerts] push send failed for subscription %d: %v", sub.ID, err)
	}
}

func (e *Engine) enabled(ctx context.Context, tenantID int, kind alert.Kind) (bool, error) {
	s, err := e.settings.Get(ctx, tenantID, kind)
	if err != nil {
		return false, err
	}
	if s == nil {
		return true, nil
	}
	return s.Enabled, nil
}

// formatWon renders an integer amount with thousands separators
func formatWon(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}

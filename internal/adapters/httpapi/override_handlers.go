package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/asimaster/pricerank/internal/domain/ranking"
)

type blacklistRequest struct {
	ListingID string `json:"listing_id"`
	Title     string `json:"title"`
	Mall      string `json:"mall"`
}

func (s *Server) handleListBlacklist(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	entries, err := s.blacklists.ListByProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"blacklist": entries})
}

// handleAddBlacklist inserts the entry and retro-applies the verdict to
// extant rankings of the product's keywords.
func (s *Server) handleAddBlacklist(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req blacklistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ListingID == "" {
		writeError(w, http.StatusBadRequest, "listing_id is required")
		return
	}
	entry := &ranking.BlacklistEntry{
		ProductID: id,
		ListingID: req.ListingID,
		Title:     req.Title,
		Mall:      req.Mall,
	}
	if err := s.blacklists.Add(r.Context(), entry); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.rankings.SetRelevanceByListing(r.Context(), id, req.ListingID, false, ranking.ReasonManualBlacklist); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// handleRemoveBlacklist drops the entry and reclassifies the listing's
// extant rankings so the manual verdict does not outlive the entry.
func (s *Server) handleRemoveBlacklist(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	listingID := chi.URLParam(r, "listingID")
	if err := s.blacklists.Remove(r.Context(), id, listingID); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.reclassifyListing(r.Context(), id, listingID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type includeOverrideRequest struct {
	ListingID string `json:"listing_id"`
}

// handleAddIncludeOverride forces the listing to count as a competitor and
// retro-applies the verdict.
func (s *Server) handleAddIncludeOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req includeOverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ListingID == "" {
		writeError(w, http.StatusBadRequest, "listing_id is required")
		return
	}
	override := &ranking.IncludeOverride{ProductID: id, ListingID: req.ListingID}
	if err := s.includes.Add(r.Context(), override); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.rankings.SetRelevanceByListing(r.Context(), id, req.ListingID, true, ranking.ReasonIncludedOverride); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, override)
}

// handleRemoveIncludeOverride drops the override and reclassifies the
// listing's extant rankings against the automatic filters.
func (s *Server) handleRemoveIncludeOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	listingID := chi.URLParam(r, "listingID")
	if err := s.includes.Remove(r.Context(), id, listingID); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.reclassifyListing(r.Context(), id, listingID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// reclassifyListing recomputes the relevance verdict of a listing's extant
// rankings from the current blacklist and override sets. Rows are classified
// one by one: prices differ across crawl instants, so the price filters can
// cut either way for the same listing.
func (s *Server) reclassifyListing(ctx context.Context, productID int, listingID string) error {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	blacklist, err := s.blacklists.MapByProducts(ctx, []int{productID})
	if err != nil {
		return err
	}
	includes, err := s.includes.MapByProducts(ctx, []int{productID})
	if err != nil {
		return err
	}

	// Own listing ids span the tenant, as in the crawl pipeline
	ownIDs := make(map[string]bool)
	siblings, err := s.products.ListActiveByTenant(ctx, product.TenantID)
	if err != nil {
		return err
	}
	for _, p := range siblings {
		if p.OwnListingID != "" {
			ownIDs[p.OwnListingID] = true
		}
	}

	rc := &ranking.RelevanceContext{
		Blacklist:        blacklist[productID],
		IncludeOverrides: includes[productID],
		OwnListingIDs:    ownIDs,
	}
	if rc.Blacklist == nil {
		rc.Blacklist = map[string]bool{}
	}
	if rc.IncludeOverrides == nil {
		rc.IncludeOverrides = map[string]bool{}
	}

	rows, err := s.rankings.ListByProductListing(ctx, productID, listingID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		l := &ranking.Listing{
			ListingID:   row.ListingID,
			Title:       row.Title,
			Price:       row.Price,
			ShippingFee: row.ShippingFee,
		}
		relevant, reason := ranking.Classify(l, product, rc)
		if relevant == row.IsRelevant && reason == row.RelevanceReason {
			continue
		}
		if err := s.rankings.UpdateRelevance(ctx, row.ID, relevant, reason); err != nil {
			return err
		}
	}
	return nil
}

type shippingOverrideRequest struct {
	ListingID string `json:"listing_id"`
	Fee       int    `json:"fee"`
}

// handleUpsertShippingOverride pins the fee and immediately updates extant
// rankings.
func (s *Server) handleUpsertShippingOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req shippingOverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ListingID == "" {
		writeError(w, http.StatusBadRequest, "listing_id is required")
		return
	}
	if req.Fee < 0 {
		writeError(w, http.StatusBadRequest, "fee must not be negative")
		return
	}
	override := &ranking.ShippingOverride{ProductID: id, ListingID: req.ListingID, Fee: req.Fee}
	if err := s.shipOverrides.Upsert(r.Context(), override); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.rankings.SetShippingFeeByListing(r.Context(), id, req.ListingID, req.Fee); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, override)
}

func (s *Server) handleRemoveShippingOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	listingID := chi.URLParam(r, "listingID")
	if err := s.shipOverrides.Remove(r.Context(), id, listingID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

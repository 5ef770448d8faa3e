package httpapi

import (
	"net/http"

	"github.com/asimaster/pricerank/internal/domain/catalog"
)

type tenantRequest struct {
	Name                 string `json:"name"`
	OwnStoreLabel        string `json:"own_store_label"`
	CrawlIntervalMinutes int    `json:"crawl_interval_minutes"`
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req tenantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	tenant := &catalog.Tenant{
		Name:                 req.Name,
		OwnStoreLabel:        req.OwnStoreLabel,
		CrawlIntervalMinutes: req.CrawlIntervalMinutes,
	}
	if err := s.tenants.Save(r.Context(), tenant); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	tenant, err := s.tenants.FindByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (s *Server) handleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	tenant, err := s.tenants.FindByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req tenantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != "" {
		tenant.Name = req.Name
	}
	tenant.OwnStoreLabel = req.OwnStoreLabel
	tenant.CrawlIntervalMinutes = req.CrawlIntervalMinutes
	if err := s.tenants.Save(r.Context(), tenant); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (s *Server) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := s.tenants.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type productRequest struct {
	TenantID          int      `json:"tenant_id"`
	Name              string   `json:"name"`
	Category          string   `json:"category"`
	CostPrice         int      `json:"cost_price"`
	SellingPrice      int      `json:"selling_price"`
	OwnListingID      string   `json:"own_listing_id"`
	ModelCode         string   `json:"model_code"`
	SpecKeywords      []string `json:"spec_keywords"`
	PriceFilterMinPct *float64 `json:"price_filter_min_pct"`
	PriceFilterMaxPct *float64 `json:"price_filter_max_pct"`
	PriceLocked       bool     `json:"price_locked"`
	IsActive          *bool    `json:"is_active"`
}

func (req *productRequest) apply(p *catalog.Product) {
	p.Name = req.Name
	p.Category = req.Category
	p.CostPrice = req.CostPrice
	p.SellingPrice = req.SellingPrice
	p.OwnListingID = req.OwnListingID
	p.ModelCode = req.ModelCode
	p.SpecKeywords = req.SpecKeywords
	p.PriceFilterMinPct = req.PriceFilterMinPct
	p.PriceFilterMaxPct = req.PriceFilterMaxPct
	p.PriceLocked = req.PriceLocked
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TenantID <= 0 || req.Name == "" {
		writeError(w, http.StatusBadRequest, "tenant_id and name are required")
		return
	}
	product := &catalog.Product{TenantID: req.TenantID, IsActive: true}
	req.apply(product)
	if err := s.products.Save(r.Context(), product); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, err := s.products.FindByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, err := s.products.FindByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.apply(product)
	if err := s.products.Save(r.Context(), product); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := s.products.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	products, err := s.products.ListActiveByTenant(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

type keywordRequest struct {
	Text      string `json:"text"`
	SortMode  string `json:"sort_mode"`
	IsPrimary bool   `json:"is_primary"`
}

func (s *Server) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	kws, err := s.keywords.ListActiveByProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"keywords": kws})
}

func (s *Server) handleCreateKeyword(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req keywordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	sortMode := catalog.SortMode(req.SortMode)
	if sortMode == "" {
		sortMode = catalog.SortRelevance
	}
	if sortMode != catalog.SortRelevance && sortMode != catalog.SortPriceAsc {
		writeError(w, http.StatusBadRequest, "invalid sort_mode")
		return
	}
	keyword := &catalog.Keyword{
		ProductID:  id,
		Text:       req.Text,
		SortMode:   sortMode,
		IsPrimary:  req.IsPrimary,
		IsActive:   true,
		LastStatus: catalog.CrawlPending,
	}
	if err := s.keywords.Save(r.Context(), keyword); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, keyword)
}

func (s *Server) handleDeleteKeyword(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid keyword id")
		return
	}
	if err := s.keywords.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetMargin(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, err := s.products.FindByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items, err := s.costItems.ListByProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.ComputeMargin(product.SellingPrice, product.CostPrice, items))
}

type costItemRequest struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

func (s *Server) handleListCostItems(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	items, err := s.costItems.ListByProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cost_items": items})
}

func (s *Server) handleReplaceCostItems(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var reqs []costItemRequest
	if err := decodeJSON(r, &reqs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items := make([]*catalog.CostItem, 0, len(reqs))
	for _, req := range reqs {
		t := catalog.CostType(req.Type)
		if t != catalog.CostPercent && t != catalog.CostFixed {
			writeError(w, http.StatusBadRequest, "cost type must be percent or fixed")
			return
		}
		items = append(items, &catalog.CostItem{Name: req.Name, Type: t, Value: req.Value})
	}
	if err := s.costItems.ReplaceForProduct(r.Context(), id, items); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cost_items": items})
}

type costPresetRequest struct {
	Name  string                   `json:"name"`
	Items []catalog.CostPresetItem `json:"items"`
}

func (s *Server) handleListCostPresets(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	presets, err := s.costPresets.ListByTenant(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"presets": presets})
}

func (s *Server) handleSaveCostPreset(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req costPresetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	preset := &catalog.CostPreset{TenantID: id, Name: req.Name, Items: req.Items}
	if err := s.costPresets.Save(r.Context(), preset); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, preset)
}

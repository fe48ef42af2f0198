package interfaces

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drewzeee/WealthVue-sub001/internal/auth"
	"github.com/drewzeee/WealthVue-sub001/internal/investment/holding"
	"github.com/drewzeee/WealthVue-sub001/internal/investment/models"
)

type InvestmentHandler struct {
	service      holding.Service
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewInvestmentHandler(
	service holding.Service,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *InvestmentHandler {
	if service == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	return &InvestmentHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

type holdingRequest struct {
	Symbol       string          `json:"symbol"`
	AssetClass   string          `json:"asset_class"`
	Quantity     decimal.Decimal `json:"quantity"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	ManualPrice  bool            `json:"manual_price"`
}

type holdingResponse struct {
	ID           uuid.UUID        `json:"id"`
	AccountID    uuid.UUID        `json:"account_id"`
	Symbol       string           `json:"symbol"`
	AssetClass   string           `json:"asset_class"`
	Quantity     decimal.Decimal  `json:"quantity"`
	CostBasis    decimal.Decimal  `json:"cost_basis"`
	CurrentPrice decimal.Decimal  `json:"current_price"`
	Value        decimal.Decimal  `json:"value"`
	DayChange    decimal.Decimal  `json:"day_change"`
	GainLoss     decimal.Decimal  `json:"gain_loss"`
	ManualPrice  bool             `json:"manual_price"`
	PriceUpdated *string          `json:"price_updated_at"`
	PrevClose    *decimal.Decimal `json:"previous_close"`
}

func toHoldingResponse(h models.Holding) holdingResponse {
	resp := holdingResponse{
		ID:           h.ID,
		AccountID:    h.InvestmentAccountID,
		Symbol:       h.Symbol,
		AssetClass:   string(h.AssetClass),
		Quantity:     h.Quantity,
		CostBasis:    h.CostBasis,
		CurrentPrice: h.CurrentPrice,
		Value:        h.Value(),
		DayChange:    h.DayChange(),
		GainLoss:     h.GainLoss(),
		ManualPrice:  h.ManualPrice,
		PrevClose:    h.PreviousClose,
	}
	if h.PriceUpdatedAt != nil {
		formatted := h.PriceUpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.PriceUpdated = &formatted
	}
	return resp
}

func (h *InvestmentHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req struct {
		Name   string `json:"name"`
		Broker string `json:"broker"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account := &models.InvestmentAccount{UserID: userID, Name: req.Name, Broker: req.Broker}
	if err := h.service.CreateAccount(r.Context(), account); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Investment account successfully created.",
		"data": map[string]interface{}{
			"id":     account.ID,
			"name":   account.Name,
			"broker": account.Broker,
		},
	})
}

func (h *InvestmentHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	if accounts == nil {
		accounts = []models.InvestmentAccount{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   accounts,
	})
}

func (h *InvestmentHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	accountID, err := uuid.Parse(r.PathValue("accountID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), accountID, userID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Investment account successfully deleted.",
	})
}

func (h *InvestmentHandler) CreateHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	accountID, err := uuid.Parse(r.PathValue("accountID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}
	var req holdingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	newHolding := &models.Holding{
		InvestmentAccountID: accountID,
		Symbol:              req.Symbol,
		AssetClass:          models.AssetClass(req.AssetClass),
		Quantity:            req.Quantity,
		CostBasis:           req.CostBasis,
		CurrentPrice:        req.CurrentPrice,
		ManualPrice:         req.ManualPrice,
	}
	if err := h.service.CreateHolding(r.Context(), newHolding, userID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Holding successfully created.",
		"data":    toHoldingResponse(*newHolding),
	})
}

func (h *InvestmentHandler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	accountID, err := uuid.Parse(r.PathValue("accountID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	holdings, err := h.service.ListHoldings(r.Context(), accountID, userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	responses := make([]holdingResponse, 0, len(holdings))
	for _, item := range holdings {
		responses = append(responses, toHoldingResponse(item))
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   responses,
	})
}

func (h *InvestmentHandler) UpdateHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	holdingID, err := uuid.Parse(r.PathValue("holdingID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid holding ID")
		return
	}
	var req holdingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated := &models.Holding{
		ID:           holdingID,
		Symbol:       req.Symbol,
		AssetClass:   models.AssetClass(req.AssetClass),
		Quantity:     req.Quantity,
		CostBasis:    req.CostBasis,
		CurrentPrice: req.CurrentPrice,
		ManualPrice:  req.ManualPrice,
	}
	if err := h.service.UpdateHolding(r.Context(), updated, userID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Holding successfully updated.",
		"data":    toHoldingResponse(*updated),
	})
}

func (h *InvestmentHandler) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	holdingID, err := uuid.Parse(r.PathValue("holdingID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid holding ID")
		return
	}

	if err := h.service.DeleteHolding(r.Context(), holdingID, userID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Holding successfully deleted.",
	})
}

// RefreshPrices pulls fresh quotes for the user's automatically priced
// holdings.
func (h *InvestmentHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	updated, err := h.service.RefreshPrices(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   map[string]int{"updated": updated},
	})
}

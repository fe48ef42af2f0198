package interfaces

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drewzeee/WealthVue-sub001/internal/auth"
	"github.com/drewzeee/WealthVue-sub001/internal/networth"
)

type NetWorthServiceInterface interface {
	CalculateCurrentNetWorth(ctx context.Context, userID string) (*networth.Breakdown, error)
	CalculateHouseholdNetWorth(ctx context.Context, userID string) (*networth.Breakdown, error)
	GetHistory(ctx context.Context, userID string, start, end time.Time) ([]networth.HistoryPoint, error)
	GetHouseholdHistory(ctx context.Context, userID string, start, end time.Time) ([]networth.HistoryPoint, error)
	CreateAsset(ctx context.Context, asset *networth.Asset) error
	ListAssets(ctx context.Context, userID string) ([]networth.Asset, error)
	UpdateAsset(ctx context.Context, asset *networth.Asset, userID string) error
	DeleteAsset(ctx context.Context, assetID uuid.UUID, userID string) error
	CreateLiability(ctx context.Context, liability *networth.Liability) error
	ListLiabilities(ctx context.Context, userID string) ([]networth.Liability, error)
	UpdateLiability(ctx context.Context, liability *networth.Liability, userID string) error
	DeleteLiability(ctx context.Context, liabilityID uuid.UUID, userID string) error
}

type NetWorthHandler struct {
	service      NetWorthServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewNetWorthHandler(
	service NetWorthServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *NetWorthHandler {
	if service == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	return &NetWorthHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

type breakdownResponse struct {
	NetWorth           decimal.Decimal            `json:"net_worth"`
	TotalAssets        decimal.Decimal            `json:"total_assets"`
	TotalLiabilities   decimal.Decimal            `json:"total_liabilities"`
	AccountAssets      decimal.Decimal            `json:"account_assets"`
	AccountLiabilities decimal.Decimal            `json:"account_liabilities"`
	InvestmentAssets   decimal.Decimal            `json:"investment_assets"`
	ManualAssets       decimal.Decimal            `json:"manual_assets"`
	ManualLiabilities  decimal.Decimal            `json:"manual_liabilities"`
	InvestmentByClass  map[string]decimal.Decimal `json:"investment_by_class"`
}

func toBreakdownResponse(breakdown *networth.Breakdown) breakdownResponse {
	return breakdownResponse{
		NetWorth:           breakdown.NetWorth,
		TotalAssets:        breakdown.TotalAssets,
		TotalLiabilities:   breakdown.TotalLiabilities,
		AccountAssets:      breakdown.AccountAssets,
		AccountLiabilities: breakdown.AccountLiabilities,
		InvestmentAssets:   breakdown.InvestmentAssets,
		ManualAssets:       breakdown.ManualAssets,
		ManualLiabilities:  breakdown.ManualLiabilities,
		InvestmentByClass:  breakdown.InvestmentByClass,
	}
}

type historyPointResponse struct {
	Date             string          `json:"date"`
	NetWorth         decimal.Decimal `json:"net_worth"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	Live             bool            `json:"live"`
}

func toHistoryResponse(points []networth.HistoryPoint) []historyPointResponse {
	responses := make([]historyPointResponse, 0, len(points))
	for _, point := range points {
		responses = append(responses, historyPointResponse{
			Date:             point.Date.Format("2006-01-02"),
			NetWorth:         point.NetWorth,
			TotalAssets:      point.TotalAssets,
			TotalLiabilities: point.TotalLiabilities,
			Live:             point.Live,
		})
	}
	return responses
}

func (h *NetWorthHandler) GetNetWorth(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	breakdown, err := h.service.CalculateCurrentNetWorth(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   toBreakdownResponse(breakdown),
	})
}

func (h *NetWorthHandler) GetHouseholdNetWorth(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	breakdown, err := h.service.CalculateHouseholdNetWorth(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   toBreakdownResponse(breakdown),
	})
}

func historyRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, -3, 0)
	end := now

	var err error
	if startStr := r.URL.Query().Get("start"); startStr != "" {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if endStr := r.URL.Query().Get("end"); endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

func (h *NetWorthHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	start, end, err := historyRange(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	points, err := h.service.GetHistory(r.Context(), userID, start, end)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   toHistoryResponse(points),
	})
}

func (h *NetWorthHandler) GetHouseholdHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	start, end, err := historyRange(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	points, err := h.service.GetHouseholdHistory(r.Context(), userID, start, end)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   toHistoryResponse(points),
	})
}

type assetRequest struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Value      decimal.Decimal `json:"value"`
	AcquiredAt *string         `json:"acquired_at"`
	Notes      *string         `json:"notes"`
}

func (req *assetRequest) toDomain(userID string) (*networth.Asset, error) {
	asset := &networth.Asset{
		UserID: userID,
		Name:   req.Name,
		Type:   req.Type,
		Value:  req.Value,
		Notes:  req.Notes,
	}
	if req.AcquiredAt != nil {
		acquired, err := time.Parse("2006-01-02", *req.AcquiredAt)
		if err != nil {
			return nil, err
		}
		asset.AcquiredAt = &acquired
	}
	return asset, nil
}

func (h *NetWorthHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req assetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	asset, err := req.toDomain(userID)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	if err := h.service.CreateAsset(r.Context(), asset); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Asset successfully created.",
		"data":    asset,
	})
}

func (h *NetWorthHandler) GetAssets(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	assets, err := h.service.ListAssets(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	if assets == nil {
		assets = []networth.Asset{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   assets,
	})
}

func (h *NetWorthHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	assetID, err := uuid.Parse(r.PathValue("assetID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid asset ID")
		return
	}
	var req assetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	asset, err := req.toDomain(userID)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}
	asset.ID = assetID

	if err := h.service.UpdateAsset(r.Context(), asset, userID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Asset successfully updated.",
		"data":    asset,
	})
}

func (h *NetWorthHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	assetID, err := uuid.Parse(r.PathValue("assetID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid asset ID")
		return
	}

	if err := h.service.DeleteAsset(r.Context(), assetID, userID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Asset successfully deleted.",
	})
}

type liabilityRequest struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Balance decimal.Decimal `json:"balance"`
	DueDate *string         `json:"due_date"`
	Notes   *string         `json:"notes"`
}

func (req *liabilityRequest) toDomain(userID string) (*networth.Liability, error) {
	liability := &networth.Liability{
		UserID:  userID,
		Name:    req.Name,
		Type:    req.Type,
		Balance: req.Balance,
		Notes:   req.Notes,
	}
	if req.DueDate != nil {
		due, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return nil, err
		}
		liability.DueDate = &due
	}
	return liability, nil
}

func (h *NetWorthHandler) CreateLiability(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req liabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	liability, err := req.toDomain(userID)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	if err := h.service.CreateLiability(r.Context(), liability); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Liability successfully created.",
		"data":    liability,
	})
}

func (h *NetWorthHandler) GetLiabilities(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	liabilities, err := h.service.ListLiabilities(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	if liabilities == nil {
		liabilities = []networth.Liability{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   liabilities,
	})
}

func (h *NetWorthHandler) UpdateLiability(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	liabilityID, err := uuid.Parse(r.PathValue("liabilityID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid liability ID")
		return
	}
	var req liabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	liability, err := req.toDomain(userID)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}
	liability.ID = liabilityID

	if err := h.service.UpdateLiability(r.Context(), liability, userID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Liability successfully updated.",
		"data":    liability,
	})
}

func (h *NetWorthHandler) DeleteLiability(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	liabilityID, err := uuid.Parse(r.PathValue("liabilityID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid liability ID")
		return
	}

	if err := h.service.DeleteLiability(r.Context(), liabilityID, userID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Liability successfully deleted.",
	})
}

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
	"github.com/drewzeee/WealthVue-sub001/internal/ledger/application"
	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
)

type CategoryServiceInterface interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Category, error)
	Update(ctx context.Context, userID string, category *domain.Category) error
	Delete(ctx context.Context, userID string, categoryID uuid.UUID) error
	SetBudget(ctx context.Context, userID string, categoryID uuid.UUID, month time.Time, amount decimal.Decimal) (*domain.CategoryBudget, error)
	MonthlyBudgetReport(ctx context.Context, userID string, month time.Time) ([]application.BudgetStatus, error)
}

type CategoryHandler struct {
	service      CategoryServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewCategoryHandler(
	service CategoryServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *CategoryHandler {
	if service == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	return &CategoryHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

type categoryRequest struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	CarryOver bool   `json:"carry_over"`
}

type categoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	CarryOver bool      `json:"carry_over"`
}

func toCategoryResponse(category domain.Category) categoryResponse {
	return categoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		Color:     category.Color,
		Icon:      category.Icon,
		CarryOver: category.CarryOver,
	}
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := h.service.Create(r.Context(), &domain.Category{
		UserID:    userID,
		Name:      req.Name,
		Color:     req.Color,
		Icon:      req.Icon,
		CarryOver: req.CarryOver,
	})
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Category successfully created.",
		"data":    toCategoryResponse(*category),
	})
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	categories, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	responses := make([]categoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, toCategoryResponse(category))
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   responses,
	})
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	categoryID, err := uuid.Parse(r.PathValue("categoryID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category := &domain.Category{
		ID:        categoryID,
		UserID:    userID,
		Name:      req.Name,
		Color:     req.Color,
		Icon:      req.Icon,
		CarryOver: req.CarryOver,
	}
	if err := h.service.Update(r.Context(), userID, category); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Category successfully updated.",
		"data":    toCategoryResponse(*category),
	})
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	categoryID, err := uuid.Parse(r.PathValue("categoryID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	if err := h.service.Delete(r.Context(), userID, categoryID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Category successfully deleted.",
	})
}

// SetBudget writes the budgeted amount for one category and month.
func (h *CategoryHandler) SetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	categoryID, err := uuid.Parse(r.PathValue("categoryID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}
	var req struct {
		Month  string          `json:"month"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	month, err := time.Parse("2006-01", req.Month)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid month format, expected YYYY-MM")
		return
	}

	budget, err := h.service.SetBudget(r.Context(), userID, categoryID, month, req.Amount)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Budget successfully set.",
		"data": map[string]interface{}{
			"category_id": budget.CategoryID,
			"month":       budget.Month.Format("2006-01"),
			"amount":      budget.Amount,
		},
	})
}

func (h *CategoryHandler) GetBudgetReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	monthStr := r.URL.Query().Get("month")
	var month time.Time
	var err error
	if monthStr == "" {
		now := time.Now().UTC()
		month = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		month, err = time.Parse("2006-01", monthStr)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid month format, expected YYYY-MM")
			return
		}
	}

	report, err := h.service.MonthlyBudgetReport(r.Context(), userID, month)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	if report == nil {
		report = []application.BudgetStatus{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   report,
	})
}

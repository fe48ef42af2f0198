package interfaces

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/drewzeee/WealthVue-sub001/internal/auth"
	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
)

type RuleServiceInterface interface {
	Create(ctx context.Context, rule *domain.CategorizationRule) (*domain.CategorizationRule, error)
	ListByUser(ctx context.Context, userID string) ([]domain.CategorizationRule, error)
	Update(ctx context.Context, userID string, rule *domain.CategorizationRule) error
	Delete(ctx context.Context, userID string, ruleID uuid.UUID) error
}

type RuleHandler struct {
	service      RuleServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewRuleHandler(
	service RuleServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *RuleHandler {
	if service == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	return &RuleHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

type ruleRequest struct {
	CategoryID uuid.UUID          `json:"category_id"`
	Priority   int                `json:"priority"`
	Conditions []domain.Condition `json:"conditions"`
}

type ruleResponse struct {
	ID         uuid.UUID          `json:"id"`
	CategoryID uuid.UUID          `json:"category_id"`
	Priority   int                `json:"priority"`
	Conditions []domain.Condition `json:"conditions"`
}

func toRuleResponse(rule domain.CategorizationRule) ruleResponse {
	return ruleResponse{
		ID:         rule.ID,
		CategoryID: rule.CategoryID,
		Priority:   rule.Priority,
		Conditions: rule.Conditions,
	}
}

func (h *RuleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rule, err := h.service.Create(r.Context(), &domain.CategorizationRule{
		UserID:     userID,
		CategoryID: req.CategoryID,
		Priority:   req.Priority,
		Conditions: req.Conditions,
	})
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Rule successfully created.",
		"data":    toRuleResponse(*rule),
	})
}

func (h *RuleHandler) GetRules(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rules, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	responses := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		responses = append(responses, toRuleResponse(rule))
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   responses,
	})
}

func (h *RuleHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	ruleID, err := uuid.Parse(r.PathValue("ruleID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid rule ID")
		return
	}
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rule := &domain.CategorizationRule{
		ID:         ruleID,
		UserID:     userID,
		CategoryID: req.CategoryID,
		Priority:   req.Priority,
		Conditions: req.Conditions,
	}
	if err := h.service.Update(r.Context(), userID, rule); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Rule successfully updated.",
		"data":    toRuleResponse(*rule),
	})
}

func (h *RuleHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	ruleID, err := uuid.Parse(r.PathValue("ruleID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid rule ID")
		return
	}

	if err := h.service.Delete(r.Context(), userID, ruleID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Rule successfully deleted.",
	})
}

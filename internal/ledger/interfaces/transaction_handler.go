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

type TransactionServiceInterface interface {
	CreateManual(ctx context.Context, userID string, transaction *domain.Transaction) error
	Update(ctx context.Context, userID string, transaction *domain.Transaction) error
	Unpair(ctx context.Context, userID string, transactionID uuid.UUID) error
	Delete(ctx context.Context, userID string, transactionID uuid.UUID) error
	ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error)
}

type ReconcileServiceInterface interface {
	ProcessAllTransactions(ctx context.Context, userID string) (application.ReconcileResult, error)
}

type TransactionHandler struct {
	service      TransactionServiceInterface
	reconciler   ReconcileServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewTransactionHandler(
	service TransactionServiceInterface,
	reconciler ReconcileServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *TransactionHandler {
	if service == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	if respondJSON == nil || respondError == nil {
		log.Fatal("Respond functions must not be nil")
		return nil
	}
	return &TransactionHandler{
		service:      service,
		reconciler:   reconciler,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

type transactionRequest struct {
	AccountID   uuid.UUID       `json:"account_id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Merchant    *string         `json:"merchant"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  *uuid.UUID      `json:"category_id"`
	Notes       *string         `json:"notes"`
}

type transactionResponse struct {
	ID             uuid.UUID       `json:"id"`
	AccountID      uuid.UUID       `json:"account_id"`
	Date           string          `json:"date"`
	Description    string          `json:"description"`
	Merchant       *string         `json:"merchant"`
	Amount         decimal.Decimal `json:"amount"`
	CategoryID     *uuid.UUID      `json:"category_id"`
	Source         string          `json:"source"`
	Pending        bool            `json:"pending"`
	TransferPairID *uuid.UUID      `json:"transfer_pair_id"`
	Notes          *string         `json:"notes"`
}

func toTransactionResponse(transaction domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:             transaction.ID,
		AccountID:      transaction.AccountID,
		Date:           transaction.Date.Format("2006-01-02"),
		Description:    transaction.Description,
		Merchant:       transaction.Merchant,
		Amount:         transaction.Amount,
		CategoryID:     transaction.CategoryID,
		Source:         string(transaction.Source),
		Pending:        transaction.Pending,
		TransferPairID: transaction.TransferPairID,
		Notes:          transaction.Notes,
	}
}

func (r *transactionRequest) toDomain() (*domain.Transaction, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return nil, err
	}
	return &domain.Transaction{
		AccountID:   r.AccountID,
		Date:        date,
		Description: r.Description,
		Merchant:    r.Merchant,
		Amount:      r.Amount,
		CategoryID:  r.CategoryID,
		Notes:       r.Notes,
	}, nil
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	transaction, err := req.toDomain()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	if err := h.service.CreateManual(r.Context(), userID, transaction); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Transaction successfully created.",
		"data":    toTransactionResponse(*transaction),
	})
}

func (h *TransactionHandler) GetUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	transactions, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	responses := make([]transactionResponse, 0, len(transactions))
	for _, transaction := range transactions {
		responses = append(responses, toTransactionResponse(transaction))
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   responses,
	})
}

func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	transactionID, err := uuid.Parse(r.PathValue("transactionID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	transaction, err := req.toDomain()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}
	transaction.ID = transactionID

	if err := h.service.Update(r.Context(), userID, transaction); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Transaction successfully updated.",
		"data":    toTransactionResponse(*transaction),
	})
}

func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	transactionID, err := uuid.Parse(r.PathValue("transactionID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	if err := h.service.Delete(r.Context(), userID, transactionID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Transaction successfully deleted.",
	})
}

func (h *TransactionHandler) UnpairTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	transactionID, err := uuid.Parse(r.PathValue("transactionID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	if err := h.service.Unpair(r.Context(), userID, transactionID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Transfer pairing removed.",
	})
}

// ReconcileTransactions runs the batch categorize and transfer-pair passes
// over the user's whole history.
func (h *TransactionHandler) ReconcileTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.reconciler.ProcessAllTransactions(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

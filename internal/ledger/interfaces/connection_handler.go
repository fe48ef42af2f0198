package interfaces

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/drewzeee/WealthVue-sub001/internal/aggregator"
	"github.com/drewzeee/WealthVue-sub001/internal/auth"
	"github.com/drewzeee/WealthVue-sub001/internal/ledger/application"
	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
)

type ConnectionServiceInterface interface {
	CreateLinkToken(ctx context.Context, userID string) (*aggregator.LinkToken, error)
	ExchangePublicToken(ctx context.Context, userID, publicToken, institutionName string) (*domain.ExternalConnection, error)
	ListByUser(ctx context.Context, userID string) ([]domain.ExternalConnection, error)
}

type SyncServiceInterface interface {
	SyncConnection(ctx context.Context, connectionID uuid.UUID) (application.SyncResult, error)
	SyncAllConnections(ctx context.Context, userID string) ([]application.ConnectionSyncOutcome, error)
	ResetSync(ctx context.Context, connectionID uuid.UUID) error
}

type ConnectionHandler struct {
	connections  ConnectionServiceInterface
	sync         SyncServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewConnectionHandler(
	connections ConnectionServiceInterface,
	sync SyncServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *ConnectionHandler {
	if connections == nil || sync == nil {
		log.Fatal("Services must not be nil")
		return nil
	}
	return &ConnectionHandler{
		connections:  connections,
		sync:         sync,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

type connectionResponse struct {
	ID              uuid.UUID `json:"id"`
	InstitutionName string    `json:"institution_name"`
	LastSyncedAt    *string   `json:"last_synced_at"`
}

func toConnectionResponse(connection domain.ExternalConnection) connectionResponse {
	resp := connectionResponse{
		ID:              connection.ID,
		InstitutionName: connection.InstitutionName,
	}
	if connection.LastSyncedAt != nil {
		formatted := connection.LastSyncedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.LastSyncedAt = &formatted
	}
	return resp
}

func (h *ConnectionHandler) CreateLinkToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	token, err := h.connections.CreateLinkToken(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   map[string]string{"link_token": token.Token},
	})
}

func (h *ConnectionHandler) ExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req struct {
		PublicToken     string `json:"public_token"`
		InstitutionName string `json:"institution_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PublicToken == "" {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	connection, err := h.connections.ExchangePublicToken(r.Context(), userID, req.PublicToken, req.InstitutionName)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Connection successfully created.",
		"data":    toConnectionResponse(*connection),
	})
}

func (h *ConnectionHandler) GetConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	connections, err := h.connections.ListByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	responses := make([]connectionResponse, 0, len(connections))
	for _, connection := range connections {
		responses = append(responses, toConnectionResponse(connection))
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   responses,
	})
}

// ownedConnection guards sync endpoints: the path connection must belong to
// the calling user.
func (h *ConnectionHandler) ownedConnection(ctx context.Context, userID string, connectionID uuid.UUID) bool {
	connections, err := h.connections.ListByUser(ctx, userID)
	if err != nil {
		return false
	}
	for _, connection := range connections {
		if connection.ID == connectionID {
			return true
		}
	}
	return false
}

func (h *ConnectionHandler) SyncConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	connectionID, err := uuid.Parse(r.PathValue("connectionID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid connection ID")
		return
	}
	if !h.ownedConnection(r.Context(), userID, connectionID) {
		h.respondError(w, http.StatusNotFound, "Connection not found")
		return
	}

	result, err := h.sync.SyncConnection(r.Context(), connectionID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

func (h *ConnectionHandler) SyncAllConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	outcomes, err := h.sync.SyncAllConnections(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	type outcomeResponse struct {
		ConnectionID uuid.UUID              `json:"connection_id"`
		Result       application.SyncResult `json:"result"`
		Error        *string                `json:"error"`
	}
	responses := make([]outcomeResponse, 0, len(outcomes))
	for _, outcome := range outcomes {
		resp := outcomeResponse{ConnectionID: outcome.ConnectionID, Result: outcome.Result}
		if outcome.Err != nil {
			message := outcome.Err.Error()
			resp.Error = &message
		}
		responses = append(responses, resp)
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   responses,
	})
}

func (h *ConnectionHandler) ResetSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	connectionID, err := uuid.Parse(r.PathValue("connectionID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid connection ID")
		return
	}
	if !h.ownedConnection(r.Context(), userID, connectionID) {
		h.respondError(w, http.StatusNotFound, "Connection not found")
		return
	}

	if err := h.sync.ResetSync(r.Context(), connectionID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Sync cursor cleared, next sync replays full history.",
	})
}

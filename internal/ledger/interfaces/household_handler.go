package interfaces

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/drewzeee/WealthVue-sub001/internal/auth"
	"github.com/drewzeee/WealthVue-sub001/internal/user"
)

type HouseholdHandler struct {
	users        user.Service
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewHouseholdHandler(
	users user.Service,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *HouseholdHandler {
	if users == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	return &HouseholdHandler{
		users:        users,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *HouseholdHandler) RequestLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	link, err := h.users.RequestLink(r.Context(), userID, req.Email)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Household link requested.",
		"data":    link,
	})
}

func (h *HouseholdHandler) AcceptLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	link, err := h.users.AcceptLink(r.Context(), userID)
	if err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Household link activated.",
		"data":    link,
	})
}

func (h *HouseholdHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.users.Unlink(r.Context(), userID); err != nil {
		respondServiceError(h.respondError, w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Household link removed.",
	})
}

package interfaces

import (
	"encoding/json"
	"log"
	"net/http"

	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, errors ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}

	if len(errors) > 0 && len(errors[0]) > 0 {
		payload["errors"] = errors[0]
	}

	respondJSON(w, status, payload)
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(
	respond func(w http.ResponseWriter, status int, message string, errors ...[]string),
	w http.ResponseWriter,
	err error,
) {
	switch {
	case ledgerErrors.IsValidationError(err):
		respond(w, http.StatusBadRequest, err.Error())
	case ledgerErrors.IsNotFoundError(err):
		respond(w, http.StatusNotFound, err.Error())
	case ledgerErrors.IsConflictError(err):
		respond(w, http.StatusConflict, err.Error())
	case ledgerErrors.IsPreconditionError(err):
		respond(w, http.StatusPreconditionFailed, err.Error())
	case ledgerErrors.IsUpstreamError(err):
		respond(w, http.StatusBadGateway, err.Error())
	default:
		log.Println("unexpected service error:", err)
		respond(w, http.StatusInternalServerError, "Internal server error")
	}
}

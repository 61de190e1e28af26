package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voxchat/voxgate/internal/services"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeFederationError maps a guard rejection to its wire code and
// status; anything else is an internal failure and stays opaque.
func writeFederationError(w http.ResponseWriter, err error) {
	var fedErr *services.FederationError
	if errors.As(err, &fedErr) {
		writeError(w, fedErr.Status, fedErr.Code, fedErr.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}

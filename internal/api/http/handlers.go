package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"adjustment-calculator/internal/settlement/application"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeValidation answers 422 with the validation payload.
func writeValidation(w http.ResponseWriter, err error) bool {
	var ve *application.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeJSON(w, http.StatusUnprocessableEntity, ve)
	return true
}

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/faviy/demandcast/internal/contracts"
)

// StatusNotYetAvailable is returned while an artifact has not been produced by any run
const StatusNotYetAvailable = "not_yet_available"

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondArtifactError maps a lookup error onto a response; missing artifacts are a 404, not a 500
func respondArtifactError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, contracts.ErrMissingArtifact) || errors.Is(err, contracts.ErrNotFound) {
		respondJSON(w, http.StatusNotFound, map[string]string{
			"status":   StatusNotYetAvailable,
			"artifact": what,
		})
		return
	}
	if errors.Is(err, contracts.ErrSchema) {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "failed to read "+what)
}

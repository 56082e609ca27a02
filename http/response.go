package http

import (
	"bytes"
	"errors"
	"mime"
	"net/http"

	"github.com/goccy/go-json"

	"loan-eligibility/domain"
	"loan-eligibility/logging"
	"loan-eligibility/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes into a buffer first so a failed encoding never leaves a
// half-written 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logging.Error().Err(err).Msg("error encoding response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Warn().Err(err).Msg("error writing response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps pipeline errors to status codes: bad input is a
// 400, everything else a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, service.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrIncompleteArtifact):
		logging.Error().Err(err).Msg("model artifact is incomplete")
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		logging.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

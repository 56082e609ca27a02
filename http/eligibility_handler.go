package http

import (
	"net/http"
	"sync"

	"github.com/goccy/go-json"

	"loan-eligibility/dataset"
	"loan-eligibility/domain"
	"loan-eligibility/logging"
	"loan-eligibility/model"
	"loan-eligibility/rules"
	"loan-eligibility/service"
)

type EligibilityHandler struct {
	service *service.EligibilityService

	mu     sync.RWMutex
	bundle *model.Bundle
}

// NewEligibilityHandler serves predictions with bundle, which may be nil
// until SetModel is called.
func NewEligibilityHandler(service *service.EligibilityService, bundle *model.Bundle) *EligibilityHandler {
	return &EligibilityHandler{service: service, bundle: bundle}
}

// SetModel swaps the bundle used for predictions.
func (h *EligibilityHandler) SetModel(b *model.Bundle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bundle = b
}

func (h *EligibilityHandler) model() *model.Bundle {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.bundle
}

type predictRequest struct {
	Applicants []dataset.Row `json:"applicants"`
}

type predictResponse struct {
	ModelID     string              `json:"model_id"`
	Predictions []domain.Prediction `json:"predictions"`
}

// Predict classifies a batch: {"applicants": [{...}, ...]}.
func (h *EligibilityHandler) Predict(w http.ResponseWriter, r *http.Request) {
	b := h.model()
	if b == nil {
		writeError(w, http.StatusServiceUnavailable, "no model loaded")
		return
	}

	var req predictRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Applicants) == 0 {
		writeError(w, http.StatusBadRequest, "applicants must not be empty")
		return
	}

	applicants, err := dataset.Applicants(req.Applicants)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	preds, err := h.service.Predict(r.Context(), b, applicants)
	if err != nil {
		logging.Warn().Err(err).Int("records", len(applicants)).Msg("prediction failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{ModelID: b.Metadata.ID, Predictions: preds})
}

type evaluateResponse struct {
	Applicant domain.Applicant `json:"applicant"`
	rules.Decision
}

// Evaluate runs the rule engine on one applicant.
func (h *EligibilityHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var row dataset.Row
	if !decodeJSON(w, r, &row) {
		return
	}
	a, err := dataset.ParseApplicant(row)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.service.Evaluate(a)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluateResponse{Applicant: a, Decision: d})
}

type criteriaEntry struct {
	rules.Requirements
	Criteria domain.LoanCriteria `json:"criteria"`
}

// Criteria lists the thresholds and requirements for every loan type.
func (h *EligibilityHandler) Criteria(w http.ResponseWriter, _ *http.Request) {
	policy := h.service.Policy()
	reqs := policy.Requirements()
	out := make([]criteriaEntry, 0, len(reqs))
	for _, req := range reqs {
		c, err := policy.Criteria().Lookup(req.LoanType)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out = append(out, criteriaEntry{Requirements: req, Criteria: c})
	}
	writeJSON(w, http.StatusOK, out)
}

// Health reports whether a model is loaded.
func (h *EligibilityHandler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok", "model_loaded": false}
	if b := h.model(); b != nil {
		resp["model_loaded"] = true
		resp["model_id"] = b.Metadata.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeJSON enforces a JSON content type and decodes the body into v. It
// writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !isJSON(ct) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		logging.Debug().Err(err).Msg("error decoding request body")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

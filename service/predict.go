package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"loan-eligibility/domain"
	"loan-eligibility/encoder"
	"loan-eligibility/logging"
	"loan-eligibility/metrics"
	"loan-eligibility/model"
	"loan-eligibility/validation"
)

// cachedScore is what the cache keeps per applicant and model: the
// classifier's probability of Eligible. The override policy runs on every
// call, so a changed policy never sees stale decisions.
type cachedScore struct {
	Probability float64 `json:"probability"`
}

// Predict classifies records with bundle b and applies the rule override.
// The batch succeeds or fails as a whole.
func (s *EligibilityService) Predict(ctx context.Context, b *model.Bundle, records []domain.Applicant) (preds []domain.Prediction, err error) {
	start := time.Now()
	defer func() { metrics.RecordPredictBatch(time.Since(start), err) }()

	if err := b.Validate(); err != nil {
		return nil, err
	}
	if len(records) > s.config.MaxBatch {
		return nil, fmt.Errorf("%w: %d records, maximum is %d", ErrBatchTooLarge, len(records), s.config.MaxBatch)
	}
	for i, a := range records {
		if err := validation.ValidateApplicant(a); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}

	probs := make([]float64, len(records))
	keys := make([]string, len(records))
	var missIdx []int
	for i, a := range records {
		keys[i] = cacheKey(b.Metadata.ID, a)
		if p, ok := s.cached(ctx, keys[i]); ok {
			probs[i] = p
			continue
		}
		missIdx = append(missIdx, i)
	}

	if len(missIdx) > 0 {
		misses := make([]domain.Applicant, len(missIdx))
		for j, i := range missIdx {
			misses[j] = records[i]
		}
		fresh, err := s.score(ctx, b, misses)
		if err != nil {
			return nil, err
		}
		for j, i := range missIdx {
			probs[i] = fresh[j]
			s.store(ctx, keys[i], fresh[j])
		}
	}

	now := time.Now().UTC()
	preds = make([]domain.Prediction, len(records))
	for i, a := range records {
		p, err := s.decide(a, probs[i])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		p.ID = uuid.NewString()
		p.ModelID = b.Metadata.ID
		p.CreatedAt = now
		preds[i] = p
	}

	for i, p := range preds {
		metrics.RecordPrediction(string(p.Label), p.Overridden, p.Rule)

		// Guardar el resultado (no crítico si falla)
		if err := s.repo.Save(ctx, records[i], p); err != nil {
			logging.Warn().Err(err).Str("prediction_id", p.ID).Msg("failed to save prediction")
		}
	}
	return preds, nil
}

// score returns the classifier's probability of Eligible for each record.
func (s *EligibilityService) score(ctx context.Context, b *model.Bundle, records []domain.Applicant) ([]float64, error) {
	x, err := encoder.Transform(b.Profile, records)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	probs, err := b.Forest.PredictProba(x)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return probs, nil
}

// decide turns the probability into the model's label and lets the override
// policy have the final say. Confidence is the top-class probability unless
// a rule changed the label.
func (s *EligibilityService) decide(a domain.Applicant, p float64) (domain.Prediction, error) {
	modelLabel, modelConf := domain.NotEligible, 1-p
	if p > DecisionThreshold {
		modelLabel, modelConf = domain.Eligible, p
	}
	pred := domain.Prediction{
		Label:           modelLabel,
		Confidence:      modelConf,
		ModelLabel:      modelLabel,
		ModelConfidence: modelConf,
	}

	rule, matched, err := s.policy.Override(a, modelLabel)
	if err != nil {
		return domain.Prediction{}, err
	}
	if matched {
		pred.Label = rule.Label
		pred.Rule = rule.Rule
		pred.Reason = rule.Reason
		if rule.Label != modelLabel {
			pred.Overridden = true
			pred.Confidence = RuleConfidence
		}
	}
	return pred, nil
}

func (s *EligibilityService) cached(ctx context.Context, key string) (float64, bool) {
	raw, ok := s.cache.Get(ctx, key)
	metrics.RecordCache(ok)
	if !ok {
		return 0, false
	}
	var c cachedScore
	if err := json.Unmarshal([]byte(raw), &c); err != nil || c.Probability < 0 || c.Probability > 1 {
		logging.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		return 0, false
	}
	return c.Probability, true
}

func (s *EligibilityService) store(ctx context.Context, key string, p float64) {
	raw, err := json.Marshal(cachedScore{Probability: p})
	if err == nil {
		err = s.cache.Set(ctx, key, string(raw))
	}
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("failed to cache prediction")
	}
}

// cacheKey identifies an applicant under a given model.
func cacheKey(modelID string, a domain.Applicant) string {
	h := xxhash.New()
	_, _ = h.WriteString(strconv.FormatFloat(a.Income, 'g', -1, 64))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strconv.Itoa(a.CreditScore))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(string(a.EmploymentStatus))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(string(a.LoanType))
	return cacheKeyPrefix + modelID + ":" + hex.EncodeToString(h.Sum(nil))
}

package repository

import (
	"context"
	"sync"

	"loan-eligibility/domain"
)

// PredictionRepositoryMemory is an in-memory implementation of
// PredictionRepository.
type PredictionRepositoryMemory struct {
	mu   sync.RWMutex
	data []PredictionRecord
}

// NewPredictionRepositoryMemory creates a new in-memory prediction repository.
func NewPredictionRepositoryMemory() *PredictionRepositoryMemory {
	return &PredictionRepositoryMemory{
		data: []PredictionRecord{},
	}
}

// Save stores the prediction in memory.
func (r *PredictionRepositoryMemory) Save(
	_ context.Context,
	input domain.Applicant,
	result domain.Prediction,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, PredictionRecord{Applicant: input, Prediction: result})
	return nil
}

func (r *PredictionRepositoryMemory) List(_ context.Context, limit int) ([]PredictionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.data)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]PredictionRecord, 0, n)
	for i := len(r.data) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.data[i])
	}
	return out, nil
}

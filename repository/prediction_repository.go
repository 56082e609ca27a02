package repository

import (
	"context"

	"loan-eligibility/domain"
)

// PredictionRecord is one audited prediction with the applicant it was made
// for.
type PredictionRecord struct {
	Applicant  domain.Applicant  `json:"applicant"`
	Prediction domain.Prediction `json:"prediction"`
}

type PredictionRepository interface {
	Save(ctx context.Context, input domain.Applicant, result domain.Prediction) error

	// List returns up to limit records, most recent first. A limit of zero
	// or less returns everything.
	List(ctx context.Context, limit int) ([]PredictionRecord, error)
}

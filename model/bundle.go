// Package model defines the persisted eligibility model: the fitted
// encoder profile and the trained forest, stored together so predictions
// always use the encoding the forest was trained on.
package model

import (
	"time"

	"github.com/google/uuid"

	"loan-eligibility/domain"
	"loan-eligibility/encoder"
	"loan-eligibility/forest"
)

// Metadata describes how and when a bundle was trained.
type Metadata struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	TrainingSize int       `json:"training_size"`
	TestSize     int       `json:"test_size"`
	NumTrees     int       `json:"num_trees"`
	Report       Report    `json:"report"`

	// Checksum and SizeBytes are filled in by Encode.
	Checksum  string `json:"checksum,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// Bundle is a complete, self-contained model.
type Bundle struct {
	Metadata Metadata
	Profile  encoder.Profile
	Forest   *forest.Forest
}

// NewBundle wraps a fitted profile and forest with fresh metadata.
func NewBundle(profile encoder.Profile, f *forest.Forest, report Report) *Bundle {
	b := &Bundle{
		Metadata: Metadata{
			ID:           uuid.NewString(),
			CreatedAt:    time.Now().UTC(),
			TrainingSize: report.TrainSize,
			TestSize:     report.TestSize,
			Report:       report,
		},
		Profile: profile,
		Forest:  f,
	}
	if f != nil {
		b.Metadata.NumTrees = len(f.Trees)
	}
	return b
}

// Validate reports the first missing component as an
// IncompleteArtifactError.
func (b *Bundle) Validate() error {
	switch {
	case b == nil || b.Forest == nil || len(b.Forest.Trees) == 0:
		return &domain.IncompleteArtifactError{Missing: "forest"}
	case !b.Profile.HasCategories():
		return &domain.IncompleteArtifactError{Missing: "category mappings"}
	case !b.Profile.HasScaler():
		return &domain.IncompleteArtifactError{Missing: "scaler"}
	case b.Forest.NumFeatures != encoder.NumFeatures:
		return &domain.IncompleteArtifactError{Missing: "forest trained on encoded features"}
	}
	return nil
}

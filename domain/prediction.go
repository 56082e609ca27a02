package domain

import "time"

type Label string

const (
	Eligible    Label = "Eligible"
	NotEligible Label = "Not Eligible"
)

// Index returns the class index used by the classifier: 0 for Not Eligible,
// 1 for Eligible.
func (l Label) Index() int {
	if l == Eligible {
		return 1
	}
	return 0
}

// LabelFromIndex is the inverse of Label.Index.
func LabelFromIndex(i int) Label {
	if i == 1 {
		return Eligible
	}
	return NotEligible
}

// Prediction is the final decision for one applicant.
type Prediction struct {
	ID         string  `json:"id"`
	ModelID    string  `json:"model_id"`
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`

	// ModelLabel and ModelConfidence are the classifier's advisory output
	// before the override policy ran.
	ModelLabel      Label   `json:"model_label"`
	ModelConfidence float64 `json:"model_confidence"`

	Overridden bool   `json:"overridden"`
	Rule       string `json:"rule,omitempty"`
	Reason     string `json:"reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

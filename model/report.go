package model

import (
	"fmt"
	"strings"

	"loan-eligibility/domain"
)

// Report summarises classifier quality on a held-out set. Precision,
// recall and F1 are computed for the Eligible class.
type Report struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	// Confusion is indexed [actual][predicted] by Label.Index.
	Confusion [2][2]int `json:"confusion"`

	// LabelDistribution counts the labels of the whole training dataset.
	LabelDistribution map[domain.Label]int `json:"label_distribution"`

	TrainSize int `json:"train_size"`
	TestSize  int `json:"test_size"`
}

// Score compares actual and predicted class indexes.
func Score(actual, predicted []int) Report {
	var r Report
	for i := range actual {
		r.Confusion[actual[i]][predicted[i]]++
	}
	tn, fp := r.Confusion[0][0], r.Confusion[0][1]
	fn, tp := r.Confusion[1][0], r.Confusion[1][1]

	r.Accuracy = ratio(tp+tn, len(actual))
	r.Precision = ratio(tp, tp+fp)
	r.Recall = ratio(tp, tp+fn)
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}
	return r
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// String renders the report as a small text table.
func (r Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "train=%d test=%d\n", r.TrainSize, r.TestSize)
	fmt.Fprintf(&sb, "accuracy  %.4f\n", r.Accuracy)
	fmt.Fprintf(&sb, "precision %.4f\n", r.Precision)
	fmt.Fprintf(&sb, "recall    %.4f\n", r.Recall)
	fmt.Fprintf(&sb, "f1        %.4f\n", r.F1)
	fmt.Fprintf(&sb, "confusion (rows actual, cols predicted; %s, %s)\n", domain.NotEligible, domain.Eligible)
	fmt.Fprintf(&sb, "  %6d %6d\n", r.Confusion[0][0], r.Confusion[0][1])
	fmt.Fprintf(&sb, "  %6d %6d\n", r.Confusion[1][0], r.Confusion[1][1])
	for _, l := range []domain.Label{domain.Eligible, domain.NotEligible} {
		fmt.Fprintf(&sb, "%-13s %d\n", l, r.LabelDistribution[l])
	}
	return sb.String()
}

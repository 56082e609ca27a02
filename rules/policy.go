// Package rules implements the deterministic loan eligibility decision:
// hard rejections, automatic approval and a weighted fallback score.
//
// The same Policy labels training data and overrules classifier output, so
// a trained model can never contradict the non-negotiable rules.
package rules

import (
	"fmt"

	"loan-eligibility/domain"
)

// Decision is the outcome of evaluating one applicant.
type Decision struct {
	Label domain.Label `json:"label"`
	Rule  string       `json:"rule"`

	// Score is set only when the composite score decided.
	Score  *float64 `json:"score,omitempty"`
	Reason string   `json:"reason"`
}

// Policy bundles the criteria table and scoring constants. It holds no
// mutable state and is safe to share.
type Policy struct {
	criteria  domain.CriteriaTable
	scoring   Scoring
	rules     []Rule
	overrides []Rule
}

// NewPolicy builds a policy over an explicit criteria table.
func NewPolicy(criteria domain.CriteriaTable, scoring Scoring) *Policy {
	return &Policy{
		criteria:  criteria,
		scoring:   scoring,
		rules:     DefaultRules(),
		overrides: OverrideRules(),
	}
}

// DefaultPolicy uses the default criteria and scoring.
func DefaultPolicy() *Policy {
	return NewPolicy(domain.DefaultCriteria(), DefaultScoring())
}

func (p *Policy) Criteria() domain.CriteriaTable { return p.criteria }

func (p *Policy) Scoring() Scoring { return p.scoring }

func (p *Policy) input(a domain.Applicant) (*Input, error) {
	c, err := p.criteria.Lookup(a.LoanType)
	if err != nil {
		return nil, err
	}
	return &Input{Applicant: a, Criteria: c, Scoring: p.scoring}, nil
}

// Evaluate labels a: the first matching rule wins, otherwise the composite
// score must exceed the threshold.
func (p *Policy) Evaluate(a domain.Applicant) (Decision, error) {
	in, err := p.input(a)
	if err != nil {
		return Decision{}, err
	}

	if r, label := runRules(p.rules, in); r != nil {
		return Decision{Label: label, Rule: r.Name(), Reason: r.Reason(in)}, nil
	}

	score := p.scoring.Score(a, in.Criteria)
	d := Decision{Label: domain.NotEligible, Rule: RuleScore, Score: &score}
	if score > p.scoring.Threshold {
		d.Label = domain.Eligible
		d.Reason = fmt.Sprintf("composite score %.2f exceeds the threshold of %.2f", score, p.scoring.Threshold)
	} else {
		d.Reason = fmt.Sprintf("composite score %.2f does not exceed the threshold of %.2f; the combination of factors does not meet current lending criteria",
			score, p.scoring.Threshold)
	}
	return d, nil
}

// Label is Evaluate reduced to its label, usable as a generator.Labeller.
func (p *Policy) Label(a domain.Applicant) (domain.Label, error) {
	d, err := p.Evaluate(a)
	if err != nil {
		return "", err
	}
	return d.Label, nil
}

// Override re-applies the credit and employment rejections and automatic
// approval to a model prediction. When one of them matches, its decision
// replaces the prediction and ok is true; otherwise predicted stands.
func (p *Policy) Override(a domain.Applicant, predicted domain.Label) (d Decision, ok bool, err error) {
	in, err := p.input(a)
	if err != nil {
		return Decision{}, false, err
	}
	if r, label := runRules(p.overrides, in); r != nil {
		return Decision{Label: label, Rule: r.Name(), Reason: r.Reason(in)}, true, nil
	}
	return Decision{Label: predicted}, false, nil
}

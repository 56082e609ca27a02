package rules

import "loan-eligibility/domain"

// Scoring holds the tuning constants of the automatic-approval and
// composite-score rules.
type Scoring struct {
	// AutoApproveIncomeFactor multiplies the preferred income to get the
	// automatic-approval income bar.
	AutoApproveIncomeFactor float64 `koanf:"auto_approve_income_factor" validate:"gt=0"`

	// CreditDivisor normalises the credit score margin over the minimum.
	CreditDivisor float64 `koanf:"credit_divisor" validate:"gt=0"`

	// Threshold is the score an applicant must strictly exceed.
	Threshold float64 `koanf:"threshold"`

	EmployedBonus     float64 `koanf:"employed_bonus"`
	SelfEmployedBonus float64 `koanf:"self_employed_bonus"`
	UnemployedBonus   float64 `koanf:"unemployed_bonus"`
}

func DefaultScoring() Scoring {
	return Scoring{
		AutoApproveIncomeFactor: 1.5,
		CreditDivisor:           200,
		Threshold:               1.0,
		EmployedBonus:           0.5,
		SelfEmployedBonus:       0.3,
		UnemployedBonus:         0,
	}
}

// Bonus returns the employment bonus for s.
func (s Scoring) Bonus(status domain.EmploymentStatus) float64 {
	switch status {
	case domain.Employed:
		return s.EmployedBonus
	case domain.SelfEmployed:
		return s.SelfEmployedBonus
	}
	return s.UnemployedBonus
}

// Score computes the composite score for an applicant that passed the hard
// rejections and missed automatic approval.
func (s Scoring) Score(a domain.Applicant, c domain.LoanCriteria) float64 {
	score := float64(a.CreditScore-c.MinCredit) / s.CreditDivisor
	score += (a.Income - c.MinIncome) / c.MinIncome
	return score + s.Bonus(a.EmploymentStatus)
}

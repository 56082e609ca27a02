package generator

import "loan-eligibility/domain"

// Config controls the synthetic applicant distributions.
type Config struct {
	// Seed makes generation deterministic.
	Seed int64

	// IncomeLogMean and IncomeLogSigma parameterise the log-normal income.
	IncomeLogMean  float64
	IncomeLogSigma float64
	MinIncome      float64
	MaxIncome      float64

	// CreditMean and CreditStdDev parameterise the normal credit score,
	// clipped to [300, 850].
	CreditMean   float64
	CreditStdDev float64

	EmploymentWeights map[domain.EmploymentStatus]float64
	LoanTypeWeights   map[domain.LoanType]float64
}

// DefaultConfig returns the reference population.
func DefaultConfig() Config {
	return Config{
		Seed:           42,
		IncomeLogMean:  11,
		IncomeLogSigma: 0.5,
		MinIncome:      20000,
		MaxIncome:      500000,
		CreditMean:     680,
		CreditStdDev:   80,
		EmploymentWeights: map[domain.EmploymentStatus]float64{
			domain.Employed:     0.75,
			domain.SelfEmployed: 0.20,
			domain.Unemployed:   0.05,
		},
		LoanTypeWeights: map[domain.LoanType]float64{
			domain.HomeLoan:      0.35,
			domain.EducationLoan: 0.25,
			domain.CarLoan:       0.40,
		},
	}
}

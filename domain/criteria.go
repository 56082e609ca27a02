package domain

import "sort"

// LoanCriteria holds the per-loan-type thresholds used by the rule engine.
type LoanCriteria struct {
	MinIncome       float64 `json:"min_income" koanf:"min_income" validate:"gt=0"`
	PreferredIncome float64 `json:"preferred_income" koanf:"preferred_income" validate:"gtefield=MinIncome"`
	MinCredit       int     `json:"min_credit" koanf:"min_credit" validate:"min=300,max=850"`
	PreferredCredit int     `json:"preferred_credit" koanf:"preferred_credit" validate:"gtefield=MinCredit,max=850"`
}

// CriteriaTable is an immutable loan type -> criteria mapping. Lookups
// return copies, and the constructor copies its input.
type CriteriaTable struct {
	entries map[LoanType]LoanCriteria
}

// NewCriteriaTable copies entries into a new table.
func NewCriteriaTable(entries map[LoanType]LoanCriteria) CriteriaTable {
	m := make(map[LoanType]LoanCriteria, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return CriteriaTable{entries: m}
}

// DefaultCriteria returns the standard criteria for home, education and car
// loans.
func DefaultCriteria() CriteriaTable {
	return NewCriteriaTable(map[LoanType]LoanCriteria{
		HomeLoan: {
			MinIncome:       50000,
			PreferredIncome: 80000,
			MinCredit:       640,
			PreferredCredit: 700,
		},
		EducationLoan: {
			MinIncome:       30000,
			PreferredIncome: 50000,
			MinCredit:       620,
			PreferredCredit: 680,
		},
		CarLoan: {
			MinIncome:       25000,
			PreferredIncome: 40000,
			MinCredit:       600,
			PreferredCredit: 660,
		},
	})
}

// Lookup returns the criteria for t.
func (c CriteriaTable) Lookup(t LoanType) (LoanCriteria, error) {
	lc, ok := c.entries[t]
	if !ok {
		return LoanCriteria{}, &UnknownCategoryError{Column: "loan_type", Value: string(t)}
	}
	return lc, nil
}

// With returns a copy of the table with t set to lc.
func (c CriteriaTable) With(t LoanType, lc LoanCriteria) CriteriaTable {
	m := make(map[LoanType]LoanCriteria, len(c.entries)+1)
	for k, v := range c.entries {
		m[k] = v
	}
	m[t] = lc
	return CriteriaTable{entries: m}
}

// LoanTypes returns the table's loan types in sorted order.
func (c CriteriaTable) LoanTypes() []LoanType {
	types := make([]LoanType, 0, len(c.entries))
	for t := range c.entries {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// NominalLoanAmount is the typical principal for a loan type, used to derive
// the income-to-loan ratio feature. Unknown types fall back to 50000.
func NominalLoanAmount(t LoanType) float64 {
	switch t {
	case HomeLoan:
		return 250000
	case EducationLoan:
		return 50000
	case CarLoan:
		return 35000
	}
	return 50000
}

package rules

import (
	"fmt"

	"loan-eligibility/domain"
)

// Requirements describes, for one loan type, what the policy checks.
type Requirements struct {
	LoanType           domain.LoanType `json:"loan_type"`
	Minimum            []string        `json:"minimum"`
	Preferred          []string        `json:"preferred"`
	AutomaticApproval  []string        `json:"automatic_approval"`
	AutomaticRejection []string        `json:"automatic_rejection"`
}

// Requirements lists the requirements for every loan type in the criteria
// table, sorted by loan type.
func (p *Policy) Requirements() []Requirements {
	types := p.criteria.LoanTypes()
	out := make([]Requirements, 0, len(types))
	for _, t := range types {
		c, _ := p.criteria.Lookup(t)
		employment := "Must be employed or self-employed"
		rejections := []string{
			fmt.Sprintf("Credit score below %d", c.MinCredit),
			fmt.Sprintf("Income below $%.0f", c.MinIncome),
			"Unemployed status",
		}
		if t == domain.EducationLoan {
			employment = "All employment statuses accepted"
			rejections = rejections[:2]
		}
		out = append(out, Requirements{
			LoanType: t,
			Minimum: []string{
				fmt.Sprintf("Income: $%.0f+", c.MinIncome),
				fmt.Sprintf("Credit score: %d+", c.MinCredit),
				employment,
			},
			Preferred: []string{
				fmt.Sprintf("Income: $%.0f+", c.PreferredIncome),
				fmt.Sprintf("Credit score: %d+", c.PreferredCredit),
			},
			AutomaticApproval: []string{
				fmt.Sprintf("Credit score: %d+", c.PreferredCredit),
				fmt.Sprintf("Income: $%.0f+", c.PreferredIncome*p.scoring.AutoApproveIncomeFactor),
				"Employment status: Employed",
			},
			AutomaticRejection: rejections,
		})
	}
	return out
}

package rules

import (
	"fmt"

	"loan-eligibility/domain"
)

// Input is what a rule sees: the applicant plus the criteria for its loan
// type and the scoring constants.
type Input struct {
	Applicant domain.Applicant
	Criteria  domain.LoanCriteria
	Scoring   Scoring
}

// Rule is one step of the eligibility decision. Check returns the label the
// rule imposes and true, or ("", false) if the rule doesn't apply.
type Rule interface {
	Name() string
	Check(in *Input) (domain.Label, bool)
	Reason(in *Input) string
}

const (
	RuleMinCredit    = "min-credit"
	RuleUnemployed   = "unemployed"
	RuleMinIncome    = "min-income"
	RuleAutoApproval = "auto-approval"
	RuleScore        = "score"
)

// DefaultRules returns the decision rules in precedence order. The
// composite score is the fallback when none of them match.
func DefaultRules() []Rule {
	return []Rule{
		MinCreditRule{},
		UnemployedRule{},
		MinIncomeRule{},
		AutoApprovalRule{},
	}
}

// OverrideRules returns the subset of rules that may overrule a classifier
// prediction: the credit and employment rejections and automatic approval.
func OverrideRules() []Rule {
	return []Rule{
		MinCreditRule{},
		UnemployedRule{},
		AutoApprovalRule{},
	}
}

// runRules returns the first matching rule, or nil.
func runRules(rules []Rule, in *Input) (Rule, domain.Label) {
	for _, r := range rules {
		if l, ok := r.Check(in); ok {
			return r, l
		}
	}
	return nil, ""
}

type MinCreditRule struct{}

func (MinCreditRule) Name() string { return RuleMinCredit }

func (MinCreditRule) Check(in *Input) (domain.Label, bool) {
	if in.Applicant.CreditScore < in.Criteria.MinCredit {
		return domain.NotEligible, true
	}
	return "", false
}

func (MinCreditRule) Reason(in *Input) string {
	return fmt.Sprintf("credit score %d is below the minimum of %d for %s loans; improve the credit score before reapplying",
		in.Applicant.CreditScore, in.Criteria.MinCredit, in.Applicant.LoanType)
}

type UnemployedRule struct{}

func (UnemployedRule) Name() string { return RuleUnemployed }

func (UnemployedRule) Check(in *Input) (domain.Label, bool) {
	if in.Applicant.EmploymentStatus == domain.Unemployed && in.Applicant.LoanType != domain.EducationLoan {
		return domain.NotEligible, true
	}
	return "", false
}

func (UnemployedRule) Reason(in *Input) string {
	return fmt.Sprintf("%s loans require stable employment", in.Applicant.LoanType)
}

type MinIncomeRule struct{}

func (MinIncomeRule) Name() string { return RuleMinIncome }

func (MinIncomeRule) Check(in *Input) (domain.Label, bool) {
	if in.Applicant.Income < in.Criteria.MinIncome {
		return domain.NotEligible, true
	}
	return "", false
}

func (MinIncomeRule) Reason(in *Input) string {
	return fmt.Sprintf("income %.0f is below the minimum of %.0f for %s loans",
		in.Applicant.Income, in.Criteria.MinIncome, in.Applicant.LoanType)
}

// AutoApprovalRule approves employed applicants whose credit reaches the
// preferred level and whose income clears the preferred income by the
// configured factor.
type AutoApprovalRule struct{}

func (AutoApprovalRule) Name() string { return RuleAutoApproval }

func (AutoApprovalRule) Check(in *Input) (domain.Label, bool) {
	a, c := in.Applicant, in.Criteria
	if a.CreditScore >= c.PreferredCredit &&
		a.Income >= c.PreferredIncome*in.Scoring.AutoApproveIncomeFactor &&
		a.EmploymentStatus == domain.Employed {
		return domain.Eligible, true
	}
	return "", false
}

func (AutoApprovalRule) Reason(in *Input) string {
	return fmt.Sprintf("automatic approval: credit score %d and income %.0f exceed the preferred levels for %s loans",
		in.Applicant.CreditScore, in.Applicant.Income, in.Applicant.LoanType)
}

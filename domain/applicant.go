package domain

import "strings"

type EmploymentStatus string

const (
	Employed     EmploymentStatus = "Employed"
	SelfEmployed EmploymentStatus = "Self-employed"
	Unemployed   EmploymentStatus = "Unemployed"
)

type LoanType string

const (
	HomeLoan      LoanType = "Home"
	EducationLoan LoanType = "Education"
	CarLoan       LoanType = "Car"
)

// Applicant is one loan seeker. Values are never mutated after creation.
type Applicant struct {
	Income           float64          `json:"income" validate:"gt=0"`
	CreditScore      int              `json:"credit_score" validate:"min=300,max=850"`
	EmploymentStatus EmploymentStatus `json:"employment_status"`
	LoanType         LoanType         `json:"loan_type"`
}

// LabelledApplicant pairs an applicant with its rule-engine label.
type LabelledApplicant struct {
	Applicant
	Label Label `json:"eligibility"`
}

// ParseEmploymentStatus accepts the canonical names case-insensitively.
func ParseEmploymentStatus(s string) (EmploymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "employed":
		return Employed, nil
	case "self-employed", "self employed", "selfemployed":
		return SelfEmployed, nil
	case "unemployed":
		return Unemployed, nil
	}
	return "", &UnknownCategoryError{Column: "employment_status", Value: s}
}

// ParseLoanType accepts "Home", "Home Loan" and similar spellings.
func ParseLoanType(s string) (LoanType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, " loan")
	switch v {
	case "home":
		return HomeLoan, nil
	case "education":
		return EducationLoan, nil
	case "car":
		return CarLoan, nil
	}
	return "", &UnknownCategoryError{Column: "loan_type", Value: s}
}

// EmploymentStatuses lists every status the generator can draw.
func EmploymentStatuses() []EmploymentStatus {
	return []EmploymentStatus{Employed, SelfEmployed, Unemployed}
}

// LoanTypes lists every loan type the generator can draw.
func LoanTypes() []LoanType {
	return []LoanType{HomeLoan, EducationLoan, CarLoan}
}

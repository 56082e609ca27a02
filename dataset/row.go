// Package dataset reads and writes applicant batches as CSV or JSON and
// coerces loosely typed rows into applicants.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"loan-eligibility/domain"
)

// Column names shared by every format.
const (
	ColIncome      = "income"
	ColCreditScore = "credit_score"
	ColEmployment  = "employment_status"
	ColLoanType    = "loan_type"
	ColLabel       = "eligibility"
)

// Row is one raw input record keyed by column name.
type Row map[string]any

// ParseApplicant coerces a row into an applicant. Numbers may be given as
// strings, loan types may carry a " Loan" suffix. Ranges are not checked
// here; see validation.ValidateApplicant.
func ParseApplicant(row Row) (domain.Applicant, error) {
	income, err := floatField(row, ColIncome)
	if err != nil {
		return domain.Applicant{}, err
	}
	credit, err := floatField(row, ColCreditScore)
	if err != nil {
		return domain.Applicant{}, err
	}
	if credit != math.Trunc(credit) {
		return domain.Applicant{}, fmt.Errorf("%s: %v is not a whole number", ColCreditScore, credit)
	}
	emp, err := stringField(row, ColEmployment)
	if err != nil {
		return domain.Applicant{}, err
	}
	status, err := domain.ParseEmploymentStatus(emp)
	if err != nil {
		return domain.Applicant{}, err
	}
	loan, err := stringField(row, ColLoanType)
	if err != nil {
		return domain.Applicant{}, err
	}
	loanType, err := domain.ParseLoanType(loan)
	if err != nil {
		return domain.Applicant{}, err
	}
	return domain.Applicant{
		Income:           income,
		CreditScore:      int(credit),
		EmploymentStatus: status,
		LoanType:         loanType,
	}, nil
}

// ParseLabelled is ParseApplicant plus the eligibility column.
func ParseLabelled(row Row) (domain.LabelledApplicant, error) {
	a, err := ParseApplicant(row)
	if err != nil {
		return domain.LabelledApplicant{}, err
	}
	s, err := stringField(row, ColLabel)
	if err != nil {
		return domain.LabelledApplicant{}, err
	}
	label, err := ParseLabel(s)
	if err != nil {
		return domain.LabelledApplicant{}, err
	}
	return domain.LabelledApplicant{Applicant: a, Label: label}, nil
}

// ParseLabel accepts the label names in any case.
func ParseLabel(s string) (domain.Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case strings.ToLower(string(domain.Eligible)):
		return domain.Eligible, nil
	case strings.ToLower(string(domain.NotEligible)):
		return domain.NotEligible, nil
	}
	return "", &domain.UnknownCategoryError{Column: ColLabel, Value: s}
}

// Applicants parses every row, reporting the index of the first bad one.
func Applicants(rows []Row) ([]domain.Applicant, error) {
	out := make([]domain.Applicant, len(rows))
	for i, r := range rows {
		a, err := ParseApplicant(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = a
	}
	return out, nil
}

// Labelled parses every row including its label.
func Labelled(rows []Row) ([]domain.LabelledApplicant, error) {
	out := make([]domain.LabelledApplicant, len(rows))
	for i, r := range rows {
		a, err := ParseLabelled(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = a
	}
	return out, nil
}

func floatField(row Row, key string) (float64, error) {
	v, ok := row[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing field %q", key)
	}
	var (
		f   float64
		err error
	)
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		f, err = n.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("%s: unsupported type %T", key, v)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: %v is not a finite number", key, f)
	}
	return f, nil
}

func stringField(row Row, key string) (string, error) {
	v, ok := row[key]
	if !ok || v == nil {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected a string, got %T", key, v)
	}
	return s, nil
}

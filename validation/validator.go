// Package validation wraps go-playground/validator with the checks the
// eligibility pipeline applies to applicants and configuration.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"loan-eligibility/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator. Field names in errors use the
// json tag so messages match the input keys.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

var bounds = map[string]string{
	"income":       "> 0",
	"credit_score": "between 300 and 850",
}

// ValidateApplicant checks numeric ranges and that both categorical fields
// hold a known canonical value. Range failures are *domain.RangeError, category
// failures *domain.UnknownCategoryError.
func ValidateApplicant(a domain.Applicant) error {
	if err := GetValidator().Struct(a); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return fmt.Errorf("validate applicant: %w", err)
		}
		fe := fieldErrs[0]
		bound, ok := bounds[fe.Field()]
		if !ok {
			bound = fmt.Sprintf("%s %s", fe.Tag(), fe.Param())
		}
		return &domain.RangeError{Field: fe.Field(), Value: toFloat(fe.Value()), Bound: bound}
	}
	// Only canonical values are accepted; aliases are resolved by the parsers
	// before an Applicant is built.
	if emp, err := domain.ParseEmploymentStatus(string(a.EmploymentStatus)); err != nil || emp != a.EmploymentStatus {
		return &domain.UnknownCategoryError{Column: "employment_status", Value: string(a.EmploymentStatus)}
	}
	if loan, err := domain.ParseLoanType(string(a.LoanType)); err != nil || loan != a.LoanType {
		return &domain.UnknownCategoryError{Column: "loan_type", Value: string(a.LoanType)}
	}
	return nil
}

// ValidateStruct runs the tag-based checks on s and joins every failure into
// one error.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

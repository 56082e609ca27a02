package encoder

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"loan-eligibility/domain"
)

// Feature positions in an encoded vector.
const (
	FeatureIncome = iota
	FeatureCreditScore
	FeatureEmployment
	FeatureLoanType
	FeatureIncomeToLoan

	NumFeatures
)

// FeatureNames is indexed by the Feature constants.
var FeatureNames = [NumFeatures]string{
	"income",
	"credit_score",
	"employment_status",
	"loan_type",
	"income_to_loan_ratio",
}

// scaled lists the features standardised by the scaler, in scaler order.
var scaled = []int{FeatureIncome, FeatureCreditScore, FeatureIncomeToLoan}

// Profile is the fitted encoder state: category mappings plus the scaler.
// It is a value produced by Fit and never changes afterwards.
type Profile struct {
	employment []domain.EmploymentStatus
	loanTypes  []domain.LoanType
	mean       []float64
	scale      []float64
}

// EmploymentCategories returns the fitted statuses; a status' code is its
// index.
func (p Profile) EmploymentCategories() []domain.EmploymentStatus {
	return append([]domain.EmploymentStatus(nil), p.employment...)
}

// LoanTypeCategories returns the fitted loan types; a type's code is its
// index.
func (p Profile) LoanTypeCategories() []domain.LoanType {
	return append([]domain.LoanType(nil), p.loanTypes...)
}

// Mean and Scale return the standardisation parameters for income, credit
// score and income-to-loan ratio, in that order.
func (p Profile) Mean() []float64  { return append([]float64(nil), p.mean...) }
func (p Profile) Scale() []float64 { return append([]float64(nil), p.scale...) }

// HasCategories reports whether both category mappings are present.
func (p Profile) HasCategories() bool {
	return len(p.employment) > 0 && len(p.loanTypes) > 0
}

// HasScaler reports whether the scaler parameters are present.
func (p Profile) HasScaler() bool {
	return len(p.mean) == len(scaled) && len(p.scale) == len(scaled)
}

// DecodeEmployment maps a code back to its status.
func (p Profile) DecodeEmployment(code int) (domain.EmploymentStatus, error) {
	if code < 0 || code >= len(p.employment) {
		return "", &domain.UnknownCategoryError{Column: "employment_status", Value: fmt.Sprint(code)}
	}
	return p.employment[code], nil
}

// DecodeLoanType maps a code back to its loan type.
func (p Profile) DecodeLoanType(code int) (domain.LoanType, error) {
	if code < 0 || code >= len(p.loanTypes) {
		return "", &domain.UnknownCategoryError{Column: "loan_type", Value: fmt.Sprint(code)}
	}
	return p.loanTypes[code], nil
}

func (p Profile) employmentCode(s domain.EmploymentStatus) (int, error) {
	for i, v := range p.employment {
		if v == s {
			return i, nil
		}
	}
	return 0, &domain.UnknownCategoryError{Column: "employment_status", Value: string(s)}
}

func (p Profile) loanTypeCode(t domain.LoanType) (int, error) {
	for i, v := range p.loanTypes {
		if v == t {
			return i, nil
		}
	}
	return 0, &domain.UnknownCategoryError{Column: "loan_type", Value: string(t)}
}

// profileState is the gob wire form of a Profile.
type profileState struct {
	Employment []domain.EmploymentStatus
	LoanTypes  []domain.LoanType
	Mean       []float64
	Scale      []float64
}

func (p Profile) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(profileState{
		Employment: p.employment,
		LoanTypes:  p.loanTypes,
		Mean:       p.mean,
		Scale:      p.scale,
	})
	return buf.Bytes(), err
}

func (p *Profile) GobDecode(data []byte) error {
	var st profileState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return err
	}
	*p = Profile{employment: st.Employment, loanTypes: st.LoanTypes, mean: st.Mean, scale: st.Scale}
	return nil
}

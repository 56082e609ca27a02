// Package encoder turns applicants into numeric feature vectors.
//
// Encoding has two explicit phases: Fit learns a Profile from a training
// batch, Transform applies a Profile to any batch without refitting.
package encoder

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"loan-eligibility/domain"
)

var ErrEmptyBatch = errors.New("cannot fit encoder on an empty batch")

// IncomeToLoanRatio divides income by the nominal principal of the loan
// type.
func IncomeToLoanRatio(a domain.Applicant) float64 {
	return a.Income / domain.NominalLoanAmount(a.LoanType)
}

// Fit learns sorted category mappings and mean/standard-deviation scaling
// from records.
func Fit(records []domain.Applicant) (Profile, error) {
	if len(records) == 0 {
		return Profile{}, ErrEmptyBatch
	}

	empSeen := map[domain.EmploymentStatus]bool{}
	loanSeen := map[domain.LoanType]bool{}
	raw := make([][]float64, len(scaled))
	for i := range raw {
		raw[i] = make([]float64, len(records))
	}

	for i, a := range records {
		empSeen[a.EmploymentStatus] = true
		loanSeen[a.LoanType] = true
		raw[0][i] = a.Income
		raw[1][i] = float64(a.CreditScore)
		raw[2][i] = IncomeToLoanRatio(a)
	}

	p := Profile{
		mean:  make([]float64, len(scaled)),
		scale: make([]float64, len(scaled)),
	}
	for s := range empSeen {
		p.employment = append(p.employment, s)
	}
	sort.Slice(p.employment, func(i, j int) bool { return p.employment[i] < p.employment[j] })
	for t := range loanSeen {
		p.loanTypes = append(p.loanTypes, t)
	}
	sort.Slice(p.loanTypes, func(i, j int) bool { return p.loanTypes[i] < p.loanTypes[j] })

	for i, col := range raw {
		p.mean[i], p.scale[i] = meanStd(col)
	}
	return p, nil
}

// Transform encodes records with p. It fails with an UnknownCategoryError
// when a record holds a category p was not fitted on.
func Transform(p Profile, records []domain.Applicant) ([][]float64, error) {
	if !p.HasCategories() || !p.HasScaler() {
		return nil, errors.New("encoder profile is not fitted")
	}
	out := make([][]float64, len(records))
	for i, a := range records {
		v, err := transformOne(p, a)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func transformOne(p Profile, a domain.Applicant) ([]float64, error) {
	emp, err := p.employmentCode(a.EmploymentStatus)
	if err != nil {
		return nil, err
	}
	loan, err := p.loanTypeCode(a.LoanType)
	if err != nil {
		return nil, err
	}

	v := make([]float64, NumFeatures)
	v[FeatureIncome] = a.Income
	v[FeatureCreditScore] = float64(a.CreditScore)
	v[FeatureEmployment] = float64(emp)
	v[FeatureLoanType] = float64(loan)
	v[FeatureIncomeToLoan] = IncomeToLoanRatio(a)
	for i, f := range scaled {
		v[f] = (v[f] - p.mean[i]) / p.scale[i]
	}
	return v, nil
}

// Inverse reconstructs the applicant an encoded vector came from.
// Numeric fields are recovered up to floating point error.
func Inverse(p Profile, v []float64) (domain.Applicant, error) {
	if len(v) != NumFeatures {
		return domain.Applicant{}, fmt.Errorf("vector has %d features, want %d", len(v), NumFeatures)
	}
	emp, err := p.DecodeEmployment(int(v[FeatureEmployment]))
	if err != nil {
		return domain.Applicant{}, err
	}
	loan, err := p.DecodeLoanType(int(v[FeatureLoanType]))
	if err != nil {
		return domain.Applicant{}, err
	}
	return domain.Applicant{
		Income:           v[FeatureIncome]*p.scale[0] + p.mean[0],
		CreditScore:      int(math.Round(v[FeatureCreditScore]*p.scale[1] + p.mean[1])),
		EmploymentStatus: emp,
		LoanType:         loan,
	}, nil
}

// meanStd returns the mean and population standard deviation of xs. A zero
// deviation is reported as 1 so constant columns encode to 0.
func meanStd(xs []float64) (mean, std float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		d := x - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(xs)))
	if std == 0 {
		std = 1
	}
	return mean, std
}

package generator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-eligibility/domain"
)

func TestGenerate_Deterministic(t *testing.T) {
	a := New(DefaultConfig()).Generate(200)
	b := New(DefaultConfig()).Generate(200)
	assert.Equal(t, a, b)

	cfg := DefaultConfig()
	cfg.Seed = 7
	c := New(cfg).Generate(200)
	assert.NotEqual(t, a, c)
}

func TestGenerate_Bounds(t *testing.T) {
	for _, a := range New(DefaultConfig()).Generate(5000) {
		assert.GreaterOrEqual(t, a.Income, 20000.0)
		assert.LessOrEqual(t, a.Income, 500000.0)
		assert.GreaterOrEqual(t, a.CreditScore, 300)
		assert.LessOrEqual(t, a.CreditScore, 850)
		assert.Contains(t, domain.EmploymentStatuses(), a.EmploymentStatus)
		assert.Contains(t, domain.LoanTypes(), a.LoanType)
	}
}

func TestGenerate_Distributions(t *testing.T) {
	const n = 20000
	batch := New(DefaultConfig()).Generate(n)

	employment := map[domain.EmploymentStatus]int{}
	loans := map[domain.LoanType]int{}
	var creditSum float64
	for _, a := range batch {
		employment[a.EmploymentStatus]++
		loans[a.LoanType]++
		creditSum += float64(a.CreditScore)
	}

	share := func(c int) float64 { return float64(c) / n }
	assert.InDelta(t, 0.75, share(employment[domain.Employed]), 0.02)
	assert.InDelta(t, 0.20, share(employment[domain.SelfEmployed]), 0.02)
	assert.InDelta(t, 0.05, share(employment[domain.Unemployed]), 0.01)
	assert.InDelta(t, 0.35, share(loans[domain.HomeLoan]), 0.02)
	assert.InDelta(t, 0.25, share(loans[domain.EducationLoan]), 0.02)
	assert.InDelta(t, 0.40, share(loans[domain.CarLoan]), 0.02)
	assert.InDelta(t, 680, creditSum/n, 5)
}

func TestGenerateLabelled(t *testing.T) {
	g := New(DefaultConfig())
	out, err := g.GenerateLabelled(10, func(a domain.Applicant) (domain.Label, error) {
		if a.CreditScore >= 680 {
			return domain.Eligible, nil
		}
		return domain.NotEligible, nil
	})
	require.NoError(t, err)
	require.Len(t, out, 10)
	for _, la := range out {
		if la.CreditScore >= 680 {
			assert.Equal(t, domain.Eligible, la.Label)
		} else {
			assert.Equal(t, domain.NotEligible, la.Label)
		}
	}

	_, err = New(DefaultConfig()).GenerateLabelled(3, func(domain.Applicant) (domain.Label, error) {
		return "", errors.New("boom")
	})
	require.Error(t, err)
}

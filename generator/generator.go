// Package generator produces synthetic loan applicants with a realistic
// spread of income, credit score, employment status and loan type.
package generator

import (
	"fmt"
	"math"
	"math/rand"

	"loan-eligibility/domain"
)

// Labeller assigns the ground-truth label to a generated applicant.
type Labeller func(domain.Applicant) (domain.Label, error)

type Generator struct {
	config Config
	rng    *rand.Rand
}

// New creates a generator seeded from cfg.Seed.
func New(cfg Config) *Generator {
	return &Generator{
		config: cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // synthetic data, not security sensitive
	}
}

// Generate draws n applicants. Two generators built from the same Config
// return identical batches.
func (g *Generator) Generate(n int) []domain.Applicant {
	out := make([]domain.Applicant, n)
	for i := range out {
		out[i] = domain.Applicant{
			Income:           g.income(),
			CreditScore:      g.creditScore(),
			EmploymentStatus: g.employment(),
			LoanType:         g.loanType(),
		}
	}
	return out
}

// GenerateLabelled draws n applicants and labels each with label.
func (g *Generator) GenerateLabelled(n int, label Labeller) ([]domain.LabelledApplicant, error) {
	applicants := g.Generate(n)
	out := make([]domain.LabelledApplicant, len(applicants))
	for i, a := range applicants {
		l, err := label(a)
		if err != nil {
			return nil, fmt.Errorf("label applicant %d: %w", i, err)
		}
		out[i] = domain.LabelledApplicant{Applicant: a, Label: l}
	}
	return out, nil
}

func (g *Generator) income() float64 {
	v := math.Exp(g.config.IncomeLogMean + g.config.IncomeLogSigma*g.rng.NormFloat64())
	return clip(v, g.config.MinIncome, g.config.MaxIncome)
}

func (g *Generator) creditScore() int {
	v := g.config.CreditMean + g.config.CreditStdDev*g.rng.NormFloat64()
	return int(math.Round(clip(v, 300, 850)))
}

func (g *Generator) employment() domain.EmploymentStatus {
	statuses := domain.EmploymentStatuses()
	weights := make([]float64, len(statuses))
	for i, s := range statuses {
		weights[i] = g.config.EmploymentWeights[s]
	}
	return statuses[g.pick(weights)]
}

func (g *Generator) loanType() domain.LoanType {
	types := domain.LoanTypes()
	weights := make([]float64, len(types))
	for i, t := range types {
		weights[i] = g.config.LoanTypeWeights[t]
	}
	return types[g.pick(weights)]
}

// pick draws an index with probability proportional to its weight.
func (g *Generator) pick(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	r := g.rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-eligibility/domain"
	"loan-eligibility/generator"
	"loan-eligibility/model"
	"loan-eligibility/repository"
	"loan-eligibility/rules"
)

type MockPredictionRepository struct {
	mu         sync.Mutex
	SaveCalled int
	ForceError bool
}

func (m *MockPredictionRepository) Save(_ context.Context, _ domain.Applicant, _ domain.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalled++
	if m.ForceError {
		return errors.New("save error")
	}
	return nil
}

func (m *MockPredictionRepository) List(context.Context, int) ([]repository.PredictionRecord, error) {
	return nil, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Forest.NumTrees = 30
	cfg.Forest.Workers = 4
	return cfg
}

func newTestService(t *testing.T, models repository.ModelRepository) (*EligibilityService, *MockPredictionRepository, *repository.MockCache) {
	t.Helper()
	repo := &MockPredictionRepository{}
	cache := repository.NewMockCache()
	return NewEligibilityService(rules.DefaultPolicy(), testConfig(), models, repo, cache), repo, cache
}

var (
	trainOnce   sync.Once
	trainResult *TrainResult
	trainErr    error
)

// trainedModel trains one shared model for the package's tests.
func trainedModel(t *testing.T) *model.Bundle {
	t.Helper()
	trainOnce.Do(func() {
		svc := NewEligibilityService(rules.DefaultPolicy(), testConfig(), nil,
			repository.NewPredictionRepositoryMemory(), repository.NewMockCache())
		records, err := svc.Generate(generator.DefaultConfig(), 2000)
		if err != nil {
			trainErr = err
			return
		}
		trainResult, trainErr = svc.Train(context.Background(), records)
	})
	require.NoError(t, trainErr)
	return trainResult.Bundle
}

func TestTrain_Report(t *testing.T) {
	b := trainedModel(t)
	r := trainResult.Report

	assert.Equal(t, 400, r.TestSize)
	assert.Equal(t, 1600, r.TrainSize)
	assert.Equal(t, 1600, b.Metadata.TrainingSize)
	assert.Equal(t, 30, b.Metadata.NumTrees)
	assert.Greater(t, r.Accuracy, 0.8)

	var confusion int
	for _, row := range r.Confusion {
		confusion += row[0] + row[1]
	}
	assert.Equal(t, r.TestSize, confusion)
	assert.Equal(t, 2000, r.LabelDistribution[domain.Eligible]+r.LabelDistribution[domain.NotEligible])
	assert.Positive(t, r.LabelDistribution[domain.Eligible])
	assert.Positive(t, r.LabelDistribution[domain.NotEligible])
}

func TestTrain_Deterministic(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	records, err := svc.Generate(generator.DefaultConfig(), 500)
	require.NoError(t, err)

	a, err := svc.Train(context.Background(), records)
	require.NoError(t, err)
	b, err := svc.Train(context.Background(), records)
	require.NoError(t, err)

	assert.NotEqual(t, a.Bundle.Metadata.ID, b.Bundle.Metadata.ID)
	assert.Equal(t, a.Report.Confusion, b.Report.Confusion)

	batch := generator.New(generator.DefaultConfig()).Generate(50)
	pa, err := svc.Predict(context.Background(), a.Bundle, batch)
	require.NoError(t, err)
	pb, err := svc.Predict(context.Background(), b.Bundle, batch)
	require.NoError(t, err)
	for i := range pa {
		assert.Equal(t, pa[i].Label, pb[i].Label)
		assert.Equal(t, pa[i].Confidence, pb[i].Confidence)
	}
}

func TestTrain_Errors(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	valid := domain.LabelledApplicant{
		Applicant: domain.Applicant{Income: 50000, CreditScore: 700, EmploymentStatus: domain.Employed, LoanType: domain.CarLoan},
		Label:     domain.Eligible,
	}
	batch := func(mutate func(*domain.LabelledApplicant)) []domain.LabelledApplicant {
		out := make([]domain.LabelledApplicant, MinTrainingRecords)
		for i := range out {
			out[i] = valid
		}
		mutate(&out[3])
		return out
	}

	_, err := svc.Train(context.Background(), []domain.LabelledApplicant{valid})
	assert.ErrorIs(t, err, ErrTooFewRecords)

	_, err = svc.Train(context.Background(), batch(func(r *domain.LabelledApplicant) { r.Income = -1 }))
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
	assert.Contains(t, err.Error(), "record 3")

	_, err = svc.Train(context.Background(), batch(func(r *domain.LabelledApplicant) { r.LoanType = "Boat" }))
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)

	_, err = svc.Train(context.Background(), batch(func(r *domain.LabelledApplicant) { r.Label = "Maybe" }))
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)
}

func TestTrain_Cancelled(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	records, err := svc.Generate(generator.DefaultConfig(), 100)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Train(ctx, records)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredict_Scenarios(t *testing.T) {
	b := trainedModel(t)
	svc, _, _ := newTestService(t, nil)

	preds, err := svc.Predict(context.Background(), b, []domain.Applicant{
		{Income: 35000, CreditScore: 580, EmploymentStatus: domain.Unemployed, LoanType: domain.CarLoan},
		{Income: 150000, CreditScore: 820, EmploymentStatus: domain.Employed, LoanType: domain.HomeLoan},
	})
	require.NoError(t, err)
	require.Len(t, preds, 2)

	assert.Equal(t, domain.NotEligible, preds[0].Label)
	assert.Equal(t, rules.RuleMinCredit, preds[0].Rule)

	assert.Equal(t, domain.Eligible, preds[1].Label)
	assert.Equal(t, rules.RuleAutoApproval, preds[1].Rule)

	for _, p := range preds {
		assert.Equal(t, b.Metadata.ID, p.ModelID)
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, p.Overridden, p.Label != p.ModelLabel)
		if p.Overridden {
			assert.Equal(t, 1.0, p.Confidence)
		} else {
			assert.Equal(t, p.ModelConfidence, p.Confidence)
		}
	}

	// Scenario 3 is decided by the composite score.
	d, err := svc.Evaluate(domain.Applicant{Income: 60000, CreditScore: 700, EmploymentStatus: domain.SelfEmployed, LoanType: domain.EducationLoan})
	require.NoError(t, err)
	assert.Equal(t, domain.Eligible, d.Label)
	require.NotNil(t, d.Score)
	assert.Equal(t, 1.7, *d.Score)
}

func TestPredict_RulesHaveFinalSay(t *testing.T) {
	b := trainedModel(t)
	svc, _, _ := newTestService(t, nil)
	policy := rules.DefaultPolicy()

	cfg := generator.DefaultConfig()
	cfg.Seed = 7
	batch := generator.New(cfg).Generate(1000)

	preds, err := svc.Predict(context.Background(), b, batch)
	require.NoError(t, err)

	for i, a := range batch {
		p := preds[i]
		assert.GreaterOrEqual(t, p.Confidence, 0.5)
		assert.LessOrEqual(t, p.Confidence, 1.0)

		c, err := policy.Criteria().Lookup(a.LoanType)
		require.NoError(t, err)
		if a.CreditScore < c.MinCredit {
			assert.Equal(t, domain.NotEligible, p.Label, "record %d", i)
		}
		if a.EmploymentStatus == domain.Unemployed && a.LoanType != domain.EducationLoan {
			assert.Equal(t, domain.NotEligible, p.Label, "record %d", i)
		}

		rule, matched, err := policy.Override(a, p.ModelLabel)
		require.NoError(t, err)
		switch {
		case !matched:
			assert.Equal(t, p.ModelLabel, p.Label)
			assert.False(t, p.Overridden)
			assert.Equal(t, p.ModelConfidence, p.Confidence)
		case rule.Label == p.ModelLabel:
			assert.False(t, p.Overridden, "record %d", i)
			assert.Equal(t, rule.Rule, p.Rule)
			assert.Equal(t, p.ModelConfidence, p.Confidence, "record %d", i)
		default:
			assert.True(t, p.Overridden, "record %d", i)
			assert.Equal(t, rule.Label, p.Label)
			assert.Equal(t, 1.0, p.Confidence, "record %d", i)
		}
	}
}

func TestPredict_SaveLoadRoundTrip(t *testing.T) {
	b := trainedModel(t)
	models, err := repository.NewFileModelRepository(filepath.Join(t.TempDir(), "models"))
	require.NoError(t, err)
	svc, _, _ := newTestService(t, models)

	require.NoError(t, svc.SaveModel(context.Background(), b))
	loaded, err := svc.LoadModel(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, b.Metadata.ID, loaded.Metadata.ID)

	genCfg := generator.DefaultConfig()
	genCfg.Seed = 99
	batch := generator.New(genCfg).Generate(200)

	// Fresh services so the cache cannot mask a difference.
	before, err := NewEligibilityService(rules.DefaultPolicy(), testConfig(), nil, &MockPredictionRepository{}, repository.NewMockCache()).
		Predict(context.Background(), b, batch)
	require.NoError(t, err)
	after, err := NewEligibilityService(rules.DefaultPolicy(), testConfig(), nil, &MockPredictionRepository{}, repository.NewMockCache()).
		Predict(context.Background(), loaded, batch)
	require.NoError(t, err)

	for i := range before {
		assert.Equal(t, before[i].Label, after[i].Label)
		assert.Equal(t, before[i].Confidence, after[i].Confidence)
		assert.Equal(t, before[i].ModelConfidence, after[i].ModelConfidence)
	}

	metas, err := svc.ListModels(context.Background())
	require.NoError(t, err)
	assert.Len(t, metas, 1)
}

func TestPredict_UsesCache(t *testing.T) {
	b := trainedModel(t)
	svc, _, cache := newTestService(t, nil)
	a := domain.Applicant{Income: 52000, CreditScore: 690, EmploymentStatus: domain.SelfEmployed, LoanType: domain.CarLoan}

	first, err := svc.Predict(context.Background(), b, []domain.Applicant{a})
	require.NoError(t, err)
	key := cacheKey(b.Metadata.ID, a)
	require.Contains(t, cache.Data, key)

	cache.Data[key] = `{"probability":0.42}`
	second, err := svc.Predict(context.Background(), b, []domain.Applicant{a})
	require.NoError(t, err)
	assert.Equal(t, domain.NotEligible, second[0].ModelLabel)
	assert.InDelta(t, 0.58, second[0].Confidence, 1e-9)
	assert.NotEqual(t, first[0].ID, second[0].ID)

	for _, bad := range []string{"not json", `{"probability":1.5}`} {
		cache.Data[key] = bad
		again, err := svc.Predict(context.Background(), b, []domain.Applicant{a})
		require.NoError(t, err)
		assert.Equal(t, first[0].Confidence, again[0].Confidence)
	}
}

func TestPredict_SharedCacheFollowsCurrentPolicy(t *testing.T) {
	b := trainedModel(t)
	cache := repository.NewMockCache()
	lenient := NewEligibilityService(rules.DefaultPolicy(), testConfig(), nil, &MockPredictionRepository{}, cache)

	strictCriteria := domain.DefaultCriteria().With(domain.HomeLoan, domain.LoanCriteria{
		MinIncome: 50000, PreferredIncome: 80000, MinCredit: 840, PreferredCredit: 850,
	})
	strict := NewEligibilityService(rules.NewPolicy(strictCriteria, rules.DefaultScoring()), testConfig(), nil, &MockPredictionRepository{}, cache)

	a := domain.Applicant{Income: 150000, CreditScore: 820, EmploymentStatus: domain.Employed, LoanType: domain.HomeLoan}

	first, err := lenient.Predict(context.Background(), b, []domain.Applicant{a})
	require.NoError(t, err)
	assert.Equal(t, domain.Eligible, first[0].Label)
	assert.Equal(t, rules.RuleAutoApproval, first[0].Rule)
	require.Len(t, cache.Data, 1)

	second, err := strict.Predict(context.Background(), b, []domain.Applicant{a})
	require.NoError(t, err)
	assert.Equal(t, domain.NotEligible, second[0].Label)
	assert.Equal(t, rules.RuleMinCredit, second[0].Rule)
	assert.Equal(t, first[0].ModelConfidence, second[0].ModelConfidence)
	assert.Len(t, cache.Data, 1, "second service should reuse the cached score")
}

func TestPredict_SideEffectFailuresAreNotFatal(t *testing.T) {
	b := trainedModel(t)
	repo := &MockPredictionRepository{ForceError: true}
	cache := repository.NewMockCache()
	cache.FailSet = true
	svc := NewEligibilityService(rules.DefaultPolicy(), testConfig(), nil, repo, cache)

	preds, err := svc.Predict(context.Background(), b, []domain.Applicant{
		{Income: 90000, CreditScore: 710, EmploymentStatus: domain.Employed, LoanType: domain.HomeLoan},
		{Income: 30000, CreditScore: 640, EmploymentStatus: domain.Employed, LoanType: domain.EducationLoan},
	})
	require.NoError(t, err)
	assert.Len(t, preds, 2)
	assert.Equal(t, 2, repo.SaveCalled)
}

func TestPredict_InputErrors(t *testing.T) {
	b := trainedModel(t)
	svc, repo, _ := newTestService(t, nil)
	ok := domain.Applicant{Income: 50000, CreditScore: 700, EmploymentStatus: domain.Employed, LoanType: domain.CarLoan}

	tests := []struct {
		name   string
		record domain.Applicant
		target error
	}{
		{"zero income", domain.Applicant{Income: 0, CreditScore: 700, EmploymentStatus: domain.Employed, LoanType: domain.CarLoan}, domain.ErrInvalidRange},
		{"credit too high", domain.Applicant{Income: 50000, CreditScore: 900, EmploymentStatus: domain.Employed, LoanType: domain.CarLoan}, domain.ErrInvalidRange},
		{"unknown loan type", domain.Applicant{Income: 50000, CreditScore: 700, EmploymentStatus: domain.Employed, LoanType: "Boat"}, domain.ErrUnknownCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Predict(context.Background(), b, []domain.Applicant{ok, tt.record})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Contains(t, err.Error(), "record 1")
		})
	}
	assert.Zero(t, repo.SaveCalled)
}

func TestPredict_CategoryUnseenAtFit(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	records := make([]domain.LabelledApplicant, 20)
	for i := range records {
		records[i] = domain.LabelledApplicant{
			Applicant: domain.Applicant{Income: 40000 + float64(i)*1000, CreditScore: 650 + i, EmploymentStatus: domain.Employed, LoanType: domain.CarLoan},
			Label:     domain.Eligible,
		}
	}
	records[0].Label = domain.NotEligible
	res, err := svc.Train(context.Background(), records)
	require.NoError(t, err)

	_, err = svc.Predict(context.Background(), res.Bundle, []domain.Applicant{
		{Income: 40000, CreditScore: 650, EmploymentStatus: domain.Employed, LoanType: domain.HomeLoan},
	})
	var uerr *domain.UnknownCategoryError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "loan_type", uerr.Column)
	assert.Equal(t, "Home", uerr.Value)
}

func TestTrain_RejectsNonCanonicalCategories(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	records, err := svc.Generate(generator.DefaultConfig(), 50)
	require.NoError(t, err)
	records[3].LoanType = "home loan"

	_, err = svc.Train(context.Background(), records)
	var uerr *domain.UnknownCategoryError
	require.True(t, errors.As(err, &uerr), "got %v", err)
	assert.Equal(t, "loan_type", uerr.Column)
	assert.Contains(t, err.Error(), "record 3")
}

func TestPredict_IncompleteBundle(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	_, err := svc.Predict(context.Background(), &model.Bundle{}, nil)
	assert.ErrorIs(t, err, domain.ErrIncompleteArtifact)
}

func TestPredict_BatchTooLarge(t *testing.T) {
	b := trainedModel(t)
	cfg := testConfig()
	cfg.MaxBatch = 1
	svc := NewEligibilityService(rules.DefaultPolicy(), cfg, nil, &MockPredictionRepository{}, repository.NewMockCache())

	a := domain.Applicant{Income: 50000, CreditScore: 700, EmploymentStatus: domain.Employed, LoanType: domain.CarLoan}
	_, err := svc.Predict(context.Background(), b, []domain.Applicant{a, a})
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestModelRepositoryRequired(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	_, err := svc.LoadModel(context.Background(), "")
	assert.Error(t, err)
	assert.Error(t, svc.SaveModel(context.Background(), trainedModel(t)))
}

func TestListPredictions(t *testing.T) {
	b := trainedModel(t)
	repo := repository.NewPredictionRepositoryMemory()
	svc := NewEligibilityService(rules.DefaultPolicy(), testConfig(), nil, repo, repository.NewMockCache())

	batch := generator.New(generator.DefaultConfig()).Generate(5)
	preds, err := svc.Predict(context.Background(), b, batch)
	require.NoError(t, err)

	records, err := svc.ListPredictions(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, preds[4].ID, records[0].Prediction.ID)
	assert.Equal(t, batch[4], records[0].Applicant)
}

func TestCacheKey(t *testing.T) {
	a := domain.Applicant{Income: 50000, CreditScore: 700, EmploymentStatus: domain.Employed, LoanType: domain.CarLoan}
	k := cacheKey("m1", a)
	assert.Equal(t, k, cacheKey("m1", a))
	assert.NotEqual(t, k, cacheKey("m2", a))

	b := a
	b.CreditScore = 701
	assert.NotEqual(t, k, cacheKey("m1", b))
}

func TestRequirements(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	reqs := svc.Requirements()
	require.Len(t, reqs, 3)
	assert.Equal(t, domain.CarLoan, reqs[0].LoanType)
}

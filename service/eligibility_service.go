package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"loan-eligibility/domain"
	"loan-eligibility/encoder"
	"loan-eligibility/forest"
	"loan-eligibility/generator"
	"loan-eligibility/logging"
	"loan-eligibility/metrics"
	"loan-eligibility/model"
	"loan-eligibility/repository"
	"loan-eligibility/rules"
	"loan-eligibility/validation"
)

var (
	ErrTooFewRecords = errors.New("not enough records to train")
	ErrBatchTooLarge = errors.New("prediction batch too large")
)

// roundTo2Decimals redondea un float64 a 2 decimales
func roundTo2Decimals(value float64) float64 {
	return math.Round(value*100) / 100
}

// Config tunes training and prediction.
type Config struct {
	Forest       forest.Config
	TestFraction float64
	SplitSeed    int64
	MaxBatch     int
}

func DefaultConfig() Config {
	return Config{
		Forest:       forest.DefaultConfig(),
		TestFraction: DefaultTestFraction,
		SplitSeed:    DefaultSplitSeed,
		MaxBatch:     MaxPredictBatch,
	}
}

// TrainResult is the outcome of Train.
type TrainResult struct {
	Bundle *model.Bundle
	Report model.Report
}

type EligibilityService struct {
	policy *rules.Policy
	config Config
	models repository.ModelRepository
	repo   repository.PredictionRepository
	cache  repository.CacheRepository
}

// NewEligibilityService creates a new EligibilityService. models may be nil
// when bundles are passed in directly; repo and cache must not be.
func NewEligibilityService(
	policy *rules.Policy,
	cfg Config,
	models repository.ModelRepository,
	repo repository.PredictionRepository,
	cache repository.CacheRepository,
) *EligibilityService {
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = MaxPredictBatch
	}
	return &EligibilityService{policy: policy, config: cfg, models: models, repo: repo, cache: cache}
}

func (s *EligibilityService) Policy() *rules.Policy { return s.policy }

// Generate produces n synthetic applicants labelled by the rule engine.
func (s *EligibilityService) Generate(cfg generator.Config, n int) ([]domain.LabelledApplicant, error) {
	if n < 0 {
		return nil, fmt.Errorf("record count must not be negative, got %d", n)
	}
	return generator.New(cfg).GenerateLabelled(n, s.policy.Label)
}

// Evaluate runs the rule engine alone on a validated applicant.
func (s *EligibilityService) Evaluate(a domain.Applicant) (rules.Decision, error) {
	if err := validation.ValidateApplicant(a); err != nil {
		return rules.Decision{}, err
	}
	d, err := s.policy.Evaluate(a)
	if err != nil {
		return rules.Decision{}, err
	}
	if d.Score != nil {
		score := roundTo2Decimals(*d.Score)
		d.Score = &score
	}
	return d, nil
}

// Requirements lists the per-loan-type requirements of the policy.
func (s *EligibilityService) Requirements() []rules.Requirements {
	return s.policy.Requirements()
}

// Train fits the encoder on the whole dataset, holds out a seeded random
// test fraction and fits the forest on the rest.
func (s *EligibilityService) Train(ctx context.Context, records []domain.LabelledApplicant) (*TrainResult, error) {
	start := time.Now()

	if len(records) < MinTrainingRecords {
		return nil, fmt.Errorf("%w: got %d, need at least %d", ErrTooFewRecords, len(records), MinTrainingRecords)
	}

	applicants := make([]domain.Applicant, len(records))
	labels := make([]int, len(records))
	distribution := map[domain.Label]int{}
	for i, r := range records {
		if err := validation.ValidateApplicant(r.Applicant); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if r.Label != domain.Eligible && r.Label != domain.NotEligible {
			return nil, fmt.Errorf("record %d: %w", i, &domain.UnknownCategoryError{Column: "eligibility", Value: string(r.Label)})
		}
		applicants[i] = r.Applicant
		labels[i] = r.Label.Index()
		distribution[r.Label]++
	}

	profile, err := encoder.Fit(applicants)
	if err != nil {
		return nil, fmt.Errorf("fit encoder: %w", err)
	}
	x, err := encoder.Transform(profile, applicants)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trainIdx, testIdx := s.split(len(records))
	trainX, trainY := subset(x, labels, trainIdx)
	testX, testY := subset(x, labels, testIdx)

	logging.Info().
		Int("train", len(trainIdx)).
		Int("test", len(testIdx)).
		Int("trees", s.config.Forest.NumTrees).
		Msg("fitting random forest")

	f, err := forest.Fit(ctx, trainX, trainY, s.config.Forest)
	if err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}

	predicted, err := f.Predict(testX)
	if err != nil {
		return nil, fmt.Errorf("score held-out set: %w", err)
	}
	report := model.Score(testY, predicted)
	report.LabelDistribution = distribution
	report.TrainSize = len(trainIdx)
	report.TestSize = len(testIdx)

	bundle := model.NewBundle(profile, f, report)
	metrics.RecordTraining(time.Since(start), report.Accuracy)
	logging.Info().
		Str("model_id", bundle.Metadata.ID).
		Float64("accuracy", roundTo2Decimals(report.Accuracy)).
		Float64("f1", roundTo2Decimals(report.F1)).
		Dur("elapsed", time.Since(start)).
		Msg("model trained")

	return &TrainResult{Bundle: bundle, Report: report}, nil
}

// split shuffles indexes with the split seed and returns the train and test
// partitions. The test size is the fraction rounded up, and both
// partitions are non-empty.
func (s *EligibilityService) split(n int) (train, test []int) {
	frac := s.config.TestFraction
	if frac <= 0 || frac >= 1 {
		frac = DefaultTestFraction
	}
	nTest := int(math.Ceil(float64(n) * frac))
	if nTest >= n {
		nTest = n - 1
	}
	perm := rand.New(rand.NewSource(s.config.SplitSeed)).Perm(n)
	return perm[nTest:], perm[:nTest]
}

func subset(x [][]float64, y []int, idx []int) ([][]float64, []int) {
	sx := make([][]float64, len(idx))
	sy := make([]int, len(idx))
	for i, j := range idx {
		sx[i] = x[j]
		sy[i] = y[j]
	}
	return sx, sy
}

// SaveModel persists a bundle in the model repository.
func (s *EligibilityService) SaveModel(ctx context.Context, b *model.Bundle) error {
	if s.models == nil {
		return errors.New("no model repository configured")
	}
	if err := b.Validate(); err != nil {
		return err
	}
	return s.models.Save(ctx, b)
}

// LoadModel loads a bundle by ID, or the latest one when id is empty.
func (s *EligibilityService) LoadModel(ctx context.Context, id string) (*model.Bundle, error) {
	if s.models == nil {
		return nil, errors.New("no model repository configured")
	}
	if id == "" {
		return s.models.Latest(ctx)
	}
	return s.models.Load(ctx, id)
}

// ListModels returns the metadata of every stored bundle, newest first.
func (s *EligibilityService) ListModels(ctx context.Context) ([]model.Metadata, error) {
	if s.models == nil {
		return nil, errors.New("no model repository configured")
	}
	return s.models.List(ctx)
}

// ListPredictions returns up to limit audited predictions, newest first.
func (s *EligibilityService) ListPredictions(ctx context.Context, limit int) ([]repository.PredictionRecord, error) {
	return s.repo.List(ctx, limit)
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"loan-eligibility/config"
	"loan-eligibility/logging"
	"loan-eligibility/repository"
	"loan-eligibility/service"
)

// stores are the repositories selected by store.driver.
type stores struct {
	models      repository.ModelRepository
	predictions repository.PredictionRepository
	closer      io.Closer
}

func (s *stores) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func openStores(cfg config.StoreConfig) (*stores, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := repository.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return &stores{models: db.Models(), predictions: db.Predictions(), closer: db}, nil
	case "file", "":
		models, err := repository.NewFileModelRepository(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open model directory: %w", err)
		}
		return &stores{models: models, predictions: repository.NewPredictionRepositoryMemory()}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// openCache returns Redis when enabled and reachable, otherwise an
// in-process cache.
func openCache(ctx context.Context, cfg config.RedisConfig) (repository.CacheRepository, func()) {
	if !cfg.Enabled {
		return repository.NewMockCache(), func() {}
	}

	rc := repository.NewRedisCache(cfg.Addr, cfg.TTL)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		logging.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unreachable, using in-memory cache")
		_ = rc.Close()
		return repository.NewMockCache(), func() {}
	}
	logging.Info().Str("addr", cfg.Addr).Msg("using redis cache")
	return rc, func() { _ = rc.Close() }
}

// newService builds the eligibility service from the loaded configuration.
// maxBatch caps the records per Predict call.
func (a *app) newService(st *stores, cache repository.CacheRepository, maxBatch int) (*service.EligibilityService, error) {
	policy, err := a.cfg.Policy()
	if err != nil {
		return nil, err
	}
	svcCfg := service.Config{
		Forest:       a.cfg.Forest,
		TestFraction: a.cfg.Training.TestFraction,
		SplitSeed:    a.cfg.Training.Seed,
		MaxBatch:     maxBatch,
	}
	return service.NewEligibilityService(policy, svcCfg, st.models, st.predictions, cache), nil
}

// openService opens the stores and a local cache for one-shot commands,
// which may predict whole files at once.
func (a *app) openService() (*service.EligibilityService, *stores, error) {
	st, err := openStores(a.cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	svc, err := a.newService(st, repository.NewMockCache(), service.MaxPredictBatch)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return svc, st, nil
}

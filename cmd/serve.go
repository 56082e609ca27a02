package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpLayer "loan-eligibility/http"
	"loan-eligibility/logging"
	"loan-eligibility/model"
	"loan-eligibility/repository"
	"loan-eligibility/service"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the eligibility HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.cfg.Server.Addr = addr
			}
			id, _ := cmd.Flags().GetString("model")
			trainIfMissing, _ := cmd.Flags().GetBool("train-if-missing")

			st, err := openStores(a.cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()

			cache, closeCache := openCache(cmd.Context(), a.cfg.Redis)
			defer closeCache()

			svc, err := a.newService(st, cache, a.cfg.Server.MaxBatch)
			if err != nil {
				return err
			}

			bundle, err := a.startupModel(cmd, svc, id, trainIfMissing)
			if err != nil {
				return err
			}

			return a.serve(svc, bundle)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default from config)")
	cmd.Flags().StringP("model", "m", "", "Model ID to serve (default latest)")
	cmd.Flags().Bool("train-if-missing", false, "Train and save a model on generated data when the store is empty")
	return cmd
}

// startupModel loads the requested model. With no stored model the server
// still starts and prediction requests get a 503, unless trainIfMissing.
func (a *app) startupModel(cmd *cobra.Command, svc *service.EligibilityService, id string, trainIfMissing bool) (*model.Bundle, error) {
	ctx := cmd.Context()
	b, err := svc.LoadModel(ctx, id)
	switch {
	case err == nil:
		logging.Info().Str("model_id", b.Metadata.ID).Msg("model loaded")
		return b, nil
	case !errors.Is(err, repository.ErrModelNotFound) || id != "":
		return nil, fmt.Errorf("load model: %w", err)
	case !trainIfMissing:
		logging.Warn().Msg("no model in store, predictions are unavailable until one is trained")
		return nil, nil
	}

	records, err := svc.Generate(a.generatorConfig(cmd), a.cfg.Generator.Count)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	res, err := svc.Train(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	if err := svc.SaveModel(ctx, res.Bundle); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	return res.Bundle, nil
}

func (a *app) serve(svc *service.EligibilityService, bundle *model.Bundle) error {
	cfg := a.cfg.Server

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer rateLimiter.Stop()

	handler := httpLayer.NewEligibilityHandler(svc, bundle)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      httpLayer.NewRouter(handler, rateLimiter),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.Addr).Msg("API corriendo")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("error starting server: %w", err)
	case <-quit:
		logging.Info().Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}

	logging.Info().Msg("server exited")
	return nil
}

// Package main runs the diabetes scoring service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/diabetes-classifier/internal/config"
	"github.com/your-org/diabetes-classifier/internal/httpapi"
	"github.com/your-org/diabetes-classifier/internal/model"
	"github.com/your-org/diabetes-classifier/internal/registry"
	"github.com/your-org/diabetes-classifier/internal/scorecache"
	"github.com/your-org/diabetes-classifier/pkg/logger"
)

func main() {
	// --- Configuration ---
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	modelPath := flag.String("model", "", "Score a local artifact file instead of the registry's latest")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger.SetGlobalLogLevel(cfg.LogLevel)
	logger.Info("Diabetes scoring service starting...")
	logger.Infof("Loaded configuration from: %s", *configPath)

	if err := run(ctx, cfg, *modelPath); err != nil {
		logger.Fatalf("Scoring service failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, modelPath string) error {
	// --- Model ---
	if modelPath == "" {
		reg, err := registry.New(cfg.Registry)
		if err != nil {
			return err
		}
		modelPath, err = reg.ModelPath(ctx, cfg.ModelName)
		if err != nil {
			return fmt.Errorf("failed to resolve model %q: %w", cfg.ModelName, err)
		}
	}
	artifact, err := model.LoadArtifact(modelPath)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %s model version %s trained at %s",
		artifact.Kind, artifact.Version, artifact.TrainedAt.Format(time.RFC3339))

	// --- Score Cache (Optional) ---
	var cache scorecache.Cache
	if bool(cfg.Cache.Enabled) {
		redisCache, err := scorecache.NewRedisCache(ctx, cfg.Cache)
		if err != nil {
			return err
		}
		defer redisCache.Close()
		cache = redisCache
		logger.Infof("Score cache enabled at %s", cfg.Cache.Addr)
	}

	handler, err := httpapi.NewHandler(artifact, cache)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}

// Command geomagd runs the field-report service: it consumes position
// fixes from Kafka, evaluates the geomagnetic field model at each fix,
// and publishes enriched field reports, while serving ad-hoc point
// queries over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/geomag-field-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/geomag-field-service/internal/adapter/kafka"
	"github.com/couchcryptid/geomag-field-service/internal/config"
	"github.com/couchcryptid/geomag-field-service/internal/domain"
	"github.com/couchcryptid/geomag-field-service/internal/evalcache"
	"github.com/couchcryptid/geomag-field-service/internal/observability"
	"github.com/couchcryptid/geomag-field-service/internal/pipeline"
	"github.com/couchcryptid/geomag-field-service/internal/wmm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	model, err := wmm.LoadModel(cfg.ModelPath, cfg.ModelHighResolution)
	if err != nil {
		logger.Error("failed to load coefficient file", "path", cfg.ModelPath, "error", err)
		os.Exit(1)
	}
	logger.Info("model loaded",
		"name", model.Name(),
		"epoch", model.Epoch(),
		"max_degree", model.MaxDegree(),
		"high_resolution", model.HighResolution(),
	)

	// Optionally memoize evaluations (EVAL_CACHE_SIZE=0 disables).
	var evaluator domain.Evaluator = model
	if cfg.EvalCacheSize > 0 {
		evaluator = evalcache.NewCachedEvaluator(model, cfg.EvalCacheSize, metrics)
		logger.Info("evaluation cache enabled", "cache_size", cfg.EvalCacheSize)
	} else {
		logger.Info("evaluation cache disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(evaluator, cfg.AllowOutsideLifespan, cfg.StrictZonePolicy, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, evaluator, httpadapter.FieldOptions{
		AllowOutsideLifespan: cfg.AllowOutsideLifespan,
		StrictZonePolicy:     cfg.StrictZonePolicy,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

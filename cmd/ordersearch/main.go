package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/clearcart/ordersearch/internal/config"
	dbRedis "github.com/clearcart/ordersearch/internal/db/redis"
	"github.com/clearcart/ordersearch/internal/index"
	logpkg "github.com/clearcart/ordersearch/internal/logger"
	"github.com/clearcart/ordersearch/internal/metrics"
	orderrepo "github.com/clearcart/ordersearch/internal/repository/order"
	chiTransport "github.com/clearcart/ordersearch/internal/transport/chi"
	healthuc "github.com/clearcart/ordersearch/internal/usecase/health"
	indexeruc "github.com/clearcart/ordersearch/internal/usecase/indexer"
	searchuc "github.com/clearcart/ordersearch/internal/usecase/search"
	suggestuc "github.com/clearcart/ordersearch/internal/usecase/suggest"
	"github.com/clearcart/ordersearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ordersearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("source_addrs", cfg.Source.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Source.Addrs,
		Password: cfg.Source.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create order store", zap.Error(err))
	}
	defer store.Close()

	// Wait for the order source to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Source.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Order store not ready", zap.Error(err))
	}
	logger.Info("Connected to order store")

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	// Composition root
	source := orderrepo.New(store, cfg.Source.KeyPrefix)
	idx := index.New()

	indexerSvc := indexeruc.New(source, idx, indexeruc.Intervals{
		Incremental: time.Duration(cfg.Indexer.IncrementalIntervalSec) * time.Second,
		Full:        time.Duration(cfg.Indexer.FullIntervalSec) * time.Second,
		Optimize:    time.Duration(cfg.Indexer.OptimizeIntervalSec) * time.Second,
		JobTimeout:  time.Duration(cfg.Indexer.JobTimeoutSec) * time.Second,
	}, logger)

	// Warm the index before serving queries, then start the schedulers.
	if err := indexerSvc.ForceReindex(ctx); err != nil {
		logger.Warn("Initial index build failed, serving empty index", zap.Error(err))
	}
	indexerSvc.Start()
	defer indexerSvc.Stop()

	suggestSvc := suggestuc.New(idx)
	searchSvc := searchuc.New(idx, suggestSvc)
	healthSvc := healthuc.New(indexerSvc)

	server := chiTransport.NewServer(
		searchSvc, indexerSvc, healthSvc,
		cfg.Search.DefaultFuzzyThreshold, cfg.Search.SuggestionLimit,
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": version.Version})
	})
	r.Handle("/metrics", promhttp.Handler())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

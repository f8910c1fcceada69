package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	apihttp "adjustment-calculator/internal/api/http"
	"adjustment-calculator/internal/auth"
	"adjustment-calculator/internal/observability/metrics"
	"adjustment-calculator/internal/settlement/application"
	tariff "adjustment-calculator/internal/tariff/domain"
	"adjustment-calculator/internal/tariff/infrastructure/ratetable"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := newLogger(cfg)

	metrics.Init()

	tables, err := ratetable.LoadFile(cfg.TariffTablePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load rate tables")
	}
	resolver, err := tariff.NewResolver(tables.Rates, tables.Surcharges)
	if err != nil {
		logger.Fatal().Err(err).Msg("tariff resolver")
	}
	service, err := application.NewAdjustmentService(resolver, application.WithLogger(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("adjustment service")
	}

	adjustmentsHandler, err := apihttp.NewAdjustmentsHandler(service, cfg.maxUploadBytes(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("adjustments handler")
	}
	tariffsHandler, err := apihttp.NewTariffsHandler(resolver)
	if err != nil {
		logger.Fatal().Err(err).Msg("tariffs handler")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", apihttp.HealthHandler)
	mux.Handle("/api/v1/adjustments", adjustmentsHandler)
	mux.Handle("/api/v1/tariffs", tariffsHandler)

	var handler http.Handler = mux
	if cfg.JWTSecret != "" {
		policy := auth.NewDefaultPolicy("/healthz", "/metrics")
		handler = auth.NewMiddleware([]byte(cfg.JWTSecret), policy).Wrap(mux)
	} else {
		logger.Warn().Msg("AUTH_JWT_SECRET not set, api auth disabled")
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      loggingMiddleware(handler, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("http shutdown")
		}
	}()

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("http server")
	}
}

func newLogger(cfg config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if strings.EqualFold(cfg.LogFormat, "console") {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func loggingMiddleware(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", resp.status).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("http")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

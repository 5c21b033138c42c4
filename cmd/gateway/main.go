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

	"github.com/joho/godotenv"

	"github.com/gazexpress/gazexpress/internal/config"
	"github.com/gazexpress/gazexpress/internal/metrics"
	"github.com/gazexpress/gazexpress/internal/middleware"
	"github.com/gazexpress/gazexpress/internal/proxy"
	"github.com/gazexpress/gazexpress/pkg/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file (optional)")
		envFile    = flag.String("env", ".env", "Path to .env file (optional)")
	)
	flag.Parse()

	// Missing .env is fine: everything has defaults.
	_ = godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewDefault("gateway").WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}).WithField("component", "gateway")

	gw, err := proxy.New(cfg.Upstream.URL, cfg.Upstream.ProbeTimeout, log)
	if err != nil {
		log.WithError(err).Error("failed to construct gateway")
		os.Exit(1)
	}

	var handler http.Handler = gw.Router()
	handler = middleware.LoggingMiddleware(log)(handler)
	handler = metrics.InstrumentHandler(handler)

	var stopCleanup func()
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)
		stopCleanup = limiter.StartCleanup(time.Minute)
		handler = limiter.Handler(handler)
	}

	cors := middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins)
	handler = cors.Handler(handler)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).
			WithField("upstream", cfg.Upstream.URL).
			WithField("cors", strings.Join(cfg.CORS.AllowedOrigins, ",")).
			Info("gateway listening")
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server error")
			os.Exit(1)
		}
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	if stopCleanup != nil {
		stopCleanup()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("graceful shutdown incomplete")
	}
	log.Info("gateway stopped")
}

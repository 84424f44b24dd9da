package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/shelfkeeper/internal/analytics"
	"github.com/mmynk/shelfkeeper/internal/auth"
	"github.com/mmynk/shelfkeeper/internal/catalog"
	"github.com/mmynk/shelfkeeper/internal/circulation"
	"github.com/mmynk/shelfkeeper/internal/config"
	"github.com/mmynk/shelfkeeper/internal/membership"
	"github.com/mmynk/shelfkeeper/internal/metrics"
	"github.com/mmynk/shelfkeeper/internal/middleware"
	"github.com/mmynk/shelfkeeper/internal/service"
	"github.com/mmynk/shelfkeeper/internal/storage/sqlite"
	"github.com/mmynk/shelfkeeper/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	m := metrics.New()
	engine, err := circulation.New(store, cfg.Circulation(), circulation.WithObserver(m))
	if err != nil {
		return err
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Metrics outermost so rejected calls are counted too.
	opts := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.LoggingInterceptor(),
		middleware.RequireAuth(jwtManager, service.PublicProcedures...),
	)

	mux := http.NewServeMux()

	// Register Connect services
	mux.Handle(service.NewCirculationServiceHandler(service.NewCirculationService(engine), opts))
	mux.Handle(service.NewMemberServiceHandler(service.NewMemberService(membership.New(store, cfg.FineBlockThreshold)), opts))
	mux.Handle(service.NewCatalogServiceHandler(service.NewCatalogService(catalog.New(store)), opts))
	mux.Handle(service.NewAnalyticsServiceHandler(service.NewAnalyticsService(analytics.New(store)), opts))
	mux.Handle(service.NewAuthServiceHandler(service.NewAuthService(
		auth.NewPasswordAuthenticator(store), store, jwtManager, slog.Default(),
	), opts))

	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper, err := newSweeper(engine, cfg.SweepSchedule)
	if err != nil {
		return err
	}
	if sweeper != nil {
		sweeper.Start()
		defer func() { <-sweeper.Stop().Done() }()
		slog.Info("Overdue sweep scheduled", "schedule", cfg.SweepSchedule)
	}

	// Add logging and CORS middleware, then wrap with h2c for HTTP/2 without TLS
	handler := h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "env", cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loggingMiddleware logs every HTTP request at debug level; RPC outcomes
// are logged by the Connect interceptor.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, Library-Reasons, Library-Blocking-Ids")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/medflow/stockroom/internal/stockroom/access"
	"github.com/medflow/stockroom/internal/stockroom/catalog"
	"github.com/medflow/stockroom/internal/stockroom/events"
	"github.com/medflow/stockroom/internal/stockroom/handler"
	"github.com/medflow/stockroom/internal/stockroom/ledger"
	"github.com/medflow/stockroom/internal/stockroom/report"
	"github.com/medflow/stockroom/internal/stockroom/store"
	"github.com/medflow/stockroom/internal/stockroom/store/reststore"
	"github.com/medflow/stockroom/internal/stockroom/store/sqlstore"
	"github.com/medflow/stockroom/internal/stockroom/web"
	"github.com/medflow/stockroom/pkg/config"
	"github.com/medflow/stockroom/pkg/httputil"
	"github.com/medflow/stockroom/pkg/i18n"
	"github.com/medflow/stockroom/pkg/logger"
	"github.com/medflow/stockroom/pkg/messaging"
)

const serviceName = "stockroom"

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Str("backend", cfg.Storage.Backend).Msg("starting stock room")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage backend")
	}
	defer st.Close()

	// Movement events are optional; a broker that cannot be reached only disables them
	var publisher *events.MovementPublisher
	var rmq *messaging.RabbitMQ
	if cfg.RabbitMQ.URL != "" {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, movement events disabled")
		} else {
			defer rmq.Close()
			go rmq.Watch(ctx)
			if publisher, err = events.NewMovementPublisher(rmq, log); err != nil {
				log.Warn().Err(err).Msg("failed to declare events exchange, movement events disabled")
				publisher = nil
			}
		}
	}

	// Services
	accessService := access.NewService(st, log)
	ledgerService := ledger.NewService(st, publisher, log)
	catalogService := catalog.NewService(st, log)
	reportService := report.NewService(st, log)
	tokens := access.NewTokenManager(&cfg.JWT)

	accessService.EnsureBootstrapAdmin(ctx)

	api := handler.New(ledgerService, catalogService, accessService, reportService, tokens, log)
	pages, err := web.New(ledgerService, catalogService, accessService, reportService, &cfg.Session, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load page templates")
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(i18n.Middleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":  "healthy",
			"service": serviceName,
			"storage": st.Health(r.Context()),
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, status)
	})

	// JSON API for scripted clients
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Accept-Language"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
		r.Mount("/", api.Routes())
	})

	// Browser pages
	r.Mount("/", pages.Routes())

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// openStore connects the backend chosen by storage.backend
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return sqlstore.OpenSQLite(ctx, cfg.SQLite.Path, log)
	case config.BackendPostgres:
		return sqlstore.OpenPostgres(ctx, &cfg.Database, log)
	case config.BackendREST:
		return reststore.New(&cfg.REST, log), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

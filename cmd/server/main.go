package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/fbaunit/internal/config"
	"github.com/Simplici0/fbaunit/internal/db"
	"github.com/Simplici0/fbaunit/internal/migrations"
	"github.com/Simplici0/fbaunit/internal/obs"
	"github.com/Simplici0/fbaunit/internal/profiles"
	"github.com/Simplici0/fbaunit/internal/seed"
)

type server struct {
	db             *sql.DB
	profiles       *profiles.Store
	defaultProfile string
}

func newServer(database *sql.DB, defaultProfile string) *server {
	if defaultProfile == "" {
		defaultProfile = profiles.DefaultName
	}
	return &server{
		db:             database,
		profiles:       profiles.NewStore(database),
		defaultProfile: defaultProfile,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(withLogging)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/calculate", s.handleCalculate)
		r.Post("/break-even", s.handleBreakEven)
		r.Post("/solve", s.handleSolve)
		r.Post("/grid", s.handleGrid)
		r.Post("/scenarios", s.handleScenarios)
		r.Post("/diagnosis", s.handleDiagnosis)
		r.Post("/report", s.handleReport)

		r.Get("/profiles", s.handleProfilesList)
		r.Get("/profiles/{name}", s.handleProfileGet)
		r.Put("/profiles/{name}", s.handleProfilePut)
		r.Delete("/profiles/{name}", s.handleProfileDelete)
	})
	return r
}

func main() {
	cfg := config.Load()
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.Info("service_starting", "env", cfg.Env)

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		obs.Logger.Error("db_open_failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if cfg.IsDev() {
		applied, err := migrations.Up(ctx, database)
		if err != nil {
			obs.Logger.Error("migrations_failed", "error", err)
			os.Exit(1)
		}
		obs.Logger.Info("migrations_applied", "count", applied)
	}

	stats, err := seed.Run(ctx, database, seed.Config{RatesFile: cfg.RatesFile, DefaultProfile: cfg.DefaultProfile})
	if err != nil {
		obs.Logger.Error("seed_failed", "error", err)
		os.Exit(1)
	}
	obs.Logger.Info("seed_complete", "inserts", stats.Inserts, "skipped", stats.Skipped)

	srv := newServer(database, cfg.DefaultProfile)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	obs.Logger.Info("service_stopped")
}

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

	"github.com/AdamBeresnev/ultimate-tournaments/internal/config"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/db"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/middleware"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/service"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/store"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

const limiterPruneInterval = 5 * time.Minute

// application holds the long lived dependencies shared by every handler.
type application struct {
	cfg            *config.Config
	sessionManager *scs.SessionManager
	userStore      *store.UserStore

	users    *service.UserService
	schedule *service.ScheduleService
	matches  *service.MatchService
	teams    *service.TeamService

	scoreLimiter *middleware.ScoreLimiter
}

func newApplication(cfg *config.Config, database *sqlx.DB, sessionManager *scs.SessionManager) *application {
	tournamentStore := store.NewTournamentStore(database)
	userStore := store.NewUserStore(database)
	locks := service.NewTournamentLocks()

	return &application{
		cfg:            cfg,
		sessionManager: sessionManager,
		userStore:      userStore,
		users:          service.NewUserService(database, userStore, cfg.AdminEmails...),
		schedule:       service.NewScheduleService(database, tournamentStore, service.NewStoreStandings(tournamentStore), locks),
		matches:        service.NewMatchService(database, tournamentStore, service.NewStoreRoster(tournamentStore), locks),
		teams:          service.NewTeamService(database, tournamentStore, locks),
		scoreLimiter:   middleware.NewScoreLimiter(cfg.ScoreRatePerSecond, cfg.ScoreBurst),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	dsn := cfg.DatabaseURL
	if cfg.DBDriver == db.DriverSQLite {
		dsn = db.SQLiteDSN(cfg.DatabaseURL)
	}
	database, err := db.Open(cfg.DBDriver, dsn)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database connection", "error", err)
		}
	}()

	if err := db.RunMigrations(database.DB, cfg.DBDriver, cfg.MigrationsPath); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	middleware.InitAuth(cfg)

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	if cfg.DBDriver == db.DriverSQLite {
		if err := db.EnsureSessionTable(database.DB); err != nil {
			logger.Error("failed to create session table", "error", err)
			os.Exit(1)
		}
		sessionManager.Store = sqlite3store.New(database.DB)
	} else {
		logger.Warn("sessions are kept in memory for this database driver", "driver", cfg.DBDriver)
	}

	app := newApplication(cfg, database, sessionManager)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() {
		ticker := time.NewTicker(limiterPruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				app.scoreLimiter.Prune()
			case <-ctx.Done():
				return
			}
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      app.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", "address", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", "error", closeErr)
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}

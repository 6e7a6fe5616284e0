package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"throwerx-backend/internal/account"
	"throwerx-backend/internal/db"
	"throwerx-backend/internal/observability"
	"throwerx-backend/internal/progress"
	"throwerx-backend/internal/storage"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

// Build wires the full request pipeline: record store selection, the
// credential service with its token index, the progress store, and the
// middleware stack. DATABASE_URL selects the Postgres backend; otherwise the
// JSON file store at USERS_FILE is used.
func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	store, closeStore, err := buildStore(options, logger)
	if err != nil {
		return nil, err
	}

	records := storage.NewSynced(store)

	accountService, err := account.NewService(context.Background(), records)
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("init account service: %w", err)
	}
	accountHandler := account.NewHandler(accountService)
	progressHandler := progress.NewHandler(progress.NewService(records))

	loginLimiter := account.NewLoginRateLimiter(
		envIntOrDefault("LOGIN_RATE_LIMIT_MAX", 10),
		envSecondsOrDefault("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 60),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", statusHandler)
	mux.HandleFunc("GET /health", healthHandler(records))
	mux.HandleFunc("POST /register", accountHandler.Register)
	mux.Handle("POST /login", loginLimiter.Middleware(http.HandlerFunc(accountHandler.Login)))
	mux.Handle("POST /save", account.Middleware(accountService, http.HandlerFunc(progressHandler.Save)))

	handler := observability.RecoverMiddleware(logger,
		observability.RequestLoggingMiddleware(logger,
			corsMiddleware(mux)))

	return &Runtime{
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return closeStore()
		},
	}, nil
}

func buildStore(options Options, logger *observability.Logger) (storage.Store, func() error, error) {
	noClose := func() error { return nil }

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		fileStore := storage.NewFileStore(envOrDefault("USERS_FILE", "users.json"))
		if err := fileStore.Init(); err != nil {
			return nil, nil, fmt.Errorf("init file store: %w", err)
		}
		logger.Info("store_selected", map[string]any{"backend": "file"})
		return fileStore, noClose, nil
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(database); err != nil {
			_ = database.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	logger.Info("store_selected", map[string]any{"backend": "postgres"})
	return storage.NewPostgresStore(database), database.Close, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

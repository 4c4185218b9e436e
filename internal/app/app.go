// Package app wires configuration to the analysis service and its adapters.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/newscheck/internal/application"
	appanalysis "github.com/bryanwahyu/newscheck/internal/application/analysis"
	domain "github.com/bryanwahyu/newscheck/internal/domain/analysis"
	"github.com/bryanwahyu/newscheck/internal/config"
	"github.com/bryanwahyu/newscheck/internal/infra/ai/openai"
	"github.com/bryanwahyu/newscheck/internal/infra/ai/prompt"
	"github.com/bryanwahyu/newscheck/internal/infra/db/jsonfile"
	mysqlp "github.com/bryanwahyu/newscheck/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/newscheck/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/newscheck/internal/infra/db/sqlite"
	pdfx "github.com/bryanwahyu/newscheck/internal/infra/extract/pdf"
	"github.com/bryanwahyu/newscheck/internal/infra/fetch"
	minioStore "github.com/bryanwahyu/newscheck/internal/infra/storage"
	"github.com/bryanwahyu/newscheck/internal/logging"
	"github.com/bryanwahyu/newscheck/internal/middleware"
)

// App holds the wired service plus everything that must be closed on exit.
type App struct {
	Service *appanalysis.Service
	Logger  *slog.Logger
	// Checkers feed the /health endpoint.
	Checkers map[string]middleware.HealthChecker

	closers []func() error
}

// Close releases store connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the application from cfg. A nil logger is created from the
// logging section.
func New(ctx context.Context, cfg *config.Config, baseLogger *slog.Logger) (*App, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &App{Logger: baseLogger, Checkers: map[string]middleware.HealthChecker{}}
	clock := application.SystemClock{}

	repo, err := a.openStore(ctx, cfg, clock.Now)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if cfg.Model.APIKey == "" {
		baseLogger.Warn("no model api key configured; analysis requests will fail upstream")
	}
	model := openai.NewClient(cfg.Model.APIKey, cfg.Model.BaseURL, cfg.Model.Name)

	initial, maxDelay := cfg.Fetch.Retry.RetryDelays()
	fetcher := fetch.NewFetcher(&http.Client{Timeout: cfg.FetchTimeout()}, fetch.Options{
		UserAgent: cfg.Fetch.UserAgent,
		MaxBytes:  cfg.Fetch.MaxBytes,
		Retry: fetch.RetryPolicy{
			MaxAttempts:       cfg.Fetch.Retry.MaxAttempts,
			InitialDelay:      initial,
			MaxDelay:          maxDelay,
			BackoffMultiplier: cfg.Fetch.Retry.BackoffMultiplier,
		},
	}, baseLogger.With("component", "fetch"))

	svc := &appanalysis.Service{
		Repo: repo,
		Normalizer: &appanalysis.Normalizer{
			PDF:          pdfx.NewExtractor(cfg.Analysis.MaxPDFBytes),
			Fetcher:      fetcher,
			FetchTimeout: cfg.FetchTimeout(),
		},
		Prompts:         prompt.NewBuilder(),
		Model:           model,
		Clock:           clock,
		Logger:          baseLogger.With("component", "analysis"),
		ModelTimeout:    cfg.ModelTimeout(),
		DefaultLanguage: cfg.Analysis.DefaultLanguage,
		ExcerptWidth:    cfg.Analysis.ExcerptWidth,
	}

	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx, minioStore.Options{
			Endpoint:   cfg.Minio.Endpoint,
			Region:     cfg.Minio.Region,
			Bucket:     cfg.Minio.BucketName,
			AccessKey:  cfg.Minio.AccessKey,
			SecretKey:  cfg.Minio.SecretKey,
			UseSSL:     cfg.Minio.UseSSL,
			PresignTTL: time.Duration(cfg.Minio.PresignTTLMin) * time.Minute,
		})
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		svc.Exports = store
		a.Checkers["exports"] = middleware.PingChecker{Target: store}
	}

	a.Service = svc
	baseLogger.Info("application wired",
		"store", cfg.Store.Driver,
		"model", model.ModelName(),
		"exports", cfg.Minio.Enabled,
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config, now func() time.Time) (domain.Repository, error) {
	switch strings.ToLower(cfg.Store.Driver) {
	case config.DriverFile:
		s, err := jsonfile.Open(cfg.Store.Path, now)
		if err != nil {
			return nil, err
		}
		a.Checkers[middleware.StoreCheck] = middleware.PingChecker{Target: s}
		return s, nil

	case config.DriverSQLite:
		s, err := sqlitep.Open(cfg.Store.Path, now)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		a.Checkers[middleware.StoreCheck] = middleware.PingChecker{Target: s}
		return s, nil

	case config.DriverMySQL:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN(), mysqlp.Pool{
			MaxOpen:     cfg.Database.MaxOpenConns,
			MaxIdle:     cfg.Database.MaxOpenConns / 2,
			MaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		repo := mysqlp.NewAnalysisRepository(db, now)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a.Checkers[middleware.StoreCheck] = &middleware.DatabaseHealthChecker{DB: db}
		return repo, nil

	case config.DriverPostgres:
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN(), cfg.Database.MaxOpenConns)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		repo := postgresp.NewAnalysisRepository(db, now)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a.Checkers[middleware.StoreCheck] = &middleware.DatabaseHealthChecker{DB: db}
		return repo, nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrInvalidDriver, cfg.Store.Driver)
}

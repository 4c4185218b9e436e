package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	appanalysis "github.com/bryanwahyu/newscheck/internal/application/analysis"
	"github.com/bryanwahyu/newscheck/internal/config"
	domain "github.com/bryanwahyu/newscheck/internal/domain/analysis"
	"github.com/bryanwahyu/newscheck/internal/logging"
)

func TestNew_FileStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "history.json")
	cfg.Analysis.DefaultLanguage = "Hindi"

	a, err := New(context.Background(), &cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Service.Exports != nil {
		t.Fatal("exports should be disabled by default")
	}
	if a.Service.DefaultLanguage != "Hindi" || a.Service.ModelTimeout != cfg.ModelTimeout() {
		t.Fatalf("service not configured from cfg: %+v", a.Service)
	}
	if _, ok := a.Checkers["store"]; !ok {
		t.Fatal("store health checker missing")
	}
	if err := a.Checkers["store"].Check(context.Background()); err != nil {
		t.Fatalf("store check: %v", err)
	}

	sum, err := a.Service.Summary(context.Background())
	if err != nil || sum.Count != 0 {
		t.Fatalf("fresh store summary = %+v, %v", sum, err)
	}
	if _, err := a.Service.Analyze(context.Background(), appanalysis.AnalyzeCommand{
		Input: domain.Input{Kind: domain.KindPastedText, Text: "   "},
	}); !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("blank input err = %v", err)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "redis"

	if _, err := New(context.Background(), &cfg, logging.Discard()); !errors.Is(err, config.ErrInvalidDriver) {
		t.Fatalf("err = %v", err)
	}
}

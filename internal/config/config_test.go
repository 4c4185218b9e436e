package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{geminiKeyEnv, googleKeyEnv, openAIKeyEnv, modelNameEnv, modelBaseEnv, storeDriverEnv, storePathEnv, logLevelEnv, portEnv} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Store.Driver != DriverFile || cfg.Model.Name != "gemini-1.5-flash" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ModelTimeout() != 60*time.Second {
		t.Fatalf("model timeout = %v", cfg.ModelTimeout())
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
server:
  port: 9090
store:
  driver: sqlite
  path: /tmp/history.db
model:
  name: gpt-4o-mini
  baseUrl: https://api.openai.com/v1
fetch:
  timeoutSec: 5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Store.Driver != DriverSQLite || cfg.Model.Name != "gpt-4o-mini" {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
	// untouched sections keep their defaults
	if cfg.Fetch.Retry.MaxAttempts != 3 || cfg.Analysis.ExcerptWidth != 300 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.FetchTimeout() != 5*time.Second {
		t.Fatalf("fetch timeout = %v", cfg.FetchTimeout())
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv(googleKeyEnv, "google-key")
	t.Setenv(openAIKeyEnv, "openai-key")
	t.Setenv(modelNameEnv, "gemini-2.0-flash")
	t.Setenv(storePathEnv, "/var/lib/newscheck/history.json")
	t.Setenv(logLevelEnv, "debug")

	path := writeConfig(t, "model:\n  apiKey: from-file\n  name: from-file\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.APIKey != "google-key" {
		t.Fatalf("api key = %q, want google-key", cfg.Model.APIKey)
	}
	if cfg.Model.Name != "gemini-2.0-flash" || cfg.Store.Path != "/var/lib/newscheck/history.json" || cfg.Logging.Level != "debug" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)

	if _, err := Load(writeConfig(t, "server: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"defaults", func(*Config) {}, nil},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, ErrInvalidPort},
		{"bad driver", func(c *Config) { c.Store.Driver = "redis" }, ErrInvalidDriver},
		{"file without path", func(c *Config) { c.Store.Path = " " }, ErrMissingStorePath},
		{"mysql without db", func(c *Config) { c.Store.Driver = "MySQL"; c.Database.Name = "" }, ErrMissingDatabase},
		{"model timeout", func(c *Config) { c.Model.TimeoutSec = 0 }, ErrInvalidModelTimeout},
		{"relative base url", func(c *Config) { c.Model.BaseURL = "/v1" }, ErrInvalidBaseURL},
		{"language", func(c *Config) { c.Analysis.DefaultLanguage = "German" }, ErrInvalidLanguage},
		{"retry", func(c *Config) { c.Fetch.Retry.BackoffMultiplier = 0.5 }, ErrInvalidRetry},
		{"minio", func(c *Config) { c.Minio.Enabled = true; c.Minio.Endpoint = "" }, ErrMissingBucket},
		{"rate limit", func(c *Config) { c.RateLimit.Capacity = 0 }, ErrInvalidRateLimit},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, ErrInvalidLogLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDSNs(t *testing.T) {
	cfg := Default()
	cfg.Database = DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss", Name: "news", SSLMode: "disable"}

	if got := cfg.MySQLDSN(); got != "app:p@ss@tcp(db:5432)/news?parseTime=true&charset=utf8mb4&loc=UTC" {
		t.Fatalf("MySQLDSN = %q", got)
	}
	if got := cfg.PostgresDSN(); got != "postgres://app:p%40ss@db:5432/news?sslmode=disable" {
		t.Fatalf("PostgresDSN = %q", got)
	}
}

func TestLoad_DatabasePortFollowsDriver(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"postgres default", "store:\n  driver: postgres\ndatabase:\n  name: news\n", "postgres://:@localhost:5432/news?sslmode=disable"},
		{"mysql default", "store:\n  driver: mysql\ndatabase:\n  name: news\n", ":@tcp(localhost:3306)/news?parseTime=true&charset=utf8mb4&loc=UTC"},
		{"explicit port", "store:\n  driver: postgres\ndatabase:\n  name: news\n  port: 6543\n", "postgres://:@localhost:6543/news?sslmode=disable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load(writeConfig(t, tt.body))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			got := cfg.MySQLDSN()
			if cfg.Store.Driver == DriverPostgres {
				got = cfg.PostgresDSN()
			}
			if got != tt.want {
				t.Fatalf("DSN = %q, want %q", got, tt.want)
			}
		})
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "CONFIG_PATH"
	geminiKeyEnv   = "GEMINI_API_KEY"
	googleKeyEnv   = "GOOGLE_API_KEY"
	openAIKeyEnv   = "OPENAI_API_KEY"
	modelNameEnv   = "MODEL_NAME"
	modelBaseEnv   = "MODEL_BASE_URL"
	storeDriverEnv = "STORE_DRIVER"
	storePathEnv   = "STORE_PATH"
	logLevelEnv    = "LOG_LEVEL"
	portEnv        = "PORT"

	DefaultPath = "config.yaml"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

var (
	ErrInvalidPort         = errors.New("server.port must be between 1 and 65535")
	ErrInvalidDriver       = errors.New("store.driver must be one of: file, sqlite, mysql, postgres")
	ErrMissingStorePath    = errors.New("store.path is required for file and sqlite drivers")
	ErrMissingDatabase     = errors.New("database.host and database.name are required for sql drivers")
	ErrInvalidModelTimeout = errors.New("model.timeoutSec must be at least 1")
	ErrInvalidFetchTimeout = errors.New("fetch.timeoutSec must be at least 1")
	ErrInvalidBaseURL      = errors.New("model.baseUrl must be an absolute http(s) URL")
	ErrInvalidLanguage     = errors.New("analysis.defaultLanguage must be one of: English, Hindi, Telugu, Spanish, French")
	ErrInvalidExcerpt      = errors.New("analysis.excerptWidth must be non-negative")
	ErrInvalidRetry        = errors.New("fetch.retry.maxAttempts must be at least 1 and backoffMultiplier >= 1.0")
	ErrMissingBucket       = errors.New("minio.endpoint and minio.bucketName are required when minio is enabled")
	ErrInvalidRateLimit    = errors.New("rateLimit.capacity and rateLimit.refillPerSec must be at least 1")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Model     ModelConfig     `yaml:"model"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Minio     MinioConfig     `yaml:"minio"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	CORS      CORSConfig      `yaml:"cors"`
}

type ServerConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"readTimeoutSec"`
	WriteTimeoutSec int `yaml:"writeTimeoutSec"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ModelConfig points at an OpenAI-compatible chat completion endpoint.
type ModelConfig struct {
	APIKey     string `yaml:"apiKey"`
	BaseURL    string `yaml:"baseUrl"`
	Name       string `yaml:"name"`
	TimeoutSec int    `yaml:"timeoutSec"`
}

type AnalysisConfig struct {
	DefaultLanguage string `yaml:"defaultLanguage"`
	ExcerptWidth    int    `yaml:"excerptWidth"`
	MaxPDFBytes     int64  `yaml:"maxPdfBytes"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	SSLMode      string `yaml:"sslMode"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
}

type FetchConfig struct {
	TimeoutSec int         `yaml:"timeoutSec"`
	MaxBytes   int64       `yaml:"maxBytes"`
	UserAgent  string      `yaml:"userAgent"`
	Retry      RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts       int     `yaml:"maxAttempts"`
	InitialDelayMs    int     `yaml:"initialDelayMs"`
	MaxDelayMs        int     `yaml:"maxDelayMs"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

type MinioConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"accessKey"`
	SecretKey     string `yaml:"secretKey"`
	BucketName    string `yaml:"bucketName"`
	Region        string `yaml:"region"`
	UseSSL        bool   `yaml:"useSSL"`
	PresignTTLMin int    `yaml:"presignTtlMin"`
}

type RateLimitConfig struct {
	Enabled      bool `yaml:"enabled"`
	Capacity     int  `yaml:"capacity"`
	RefillPerSec int  `yaml:"refillPerSec"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: 8080, ReadTimeoutSec: 15, WriteTimeoutSec: 90},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Model:    ModelConfig{BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/", Name: "gemini-1.5-flash", TimeoutSec: 60},
		Analysis: AnalysisConfig{DefaultLanguage: "English", ExcerptWidth: 300, MaxPDFBytes: 20 << 20},
		Store:    StoreConfig{Driver: DriverFile, Path: "data/analysis_history.json"},
		Database: DatabaseConfig{Host: "localhost", SSLMode: "disable", MaxOpenConns: 10},
		Fetch: FetchConfig{
			TimeoutSec: 15,
			MaxBytes:   5 << 20,
			Retry:      RetryConfig{MaxAttempts: 3, InitialDelayMs: 500, MaxDelayMs: 4000, BackoffMultiplier: 2},
		},
		Minio:     MinioConfig{BucketName: "newscheck-exports", Region: "us-east-1", PresignTTLMin: 60},
		RateLimit: RateLimitConfig{Enabled: true, Capacity: 30, RefillPerSec: 1},
		CORS:      CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

// PathFromEnv returns CONFIG_PATH or the default config.yaml.
func PathFromEnv() string {
	if v := os.Getenv(configPathEnv); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads YAML over the defaults (a missing file keeps the defaults),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	// first non-empty key wins
	for _, env := range []string{geminiKeyEnv, googleKeyEnv, openAIKeyEnv} {
		if v := os.Getenv(env); v != "" {
			c.Model.APIKey = v
			break
		}
	}
	if v := os.Getenv(modelNameEnv); v != "" {
		c.Model.Name = v
	}
	if v := os.Getenv(modelBaseEnv); v != "" {
		c.Model.BaseURL = v
	}
	if v := os.Getenv(storeDriverEnv); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv(storePathEnv); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(portEnv); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return ErrInvalidLogLevel
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverFile, DriverSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			return ErrMissingStorePath
		}
	case DriverMySQL, DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return ErrMissingDatabase
		}
		if c.Database.Port == 0 {
			c.Database.Port = defaultDBPorts[c.Store.Driver]
		}
	default:
		return ErrInvalidDriver
	}

	if c.Model.TimeoutSec < 1 {
		return ErrInvalidModelTimeout
	}
	if c.Model.BaseURL != "" {
		u, err := url.Parse(c.Model.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidBaseURL
		}
	}
	if !validLanguage(c.Analysis.DefaultLanguage) {
		return ErrInvalidLanguage
	}
	if c.Analysis.ExcerptWidth < 0 {
		return ErrInvalidExcerpt
	}
	if c.Fetch.TimeoutSec < 1 {
		return ErrInvalidFetchTimeout
	}
	if c.Fetch.Retry.MaxAttempts < 1 || c.Fetch.Retry.BackoffMultiplier < 1.0 || c.Fetch.Retry.InitialDelayMs < 0 {
		return ErrInvalidRetry
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		return ErrMissingBucket
	}
	if c.RateLimit.Enabled && (c.RateLimit.Capacity < 1 || c.RateLimit.RefillPerSec < 1) {
		return ErrInvalidRateLimit
	}
	return nil
}

// defaultDBPorts fills database.port when the file leaves it unset.
var defaultDBPorts = map[string]int{DriverMySQL: 3306, DriverPostgres: 5432}

func validLanguage(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "english", "hindi", "telugu", "spanish", "french", "en", "hi", "te", "es", "fr":
		return true
	}
	return false
}

// ModelTimeout bounds one model call.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.Model.TimeoutSec) * time.Second
}

// FetchTimeout bounds one URL fetch including retries.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSec) * time.Second
}

// RetryDelays converts the retry section to durations.
func (r RetryConfig) RetryDelays() (initial, max time.Duration) {
	return time.Duration(r.InitialDelayMs) * time.Millisecond, time.Duration(r.MaxDelayMs) * time.Millisecond
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq URL DSN.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}

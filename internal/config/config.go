package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"lernecken/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Booking    BookingConfig    `yaml:"booking"`
	Retention  RetentionConfig  `yaml:"retention"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Exports    ExportConfig     `yaml:"exports"`
	Google     GoogleConfig     `yaml:"google"`
}

type BookingConfig struct {
	Quota             int               `yaml:"quota"`
	ExpirationDays    int               `yaml:"expiration_days"`
	Facilities        []models.Facility `yaml:"facilities"`
	RateLimitAttempts int               `yaml:"rate_limit_attempts"`
	RateLimitWindow   time.Duration     `yaml:"rate_limit_window"`
}

// FacilityCodes returns the configured facility codes in order.
func (b BookingConfig) FacilityCodes() []string {
	codes := make([]string, 0, len(b.Facilities))
	for _, f := range b.Facilities {
		codes = append(codes, f.Code)
	}
	return codes
}

type RetentionConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Schedule   string        `yaml:"schedule"`
	LockTTL    time.Duration `yaml:"lock_ttl"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type APIConfig struct {
	Enabled    bool               `yaml:"enabled"`
	HTTP       APIHTTPConfig      `yaml:"http"`
	Auth       APIAuthConfig      `yaml:"auth"`
	RateLimit  APIRateLimitConfig `yaml:"rate_limit"`
	UserHeader string             `yaml:"user_header"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Driver       string         `yaml:"driver"`
	Path         string         `yaml:"path"`
	Postgres     PostgresConfig `yaml:"postgres"`
	MaxOpenConns int            `yaml:"max_open_conns"`
}

type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
}

// DSN собирает строку подключения для lib/pq
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	StatisticsSpreadsheet string `yaml:"statistics_spreadsheet_id"`
	StatisticsSheetName   string `yaml:"statistics_sheet_name"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case DriverPostgres:
		if c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "" {
			return errors.New("postgres host and dbname are required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Booking.Quota < 0 {
		return errors.New("booking quota must not be negative")
	}
	if c.Booking.ExpirationDays < 0 {
		return errors.New("expiration days must not be negative")
	}

	return ValidateFacilities(c.Booking.Facilities)
}

func ValidateFacilities(facilities []models.Facility) error {
	if len(facilities) == 0 {
		return errors.New("at least one facility is required")
	}
	codes := make(map[string]bool)
	for _, f := range facilities {
		code := strings.TrimSpace(f.Code)
		if code == "" {
			return fmt.Errorf("facility '%s' has an empty code", f.Name)
		}
		if codes[code] {
			return fmt.Errorf("duplicate facility code found: %s", code)
		}
		codes[code] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = 5432
	}
	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = "disable"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.API.UserHeader == "" {
		c.API.UserHeader = "X-User-ID"
	}

	// Booking defaults
	if c.Booking.Quota == 0 {
		c.Booking.Quota = models.DefaultQuota
	}
	if c.Booking.ExpirationDays == 0 {
		c.Booking.ExpirationDays = models.DefaultExpirationDays
	}
	if len(c.Booking.Facilities) == 0 {
		c.Booking.Facilities = models.DefaultFacilities()
	}
	if c.Booking.RateLimitAttempts == 0 {
		c.Booking.RateLimitAttempts = 30
	}
	if c.Booking.RateLimitWindow == 0 {
		c.Booking.RateLimitWindow = time.Minute
	}

	if c.Retention.Schedule == "" {
		c.Retention.Schedule = "@daily"
	}
	if c.Retention.LockTTL == 0 {
		c.Retention.LockTTL = 10 * time.Minute
	}
	if c.Retention.MaxRetries == 0 {
		c.Retention.MaxRetries = 3
	}
	if c.Retention.RetryDelay == 0 {
		c.Retention.RetryDelay = 5 * time.Second
	}

	if c.Google.StatisticsSheetName == "" {
		c.Google.StatisticsSheetName = "Statistik"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}

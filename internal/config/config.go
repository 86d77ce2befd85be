package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Semester policies for outcome results of the same student, course and
// outcome uploaded in different semesters
const (
	PolicyRecencyWins = "recency_wins"
	PolicyAccumulate  = "accumulate"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string        `yaml:"port" env:"SERVER_PORT"`
		Mode            string        `yaml:"mode" env:"SERVER_MODE"`
		StoragePath     string        `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
		MaxUploadMB     int64         `yaml:"max_upload_mb" env:"SERVER_MAX_UPLOAD_MB"`
		TrustedProxies  []string      `yaml:"trusted_proxies" env:"SERVER_TRUSTED_PROXIES"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Host            string        `yaml:"host" env:"DB_HOST"`
		Port            string        `yaml:"port" env:"DB_PORT"`
		User            string        `yaml:"user" env:"DB_USER"`
		Password        string        `yaml:"password" env:"DB_PASSWORD"`
		DBName          string        `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string        `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsPath  string        `yaml:"migrations_path" env:"DB_MIGRATIONS_PATH"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string        `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  time.Duration `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration time.Duration `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string        `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Worker struct {
		Concurrency  int           `yaml:"concurrency" env:"WORKER_CONCURRENCY"`
		PollInterval time.Duration `yaml:"poll_interval" env:"WORKER_POLL_INTERVAL"`
		MaxAttempts  int           `yaml:"max_attempts" env:"WORKER_MAX_ATTEMPTS"`
		StaleAfter   time.Duration `yaml:"stale_after" env:"WORKER_STALE_AFTER"`
		RetryDelay   time.Duration `yaml:"retry_delay" env:"WORKER_RETRY_DELAY"`
		Retention    time.Duration `yaml:"retention" env:"WORKER_RETENTION"`
	} `yaml:"worker"`

	Redis struct {
		Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
		Password string        `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int           `yaml:"db" env:"REDIS_DB"`
		LockTTL  time.Duration `yaml:"lock_ttl" env:"REDIS_LOCK_TTL"`
	} `yaml:"redis"`

	Outcomes struct {
		SemesterPolicy string `yaml:"semester_policy" env:"OUTCOMES_SEMESTER_POLICY"`
	} `yaml:"outcomes"`
}

// LoadConfig loads configuration from a file, a .env file next to the
// working directory and environment variables, in that order of precedence
// from lowest to highest
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := applyEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadDotEnv loads variables from path when the file exists. Variables that
// are already set are not overridden.
func loadDotEnv(path string) error {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.StoragePath = "uploads"
	config.Server.MaxUploadMB = 10
	config.Server.ShutdownTimeout = 10 * time.Second

	// Database defaults
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "pclink"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = time.Hour
	config.Database.MigrationsPath = "migrations"

	// JWT defaults
	config.JWT.AccessTokenExpiration = time.Hour
	config.JWT.RefreshTokenExpiration = 30 * 24 * time.Hour
	config.JWT.Issuer = "pc-link"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Report worker defaults
	config.Worker.Concurrency = 2
	config.Worker.PollInterval = time.Second
	config.Worker.MaxAttempts = 3
	config.Worker.StaleAfter = 30 * time.Minute
	config.Worker.RetryDelay = 30 * time.Second
	config.Worker.Retention = 7 * 24 * time.Hour

	config.Redis.LockTTL = 2 * time.Minute

	config.Outcomes.SemesterPolicy = PolicyRecencyWins
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if config.JWT.AccessTokenExpiration <= 0 || config.JWT.RefreshTokenExpiration <= 0 {
		return fmt.Errorf("JWT token expirations must be positive")
	}

	if config.JWT.RefreshTokenExpiration < config.JWT.AccessTokenExpiration {
		return fmt.Errorf("JWT refresh tokens must outlive access tokens")
	}

	if config.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server max upload size must be positive")
	}

	if config.Worker.Concurrency < 1 {
		return fmt.Errorf("worker concurrency must be at least 1")
	}

	if config.Worker.PollInterval <= 0 {
		return fmt.Errorf("worker poll interval must be positive")
	}

	switch config.Outcomes.SemesterPolicy {
	case PolicyRecencyWins, PolicyAccumulate:
	default:
		return fmt.Errorf("unknown semester policy %q", config.Outcomes.SemesterPolicy)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// MaxUploadBytes returns the upload size limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Database drivers understood by database.Open.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	GinMode  string `envconfig:"GIN_MODE" default:"debug"`
	Database DatabaseConfig
	Session  SessionConfig
	CORS     CORSConfig
	Storage  StorageConfig
	Log      LogConfig

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
}

type DatabaseConfig struct {
	Driver string `envconfig:"DB_DRIVER" default:"mysql"`
	// URL is a DSN for mysql/postgres, a file path for sqlite and a
	// connection URI for mongo.
	URL  string `envconfig:"DATABASE_URL" default:"taskuser:taskpassword@tcp(localhost:3306)/task_management?charset=utf8mb4&parseTime=True&loc=Local"`
	Name string `envconfig:"DB_NAME" default:"task_management"`
}

type SessionConfig struct {
	Secret    string `envconfig:"SESSION_SECRET" default:"default-secret-key-change-me"`
	Store     string `envconfig:"SESSION_STORE" default:"cookie"`
	RedisHost string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort string `envconfig:"REDIS_PORT" default:"6379"`
	MaxAge    int    `envconfig:"SESSION_MAX_AGE" default:"604800"`
}

type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
}

type StorageConfig struct {
	UploadURL   string `envconfig:"STORAGE_UPLOAD_URL"`
	Preset      string `envconfig:"STORAGE_UPLOAD_PRESET"`
	Parallelism int    `envconfig:"STORAGE_UPLOAD_PARALLELISM" default:"4"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE"`
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// RedisAddr returns host:port of the session redis.
func (s SessionConfig) RedisAddr() string {
	return s.RedisHost + ":" + s.RedisPort
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	c.Session.Store = strings.ToLower(c.Session.Store)
	if c.Session.Store != "cookie" && c.Session.Store != "redis" {
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Session.Store)
	}

	if c.Storage.Parallelism < 1 {
		c.Storage.Parallelism = 1
	}
	return nil
}

package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/yungbote/schoolbridge-backend/internal/data/db"
	"github.com/yungbote/schoolbridge-backend/internal/modules/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/observability"
)

type Config struct {
	Port             string        `env:"PORT" envDefault:"8080"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	CORSOrigins      []string      `env:"CORS_ORIGINS" envSeparator:","`

	LogMode             string `env:"LOG_MODE" envDefault:"development"`
	LogRedactionEnabled bool   `env:"LOG_REDACTION_ENABLED" envDefault:"true"`
	LogHashSalt         string `env:"LOG_HASH_SALT"`

	Database    DatabaseConfig
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"false"`

	JWTSecretKey string `env:"JWT_SECRET_KEY,required"`

	RunWorkers        int           `env:"RUN_WORKERS" envDefault:"4"`
	RunTimeout        time.Duration `env:"RUN_TIMEOUT" envDefault:"0s"`
	PairWriteMaxTries uint          `env:"PAIR_WRITE_MAX_TRIES" envDefault:"3"`
	CatalogCacheTTL   time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"1m"`

	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	ScopeLockEnabled bool          `env:"SCOPE_LOCK_ENABLED" envDefault:"false"`
	ScopeLockTTL     time.Duration `env:"SCOPE_LOCK_TTL" envDefault:"15m"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	Otel OtelConfig
}

type DatabaseConfig struct {
	Driver          string        `env:"DATABASE_DRIVER" envDefault:"postgres"`
	Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port            string        `env:"POSTGRES_PORT" envDefault:"5432"`
	User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
	Password        string        `env:"POSTGRES_PASSWORD"`
	Name            string        `env:"POSTGRES_NAME" envDefault:"schoolbridge"`
	SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	SQLitePath      string        `env:"SQLITE_PATH" envDefault:"schoolbridge.db"`
	MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
}

type OtelConfig struct {
	Enabled     bool              `env:"OTEL_ENABLED" envDefault:"false"`
	ServiceName string            `env:"OTEL_SERVICE_NAME" envDefault:"schoolbridge-backend"`
	Environment string            `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	Version     string            `env:"OTEL_SERVICE_VERSION"`
	Endpoint    string            `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Headers     map[string]string `env:"OTEL_EXPORTER_OTLP_HEADERS" envSeparator:"," envKeyValSeparator:"="`
	Insecure    bool              `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	SampleRatio float64           `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1"`
}

// LoadConfig reads an optional dotenv file and then parses the environment.
// Variables already set in the environment win over the file.
func LoadConfig(dotenvPaths ...string) (Config, error) {
	if len(dotenvPaths) == 0 {
		dotenvPaths = []string{".env"}
	}
	for _, p := range dotenvPaths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", p, err)
		}
	}
	return ParseConfig(env.Options{})
}

// ParseConfig parses Config from the process environment, or from
// opts.Environment when set.
func ParseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY must not be blank"))
	}
	if c.RunWorkers < 1 {
		errs = append(errs, fmt.Errorf("RUN_WORKERS must be at least 1, got %d", c.RunWorkers))
	}
	if c.PairWriteMaxTries < 1 {
		errs = append(errs, errors.New("PAIR_WRITE_MAX_TRIES must be at least 1"))
	}
	if c.RunTimeout < 0 {
		errs = append(errs, errors.New("RUN_TIMEOUT must not be negative"))
	}
	if c.ScopeLockEnabled {
		if strings.TrimSpace(c.RedisAddr) == "" {
			errs = append(errs, errors.New("SCOPE_LOCK_ENABLED requires REDIS_ADDR"))
		}
		// A run must not outlive its lock, or a second run on the scope can start.
		if floor := mastery.MinScopeLockTTL(c.RunTimeout); floor == 0 {
			errs = append(errs, errors.New("SCOPE_LOCK_ENABLED requires a positive RUN_TIMEOUT"))
		} else if c.ScopeLockTTL < floor {
			errs = append(errs, fmt.Errorf("SCOPE_LOCK_TTL must be at least %s for RUN_TIMEOUT %s, got %s", floor, c.RunTimeout, c.ScopeLockTTL))
		}
	}
	return errors.Join(errs...)
}

func (c Config) Address() string {
	return ":" + strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
}

// Service converts the env-bound settings into the database layer config.
func (d DatabaseConfig) Service() db.Config {
	return db.Config{
		Driver:          d.Driver,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Name:            d.Name,
		SSLMode:         d.SSLMode,
		SQLitePath:      d.SQLitePath,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
	}
}

func (o OtelConfig) tracing() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     o.Enabled,
		ServiceName: o.ServiceName,
		Environment: o.Environment,
		Version:     o.Version,
		Endpoint:    o.Endpoint,
		Headers:     o.Headers,
		Insecure:    o.Insecure,
		SampleRatio: o.SampleRatio,
	}
}

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Catalog   CatalogConfig
	Cache     CacheConfig
	Analytics AnalyticsConfig
	Model     ModelConfig
	GCP       GCPConfig
	BigQuery  BigQueryConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Cache.Dir == "" {
		return nil, fmt.Errorf("%s must not be empty", EnvCacheDir)
	}
	if err := cfg.DB.ensureDSN(cfg.Cache.Dir); err != nil {
		return nil, err
	}
	if err := cfg.Catalog.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SPINLYTICS_APP_ENV" required:"true"`
	Port         string `envconfig:"SPINLYTICS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SPINLYTICS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SPINLYTICS_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"SPINLYTICS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DBConfig points at the dataset manifest store. SQLite inside the cache
// directory by default; Postgres when several API instances share one cache.
type DBConfig struct {
	Driver string `envconfig:"SPINLYTICS_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"SPINLYTICS_DB_DSN"`

	MaxOpenConns    int           `envconfig:"SPINLYTICS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SPINLYTICS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SPINLYTICS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SPINLYTICS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) UseSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

func (db *DBConfig) ensureDSN(cacheDir string) error {
	if db.DSN != "" {
		return nil
	}
	if db.UseSQLite() {
		db.DSN = filepath.Join(cacheDir, "manifest.db")
		return nil
	}
	return fmt.Errorf("%s is required when driver is %q", EnvDBDSN, db.Driver)
}

type RedisConfig struct {
	URL          string        `envconfig:"SPINLYTICS_REDIS_URL"`
	Address      string        `envconfig:"SPINLYTICS_REDIS_ADDR"`
	Password     string        `envconfig:"SPINLYTICS_REDIS_PASSWORD"`
	DB           int           `envconfig:"SPINLYTICS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SPINLYTICS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SPINLYTICS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SPINLYTICS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SPINLYTICS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SPINLYTICS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all. The fetch
// lock degrades to process-local behavior without one.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// CatalogConfig selects and parameterizes the remote dataset catalog.
type CatalogConfig struct {
	Kind            string        `envconfig:"SPINLYTICS_CATALOG_KIND" default:"http"`
	BaseURL         string        `envconfig:"SPINLYTICS_CATALOG_URL"`
	Token           string        `envconfig:"SPINLYTICS_CATALOG_TOKEN"`
	RequestTimeout  time.Duration `envconfig:"SPINLYTICS_CATALOG_TIMEOUT" default:"2m"`
	RetryAttempts   int           `envconfig:"SPINLYTICS_CATALOG_RETRY_ATTEMPTS" default:"3"`
	RetryBaseDelay  time.Duration `envconfig:"SPINLYTICS_CATALOG_RETRY_BASE_DELAY" default:"500ms"`
	FetchLockTTL    time.Duration `envconfig:"SPINLYTICS_CATALOG_FETCH_LOCK_TTL" default:"10m"`
	MaxDownloadSize int64         `envconfig:"SPINLYTICS_CATALOG_MAX_DOWNLOAD_BYTES" default:"2147483648"`
}

func (c CatalogConfig) validate() error {
	switch strings.ToLower(c.Kind) {
	case "http":
		if c.BaseURL == "" {
			return fmt.Errorf("%s is required for the http catalog", EnvCatalogURL)
		}
	case "bigquery":
	default:
		return fmt.Errorf("unknown catalog kind %q", c.Kind)
	}
	return nil
}

type CacheConfig struct {
	Dir string `envconfig:"SPINLYTICS_CACHE_DIR" default:"data/cache"`
}

type AnalyticsConfig struct {
	MinSampleSize   int     `envconfig:"SPINLYTICS_ANALYTICS_MIN_SAMPLE_SIZE" default:"30"`
	RetentionPeriod string  `envconfig:"SPINLYTICS_ANALYTICS_RETENTION_PERIOD" default:"week"`
	FraudVelocity   float64 `envconfig:"SPINLYTICS_FRAUD_WEIGHT_VELOCITY" default:"0.4"`
	FraudDeviceIP   float64 `envconfig:"SPINLYTICS_FRAUD_WEIGHT_DEVICE_IP" default:"0.35"`
	FraudWinStreak  float64 `envconfig:"SPINLYTICS_FRAUD_WEIGHT_WIN_STREAK" default:"0.25"`
}

type ModelConfig struct {
	Kind         string  `envconfig:"SPINLYTICS_MODEL_KIND" default:"logistic"`
	LearningRate float64 `envconfig:"SPINLYTICS_MODEL_LEARNING_RATE" default:"0.05"`
	Epochs       int     `envconfig:"SPINLYTICS_MODEL_EPOCHS" default:"50"`
	BatchSize    int     `envconfig:"SPINLYTICS_MODEL_BATCH_SIZE" default:"64"`
	Seed         int64   `envconfig:"SPINLYTICS_MODEL_SEED" default:"42"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SPINLYTICS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SPINLYTICS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SPINLYTICS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type BigQueryConfig struct {
	Dataset string `envconfig:"SPINLYTICS_BIGQUERY_DATASET" default:"casino_ops"`
	Table   string `envconfig:"SPINLYTICS_BIGQUERY_TABLE" default:"events"`
}

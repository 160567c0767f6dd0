package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	Redis        RedisConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Aggregation  AggregationConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Aggregation.StaleAfterDays <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvStaleAfterDays)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOLETRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"SOLETRACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SOLETRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOLETRACK_LOG_WARN_STACK" default:"false"`
	// TriggerRateLimit caps manual aggregation triggers per window; zero
	// disables the limit.
	TriggerRateLimit  int64         `envconfig:"SOLETRACK_TRIGGER_RATE_LIMIT" default:"6"`
	TriggerRateWindow time.Duration `envconfig:"SOLETRACK_TRIGGER_RATE_WINDOW" default:"1m"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SOLETRACK_SERVICE_KIND" default:"api"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOLETRACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SOLETRACK_REDIS_ADDR"`
	Password     string        `envconfig:"SOLETRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOLETRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOLETRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOLETRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOLETRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOLETRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOLETRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SOLETRACK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SOLETRACK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SOLETRACK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"SOLETRACK_GCS_BUCKET_NAME" required:"true"`
	// ObjectPrefix is prepended to every artifact object name.
	ObjectPrefix string `envconfig:"SOLETRACK_GCS_OBJECT_PREFIX" default:"aggregator"`
}

type AggregationConfig struct {
	// SnapshotBaseURL roots every source's snapshot location.
	SnapshotBaseURL string `envconfig:"SOLETRACK_SNAPSHOT_BASE_URL" default:"https://storage.googleapis.com/soletrack-snapshots"`
	// StaleAfterDays is the hard exclusion threshold for a source snapshot.
	StaleAfterDays int `envconfig:"SOLETRACK_STALE_AFTER_DAYS" default:"7"`
	// FreshWithinHours is the advisory freshness window; it never gates inclusion.
	FreshWithinHours   int           `envconfig:"SOLETRACK_FRESH_WITHIN_HOURS" default:"26"`
	FetchTimeout       time.Duration `envconfig:"SOLETRACK_SOURCE_FETCH_TIMEOUT" default:"30s"`
	FetchRetries       int           `envconfig:"SOLETRACK_SOURCE_FETCH_RETRIES" default:"2"`
	RunInterval        time.Duration `envconfig:"SOLETRACK_RUN_INTERVAL" default:"6h"`
	HistoryDays        int           `envconfig:"SOLETRACK_HISTORY_RETENTION_DAYS" default:"30"`
	DailyDealCount     int           `envconfig:"SOLETRACK_DAILY_DEAL_COUNT" default:"12"`
	MinSalePrice       float64       `envconfig:"SOLETRACK_MIN_SALE_PRICE" default:"10"`
	MaxSalePrice       float64       `envconfig:"SOLETRACK_MAX_SALE_PRICE" default:"1000"`
	MinDiscountPercent int           `envconfig:"SOLETRACK_MIN_DISCOUNT_PERCENT" default:"5"`
	MaxDiscountPercent int           `envconfig:"SOLETRACK_MAX_DISCOUNT_PERCENT" default:"95"`
}

type FeatureFlagsConfig struct {
	// StrictDedup keys no-URL listings by store+name+image instead of
	// letting them bypass deduplication.
	StrictDedup bool `envconfig:"SOLETRACK_STRICT_DEDUP" default:"false"`
	// SingleFlight guards pipeline runs with a Redis lock.
	SingleFlight bool `envconfig:"SOLETRACK_SINGLE_FLIGHT" default:"true"`
}

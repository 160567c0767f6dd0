package config

const EnvPrefix = "SOLETRACK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv           = "SOLETRACK_APP_ENV"
	EnvPort             = "SOLETRACK_APP_PORT"
	EnvLogLevel         = "SOLETRACK_LOG_LEVEL"
	EnvRedisURL         = "SOLETRACK_REDIS_URL"
	EnvGCPProjectID     = "SOLETRACK_GCP_PROJECT_ID"
	EnvGCSBucket        = "SOLETRACK_GCS_BUCKET_NAME"
	EnvGCSObjectPrefix  = "SOLETRACK_GCS_OBJECT_PREFIX"
	EnvStaleAfterDays   = "SOLETRACK_STALE_AFTER_DAYS"
	EnvFreshWithinHours = "SOLETRACK_FRESH_WITHIN_HOURS"
	EnvStrictDedup      = "SOLETRACK_STRICT_DEDUP"
	EnvSingleFlight     = "SOLETRACK_SINGLE_FLIGHT"
	EnvTriggerRateLimit = "SOLETRACK_TRIGGER_RATE_LIMIT"
)

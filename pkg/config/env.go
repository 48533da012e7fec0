package config

const EnvPrefix = "CARTENGINE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "CARTENGINE_APP_ENV"
	EnvPort         = "CARTENGINE_APP_PORT"
	EnvLogLevel     = "CARTENGINE_LOG_LEVEL"
	EnvLogWarnStack = "CARTENGINE_LOG_WARN_STACK"

	EnvCartExpirationDays  = "CARTENGINE_CART_EXPIRATION_DAYS"
	EnvCartShareTTL        = "CARTENGINE_CART_SHARE_TTL"
	EnvCartSweepInterval   = "CARTENGINE_CART_SWEEP_INTERVAL"
	EnvCartSharePathPrefix = "CARTENGINE_CART_SHARE_PATH_PREFIX"
	EnvCartDefaultCurrency = "CARTENGINE_CART_DEFAULT_CURRENCY"
	EnvCartSeedProducts    = "CARTENGINE_CART_SEED_PRODUCTS"

	EnvRedisURL      = "CARTENGINE_REDIS_URL"
	EnvRedisAddr     = "CARTENGINE_REDIS_ADDR"
	EnvRedisPassword = "CARTENGINE_REDIS_PASSWORD"
	EnvRedisDB       = "CARTENGINE_REDIS_DB"

	EnvGCPProjectID       = "CARTENGINE_GCP_PROJECT_ID"
	EnvGCPCredentialsJSON = "CARTENGINE_GCP_CREDENTIALS_JSON"

	EnvPubSubAnalyticsTopic = "CARTENGINE_PUBSUB_ANALYTICS_TOPIC"
)

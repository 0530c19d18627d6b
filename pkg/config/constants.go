package config

const (
	EnvPrefix = "SPINLYTICS"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv      = "SPINLYTICS_APP_ENV"
	EnvPort        = "SPINLYTICS_APP_PORT"
	EnvDBDSN       = "SPINLYTICS_DB_DSN"
	EnvCatalogURL  = "SPINLYTICS_CATALOG_URL"
	EnvCatalogAuth = "SPINLYTICS_CATALOG_TOKEN"
	EnvCacheDir    = "SPINLYTICS_CACHE_DIR"
)

package config

const (
	EnvPrefix = "RECIPEBOX"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	EnvAppEnv   = "RECIPEBOX_APP_ENV"
	EnvDBDriver = "RECIPEBOX_DB_DRIVER"
	EnvDBDSN    = "RECIPEBOX_DB_DSN"
	EnvDBPath   = "RECIPEBOX_DB_PATH"
	EnvDBHost   = "RECIPEBOX_DB_HOST"
	EnvDBUser   = "RECIPEBOX_DB_USER"
	EnvDBName   = "RECIPEBOX_DB_NAME"
)

var postgresDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

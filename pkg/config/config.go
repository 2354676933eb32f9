package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RECIPEBOX_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"RECIPEBOX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RECIPEBOX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"RECIPEBOX_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"RECIPEBOX_DB_DSN"`

	// SQLite file path used when Driver is sqlite and no DSN is set.
	Path string `envconfig:"RECIPEBOX_DB_PATH" default:"recipebox.db"`

	PostgresHost     string `envconfig:"RECIPEBOX_DB_HOST"`
	PostgresPort     int    `envconfig:"RECIPEBOX_DB_PORT" default:"5432"`
	PostgresUser     string `envconfig:"RECIPEBOX_DB_USER"`
	PostgresPassword string `envconfig:"RECIPEBOX_DB_PASSWORD"`
	PostgresName     string `envconfig:"RECIPEBOX_DB_NAME"`
	PostgresSSLMode  string `envconfig:"RECIPEBOX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RECIPEBOX_DB_MAX_OPEN_CONNS" default:"1"`
	MaxIdleConns    int           `envconfig:"RECIPEBOX_DB_MAX_IDLE_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"RECIPEBOX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RECIPEBOX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RECIPEBOX_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	if db.IsSQLite() {
		if db.Path == "" {
			return fmt.Errorf("either %s or %s is required for sqlite", EnvDBDSN, EnvDBPath)
		}
		db.DSN = db.Path
		return nil
	}

	missing := []string{}
	pgValues := map[string]string{
		EnvDBHost: db.PostgresHost,
		EnvDBUser: db.PostgresUser,
		EnvDBName: db.PostgresName,
	}
	for _, env := range postgresDBEnvVars {
		if pgValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.PostgresUser)
	if db.PostgresPassword != "" {
		userInfo = url.UserPassword(db.PostgresUser, db.PostgresPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.PostgresHost, db.PostgresPort),
		Path:   db.PostgresName,
	}

	if db.PostgresSSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.PostgresSSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

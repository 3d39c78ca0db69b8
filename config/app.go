package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Database backends selectable through DB_TYPE.
const (
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"
	DBTypeMySQL    = "mysql"
)

// App is the typed view of the environment used to wire the service.
type App struct {
	Env string

	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	DBType        string
	DBURL         string
	DBReplicaURLs []string
	AutoMigrate   bool

	SecretKey    string
	SessionTTL   time.Duration
	CookieSecure bool

	AcceptedOrigins []string
	BaseURL         string

	LogLevel  string
	LogFormat string

	GenerateModels       bool
	GenerateColumnReport bool
	GeneratedOutPath     string
}

// IsDevelopment reports whether the service runs with development defaults.
func (a App) IsDevelopment() bool {
	return a.Env == "development"
}

// Load reads an optional .env file and builds the App configuration from the
// process environment.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded, using existing environment variables")
	}
	return FromMap(New())
}

// FromMap builds the App configuration from an env map.
func FromMap(c map[string]string) (App, error) {
	app := App{
		Env:                  strings.ToLower(GetString(c, "APP_ENV", "development")),
		Port:                 GetString(c, "PORT", "8080"),
		ReadTimeout:          time.Duration(GetInt(c, "READ_TIMEOUT_SECONDS", 180)) * time.Second,
		WriteTimeout:         time.Duration(GetInt(c, "WRITE_TIMEOUT_SECONDS", 180)) * time.Second,
		IdleTimeout:          time.Duration(GetInt(c, "IDLE_TIMEOUT_SECONDS", 180)) * time.Second,
		DBType:               strings.ToLower(GetString(c, "DB_TYPE", DBTypeSQLite)),
		DBURL:                GetString(c, "DB_URL", "blogs.db"),
		DBReplicaURLs:        GetList(c, "DB_REPLICA_URLS"),
		AutoMigrate:          GetBool(c, "AUTO_MIGRATE", true),
		SecretKey:            GetString(c, "SECRET_KEY", ""),
		SessionTTL:           time.Duration(GetInt(c, "SESSION_TTL_HOURS", 720)) * time.Hour,
		CookieSecure:         GetBool(c, "COOKIE_SECURE", false),
		AcceptedOrigins:      GetList(c, "ACCEPTED_ORIGINS"),
		BaseURL:              GetString(c, "BASE_URL", ""),
		LogLevel:             strings.ToLower(GetString(c, "LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(GetString(c, "LOG_FORMAT", "console")),
		GenerateModels:       GetBool(c, "GENERATE_MODELS", false),
		GenerateColumnReport: GetBool(c, "GENERATE_COLUMN_REPORT", false),
		GeneratedOutPath:     GetString(c, "GENERATED_OUT_PATH", "./generated"),
	}

	switch app.DBType {
	case DBTypeSQLite, DBTypePostgres, DBTypeMySQL:
	default:
		return App{}, fmt.Errorf("unsupported DB_TYPE %q", app.DBType)
	}

	if app.SecretKey == "" {
		if !app.IsDevelopment() {
			return App{}, errors.New("SECRET_KEY is required outside development")
		}
		secret, err := randomSecret()
		if err != nil {
			return App{}, fmt.Errorf("generate session secret: %w", err)
		}
		log.Warn().Msg("SECRET_KEY not set, using a random per-process secret; sessions end on restart")
		app.SecretKey = secret
	}

	if app.SessionTTL <= 0 {
		return App{}, errors.New("SESSION_TTL_HOURS must be positive")
	}

	return app, nil
}

// randomSecret returns 32 random bytes hex encoded.
func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

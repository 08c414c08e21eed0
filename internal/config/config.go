package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"

	"github.com/Houeta/garderie-watch/internal/models"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrEmptyToken       = errors.New("error getting CF_TELEGRAM_TOKEN: variable not specified or contains an empty string")
	ErrEmptyBaseURL     = errors.New("error getting CF_BASE_URL: variable not specified or contains an empty string")
	ErrEmptyIndexURL    = errors.New("error getting CF_INDEX_URL: variable not specified or contains an empty string")
	ErrNoMaxDistance    = errors.New("error getting CF_MAX_DISTANCE_KM: variable not specified")
	ErrEmptyDatabaseURL = errors.New("error getting CF_DATABASE_URL: required when CF_STORAGE_DRIVER is postgres")
	ErrUnknownDriver    = errors.New("error getting CF_STORAGE_DRIVER: expected sqlite or postgres")
)

type Config struct {
	Env     string // Env is the current environment: local, development, production.
	Site    Site
	Crawl   Crawl
	Storage Storage
	Tg      Telegram
	// MetricsAddr is the listen address of the /metrics and /healthz server.
	MetricsAddr string
}

// Site describes where listings are fetched from.
type Site struct {
	BaseURL   string // BaseURL prefixes every detail page href.
	IndexURL  string
	UserAgent string
	Timeout   time.Duration // Timeout bounds a single HTTP request.
}

// Crawl holds the search filters and the scheduling of crawl cycles.
type Crawl struct {
	MaxDistanceKM float64
	Query         models.Query
	Schedule      string // Schedule is a robfig/cron spec.
	RunOnStart    bool
	MaxInFlight   int // MaxInFlight caps concurrent detail tasks; 0 means no cap.
}

type Storage struct {
	Driver      string
	Path        string // Path is the SQLite database file.
	DatabaseURL string // DatabaseURL is the PostgreSQL DSN.
}

type Telegram struct {
	Token   string        // Token is an unique telgram bot token.
	Timeout time.Duration // Timeout is a poller timeout duration.
}

// MustLoad loads the configuration from environment variables and returns a Config struct.
func MustLoad() *Config {
	// Automatically binds environment variables to config keys
	viper.SetEnvPrefix("CF")
	viper.AutomaticEnv()

	// optional args
	viper.SetDefault("ENV", "production")
	viper.SetDefault("TELEGRAM_TIMEOUT", "15s")
	viper.SetDefault("STORAGE_DRIVER", DriverSQLite)
	viper.SetDefault("STORAGE_PATH", "garderie-watch.db")
	viper.SetDefault("SCHEDULE", "@every 6h")
	viper.SetDefault("RUN_ON_START", true)
	viper.SetDefault("MAX_IN_FLIGHT", 0)
	viper.SetDefault("HTTP_TIMEOUT", "30s")
	viper.SetDefault("METRICS_ADDR", ":9090")

	if viper.GetString("TELEGRAM_TOKEN") == "" {
		panic(ErrEmptyToken)
	}
	if viper.GetString("BASE_URL") == "" {
		panic(ErrEmptyBaseURL)
	}
	if viper.GetString("INDEX_URL") == "" {
		panic(ErrEmptyIndexURL)
	}
	if !viper.IsSet("MAX_DISTANCE_KM") {
		panic(ErrNoMaxDistance)
	}

	storage := Storage{
		Driver:      viper.GetString("STORAGE_DRIVER"),
		Path:        viper.GetString("STORAGE_PATH"),
		DatabaseURL: viper.GetString("DATABASE_URL"),
	}
	switch storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if storage.DatabaseURL == "" {
			panic(ErrEmptyDatabaseURL)
		}
	default:
		panic(ErrUnknownDriver)
	}

	return &Config{
		Env: viper.GetString("ENV"),
		Site: Site{
			BaseURL:   viper.GetString("BASE_URL"),
			IndexURL:  viper.GetString("INDEX_URL"),
			UserAgent: viper.GetString("USER_AGENT"),
			Timeout:   viper.GetDuration("HTTP_TIMEOUT"),
		},
		Crawl: Crawl{
			MaxDistanceKM: viper.GetFloat64("MAX_DISTANCE_KM"),
			Query:         loadQuery(),
			Schedule:      viper.GetString("SCHEDULE"),
			RunOnStart:    viper.GetBool("RUN_ON_START"),
			MaxInFlight:   viper.GetInt("MAX_IN_FLIGHT"),
		},
		Storage: storage,
		Tg: Telegram{
			Token:   viper.GetString("TELEGRAM_TOKEN"),
			Timeout: viper.GetDuration("TELEGRAM_TIMEOUT"),
		},
		MetricsAddr: viper.GetString("METRICS_ADDR"),
	}
}

// loadQuery reads the optional search filters; unset ones stay nil.
func loadQuery() models.Query {
	q := models.Query{PostalCode: viper.GetString("POSTAL_CODE")}
	if viper.IsSet("NUMBER_OF_SPACES") {
		n := viper.GetInt("NUMBER_OF_SPACES")
		q.NumberOfSpaces = &n
	}
	if viper.IsSet("MAX_PRICE") {
		p := viper.GetFloat64("MAX_PRICE")
		q.MaxPrice = &p
	}
	if viper.IsSet("AGE_IN_MONTHS") {
		a := viper.GetInt("AGE_IN_MONTHS")
		q.AgeInMonths = &a
	}
	return q
}

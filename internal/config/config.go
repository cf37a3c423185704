// Package config reads the service settings from the environment. Every
// setting has a default, so an empty environment runs a local sqlite
// instance with header authentication.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-rfq-backend/internal/sysutil"
)

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string // CORS_ALLOWED_ORIGINS, comma separated; empty allows any
}

// SecurityConfig controls Strict-Transport-Security.
type SecurityConfig struct {
	EnableHSTS bool          // ENABLE_HSTS, sent on HTTPS requests only
	HSTSMaxAge time.Duration // HSTS_MAX_AGE
}

// OTELConfig configures span export.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT, host:port of the collector
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE, plaintext gRPC
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG, 0 to 1
}

// DBConfig selects and locates the database.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH, SQLite file
	URL    string // DATABASE_URL or DB_URL, Postgres DSN
}

// AuthConfig defines how callers are identified.
type AuthConfig struct {
	Mode      string // AUTH_MODE: jwt|header
	JWTSecret string // JWT_SECRET (HS256)
	JWTIssuer string // JWT_ISSUER, checked when set
}

// SweepConfig controls the scheduled expiry sweep.
type SweepConfig struct {
	Enabled  bool          // SWEEP_ENABLED
	Schedule string        // SWEEP_SCHEDULE, cron spec or @every
	Timeout  time.Duration // SWEEP_TIMEOUT per run
}

// NotifyConfig selects where domain events are published.
type NotifyConfig struct {
	Driver        string // NOTIFY_DRIVER: log|redis|none
	RedisAddr     string // REDIS_ADDR
	RedisPassword string // REDIS_PASSWORD
	RedisDB       int    // REDIS_DB
	Channel       string // NOTIFY_CHANNEL
	QueueSize     int    // NOTIFY_QUEUE_SIZE
	Workers       int    // NOTIFY_WORKERS
}

// Config is the full service configuration. Load fills it.
type Config struct {
	Port              string        // PORT
	ReadTimeout       time.Duration // READ_TIMEOUT
	ReadHeaderTimeout time.Duration // READ_HEADER_TIMEOUT
	WriteTimeout      time.Duration // WRITE_TIMEOUT
	IdleTimeout       time.Duration // IDLE_TIMEOUT
	MaxHeaderBytes    int           // MAX_HEADER_BYTES
	GinMode           string        // GIN_MODE: debug|release|test

	LogLevel       string // LOG_LEVEL: trace|debug|info|warn|error|fatal|panic
	LogPretty      bool   // LOG_PRETTY, console output instead of JSON
	SwaggerEnabled bool   // SWAGGER_ENABLED, serves /swagger/*
	APIBasePath    string // API_BASE_PATH

	DB          DBConfig
	MaxPageSize int // MAX_PAGE_SIZE, cap on list limits

	RateRPS   float64 // RATE_RPS, per caller
	RateBurst int     // RATE_BURST

	CORS     CORSConfig
	Security SecurityConfig
	Auth     AuthConfig

	IdempotencyTTL time.Duration // IDEMPOTENCY_TTL, how long a replay is served

	Sweep  SweepConfig
	Notify NotifyConfig
	OTEL   OTELConfig
}

// Addr is the listen address for http.Server.
func (c Config) Addr() string { return net.JoinHostPort("", c.Port) }

// MustLoad is Load for main: any problem is fatal.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment, normalizes the result and validates it.
// Malformed values (a non-numeric RATE_RPS, an unparseable duration) are
// reported together with validation problems rather than replaced by
// defaults.
func Load() (Config, error) {
	var e env
	cfg := Config{
		Port:              e.str("PORT", "8080"),
		ReadTimeout:       e.duration("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.duration("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.duration("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       e.duration("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.integer("MAX_HEADER_BYTES", 1<<20),
		GinMode:           e.lower("GIN_MODE", "release"),

		LogLevel:       e.lower("LOG_LEVEL", "info"),
		LogPretty:      e.flag("LOG_PRETTY", false),
		SwaggerEnabled: e.flag("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(e.str("API_BASE_PATH", "/api/v1")),

		DB: DBConfig{
			Driver: e.lower("DB_DRIVER", "sqlite"),
			Path:   e.str("DB_PATH", "rfq.db"),
			URL:    sysutil.FirstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("DB_URL")),
		},
		MaxPageSize: e.integer("MAX_PAGE_SIZE", 100),

		RateRPS:   e.float("RATE_RPS", 5.0),
		RateBurst: e.integer("RATE_BURST", 10),

		CORS: CORSConfig{AllowedOrigins: splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS"))},
		Security: SecurityConfig{
			EnableHSTS: e.flag("ENABLE_HSTS", false),
			HSTSMaxAge: e.duration("HSTS_MAX_AGE", 180*24*time.Hour),
		},
		Auth: AuthConfig{
			Mode:      e.lower("AUTH_MODE", "header"),
			JWTSecret: os.Getenv("JWT_SECRET"),
			JWTIssuer: os.Getenv("JWT_ISSUER"),
		},

		IdempotencyTTL: e.duration("IDEMPOTENCY_TTL", 24*time.Hour),

		Sweep: SweepConfig{
			Enabled:  e.flag("SWEEP_ENABLED", true),
			Schedule: e.str("SWEEP_SCHEDULE", "@every 1m"),
			Timeout:  e.duration("SWEEP_TIMEOUT", 5*time.Minute),
		},
		Notify: NotifyConfig{
			Driver:        e.lower("NOTIFY_DRIVER", "log"),
			RedisAddr:     e.str("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       e.integer("REDIS_DB", 0),
			Channel:       e.str("NOTIFY_CHANNEL", "rfq.events"),
			QueueSize:     e.integer("NOTIFY_QUEUE_SIZE", 1024),
			Workers:       e.integer("NOTIFY_WORKERS", 2),
		},

		OTEL: OTELConfig{
			Enabled:     e.flag("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.flag("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "go-rfq-backend"),
			SampleRatio: e.float("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}
	cfg.normalize()
	return cfg, errors.Join(append(e.errs, cfg.Validate())...)
}

// aliases accepted for canonical values
var (
	logLevelAliases = map[string]string{"warning": "warn"}
	dbDriverAliases = map[string]string{"postgresql": "postgres", "pg": "postgres", "sqlite3": "sqlite"}
)

func (c *Config) normalize() {
	if v, ok := logLevelAliases[c.LogLevel]; ok {
		c.LogLevel = v
	}
	if v, ok := dbDriverAliases[c.DB.Driver]; ok {
		c.DB.Driver = v
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
}

// Validate reports every problem in c at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(oneOf(c.LogLevel, "trace", "debug", "info", "warn", "error", "fatal", "panic"),
		"LOG_LEVEL %q: want trace, debug, info, warn, error, fatal or panic", c.LogLevel)
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.WriteTimeout > 0 && c.IdleTimeout > 0,
		"server timeouts must be positive")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")

	switch c.DB.Driver {
	case "sqlite":
		check(strings.TrimSpace(c.DB.Path) != "", "DB_PATH must not be empty")
	case "postgres":
		check(strings.TrimSpace(c.DB.URL) != "", "DATABASE_URL must be set when DB_DRIVER=postgres")
	default:
		check(false, "DB_DRIVER %q: want sqlite or postgres", c.DB.Driver)
	}
	check(c.MaxPageSize >= 1, "MAX_PAGE_SIZE must be >= 1")

	check(c.RateRPS > 0, "RATE_RPS must be > 0")
	check(c.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")

	switch c.Auth.Mode {
	case "header":
	case "jwt":
		check(len(c.Auth.JWTSecret) >= 16, "JWT_SECRET must be at least 16 bytes when AUTH_MODE=jwt")
	default:
		check(false, "AUTH_MODE %q: want jwt or header", c.Auth.Mode)
	}
	check(c.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")

	check(!c.Sweep.Enabled || strings.TrimSpace(c.Sweep.Schedule) != "",
		"SWEEP_SCHEDULE must not be empty when SWEEP_ENABLED")
	check(c.Sweep.Timeout > 0, "SWEEP_TIMEOUT must be > 0")

	switch c.Notify.Driver {
	case "log", "none":
	case "redis":
		check(strings.TrimSpace(c.Notify.RedisAddr) != "", "REDIS_ADDR must be set when NOTIFY_DRIVER=redis")
	default:
		check(false, "NOTIFY_DRIVER %q: want log, redis or none", c.Notify.Driver)
	}
	check(c.Notify.QueueSize >= 1 && c.Notify.Workers >= 1, "NOTIFY_QUEUE_SIZE and NOTIFY_WORKERS must be >= 1")

	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// env reads typed variables, collecting parse failures. Unset or empty
// variables take the default.
type env struct {
	errs []error
}

func (e *env) lookup(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *env) fail(k, v, kind string) {
	e.errs = append(e.errs, fmt.Errorf("%s=%q is not a valid %s", k, v, kind))
}

func (e *env) str(k, def string) string {
	if v, ok := e.lookup(k); ok {
		return v
	}
	return def
}

func (e *env) lower(k, def string) string { return strings.ToLower(e.str(k, def)) }

func (e *env) integer(k string, def int) int {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(k, v, "integer")
		return def
	}
	return n
}

func (e *env) float(k string, def float64) float64 {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(k, v, "number")
		return def
	}
	return f
}

func (e *env) flag(k string, def bool) bool {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "0", "false", "no", "n", "off":
		return false
	}
	if sysutil.IsTruthy(v) {
		return true
	}
	e.fail(k, v, "boolean")
	return def
}

func (e *env) duration(k string, def time.Duration) time.Duration {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(k, v, "duration")
		return def
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeBasePath returns p with one leading slash and no trailing slash;
// blank means root.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}

// Package config loads process configuration from the environment, after
// merging an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string
	UserID string

	// An empty DatabaseURL selects SQLite at SQLitePath.
	DatabaseURL string
	SQLitePath  string

	// RedisURL adds the distributed per-meeting lock.
	RedisURL string

	// RabbitMQURL replaces the in-process bus.
	RabbitMQURL string

	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	WorkerHealthAddr string

	AttendanceTTL           time.Duration
	AttendanceSweepInterval time.Duration
	AttendanceSweepBatch    int

	SlotGridStart       string
	SlotGridEnd         string
	SlotGridGranularity time.Duration
	Timezone            string

	// CalendarMirror is none, caldav or google. Empty infers it from the
	// credentials present.
	CalendarMirror     string
	CalDAVURL          string
	CalDAVUsername     string
	CalDAVPassword     string
	CalDAVCalendarPath string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	GoogleCalendarID   string

	MirrorBreakerMaxRequests      int
	MirrorBreakerInterval         time.Duration
	MirrorBreakerTimeout          time.Duration
	MirrorBreakerFailureThreshold int

	MCPAddr      string
	MCPAuthToken string
}

// Load reads the process environment. A .env file in the working directory
// fills in variables that are not already set. Malformed numbers, durations
// and booleans are reported together rather than silently defaulted.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which has os.LookupEnv's shape.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	e := &env{lookup: lookup}

	cfg := &Config{
		AppEnv: e.str("APP_ENV", "development"),
		UserID: e.str("HUDDLE_USER_ID", "00000000-0000-0000-0000-000000000001"),

		DatabaseURL: e.str("DATABASE_URL", ""),
		SQLitePath:  e.str("SQLITE_PATH", defaultSQLitePath()),
		RedisURL:    e.str("REDIS_URL", ""),
		RabbitMQURL: e.str("RABBITMQ_URL", ""),

		OutboxPollInterval:     e.duration("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        e.integer("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       e.integer("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    e.duration("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    e.integer("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  e.duration("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: e.boolean("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr: e.str("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),

		AttendanceTTL:           e.duration("ATTENDANCE_TTL", 180*time.Second),
		AttendanceSweepInterval: e.duration("ATTENDANCE_SWEEP_INTERVAL", time.Second),
		AttendanceSweepBatch:    e.integer("ATTENDANCE_SWEEP_BATCH", 100),

		SlotGridStart:       e.str("SLOT_GRID_START", "09:00"),
		SlotGridEnd:         e.str("SLOT_GRID_END", "23:00"),
		SlotGridGranularity: e.duration("SLOT_GRID_GRANULARITY", 30*time.Minute),
		Timezone:            e.str("HUDDLE_TIMEZONE", ""),

		CalendarMirror:     e.str("CALENDAR_MIRROR", ""),
		CalDAVURL:          e.str("CALDAV_URL", ""),
		CalDAVUsername:     e.str("CALDAV_USERNAME", ""),
		CalDAVPassword:     e.str("CALDAV_PASSWORD", ""),
		CalDAVCalendarPath: e.str("CALDAV_CALENDAR_PATH", ""),
		GoogleClientID:     e.str("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: e.str("GOOGLE_CLIENT_SECRET", ""),
		GoogleRefreshToken: e.str("GOOGLE_REFRESH_TOKEN", ""),
		GoogleCalendarID:   e.str("GOOGLE_CALENDAR_ID", "primary"),

		MirrorBreakerMaxRequests:      e.integer("MIRROR_BREAKER_MAX_REQUESTS", 1),
		MirrorBreakerInterval:         e.duration("MIRROR_BREAKER_INTERVAL", time.Minute),
		MirrorBreakerTimeout:          e.duration("MIRROR_BREAKER_TIMEOUT", 30*time.Second),
		MirrorBreakerFailureThreshold: e.integer("MIRROR_BREAKER_FAILURE_THRESHOLD", 5),

		MCPAddr:      e.str("MCP_ADDR", "0.0.0.0:8082"),
		MCPAuthToken: e.str("MCP_AUTH_TOKEN", ""),
	}

	if err := errors.Join(append(e.errs, cfg.Validate())...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that a single variable cannot.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.SlotGridGranularity <= 0 {
		errs = append(errs, fmt.Errorf("SLOT_GRID_GRANULARITY must be positive, got %s", c.SlotGridGranularity))
	}
	switch c.CalendarMirror {
	case "", "none", "caldav", "google":
	default:
		errs = append(errs, fmt.Errorf("CALENDAR_MIRROR must be none, caldav or google, got %q", c.CalendarMirror))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Location resolves HUDDLE_TIMEZONE. Empty means the process's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid HUDDLE_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// env reads typed variables and remembers every parse failure.
type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func parsed[T any](e *env, key string, def T, parse func(string) (T, error)) T {
	raw, ok := e.lookup(key)
	if !ok || raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s=%q: %w", key, raw, err))
		return def
	}
	return v
}

func (e *env) integer(key string, def int) int {
	return parsed(e, key, def, strconv.Atoi)
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	return parsed(e, key, def, time.ParseDuration)
}

func (e *env) boolean(key string, def bool) bool {
	return parsed(e, key, def, strconv.ParseBool)
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".huddle", "huddle.db")
	}
	return filepath.Join(home, ".huddle", "huddle.db")
}

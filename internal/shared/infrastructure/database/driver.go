package database

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// Driver names a storage backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// DriverFor picks the backend for a DATABASE_URL. Empty selects SQLite;
// anything that is not recognisably a file selects PostgreSQL.
func DriverFor(rawURL string) Driver {
	if rawURL == "" {
		return DriverSQLite
	}
	if u, err := url.Parse(rawURL); err == nil {
		switch strings.ToLower(u.Scheme) {
		case "postgres", "postgresql":
			return DriverPostgres
		case "sqlite", "file":
			return DriverSQLite
		}
	}
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(rawURL, ext) {
			return DriverSQLite
		}
	}
	return DriverPostgres
}

// Rebind turns '?' placeholders into $1, $2, ... for PostgreSQL. Question
// marks inside single-quoted literals are kept.
func (d Driver) Rebind(query string) string {
	if d != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for _, r := range query {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Config selects and parameterises a backend.
type Config struct {
	// Driver overrides detection from URL.
	Driver     Driver
	URL        string
	SQLitePath string
	// MaxConns caps the PostgreSQL pool; zero keeps the pgx default.
	MaxConns int
}

// Opener connects one backend. The sqlite and postgres packages register
// theirs from init, so importing them is what enables a driver.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var (
	openersMu sync.RWMutex
	openers   = map[Driver]Opener{}
)

func Register(driver Driver, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[driver] = open
}

// Open connects to the backend named by cfg.Driver, or detected from cfg.URL.
func Open(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFor(cfg.URL)
	}

	openersMu.RLock()
	open, ok := openers[driver]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("database driver %q is not registered", driver)
	}
	return open(ctx, cfg)
}

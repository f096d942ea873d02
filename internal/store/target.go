package store

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultSQLiteFile is the database file used when no URL is configured.
const DefaultSQLiteFile = "queue_manager.db"

// Target identifies the database to open.
type Target struct {
	Driver string
	DSN    string
}

// ParseTarget resolves a database URL. postgres:// and postgresql:// URLs
// select PostgreSQL; sqlite:// URLs and bare paths select SQLite. An empty
// URL falls back to the SQLite file at fallbackPath.
func ParseTarget(rawURL, fallbackPath string) Target {
	raw := strings.TrimSpace(rawURL)
	switch {
	case raw == "":
		return Target{Driver: DriverSQLite, DSN: fallbackPath}
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return Target{Driver: DriverPostgres, DSN: raw}
	case strings.HasPrefix(raw, "sqlite://"):
		// sqlite:///abs/path, sqlite://rel/path
		return Target{Driver: DriverSQLite, DSN: strings.TrimPrefix(raw, "sqlite://")}
	default:
		return Target{Driver: DriverSQLite, DSN: raw}
	}
}

// Redacted returns a printable form of the target with credentials
// stripped.
func (t Target) Redacted() string {
	if i := strings.LastIndex(t.DSN, "@"); i >= 0 {
		return t.DSN[i+1:]
	}
	return t.DSN
}

// dialect papers over the placeholder and error differences between the
// supported drivers.
type dialect struct {
	driver string
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
func (d dialect) rebind(query string) string {
	if d.driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// undefinedTable is the PostgreSQL SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// isMissingRelation reports whether err means a board table does not exist.
func (d dialect) isMissingRelation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == undefinedTable
	}
	return strings.Contains(err.Error(), "no such table")
}

package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

// DSN is a parsed DATABASE_URL. Address is what the driver's sql.Open expects.
type DSN struct {
	Dialect string
	Address string
}

// ParseDSN accepts sqlite3://<address> and postgres:// (or postgresql://) URLs.
func ParseDSN(raw string) (DSN, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "sqlite3://"):
		addr := strings.TrimPrefix(raw, "sqlite3://")
		if addr == "" {
			return DSN{}, fmt.Errorf("database: empty sqlite address in %q", raw)
		}
		return DSN{Dialect: DialectSQLite, Address: addr}, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DSN{Dialect: DialectPostgres, Address: raw}, nil
	default:
		return DSN{}, fmt.Errorf("database: unsupported DATABASE_URL %q (want sqlite3:// or postgres://)", raw)
	}
}

// Open connects and pings the database.
func Open(raw string) (*sql.DB, DSN, error) {
	dsn, err := ParseDSN(raw)
	if err != nil {
		return nil, DSN{}, err
	}
	db, err := sql.Open(dsn.Dialect, dsn.Address)
	if err != nil {
		return nil, dsn, fmt.Errorf("database: open %s: %w", dsn.Dialect, err)
	}
	if dsn.Dialect == DialectSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, dsn, fmt.Errorf("database: ping %s: %w", dsn.Dialect, err)
	}
	return db, dsn, nil
}

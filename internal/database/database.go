package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
)

const (
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
)

const defaultMaxRows = 200

// Params are the connection settings supplied once at session start.
// For DuckDB, Database is a file path (empty for in-memory) and the
// network fields are ignored.
type Params struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

func (p Params) driverAndDSN() (string, string, error) {
	driver := strings.ToLower(strings.TrimSpace(p.Driver))
	switch driver {
	case "", DriverPostgres:
		host := strings.TrimSpace(p.Host)
		if host == "" {
			return "", "", fmt.Errorf("host is required")
		}
		port := strings.TrimSpace(p.Port)
		if port == "" {
			port = "5432"
		}
		if strings.TrimSpace(p.Database) == "" {
			return "", "", fmt.Errorf("database name is required")
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(p.User, p.Password),
			Host:   net.JoinHostPort(host, port),
			Path:   "/" + strings.TrimSpace(p.Database),
		}
		return "pgx", u.String(), nil
	case DriverDuckDB:
		return "duckdb", strings.TrimSpace(p.Database), nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", p.Driver)
	}
}

// Conn wraps a live database handle for one chat session. MaxRows caps
// how many result rows Run renders; zero means the default.
type Conn struct {
	db      *sql.DB
	driver  string
	MaxRows int
}

func Open(ctx context.Context, params Params) (*Conn, error) {
	driver, dsn, err := params.driverAndDSN()
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, &ConnectionError{Err: fmt.Errorf("open %s: %w", driver, err)}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Err: fmt.Errorf("ping %s: %w", driver, err)}
	}

	return &Conn{db: db, driver: driver}, nil
}

// NewConn wraps an existing handle. Used by tests and by callers that
// manage the pool themselves.
func NewConn(db *sql.DB) *Conn {
	return &Conn{db: db}
}

func (c *Conn) Driver() string {
	return c.driver
}

func (c *Conn) Close() error {
	return c.db.Close()
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rzpsarthak13/msgsql/internal/core"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("database is closed")

// Config holds the connection settings for a MySQL session.
type Config struct {
	Host              string
	Port              int
	Username          string
	Password          string
	Database          string
	ConnectionTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration

	// Logger receives the connection's diagnostics. Nil keeps log.Default.
	Logger core.Logger
}

// MySQLConnection implements core.Transport over database/sql. The pool is
// capped at one connection so session state (autocommit, the open
// transaction, the default database) stays on a single server session.
// A broken connection is replaced by the pool on the next statement.
type MySQLConnection struct {
	db     *sql.DB
	logger core.Logger
	closed bool
}

// Open connects to MySQL and verifies the session with a ping.
func Open(ctx context.Context, cfg Config) (*MySQLConnection, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Database
	mc.Timeout = cfg.ConnectionTimeout
	mc.ReadTimeout = cfg.ReadTimeout
	mc.WriteTimeout = cfg.WriteTimeout

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	conn := NewMySQLConnection(sql.OpenDB(connector))
	conn.SetLogger(cfg.Logger)

	if cfg.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectionTimeout)
		defer cancel()
	}
	if err := conn.db.PingContext(ctx); err != nil {
		conn.db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.logger.Printf("[MYSQL] Connected to %s as %s", mc.Addr, cfg.Username)
	return conn, nil
}

// NewMySQLConnection wraps an existing handle, e.g. one created by sqlmock.
func NewMySQLConnection(db *sql.DB) *MySQLConnection {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return &MySQLConnection{
		db:     db,
		logger: log.Default(),
	}
}

// SetLogger replaces the diagnostic logger.
func (m *MySQLConnection) SetLogger(logger core.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Query executes a statement that returns rows and buffers the whole
// result. Cells are kept as raw text; NULL cells are nil.
func (m *MySQLConnection) Query(ctx context.Context, query string) (*core.ResultSet, error) {
	if m.closed {
		return nil, ErrClosed
	}

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		m.logger.Printf("[MYSQL] ERROR: Query failed: %v", err)
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &core.ResultSet{Columns: columns}
	for rows.Next() {
		row := make([][]byte, len(columns))
		dest := make([]any, len(columns))
		for i := range dest {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return result, nil
}

// Exec executes a statement and returns the affected row count.
func (m *MySQLConnection) Exec(ctx context.Context, query string) (int64, error) {
	if m.closed {
		return 0, ErrClosed
	}

	result, err := m.db.ExecContext(ctx, query)
	if err != nil {
		m.logger.Printf("[MYSQL] ERROR: Exec failed: %v", err)
		return 0, fmt.Errorf("failed to execute statement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

// SetAutoCommit toggles autocommit on the session.
func (m *MySQLConnection) SetAutoCommit(ctx context.Context, on bool) error {
	value := "0"
	if on {
		value = "1"
	}
	return m.session(ctx, "set autocommit = "+value)
}

// Commit commits the current transaction.
func (m *MySQLConnection) Commit(ctx context.Context) error {
	return m.session(ctx, "commit")
}

// Rollback rolls back the current transaction.
func (m *MySQLConnection) Rollback(ctx context.Context) error {
	return m.session(ctx, "rollback")
}

// SwitchDB changes the default database of the session.
func (m *MySQLConnection) SwitchDB(ctx context.Context, database string) error {
	if database == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	return m.session(ctx, "use `"+strings.ReplaceAll(database, "`", "``")+"`")
}

func (m *MySQLConnection) session(ctx context.Context, statement string) error {
	if m.closed {
		return ErrClosed
	}
	if _, err := m.db.ExecContext(ctx, statement); err != nil {
		m.logger.Printf("[MYSQL] ERROR: %s failed: %v", statement, err)
		return fmt.Errorf("failed to %s: %w", statement, err)
	}
	return nil
}

// Close closes the database connection.
func (m *MySQLConnection) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

var _ core.Transport = (*MySQLConnection)(nil)

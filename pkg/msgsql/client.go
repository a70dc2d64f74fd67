package msgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rzpsarthak13/msgsql/internal/config"
	"github.com/rzpsarthak13/msgsql/internal/core"
	"github.com/rzpsarthak13/msgsql/internal/database"
	"github.com/rzpsarthak13/msgsql/internal/executor"
	"github.com/rzpsarthak13/msgsql/internal/journal"
	"github.com/rzpsarthak13/msgsql/internal/schema"
)

// Client executes generated statements over a single MySQL session.
// Every call runs synchronously on the caller's goroutine; calls are
// serialized so one session is never used concurrently.
//
// Typical usage:
//
//	cfg, _ := msgsql.LoadConfig("msgsql.yaml")
//	client, _ := msgsql.NewClient(ctx, cfg)
//	defer client.Close()
//
//	gen, _ := client.Generator("payments")
//	client.Insert(ctx, gen, &Payment{ID: &id, Amount: &amount})
//	client.Select(ctx, gen, &Payment{ID: &id})
type Client interface {
	// Select runs the SELECT for msg and fills msg from the result.
	// A batch message receives one element per returned row.
	// Returns ErrKeyNotFound when no row matched.
	Select(ctx context.Context, gen *Generator, msg any) error

	// Insert runs the INSERT for msg.
	Insert(ctx context.Context, gen *Generator, msg any) error

	// UpdateOnInsert runs INSERT ... ON DUPLICATE KEY UPDATE for msg.
	UpdateOnInsert(ctx context.Context, gen *Generator, msg any) error

	// Update runs one UPDATE per row of msg. With autocommit disabled the
	// first failure stops the run and returns ErrRollback.
	Update(ctx context.Context, gen *Generator, msg any) error

	// Delete runs one DELETE per row of msg and stops at the first failure.
	Delete(ctx context.Context, gen *Generator, msg any) error

	// Generator builds a generator from a table binding in the
	// configuration. Unknown names bind to the table of the same name in
	// the configured database.
	Generator(name string, opts ...GeneratorOption) (*Generator, error)

	// SetAutoCommit toggles autocommit on the session.
	SetAutoCommit(ctx context.Context, on bool) error

	// Commit commits the open transaction. No-op under autocommit.
	Commit(ctx context.Context) error

	// Rollback rolls back the open transaction.
	Rollback(ctx context.Context) error

	// SwitchDB changes the session's default database.
	SwitchDB(ctx context.Context, db string) error

	// LastError returns the text of the last error reported by MySQL.
	LastError() string

	// Close closes the session and the journal.
	Close() error
}

// clientWrapper implements Client over an executor and a journal sink.
type clientWrapper struct {
	mu     sync.Mutex
	exec   *executor.Executor
	config *Config
	sink   core.Sink
}

// NewClient creates a client, opens the MySQL session and builds the
// configured journal. When the configuration disables autocommit, the
// session starts inside a transaction.
func NewClient(ctx context.Context, cfg *Config) (Client, error) {
	return newClient(ctx, cfg)
}

func newClient(ctx context.Context, cfg *Config, opts ...executor.Option) (*clientWrapper, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sink, err := journal.Create(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal: %w", err)
	}

	base := []executor.Option{
		executor.WithSink(sink),
		executor.WithStatementRate(cfg.Executor.StatementRate),
	}
	exec := executor.New(append(base, opts...)...)

	if !exec.Connected() {
		err = exec.ConnectConfig(ctx, database.Config{
			Host:              cfg.Database.Host,
			Port:              cfg.Database.Port,
			Username:          cfg.Database.Username,
			Password:          cfg.Database.Password,
			Database:          cfg.Database.Database,
			ConnectionTimeout: cfg.Database.ConnectionTimeout,
			ReadTimeout:       cfg.Database.ReadTimeout,
			WriteTimeout:      cfg.Database.WriteTimeout,
		})
		if err != nil {
			sink.Close()
			return nil, err
		}
	}

	if !cfg.Database.AutoCommit {
		if err := exec.SetAutoCommit(ctx, false); err != nil {
			exec.Close()
			sink.Close()
			return nil, fmt.Errorf("failed to disable autocommit: %w", err)
		}
	}

	return &clientWrapper{
		exec:   exec,
		config: cfg,
		sink:   sink,
	}, nil
}

// Select runs the SELECT for msg and fills msg from the result.
func (cw *clientWrapper) Select(ctx context.Context, gen *Generator, msg any) error {
	m, err := cw.bind(gen, msg)
	if err != nil {
		return err
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.exec.Select(ctx, gen.impl, m)
}

// Insert runs the INSERT for msg.
func (cw *clientWrapper) Insert(ctx context.Context, gen *Generator, msg any) error {
	m, err := cw.bind(gen, msg)
	if err != nil {
		return err
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.exec.Insert(ctx, gen.impl, m)
}

// UpdateOnInsert runs INSERT ... ON DUPLICATE KEY UPDATE for msg.
func (cw *clientWrapper) UpdateOnInsert(ctx context.Context, gen *Generator, msg any) error {
	m, err := cw.bind(gen, msg)
	if err != nil {
		return err
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.exec.UpdateOnInsert(ctx, gen.impl, m)
}

// Update runs one UPDATE per row of msg.
func (cw *clientWrapper) Update(ctx context.Context, gen *Generator, msg any) error {
	m, err := cw.bind(gen, msg)
	if err != nil {
		return err
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.exec.Update(ctx, gen.impl, m)
}

// Delete runs one DELETE per row of msg.
func (cw *clientWrapper) Delete(ctx context.Context, gen *Generator, msg any) error {
	m, err := cw.bind(gen, msg)
	if err != nil {
		return err
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.exec.Delete(ctx, gen.impl, m)
}

// bind resolves msg to its schema. Unusable messages count as generation
// failures so Code reports them like any other conversion error.
func (cw *clientWrapper) bind(gen *Generator, msg any) (core.Message, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator cannot be nil")
	}
	m, err := schema.Reflect(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerateFail, err)
	}
	return m, nil
}

// Generator builds a generator from a configured table binding.
func (cw *clientWrapper) Generator(name string, opts ...GeneratorOption) (*Generator, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("table binding name cannot be empty")
	}
	table, ok := cw.config.Table(name)
	if !ok {
		table = config.TableConfig{Database: cw.config.Database.Database, Table: name}
	}

	if table.Where != "" {
		opts = append([]GeneratorOption{WithWhere(table.Where)}, opts...)
	}
	return NewGenerator(table.Database, table.Table, opts...), nil
}

// SetAutoCommit toggles autocommit on the session.
func (cw *clientWrapper) SetAutoCommit(ctx context.Context, on bool) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.exec.SetAutoCommit(ctx, on)
}

// Commit commits the open transaction.
func (cw *clientWrapper) Commit(ctx context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.exec.Commit(ctx)
}

// Rollback rolls back the open transaction.
func (cw *clientWrapper) Rollback(ctx context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.exec.Rollback(ctx)
}

// SwitchDB changes the session's default database.
func (cw *clientWrapper) SwitchDB(ctx context.Context, db string) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.exec.SwitchDB(ctx, db)
}

// LastError returns the text of the last error reported by MySQL.
func (cw *clientWrapper) LastError() string {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.exec.LastError()
}

// Close closes the session and the journal.
func (cw *clientWrapper) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	var errs []error
	if err := cw.exec.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := cw.sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close journal: %w", err))
	}
	return errors.Join(errs...)
}

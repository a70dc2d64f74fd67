package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/rzpsarthak13/msgsql/internal/core"
	"github.com/rzpsarthak13/msgsql/internal/database"
	"github.com/rzpsarthak13/msgsql/internal/generator"
	"github.com/rzpsarthak13/msgsql/internal/schema"
)

// DialFunc opens a transport for the given connection settings.
type DialFunc func(ctx context.Context, cfg database.Config) (core.Transport, error)

// Executor runs generated statements over one owned connection and
// hydrates messages from SELECT results.
//
// An Executor is not safe for concurrent use.
type Executor struct {
	transport  core.Transport
	dial       DialFunc
	mapper     *schema.TypeMapper
	logger     core.Logger
	sink       core.Sink
	limiter    *rate.Limiter
	autoCommit bool
	lastErr    string
}

// Option configures an Executor.
type Option func(*Executor)

// WithTransport uses an already open transport instead of dialing.
func WithTransport(t core.Transport) Option {
	return func(e *Executor) {
		e.transport = t
	}
}

// WithDialer replaces the function used by Connect.
func WithDialer(dial DialFunc) Option {
	return func(e *Executor) {
		if dial != nil {
			e.dial = dial
		}
	}
}

// WithLogger sets the diagnostic logger. Defaults to the standard logger.
func WithLogger(logger core.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSink sets the journal sink that receives one event per statement.
func WithSink(sink core.Sink) Option {
	return func(e *Executor) {
		e.sink = sink
	}
}

// WithStatementRate caps multi-statement Update and Delete at perSecond
// statements per second. Zero or less disables pacing.
func WithStatementRate(perSecond int) Option {
	return func(e *Executor) {
		if perSecond > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			e.limiter = nil
		}
	}
}

// New creates an executor. It is unconnected unless WithTransport is given.
func New(opts ...Option) *Executor {
	e := &Executor{
		dial:       dialMySQL,
		mapper:     schema.NewTypeMapper(),
		logger:     log.Default(),
		autoCommit: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func dialMySQL(ctx context.Context, cfg database.Config) (core.Transport, error) {
	return database.Open(ctx, cfg)
}

// Connect opens the connection with default timeouts.
func (e *Executor) Connect(ctx context.Context, host string, port int, user, password string) error {
	return e.ConnectConfig(ctx, database.Config{
		Host:              host,
		Port:              port,
		Username:          user,
		Password:          password,
		ConnectionTimeout: 10 * time.Second,
	})
}

// ConnectConfig opens the connection, releasing any previous one.
func (e *Executor) ConnectConfig(ctx context.Context, cfg database.Config) error {
	if e.transport != nil {
		if err := e.transport.Close(); err != nil {
			e.logger.Printf("[EXECUTOR] failed to close previous connection: %v", err)
		}
		e.transport = nil
	}

	if cfg.Logger == nil {
		cfg.Logger = e.logger
	}
	t, err := e.dial(ctx, cfg)
	if err != nil {
		e.lastErr = errorText(err)
		e.logger.Printf("[EXECUTOR] connect to %s:%d failed: %s", cfg.Host, cfg.Port, e.lastErr)
		return fmt.Errorf("failed to connect: %w", err)
	}

	e.transport = t
	e.autoCommit = true
	return nil
}

// Connected reports whether a connection is open.
func (e *Executor) Connected() bool {
	return e.transport != nil
}

// AutoCommit reports the autocommit mode last set on the session.
func (e *Executor) AutoCommit() bool {
	return e.autoCommit
}

// LastError returns the text of the last transport error.
func (e *Executor) LastError() string {
	return e.lastErr
}

// SetAutoCommit toggles autocommit on the session.
func (e *Executor) SetAutoCommit(ctx context.Context, on bool) error {
	if e.transport == nil {
		return ErrNotConnected
	}
	if err := e.transport.SetAutoCommit(ctx, on); err != nil {
		return e.transportError("set autocommit", err)
	}
	e.autoCommit = on
	return nil
}

// Commit commits the current transaction. It is a no-op under autocommit.
func (e *Executor) Commit(ctx context.Context) error {
	if e.autoCommit {
		return nil
	}
	if e.transport == nil {
		return ErrNotConnected
	}
	if err := e.transport.Commit(ctx); err != nil {
		return e.transportError("commit", err)
	}
	return nil
}

// Rollback rolls back the current transaction.
func (e *Executor) Rollback(ctx context.Context) error {
	if e.transport == nil {
		return ErrNotConnected
	}
	if err := e.transport.Rollback(ctx); err != nil {
		return e.transportError("rollback", err)
	}
	return nil
}

// SwitchDB changes the default database of the session.
func (e *Executor) SwitchDB(ctx context.Context, db string) error {
	if e.transport == nil {
		return ErrNotConnected
	}
	if err := e.transport.SwitchDB(ctx, db); err != nil {
		return e.transportError("switch database", err)
	}
	return nil
}

// Close releases the connection.
func (e *Executor) Close() error {
	if e.transport == nil {
		return nil
	}
	err := e.transport.Close()
	e.transport = nil
	if err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (e *Executor) transportError(action string, err error) error {
	e.lastErr = errorText(err)
	e.logger.Printf("[EXECUTOR] %s failed: %s", action, e.lastErr)
	return err
}

// generateError converts a generator error into ErrGenerateEmpty or
// ErrGenerateFail and records it.
func (e *Executor) generateError(ctx context.Context, gen *generator.Generator, op core.OperationType, err error) error {
	if errors.Is(err, generator.ErrEmpty) {
		e.emit(ctx, gen, &core.Event{Type: core.EventGenerateEmpty, Operation: op, Error: err.Error()})
		return fmt.Errorf("%w: %w", ErrGenerateEmpty, err)
	}
	e.logger.Printf("[EXECUTOR] generate %s sql for %s failed: %v", op, gen.Qualified(), err)
	e.emit(ctx, gen, &core.Event{Type: core.EventGenerateFail, Operation: op, Error: err.Error()})
	return fmt.Errorf("%w: %w", ErrGenerateFail, err)
}

// queryError records a statement the store rejected.
func (e *Executor) queryError(ctx context.Context, gen *generator.Generator, op core.OperationType, sql string, err error) error {
	e.lastErr = errorText(err)
	e.logger.Printf("[EXECUTOR] %s failed: %s, sql: %s", op, e.lastErr, sql)
	e.emit(ctx, gen, &core.Event{Type: core.EventQueryError, Operation: op, SQL: sql, Error: e.lastErr})
	return err
}

// emit hands an event to the sink. Sink failures are logged only.
func (e *Executor) emit(ctx context.Context, gen *generator.Generator, event *core.Event) {
	if e.sink == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Database = gen.Database()
	event.Table = gen.Table()
	event.Timestamp = time.Now()
	if err := e.sink.Emit(ctx, event); err != nil {
		e.logger.Printf("[EXECUTOR] journal emit failed: %v", err)
	}
}

// pace blocks until the statement limiter admits the next statement.
func (e *Executor) pace(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for statement rate limiter: %w", err)
	}
	return nil
}

package generator

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/rzpsarthak13/msgsql/internal/core"
	"github.com/rzpsarthak13/msgsql/internal/schema"
)

// ErrEmpty is returned when a message yields no statement. The wrapped
// reason tells which rule stopped generation.
var ErrEmpty = errors.New("sql generate empty")

// Generator builds MySQL statements for one table from messages.
// A Generator is immutable after New and safe for concurrent use.
type Generator struct {
	database string
	table    string
	where    string
	mapper   *schema.TypeMapper
	logger   core.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithWhere sets a raw predicate that replaces every generated condition.
// It is used verbatim after trimming, so it must start with "where" when a
// WHERE clause is intended.
func WithWhere(predicate string) Option {
	return func(g *Generator) {
		g.where = predicate
	}
}

// WithLogger sets the diagnostic logger. Defaults to the standard logger.
func WithLogger(logger core.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a generator for database.table.
func New(database, table string, opts ...Option) *Generator {
	g := &Generator{
		database: database,
		table:    table,
		mapper:   schema.NewTypeMapper(),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.where = TrimPredicate(g.where)
	return g
}

// TrimPredicate removes leading and trailing spaces and tabs. Other
// whitespace is kept.
func TrimPredicate(s string) string {
	return strings.Trim(s, " \t")
}

// Database returns the target database name.
func (g *Generator) Database() string {
	return g.database
}

// Table returns the target table name.
func (g *Generator) Table() string {
	return g.table
}

// Where returns the trimmed raw predicate, empty when unset.
func (g *Generator) Where() string {
	return g.where
}

// Qualified returns the table reference used in statements.
func (g *Generator) Qualified() string {
	if g.database == "" {
		return g.table
	}
	return g.database + "." + g.table
}

// appendWhere writes the raw predicate if set, otherwise the joined
// conditions behind "where". Nothing is written when both are empty.
func (g *Generator) appendWhere(b *strings.Builder, conds []string) {
	if g.where != "" {
		b.WriteString(" ")
		b.WriteString(g.where)
		return
	}
	if len(conds) > 0 {
		b.WriteString(" where ")
		b.WriteString(strings.Join(conds, " and "))
	}
}

func (g *Generator) empty(op core.OperationType, format string, args ...any) error {
	reason := fmt.Sprintf(format, args...)
	g.logger.Printf("[GENERATOR] generate %s sql for %s empty: %s", op, g.Qualified(), reason)
	return fmt.Errorf("%w: %s", ErrEmpty, reason)
}

func (g *Generator) violation(op core.OperationType, err error) error {
	g.logger.Printf("[GENERATOR] generate %s sql for %s empty: %v", op, g.Qualified(), err)
	return fmt.Errorf("%w: %w", ErrEmpty, err)
}

func (g *Generator) emitted(sql string) string {
	g.logger.Printf("[GENERATOR] %s", sql)
	return sql
}

// batchRows returns the rows of a batch message, failing when there are none.
func (g *Generator) batchRows(op core.OperationType, m core.Message) (core.RepeatedField, error) {
	_, rows, err := schema.BatchRows(m)
	if err != nil {
		return nil, g.violation(op, err)
	}
	if rows.Len() == 0 {
		return nil, g.empty(op, "%s holds no rows", m.Schema().Name())
	}
	return rows, nil
}

func isEmpty(err error) bool {
	return errors.Is(err, ErrEmpty)
}

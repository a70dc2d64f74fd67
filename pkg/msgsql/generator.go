package msgsql

import (
	"github.com/rzpsarthak13/msgsql/internal/core"
	"github.com/rzpsarthak13/msgsql/internal/generator"
	"github.com/rzpsarthak13/msgsql/internal/schema"
)

// Logger receives diagnostic output. *log.Logger satisfies it.
type Logger = core.Logger

// Generator builds MySQL statements for one table from tagged structs.
// It performs no I/O; use it directly to inspect SQL or pass it to a
// Client to execute.
//
// A message is a pointer to a struct whose fields carry msgsql tags:
//
//	type Payment struct {
//		ID     *int64  `msgsql:"id,primarykey,updatekey"`
//		Amount *int64  `msgsql:"amount"`
//		Note   *string `msgsql:"note"`
//	}
//
// A struct with exactly one field that is a slice of such structs is a
// batch and produces statements for every element.
type Generator struct {
	impl *generator.Generator
}

// GeneratorOption configures a Generator.
type GeneratorOption = generator.Option

// WithWhere sets a raw predicate used instead of the key-derived WHERE
// clause. Leading and trailing spaces and tabs are trimmed.
func WithWhere(predicate string) GeneratorOption {
	return generator.WithWhere(predicate)
}

// WithLogger sets the generator's diagnostic logger.
func WithLogger(logger Logger) GeneratorOption {
	return generator.WithLogger(logger)
}

// NewGenerator creates a generator for database.table. An empty database
// targets the session's default database.
func NewGenerator(database, table string, opts ...GeneratorOption) *Generator {
	return &Generator{impl: generator.New(database, table, opts...)}
}

// Database returns the target database.
func (g *Generator) Database() string {
	return g.impl.Database()
}

// Table returns the target table.
func (g *Generator) Table() string {
	return g.impl.Table()
}

// Where returns the trimmed raw predicate.
func (g *Generator) Where() string {
	return g.impl.Where()
}

// Select returns the SELECT statement for msg.
func (g *Generator) Select(msg any) (string, error) {
	m, err := schema.Reflect(msg)
	if err != nil {
		return "", err
	}
	return g.impl.Select(m)
}

// Insert returns the INSERT statement for msg.
func (g *Generator) Insert(msg any) (string, error) {
	m, err := schema.Reflect(msg)
	if err != nil {
		return "", err
	}
	return g.impl.Insert(m)
}

// UpdateOnInsert returns the INSERT ... ON DUPLICATE KEY UPDATE statement
// for msg.
func (g *Generator) UpdateOnInsert(msg any) (string, error) {
	m, err := schema.Reflect(msg)
	if err != nil {
		return "", err
	}
	return g.impl.UpdateOnInsert(m)
}

// Update returns one UPDATE statement per row of msg.
func (g *Generator) Update(msg any) ([]string, error) {
	m, err := schema.Reflect(msg)
	if err != nil {
		return nil, err
	}
	return g.impl.Update(m)
}

// Delete returns one DELETE statement per row of msg.
func (g *Generator) Delete(msg any) ([]string, error) {
	m, err := schema.Reflect(msg)
	if err != nil {
		return nil, err
	}
	return g.impl.Delete(m)
}

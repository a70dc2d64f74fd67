package generator

import (
	"strings"

	"github.com/rzpsarthak13/msgsql/internal/core"
	"github.com/rzpsarthak13/msgsql/internal/schema"
)

// Insert builds an INSERT. For a single-row message only set fields are
// written. For a batch message every field of every row is written, with
// the column list taken from the first row.
func (g *Generator) Insert(m core.Message) (string, error) {
	if schema.Classify(m.Schema()) == schema.ShapeBatch {
		return g.insertRows(m)
	}
	return g.insertRow(m, core.OperationInsert)
}

// UpdateOnInsert builds a single-row INSERT that updates every set
// non-primary-key field when the row already exists. Batch messages are
// rejected.
func (g *Generator) UpdateOnInsert(m core.Message) (string, error) {
	return g.insertRow(m, core.OperationUpsert)
}

func (g *Generator) insertRow(m core.Message, op core.OperationType) (string, error) {
	if err := schema.ValidateSingle(m.Schema()); err != nil {
		return "", g.violation(op, err)
	}

	var columns, values, updates []string
	for _, f := range m.Schema().Fields() {
		if !m.Has(f) {
			continue
		}
		value, err := g.mapper.Encode(m, f)
		if err != nil {
			return "", err
		}
		columns = append(columns, f.Name)
		values = append(values, value)
		if op == core.OperationUpsert && !f.PrimaryKey {
			updates = append(updates, f.Name+" = "+value)
		}
	}

	if len(columns) == 0 {
		return "", g.empty(op, "no field of %s is set", m.Schema().Name())
	}

	var b strings.Builder
	b.WriteString("insert into ")
	b.WriteString(g.Qualified())
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") values (")
	b.WriteString(strings.Join(values, ", "))
	b.WriteString(")")

	if len(updates) > 0 {
		b.WriteString(" on duplicate key update ")
		b.WriteString(strings.Join(updates, ", "))
	} else if op == core.OperationUpsert {
		g.logger.Printf("[GENERATOR] upsert on %s sets only primary key fields, emitting a plain insert", g.Qualified())
	}

	return g.emitted(b.String()), nil
}

func (g *Generator) insertRows(m core.Message) (string, error) {
	rows, err := g.batchRows(core.OperationInsert, m)
	if err != nil {
		return "", err
	}

	first := rows.At(0)
	if err := schema.ValidateSingle(first.Schema()); err != nil {
		return "", g.violation(core.OperationInsert, err)
	}

	fields := first.Schema().Fields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	tuples := make([]string, 0, rows.Len())
	values := make([]string, len(fields))
	for i := 0; i < rows.Len(); i++ {
		row := rows.At(i)
		for j, f := range fields {
			value, err := g.mapper.Encode(row, f)
			if err != nil {
				return "", err
			}
			values[j] = value
		}
		tuples = append(tuples, "("+strings.Join(values, ", ")+")")
	}

	var b strings.Builder
	b.WriteString("insert into ")
	b.WriteString(g.Qualified())
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") values ")
	b.WriteString(strings.Join(tuples, ", "))

	return g.emitted(b.String()), nil
}

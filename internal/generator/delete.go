package generator

import (
	"strings"

	"github.com/rzpsarthak13/msgsql/internal/core"
	"github.com/rzpsarthak13/msgsql/internal/schema"
)

// Delete builds one DELETE per row, conditioned on every set field or on
// the raw predicate. For a batch message rows with no set field are
// skipped.
func (g *Generator) Delete(m core.Message) ([]string, error) {
	if schema.Classify(m.Schema()) != schema.ShapeBatch {
		sql, err := g.deleteRow(m)
		if err != nil {
			return nil, err
		}
		return []string{sql}, nil
	}

	rows, err := g.batchRows(core.OperationDelete, m)
	if err != nil {
		return nil, err
	}

	statements := make([]string, 0, rows.Len())
	for i := 0; i < rows.Len(); i++ {
		sql, err := g.deleteRow(rows.At(i))
		if isEmpty(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		statements = append(statements, sql)
	}
	return statements, nil
}

func (g *Generator) deleteRow(m core.Message) (string, error) {
	var conds []string

	if g.where == "" {
		if err := schema.ValidateSingle(m.Schema()); err != nil {
			return "", g.violation(core.OperationDelete, err)
		}
		for _, f := range m.Schema().Fields() {
			if !m.Has(f) {
				continue
			}
			value, err := g.mapper.Encode(m, f)
			if err != nil {
				return "", err
			}
			conds = append(conds, f.Name+" = "+value)
		}
		if len(conds) == 0 {
			return "", g.empty(core.OperationDelete, "no field of %s is set", m.Schema().Name())
		}
	}

	var b strings.Builder
	b.WriteString("delete from ")
	b.WriteString(g.Qualified())
	g.appendWhere(&b, conds)

	return g.emitted(b.String()), nil
}

package generator

import (
	"strings"

	"github.com/rzpsarthak13/msgsql/internal/core"
	"github.com/rzpsarthak13/msgsql/internal/schema"
)

// Select builds a SELECT whose column list is the unset fields of m and
// whose conditions are the set fields. When no field is set every field is
// selected. A batch message uses its first row as the filter.
func (g *Generator) Select(m core.Message) (string, error) {
	if schema.Classify(m.Schema()) == schema.ShapeBatch {
		rows, err := g.batchRows(core.OperationSelect, m)
		if err != nil {
			return "", err
		}
		if rows.Len() > 1 {
			g.logger.Printf("[GENERATOR] select on %s holds %d rows, filtering by the first", g.Qualified(), rows.Len())
		}
		return g.selectRow(rows.At(0))
	}
	return g.selectRow(m)
}

func (g *Generator) selectRow(m core.Message) (string, error) {
	if err := schema.ValidateSingle(m.Schema()); err != nil {
		return "", g.violation(core.OperationSelect, err)
	}

	sql, unset, err := g.buildSelect(m, false)
	if err != nil {
		return "", err
	}

	switch unset {
	case len(m.Schema().Fields()):
		if sql, _, err = g.buildSelect(m, true); err != nil {
			return "", err
		}
	case 0:
		return "", g.empty(core.OperationSelect, "every field of %s is set, no column left to select", m.Schema().Name())
	}

	return g.emitted(sql), nil
}

// buildSelect returns the statement and the number of unset fields.
func (g *Generator) buildSelect(m core.Message, selectAll bool) (string, int, error) {
	var columns, conds []string
	unset := 0

	for _, f := range m.Schema().Fields() {
		has := m.Has(f)
		if selectAll || !has {
			columns = append(columns, f.Name)
		}
		if !has {
			unset++
			continue
		}
		if g.where != "" {
			continue
		}
		value, err := g.mapper.Encode(m, f)
		if err != nil {
			return "", 0, err
		}
		conds = append(conds, f.Name+" = "+value)
	}

	var b strings.Builder
	b.WriteString("select ")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(" from ")
	b.WriteString(g.Qualified())
	g.appendWhere(&b, conds)
	return b.String(), unset, nil
}

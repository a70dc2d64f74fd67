package generator

import (
	"strings"

	"github.com/rzpsarthak13/msgsql/internal/core"
	"github.com/rzpsarthak13/msgsql/internal/schema"
)

// Update builds one UPDATE per row. Set update-key fields become the
// conditions and the other set fields the assignments. With a raw
// predicate the update-key fields are assigned like any other field.
//
// For a batch message rows that yield nothing are skipped; the returned
// list may be shorter than the row count.
func (g *Generator) Update(m core.Message) ([]string, error) {
	if schema.Classify(m.Schema()) != schema.ShapeBatch {
		sql, err := g.updateRow(m)
		if err != nil {
			return nil, err
		}
		return []string{sql}, nil
	}

	rows, err := g.batchRows(core.OperationUpdate, m)
	if err != nil {
		return nil, err
	}

	statements := make([]string, 0, rows.Len())
	for i := 0; i < rows.Len(); i++ {
		sql, err := g.updateRow(rows.At(i))
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

func (g *Generator) updateRow(m core.Message) (string, error) {
	if err := schema.ValidateSingle(m.Schema()); err != nil {
		return "", g.violation(core.OperationUpdate, err)
	}

	var sets, conds []string
	hasUpdateKey := false

	for _, f := range m.Schema().Fields() {
		if !m.Has(f) {
			if f.UpdateKey && g.where == "" {
				return "", g.empty(core.OperationUpdate, "update key %q of %s is not set", f.Name, m.Schema().Name())
			}
			continue
		}

		value, err := g.mapper.Encode(m, f)
		if err != nil {
			return "", err
		}

		if f.UpdateKey && g.where == "" {
			hasUpdateKey = true
			conds = append(conds, f.Name+" = "+value)
			continue
		}
		sets = append(sets, f.Name+" = "+value)
	}

	if !hasUpdateKey && g.where == "" {
		return "", g.empty(core.OperationUpdate, "%s sets no update key and no where predicate is configured", m.Schema().Name())
	}
	if len(sets) == 0 {
		return "", g.empty(core.OperationUpdate, "%s sets no field to update", m.Schema().Name())
	}

	var b strings.Builder
	b.WriteString("update ")
	b.WriteString(g.Qualified())
	b.WriteString(" set ")
	b.WriteString(strings.Join(sets, ", "))
	// conds or g.where is non-empty here, so an update is always scoped
	g.appendWhere(&b, conds)

	return g.emitted(b.String()), nil
}

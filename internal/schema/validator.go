package schema

import (
	"fmt"

	"github.com/rzpsarthak13/msgsql/internal/core"
)

// RowShape tells whether a message stands for one row or a list of rows.
type RowShape int

const (
	// ShapeSingle is a message whose fields are the columns of one row.
	ShapeSingle RowShape = iota

	// ShapeBatch is a message with exactly one field, a repeated
	// sub-message, whose elements are the rows.
	ShapeBatch
)

// String returns the shape name.
func (s RowShape) String() string {
	if s == ShapeBatch {
		return "batch"
	}
	return "single"
}

// Classify returns the row shape of a schema.
func Classify(s core.Schema) RowShape {
	fields := s.Fields()
	if len(fields) == 1 && fields[0].Repeated && fields[0].Kind == core.KindMessage {
		return ShapeBatch
	}
	return ShapeSingle
}

// BatchRows returns the repeated field and its rows for a batch message.
func BatchRows(m core.Message) (*core.Field, core.RepeatedField, error) {
	if Classify(m.Schema()) != ShapeBatch {
		return nil, nil, fmt.Errorf("%w: %s is not a batch message", ErrSchemaViolation, m.Schema().Name())
	}
	f := m.Schema().Fields()[0]
	rows := m.Repeated(f)
	if rows == nil {
		return nil, nil, fmt.Errorf("%w: field %q has no rows", ErrSchemaViolation, f.Name)
	}
	return f, rows, nil
}

// ValidateSingle checks that a schema can stand for one row: it must have
// at least one field and none of them may be repeated.
func ValidateSingle(s core.Schema) error {
	fields := s.Fields()
	if len(fields) == 0 {
		return fmt.Errorf("%w: %s has no fields", ErrSchemaViolation, s.Name())
	}
	for _, f := range fields {
		if f.Repeated {
			return fmt.Errorf("%w: field %q of %s is repeated", ErrSchemaViolation, f.Name, s.Name())
		}
	}
	return nil
}

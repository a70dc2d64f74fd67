package schema

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rzpsarthak13/msgsql/internal/core"
)

// TypeMapper handles mapping between field values and their SQL text form.
type TypeMapper struct{}

// NewTypeMapper creates a new type mapper.
func NewTypeMapper() *TypeMapper {
	return &TypeMapper{}
}

// Encode renders the current value of a non-repeated field as a SQL
// literal. Numbers render as decimal text, booleans as 1 or 0, enums as
// their number. Strings, bytes and nested messages render as escaped,
// single-quoted literals; nested messages are serialized first.
func (tm *TypeMapper) Encode(m core.Message, f *core.Field) (string, error) {
	if f.Repeated {
		return "", fmt.Errorf("%w: field %q is repeated", ErrSchemaViolation, f.Name)
	}

	switch f.Kind {
	case core.KindInt32, core.KindInt64, core.KindEnum:
		n, ok := m.Get(f).(int64)
		if !ok {
			return "", encodeError(f)
		}
		return strconv.FormatInt(n, 10), nil

	case core.KindUint32, core.KindUint64:
		n, ok := m.Get(f).(uint64)
		if !ok {
			return "", encodeError(f)
		}
		return strconv.FormatUint(n, 10), nil

	case core.KindFloat, core.KindDouble:
		n, ok := m.Get(f).(float64)
		if !ok {
			return "", encodeError(f)
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "", fmt.Errorf("%w: field %q holds non-finite value %v", ErrValueConversion, f.Name, n)
		}
		bits := 64
		if f.Kind == core.KindFloat {
			bits = 32
		}
		return strconv.FormatFloat(n, 'g', -1, bits), nil

	case core.KindBool:
		b, ok := m.Get(f).(bool)
		if !ok {
			return "", encodeError(f)
		}
		if b {
			return "1", nil
		}
		return "0", nil

	case core.KindString:
		s, ok := m.Get(f).(string)
		if !ok {
			return "", encodeError(f)
		}
		return quote(EscapeString(s)), nil

	case core.KindBytes:
		b, ok := m.Get(f).([]byte)
		if !ok {
			return "", encodeError(f)
		}
		return quote(EscapeString(string(b))), nil

	case core.KindMessage:
		data, err := m.MarshalField(f)
		if err != nil {
			return "", err
		}
		return quote(EscapeString(string(data))), nil
	}

	return "", fmt.Errorf("%w: field %q has unknown kind %d", ErrValueConversion, f.Name, f.Kind)
}

// Decode parses raw cell text into field f of m.
func (tm *TypeMapper) Decode(m core.Message, f *core.Field, raw []byte) error {
	text := string(raw)

	switch f.Kind {
	case core.KindInt32, core.KindEnum:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return decodeError(f, text, err)
		}
		return m.Set(f, n)

	case core.KindInt64:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return decodeError(f, text, err)
		}
		return m.Set(f, n)

	case core.KindUint32:
		n, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return decodeError(f, text, err)
		}
		return m.Set(f, n)

	case core.KindUint64:
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return decodeError(f, text, err)
		}
		return m.Set(f, n)

	case core.KindFloat, core.KindDouble:
		bits := 64
		if f.Kind == core.KindFloat {
			bits = 32
		}
		n, err := strconv.ParseFloat(text, bits)
		if err != nil {
			return decodeError(f, text, err)
		}
		return m.Set(f, n)

	case core.KindBool:
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return m.Set(f, n != 0)
		}
		b, err := strconv.ParseBool(text)
		if err != nil {
			return decodeError(f, text, err)
		}
		return m.Set(f, b)

	case core.KindString:
		return m.Set(f, text)

	case core.KindBytes:
		return m.Set(f, append([]byte{}, raw...))

	case core.KindMessage:
		return m.UnmarshalField(f, raw)
	}

	return fmt.Errorf("%w: field %q has unknown kind %d", ErrValueConversion, f.Name, f.Kind)
}

// ApplyColumn stores one result cell into the field mapped to column.
// Unknown columns, repeated fields and NULL cells are skipped.
func (tm *TypeMapper) ApplyColumn(m core.Message, column string, raw []byte) error {
	f := m.Schema().FieldByName(column)
	if f == nil || f.Repeated || raw == nil {
		return nil
	}
	return tm.Decode(m, f, raw)
}

func encodeError(f *core.Field) error {
	return fmt.Errorf("%w: field %q does not hold a %s value", ErrValueConversion, f.Name, f.Kind)
}

func decodeError(f *core.Field, text string, err error) error {
	return fmt.Errorf("%w: cannot parse %q as %s for field %q: %w", ErrValueConversion, text, f.Kind, f.Name, err)
}

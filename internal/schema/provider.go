package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-openapi/inflect"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rzpsarthak13/msgsql/internal/core"
)

var (
	// ErrNotStruct is returned when a value cannot be bound to a schema.
	ErrNotStruct = errors.New("message must be a non-nil pointer to a struct")

	// ErrUnsupportedField is returned for struct fields with no column mapping.
	ErrUnsupportedField = errors.New("unsupported field type")

	// ErrValueConversion is returned when a value cannot be converted
	// between its field kind and its SQL text form.
	ErrValueConversion = errors.New("value conversion failed")

	// ErrSchemaViolation is returned when a message shape does not fit
	// the statement being built.
	ErrSchemaViolation = errors.New("schema violation")
)

// TagName is the struct tag key read by the provider.
//
// The tag value is a column name followed by options:
//
//	KeyID *int32  `msgsql:"keyid,primarykey,updatekey"`
//	State *Status `msgsql:"state,enum"`
//	Debug string  `msgsql:"-"`
//
// An empty name defaults to the snake_case form of the Go field name.
// Scalar and nested message fields must be pointers, nil meaning unset;
// byte slices and repeated fields are unset when nil.
const TagName = "msgsql"

// fieldInfo is the reflection binding of one schema field.
type fieldInfo struct {
	index   int          // struct field index
	pointer bool         // field (or repeated element) is held through a pointer
	elem    reflect.Type // nested or repeated element struct type
}

// structSchema is the schema of a tagged Go struct type.
type structSchema struct {
	typ    reflect.Type
	fields []*core.Field
	infos  []fieldInfo
	byName map[string]*core.Field
}

var schemaCache sync.Map // reflect.Type -> *structSchema

var stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

// Reflect binds v to its schema. v must be a non-nil pointer to a struct,
// or a value that already implements core.Message, which is returned as is.
func Reflect(v any) (core.Message, error) {
	if m, ok := v.(core.Message); ok {
		return m, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %T", ErrNotStruct, v)
	}

	s, err := schemaOf(rv.Elem().Type())
	if err != nil {
		return nil, err
	}
	return &structMessage{schema: s, v: rv.Elem()}, nil
}

func schemaOf(t reflect.Type) (*structSchema, error) {
	if cached, ok := schemaCache.Load(t); ok {
		return cached.(*structSchema), nil
	}

	s, err := buildSchema(t)
	if err != nil {
		return nil, err
	}

	actual, _ := schemaCache.LoadOrStore(t, s)
	return actual.(*structSchema), nil
}

func buildSchema(t reflect.Type) (*structSchema, error) {
	s := &structSchema{
		typ:    t,
		byName: make(map[string]*core.Field),
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get(TagName)
		if tag == "-" {
			continue
		}

		name, opts := parseTag(tag)
		if name == "" {
			name = inflect.Underscore(sf.Name)
		}
		if _, dup := s.byName[name]; dup {
			return nil, fmt.Errorf("%w: %s has duplicate column %q", ErrUnsupportedField, t, name)
		}

		field := &core.Field{
			Name:       name,
			PrimaryKey: opts["primarykey"],
			UpdateKey:  opts["updatekey"],
			Index:      len(s.fields),
		}

		info, err := bindField(field, sf.Type, opts["enum"])
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t, sf.Name, err)
		}
		info.index = i

		s.fields = append(s.fields, field)
		s.infos = append(s.infos, info)
		s.byName[name] = field
	}

	return s, nil
}

func parseTag(tag string) (string, map[string]bool) {
	parts := strings.Split(tag, ",")
	opts := make(map[string]bool, len(parts))
	for _, p := range parts[1:] {
		if p = strings.TrimSpace(p); p != "" {
			opts[strings.ToLower(p)] = true
		}
	}
	return strings.TrimSpace(parts[0]), opts
}

// bindField fills in the kind and repetition of field from the Go type.
func bindField(field *core.Field, t reflect.Type, enum bool) (fieldInfo, error) {
	var info fieldInfo

	switch {
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		field.Kind = core.KindBytes
		return info, nil

	case t.Kind() == reflect.Slice:
		field.Repeated = true
		elem := t.Elem()
		if elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
			info.pointer = true
		}
		if elem.Kind() == reflect.Struct {
			field.Kind = core.KindMessage
			info.elem = elem
			return info, checkRowFields(elem)
		}
		kind, err := scalarKind(elem, enum)
		field.Kind = kind
		return info, err

	case t.Kind() == reflect.Pointer:
		info.pointer = true
		t = t.Elem()

	default:
		// A value field cannot tell an explicit zero from unset.
		if t.Kind() != reflect.Struct {
			if _, err := scalarKind(t, enum); err != nil {
				return info, err
			}
		}
		return info, fmt.Errorf("%w: %s has no presence, use *%s", ErrUnsupportedField, t, t)
	}

	if t.Kind() == reflect.Struct {
		field.Kind = core.KindMessage
		info.elem = t
		return info, nil
	}

	kind, err := scalarKind(t, enum)
	field.Kind = kind
	return info, err
}

// checkRowFields binds the direct fields of a row type so a row without
// presence fails when its batch is bound. Slices are checked when the row
// schema itself is built.
func checkRowFields(t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get(TagName)
		if !sf.IsExported() || tag == "-" || sf.Type.Kind() == reflect.Slice {
			continue
		}
		_, opts := parseTag(tag)
		if _, err := bindField(&core.Field{}, sf.Type, opts["enum"]); err != nil {
			return fmt.Errorf("row field %s.%s: %w", t, sf.Name, err)
		}
	}
	return nil
}

func scalarKind(t reflect.Type, enum bool) (core.Kind, error) {
	switch t.Kind() {
	case reflect.Bool:
		return core.KindBool, nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int, reflect.Int64:
		if enum || t.Implements(stringerType) || reflect.PointerTo(t).Implements(stringerType) {
			return core.KindEnum, nil
		}
		if t.Bits() <= 32 {
			return core.KindInt32, nil
		}
		return core.KindInt64, nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint, reflect.Uint64:
		if t.Bits() <= 32 {
			return core.KindUint32, nil
		}
		return core.KindUint64, nil
	case reflect.Float32:
		return core.KindFloat, nil
	case reflect.Float64:
		return core.KindDouble, nil
	case reflect.String:
		return core.KindString, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedField, t)
	}
}

// Name implements core.Schema.
func (s *structSchema) Name() string {
	return s.typ.Name()
}

// Fields implements core.Schema.
func (s *structSchema) Fields() []*core.Field {
	return s.fields
}

// FieldByName implements core.Schema.
func (s *structSchema) FieldByName(name string) *core.Field {
	return s.byName[name]
}

// info returns the binding of f, accepting fields of an equal schema that
// were looked up elsewhere.
func (s *structSchema) info(f *core.Field) (fieldInfo, bool) {
	if f == nil {
		return fieldInfo{}, false
	}
	if f.Index >= 0 && f.Index < len(s.fields) && s.fields[f.Index] == f {
		return s.infos[f.Index], true
	}
	if own, ok := s.byName[f.Name]; ok {
		return s.infos[own.Index], true
	}
	return fieldInfo{}, false
}

// structMessage adapts an addressable struct value to core.Message.
type structMessage struct {
	schema *structSchema
	v      reflect.Value
}

// Schema implements core.Message.
func (m *structMessage) Schema() core.Schema {
	return m.schema
}

func (m *structMessage) field(f *core.Field) (reflect.Value, fieldInfo, bool) {
	info, ok := m.schema.info(f)
	if !ok {
		return reflect.Value{}, info, false
	}
	return m.v.Field(info.index), info, true
}

// Has implements core.Message. Every bound field is a pointer or a slice,
// so a field is present exactly when it is non-nil.
func (m *structMessage) Has(f *core.Field) bool {
	fv, _, ok := m.field(f)
	if !ok {
		return false
	}
	return !fv.IsNil()
}

// Get implements core.Message.
func (m *structMessage) Get(f *core.Field) any {
	fv, info, ok := m.field(f)
	if !ok || f.Repeated {
		return nil
	}

	if info.pointer {
		if fv.IsNil() {
			if f.Kind == core.KindMessage {
				return nil
			}
			fv = reflect.Zero(fv.Type().Elem())
		} else {
			fv = fv.Elem()
		}
	}

	switch f.Kind {
	case core.KindInt32, core.KindInt64, core.KindEnum:
		return fv.Int()
	case core.KindUint32, core.KindUint64:
		return fv.Uint()
	case core.KindFloat, core.KindDouble:
		return fv.Float()
	case core.KindBool:
		return fv.Bool()
	case core.KindString:
		return fv.String()
	case core.KindBytes:
		return fv.Bytes()
	case core.KindMessage:
		nested, err := schemaOf(info.elem)
		if err != nil {
			return nil
		}
		return &structMessage{schema: nested, v: fv}
	}
	return nil
}

// Set implements core.Message.
func (m *structMessage) Set(f *core.Field, v any) error {
	fv, info, ok := m.field(f)
	if !ok {
		return fmt.Errorf("%w: unknown field %q", ErrSchemaViolation, fieldName(f))
	}
	if f.Repeated || f.Kind == core.KindMessage {
		return fmt.Errorf("%w: field %q cannot be set from a scalar", ErrSchemaViolation, f.Name)
	}

	typ := fv.Type()
	if info.pointer {
		typ = typ.Elem()
	}
	value := reflect.New(typ).Elem()

	switch f.Kind {
	case core.KindInt32, core.KindInt64, core.KindEnum:
		n, ok := v.(int64)
		if !ok || value.OverflowInt(n) {
			return conversionError(f, v)
		}
		value.SetInt(n)
	case core.KindUint32, core.KindUint64:
		n, ok := v.(uint64)
		if !ok || value.OverflowUint(n) {
			return conversionError(f, v)
		}
		value.SetUint(n)
	case core.KindFloat, core.KindDouble:
		n, ok := v.(float64)
		if !ok || value.OverflowFloat(n) {
			return conversionError(f, v)
		}
		value.SetFloat(n)
	case core.KindBool:
		b, ok := v.(bool)
		if !ok {
			return conversionError(f, v)
		}
		value.SetBool(b)
	case core.KindString:
		s, ok := v.(string)
		if !ok {
			return conversionError(f, v)
		}
		value.SetString(s)
	case core.KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return conversionError(f, v)
		}
		value.SetBytes(append([]byte{}, b...))
	default:
		return conversionError(f, v)
	}

	if info.pointer {
		ptr := reflect.New(typ)
		ptr.Elem().Set(value)
		fv.Set(ptr)
		return nil
	}
	fv.Set(value)
	return nil
}

// Clear implements core.Message.
func (m *structMessage) Clear() {
	m.v.Set(reflect.Zero(m.v.Type()))
}

// Repeated implements core.Message.
func (m *structMessage) Repeated(f *core.Field) core.RepeatedField {
	fv, info, ok := m.field(f)
	if !ok || !f.Repeated || f.Kind != core.KindMessage {
		return nil
	}
	nested, err := schemaOf(info.elem)
	if err != nil {
		return nil
	}
	return &repeatedField{slice: fv, pointer: info.pointer, schema: nested}
}

// MarshalField implements core.Message using msgpack as the binary form.
func (m *structMessage) MarshalField(f *core.Field) ([]byte, error) {
	fv, info, ok := m.field(f)
	if !ok || f.Kind != core.KindMessage || f.Repeated {
		return nil, fmt.Errorf("%w: field %q is not a nested message", ErrSchemaViolation, fieldName(f))
	}

	if info.pointer {
		if fv.IsNil() {
			fv = reflect.New(info.elem).Elem()
		} else {
			fv = fv.Elem()
		}
	}

	data, err := msgpack.Marshal(fv.Interface())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to serialize %q: %w", ErrValueConversion, f.Name, err)
	}
	return data, nil
}

// UnmarshalField implements core.Message.
func (m *structMessage) UnmarshalField(f *core.Field, data []byte) error {
	fv, info, ok := m.field(f)
	if !ok || f.Kind != core.KindMessage || f.Repeated {
		return fmt.Errorf("%w: field %q is not a nested message", ErrSchemaViolation, fieldName(f))
	}

	fresh := reflect.New(info.elem)
	if err := msgpack.Unmarshal(data, fresh.Interface()); err != nil {
		return fmt.Errorf("%w: failed to parse %q: %w", ErrValueConversion, f.Name, err)
	}

	if info.pointer {
		fv.Set(fresh)
	} else {
		fv.Set(fresh.Elem())
	}
	return nil
}

// repeatedField adapts a slice of structs (or struct pointers).
type repeatedField struct {
	slice   reflect.Value
	pointer bool
	schema  *structSchema
}

func (r *repeatedField) Len() int {
	return r.slice.Len()
}

// At returns element i. A nil pointer element reads as an empty message
// that is not stored back.
func (r *repeatedField) At(i int) core.Message {
	ev := r.slice.Index(i)
	if r.pointer {
		if ev.IsNil() {
			return &structMessage{schema: r.schema, v: reflect.New(r.schema.typ).Elem()}
		}
		ev = ev.Elem()
	}
	return &structMessage{schema: r.schema, v: ev}
}

// AppendNew grows the slice. Messages returned by earlier calls may stop
// aliasing the slice once it is reallocated, so callers finish each
// element before appending the next.
func (r *repeatedField) AppendNew() core.Message {
	var elem reflect.Value
	if r.pointer {
		elem = reflect.New(r.schema.typ)
	} else {
		elem = reflect.New(r.schema.typ).Elem()
	}
	r.slice.Set(reflect.Append(r.slice, elem))
	return r.At(r.slice.Len() - 1)
}

// New returns a detached element backed by its own struct.
func (r *repeatedField) New() core.Message {
	return &structMessage{schema: r.schema, v: reflect.New(r.schema.typ).Elem()}
}

// Append stores m at the end of the slice. Pointer slices keep m's
// struct; value slices copy it.
func (r *repeatedField) Append(m core.Message) error {
	sm, ok := m.(*structMessage)
	if !ok || sm.schema != r.schema {
		return fmt.Errorf("%w: cannot append %s to a list of %s", ErrSchemaViolation, m.Schema().Name(), r.schema.Name())
	}
	elem := sm.v
	if r.pointer {
		if !elem.CanAddr() {
			ptr := reflect.New(r.schema.typ)
			ptr.Elem().Set(elem)
			elem = ptr
		} else {
			elem = elem.Addr()
		}
	}
	r.slice.Set(reflect.Append(r.slice, elem))
	return nil
}

func conversionError(f *core.Field, v any) error {
	return fmt.Errorf("%w: cannot store %T in %s field %q", ErrValueConversion, v, f.Kind, f.Name)
}

func fieldName(f *core.Field) string {
	if f == nil {
		return "<nil>"
	}
	return f.Name
}

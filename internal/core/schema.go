package core

// Kind identifies the value family of a field and therefore how it is
// rendered into SQL text and parsed back from a result cell.
type Kind int

const (
	// KindInt32 is a signed integer of at most 32 bits.
	KindInt32 Kind = iota + 1

	// KindInt64 is a signed integer of 64 bits.
	KindInt64

	// KindUint32 is an unsigned integer of at most 32 bits.
	KindUint32

	// KindUint64 is an unsigned integer of 64 bits.
	KindUint64

	// KindFloat is a single precision floating point number.
	KindFloat

	// KindDouble is a double precision floating point number.
	KindDouble

	// KindBool is a boolean, stored as 1 or 0.
	KindBool

	// KindEnum is a named integer constant, stored as its number.
	KindEnum

	// KindString is a text value, stored as an escaped quoted literal.
	KindString

	// KindBytes is an opaque byte string, stored like KindString.
	KindBytes

	// KindMessage is a nested message, stored as its serialized binary form.
	KindMessage
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether the kind renders as a bare decimal literal.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInt32, KindInt64, KindUint32, KindUint64, KindFloat, KindDouble, KindBool, KindEnum:
		return true
	}
	return false
}

// Field describes a single field of a message type.
// Field values are immutable once the owning Schema has been built.
type Field struct {
	// Name is the column name the field maps to.
	Name string

	// Kind is the value family of the field.
	Kind Kind

	// Repeated marks a field holding an ordered sequence of values.
	Repeated bool

	// PrimaryKey marks a field excluded from the update list of an upsert.
	PrimaryKey bool

	// UpdateKey marks a field that identifies the row of an UPDATE.
	UpdateKey bool

	// Index is the position of the field in its schema.
	Index int
}

// Schema exposes the ordered field list of a message type.
type Schema interface {
	// Name returns the message type name.
	Name() string

	// Fields returns the fields in declaration order.
	Fields() []*Field

	// FieldByName returns the field mapped to the given column, or nil.
	FieldByName(name string) *Field
}

// Message is a schema-bound value whose fields can be tested for presence,
// read and written by field identity.
//
// Scalar values are exchanged in normalized form: int64 for signed and enum
// kinds, uint64 for unsigned kinds, float64 for floating kinds, bool, string
// and []byte. Nested messages go through MarshalField and UnmarshalField.
type Message interface {
	// Schema returns the schema of the message type.
	Schema() Schema

	// Has reports whether the field was explicitly set.
	Has(f *Field) bool

	// Get returns the current value of a non-repeated field. Unset fields
	// return the zero value of their kind. For KindMessage it returns the
	// nested Message, or nil when unset or when the nested type has no
	// schema of its own.
	Get(f *Field) any

	// Set stores a normalized scalar value into the field.
	Set(f *Field, v any) error

	// Clear resets every field to its unset state.
	Clear()

	// Repeated returns the sequence held by a repeated message field,
	// or nil if the field is not a repeated message field.
	Repeated(f *Field) RepeatedField

	// MarshalField serializes a nested message field to its binary form.
	// An unset nested message serializes as its default instance.
	MarshalField(f *Field) ([]byte, error)

	// UnmarshalField parses data into a freshly constructed nested message
	// and stores it in the field, replacing any previous value.
	UnmarshalField(f *Field, data []byte) error
}

// RepeatedField is an ordered sequence of sub-messages.
type RepeatedField interface {
	// Len returns the number of elements.
	Len() int

	// At returns the element at index i.
	At(i int) Message

	// AppendNew appends a new empty element and returns it.
	AppendNew() Message

	// New returns an empty element that is not part of the sequence.
	New() Message

	// Append adds an element obtained from New.
	Append(m Message) error
}

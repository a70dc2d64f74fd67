package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeMapperEncode(t *testing.T) {
	tm := NewTypeMapper()
	value := &allKinds{
		I32:   ptr(int32(-12)),
		I64:   ptr(int64(math.MaxInt64)),
		U32:   ptr(uint32(math.MaxUint32)),
		U64:   ptr(uint64(math.MaxUint64)),
		F32:   ptr(float32(0.1)),
		F64:   ptr(2.5),
		Flag:  ptr(true),
		State: ptr(status(1)),
		Code:  ptr(int16(7)),
		Text:  ptr("it's a \"test\"\n"),
		Raw:   []byte{'a', 0, 'b'},
	}
	m, err := Reflect(value)
	require.NoError(t, err)

	tests := []struct {
		column string
		want   string
	}{
		{"i32", "-12"},
		{"i64", "9223372036854775807"},
		{"u32", "4294967295"},
		{"u64", "18446744073709551615"},
		{"f32", "0.1"},
		{"f64", "2.5"},
		{"flag", "1"},
		{"state", "1"},
		{"code", "7"},
		{"text", `'it\'s a \"test\"\n'`},
		{"raw", `'a\0b'`},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			got, err := tm.Encode(m, fieldOf(t, m, tt.column))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("false bool", func(t *testing.T) {
		m, err := Reflect(&allKinds{Flag: ptr(false)})
		require.NoError(t, err)
		got, err := tm.Encode(m, fieldOf(t, m, "flag"))
		require.NoError(t, err)
		assert.Equal(t, "0", got)
	})

	t.Run("non finite float", func(t *testing.T) {
		m, err := Reflect(&allKinds{F64: ptr(math.Inf(1))})
		require.NoError(t, err)
		_, err = tm.Encode(m, fieldOf(t, m, "f64"))
		assert.ErrorIs(t, err, ErrValueConversion)
	})

	t.Run("nested message is quoted", func(t *testing.T) {
		m, err := Reflect(&allKinds{Nested: &nestedField{FieldString: ptr("x")}})
		require.NoError(t, err)
		got, err := tm.Encode(m, fieldOf(t, m, "nested"))
		require.NoError(t, err)
		assert.Equal(t, byte('\''), got[0])
		assert.Equal(t, byte('\''), got[len(got)-1])
	})

	t.Run("repeated field", func(t *testing.T) {
		m, err := Reflect(&tableRows{})
		require.NoError(t, err)
		_, err = tm.Encode(m, fieldOf(t, m, "rows"))
		assert.ErrorIs(t, err, ErrSchemaViolation)
	})
}

func TestTypeMapperDecode(t *testing.T) {
	tm := NewTypeMapper()

	t.Run("scalars", func(t *testing.T) {
		value := &allKinds{}
		m, err := Reflect(value)
		require.NoError(t, err)

		cells := map[string]string{
			"i32":   "-12",
			"i64":   "9223372036854775807",
			"u32":   "4294967295",
			"u64":   "18446744073709551615",
			"f32":   "0.5",
			"f64":   "2.25",
			"flag":  "1",
			"state": "1",
			"code":  "7",
			"text":  "hello",
			"raw":   "a\x00b",
		}
		for column, cell := range cells {
			require.NoError(t, tm.ApplyColumn(m, column, []byte(cell)), column)
		}

		assert.Equal(t, allKinds{
			I32:   ptr(int32(-12)),
			I64:   ptr(int64(math.MaxInt64)),
			U32:   ptr(uint32(math.MaxUint32)),
			U64:   ptr(uint64(math.MaxUint64)),
			F32:   ptr(float32(0.5)),
			F64:   ptr(2.25),
			Flag:  ptr(true),
			State: ptr(status(1)),
			Code:  ptr(int16(7)),
			Text:  ptr("hello"),
			Raw:   []byte{'a', 0, 'b'},
		}, *value)
	})

	t.Run("bool accepts words", func(t *testing.T) {
		value := &allKinds{Flag: ptr(true)}
		m, err := Reflect(value)
		require.NoError(t, err)
		require.NoError(t, tm.Decode(m, fieldOf(t, m, "flag"), []byte("false")))
		require.NotNil(t, value.Flag)
		assert.False(t, *value.Flag)
		assert.True(t, m.Has(fieldOf(t, m, "flag")))
	})

	t.Run("nested message", func(t *testing.T) {
		src, err := Reflect(&tableRow{Field3: &nestedField{FieldInt: ptr(int32(4)), FieldString: ptr("s")}})
		require.NoError(t, err)
		data, err := src.MarshalField(fieldOf(t, src, "field3"))
		require.NoError(t, err)

		dst := &tableRow{}
		m, err := Reflect(dst)
		require.NoError(t, err)
		require.NoError(t, tm.ApplyColumn(m, "field3", data))
		assert.Equal(t, &nestedField{FieldInt: ptr(int32(4)), FieldString: ptr("s")}, dst.Field3)
	})

	t.Run("conversion failures", func(t *testing.T) {
		m, err := Reflect(&allKinds{})
		require.NoError(t, err)

		for column, cell := range map[string]string{
			"i32":  "abc",
			"i64":  "1.5",
			"u32":  "-1",
			"u64":  "99999999999999999999",
			"f64":  "x",
			"flag": "maybe",
		} {
			err := tm.ApplyColumn(m, column, []byte(cell))
			assert.ErrorIs(t, err, ErrValueConversion, column)
		}

		err = tm.ApplyColumn(m, "i32", []byte("4294967296"))
		assert.ErrorIs(t, err, ErrValueConversion, "out of range for 32 bits")
	})

	t.Run("skips nulls and unknown columns", func(t *testing.T) {
		value := &tableRow{Field1: ptr(int32(3))}
		m, err := Reflect(value)
		require.NoError(t, err)

		require.NoError(t, tm.ApplyColumn(m, "field1", nil))
		require.NoError(t, tm.ApplyColumn(m, "no_such_column", []byte("1")))
		assert.Equal(t, int32(3), *value.Field1)
	})
}

func TestEscapeString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"it's", `it\'s`},
		{`say "hi"`, `say \"hi\"`},
		{`back\slash`, `back\\slash`},
		{"line\nbreak\r", `line\nbreak\r`},
		{"nul\x00ctrlz\x1a", `nul\0ctrlz\Z`},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeString(tt.in))
	}
}

func TestClassify(t *testing.T) {
	rows, err := Reflect(&tableRows{})
	require.NoError(t, err)
	assert.Equal(t, ShapeBatch, Classify(rows.Schema()))

	single, err := Reflect(&tableRow{})
	require.NoError(t, err)
	assert.Equal(t, ShapeSingle, Classify(single.Schema()))
	assert.NoError(t, ValidateSingle(single.Schema()))

	type scalarList struct {
		IDs []int64 `msgsql:"ids"`
	}
	list, err := Reflect(&scalarList{})
	require.NoError(t, err)
	assert.Equal(t, ShapeSingle, Classify(list.Schema()), "repeated scalars are not rows")
	assert.ErrorIs(t, ValidateSingle(list.Schema()), ErrSchemaViolation)

	type empty struct{}
	none, err := Reflect(&empty{})
	require.NoError(t, err)
	assert.ErrorIs(t, ValidateSingle(none.Schema()), ErrSchemaViolation)

	_, _, err = BatchRows(single)
	assert.ErrorIs(t, err, ErrSchemaViolation)
	f, rep, err := BatchRows(rows)
	require.NoError(t, err)
	assert.Equal(t, "rows", f.Name)
	assert.Equal(t, 0, rep.Len())
}

package msgsql

import (
	"github.com/rzpsarthak13/msgsql/internal/executor"
	"github.com/rzpsarthak13/msgsql/internal/generator"
	"github.com/rzpsarthak13/msgsql/internal/schema"
)

var (
	// ErrGenerateFail is returned when a value could not be converted to or
	// from its SQL text form.
	ErrGenerateFail = executor.ErrGenerateFail

	// ErrGenerateEmpty is returned when no statement could be generated.
	ErrGenerateEmpty = executor.ErrGenerateEmpty

	// ErrRollback is returned when a multi-statement operation failed with
	// autocommit disabled. Call Rollback before reusing the client.
	ErrRollback = executor.ErrRollback

	// ErrKeyNotFound is returned when a Select matched no rows.
	ErrKeyNotFound = executor.ErrKeyNotFound

	// ErrNotConnected is returned when the client has no open connection.
	ErrNotConnected = executor.ErrNotConnected

	// ErrEmpty is the generator-level reason behind ErrGenerateEmpty.
	ErrEmpty = generator.ErrEmpty

	// ErrSchemaViolation marks a message whose shape does not fit the
	// requested statement.
	ErrSchemaViolation = schema.ErrSchemaViolation

	// ErrValueConversion marks a value that has no SQL text form, or text
	// that does not parse into its field.
	ErrValueConversion = schema.ErrValueConversion

	// ErrNotStruct is returned when a message is not a pointer to a struct.
	ErrNotStruct = schema.ErrNotStruct
)

// Status codes returned by Code.
const (
	CodeOK            = executor.CodeOK
	CodeGenerateFail  = executor.CodeGenerateFail
	CodeGenerateEmpty = executor.CodeGenerateEmpty
	CodeRollback      = executor.CodeRollback
	CodeKeyNotFound   = executor.CodeKeyNotFound
	CodeUnknown       = executor.CodeUnknown
	CodeNotConnected  = executor.CodeNotConnected
)

// Code maps an error returned by the client to its numeric status. MySQL
// server errors report their own error number.
func Code(err error) int {
	return executor.Code(err)
}

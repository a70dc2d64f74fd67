package executor

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrGenerateFail is returned when a value could not be encoded into or
	// decoded from its SQL text form.
	ErrGenerateFail = errors.New("sql generate fail")

	// ErrGenerateEmpty is returned when no statement was produced.
	ErrGenerateEmpty = errors.New("sql generate empty")

	// ErrRollback signals that a multi-statement operation failed with
	// autocommit disabled and the caller should roll back.
	ErrRollback = errors.New("sql rollback")

	// ErrKeyNotFound is returned when a SELECT matched no rows.
	ErrKeyNotFound = errors.New("key not found")

	// ErrNotConnected is returned when an operation needs a connection and
	// none is open.
	ErrNotConnected = errors.New("executor is not connected")
)

// Status codes reported by Code.
const (
	CodeOK            = 0
	CodeGenerateFail  = 100000
	CodeGenerateEmpty = 100001
	CodeRollback      = 100002

	// CodeKeyNotFound is the MySQL ER_KEY_NOT_FOUND number.
	CodeKeyNotFound = 1032

	// CodeUnknown is the MySQL client CR_UNKNOWN_ERROR number.
	CodeUnknown = 2000

	// CodeNotConnected is the MySQL client CR_SERVER_GONE_ERROR number.
	CodeNotConnected = 2006
)

// Code maps an error returned by the executor to its numeric status.
// Transport errors carry the MySQL error number through unchanged.
func Code(err error) int {
	if err == nil {
		return CodeOK
	}

	var mysqlErr *mysql.MySQLError
	switch {
	case errors.Is(err, ErrGenerateFail):
		return CodeGenerateFail
	case errors.Is(err, ErrGenerateEmpty):
		return CodeGenerateEmpty
	case errors.Is(err, ErrKeyNotFound):
		return CodeKeyNotFound
	case errors.As(err, &mysqlErr):
		return int(mysqlErr.Number)
	case errors.Is(err, ErrRollback):
		return CodeRollback
	case errors.Is(err, ErrNotConnected):
		return CodeNotConnected
	default:
		return CodeUnknown
	}
}

// errorText returns the server message for MySQL errors and the full error
// text otherwise.
func errorText(err error) string {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Message
	}
	return err.Error()
}

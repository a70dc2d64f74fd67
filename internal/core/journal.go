package core

import (
	"context"
	"time"
)

// OperationType represents the kind of statement an event belongs to.
type OperationType string

const (
	// OperationSelect represents a SELECT.
	OperationSelect OperationType = "SELECT"

	// OperationInsert represents an INSERT.
	OperationInsert OperationType = "INSERT"

	// OperationUpsert represents an INSERT ... ON DUPLICATE KEY UPDATE.
	OperationUpsert OperationType = "UPSERT"

	// OperationUpdate represents an UPDATE.
	OperationUpdate OperationType = "UPDATE"

	// OperationDelete represents a DELETE.
	OperationDelete OperationType = "DELETE"
)

// EventType classifies a journal event.
type EventType string

const (
	// EventStatement is recorded when a statement was executed successfully.
	EventStatement EventType = "STATEMENT"

	// EventQueryError is recorded when the store rejected a statement.
	EventQueryError EventType = "QUERY_ERROR"

	// EventGenerateEmpty is recorded when no statement could be generated.
	EventGenerateEmpty EventType = "GENERATE_EMPTY"

	// EventGenerateFail is recorded when a value could not be encoded or decoded.
	EventGenerateFail EventType = "GENERATE_FAIL"

	// EventNotFound is recorded when a SELECT returned no rows.
	EventNotFound EventType = "NOT_FOUND"
)

// Event is a single journal record describing what the executor did.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Type classifies the event.
	Type EventType `json:"type"`

	// Operation is the statement kind.
	Operation OperationType `json:"operation"`

	// Database and Table identify the target table.
	Database string `json:"database"`
	Table    string `json:"table"`

	// SQL is the statement text, empty when nothing was generated.
	SQL string `json:"sql,omitempty"`

	// RowsAffected is the affected (or returned, for SELECT) row count.
	RowsAffected int64 `json:"rows_affected"`

	// Error is the error text for failure events.
	Error string `json:"error,omitempty"`

	// Timestamp is when the event was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives journal events. Emit is called synchronously on the
// caller's goroutine.
type Sink interface {
	// Emit records one event.
	Emit(ctx context.Context, event *Event) error

	// Close releases the sink's resources.
	Close() error
}

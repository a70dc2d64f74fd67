package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rzpsarthak13/msgsql/internal/core"
	"github.com/rzpsarthak13/msgsql/internal/generator"
	"github.com/rzpsarthak13/msgsql/internal/schema"
)

// Select runs the SELECT generated from result and hydrates result from the
// returned rows. A batch message is replaced by one row per returned tuple
// and is left untouched when any tuple fails to decode. A single-row
// message takes the first tuple.
func (e *Executor) Select(ctx context.Context, gen *generator.Generator, result core.Message) error {
	if e.transport == nil {
		return ErrNotConnected
	}

	sql, err := gen.Select(result)
	if err != nil {
		return e.generateError(ctx, gen, core.OperationSelect, err)
	}

	rs, err := e.transport.Query(ctx, sql)
	if err != nil {
		return e.queryError(ctx, gen, core.OperationSelect, sql, err)
	}

	if rs.RowCount() == 0 {
		e.emit(ctx, gen, &core.Event{Type: core.EventNotFound, Operation: core.OperationSelect, SQL: sql})
		return ErrKeyNotFound
	}
	e.emit(ctx, gen, &core.Event{Type: core.EventStatement, Operation: core.OperationSelect, SQL: sql, RowsAffected: int64(rs.RowCount())})

	if schema.Classify(result.Schema()) == schema.ShapeBatch {
		f := result.Schema().Fields()[0]
		decoded := make([]core.Message, 0, rs.RowCount())
		for _, row := range rs.Rows {
			m := result.Repeated(f).New()
			if err := e.hydrate(m, rs.Columns, row); err != nil {
				return e.generateError(ctx, gen, core.OperationSelect, err)
			}
			decoded = append(decoded, m)
		}

		// result is only replaced once every row decoded
		result.Clear()
		rows := result.Repeated(f)
		for _, m := range decoded {
			if err := rows.Append(m); err != nil {
				return e.generateError(ctx, gen, core.OperationSelect, err)
			}
		}
		return nil
	}

	if rs.RowCount() > 1 {
		e.logger.Printf("[EXECUTOR] select returned %d rows, using the first, sql: %s", rs.RowCount(), sql)
	}
	if err := e.hydrate(result, rs.Columns, rs.Rows[0]); err != nil {
		return e.generateError(ctx, gen, core.OperationSelect, err)
	}
	return nil
}

func (e *Executor) hydrate(m core.Message, columns []string, row [][]byte) error {
	for i, column := range columns {
		if i >= len(row) {
			break
		}
		if err := e.mapper.ApplyColumn(m, column, row[i]); err != nil {
			return err
		}
	}
	return nil
}

// Insert runs the INSERT generated from msg.
func (e *Executor) Insert(ctx context.Context, gen *generator.Generator, msg core.Message) error {
	if e.transport == nil {
		return ErrNotConnected
	}
	sql, err := gen.Insert(msg)
	if err != nil {
		return e.generateError(ctx, gen, core.OperationInsert, err)
	}
	return e.execOne(ctx, gen, core.OperationInsert, sql)
}

// UpdateOnInsert runs the upsert generated from msg.
func (e *Executor) UpdateOnInsert(ctx context.Context, gen *generator.Generator, msg core.Message) error {
	if e.transport == nil {
		return ErrNotConnected
	}
	sql, err := gen.UpdateOnInsert(msg)
	if err != nil {
		return e.generateError(ctx, gen, core.OperationUpsert, err)
	}
	return e.execOne(ctx, gen, core.OperationUpsert, sql)
}

func (e *Executor) execOne(ctx context.Context, gen *generator.Generator, op core.OperationType, sql string) error {
	affected, err := e.transport.Exec(ctx, sql)
	if err != nil {
		return e.queryError(ctx, gen, op, sql, err)
	}
	if affected == 0 {
		e.logger.Printf("[EXECUTOR] %s affected no rows, sql: %s", op, sql)
	}
	e.emit(ctx, gen, &core.Event{Type: core.EventStatement, Operation: op, SQL: sql, RowsAffected: affected})
	return nil
}

// Update runs every UPDATE generated from msg in order. With autocommit
// disabled the first failure stops the run and is wrapped in ErrRollback.
// With autocommit enabled failures are logged and the run continues; the
// joined failures are returned at the end.
func (e *Executor) Update(ctx context.Context, gen *generator.Generator, msg core.Message) error {
	if e.transport == nil {
		return ErrNotConnected
	}

	statements, err := gen.Update(msg)
	if err == nil && len(statements) == 0 {
		err = fmt.Errorf("%w: every row was skipped", generator.ErrEmpty)
	}
	if err != nil {
		return e.generateError(ctx, gen, core.OperationUpdate, err)
	}

	var total int64
	var failures []error
	for _, sql := range statements {
		if err := e.pace(ctx); err != nil {
			return err
		}
		affected, err := e.transport.Exec(ctx, sql)
		if err != nil {
			err = e.queryError(ctx, gen, core.OperationUpdate, sql, err)
			if !e.autoCommit {
				return fmt.Errorf("%w: %w", ErrRollback, err)
			}
			failures = append(failures, err)
			continue
		}
		total += affected
		e.emit(ctx, gen, &core.Event{Type: core.EventStatement, Operation: core.OperationUpdate, SQL: sql, RowsAffected: affected})
	}

	e.logger.Printf("[EXECUTOR] update %s affected %d rows in %d statements", gen.Qualified(), total, len(statements))
	return errors.Join(failures...)
}

// Delete runs every DELETE generated from msg in order and stops at the
// first failure.
func (e *Executor) Delete(ctx context.Context, gen *generator.Generator, msg core.Message) error {
	if e.transport == nil {
		return ErrNotConnected
	}

	statements, err := gen.Delete(msg)
	if err == nil && len(statements) == 0 {
		err = fmt.Errorf("%w: every row was skipped", generator.ErrEmpty)
	}
	if err != nil {
		return e.generateError(ctx, gen, core.OperationDelete, err)
	}

	var total int64
	for _, sql := range statements {
		if err := e.pace(ctx); err != nil {
			return err
		}
		affected, err := e.transport.Exec(ctx, sql)
		if err != nil {
			err = e.queryError(ctx, gen, core.OperationDelete, sql, err)
			if !e.autoCommit {
				return fmt.Errorf("%w: %w", ErrRollback, err)
			}
			return err
		}
		total += affected
		e.emit(ctx, gen, &core.Event{Type: core.EventStatement, Operation: core.OperationDelete, SQL: sql, RowsAffected: affected})
	}

	e.logger.Printf("[EXECUTOR] delete %s affected %d rows in %d statements", gen.Qualified(), total, len(statements))
	return nil
}

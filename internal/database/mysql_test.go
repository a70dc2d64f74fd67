package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*MySQLConnection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLConnection(db), mock
}

func TestQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("buffers rows as raw text", func(t *testing.T) {
		conn, mock := newMock(t)
		mock.ExpectQuery("select field1, field2 from db.t_test where keyid = 1").
			WillReturnRows(sqlmock.NewRows([]string{"field1", "field2"}).
				AddRow("10", nil).
				AddRow([]byte("11"), "x"))

		rs, err := conn.Query(ctx, "select field1, field2 from db.t_test where keyid = 1")
		require.NoError(t, err)
		assert.Equal(t, []string{"field1", "field2"}, rs.Columns)
		require.Equal(t, 2, rs.RowCount())
		assert.Equal(t, []byte("10"), rs.Rows[0][0])
		assert.Nil(t, rs.Rows[0][1])
		assert.Equal(t, []byte("11"), rs.Rows[1][0])
		assert.Equal(t, []byte("x"), rs.Rows[1][1])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result", func(t *testing.T) {
		conn, mock := newMock(t)
		mock.ExpectQuery("select a from t").WillReturnRows(sqlmock.NewRows([]string{"a"}))

		rs, err := conn.Query(ctx, "select a from t")
		require.NoError(t, err)
		assert.Equal(t, 0, rs.RowCount())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("keeps the driver error", func(t *testing.T) {
		conn, mock := newMock(t)
		mock.ExpectQuery("select a from missing").
			WillReturnError(&mysql.MySQLError{Number: 1146, Message: "Table 'db.missing' doesn't exist"})

		_, err := conn.Query(ctx, "select a from missing")
		require.Error(t, err)
		var mysqlErr *mysql.MySQLError
		require.True(t, errors.As(err, &mysqlErr))
		assert.Equal(t, uint16(1146), mysqlErr.Number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestExec(t *testing.T) {
	ctx := context.Background()
	conn, mock := newMock(t)

	mock.ExpectExec("delete from db.t_test where keyid = 1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("insert into db.t_test (keyid) values (1)").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'PRIMARY'"})

	n, err := conn.Exec(ctx, "delete from db.t_test where keyid = 1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = conn.Exec(ctx, "insert into db.t_test (keyid) values (1)")
	var mysqlErr *mysql.MySQLError
	require.True(t, errors.As(err, &mysqlErr))
	assert.Equal(t, uint16(1062), mysqlErr.Number)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStatements(t *testing.T) {
	ctx := context.Background()
	conn, mock := newMock(t)

	mock.ExpectExec("set autocommit = 0").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("commit").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("rollback").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("set autocommit = 1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("use `mytest`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("use `odd``name`").WillReturnError(errors.New("unknown database"))

	require.NoError(t, conn.SetAutoCommit(ctx, false))
	require.NoError(t, conn.Commit(ctx))
	require.NoError(t, conn.Rollback(ctx))
	require.NoError(t, conn.SetAutoCommit(ctx, true))
	require.NoError(t, conn.SwitchDB(ctx, "mytest"))
	assert.Error(t, conn.SwitchDB(ctx, "odd`name"))
	assert.Error(t, conn.SwitchDB(ctx, ""))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	conn, mock := newMock(t)
	mock.ExpectClose()

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err := conn.Query(ctx, "select 1")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = conn.Exec(ctx, "delete from t")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, conn.Commit(ctx), ErrClosed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

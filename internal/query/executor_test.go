package query

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "cafe-directory/internal/common/errors"
	"cafe-directory/internal/common/logger"
)

type spot struct {
	ID   string
	Name string
}

func spotSource() Source[spot] {
	return Source[spot]{
		Spec:      spotSpec(),
		Select:    sq.Select("spots.id", "spots.name").From("spots"),
		CountFrom: "spots",
		Scan: func(rows *sql.Rows) (spot, error) {
			var s spot
			err := rows.Scan(&s.ID, &s.Name)
			return s, err
		},
	}
}

func newTestExecutor(t *testing.T) (*Executor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.MatchExpectationsInOrder(false)

	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	return NewExecutor(db, nil, log, 5*time.Second), mock
}

func spotRows(from, to int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name"})
	for i := from; i <= to; i++ {
		rows.AddRow(fmt.Sprintf("spot-%02d", i), fmt.Sprintf("Spot %d", i))
	}
	return rows
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecute_FirstPage(t *testing.T) {
	exec, mock := newTestExecutor(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT spots.id, spots.name FROM spots ORDER BY spots.created_at DESC, spots.id ASC LIMIT 10 OFFSET 0",
	)).WillReturnRows(spotRows(1, 10))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM spots")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	env, err := Execute(context.Background(), exec, spotSource(), spotSpec().NewFilter())
	require.NoError(t, err)

	assert.Len(t, env.Data, 10)
	assert.Equal(t, Meta{Total: 25, Page: 1, Limit: 10, TotalPages: 3}, env.Meta)
	assert.Equal(t, "spot-01", env.Data[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_PagePastEnd(t *testing.T) {
	exec, mock := newTestExecutor(t)

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 10 OFFSET 30")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM spots")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	f := spotSpec().NewFilter()
	f.Page = 4

	env, err := Execute(context.Background(), exec, spotSource(), f)
	require.NoError(t, err)

	assert.NotNil(t, env.Data)
	assert.Empty(t, env.Data)
	assert.Equal(t, 25, env.Meta.Total)
	assert.Equal(t, 3, env.Meta.TotalPages)
	assert.Equal(t, 4, env.Meta.Page)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_SharesPredicateBetweenListAndCount(t *testing.T) {
	exec, mock := newTestExecutor(t)
	s := spotSpec()

	f, err := s.Decode(mustParse(t, "color=red,blue&search=50%25&orderBy=name&orderDir=asc&limit=5&page=2"))
	require.NoError(t, err)

	where := "WHERE (spots.color IN ($1,$2) AND (spots.name ILIKE $3 OR spots.description ILIKE $4))"
	args := []interface{}{"red", "blue", `%50\%%`, `%50\%%`}
	driverArgs := make([]driver.Value, len(args))
	for i, a := range args {
		driverArgs[i] = a
	}

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT spots.id, spots.name FROM spots " + where +
			" ORDER BY spots.name ASC, spots.id ASC LIMIT 5 OFFSET 5",
	)).WithArgs(driverArgs...).WillReturnRows(spotRows(6, 7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM spots " + where)).
		WithArgs(driverArgs...).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	env, err := Execute(context.Background(), exec, spotSource(), f)
	require.NoError(t, err)

	assert.Len(t, env.Data, 2)
	assert.Equal(t, Meta{Total: 7, Page: 2, Limit: 5, TotalPages: 2}, env.Meta)
	assert.LessOrEqual(t, len(env.Data), env.Meta.Limit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_InsideTransactionRunsReadsInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT spots.id, spots.name FROM spots ORDER BY spots.created_at DESC, spots.id ASC LIMIT 10 OFFSET 0",
	)).WillReturnRows(spotRows(1, 3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM spots")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	exec := NewExecutor(tx, nil, logger.NewZapAdapter(zaptest.NewLogger(t)), time.Second)
	assert.True(t, exec.sequential)

	env, err := Execute(context.Background(), exec, spotSource(), spotSpec().NewFilter())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Len(t, env.Data, 3)
	assert.Equal(t, 3, env.Meta.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOne(t *testing.T) {
	exec, mock := newTestExecutor(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT spots.id, spots.name FROM spots WHERE (spots.id = $1) ORDER BY spots.created_at DESC, spots.id ASC LIMIT 1 OFFSET 0",
	)).WithArgs("spot-07").WillReturnRows(spotRows(7, 7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM spots WHERE (spots.id = $1)")).
		WithArgs("spot-07").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	got, err := FindOne(context.Background(), exec, spotSource(), "id", "spot-07")
	require.NoError(t, err)
	assert.Equal(t, spot{ID: "spot-07", Name: "Spot 7"}, got)
}

func TestFindOne_NotFound(t *testing.T) {
	exec, mock := newTestExecutor(t)

	mock.ExpectQuery(`^SELECT spots\.id`).WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery(`^SELECT count\(\*\) FROM spots`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := FindOne(context.Background(), exec, spotSource(), "id", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// ==========================
// Error Handling Tests
// ==========================

func TestExecute_StorageFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(mock sqlmock.Sqlmock)
	}{
		{
			name: "count fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`^SELECT spots\.id`).WillReturnRows(spotRows(1, 3))
				mock.ExpectQuery(`^SELECT count\(\*\) FROM spots`).WillReturnError(errors.New("connection reset"))
			},
		},
		{
			name: "list fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`^SELECT spots\.id`).WillReturnError(errors.New("relation does not exist"))
				mock.ExpectQuery(`^SELECT count\(\*\) FROM spots`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
			},
		},
		{
			name: "scan fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`^SELECT spots\.id`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("only-one-column"))
				mock.ExpectQuery(`^SELECT count\(\*\) FROM spots`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, mock := newTestExecutor(t)
			tt.setup(mock)

			env, err := Execute(context.Background(), exec, spotSource(), spotSpec().NewFilter())
			assert.Nil(t, env)
			require.Error(t, err)

			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, stdErr.Code)
		})
	}
}

func TestExecute_CancelledContext(t *testing.T) {
	exec, _ := newTestExecutor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, exec, spotSource(), spotSpec().NewFilter())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

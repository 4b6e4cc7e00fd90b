package idgen

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/filemill/internal/common"
)

func TestFormatID(t *testing.T) {
	assert.Equal(t, "a0000000000000001", FormatID(true, 1))
	assert.Equal(t, "u0000000000000042", FormatID(false, 42))
	assert.Len(t, FormatID(false, 1), 17)
}

func TestNextID_SequentialCallsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	g := NewGenerator(NewMemoryRepository())

	var prev int64
	for i := 0; i < 10; i++ {
		id, err := g.NextID(ctx, false)
		require.NoError(t, err)
		require.Equal(t, byte('u'), id[0])

		n, err := strconv.ParseInt(id[1:], 10, 64)
		require.NoError(t, err)
		assert.Greater(t, n, prev)
		prev = n
	}
}

func TestNextID_RolePrefix(t *testing.T) {
	ctx := context.Background()
	g := NewGenerator(NewMemoryRepository())

	admin, err := g.NextID(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, byte('a'), admin[0])

	user, err := g.NextID(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, byte('u'), user[0])
}

func TestNextID_ConcurrentCallersNeverCollide(t *testing.T) {
	ctx := context.Background()
	g := NewGenerator(NewMemoryRepository())

	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := g.NextID(ctx, false)
			if err != nil {
				t.Error(err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestPostgresRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	rows := sqlmock.NewRows([]string{"next_value"}).AddRow(17)
	mock.ExpectQuery(`SELECT\s+next_value\s+FROM\s+counters\s+WHERE\s+name\s*=\s*\$1`).
		WithArgs(CounterName).
		WillReturnRows(rows)

	v, err := repo.Get(context.Background(), CounterName)
	require.NoError(t, err)
	assert.Equal(t, int64(17), v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Get_MissingCounter(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`SELECT\s+next_value\s+FROM\s+counters`).
		WithArgs("Bogus").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.Get(context.Background(), "Bogus")
	assert.ErrorIs(t, err, common.ErrContainerMissing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_CompareAndSet(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec(`UPDATE\s+counters\s+SET\s+next_value\s*=\s*\$1\s+WHERE\s+name\s*=\s*\$2\s+AND\s+next_value\s*=\s*\$3`).
		WithArgs(int64(18), CounterName, int64(17)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.CompareAndSet(context.Background(), CounterName, 17, 18)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(`UPDATE\s+counters\s+SET\s+next_value`).
		WithArgs(int64(18), CounterName, int64(17)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.CompareAndSet(context.Background(), CounterName, 17, 18)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

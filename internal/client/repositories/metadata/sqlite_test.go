package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestGet_Absent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, ok, err := r.Get(context.Background(), KeyLastSyncTime)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSet_Upserts(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyEmail, "old@example.com"))
	require.NoError(t, r.Set(ctx, KeyEmail, "new@example.com"))

	v, ok, err := r.Get(ctx, KeyEmail)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new@example.com", v)
}

func TestSet_EmptyValueIsPresent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, CollectionKey("tasks"), ""))
	_, ok, err := r.Get(ctx, CollectionKey("tasks"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetAll_AndDeleteMany(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.SetAll(ctx, map[string]string{
		KeyAccessToken:  "tok",
		KeyRefreshToken: "ref",
		KeyUserID:       "u-1",
	}))

	for k, want := range map[string]string{KeyAccessToken: "tok", KeyRefreshToken: "ref", KeyUserID: "u-1"} {
		v, ok, err := r.Get(ctx, k)
		require.NoError(t, err)
		require.True(t, ok, k)
		assert.Equal(t, want, v, k)
	}

	require.NoError(t, r.Delete(ctx, KeyAccessToken, KeyRefreshToken, "never-set"))

	_, ok, err := r.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = r.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.False(t, ok)
	v, ok, err := r.Get(ctx, KeyUserID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u-1", v)
}

func TestDelete_NoKeysIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewSQLiteRepository(db).Delete(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT value FROM metadata`).WillReturnError(sql.ErrConnDone)
	_, _, err = r.Get(ctx, "k")
	require.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), `metadata get "k"`)

	mock.ExpectExec(`INSERT INTO metadata`).WillReturnError(sql.ErrConnDone)
	err = r.SetAll(ctx, map[string]string{"a": "1", "b": "2"})
	require.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), `metadata set "a"`)

	mock.ExpectExec(`DELETE FROM metadata WHERE key IN \(\?,\?\)`).WithArgs("a", "b").WillReturnError(sql.ErrConnDone)
	err = r.Delete(ctx, "a", "b")
	require.ErrorIs(t, err, sql.ErrConnDone)

	require.NoError(t, mock.ExpectationsWereMet())
}

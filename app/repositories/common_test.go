package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// newTestDB opens an isolated in-memory SQLite database with the schema applied.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := OpenDB("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func TestCounterEncoding(t *testing.T) {
	for _, n := range []int64{0, 1, 255, 256, 1 << 40} {
		got, err := decodeCounter(encodeCounter(n))
		assert.NoError(t, err)
		assert.Equal(t, n, got)
	}

	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 1, 2}, encodeCounter(258))

	_, err := decodeCounter([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "deduplicate:abc:hello-world", DedupKey("abc", "hello-world"))
	assert.Equal(t, "pageviews:hello-world", PageViewKey("hello-world"))
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(sql.ErrNoRows), ErrNotFound)
	other := fmt.Errorf("boom")
	assert.Equal(t, other, notFound(other))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("UNIQUE constraint failed: accounts.username")))
	assert.True(t, isUniqueViolation(fmt.Errorf(`pq: duplicate key value violates unique constraint "accounts_username_key"`)))
	assert.False(t, isUniqueViolation(fmt.Errorf("no such table")))
	assert.False(t, isUniqueViolation(nil))
}

func TestOpenDBUnsupportedDriver(t *testing.T) {
	_, err := OpenDB("mysql", "whatever")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, Migrate(context.Background(), db))
}

func TestDayExpr(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, "strftime('%Y-%m-%d', pv.date)", dayExpr(db, "pv.date"))
}

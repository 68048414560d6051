package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLCreateTableIdempotent(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()

	require.NoError(t, CreateTable(ctx, db))
	require.NoError(t, DropTable(ctx, db))
	require.NoError(t, DropTable(ctx, db))
	require.NoError(t, CreateTable(ctx, db))
}

func TestSQLInsertConflict(t *testing.T) {
	backend := NewSQLBackend(newSQLiteDB(t))
	ctx := context.Background()
	rec := &Record{
		Key:       "fixedKey",
		CreatedAt: testEpoch,
		Data:      []byte(`{}`),
		ExpiresAt: testEpoch.Add(time.Hour),
	}

	require.NoError(t, backend.Insert(ctx, rec))
	err := backend.Insert(ctx, &Record{Key: "fixedKey", CreatedAt: testEpoch, Data: []byte(`{"a":"b"}`), ExpiresAt: testEpoch})
	require.ErrorIs(t, err, ErrKeyExists)

	got, err := backend.Get(ctx, "fixedKey")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), got.Data)
	assert.True(t, got.ExpiresAt.Equal(testEpoch.Add(time.Hour)))
}

func TestSQLRemoveReportsLiveness(t *testing.T) {
	backend := NewSQLBackend(newSQLiteDB(t))
	ctx := context.Background()

	require.NoError(t, backend.Insert(ctx, &Record{Key: "live", CreatedAt: testEpoch, Data: []byte(`{}`), ExpiresAt: testEpoch.Add(time.Minute)}))
	require.NoError(t, backend.Insert(ctx, &Record{Key: "stale", CreatedAt: testEpoch, Data: []byte(`{}`), ExpiresAt: testEpoch.Add(-time.Minute)}))

	live, err := backend.Remove(ctx, "live", testEpoch)
	require.NoError(t, err)
	assert.True(t, live)

	live, err = backend.Remove(ctx, "stale", testEpoch)
	require.NoError(t, err)
	assert.False(t, live)

	live, err = backend.Remove(ctx, "missing", testEpoch)
	require.NoError(t, err)
	assert.False(t, live)

	_, err = backend.Get(ctx, "stale")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLTouchLeavesData(t *testing.T) {
	backend := NewSQLBackend(newSQLiteDB(t))
	ctx := context.Background()
	require.NoError(t, backend.Insert(ctx, &Record{Key: "k", CreatedAt: testEpoch, Data: []byte(`{"x":"y"}`), ExpiresAt: testEpoch.Add(time.Minute)}))

	require.NoError(t, backend.Touch(ctx, "k", testEpoch.Add(time.Hour), testEpoch))
	got, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"x":"y"}`), got.Data)
	assert.True(t, got.ExpiresAt.Equal(testEpoch.Add(time.Hour)))
	assert.True(t, got.CreatedAt.Equal(testEpoch))

	require.ErrorIs(t, backend.Touch(ctx, "k", testEpoch.Add(2*time.Hour), testEpoch.Add(time.Hour)), ErrNotFound)
}

package services

import (
	"context"
	"testing"
	"time"

	"folio/app/repositories"
	"folio/app/repositories/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewCounterService(t *testing.T) {
	ctx := context.Background()
	kv := mock.NewKVStore()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	kv.Now = func() time.Time { return now }
	service := NewViewCounterService(kv, 24*time.Hour)

	t.Run("first view is counted", func(t *testing.T) {
		counted, err := service.Increment(ctx, "hello", "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, counted)
	})

	t.Run("repeat view within window is not counted", func(t *testing.T) {
		counted, err := service.Increment(ctx, "hello", "203.0.113.7")
		require.NoError(t, err)
		assert.False(t, counted)

		n, err := service.Get(ctx, "hello")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("another visitor is counted", func(t *testing.T) {
		counted, err := service.Increment(ctx, "hello", "198.51.100.2")
		require.NoError(t, err)
		assert.True(t, counted)
	})

	t.Run("same visitor on another slug is counted", func(t *testing.T) {
		counted, err := service.Increment(ctx, "other", "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, counted)
	})

	t.Run("view after the window is counted again", func(t *testing.T) {
		now = now.Add(24*time.Hour + time.Second)
		counted, err := service.Increment(ctx, "hello", "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, counted)

		n, err := service.Get(ctx, "hello")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("unknown ip is always counted", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			counted, err := service.Increment(ctx, "anon", "")
			require.NoError(t, err)
			assert.True(t, counted)
		}
	})

	t.Run("missing slug", func(t *testing.T) {
		_, err := service.Increment(ctx, " ", "1.2.3.4")
		assert.ErrorIs(t, err, ErrMissingSlug)
		_, err = service.Get(ctx, "")
		assert.ErrorIs(t, err, ErrMissingSlug)
	})

	t.Run("unviewed slug reads zero", func(t *testing.T) {
		n, err := service.Get(ctx, "never")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})
}

func TestViewCounterServiceWithBadger(t *testing.T) {
	kv, err := repositories.NewBadgerStore("", true)
	require.NoError(t, err)
	defer kv.Close()
	service := NewViewCounterService(kv, time.Hour)
	ctx := context.Background()

	counted, err := service.Increment(ctx, "post", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, counted)
	counted, err = service.Increment(ctx, "post", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, counted)

	n, err := service.Get(ctx, "post")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestHashIP(t *testing.T) {
	h := HashIP("127.0.0.1")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashIP("127.0.0.1"))
	assert.NotEqual(t, h, HashIP("127.0.0.2"))
}

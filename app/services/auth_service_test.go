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

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	service := NewAuthService(mock.NewAccountRepository(), "test-secret", time.Hour)

	_, err := service.CreateAccount(ctx, "admin", "correct horse")
	require.NoError(t, err)

	t.Run("duplicate account", func(t *testing.T) {
		_, err := service.CreateAccount(ctx, "admin", "another pass")
		assert.ErrorIs(t, err, repositories.ErrConflict)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := service.CreateAccount(ctx, "other", "short")
		assert.Error(t, err)
	})

	t.Run("login and verify", func(t *testing.T) {
		token, err := service.Login(ctx, "admin", "correct horse")
		require.NoError(t, err)

		user, err := service.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "admin", user)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Login(ctx, "admin", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := service.Login(ctx, "ghost", "correct horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := service.Login(ctx, "admin", "correct horse")
		require.NoError(t, err)

		service.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { service.now = time.Now }()
		_, err = service.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token from another secret", func(t *testing.T) {
		other := NewAuthService(mock.NewAccountRepository(), "other-secret", time.Hour)
		_, err := other.CreateAccount(ctx, "admin", "correct horse")
		require.NoError(t, err)
		token, err := other.Login(ctx, "admin", "correct horse")
		require.NoError(t, err)

		_, err = service.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := service.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthServiceWithoutSecret(t *testing.T) {
	service := NewAuthService(mock.NewAccountRepository(), "", 0)
	_, err := service.Login(context.Background(), "admin", "pw")
	assert.ErrorIs(t, err, ErrAuthNotConfigured)
	_, err = service.Verify("x")
	assert.ErrorIs(t, err, ErrAuthNotConfigured)
	assert.Equal(t, 24*time.Hour, service.TTL())
}

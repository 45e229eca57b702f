package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"folio/app/models"
	"folio/app/repositories"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("login failed")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAuthNotConfigured  = errors.New("jwt secret is not configured")
)

// AuthService manages admin accounts and their session tokens
type AuthService struct {
	accounts repositories.AccountRepository
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(accounts repositories.AccountRepository, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		accounts: accounts,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// CreateAccount stores a new admin with a bcrypt hash of password.
func (s *AuthService) CreateAccount(ctx context.Context, username, password string) (*models.Account, error) {
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	account := &models.Account{Username: username, PasswordHash: string(hash)}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Login checks the credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrAuthNotConfigured
	}
	account, err := s.accounts.FindByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   account.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates token and returns the username it was issued to.
func (s *AuthService) Verify(token string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrAuthNotConfigured
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// TTL is how long issued tokens stay valid.
func (s *AuthService) TTL() time.Duration {
	return s.ttl
}

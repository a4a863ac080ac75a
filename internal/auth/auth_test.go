package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/faridz/amlak/internal/config"
)

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	assert.NoError(t, err)
	return logger
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:            "test-secret-key",
		AccessTokenDuration:  time.Hour,
		RefreshTokenDuration: time.Hour * 24,
		RefreshTokenEnabled:  true,
		BcryptCost:           4, // keep the test suite fast
		MaxLoginAttempts:     5,
		LockoutDuration:      2 * time.Hour,
	}
}

func newTestService(t *testing.T) *Service {
	return NewService(
		newTestConfig(),
		newTestLogger(t),
		newMockRepository(),
	)
}

func newTestServiceWithRepo(t *testing.T, repo Repository) *Service {
	return NewService(
		newTestConfig(),
		newTestLogger(t),
		repo,
	)
}

func registerTestUser(t *testing.T, svc *Service, username, phone, password string) *User {
	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Test User",
		Phone:    phone,
		Username: username,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

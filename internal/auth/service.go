package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/faridz/amlak/internal/config"
)

const (
	defaultBcryptCost       = 12
	defaultMaxLoginAttempts = 5
	defaultLockoutDuration  = 2 * time.Hour
)

type Service struct {
	config     *config.AuthConfig
	log        *zap.Logger
	repository Repository
}

type Claims struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func NewService(config *config.AuthConfig, log *zap.Logger, repo Repository) *Service {
	return &Service{
		config:     config,
		log:        log,
		repository: repo,
	}
}

func (s *Service) bcryptCost() int {
	if s.config.BcryptCost > 0 {
		return s.config.BcryptCost
	}
	return defaultBcryptCost
}

func (s *Service) maxLoginAttempts() int {
	if s.config.MaxLoginAttempts > 0 {
		return s.config.MaxLoginAttempts
	}
	return defaultMaxLoginAttempts
}

func (s *Service) lockoutDuration() time.Duration {
	if s.config.LockoutDuration > 0 {
		return s.config.LockoutDuration
	}
	return defaultLockoutDuration
}

func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost())
	return string(bytes), err
}

// CheckPasswordHash returns false for a wrong password and for a malformed
// digest alike; it never propagates an error.
func (s *Service) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (s *Service) GenerateToken(user *User) (string, error) {
	expirationTime := time.Now().Add(s.config.AccessTokenDuration)
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

func (s *Service) GenerateTokenPair(user *User) (*TokenPair, error) {
	accessToken, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	pair := &TokenPair{AccessToken: accessToken}
	if s.config.RefreshTokenEnabled {
		pair.RefreshToken, err = s.generateRefreshToken(user)
		if err != nil {
			return nil, err
		}
	}

	return pair, nil
}

func (s *Service) generateRefreshToken(user *User) (string, error) {
	expirationTime := time.Now().Add(s.config.RefreshTokenDuration)
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   "refresh",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// RefreshToken exchanges a valid refresh token for a fresh access token. The
// account must still be active; a ban or deactivation after issuance cuts the
// refresh path off.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.ValidateToken(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.Subject != "refresh" {
		return "", errors.New("not a refresh token")
	}

	user, err := s.repository.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return "", err
	}
	if user.IsBanned || !user.IsActive {
		return "", ErrAccountDisabled
	}

	return s.GenerateToken(user)
}

type RegisterInput struct {
	Name     string
	Phone    string
	Username string
	Password string
	Email    *string
}

// Register creates a self-service account. The role is always "user"; admin
// accounts are seeded out of band.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if _, err := s.repository.GetUserByUsername(ctx, in.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.repository.GetUserByPhone(ctx, in.Phone); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Name:         in.Name,
		Phone:        in.Phone,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashedPassword,
		Role:         RoleUser,
		IsActive:     true,
	}

	if err := s.repository.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a username/password pair. The lockout window is checked
// before the password so a locked account leaks nothing about password
// correctness. Failed attempts against unknown usernames create no lockout
// state.
func (s *Service) Login(ctx context.Context, username, password string) (*User, *TokenPair, error) {
	user, err := s.repository.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_, _ = s.HashPassword("dummy") // Prevent timing attacks
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if user.IsLocked(time.Now()) {
		return nil, nil, ErrAccountLocked
	}

	if user.IsBanned || !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	if !s.CheckPasswordHash(password, user.PasswordHash) {
		attempts, err := s.repository.RecordFailedLogin(ctx, user.ID, s.maxLoginAttempts(), s.lockoutDuration())
		if err != nil {
			s.log.Error("failed to record login attempt",
				zap.Uint("user_id", user.ID),
				zap.Error(err))
		} else if attempts >= s.maxLoginAttempts() {
			s.log.Warn("account locked after repeated failures",
				zap.Uint("user_id", user.ID),
				zap.Int("attempts", attempts))
		}
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.repository.ResetLoginAttempts(ctx, user.ID); err != nil {
		s.log.Error("failed to reset login attempts",
			zap.Uint("user_id", user.ID),
			zap.Error(err))
	}

	pair, err := s.GenerateTokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

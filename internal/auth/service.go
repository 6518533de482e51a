// Package auth issues and verifies the bearer tokens the HTTP surface
// requires. Tokens are stateless HS256 JWTs; logout is client-side discard.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/entity"
	"github.com/omkarspace/Doc-Check/internal/repository"
)

type Service struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	log    *slog.Logger
}

func NewService(users repository.UserRepository, secret string, ttl time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = 8 * 24 * time.Hour
	}
	return &Service{users: users, secret: []byte(secret), ttl: ttl, log: log}
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (*entity.User, error) {
	if username == "" || password == "" {
		return nil, common.InvalidInputErrorf("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.InvalidInputErrorf("hash password: %v", err)
	}
	u := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	return s.users.Create(ctx, u)
}

// Login checks the credentials and returns a signed token. Bad credentials
// and unknown users yield the same error so usernames cannot be probed.
func (s *Service) Login(ctx context.Context, username, password string) (string, *entity.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", nil, common.NewAppError("AUTH_ERROR", "invalid username or password", common.ErrUnauthorized)
		}
		return "", nil, err
	}
	if !u.IsActive {
		return "", nil, common.NewAppError("AUTH_ERROR", "account is disabled", common.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("login rejected", "username", username)
		return "", nil, common.NewAppError("AUTH_ERROR", "invalid username or password", common.ErrUnauthorized)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, common.NewAppError("AUTH_ERROR", "sign token: "+err.Error(), common.ErrInternal)
	}
	s.log.Info("user logged in", "user_id", u.ID, "username", u.Username)
	return token, u, nil
}

// VerifyToken validates the signature and expiry and returns the subject id.
func (s *Service) VerifyToken(token string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, common.NewAppError("AUTH_ERROR", "invalid or expired token", common.ErrUnauthorized)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, common.NewAppError("AUTH_ERROR", "token has no subject", common.ErrUnauthorized)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, common.NewAppError("AUTH_ERROR", "token subject is not a user id", common.ErrUnauthorized)
	}
	return id, nil
}

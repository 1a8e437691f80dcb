package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/exp/slog"
)

const (
	TokenTypeSync = "sync"
	DefaultTTL    = 24 * time.Hour
)

// Claims содержимое токена синхронизации
type Claims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

type Servicer interface {
	Issue(ctx context.Context, email string, ttl time.Duration) (string, time.Time, error)
	Validate(ctx context.Context, token string) (*Claims, error)
}

// Service выпускает и проверяет подписанные HS256 токены синхронизации
type Service struct {
	secret []byte
	ttl    time.Duration
	log    *slog.Logger
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration, log *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		log:    log.With(slog.String("component", "session")),
		now:    time.Now,
	}
}

// Issue подписывает токен для email. Нулевой ttl означает срок по умолчанию.
func (s *Service) Issue(_ context.Context, email string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Email: email,
		Type:  TokenTypeSync,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	s.log.Debug("sync token issued", slog.String("email", email), slog.Time("expires_at", expiresAt))
	return token, expiresAt, nil
}

func (s *Service) Validate(_ context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeSync {
		return nil, ErrWrongType
	}

	return claims, nil
}

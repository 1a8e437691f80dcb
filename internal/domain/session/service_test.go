package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestService_IssueAndValidate(t *testing.T) {
	// Arrange
	service := NewService("secret", 0, slog.Default())
	ctx := context.Background()

	// Act
	token, expiresAt, err := service.Issue(ctx, "ana@acme.com", 0)
	require.NoError(t, err)
	claims, err := service.Validate(ctx, token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "ana@acme.com", claims.Email)
	assert.Equal(t, TokenTypeSync, claims.Type)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), expiresAt, time.Minute)
}

func TestService_CustomTTL(t *testing.T) {
	service := NewService("secret", 0, slog.Default())

	_, expiresAt, err := service.Issue(context.Background(), "ana@acme.com", 2*time.Hour)

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), expiresAt, time.Minute)
}

func TestService_Validate_Errors(t *testing.T) {
	service := NewService("secret", time.Hour, slog.Default())
	ctx := context.Background()

	expired := NewService("secret", time.Hour, slog.Default())
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.Issue(ctx, "ana@acme.com", 0)
	require.NoError(t, err)

	foreign := NewService("other", time.Hour, slog.Default())
	foreignToken, _, err := foreign.Issue(ctx, "ana@acme.com", 0)
	require.NoError(t, err)

	wrongType, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: "ana@acme.com",
		Type:  "session",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "expired", token: expiredToken, wantErr: ErrExpiredToken},
		{name: "foreign signature", token: foreignToken, wantErr: ErrInvalidToken},
		{name: "garbage", token: "not-a-token", wantErr: ErrInvalidToken},
		{name: "wrong type", token: wrongType, wantErr: ErrWrongType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Validate(ctx, tt.token)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

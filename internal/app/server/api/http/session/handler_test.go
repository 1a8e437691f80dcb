package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"anchorview/internal/domain/session"
	"anchorview/internal/domain/user"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Register(ctx context.Context, u user.User, password string) (string, error) {
	args := m.Called(ctx, u, password)
	return args.String(0), args.Error(1)
}

func (m *MockUsers) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockUsers) Lookup(ctx context.Context, email string) (user.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(user.User), args.Error(1)
}

func setup(t *testing.T) (humatest.TestAPI, *MockUsers, *session.Service) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := new(MockUsers)
	tokens := session.NewService("test-secret", 24*time.Hour, log)

	_, api := humatest.New(t)
	NewHandler(users, tokens, log, huma.Middlewares{}).SetupRoutes(api)
	return api, users, tokens
}

func TestHandler_SyncToken_Credentials(t *testing.T) {
	// Arrange
	api, users, tokens := setup(t)
	users.On("Authenticate", mock.Anything, "tech@example.com", "Ancoragem2024").
		Return(user.User{Email: "tech@example.com", Active: true}, nil)

	// Act
	resp := api.Post("/api/auth/sync-token", map[string]any{
		"email":          "tech@example.com",
		"password":       "Ancoragem2024",
		"expiresInHours": 2,
	})

	// Assert
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var out session.TokenResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), out.ExpiresAt, time.Minute)

	claims, err := tokens.Validate(context.Background(), out.Token)
	require.NoError(t, err)
	assert.Equal(t, "tech@example.com", claims.Email)
	assert.Equal(t, session.TokenTypeSync, claims.Type)
	users.AssertExpectations(t)
}

func TestHandler_SyncToken_RenewWithBearer(t *testing.T) {
	// Arrange
	api, users, tokens := setup(t)
	current, _, err := tokens.Issue(context.Background(), "owner@example.com", time.Hour)
	require.NoError(t, err)

	// Act
	resp := api.Post("/api/auth/sync-token", "Authorization: Bearer "+current, map[string]any{})

	// Assert
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var out session.TokenResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	claims, err := tokens.Validate(context.Background(), out.Token)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", claims.Email)
	users.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_SyncToken_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		authErr error
		args    []any
		status  int
	}{
		{
			name:    "wrong password",
			authErr: user.ErrInvalidAuth,
			args:    []any{map[string]any{"email": "tech@example.com", "password": "x"}},
			status:  http.StatusUnauthorized,
		},
		{
			name:    "inactive user",
			authErr: user.ErrInactive,
			args:    []any{map[string]any{"email": "tech@example.com", "password": "x"}},
			status:  http.StatusUnauthorized,
		},
		{
			name:    "repository failure",
			authErr: errors.New("db is down"),
			args:    []any{map[string]any{"email": "tech@example.com", "password": "x"}},
			status:  http.StatusInternalServerError,
		},
		{
			name:   "nothing provided",
			args:   []any{map[string]any{}},
			status: http.StatusUnauthorized,
		},
		{
			name:   "invalid bearer",
			args:   []any{"Authorization: Bearer forged", map[string]any{}},
			status: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			api, users, _ := setup(t)
			users.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).
				Return(user.User{}, tt.authErr).Maybe()

			// Act
			resp := api.Post("/api/auth/sync-token", tt.args...)

			// Assert
			assert.Equal(t, tt.status, resp.Code, resp.Body.String())
		})
	}
}

package session

import (
	"context"
	"errors"
	"time"

	"anchorview/internal/app/server/api/http/middleware/auth"
	"anchorview/internal/domain/session"
	"anchorview/internal/domain/user"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

type Handler struct {
	users      user.Servicer
	tokens     session.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(users user.Servicer, tokens session.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		users:      users,
		tokens:     tokens,
		log:        log.With(slog.String("component", "session_handler")),
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.syncTokenOp(), h.syncToken)
}

func (h *Handler) syncToken(ctx context.Context, input *tokenInput) (*tokenOutput, error) {
	email, err := h.identify(ctx, input)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(input.Body.ExpiresInHours) * time.Hour
	token, expiresAt, err := h.tokens.Issue(ctx, email, ttl)
	if err != nil {
		h.log.Error("issue token failed", slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("failed to issue token")
	}

	h.log.Info("sync token issued", slog.String("email", email), slog.Time("expires_at", expiresAt))
	return &tokenOutput{Body: session.TokenResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt,
	}}, nil
}

// identify определяет владельца токена по учетным данным или по текущему токену
func (h *Handler) identify(ctx context.Context, input *tokenInput) (string, error) {
	if input.Body.Email != "" {
		u, err := h.users.Authenticate(ctx, input.Body.Email, input.Body.Password)
		switch {
		case err == nil:
			return u.Email, nil
		case errors.Is(err, user.ErrNotFound), errors.Is(err, user.ErrInvalidAuth), errors.Is(err, user.ErrInactive):
			h.log.Debug("credentials rejected", slog.String("email", input.Body.Email))
			return "", huma.Error401Unauthorized("invalid credentials")
		default:
			h.log.Error("authenticate failed", slog.String("error", err.Error()))
			return "", huma.Error500InternalServerError("authentication failure")
		}
	}

	token, ok := auth.BearerToken(input.Authorization)
	if !ok {
		return "", huma.Error401Unauthorized("credentials or bearer token required")
	}
	claims, err := h.tokens.Validate(ctx, token)
	if err != nil {
		return "", huma.Error401Unauthorized("invalid token", err)
	}
	return claims.Email, nil
}

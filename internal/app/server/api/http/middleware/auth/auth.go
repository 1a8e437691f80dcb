package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"anchorview/internal/domain/session"
	"anchorview/internal/domain/tenant"
	"anchorview/internal/domain/user"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Users поиск владельца токена
type Users interface {
	Lookup(ctx context.Context, email string) (user.User, error)
}

type Auth struct {
	api     huma.API
	session session.Servicer
	users   Users
	log     *slog.Logger
}

func New(api huma.API, session session.Servicer, users Users, log *slog.Logger) *Auth {
	return &Auth{
		api:     api,
		session: session,
		users:   users,
		log:     log.With(slog.String("component", "auth_middleware")),
	}
}

type contextKey string

const EmailKey contextKey = "email"

// BearerToken достает токен из заголовка Authorization
func BearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Middleware проверяет токен синхронизации и кладет в контекст email владельца
// и id его компании
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token, ok := BearerToken(ctx.Header("Authorization"))
		if !ok {
			a.log.Debug("missing bearer token", slog.String("path", ctx.URL().Path))
			_ = huma.WriteErr(a.api, ctx, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims, err := a.session.Validate(ctx.Context(), token)
		if err != nil {
			a.log.Warn("token rejected", slog.String("error", err.Error()))
			_ = huma.WriteErr(a.api, ctx, http.StatusUnauthorized, "Unauthorized", err)
			return
		}

		u, err := a.users.Lookup(ctx.Context(), claims.Email)
		switch {
		case errors.Is(err, user.ErrNotFound), errors.Is(err, user.ErrInactive):
			a.log.Warn("token owner rejected",
				slog.String("email", claims.Email),
				slog.String("error", err.Error()))
			_ = huma.WriteErr(a.api, ctx, http.StatusUnauthorized, "Unauthorized", err)
			return
		case err != nil:
			a.log.Error("token owner lookup failed", slog.String("error", err.Error()))
			_ = huma.WriteErr(a.api, ctx, http.StatusInternalServerError, "storage failure")
			return
		case u.CompanyID == "":
			a.log.Warn("user has no company", slog.String("email", claims.Email))
			_ = huma.WriteErr(a.api, ctx, http.StatusForbidden, "user is not bound to a company")
			return
		}

		newCtx := context.WithValue(ctx.Context(), EmailKey, claims.Email)
		newCtx = tenant.WithCompany(newCtx, u.CompanyID)
		next(huma.WithContext(ctx, newCtx))
	}
}

func GetEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok && email != ""
}

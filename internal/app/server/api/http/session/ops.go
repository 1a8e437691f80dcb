package session

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) syncTokenOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-sync-token",
		Method:      http.MethodPost,
		Path:        "/api/auth/sync-token",
		Summary:     "Выпустить токен синхронизации",
		Description: "Токен позволяет фоновой синхронизации работать без основной сессии. Выдается по email и паролю либо по действующему токену.",
		Tags:        []string{"auth"},
		Middlewares: h.middleware,
	}
}

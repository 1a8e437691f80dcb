package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Доступность сервера синхронизации",
		Description: "Проверяет соединение с базой. Если база недоступна, отвечает 503 с database=down.",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
		Responses: map[string]*huma.Response{
			"503": {Description: "База данных недоступна"},
		},
	}
}

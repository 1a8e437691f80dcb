package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) syncPointsOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-points",
		Method:      http.MethodPost,
		Path:        "/api/sync/points",
		Summary:     "Сверить пакет анкерных точек",
		Description: "Каждая точка сопоставляется по id или по (projectId, numeroPonto) и сохраняется через upsert.",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) syncTestsOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-tests",
		Method:      http.MethodPost,
		Path:        "/api/sync/tests",
		Summary:     "Сверить пакет тестов",
		Description: "Результат каждого теста переносится в статус его точки.",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) syncPhotosOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-photos",
		Method:      http.MethodPost,
		Path:        "/api/sync/photos",
		Summary:     "Загрузить пакет фото",
		Description: "Фото без companyId относятся к компании пользователя. Повторная загрузка того же id не перезаписывает файл.",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) syncBatchOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-batch",
		Method:      http.MethodPost,
		Path:        "/api/sync/batch",
		Summary:     "Сверить точки, тесты и фото одним пакетом",
		Description: "Точки применяются раньше тестов, тесты ссылаются на серверные id точек из того же пакета. Фото загружаются последними.",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) statusOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-status",
		Method:      http.MethodGet,
		Path:        "/api/sync/status",
		Summary:     "Количество изменений на сервере",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

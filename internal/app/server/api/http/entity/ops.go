package entity

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "entities-list",
		Method:      http.MethodGet,
		Path:        "/api/entities/{kind}",
		Summary:     "Список записей",
		Tags:        []string{"entities"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "entities-find",
		Method:      http.MethodPost,
		Path:        "/api/entities/{kind}/find",
		Summary:     "Найти запись",
		Description: "Ищет запись по id или по естественному ключу точки (projectId, numeroPonto). Совпадение по id имеет приоритет.",
		Tags:        []string{"entities"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID:   "entities-create",
		Method:        http.MethodPost,
		Path:          "/api/entities/{kind}",
		Summary:       "Создать запись",
		Description:   "Если id не передан, его назначает сервер.",
		Tags:          []string{"entities"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
		Middlewares:   h.middleware,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "entities-update",
		Method:      http.MethodPut,
		Path:        "/api/entities/{kind}/{id}",
		Summary:     "Перезаписать запись",
		Tags:        []string{"entities"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "entities-delete",
		Method:      http.MethodDelete,
		Path:        "/api/entities/{kind}/{id}",
		Summary:     "Удалить запись",
		Tags:        []string{"entities"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

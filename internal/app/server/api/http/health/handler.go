package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

const pingTimeout = 2 * time.Second

// Pinger проверка соединения с базой
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	db         Pinger
	log        *slog.Logger
	middleware huma.Middlewares
}

// NewHandler создает обработчик; db может быть nil, тогда база не проверяется
func NewHandler(db Pinger, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		db:         db,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
}

func (h *Handler) healthCheck(ctx context.Context, _ *Input) (*Output, error) {
	if h.db == nil {
		return &Output{
			Status: http.StatusOK,
			Body:   Response{Status: StatusOK, Database: DatabaseNotAttached},
		}, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := h.db.Ping(pingCtx); err != nil {
		h.log.Warn("database ping failed", slog.String("error", err.Error()))
		return &Output{
			Status: http.StatusServiceUnavailable,
			Body: Response{
				Status:   StatusDegraded,
				Database: DatabaseDown,
				Error:    err.Error(),
			},
		}, nil
	}

	return &Output{
		Status: http.StatusOK,
		Body:   Response{Status: StatusOK, Database: DatabaseUp},
	}, nil
}

// GET    /api/health                     # Проверка доступности и ping базы (публичный)
// POST   /api/auth/sync-token            # Токен синхронизации (email+пароль или bearer)
// GET    /api/entities/{kind}            # Список записей (auth)
// POST   /api/entities/{kind}/find       # Поиск по id или (projectId, numeroPonto) (auth)
// POST   /api/entities/{kind}            # Создать запись (auth)
// PUT    /api/entities/{kind}/{id}       # Перезаписать запись (auth)
// DELETE /api/entities/{kind}/{id}       # Удалить запись (auth)
// POST   /api/sync/points                # Сверка пакета точек (auth)
// POST   /api/sync/tests                 # Сверка пакета тестов (auth)
// POST   /api/sync/photos                # Загрузка пакета фото (auth)
// POST   /api/sync/batch                 # Точки, тесты и фото одним пакетом (auth)
// GET    /api/sync/status?since=         # Число изменений после since (auth)

package api

import (
	"context"
	"time"

	entityAPI "anchorview/internal/app/server/api/http/entity"
	healthAPI "anchorview/internal/app/server/api/http/health"
	"anchorview/internal/app/server/api/http/middleware"
	"anchorview/internal/app/server/api/http/middleware/auth"
	"anchorview/internal/app/server/api/http/middleware/logger"
	sessionAPI "anchorview/internal/app/server/api/http/session"
	syncAPI "anchorview/internal/app/server/api/http/sync"
	"anchorview/internal/app/server/config"
	"anchorview/internal/domain/activity"
	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/session"
	"anchorview/internal/domain/user"
	"anchorview/internal/infrastructure/storage/postgres"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"
)

// EntityStore авторитетное хранилище сущностей сервера
type EntityStore interface {
	entityAPI.Store
	CountModifiedSince(ctx context.Context, kind entity.Kind, companyID string, since time.Time) (int, error)
}

// Deps зависимости обработчиков. DB и Activity необязательны: без DB проверка
// доступности не пингует базу, без Activity пакеты синхронизации не журналируются.
type Deps struct {
	Entities EntityStore
	Users    user.Servicer
	Tokens   session.Servicer
	DB       healthAPI.Pinger
	Activity activity.Recorder
}

type Handlers struct {
	Health  *healthAPI.Handler
	Session *sessionAPI.Handler
	Entity  *entityAPI.Handler
	Sync    *syncAPI.Handler
}

// New создает *chi.Mux поверх postgres
func New(storage *postgres.Storage, token config.Token, log *slog.Logger) *chi.Mux {
	userRepo := postgres.NewUserRepository(storage, log)

	return Mount(Deps{
		Entities: postgres.NewEntityRepository(storage, log),
		Users:    user.NewService(userRepo, user.NewPasswordValidator(), log),
		Tokens:   session.NewService(token.Secret, token.TTL, log),
		DB:       storage,
		Activity: postgres.NewActivityRepository(storage, log),
	}, log)
}

// Mount создает *chi.Mux с ВСЕМИ операциями через huma.Register
func Mount(deps Deps, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()
	mux.Use(chimw.RequestID, chimw.Recoverer)

	cfg := huma.DefaultConfig("AnchorView API", "1.0.0")
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
	}

	API := humachi.New(mux, cfg)

	h := handlers(API, deps, log)
	h.Health.SetupRoutes(API)
	h.Session.SetupRoutes(API)
	h.Entity.SetupRoutes(API)
	h.Sync.SetupRoutes(API)

	return mux
}

func handlers(API huma.API, deps Deps, log *slog.Logger) *Handlers {
	authMW := auth.New(API, deps.Tokens, deps.Users, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(deps.DB, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	sessionHandler := sessionAPI.NewHandler(deps.Users, deps.Tokens, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(authMW.Middleware())
	entityHandler := entityAPI.NewHandler(deps.Entities, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(authMW.Middleware())
	syncHandler := syncAPI.NewHandler(deps.Entities, deps.Activity, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health:  healthHandler,
		Session: sessionHandler,
		Entity:  entityHandler,
		Sync:    syncHandler,
	}
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"anchorview/internal/app/client/config"
	"anchorview/internal/app/client/hybrid"
	"anchorview/internal/app/client/proxy"
	"anchorview/internal/app/client/store"
	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/queue"
	"anchorview/internal/domain/reconcile"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config     *config.Config
	log        *slog.Logger
	httpClient *HTTPClient
	storage    *store.SQLiteStorage
	manager    *hybrid.Manager
	monitor    *Monitor
	hub        *proxy.Hub
	state      *AppState
	mu         sync.RWMutex
}

// AppState хранит состояние клиента между запусками
type AppState struct {
	UserEmail      string    `json:"user_email"`
	TokenExpiresAt time.Time `json:"token_expires_at,omitempty"`
	LastSync       time.Time `json:"last_sync,omitempty"`
}

// Report сводка для команды sync --status
type Report struct {
	Local  hybrid.Status           `json:"local"`
	Server *reconcile.ServerStatus `json:"server,omitempty"`
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	state, err := loadAppState(cfg)
	if err != nil {
		log.Warn("Не удалось загрузить состояние приложения", "error", err)
		state = &AppState{}
	}

	httpCl := NewHTTPClient(cfg.BaseURL(), log)
	monitor := NewMonitor(httpCl, cfg.ConnectivityInterval, log)
	hub := proxy.NewHub(log)

	// без локального хранилища клиент продолжает работать напрямую с сервером
	storage, err := store.NewSQLiteStorage(cfg.DataPath)
	if err != nil {
		log.Warn("Не удалось открыть локальное хранилище", "path", cfg.DataPath, "error", err)
		storage = nil
	}

	var opts []reconcile.Option
	if storage != nil {
		// соответствия id точек переживают перезапуск клиента
		opts = append(opts, reconcile.WithAliases(storage))
	}
	rec := reconcile.New(httpCl, log, opts...)

	deps := hybrid.Deps{
		Direct: rec,
		Remote: httpCl,
		Conn:   monitor,
		Notify: hub,
	}
	if storage != nil {
		deps.Store = storage
		deps.Queue = queue.NewManager(storage, rec, storage, log)
	}

	manager := hybrid.NewManager(deps, hybrid.Config{
		SyncDelay: cfg.SyncDelay,
		UserID:    cfg.UserID,
		CompanyID: cfg.CompanyID,
	}, log)

	app := &App{
		config:     cfg,
		log:        log,
		httpClient: httpCl,
		storage:    storage,
		manager:    manager,
		monitor:    monitor,
		hub:        hub,
		state:      state,
	}

	if token, err := app.GetToken(); err == nil && token != "" {
		httpCl.SetToken(token)
		log.Debug("Токен загружен из файла")
	}

	return app, nil
}

func statePath(cfg *config.Config) string {
	return filepath.Join(cfg.ConfigDir, "state.json")
}

func loadAppState(cfg *config.Config) (*AppState, error) {
	data, err := os.ReadFile(statePath(cfg))
	if errors.Is(err, os.ErrNotExist) {
		return &AppState{}, nil
	}
	if err != nil {
		return nil, err
	}

	var state AppState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

func (a *App) saveAppState() error {
	a.mu.RLock()
	data, err := json.MarshalIndent(a.state, "", "  ")
	a.mu.RUnlock()
	if err != nil {
		return err
	}

	return os.WriteFile(statePath(a.config), data, 0600)
}

// Manager менеджер данных клиента
func (a *App) Manager() *hybrid.Manager {
	return a.manager
}

// Serve запускает локальный прокси приложения, мониторинг связи и
// автоматическую синхронизацию до отмены ctx
func (a *App) Serve(ctx context.Context) error {
	appURL, err := a.config.AppURL()
	if err != nil {
		return err
	}

	var cache proxy.Cache = proxy.NewMemoryCache()
	if a.storage != nil {
		cache = a.storage.HTTPCache()
	}
	interceptor := proxy.NewInterceptor(http.DefaultTransport, cache, a.config.CacheVersion, a.log)

	srv := &http.Server{
		Addr:              a.config.ProxyAddress,
		Handler:           proxy.NewHandler(appURL, interceptor, a.hub, a.log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.monitor.Check(ctx)
	a.monitor.OnChange(func(online bool) {
		if online {
			a.manager.ConnectivityRestored(ctx)
		}
	})
	a.manager.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.monitor.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return interceptor.Start(gctx, appURL, proxy.ManifestOrDefault(a.config.PrecacheURLs))
	})
	g.Go(func() error {
		a.log.Info("Прокси запущен",
			"address", a.config.ProxyAddress,
			"app", appURL.String(),
			"cache_version", a.config.CacheVersion,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка HTTP сервера прокси: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	a.manager.Stop()
	interceptor.Wait()
	a.log.Info("Прокси остановлен")
	return err
}

// Sync проверяет связь и прогоняет очередь синхронизации
func (a *App) Sync(ctx context.Context) hybrid.SyncOutcome {
	a.monitor.Check(ctx)
	out := a.manager.ManualSync(ctx)

	if out.Success {
		a.mu.Lock()
		a.state.LastSync = time.Now().UTC()
		a.mu.Unlock()
		if err := a.saveAppState(); err != nil {
			a.log.Warn("Не удалось сохранить состояние", "error", err)
		}
	}
	return out
}

// Status состояние локальной очереди и, если сервер доступен, число
// изменений на сервере после последней синхронизации
func (a *App) Status(ctx context.Context) (*Report, error) {
	online := a.monitor.Check(ctx)

	local, err := a.manager.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения статуса очереди: %w", err)
	}
	report := &Report{Local: local}

	if online {
		a.mu.RLock()
		since := a.state.LastSync
		a.mu.RUnlock()

		server, err := a.httpClient.SyncStatus(ctx, since)
		if err != nil {
			a.log.Warn("Не удалось получить статус сервера", "error", err)
		} else {
			report.Server = server
		}
	}
	return report, nil
}

// Pull загружает данные компании и проекта для работы без сети
func (a *App) Pull(ctx context.Context, companyID, projectID string) (hybrid.PullResult, error) {
	if companyID == "" {
		companyID = a.config.CompanyID
	}
	if companyID == "" {
		return nil, fmt.Errorf("не задан id компании")
	}

	a.monitor.Check(ctx)
	return a.manager.Pull(ctx, companyID, projectID)
}

// Export возвращает резервную копию локальных данных
func (a *App) Export(ctx context.Context) ([]byte, error) {
	return a.manager.ExportOfflineData(ctx)
}

// Import загружает резервную копию в локальное хранилище
func (a *App) Import(ctx context.Context, data []byte) (int, error) {
	return a.manager.Import(ctx, data)
}

// AddPhoto читает файл фото и ставит его загрузку в очередь синхронизации
func (a *App) AddPhoto(ctx context.Context, path string) (*entity.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения фото: %w", err)
	}
	return a.manager.AddPhoto(ctx, path, data)
}

// Close освобождает локальное хранилище
func (a *App) Close() error {
	a.manager.Stop()
	if a.storage != nil {
		return a.storage.Close()
	}
	return nil
}

// GetToken возвращает сохраненный токен
func (a *App) GetToken() (string, error) {
	tokenBytes, err := os.ReadFile(a.config.TokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("токен не найден. Выполните вход: anchorview login")
		}
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}
	return strings.TrimSpace(string(tokenBytes)), nil
}

// SaveToken сохраняет токен аутентификации
func (a *App) SaveToken(token string) error {
	if err := os.WriteFile(a.config.TokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}

	a.httpClient.SetToken(token)

	return nil
}

// ClearToken удаляет токен
func (a *App) ClearToken() error {
	if err := os.Remove(a.config.TokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления токена: %w", err)
	}
	a.httpClient.SetToken("")

	a.mu.Lock()
	a.state.UserEmail = ""
	a.state.TokenExpiresAt = time.Time{}
	a.mu.Unlock()

	return a.saveAppState()
}

// Login получает токен синхронизации и сохраняет его
func (a *App) Login(ctx context.Context, email, password string, ttl time.Duration) (time.Time, error) {
	resp, err := a.httpClient.RequestSyncToken(ctx, email, password, ttl)
	if err != nil {
		return time.Time{}, err
	}

	if err := a.SaveToken(resp.Token); err != nil {
		return time.Time{}, err
	}

	a.mu.Lock()
	a.state.UserEmail = email
	a.state.TokenExpiresAt = resp.ExpiresAt
	a.mu.Unlock()

	if err := a.saveAppState(); err != nil {
		a.log.Warn("Не удалось сохранить состояние", "error", err)
	}

	a.log.Info("Вход выполнен успешно", "email", email, "expires_at", resp.ExpiresAt)
	return resp.ExpiresAt, nil
}

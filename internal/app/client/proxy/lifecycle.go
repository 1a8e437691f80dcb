package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/exp/slog"
)

// Install заполняет статический пул манифестом. Кэш при загрузке обходится.
// Установка атомарна: если хотя бы один адрес не загрузился, в пул ничего не пишется.
func (i *Interceptor) Install(ctx context.Context, base *url.URL, manifest []string) error {
	i.setState(StateInstalling)

	entries := make(map[string]*Entry, len(manifest))
	for _, path := range manifest {
		u := base.ResolveReference(&url.URL{Path: path})
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			i.setState(StateIdle)
			return fmt.Errorf("install %s: %w", path, err)
		}
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")

		resp, body, err := i.fetch(req)
		if err != nil {
			i.setState(StateIdle)
			return fmt.Errorf("install %s: %w", path, err)
		}
		if !ok(resp.StatusCode) {
			i.setState(StateIdle)
			return fmt.Errorf("install %s: unexpected status %d", path, resp.StatusCode)
		}

		entries[cacheKey(req)] = &Entry{
			Status:   resp.StatusCode,
			Header:   resp.Header.Clone(),
			Body:     body,
			StoredAt: i.now(),
		}
	}

	for key, e := range entries {
		if err := i.cache.Put(ctx, i.pools.Static, key, e); err != nil {
			i.setState(StateIdle)
			return fmt.Errorf("install: %w", err)
		}
	}

	i.log.Info("static pool populated",
		slog.String("pool", i.pools.Static),
		slog.Int("entries", len(entries)))
	i.setState(StateWaiting)
	return nil
}

// Activate удаляет пулы других версий и начинает перехват запросов
func (i *Interceptor) Activate(ctx context.Context) error {
	pools, err := i.cache.Pools(ctx)
	if err != nil {
		return fmt.Errorf("activate: %w", err)
	}

	for _, name := range pools {
		if i.pools.Current(name) {
			continue
		}
		if err := i.cache.DeletePool(ctx, name); err != nil {
			return fmt.Errorf("activate: delete pool %s: %w", name, err)
		}
		i.log.Info("stale cache pool removed", slog.String("pool", name))
	}

	i.setState(StateActive)
	return nil
}

// Start устанавливает и сразу активирует перехватчик, не дожидаясь освобождения
// старой версии. Ошибка установки (например, нет сети при запуске) не мешает
// активации: запросы обслуживаются из уже накопленного кэша текущей версии.
func (i *Interceptor) Start(ctx context.Context, base *url.URL, manifest []string) error {
	if err := i.Install(ctx, base, manifest); err != nil {
		i.log.Warn("install failed, activating with existing cache", slog.String("error", err.Error()))
	}
	return i.Activate(ctx)
}

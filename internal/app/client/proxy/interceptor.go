// Package proxy - слой перехвата запросов клиента: выбирает стратегию кэширования
// для каждого запроса, ведет версионированные пулы кэша и отдает офлайн-ответы,
// когда сеть недоступна.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"
)

// State состояние жизненного цикла перехватчика
type State int

const (
	StateIdle State = iota
	StateInstalling
	StateWaiting
	StateActive
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateWaiting:
		return "waiting"
	case StateActive:
		return "active"
	default:
		return "idle"
	}
}

// Interceptor - http.RoundTripper, который применяет стратегию кэширования к каждому
// запросу. До активации запросы проходят в сеть без изменений.
type Interceptor struct {
	next   http.RoundTripper
	cache  Cache
	pools  Pools
	routes []Route
	log    *slog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state State

	revalidate singleflight.Group
	wg         sync.WaitGroup
}

// NewInterceptor создает перехватчик поверх транспорта next с пулами версии version
func NewInterceptor(next http.RoundTripper, cache Cache, version int, log *slog.Logger) *Interceptor {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Interceptor{
		next:   next,
		cache:  cache,
		pools:  PoolsFor(version),
		routes: DefaultRoutes,
		log:    log.With(slog.String("component", "proxy")),
		now:    time.Now,
	}
}

// Pools имена пулов текущей версии
func (i *Interceptor) Pools() Pools {
	return i.pools
}

func (i *Interceptor) State() State {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

func (i *Interceptor) setState(s State) {
	i.mu.Lock()
	prev := i.state
	i.state = s
	i.mu.Unlock()
	if prev != s {
		i.log.Debug("lifecycle", slog.String("from", prev.String()), slog.String("to", s.String()))
	}
}

// Wait дожидается фоновых обновлений кэша
func (i *Interceptor) Wait() {
	i.wg.Wait()
}

func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	if i.State() != StateActive || ignored(req) {
		return i.next.RoundTrip(req)
	}

	if req.Method != http.MethodGet {
		resp, err := i.next.RoundTrip(req)
		if err != nil {
			return i.fallback(req, err), nil
		}
		return resp, nil
	}

	strategy := Classify(i.routes, cacheKey(req))

	var (
		resp *http.Response
		err  error
	)
	switch strategy {
	case CacheFirst:
		resp, err = i.cacheFirst(req)
	case NetworkFirst:
		resp, err = i.networkFirst(req)
	default:
		resp, err = i.staleWhileRevalidate(req)
	}
	if err != nil {
		return i.fallback(req, err), nil
	}
	return resp, nil
}

// cacheFirst отдает кэш, если он есть; иначе идет в сеть и кладет успешный ответ в статический пул
func (i *Interceptor) cacheFirst(req *http.Request) (*http.Response, error) {
	key := cacheKey(req)
	if e := i.match(req.Context(), key); e != nil {
		return responseFromEntry(req, e), nil
	}

	resp, body, err := i.fetch(req)
	if err != nil {
		return nil, err
	}
	if ok(resp.StatusCode) {
		i.store(req.Context(), i.pools.Static, key, resp, body)
	}
	return resp, nil
}

// networkFirst идет в сеть; при ошибке сети отдает кэш этого же запроса
func (i *Interceptor) networkFirst(req *http.Request) (*http.Response, error) {
	key := cacheKey(req)

	resp, body, err := i.fetch(req)
	if err != nil {
		if e := i.match(req.Context(), key); e != nil {
			i.log.Debug("network failed, serving cache", slog.String("url", key))
			return responseFromEntry(req, e), nil
		}
		return nil, err
	}

	if ok(resp.StatusCode) {
		pool := i.pools.Dynamic
		if strings.Contains(key, "/api/") {
			pool = i.pools.API
		}
		i.store(req.Context(), pool, key, resp, body)
	}
	return resp, nil
}

// staleWhileRevalidate отдает кэш сразу и обновляет его в фоне; без кэша ждет сеть
func (i *Interceptor) staleWhileRevalidate(req *http.Request) (*http.Response, error) {
	key := cacheKey(req)

	if e := i.match(req.Context(), key); e != nil {
		i.revalidateAsync(req, key)
		return responseFromEntry(req, e), nil
	}

	resp, body, err := i.fetch(req)
	if err != nil {
		return nil, err
	}
	if ok(resp.StatusCode) {
		i.store(req.Context(), i.pools.Dynamic, key, resp, body)
	}
	return resp, nil
}

func (i *Interceptor) revalidateAsync(req *http.Request, key string) {
	// клиент может уже получить ответ и отменить свой контекст
	bg := req.Clone(context.WithoutCancel(req.Context()))

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		_, _, _ = i.revalidate.Do(key, func() (any, error) {
			resp, body, err := i.fetch(bg)
			if err != nil {
				i.log.Debug("background revalidation failed",
					slog.String("url", key),
					slog.String("error", err.Error()))
				return nil, err
			}
			if ok(resp.StatusCode) {
				i.store(bg.Context(), i.pools.Dynamic, key, resp, body)
			}
			return nil, nil
		})
	}()
}

// fetch выполняет запрос и вычитывает тело, чтобы его можно было и сохранить, и вернуть
func (i *Interceptor) fetch(req *http.Request) (*http.Response, []byte, error) {
	resp, err := i.next.RoundTrip(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, body, nil
}

func (i *Interceptor) match(ctx context.Context, key string) *Entry {
	e, err := i.cache.Match(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			i.log.Warn("cache lookup failed", slog.String("url", key), slog.String("error", err.Error()))
		}
		return nil
	}
	return e
}

func (i *Interceptor) store(ctx context.Context, pool, key string, resp *http.Response, body []byte) {
	e := &Entry{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: i.now(),
	}
	if err := i.cache.Put(ctx, pool, key, e); err != nil {
		i.log.Warn("cache write failed",
			slog.String("pool", pool),
			slog.String("url", key),
			slog.String("error", err.Error()))
	}
}

func ok(status int) bool {
	return status >= 200 && status < 300
}

func responseFromEntry(req *http.Request, e *Entry) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// ignored - запросы, которые отдаются сети без перехвата: служебные запросы
// роутера фронтенда и prefetch без назначения
func ignored(req *http.Request) bool {
	if strings.Contains(req.URL.Path, "/_next/") && req.URL.Query().Has("__rsc") {
		return true
	}

	dest := req.Header.Get("Sec-Fetch-Dest")
	noDest := dest == "" || dest == "empty"
	return noDest && (isNavigation(req) || isPrefetch(req))
}

func isNavigation(req *http.Request) bool {
	return req.Header.Get("Sec-Fetch-Mode") == "navigate"
}

func isPrefetch(req *http.Request) bool {
	purpose := req.Header.Get("Sec-Purpose")
	if purpose == "" {
		purpose = req.Header.Get("Purpose")
	}
	return strings.Contains(purpose, "prefetch")
}

package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// Entry сохраненный HTTP-ответ
type Entry struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Cache долговременный кэш ответов, разделенный на именованные пулы
type Cache interface {
	// Match ищет ответ по ключу во всех пулах
	Match(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, pool, key string, e *Entry) error
	Pools(ctx context.Context) ([]string, error)
	DeletePool(ctx context.Context, pool string) error
}

// Pools имена пулов текущей версии
type Pools struct {
	Static  string
	Dynamic string
	API     string
}

// PoolsFor возвращает имена пулов для версии сборки: static-vN, dynamic-vN, api-vN
func PoolsFor(version int) Pools {
	return Pools{
		Static:  fmt.Sprintf("static-v%d", version),
		Dynamic: fmt.Sprintf("dynamic-v%d", version),
		API:     fmt.Sprintf("api-v%d", version),
	}
}

// Current сообщает, принадлежит ли пул текущей версии
func (p Pools) Current(name string) bool {
	return name == p.Static || name == p.Dynamic || name == p.API
}

// MemoryCache реализация Cache в памяти. Используется, когда локальное
// хранилище недоступно.
type MemoryCache struct {
	mu    sync.RWMutex
	pools map[string]map[string]*Entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{pools: make(map[string]map[string]*Entry)}
}

func (c *MemoryCache) Match(_ context.Context, key string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var found *Entry
	for _, pool := range c.pools {
		if e, ok := pool[key]; ok && (found == nil || e.StoredAt.After(found.StoredAt)) {
			found = e
		}
	}
	if found == nil {
		return nil, ErrCacheMiss
	}
	return cloneEntry(found), nil
}

func (c *MemoryCache) Put(_ context.Context, pool, key string, e *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pools[pool] == nil {
		c.pools[pool] = make(map[string]*Entry)
	}
	c.pools[pool][key] = cloneEntry(e)
	return nil
}

func (c *MemoryCache) Pools(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.pools))
	for name := range c.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (c *MemoryCache) DeletePool(_ context.Context, pool string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pools, pool)
	return nil
}

func cloneEntry(e *Entry) *Entry {
	body := make([]byte, len(e.Body))
	copy(body, e.Body)
	return &Entry{
		Status:   e.Status,
		Header:   e.Header.Clone(),
		Body:     body,
		StoredAt: e.StoredAt,
	}
}

// cacheKey ключ кэша: полный URL запроса
func cacheKey(r *http.Request) string {
	u := *r.URL
	if u.Host == "" {
		u.Host = r.Host
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	u.Fragment = ""
	return u.String()
}

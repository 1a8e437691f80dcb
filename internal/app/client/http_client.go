package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"anchorview/internal/domain/entity"
	"anchorview/internal/domain/reconcile"
	"anchorview/internal/domain/session"

	"golang.org/x/exp/slog"
)

// ErrUnauthorized сервер отклонил токен
var ErrUnauthorized = errors.New("требуется вход: токен отсутствует или истек")

// HTTPClient удаленное хранилище поверх HTTP API сервера
type HTTPClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	userAgent string

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, log *slog.Logger) *HTTPClient {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	return &HTTPClient{
		client:    client,
		log:       log.With(slog.String("component", "http_client")),
		baseURL:   baseURL,
		userAgent: "AnchorView-Client/1.0",
	}
}

// SetToken устанавливает токен аутентификации
func (h *HTTPClient) SetToken(token string) {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

func (h *HTTPClient) bearer() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// HealthCheck проверяет доступность сервера
func (h *HTTPClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}

	return nil
}

type itemBody struct {
	Item json.RawMessage `json:"item"`
}

type listBody struct {
	Items []json.RawMessage `json:"items"`
}

func entityPath(kind entity.Kind, parts ...string) string {
	p := "/api/entities/" + url.PathEscape(string(kind))
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// Find ищет запись по id или естественному ключу
func (h *HTTPClient) Find(ctx context.Context, kind entity.Kind, m reconcile.Matcher) (entity.Entity, error) {
	var out itemBody
	if err := h.call(ctx, http.MethodPost, entityPath(kind, "find"), m, &out); err != nil {
		return nil, err
	}
	return entity.Decode(kind, out.Item)
}

// Create создает запись на сервере
func (h *HTTPClient) Create(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	var out itemBody
	if err := h.call(ctx, http.MethodPost, entityPath(e.EntityKind()), e, &out); err != nil {
		return nil, err
	}
	return entity.Decode(e.EntityKind(), out.Item)
}

// Update перезаписывает запись с указанным id
func (h *HTTPClient) Update(ctx context.Context, id string, e entity.Entity) (entity.Entity, error) {
	var out itemBody
	if err := h.call(ctx, http.MethodPut, entityPath(e.EntityKind(), id), e, &out); err != nil {
		return nil, err
	}
	return entity.Decode(e.EntityKind(), out.Item)
}

// Delete удаляет запись
func (h *HTTPClient) Delete(ctx context.Context, kind entity.Kind, id string) error {
	return h.call(ctx, http.MethodDelete, entityPath(kind, id), nil, nil)
}

// List возвращает записи типа kind по фильтру
func (h *HTTPClient) List(ctx context.Context, kind entity.Kind, f entity.Filter) ([]entity.Entity, error) {
	q := url.Values{}
	if f.CompanyID != "" {
		q.Set("companyId", f.CompanyID)
	}
	if f.ProjectID != "" {
		q.Set("projectId", f.ProjectID)
	}
	if f.ParentID != "" {
		q.Set("parentId", f.ParentID)
	}
	if f.IncludeArchived {
		q.Set("includeArchived", "true")
	}

	path := entityPath(kind)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out listBody
	if err := h.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	list := make([]entity.Entity, 0, len(out.Items))
	for _, raw := range out.Items {
		e, err := entity.Decode(kind, raw)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, nil
}

// RequestSyncToken получает токен синхронизации по email и паролю и
// запоминает его для последующих запросов
func (h *HTTPClient) RequestSyncToken(ctx context.Context, email, password string, ttl time.Duration) (*session.TokenResponse, error) {
	req := session.TokenRequest{
		Email:          email,
		Password:       password,
		ExpiresInHours: int(ttl / time.Hour),
	}

	var out session.TokenResponse
	if err := h.call(ctx, http.MethodPost, "/api/auth/sync-token", req, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.Token == "" {
		return nil, fmt.Errorf("ошибка получения токена: %s", out.Error)
	}

	h.SetToken(out.Token)
	return &out, nil
}

// SyncStatus количество изменений на сервере после since
func (h *HTTPClient) SyncStatus(ctx context.Context, since time.Time) (*reconcile.ServerStatus, error) {
	path := "/api/sync/status"
	if !since.IsZero() {
		path += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}

	var out reconcile.ServerStatus
	if err := h.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HTTPClient) call(ctx context.Context, method, path string, body, result any) error {
	resp, err := h.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, result)
}

func (h *HTTPClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := h.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	h.log.Debug("Отправка запроса",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return resp, nil
}

func (h *HTTPClient) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("Получен ответ",
		"status", resp.StatusCode,
		"bytes", len(body),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return reconcile.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= 400:
		var errResp struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
			Title  string `json:"title"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil {
			for _, msg := range []string{errResp.Error, errResp.Detail, errResp.Title} {
				if msg != "" {
					return fmt.Errorf("ошибка сервера: %s", msg)
				}
			}
		}
		return fmt.Errorf("ошибка сервера: статус %d", resp.StatusCode)
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}

	return nil
}

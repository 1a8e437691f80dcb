package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/exp/slog"
)

const (
	rootPath    = "/"
	offlinePath = "/offline"

	offlineNavigationBody = "App offline - Recarregue quando tiver conexão"
	offlineResourceBody   = "Recurso não disponível offline"
	offlineAPIError       = "Offline - dados não disponíveis"
)

// OfflineError тело ответа API, когда сеть и кэш недоступны
type OfflineError struct {
	Error     string `json:"error"`
	Offline   bool   `json:"offline"`
	Timestamp int64  `json:"timestamp"`
}

// fallback строит ответ после того, как стратегия исчерпала варианты
func (i *Interceptor) fallback(req *http.Request, cause error) *http.Response {
	i.log.Debug("serving offline fallback",
		slog.String("url", cacheKey(req)),
		slog.String("error", cause.Error()))

	if isNavigation(req) {
		for _, path := range []string{rootPath, offlinePath} {
			if e := i.match(req.Context(), keyForPath(req, path)); e != nil {
				return responseFromEntry(req, e)
			}
		}
		return synthesized(req, "text/html; charset=utf-8", []byte(offlineNavigationBody))
	}

	if strings.HasPrefix(req.URL.Path, "/api/") {
		body, _ := json.Marshal(OfflineError{
			Error:     offlineAPIError,
			Offline:   true,
			Timestamp: i.now().UnixMilli(),
		})
		return synthesized(req, "application/json", body)
	}

	return synthesized(req, "text/plain; charset=utf-8", []byte(offlineResourceBody))
}

func synthesized(req *http.Request, contentType string, body []byte) *http.Response {
	status := http.StatusServiceUnavailable
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": {contentType}},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// keyForPath ключ кэша для другого пути на том же хосте
func keyForPath(req *http.Request, path string) string {
	u := *req.URL
	u.Path = path
	u.RawPath = ""
	u.RawQuery = ""
	r := &http.Request{URL: &u, Host: req.Host}
	return cacheKey(r)
}

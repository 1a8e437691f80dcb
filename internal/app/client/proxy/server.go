package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"
)

// NewHandler собирает обработчик локального прокси: поток событий и обратный
// прокси к приложению, все запросы которого проходят через перехватчик
func NewHandler(upstream *url.URL, interceptor *Interceptor, hub *Hub, log *slog.Logger) http.Handler {
	rp := httputil.NewSingleHostReverseProxy(upstream)
	rp.Transport = interceptor
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadGateway)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(EventsPath, hub.ServeHTTP)
	r.Handle("/*", rp)

	return r
}

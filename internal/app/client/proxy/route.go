package proxy

import (
	"regexp"
)

// Strategy стратегия обработки запроса
type Strategy string

const (
	CacheFirst           Strategy = "cache-first"
	NetworkFirst         Strategy = "network-first"
	StaleWhileRevalidate Strategy = "stale-while-revalidate"
)

// Route сопоставление шаблона URL и стратегии
type Route struct {
	Pattern  *regexp.Regexp
	Strategy Strategy
}

// DefaultRoutes упорядоченный список маршрутов; побеждает первый совпавший
var DefaultRoutes = []Route{
	{Pattern: regexp.MustCompile(`/_next/static/`), Strategy: CacheFirst},
	{Pattern: regexp.MustCompile(`\.(?:png|jpg|jpeg|svg|gif|webp)$`), Strategy: CacheFirst},
	{Pattern: regexp.MustCompile(`/api/auth/`), Strategy: NetworkFirst},
	{Pattern: regexp.MustCompile(`/api/`), Strategy: NetworkFirst},
	{Pattern: regexp.MustCompile(`/$`), Strategy: CacheFirst},
}

// DefaultManifest основные адреса, которые кладутся в статический пул при установке.
// Пути сборки приложения заменяются через PRECACHE_URLS в конфигурации клиента.
var DefaultManifest = []string{
	"/",
	"/auth/login",
	"/auth/register",
	"/offline",
	"/manifest.json",
	"/icon-192.png",
	"/icon-512.png",
	"/_next/static/css/app/layout.css",
	"/_next/static/chunks/webpack.js",
	"/_next/static/chunks/main.js",
}

// ManifestOrDefault возвращает paths или DefaultManifest, если paths пуст
func ManifestOrDefault(paths []string) []string {
	if len(paths) == 0 {
		return DefaultManifest
	}
	return paths
}

// Classify выбирает стратегию для полного URL запроса
func Classify(routes []Route, rawURL string) Strategy {
	for _, r := range routes {
		if r.Pattern.MatchString(rawURL) {
			return r.Strategy
		}
	}
	return StaleWhileRevalidate
}

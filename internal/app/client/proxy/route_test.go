package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Strategy
	}{
		{url: "http://app.local/_next/static/chunks/main.js", want: CacheFirst},
		{url: "http://app.local/icon-192.png", want: CacheFirst},
		{url: "http://app.local/uploads/floor.webp", want: CacheFirst},
		{url: "http://app.local/uploads/floor.webp?v=2", want: StaleWhileRevalidate},
		{url: "http://app.local/api/auth/session", want: NetworkFirst},
		{url: "http://app.local/api/projects", want: NetworkFirst},
		{url: "http://app.local/api/", want: NetworkFirst},
		{url: "http://app.local/", want: CacheFirst},
		{url: "http://app.local/projects/", want: CacheFirst},
		{url: "http://app.local/projects", want: StaleWhileRevalidate},
		{url: "http://app.local/manifest.json", want: StaleWhileRevalidate},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(DefaultRoutes, tt.url))
		})
	}
}

func TestManifestOrDefault(t *testing.T) {
	assert.Equal(t, DefaultManifest, ManifestOrDefault(nil))
	assert.Subset(t, DefaultManifest, []string{
		"/offline",
		"/_next/static/css/app/layout.css",
		"/_next/static/chunks/webpack.js",
		"/_next/static/chunks/main.js",
	})
	assert.Equal(t, []string{"/", "/app.css"}, ManifestOrDefault([]string{"/", "/app.css"}))
}

func TestPoolsFor(t *testing.T) {
	p := PoolsFor(4)

	assert.Equal(t, Pools{Static: "static-v4", Dynamic: "dynamic-v4", API: "api-v4"}, p)
	assert.True(t, p.Current("api-v4"))
	assert.False(t, p.Current("api-v3"))
}

package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	values map[string]string
}

func (m *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.values[key] = value
	return nil
}

const articlePage = `<html><head>
<title>Fallback title</title>
<meta property="og:title" content="Titular OG">
<meta name="description" content="Descripción meta">
<meta property="og:image" content="/img/portada.jpg">
<meta property="og:site_name" content="El Diario">
<meta name="author" content="Ana Pérez">
<meta property="og:type" content="article">
</head><body><p>cuerpo</p></body></html>`

func TestMetadataFetchPage(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, articlePage)
	}))
	defer srv.Close()

	cache := &mapCache{values: map[string]string{}}
	svc := NewMetadataService(cache, MetadataOptions{HTTPClient: srv.Client()})

	meta, err := svc.Fetch(context.Background(), srv.URL+"/noticia")
	require.NoError(t, err)
	assert.Equal(t, "Titular OG", meta.Title)
	assert.Equal(t, "Descripción meta", meta.Description)
	assert.Equal(t, srv.URL+"/img/portada.jpg", meta.Image)
	assert.Equal(t, "El Diario", meta.SiteName)
	assert.Equal(t, "Ana Pérez", meta.Author)
	assert.Equal(t, "article", meta.Type)

	again, err := svc.Fetch(context.Background(), srv.URL+"/noticia")
	require.NoError(t, err)
	assert.Equal(t, meta, again)
	assert.Equal(t, 1, hits, "second lookup served from cache")
}

func TestMetadataFetchTweet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://x.com/diario/status/123", r.URL.Query().Get("url"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"author_name":"Diario","author_url":"https://twitter.com/diario","provider_name":"Twitter","html":"<blockquote class=\"twitter-tweet\"><p lang=\"es\">Última hora</p>&mdash; Diario</blockquote>"}`)
	}))
	defer srv.Close()

	svc := NewMetadataService(nil, MetadataOptions{HTTPClient: srv.Client(), OEmbedURL: srv.URL})
	meta, err := svc.Fetch(context.Background(), "https://x.com/diario/status/123")
	require.NoError(t, err)
	assert.Equal(t, "twitter", meta.Type)
	assert.Equal(t, "Post de Diario", meta.Title)
	assert.Equal(t, "Última hora", meta.Description)
	assert.Equal(t, "Diario", meta.Author)
	assert.Contains(t, meta.HTML, "twitter-tweet")
}

func TestMetadataRejectsInvalidURL(t *testing.T) {
	svc := NewMetadataService(nil, MetadataOptions{})
	for _, raw := range []string{"", "notaurl", "ftp://host/file", "https://"} {
		_, err := svc.Fetch(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidURL, raw)
	}
}

func TestIsTwitterStatus(t *testing.T) {
	tests := map[string]bool{
		"https://twitter.com/a/status/1":        true,
		"https://www.x.com/a/status/1":          true,
		"https://mobile.twitter.com/a/status/1": true,
		"https://x.com/a":                       false,
		"https://example.com/status/1":          false,
	}
	for raw, want := range tests {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, want, IsTwitterStatus(u), raw)
	}
}

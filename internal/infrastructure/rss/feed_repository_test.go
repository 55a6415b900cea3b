package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referent/internal/infrastructure/html"
)

func serveFeed(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

const newsRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Лента новостей</title>
  <item>
    <title>  Запуск нового спутника  </title>
    <link> https://news.example.org/space/42 </link>
    <guid isPermaLink="false">news-42</guid>
    <pubDate>Wed, 01 May 2024 09:30:00 GMT</pubDate>
  </item>
  <item>
    <title>Итоги недели</title>
    <link>https://news.example.org/weekly/7</link>
    <pubDate>Fri, 03 May 2024 18:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Черновик без даты</title>
    <link>https://news.example.org/draft</link>
    <guid>draft-1</guid>
  </item>
</channel>
</rss>`

func TestFetch_RSS(t *testing.T) {
	server := serveFeed(t, "application/rss+xml", newsRSS)

	entries, err := NewFeedRepository(nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, entries, 2, "entries without a date are skipped")

	first := entries[0]
	assert.Equal(t, "Запуск нового спутника", first.Title)
	assert.Equal(t, "https://news.example.org/space/42", first.Link)
	assert.Equal(t, "news-42", first.GUID)
	assert.True(t, first.Published.Equal(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)))

	assert.Equal(t, "https://news.example.org/weekly/7", entries[1].GUID, "missing GUID falls back to the link")
}

func TestFetch_AtomUsesUpdated(t *testing.T) {
	atom := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Блог</title>
  <id>urn:blog</id>
  <updated>2024-06-10T12:00:00Z</updated>
  <entry>
    <title>Заметка</title>
    <id>urn:blog:note-1</id>
    <link href="https://blog.example.org/note-1"/>
    <updated>2024-06-10T12:00:00Z</updated>
  </entry>
</feed>`
	server := serveFeed(t, "application/atom+xml", atom)

	entries, err := NewFeedRepository(nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "urn:blog:note-1", entries[0].GUID)
	assert.Equal(t, "https://blog.example.org/note-1", entries[0].Link)
	assert.True(t, entries[0].Published.Equal(time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)))
}

func TestFetch_SendsUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(newsRSS))
	}))
	defer server.Close()

	_, err := NewFeedRepository(&http.Client{Timeout: 5 * time.Second}).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, html.DefaultUserAgent, got)
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name string
		url  func(t *testing.T) string
	}{
		{"unreachable", func(*testing.T) string { return "http://127.0.0.1:1/feed" }},
		{"not a feed", func(t *testing.T) string {
			return serveFeed(t, "text/html", "<html><body>nope</body></html>").URL
		}},
		{"server error", func(t *testing.T) string {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			t.Cleanup(server.Close)
			return server.URL
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFeedRepository(nil).Fetch(context.Background(), tt.url(t))
			assert.Error(t, err)
		})
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	server := serveFeed(t, "application/rss+xml", newsRSS)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFeedRepository(nil).Fetch(ctx, server.URL)
	assert.Error(t, err)
}

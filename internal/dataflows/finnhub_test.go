package dataflows

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFinnhub(t *testing.T, h http.HandlerFunc, cache *CacheManager) *FinnhubClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	fc := NewFinnhubClient("secret", srv.URL, cache)
	fc.retry = &RetryConfig{MaxRetries: 0}
	return fc
}

func TestFinnhubNotConfigured(t *testing.T) {
	fc := NewFinnhubClient("", "http://127.0.0.1:1", nil)
	assert.False(t, fc.Configured())
	_, err := fc.GetCompanyNews(context.Background(), "AAPL", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFinnhubCompanyNews(t *testing.T) {
	var hits atomic.Int32
	fc := newTestFinnhub(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/company-news", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "2024-06-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2024-06-08", r.URL.Query().Get("to"))
		_, _ = w.Write([]byte(`[{"category":"company","datetime":1717804800,"headline":"Apple unveils","related":"AAPL","source":"Reuters","summary":"WWDC preview","url":"https://example.com/a"}]`))
	}, NewCacheManager(t.TempDir(), time.Hour, true))

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)
	news, err := fc.GetCompanyNews(context.Background(), "aapl", from, to)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "Apple unveils", news[0].Title)
	assert.Equal(t, "WWDC preview", news[0].Content)
	assert.Equal(t, "Reuters", news[0].Source)
	assert.Equal(t, "2024-06-08", news[0].PublishedAt.Format(dateLayout))

	// second call is served from the cache
	_, err = fc.GetCompanyNews(context.Background(), "AAPL", from, to)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFinnhubUnauthorizedIsPermanent(t *testing.T) {
	var hits atomic.Int32
	fc := newTestFinnhub(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}, nil)
	fc.retry = &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	_, err := fc.GetInsiderSentiment(context.Background(), "AAPL", time.Now().AddDate(0, -3, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Equal(t, int32(1), hits.Load())
}

func TestFinnhubInsiderSentiment(t *testing.T) {
	fc := newTestFinnhub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/insider-sentiment", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"symbol":"AAPL","year":2024,"month":5,"change":-1200,"mspr":-12.5}],"symbol":"AAPL"}`))
	}, nil)

	data, err := fc.GetInsiderSentiment(context.Background(), "AAPL", time.Now().AddDate(0, -3, 0), time.Now())
	require.NoError(t, err)
	require.Len(t, data, 1)
	assert.Equal(t, 2024, data[0].Year)
	assert.Equal(t, int64(-1200), data[0].Change)
	assert.Equal(t, "-12.5000", data[0].MSPR.StringFixed(4))
}

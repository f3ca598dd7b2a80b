package dataflows

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const googleNewsFixture = `<html><body>
<div class="SoaBEf">
  <a href="/url?q=https://example.com/tsla-deliveries&amp;sa=U"></a>
  <div class="MBeuO">Tesla deliveries beat estimates</div>
  <div class="GI74Re">Deliveries rose 10% in the quarter.</div>
  <div class="NUnG9d"><span>Reuters</span></div>
  <div class="LfVVr">3 hours ago</div>
</div>
<div class="SoaBEf">
  <a href="https://example.com/tsla-recall"></a>
  <div class="MBeuO">Tesla recall widens</div>
  <div class="GI74Re">Regulators expand the inquiry.</div>
  <div class="NUnG9d"><span>Bloomberg</span></div>
  <div class="LfVVr">Jun 3, 2024</div>
</div>
<div class="SoaBEf"><div class="GI74Re">untitled card</div></div>
</body></html>`

func TestGetGoogleNews(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		pages = append(pages, q.Get("start"))
		assert.Equal(t, "nws", q.Get("tbm"))
		assert.Equal(t, "cdr:1,cd_min:06/01/2024,cd_max:06/08/2024", q.Get("tbs"))
		if q.Get("start") != "0" {
			_, _ = w.Write([]byte("<html><body></body></html>"))
			return
		}
		_, _ = w.Write([]byte(googleNewsFixture))
	}))
	defer srv.Close()

	now := time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC)
	ns := NewNewsScraperClient(nil, srv.URL)
	ns.retry = &RetryConfig{MaxRetries: 0}
	ns.now = func() time.Time { return now }

	articles, err := ns.GetGoogleNews(context.Background(), GoogleNewsParams{
		Query:     "TSLA",
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "10"}, pages, "paging stops at the first empty page")
	require.Len(t, articles, 2)

	assert.Equal(t, "Tesla deliveries beat estimates", articles[0].Title)
	assert.Equal(t, "https://example.com/tsla-deliveries", articles[0].URL)
	assert.Equal(t, "Reuters", articles[0].Source)
	assert.Equal(t, "Deliveries rose 10% in the quarter.", articles[0].Content)
	assert.Equal(t, now.Add(-3*time.Hour), articles[0].PublishedAt)

	assert.Equal(t, "https://example.com/tsla-recall", articles[1].URL)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), articles[1].PublishedAt)
}

func TestGetGoogleNewsEmptyQuery(t *testing.T) {
	ns := NewNewsScraperClient(nil, "http://127.0.0.1:1")
	_, err := ns.GetGoogleNews(context.Background(), GoogleNewsParams{Query: " "})
	assert.Error(t, err)
}

func TestParseRelativeTime(t *testing.T) {
	now := time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		text string
		want time.Time
	}{
		{"5 mins ago", now.Add(-5 * time.Minute)},
		{"1 hour ago", now.Add(-time.Hour)},
		{"2 days ago", now.AddDate(0, 0, -2)},
		{"3 weeks ago", now.AddDate(0, 0, -21)},
		{"1 month ago", now.AddDate(0, -1, 0)},
		{"Mar 14, 2024", time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"yesterday-ish", now},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRelativeTime(now, tt.text))
		})
	}
}

func TestCleanGoogleURL(t *testing.T) {
	assert.Equal(t, "https://a.example/x", cleanGoogleURL("/url?q=https://a.example/x&sa=U"))
	assert.Equal(t, "https://b.example/y", cleanGoogleURL("https://b.example/y"))
}

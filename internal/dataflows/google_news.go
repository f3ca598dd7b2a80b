package dataflows

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const defaultGoogleSearchURL = "https://www.google.com/search"

// NewsScraperClient scrapes Google's news search vertical.
type NewsScraperClient struct {
	client    *resty.Client
	searchURL string
	cache     *CacheManager
	retry     *RetryConfig
	now       func() time.Time
}

func NewNewsScraperClient(cache *CacheManager, searchURL string) *NewsScraperClient {
	if searchURL == "" {
		searchURL = defaultGoogleSearchURL
	}
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", yahooUserAgent)

	return &NewsScraperClient{
		client:    client,
		searchURL: searchURL,
		cache:     cache,
		retry:     &RetryConfig{MaxRetries: 2, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second, Multiplier: 2},
		now:       time.Now,
	}
}

// GoogleNewsParams represents parameters for Google News search
type GoogleNewsParams struct {
	Query     string    `json:"query"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	MaxPages  int       `json:"max_pages"`
}

// GetGoogleNews pages through results for the query within the date range.
func (ns *NewsScraperClient) GetGoogleNews(ctx context.Context, params GoogleNewsParams) ([]*NewsArticle, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if params.MaxPages <= 0 {
		params.MaxPages = 3
	}

	var cached []*NewsArticle
	if ns.cache.Get("google_news", "search", params, &cached) {
		return cached, nil
	}

	var result []*NewsArticle
	for page := 0; page < params.MaxPages; page++ {
		var batch []*NewsArticle
		err := WithRetry(ctx, ns.retry, func() error {
			resp, err := ns.client.R().
				SetContext(ctx).
				SetQueryParams(ns.queryParams(params, page)).
				Get(ns.searchURL)
			if err != nil {
				return fmt.Errorf("fetch google news: %w", err)
			}
			if resp.StatusCode() == http.StatusTooManyRequests {
				return fmt.Errorf("google news rate limited")
			}
			if resp.StatusCode() != http.StatusOK {
				return Permanent(fmt.Errorf("google news status %d", resp.StatusCode()))
			}
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
			if err != nil {
				return Permanent(fmt.Errorf("parse google news html: %w", err))
			}
			batch = ns.parseResults(doc)
			return nil
		})
		if err != nil {
			if len(result) > 0 {
				break
			}
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		result = append(result, batch...)
	}

	ns.cache.Set("google_news", "search", params, result)
	return result, nil
}

func (ns *NewsScraperClient) queryParams(p GoogleNewsParams, page int) map[string]string {
	q := map[string]string{
		"q":     p.Query,
		"tbm":   "nws",
		"start": strconv.Itoa(page * 10),
	}
	if !p.StartDate.IsZero() && !p.EndDate.IsZero() {
		q["tbs"] = fmt.Sprintf("cdr:1,cd_min:%s,cd_max:%s",
			p.StartDate.Format("01/02/2006"), p.EndDate.Format("01/02/2006"))
	}
	return q
}

func (ns *NewsScraperClient) parseResults(doc *goquery.Document) []*NewsArticle {
	var articles []*NewsArticle
	doc.Find("div.SoaBEf").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Find("a").First().Attr("href")
		title := strings.TrimSpace(s.Find("div.MBeuO").Text())
		if title == "" {
			return
		}
		timeText := strings.TrimSpace(s.Find(".LfVVr").Text())
		articles = append(articles, &NewsArticle{
			Title:       title,
			Content:     strings.TrimSpace(s.Find(".GI74Re").Text()),
			URL:         cleanGoogleURL(href),
			Source:      strings.TrimSpace(s.Find(".NUnG9d span").Text()),
			PublishedAt: parseRelativeTime(ns.now(), timeText),
			Metadata: map[string]string{
				"scraper":   "google_news",
				"time_text": timeText,
			},
		})
	})
	return articles
}

// cleanGoogleURL removes the /url?q= redirect wrapper.
func cleanGoogleURL(href string) string {
	if strings.HasPrefix(href, "/url?") {
		if u, err := url.Parse(href); err == nil {
			if q := u.Query().Get("q"); q != "" {
				return q
			}
		}
	}
	return href
}

var relativeTimePattern = regexp.MustCompile(`(\d+)\s*(minute|min|hour|day|week|month)s?\s*ago`)

// parseRelativeTime converts "3 hours ago" style text; unknown text maps to now.
func parseRelativeTime(now time.Time, text string) time.Time {
	text = strings.TrimSpace(text)
	if t, err := time.Parse("Jan 2, 2006", text); err == nil {
		return t
	}
	text = strings.ToLower(text)
	m := relativeTimePattern.FindStringSubmatch(text)
	if len(m) != 3 {
		return now
	}
	n, _ := strconv.Atoi(m[1])
	switch m[2] {
	case "minute", "min":
		return now.Add(-time.Duration(n) * time.Minute)
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour)
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	case "month":
		return now.AddDate(0, -n, 0)
	}
	return now
}

package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultRedditBaseURL = "https://www.reddit.com"

// DefaultSubreddits are searched when the caller does not name any.
var DefaultSubreddits = []string{"stocks", "investing", "wallstreetbets", "StockMarket"}

// RedditClient searches subreddits through the public JSON listing.
type RedditClient struct {
	client *resty.Client
	cache  *CacheManager
	retry  *RetryConfig
}

func NewRedditClient(userAgent, baseURL string, cache *CacheManager) *RedditClient {
	if baseURL == "" {
		baseURL = defaultRedditBaseURL
	}
	if userAgent == "" {
		userAgent = "TradeCortex/1.0"
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(20 * time.Second)
	client.SetHeader("User-Agent", userAgent)

	return &RedditClient{
		client: client,
		cache:  cache,
		retry:  &RetryConfig{MaxRetries: 2, BaseDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 2},
	}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				URL         string  `json:"url"`
				Subreddit   string  `json:"subreddit"`
				Author      string  `json:"author"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
				Stickied    bool    `json:"stickied"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Search returns posts mentioning query posted on or before until, newest first per subreddit.
func (rc *RedditClient) Search(ctx context.Context, query string, subreddits []string, until time.Time, limit int) ([]*RedditPost, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("reddit query cannot be empty")
	}
	if len(subreddits) == 0 {
		subreddits = DefaultSubreddits
	}
	if limit <= 0 {
		limit = 10
	}

	key := map[string]any{"q": query, "subs": subreddits, "until": until.Format(dateLayout), "limit": limit}
	var cached []*RedditPost
	if rc.cache.Get("reddit", "search", key, &cached) {
		return cached, nil
	}

	var posts []*RedditPost
	for _, sub := range subreddits {
		var listing redditListing
		err := WithRetry(ctx, rc.retry, func() error {
			resp, err := rc.client.R().
				SetContext(ctx).
				SetQueryParams(map[string]string{
					"q":           query,
					"restrict_sr": "1",
					"sort":        "new",
					"t":           "month",
					"limit":       fmt.Sprint(limit),
				}).
				Get("/r/" + sub + "/search.json")
			if err != nil {
				return fmt.Errorf("reddit r/%s: %w", sub, err)
			}
			if resp.StatusCode() != http.StatusOK {
				return fmt.Errorf("reddit r/%s: status %d", sub, resp.StatusCode())
			}
			return json.Unmarshal(resp.Body(), &listing)
		})
		if err != nil {
			return nil, err
		}
		for _, c := range listing.Data.Children {
			d := c.Data
			created := time.Unix(int64(d.CreatedUTC), 0).UTC()
			if d.Stickied || (!until.IsZero() && created.After(until.AddDate(0, 0, 1))) {
				continue
			}
			posts = append(posts, &RedditPost{
				ID:        d.ID,
				Title:     d.Title,
				Content:   d.Selftext,
				URL:       d.URL,
				Subreddit: d.Subreddit,
				Author:    d.Author,
				Score:     d.Score,
				Comments:  d.NumComments,
				CreatedAt: created,
			})
		}
	}

	rc.cache.Set("reddit", "search", key, posts)
	return posts, nil
}

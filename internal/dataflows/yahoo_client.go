package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	defaultYahooBaseURL   = "https://query2.finance.yahoo.com"
	defaultYahooCookieURL = "https://fc.yahoo.com"
	yahooUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
)

// YahooClient talks to the Yahoo Finance JSON endpoints that finance-go does
// not cover (quoteSummary modules, search news, chart events).
type YahooClient struct {
	client    *resty.Client
	cookieURL string
	retry     *RetryConfig

	mu    sync.Mutex
	crumb string
}

type YahooOption func(*YahooClient)

func WithYahooBaseURL(u string) YahooOption {
	return func(c *YahooClient) { c.client.SetBaseURL(strings.TrimRight(u, "/")) }
}

func WithYahooCookieURL(u string) YahooOption {
	return func(c *YahooClient) { c.cookieURL = u }
}

func WithYahooRetry(r *RetryConfig) YahooOption {
	return func(c *YahooClient) { c.retry = r }
}

func NewYahooClient(opts ...YahooOption) *YahooClient {
	client := resty.New()
	client.SetBaseURL(defaultYahooBaseURL)
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", yahooUserAgent)

	c := &YahooClient{
		client:    client,
		cookieURL: defaultYahooCookieURL,
		retry:     DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ensureCrumb performs the cookie + crumb handshake once per client.
func (c *YahooClient) ensureCrumb(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crumb != "" {
		return c.crumb
	}

	// The cookie endpoint answers 404 but still sets the session cookie.
	_, _ = c.client.R().SetContext(ctx).Get(c.cookieURL)

	resp, err := c.client.R().SetContext(ctx).Get("/v1/test/getcrumb")
	if err != nil || resp.StatusCode() != http.StatusOK {
		return ""
	}
	c.crumb = strings.TrimSpace(resp.String())
	return c.crumb
}

func (c *YahooClient) resetCrumb() {
	c.mu.Lock()
	c.crumb = ""
	c.mu.Unlock()
}

func (c *YahooClient) getJSON(ctx context.Context, path string, query map[string]string, out any) error {
	return WithRetry(ctx, c.retry, func() error {
		req := c.client.R().SetContext(ctx).SetQueryParams(query)
		if crumb := c.ensureCrumb(ctx); crumb != "" {
			req.SetQueryParam("crumb", crumb)
		}
		resp, err := req.Get(path)
		if err != nil {
			return fmt.Errorf("yahoo request %s: %w", path, err)
		}
		switch {
		case resp.StatusCode() == http.StatusUnauthorized:
			c.resetCrumb()
			return fmt.Errorf("yahoo %s: unauthorized", path)
		case resp.StatusCode() == http.StatusNotFound:
			return Permanent(fmt.Errorf("yahoo %s: %w", path, ErrNoData))
		case resp.StatusCode() != http.StatusOK:
			return fmt.Errorf("yahoo %s: status %d", path, resp.StatusCode())
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return Permanent(fmt.Errorf("decode yahoo %s: %w", path, err))
		}
		return nil
	})
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]any `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// QuoteSummary returns the requested modules keyed by module name.
func (c *YahooClient) QuoteSummary(ctx context.Context, symbol string, modules ...string) (map[string]any, error) {
	var body quoteSummaryResponse
	path := "/v10/finance/quoteSummary/" + NormalizeSymbol(symbol)
	if err := c.getJSON(ctx, path, map[string]string{"modules": strings.Join(modules, ",")}, &body); err != nil {
		return nil, err
	}
	if e := body.QuoteSummary.Error; e != nil {
		return nil, fmt.Errorf("quoteSummary %s: %s", symbol, e.Description)
	}
	if len(body.QuoteSummary.Result) == 0 {
		return map[string]any{}, nil
	}
	return body.QuoteSummary.Result[0], nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp []int64 `json:"timestamp"`
			Events    struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

func (c *YahooClient) chart(ctx context.Context, symbol string, start, end time.Time, events string) (*chartResponse, error) {
	q := map[string]string{
		"period1":  strconv.FormatInt(start.Unix(), 10),
		"period2":  strconv.FormatInt(end.Unix(), 10),
		"interval": "1d",
	}
	if events != "" {
		q["events"] = events
	}
	var body chartResponse
	if err := c.getJSON(ctx, "/v8/finance/chart/"+NormalizeSymbol(symbol), q, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

// History implements PriceSource over the chart endpoint. end is exclusive.
func (c *YahooClient) History(ctx context.Context, symbol string, start, end time.Time) ([]MarketData, error) {
	body, err := c.chart(ctx, symbol, start, end, "")
	if err != nil {
		return nil, err
	}
	if len(body.Chart.Result) == 0 || len(body.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}
	r := body.Chart.Result[0]
	q := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	out := make([]MarketData, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		closePx := floatAt(q.Close, i)
		if closePx == nil {
			continue
		}
		bar := MarketData{
			Symbol:   NormalizeSymbol(symbol),
			Date:     time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:     decimalOf(floatAt(q.Open, i)),
			High:     decimalOf(floatAt(q.High, i)),
			Low:      decimalOf(floatAt(q.Low, i)),
			Close:    decimal.NewFromFloat(*closePx),
			AdjClose: decimal.NewFromFloat(*closePx),
		}
		if a := floatAt(adj, i); a != nil {
			bar.AdjClose = decimal.NewFromFloat(*a)
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		out = append(out, bar)
	}
	return out, nil
}

// Dividend is one cash distribution.
type Dividend struct {
	Date   time.Time
	Amount float64
}

// Dividends returns the full dividend history, oldest first.
func (c *YahooClient) Dividends(ctx context.Context, symbol string) ([]Dividend, error) {
	body, err := c.chart(ctx, symbol, time.Unix(0, 0), time.Now(), "div")
	if err != nil {
		return nil, err
	}
	if len(body.Chart.Result) == 0 {
		return nil, nil
	}
	var out []Dividend
	for _, d := range body.Chart.Result[0].Events.Dividends {
		out = append(out, Dividend{Date: time.Unix(d.Date, 0).UTC(), Amount: d.Amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// YahooNewsItem is one entry of the search news feed.
type YahooNewsItem struct {
	Title               string `json:"title"`
	Publisher           string `json:"publisher"`
	Link                string `json:"link"`
	ProviderPublishTime int64  `json:"providerPublishTime"`
	Summary             string `json:"summary"`
}

// News returns recent headlines for symbol.
func (c *YahooClient) News(ctx context.Context, symbol string, count int) ([]YahooNewsItem, error) {
	if count <= 0 {
		count = 10
	}
	var body struct {
		News []YahooNewsItem `json:"news"`
	}
	q := map[string]string{
		"q":           NormalizeSymbol(symbol),
		"quotesCount": "0",
		"newsCount":   strconv.Itoa(count),
	}
	if err := c.getJSON(ctx, "/v1/finance/search", q, &body); err != nil {
		return nil, err
	}
	return body.News, nil
}

// rawValue unwraps Yahoo's {"raw": .., "fmt": ..} number envelopes.
func rawValue(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if r, ok := m["raw"]; ok {
		return r
	}
	if f, ok := m["fmt"]; ok {
		return f
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func fmtValue(v any) string {
	if m, ok := v.(map[string]any); ok {
		if f, ok := m["fmt"].(string); ok && f != "" {
			return f
		}
	}
	return formatAny(rawValue(v))
}

func formatAny(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func module(summary map[string]any, name string) map[string]any {
	m, _ := summary[name].(map[string]any)
	return m
}

func floatAt(xs []*float64, i int) *float64 {
	if i >= len(xs) {
		return nil
	}
	return xs[i]
}

func decimalOf(f *float64) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*f)
}

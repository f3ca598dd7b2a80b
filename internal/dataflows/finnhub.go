package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const defaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient handles Finnhub API operations
type FinnhubClient struct {
	client *resty.Client
	cache  *CacheManager
	apiKey string
	retry  *RetryConfig
}

// NewFinnhubClient creates a new Finnhub client
func NewFinnhubClient(apiKey, baseURL string, cache *CacheManager) *FinnhubClient {
	if baseURL == "" {
		baseURL = defaultFinnhubBaseURL
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(30 * time.Second)

	return &FinnhubClient{
		client: client,
		cache:  cache,
		apiKey: apiKey,
		retry:  DefaultRetryConfig(),
	}
}

func (fc *FinnhubClient) Configured() bool {
	return fc != nil && fc.apiKey != ""
}

func (fc *FinnhubClient) get(ctx context.Context, path string, query map[string]string, out any) error {
	if !fc.Configured() {
		return fmt.Errorf("finnhub: %w", ErrNotConfigured)
	}
	return WithRetry(ctx, fc.retry, func() error {
		resp, err := fc.client.R().
			SetContext(ctx).
			SetQueryParams(query).
			SetQueryParam("token", fc.apiKey).
			Get(path)
		if err != nil {
			return fmt.Errorf("finnhub %s: %w", path, err)
		}
		switch resp.StatusCode() {
		case http.StatusOK:
		case http.StatusUnauthorized, http.StatusForbidden:
			return Permanent(fmt.Errorf("finnhub %s: status %d", path, resp.StatusCode()))
		default:
			return fmt.Errorf("finnhub %s: status %d: %s", path, resp.StatusCode(), resp.String())
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return Permanent(fmt.Errorf("decode finnhub %s: %w", path, err))
		}
		return nil
	})
}

// FinnhubNews represents news from Finnhub API
type FinnhubNews struct {
	Category string `json:"category"`
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// GetCompanyNews gets news articles for a specific company
func (fc *FinnhubClient) GetCompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]*NewsArticle, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)
	query := map[string]string{
		"symbol": symbol,
		"from":   from.Format(dateLayout),
		"to":     to.Format(dateLayout),
	}

	var cached []*NewsArticle
	if fc.cache.Get("finnhub", "company_news", query, &cached) {
		return cached, nil
	}

	var raw []FinnhubNews
	if err := fc.get(ctx, "/company-news", query, &raw); err != nil {
		return nil, err
	}
	result := make([]*NewsArticle, 0, len(raw))
	for _, n := range raw {
		result = append(result, &NewsArticle{
			Title:       n.Headline,
			Content:     n.Summary,
			URL:         n.URL,
			Source:      n.Source,
			PublishedAt: time.Unix(n.DateTime, 0).UTC(),
			Metadata:    map[string]string{"category": n.Category, "related": n.Related},
		})
	}
	fc.cache.Set("finnhub", "company_news", query, result)
	return result, nil
}

// FinnhubInsiderTransaction represents insider transaction data
type FinnhubInsiderTransaction struct {
	Symbol           string  `json:"symbol"`
	PersonName       string  `json:"name"`
	Share            int64   `json:"share"`
	Change           int64   `json:"change"`
	FilingDate       string  `json:"filingDate"`
	TransactionDate  string  `json:"transactionDate"`
	TransactionCode  string  `json:"transactionCode"`
	TransactionPrice float64 `json:"transactionPrice"`
}

// GetInsiderTransactions returns filings between from and to.
func (fc *FinnhubClient) GetInsiderTransactions(ctx context.Context, symbol string, from, to time.Time) ([]*InsiderTransaction, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)
	query := map[string]string{
		"symbol": symbol,
		"from":   from.Format(dateLayout),
		"to":     to.Format(dateLayout),
	}

	var cached []*InsiderTransaction
	if fc.cache.Get("finnhub", "insider_transactions", query, &cached) {
		return cached, nil
	}

	var body struct {
		Data []FinnhubInsiderTransaction `json:"data"`
	}
	if err := fc.get(ctx, "/stock/insider-transactions", query, &body); err != nil {
		return nil, err
	}
	result := make([]*InsiderTransaction, 0, len(body.Data))
	for _, t := range body.Data {
		result = append(result, &InsiderTransaction{
			Symbol:           symbol,
			PersonName:       t.PersonName,
			Share:            t.Share,
			Change:           t.Change,
			FilingDate:       t.FilingDate,
			TransactionDate:  t.TransactionDate,
			TransactionCode:  t.TransactionCode,
			TransactionPrice: decimal.NewFromFloat(t.TransactionPrice),
		})
	}
	fc.cache.Set("finnhub", "insider_transactions", query, result)
	return result, nil
}

// FinnhubInsiderSentiment represents insider sentiment data
type FinnhubInsiderSentiment struct {
	Symbol string  `json:"symbol"`
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Change int64   `json:"change"`
	MSPR   float64 `json:"mspr"`
}

// GetInsiderSentiment returns monthly share purchase ratios between from and to.
func (fc *FinnhubClient) GetInsiderSentiment(ctx context.Context, symbol string, from, to time.Time) ([]*InsiderSentiment, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)
	query := map[string]string{
		"symbol": symbol,
		"from":   from.Format(dateLayout),
		"to":     to.Format(dateLayout),
	}

	var cached []*InsiderSentiment
	if fc.cache.Get("finnhub", "insider_sentiment", query, &cached) {
		return cached, nil
	}

	var body struct {
		Data []FinnhubInsiderSentiment `json:"data"`
	}
	if err := fc.get(ctx, "/stock/insider-sentiment", query, &body); err != nil {
		return nil, err
	}
	result := make([]*InsiderSentiment, 0, len(body.Data))
	for _, s := range body.Data {
		result = append(result, &InsiderSentiment{
			Symbol: symbol,
			Year:   s.Year,
			Month:  s.Month,
			Change: s.Change,
			MSPR:   decimal.NewFromFloat(s.MSPR),
		})
	}
	fc.cache.Set("finnhub", "insider_sentiment", query, result)
	return result, nil
}

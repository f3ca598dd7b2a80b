package dataflows

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dyike/TradeCortex/config"
	"github.com/dyike/TradeCortex/internal/logger"
)

// Toolkit is the single entry point the agent tools call. Every method
// returns prompt-ready markdown.
type Toolkit struct {
	YFin     *YFinanceUtils
	Finnhub  *FinnhubClient
	News     *NewsScraperClient
	Reddit   *RedditClient
	Longport PriceSource

	dataDir string
	online  bool
}

type ToolkitOption func(*Toolkit)

// WithYFinance replaces the Yahoo accessors.
func WithYFinance(y *YFinanceUtils) ToolkitOption {
	return func(t *Toolkit) { t.YFin = y }
}

// WithAsianPriceSource sets the source used for .HK/.SH/.SZ symbols.
func WithAsianPriceSource(p PriceSource) ToolkitOption {
	return func(t *Toolkit) { t.Longport = p }
}

func WithFinnhub(f *FinnhubClient) ToolkitOption {
	return func(t *Toolkit) { t.Finnhub = f }
}

func WithReddit(r *RedditClient) ToolkitOption {
	return func(t *Toolkit) { t.Reddit = r }
}

func WithNewsScraper(n *NewsScraperClient) ToolkitOption {
	return func(t *Toolkit) { t.News = n }
}

func NewToolkit(cfg *config.Config, opts ...ToolkitOption) *Toolkit {
	cache := func(sub string, ttl time.Duration) *CacheManager {
		return NewCacheManager(filepath.Join(cfg.DataCacheDir, sub), ttl, cfg.CacheEnabled)
	}

	t := &Toolkit{
		YFin:    NewYFinanceUtils(NewYahooClient()),
		Finnhub: NewFinnhubClient(cfg.FinnhubAPIKey, "", cache("finnhub", 6*time.Hour)),
		News:    NewNewsScraperClient(cache("google_news", 2*time.Hour), ""),
		Reddit:  NewRedditClient(cfg.RedditUserAgent, "", cache("reddit", 2*time.Hour)),
		dataDir: cfg.DataDir,
		online:  cfg.OnlineTools,
	}
	if lp, err := NewLongportClient(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken); err == nil {
		t.Longport = lp
	} else if !errors.Is(err, ErrNotConfigured) {
		logger.Named("dataflows").Warn("longport unavailable", zap.Error(err))
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Toolkit) priceFile(symbol, start, end string) string {
	return filepath.Join(t.dataDir, "price_data", fmt.Sprintf("%s-%s-%s.json", symbol, start, end))
}

// Bars loads daily bars for [start, end]. Offline mode only reads files saved
// by earlier online runs.
func (t *Toolkit) Bars(ctx context.Context, symbol, start, end string) ([]MarketData, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)
	path := t.priceFile(symbol, start, end)

	if !t.online {
		var bars []MarketData
		if err := LoadDataFromFile(path, &bars); err != nil {
			return nil, fmt.Errorf("offline price data for %s %s..%s: %w", symbol, start, end, ErrNoData)
		}
		return bars, nil
	}

	var (
		bars []MarketData
		err  error
	)
	if IsAsianListing(symbol) && t.Longport != nil {
		var from, to time.Time
		if from, err = time.Parse(dateLayout, start); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, start)
		}
		if to, err = time.Parse(dateLayout, end); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, end)
		}
		bars, err = t.Longport.History(ctx, symbol, from, to.AddDate(0, 0, 1))
	} else {
		bars, err = t.YFin.History(ctx, symbol, start, end)
	}
	if err != nil {
		return nil, err
	}
	if t.dataDir != "" {
		if err := SaveDataToFile(bars, path); err != nil {
			logger.Named("dataflows").Debug("save price data", zap.String("path", path), zap.Error(err))
		}
	}
	return bars, nil
}

func (t *Toolkit) StockDataReport(ctx context.Context, symbol, start, end string) (string, error) {
	bars, err := t.Bars(ctx, symbol, start, end)
	if err != nil {
		return "", err
	}
	if len(bars) == 0 {
		return fmt.Sprintf("No data found for symbol '%s' between %s and %s", NormalizeSymbol(symbol), start, end), nil
	}
	header := fmt.Sprintf("## Raw market data for %s from %s to %s:\n# Total records: %d\n\n",
		NormalizeSymbol(symbol), start, end, len(bars))
	return header + BarsTable(bars).Markdown(), nil
}

// IndicatorReport computes indicator for the lookBack days ending at currDate.
func (t *Toolkit) IndicatorReport(ctx context.Context, symbol, indicator, currDate string, lookBack int) (string, error) {
	if _, ok := IndicatorDescriptions[indicator]; !ok {
		return "", fmt.Errorf("unsupported indicator %q, choose from: %s", indicator, strings.Join(SupportedIndicators(), ", "))
	}
	curr, err := time.Parse(dateLayout, currDate)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, currDate)
	}
	if lookBack <= 0 {
		lookBack = 30
	}
	from := curr.AddDate(0, 0, -lookBack)
	// warm-up window covers the 200-day average
	fetchFrom := curr.AddDate(-1, -3, 0)

	bars, err := t.Bars(ctx, symbol, fetchFrom.Format(dateLayout), currDate)
	if err != nil {
		return "", err
	}
	values, err := ComputeIndicator(bars, indicator, from, curr)
	if err != nil {
		return "", err
	}
	return IndicatorReport(indicator, from, currDate, values), nil
}

func (t *Toolkit) YahooNews(ctx context.Context, symbol string) (string, error) {
	return t.YFin.GetNews(ctx, symbol)
}

func (t *Toolkit) GoogleNews(ctx context.Context, query, currDate string, lookBack int) (string, error) {
	curr, err := time.Parse(dateLayout, currDate)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, currDate)
	}
	if lookBack <= 0 {
		lookBack = 7
	}
	from := curr.AddDate(0, 0, -lookBack)
	articles, err := t.News.GetGoogleNews(ctx, GoogleNewsParams{Query: query, StartDate: from, EndDate: curr})
	if err != nil {
		return "", err
	}
	if len(articles) == 0 {
		return "", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s Google News, from %s to %s:\n\n", query, from.Format(dateLayout), currDate)
	for _, a := range articles {
		fmt.Fprintf(&b, "### %s (source: %s)\n\n%s\n\n", a.Title, a.Source, a.Content)
	}
	return b.String(), nil
}

func (t *Toolkit) FinnhubNews(ctx context.Context, symbol, currDate string, lookBack int) (string, error) {
	curr, err := time.Parse(dateLayout, currDate)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, currDate)
	}
	if lookBack <= 0 {
		lookBack = 7
	}
	from := curr.AddDate(0, 0, -lookBack)
	articles, err := t.Finnhub.GetCompanyNews(ctx, symbol, from, curr)
	if err != nil {
		return "", err
	}
	if len(articles) == 0 {
		return "", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s News, from %s to %s:\n", NormalizeSymbol(symbol), from.Format(dateLayout), currDate)
	for _, a := range articles {
		fmt.Fprintf(&b, "### %s (%s)\n%s\n\n", a.Title, a.PublishedAt.Format(dateLayout), a.Content)
	}
	return b.String(), nil
}

func (t *Toolkit) RedditPosts(ctx context.Context, symbol, currDate string, limit int) (string, error) {
	curr, err := time.Parse(dateLayout, currDate)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, currDate)
	}
	posts, err := t.Reddit.Search(ctx, NormalizeSymbol(symbol), nil, curr, limit)
	if err != nil {
		return "", err
	}
	if len(posts) == 0 {
		return "", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s Reddit posts up to %s:\n\n", NormalizeSymbol(symbol), currDate)
	for _, p := range posts {
		content := p.Content
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		fmt.Fprintf(&b, "### %s (r/%s, score %d, %d comments)\n%s\n\n", p.Title, p.Subreddit, p.Score, p.Comments, content)
	}
	return b.String(), nil
}

func (t *Toolkit) CompanyInfo(ctx context.Context, symbol string) (string, error) {
	tbl, err := t.YFin.GetCompanyInfo(ctx, symbol, "")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("## %s company profile:\n\n", NormalizeSymbol(symbol)) + tbl.Markdown(), nil
}

func (t *Toolkit) IncomeStatement(ctx context.Context, symbol string) (string, error) {
	return t.statement(ctx, symbol, "income statement", t.YFin.GetIncomeStmt)
}

func (t *Toolkit) BalanceSheet(ctx context.Context, symbol string) (string, error) {
	return t.statement(ctx, symbol, "balance sheet", t.YFin.GetBalanceSheet)
}

func (t *Toolkit) CashFlow(ctx context.Context, symbol string) (string, error) {
	return t.statement(ctx, symbol, "cash flow", t.YFin.GetCashFlow)
}

func (t *Toolkit) statement(ctx context.Context, symbol, name string, fetch func(context.Context, string) (*Table, error)) (string, error) {
	tbl, err := fetch(ctx, symbol)
	if err != nil {
		return "", err
	}
	if tbl.Empty() {
		return fmt.Sprintf("No %s data available for %s", name, NormalizeSymbol(symbol)), nil
	}
	return fmt.Sprintf("## %s %s:\n\n", NormalizeSymbol(symbol), name) + tbl.Markdown(), nil
}

func (t *Toolkit) AnalystRecommendations(ctx context.Context, symbol string) (string, error) {
	rating, votes, err := t.YFin.GetAnalystRecommendations(ctx, symbol)
	if err != nil {
		return "", err
	}
	if rating == "" {
		return fmt.Sprintf("No analyst recommendations available for %s", NormalizeSymbol(symbol)), nil
	}
	return fmt.Sprintf("Analyst consensus for %s: %s (%d votes)", NormalizeSymbol(symbol), rating, votes), nil
}

func (t *Toolkit) InsiderTransactions(ctx context.Context, symbol string) (string, error) {
	return t.YFin.GetInsiderTransactions(ctx, symbol)
}

func (t *Toolkit) InsiderSentiment(ctx context.Context, symbol, currDate string, lookBack int) (string, error) {
	curr, err := time.Parse(dateLayout, currDate)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, currDate)
	}
	if lookBack <= 0 {
		lookBack = 90
	}
	from := curr.AddDate(0, 0, -lookBack)
	data, err := t.Finnhub.GetInsiderSentiment(ctx, symbol, from, curr)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s insider sentiment from %s to %s:\n", NormalizeSymbol(symbol), from.Format(dateLayout), currDate)
	for _, s := range data {
		fmt.Fprintf(&b, "### %d-%02d:\nChange: %d\nMonthly Share Purchase Ratio: %s\n\n", s.Year, s.Month, s.Change, s.MSPR.StringFixed(4))
	}
	b.WriteString("The change field refers to the net buying/selling from all insiders' transactions. The mspr field refers to monthly share purchase ratio.")
	return b.String(), nil
}

// FundamentalsSnapshot fetches the profile, statements and consensus in
// parallel. A failing section is reported inline instead of failing the whole
// snapshot.
func (t *Toolkit) FundamentalsSnapshot(ctx context.Context, symbol string) (string, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return "", err
	}
	sections := []struct {
		name  string
		fetch func(context.Context, string) (string, error)
	}{
		{"Company profile", t.CompanyInfo},
		{"Income statement", t.IncomeStatement},
		{"Balance sheet", t.BalanceSheet},
		{"Cash flow", t.CashFlow},
		{"Analyst recommendations", t.AnalystRecommendations},
	}
	results := make([]string, len(sections))

	var g errgroup.Group
	g.SetLimit(3)
	for i, s := range sections {
		g.Go(func() error {
			out, err := s.fetch(ctx, symbol)
			if err != nil {
				results[i] = fmt.Sprintf("%s unavailable: %v", s.name, err)
				return nil
			}
			results[i] = out
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.Join(results, "\n\n"), nil
}

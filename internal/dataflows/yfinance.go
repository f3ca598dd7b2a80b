package dataflows

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/internal/logger"
)

// PriceSource returns daily bars in [start, end).
type PriceSource interface {
	History(ctx context.Context, symbol string, start, end time.Time) ([]MarketData, error)
}

// QuoteSource returns a flat snapshot of the latest quote.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (map[string]any, error)
}

// financeGo adapts piquette/finance-go to PriceSource and QuoteSource.
type financeGo struct{}

func (financeGo) History(_ context.Context, symbol string, start, end time.Time) ([]MarketData, error) {
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	var out []MarketData
	for iter.Next() {
		bar := iter.Bar()
		out = append(out, MarketData{
			Symbol:   symbol,
			Date:     time.Unix(int64(bar.Timestamp), 0).UTC().Truncate(24 * time.Hour),
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			AdjClose: bar.AdjClose,
			Volume:   int64(bar.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("finance-go chart %s: %w", symbol, err)
	}
	return out, nil
}

func (financeGo) Quote(_ context.Context, symbol string) (map[string]any, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("finance-go quote %s: %w", symbol, err)
	}
	if q == nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, ErrNoData)
	}
	return map[string]any{
		"symbol":             symbol,
		"shortName":          q.ShortName,
		"fullExchangeName":   q.FullExchangeName,
		"currency":           q.CurrencyID,
		"marketState":        q.MarketState,
		"regularMarketPrice": q.RegularMarketPrice,
		"regularMarketTime":  q.RegularMarketTime,
		"regularMarketOpen":  q.RegularMarketOpen,
		"dayHigh":            q.RegularMarketDayHigh,
		"dayLow":             q.RegularMarketDayLow,
		"volume":             q.RegularMarketVolume,
		"quoteType":          string(q.QuoteType),
		"isTradeable":        q.IsTradeable,
	}, nil
}

// YFinanceUtils exposes the Yahoo Finance accessors used by the analysts.
// Each method takes the ticker symbol first.
type YFinanceUtils struct {
	prices   PriceSource
	fallback PriceSource
	quotes   QuoteSource
	api      *YahooClient
}

type YFinanceOption func(*YFinanceUtils)

// WithPriceSource replaces the primary OHLCV source.
func WithPriceSource(p PriceSource) YFinanceOption {
	return func(u *YFinanceUtils) { u.prices = p }
}

// WithQuoteSource replaces the quote snapshot source; nil disables it.
func WithQuoteSource(q QuoteSource) YFinanceOption {
	return func(u *YFinanceUtils) { u.quotes = q }
}

func NewYFinanceUtils(api *YahooClient, opts ...YFinanceOption) *YFinanceUtils {
	if api == nil {
		api = NewYahooClient()
	}
	u := &YFinanceUtils{
		prices:   financeGo{},
		fallback: api,
		quotes:   financeGo{},
		api:      api,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// GetStockData returns daily OHLCV between start and end, both inclusive.
func (u *YFinanceUtils) GetStockData(ctx context.Context, symbol, startDate, endDate string) (*Table, error) {
	bars, err := u.History(ctx, symbol, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return BarsTable(bars), nil
}

// History returns the raw bars behind GetStockData.
func (u *YFinanceUtils) History(ctx context.Context, symbol, startDate, endDate string) ([]MarketData, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q", ErrInvalidDate, startDate)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end %q", ErrInvalidDate, endDate)
	}
	// one extra day so the end date is included
	end = end.AddDate(0, 0, 1)

	bars, err := u.prices.History(ctx, symbol, start, end)
	if err != nil && u.fallback != nil {
		logger.Named("dataflows").Debug("primary price source failed, using fallback",
			zap.String("symbol", symbol), zap.Error(err))
		bars, err = u.fallback.History(ctx, symbol, start, end)
	}
	if err != nil {
		return nil, err
	}
	return clipBars(bars, start, end), nil
}

// GetStockInfo returns the merged quote and profile fields for symbol.
func (u *YFinanceUtils) GetStockInfo(ctx context.Context, symbol string) (map[string]any, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	info := map[string]any{}
	summary, err := u.api.QuoteSummary(ctx, symbol, "price", "summaryDetail", "assetProfile", "defaultKeyStatistics", "financialData")
	if err != nil && u.quotes == nil {
		return nil, err
	}
	for _, mod := range summary {
		m, ok := mod.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range m {
			if k == "maxAge" {
				continue
			}
			if raw := rawValue(v); raw != nil {
				info[k] = raw
			}
		}
	}
	if u.quotes != nil {
		q, qerr := u.quotes.Quote(ctx, symbol)
		if qerr != nil && err != nil {
			return nil, fmt.Errorf("stock info %s: %w", symbol, err)
		}
		for k, v := range q {
			if _, exists := info[k]; !exists {
				info[k] = v
			}
		}
	}
	info["symbol"] = symbol
	return info, nil
}

// GetCompanyInfo returns a one-row table of identifying fields, "N/A" when missing.
// When savePath is set the table is also written there as CSV.
func (u *YFinanceUtils) GetCompanyInfo(ctx context.Context, symbol, savePath string) (*Table, error) {
	info, err := u.GetStockInfo(ctx, symbol)
	if err != nil {
		return nil, err
	}
	t := NewTable("Company Name", "Industry", "Sector", "Country", "Website")
	t.Append(
		stringField(info, "shortName"),
		stringField(info, "industry"),
		stringField(info, "sector"),
		stringField(info, "country"),
		stringField(info, "website"),
	)
	if savePath != "" {
		if err := t.WriteCSV(savePath); err != nil {
			return nil, err
		}
		logger.Named("dataflows").Info("company info saved",
			zap.String("symbol", NormalizeSymbol(symbol)), zap.String("path", savePath))
	}
	return t, nil
}

// GetStockDividends returns the dividend history; optionally saved as CSV.
func (u *YFinanceUtils) GetStockDividends(ctx context.Context, symbol, savePath string) (*Table, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	divs, err := u.api.Dividends(ctx, symbol)
	if err != nil {
		return nil, err
	}
	t := NewTable("Date", "Dividends")
	for _, d := range divs {
		t.Append(d.Date.Format(dateLayout), strconv.FormatFloat(d.Amount, 'f', -1, 64))
	}
	if savePath != "" {
		if err := t.WriteCSV(savePath); err != nil {
			return nil, err
		}
		logger.Named("dataflows").Info("dividends saved",
			zap.String("symbol", NormalizeSymbol(symbol)), zap.String("path", savePath))
	}
	return t, nil
}

// GetIncomeStmt returns the annual income statement, one column per fiscal year.
func (u *YFinanceUtils) GetIncomeStmt(ctx context.Context, symbol string) (*Table, error) {
	return u.statement(ctx, symbol, "incomeStatementHistory", "incomeStatementHistory")
}

// GetBalanceSheet returns the annual balance sheet.
func (u *YFinanceUtils) GetBalanceSheet(ctx context.Context, symbol string) (*Table, error) {
	return u.statement(ctx, symbol, "balanceSheetHistory", "balanceSheetStatements")
}

// GetCashFlow returns the annual cash flow statement.
func (u *YFinanceUtils) GetCashFlow(ctx context.Context, symbol string) (*Table, error) {
	return u.statement(ctx, symbol, "cashflowStatementHistory", "cashflowStatements")
}

func (u *YFinanceUtils) statement(ctx context.Context, symbol, mod, key string) (*Table, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	summary, err := u.api.QuoteSummary(ctx, symbol, mod)
	if err != nil {
		return nil, err
	}
	list, _ := module(summary, mod)[key].([]any)

	columns := []string{"Item"}
	items := map[string]map[int]string{}
	for col, entry := range list {
		st, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		columns = append(columns, fmtValue(st["endDate"]))
		for k, v := range st {
			if k == "endDate" || k == "maxAge" {
				continue
			}
			if items[k] == nil {
				items[k] = map[int]string{}
			}
			items[k][col] = formatAny(rawValue(v))
		}
	}

	names := make([]string, 0, len(items))
	for k := range items {
		names = append(names, k)
	}
	sort.Strings(names)

	t := NewTable(columns...)
	for _, name := range names {
		row := []string{name}
		for col := range list {
			row = append(row, items[name][col])
		}
		t.Append(row...)
	}
	return t, nil
}

// recommendationColumns is the rating order of the recommendation table.
var recommendationColumns = []string{"strongBuy", "buy", "hold", "sell", "strongSell"}

// GetRecommendations returns the analyst recommendation trend table, most recent period first.
func (u *YFinanceUtils) GetRecommendations(ctx context.Context, symbol string) (*Table, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	summary, err := u.api.QuoteSummary(ctx, symbol, "recommendationTrend")
	if err != nil {
		return nil, err
	}
	trend, _ := module(summary, "recommendationTrend")["trend"].([]any)

	t := NewTable(append([]string{"period"}, recommendationColumns...)...)
	for _, entry := range trend {
		row, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		values := []string{formatAny(rawValue(row["period"]))}
		for _, c := range recommendationColumns {
			values = append(values, formatAny(rawValue(row[c])))
		}
		t.Append(values...)
	}
	return t, nil
}

// GetAnalystRecommendations returns the most common rating of the latest
// period and its vote count, or ("", 0) when no recommendations exist.
func (u *YFinanceUtils) GetAnalystRecommendations(ctx context.Context, symbol string) (string, int, error) {
	t, err := u.GetRecommendations(ctx, symbol)
	if err != nil {
		return "", 0, err
	}
	rating, votes := MajorityRecommendation(t)
	return rating, votes, nil
}

// MajorityRecommendation picks the highest-voted rating of the first row,
// ignoring the period column. Ties go to the earlier column.
func MajorityRecommendation(t *Table) (string, int) {
	if t.Empty() {
		return "", 0
	}
	row := t.Rows[0]
	best, bestVotes := "", -1
	for i := 1; i < len(t.Columns) && i < len(row); i++ {
		v, err := strconv.Atoi(strings.TrimSpace(row[i]))
		if err != nil {
			continue
		}
		if v > bestVotes {
			best, bestVotes = t.Columns[i], v
		}
	}
	if bestVotes < 0 {
		return "", 0
	}
	return best, bestVotes
}

// GetNews renders the latest headlines for symbol as markdown.
func (u *YFinanceUtils) GetNews(ctx context.Context, symbol string) (string, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return "", err
	}
	symbol = NormalizeSymbol(symbol)
	items, err := u.api.News(ctx, symbol, 20)
	if err != nil {
		return "", err
	}
	return FormatYahooNews(symbol, items), nil
}

func FormatYahooNews(symbol string, items []YahooNewsItem) string {
	var b strings.Builder
	for _, n := range items {
		summary := n.Summary
		if summary == "" {
			summary = "No summary available."
		}
		published := time.Unix(n.ProviderPublishTime, 0).UTC().Format("2006-01-02 15:04:05")
		fmt.Fprintf(&b, "### %s (%s)\n%s\n\n", n.Title, published, summary)
	}
	return fmt.Sprintf("## %s News:\n", symbol) + b.String()
}

// GetInsiderTransactions renders insider trades, or "" when there are none.
func (u *YFinanceUtils) GetInsiderTransactions(ctx context.Context, symbol string) (string, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return "", err
	}
	symbol = NormalizeSymbol(symbol)
	summary, err := u.api.QuoteSummary(ctx, symbol, "insiderTransactions")
	if err != nil {
		return "", err
	}
	txs, _ := module(summary, "insiderTransactions")["transactions"].([]any)

	t := NewTable("Shares", "Value", "Text", "Insider", "Position", "Start Date", "Ownership")
	for _, entry := range txs {
		tx, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		t.Append(
			formatAny(rawValue(tx["shares"])),
			formatAny(rawValue(tx["value"])),
			formatAny(tx["transactionText"]),
			formatAny(tx["filerName"]),
			formatAny(tx["filerRelation"]),
			fmtValue(tx["startDate"]),
			formatAny(tx["ownership"]),
		)
	}
	if t.Empty() {
		return "", nil
	}
	return fmt.Sprintf("## %s insider transactions:\n", symbol) + t.Markdown(), nil
}

// BarsTable renders bars with two-decimal prices.
func BarsTable(bars []MarketData) *Table {
	t := NewTable("Date", "Open", "High", "Low", "Close", "Adj Close", "Volume")
	for _, b := range bars {
		t.Append(
			b.Date.Format(dateLayout),
			b.Open.StringFixed(2),
			b.High.StringFixed(2),
			b.Low.StringFixed(2),
			b.Close.StringFixed(2),
			b.AdjClose.StringFixed(2),
			strconv.FormatInt(b.Volume, 10),
		)
	}
	return t
}

func clipBars(bars []MarketData, start, end time.Time) []MarketData {
	out := bars[:0:0]
	for _, b := range bars {
		d := b.Date.Truncate(24 * time.Hour)
		if d.Before(start) || !d.Before(end) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func stringField(info map[string]any, key string) string {
	if v, ok := info[key]; ok {
		if s := formatAny(v); s != "" {
			return s
		}
	}
	return "N/A"
}

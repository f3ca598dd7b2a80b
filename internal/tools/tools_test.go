package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	args   []any
}

type fakeSource struct {
	calls []call
	out   string
	err   error
}

func (f *fakeSource) record(method string, args ...any) (string, error) {
	f.calls = append(f.calls, call{method, args})
	return f.out, f.err
}

func (f *fakeSource) StockDataReport(_ context.Context, symbol, start, end string) (string, error) {
	return f.record("StockDataReport", symbol, start, end)
}
func (f *fakeSource) IndicatorReport(_ context.Context, symbol, indicator, currDate string, lookBack int) (string, error) {
	return f.record("IndicatorReport", symbol, indicator, currDate, lookBack)
}
func (f *fakeSource) YahooNews(_ context.Context, symbol string) (string, error) {
	return f.record("YahooNews", symbol)
}
func (f *fakeSource) GoogleNews(_ context.Context, query, currDate string, lookBack int) (string, error) {
	return f.record("GoogleNews", query, currDate, lookBack)
}
func (f *fakeSource) FinnhubNews(_ context.Context, symbol, currDate string, lookBack int) (string, error) {
	return f.record("FinnhubNews", symbol, currDate, lookBack)
}
func (f *fakeSource) RedditPosts(_ context.Context, symbol, currDate string, limit int) (string, error) {
	return f.record("RedditPosts", symbol, currDate, limit)
}
func (f *fakeSource) CompanyInfo(_ context.Context, symbol string) (string, error) {
	return f.record("CompanyInfo", symbol)
}
func (f *fakeSource) IncomeStatement(_ context.Context, symbol string) (string, error) {
	return f.record("IncomeStatement", symbol)
}
func (f *fakeSource) BalanceSheet(_ context.Context, symbol string) (string, error) {
	return f.record("BalanceSheet", symbol)
}
func (f *fakeSource) CashFlow(_ context.Context, symbol string) (string, error) {
	return f.record("CashFlow", symbol)
}
func (f *fakeSource) AnalystRecommendations(_ context.Context, symbol string) (string, error) {
	return f.record("AnalystRecommendations", symbol)
}
func (f *fakeSource) InsiderTransactions(_ context.Context, symbol string) (string, error) {
	return f.record("InsiderTransactions", symbol)
}
func (f *fakeSource) InsiderSentiment(_ context.Context, symbol, currDate string, lookBack int) (string, error) {
	return f.record("InsiderSentiment", symbol, currDate, lookBack)
}

func invoke(t *testing.T, tl tool.InvokableTool, args string) string {
	t.Helper()
	raw, err := tl.InvokableRun(context.Background(), args)
	require.NoError(t, err)
	var out ReportOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out.Result
}

func TestToolNamesAreUnique(t *testing.T) {
	want := []string{
		"get_stock_data", "get_indicators", "get_stock_news", "get_reddit_posts",
		"get_google_news", "get_finnhub_news", "get_company_info", "get_income_stmt",
		"get_balance_sheet", "get_cash_flow", "get_analyst_recommendations",
		"get_insider_transactions", "get_insider_sentiment",
	}
	var got []string
	for _, tl := range All(&fakeSource{}) {
		info, err := tl.Info(context.Background())
		require.NoError(t, err)
		got = append(got, info.Name)
	}
	assert.Equal(t, want, got)
}

func TestToolsForwardArguments(t *testing.T) {
	tests := []struct {
		name string
		build func(DataSource) tool.InvokableTool
		args string
		want call
	}{
		{
			"stock data", NewStockDataTool,
			`{"symbol":"AAPL","start_date":"2024-01-01","end_date":"2024-01-31"}`,
			call{"StockDataReport", []any{"AAPL", "2024-01-01", "2024-01-31"}},
		},
		{
			"indicators", NewIndicatorTool,
			`{"symbol":"AAPL","indicator":"rsi","curr_date":"2024-01-31","look_back_days":20}`,
			call{"IndicatorReport", []any{"AAPL", "rsi", "2024-01-31", 20}},
		},
		{
			"google news", NewGoogleNewsTool,
			`{"query":"fed rates","curr_date":"2024-01-31"}`,
			call{"GoogleNews", []any{"fed rates", "2024-01-31", 0}},
		},
		{
			"reddit", NewRedditTool,
			`{"symbol":"GME","curr_date":"2024-01-31","limit":5}`,
			call{"RedditPosts", []any{"GME", "2024-01-31", 5}},
		},
		{
			"insider sentiment", NewInsiderSentimentTool,
			`{"symbol":"NVDA","curr_date":"2024-01-31","look_back_days":60}`,
			call{"InsiderSentiment", []any{"NVDA", "2024-01-31", 60}},
		},
		{
			"balance sheet", NewBalanceSheetTool,
			`{"symbol":"MSFT"}`,
			call{"BalanceSheet", []any{"MSFT"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := &fakeSource{out: "report"}
			assert.Equal(t, "report", invoke(t, tt.build(ds), tt.args))
			require.Len(t, ds.calls, 1)
			assert.Equal(t, tt.want, ds.calls[0])
		})
	}
}

func TestToolErrorsBecomeText(t *testing.T) {
	ds := &fakeSource{err: errors.New("rate limited")}
	out := invoke(t, NewCashFlowTool(ds), `{"symbol":"TSLA"}`)
	assert.Equal(t, "Error calling get_cash_flow: rate limited", out)
}

func TestToolRequiresSymbol(t *testing.T) {
	ds := &fakeSource{out: "unused"}
	out := invoke(t, NewCompanyInfoTool(ds), `{}`)
	assert.Equal(t, "Error calling get_company_info: symbol parameter is required", out)
	assert.Empty(t, ds.calls)
}

func TestToolEmptyResult(t *testing.T) {
	out := invoke(t, NewInsiderTransactionsTool(&fakeSource{}), `{"symbol":"AAPL"}`)
	assert.Equal(t, noData, out)
}

func TestAnalystToolSets(t *testing.T) {
	ds := &fakeSource{}
	assert.Len(t, MarketTools(ds), 2)
	assert.Len(t, SocialTools(ds), 2)
	assert.Len(t, NewsTools(ds), 3)
	assert.Len(t, FundamentalsTools(ds), 7)
}

package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/internal/logger"
	"github.com/dyike/TradeCortex/internal/trace"
)

// DataSource is the subset of dataflows.Toolkit the tools call.
type DataSource interface {
	StockDataReport(ctx context.Context, symbol, start, end string) (string, error)
	IndicatorReport(ctx context.Context, symbol, indicator, currDate string, lookBack int) (string, error)
	YahooNews(ctx context.Context, symbol string) (string, error)
	GoogleNews(ctx context.Context, query, currDate string, lookBack int) (string, error)
	FinnhubNews(ctx context.Context, symbol, currDate string, lookBack int) (string, error)
	RedditPosts(ctx context.Context, symbol, currDate string, limit int) (string, error)
	CompanyInfo(ctx context.Context, symbol string) (string, error)
	IncomeStatement(ctx context.Context, symbol string) (string, error)
	BalanceSheet(ctx context.Context, symbol string) (string, error)
	CashFlow(ctx context.Context, symbol string) (string, error)
	AnalystRecommendations(ctx context.Context, symbol string) (string, error)
	InsiderTransactions(ctx context.Context, symbol string) (string, error)
	InsiderSentiment(ctx context.Context, symbol, currDate string, lookBack int) (string, error)
}

// ReportOutput is what every tool hands back to the model.
type ReportOutput struct {
	Result string `json:"result"`
}

const noData = "No data available."

// run executes fetch inside a span. Fetch errors become text so the
// ReAct loop keeps going and the model can pick another source.
func run(ctx context.Context, name string, fetch func(ctx context.Context) (string, error)) (*ReportOutput, error) {
	ctx, span := trace.StartSpan(ctx, "tool."+name)
	defer span.End()

	out, err := fetch(ctx)
	if err != nil {
		trace.RecordError(span, err)
		logger.Named("tools").Warn("tool call failed", zap.String("tool", name), zap.Error(err))
		return &ReportOutput{Result: fmt.Sprintf("Error calling %s: %v", name, err)}, nil
	}
	if strings.TrimSpace(out) == "" {
		out = noData
	}
	logger.Named("tools").Debug("tool call", zap.String("tool", name), zap.Int("bytes", len(out)))
	return &ReportOutput{Result: out}, nil
}

func itoa(n int) string { return strconv.Itoa(n) }

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s parameter is required", name)
	}
	return nil
}

// MarketTools are bound to the market analyst.
func MarketTools(ds DataSource) []tool.BaseTool {
	return []tool.BaseTool{NewStockDataTool(ds), NewIndicatorTool(ds)}
}

// SocialTools are bound to the social media analyst.
func SocialTools(ds DataSource) []tool.BaseTool {
	return []tool.BaseTool{NewRedditTool(ds), NewStockNewsTool(ds)}
}

// NewsTools are bound to the news analyst.
func NewsTools(ds DataSource) []tool.BaseTool {
	return []tool.BaseTool{NewGoogleNewsTool(ds), NewFinnhubNewsTool(ds), NewStockNewsTool(ds)}
}

// FundamentalsTools are bound to the fundamentals analyst.
func FundamentalsTools(ds DataSource) []tool.BaseTool {
	return []tool.BaseTool{
		NewCompanyInfoTool(ds),
		NewIncomeStmtTool(ds),
		NewBalanceSheetTool(ds),
		NewCashFlowTool(ds),
		NewAnalystRecommendationsTool(ds),
		NewInsiderTransactionsTool(ds),
		NewInsiderSentimentTool(ds),
	}
}

// All returns every tool once, e.g. for the CLI tool listing.
func All(ds DataSource) []tool.BaseTool {
	return []tool.BaseTool{
		NewStockDataTool(ds),
		NewIndicatorTool(ds),
		NewStockNewsTool(ds),
		NewRedditTool(ds),
		NewGoogleNewsTool(ds),
		NewFinnhubNewsTool(ds),
		NewCompanyInfoTool(ds),
		NewIncomeStmtTool(ds),
		NewBalanceSheetTool(ds),
		NewCashFlowTool(ds),
		NewAnalystRecommendationsTool(ds),
		NewInsiderTransactionsTool(ds),
		NewInsiderSentimentTool(ds),
	}
}

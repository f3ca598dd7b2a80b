package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	t_utils "github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

type StockDataInput struct {
	Symbol    string `json:"symbol"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// NewStockDataTool returns daily OHLCV for a date range.
func NewStockDataTool(ds DataSource) tool.InvokableTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_stock_data",
			Desc: "Retrieve the stock price data (open, high, low, close, volume) for a given ticker symbol between two dates",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "Ticker symbol of the company, e.g. AAPL, TSM",
					Required: true,
				},
				"start_date": {
					Type:     "string",
					Desc:     "Start date in yyyy-mm-dd format",
					Required: true,
				},
				"end_date": {
					Type:     "string",
					Desc:     "End date in yyyy-mm-dd format, inclusive",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in StockDataInput) (*ReportOutput, error) {
			return run(ctx, "get_stock_data", func(ctx context.Context) (string, error) {
				if err := required("symbol", in.Symbol); err != nil {
					return "", err
				}
				return ds.StockDataReport(ctx, in.Symbol, in.StartDate, in.EndDate)
			})
		},
	)
}

type IndicatorInput struct {
	Symbol       string `json:"symbol"`
	Indicator    string `json:"indicator"`
	CurrDate     string `json:"curr_date"`
	LookBackDays int    `json:"look_back_days"`
}

// NewIndicatorTool computes one technical indicator over a look-back window.
func NewIndicatorTool(ds DataSource) tool.InvokableTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_indicators",
			Desc: "Retrieve a technical indicator report for a ticker over a look-back window ending at the current trading date. " +
				"Supported: close_50_sma, close_200_sma, close_10_ema, macd, macds, macdh, rsi, boll, boll_ub, boll_lb, atr, vwma, mfi",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "Ticker symbol of the company",
					Required: true,
				},
				"indicator": {
					Type:     "string",
					Desc:     "Technical indicator to get the analysis and report of",
					Required: true,
				},
				"curr_date": {
					Type:     "string",
					Desc:     "The current trading date you are trading on, yyyy-mm-dd",
					Required: true,
				},
				"look_back_days": {
					Type:     "integer",
					Desc:     "How many days to look back (default 30)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, in IndicatorInput) (*ReportOutput, error) {
			return run(ctx, "get_indicators", func(ctx context.Context) (string, error) {
				if err := required("symbol", in.Symbol); err != nil {
					return "", err
				}
				return ds.IndicatorReport(ctx, in.Symbol, in.Indicator, in.CurrDate, in.LookBackDays)
			})
		},
	)
}

package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	t_utils "github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

type SymbolInput struct {
	Symbol string `json:"symbol"`
}

type DatedSymbolInput struct {
	Symbol       string `json:"symbol"`
	CurrDate     string `json:"curr_date"`
	LookBackDays int    `json:"look_back_days"`
}

type GoogleNewsInput struct {
	Query        string `json:"query"`
	CurrDate     string `json:"curr_date"`
	LookBackDays int    `json:"look_back_days"`
}

type RedditInput struct {
	Symbol   string `json:"symbol"`
	CurrDate string `json:"curr_date"`
	Limit    int    `json:"limit"`
}

var symbolParam = &schema.ParameterInfo{
	Type:     "string",
	Desc:     "Ticker symbol of the company",
	Required: true,
}

var currDateParam = &schema.ParameterInfo{
	Type:     "string",
	Desc:     "Current date in yyyy-mm-dd format",
	Required: true,
}

func lookBackParam(def int) *schema.ParameterInfo {
	return &schema.ParameterInfo{
		Type: "integer",
		Desc: "How many days to look back (default " + itoa(def) + ")",
	}
}

func NewStockNewsTool(ds DataSource) tool.InvokableTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_stock_news",
			Desc: "Retrieve the latest Yahoo Finance headlines and summaries for a ticker",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": symbolParam,
			}),
		},
		func(ctx context.Context, in SymbolInput) (*ReportOutput, error) {
			return run(ctx, "get_stock_news", func(ctx context.Context) (string, error) {
				if err := required("symbol", in.Symbol); err != nil {
					return "", err
				}
				return ds.YahooNews(ctx, in.Symbol)
			})
		},
	)
}

func NewGoogleNewsTool(ds DataSource) tool.InvokableTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_google_news",
			Desc: "Search Google News for a query (company name, ticker or macro topic) over a look-back window",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Search query",
					Required: true,
				},
				"curr_date":      currDateParam,
				"look_back_days": lookBackParam(7),
			}),
		},
		func(ctx context.Context, in GoogleNewsInput) (*ReportOutput, error) {
			return run(ctx, "get_google_news", func(ctx context.Context) (string, error) {
				if err := required("query", in.Query); err != nil {
					return "", err
				}
				return ds.GoogleNews(ctx, in.Query, in.CurrDate, in.LookBackDays)
			})
		},
	)
}

func NewFinnhubNewsTool(ds DataSource) tool.InvokableTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_finnhub_news",
			Desc: "Retrieve company news from Finnhub over a look-back window",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol":         symbolParam,
				"curr_date":      currDateParam,
				"look_back_days": lookBackParam(7),
			}),
		},
		func(ctx context.Context, in DatedSymbolInput) (*ReportOutput, error) {
			return run(ctx, "get_finnhub_news", func(ctx context.Context) (string, error) {
				if err := required("symbol", in.Symbol); err != nil {
					return "", err
				}
				return ds.FinnhubNews(ctx, in.Symbol, in.CurrDate, in.LookBackDays)
			})
		},
	)
}

func NewRedditTool(ds DataSource) tool.InvokableTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_reddit_posts",
			Desc: "Retrieve recent Reddit posts that mention a ticker from investing subreddits",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol":    symbolParam,
				"curr_date": currDateParam,
				"limit": {
					Type: "integer",
					Desc: "Maximum posts per subreddit (default 10)",
				},
			}),
		},
		func(ctx context.Context, in RedditInput) (*ReportOutput, error) {
			return run(ctx, "get_reddit_posts", func(ctx context.Context) (string, error) {
				if err := required("symbol", in.Symbol); err != nil {
					return "", err
				}
				return ds.RedditPosts(ctx, in.Symbol, in.CurrDate, in.Limit)
			})
		},
	)
}

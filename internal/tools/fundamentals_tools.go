package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	t_utils "github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// symbolTool builds the common single-argument tools.
func symbolTool(name, desc string, fetch func(ctx context.Context, symbol string) (string, error)) tool.InvokableTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: name,
			Desc: desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": symbolParam,
			}),
		},
		func(ctx context.Context, in SymbolInput) (*ReportOutput, error) {
			return run(ctx, name, func(ctx context.Context) (string, error) {
				if err := required("symbol", in.Symbol); err != nil {
					return "", err
				}
				return fetch(ctx, in.Symbol)
			})
		},
	)
}

func NewCompanyInfoTool(ds DataSource) tool.InvokableTool {
	return symbolTool("get_company_info",
		"Retrieve the company profile: name, industry, sector, country and website",
		ds.CompanyInfo)
}

func NewIncomeStmtTool(ds DataSource) tool.InvokableTool {
	return symbolTool("get_income_stmt",
		"Retrieve the annual income statements of the company",
		ds.IncomeStatement)
}

func NewBalanceSheetTool(ds DataSource) tool.InvokableTool {
	return symbolTool("get_balance_sheet",
		"Retrieve the annual balance sheets of the company",
		ds.BalanceSheet)
}

func NewCashFlowTool(ds DataSource) tool.InvokableTool {
	return symbolTool("get_cash_flow",
		"Retrieve the annual cash flow statements of the company",
		ds.CashFlow)
}

func NewAnalystRecommendationsTool(ds DataSource) tool.InvokableTool {
	return symbolTool("get_analyst_recommendations",
		"Retrieve the majority analyst rating of the latest period and its vote count",
		ds.AnalystRecommendations)
}

func NewInsiderTransactionsTool(ds DataSource) tool.InvokableTool {
	return symbolTool("get_insider_transactions",
		"Retrieve recent insider transactions reported for the company",
		ds.InsiderTransactions)
}

func NewInsiderSentimentTool(ds DataSource) tool.InvokableTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_insider_sentiment",
			Desc: "Retrieve insider sentiment (net change and monthly share purchase ratio) from Finnhub over a look-back window",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol":         symbolParam,
				"curr_date":      currDateParam,
				"look_back_days": lookBackParam(90),
			}),
		},
		func(ctx context.Context, in DatedSymbolInput) (*ReportOutput, error) {
			return run(ctx, "get_insider_sentiment", func(ctx context.Context) (string, error) {
				if err := required("symbol", in.Symbol); err != nil {
					return "", err
				}
				return ds.InsiderSentiment(ctx, in.Symbol, in.CurrDate, in.LookBackDays)
			})
		},
	)
}

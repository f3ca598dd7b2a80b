package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyike/TradeCortex/internal/dataflows"
)

type dataOptions struct {
	start string
	end   string
	save  bool
}

// dataAccessor fetches one kind of market data; it returns either a table
// or a markdown/text blob.
type dataAccessor func(ctx context.Context, y *dataflows.YFinanceUtils, symbol string, o *dataOptions, saveDir string) (*dataflows.Table, string, error)

var dataAccessors = map[string]dataAccessor{
	"stock": func(ctx context.Context, y *dataflows.YFinanceUtils, s string, o *dataOptions, _ string) (*dataflows.Table, string, error) {
		t, err := y.GetStockData(ctx, s, o.start, o.end)
		return t, "", err
	},
	"info": func(ctx context.Context, y *dataflows.YFinanceUtils, s string, _ *dataOptions, _ string) (*dataflows.Table, string, error) {
		info, err := y.GetStockInfo(ctx, s)
		if err != nil {
			return nil, "", err
		}
		return mapTable(info), "", nil
	},
	"company": func(ctx context.Context, y *dataflows.YFinanceUtils, s string, o *dataOptions, dir string) (*dataflows.Table, string, error) {
		t, err := y.GetCompanyInfo(ctx, s, savePath(o, dir, s, "company_info"))
		return t, "", err
	},
	"dividends": func(ctx context.Context, y *dataflows.YFinanceUtils, s string, o *dataOptions, dir string) (*dataflows.Table, string, error) {
		t, err := y.GetStockDividends(ctx, s, savePath(o, dir, s, "dividends"))
		return t, "", err
	},
	"income": func(ctx context.Context, y *dataflows.YFinanceUtils, s string, _ *dataOptions, _ string) (*dataflows.Table, string, error) {
		t, err := y.GetIncomeStmt(ctx, s)
		return t, "", err
	},
	"balance": func(ctx context.Context, y *dataflows.YFinanceUtils, s string, _ *dataOptions, _ string) (*dataflows.Table, string, error) {
		t, err := y.GetBalanceSheet(ctx, s)
		return t, "", err
	},
	"cashflow": func(ctx context.Context, y *dataflows.YFinanceUtils, s string, _ *dataOptions, _ string) (*dataflows.Table, string, error) {
		t, err := y.GetCashFlow(ctx, s)
		return t, "", err
	},
	"recommendations": func(ctx context.Context, y *dataflows.YFinanceUtils, s string, _ *dataOptions, _ string) (*dataflows.Table, string, error) {
		rating, votes, err := y.GetAnalystRecommendations(ctx, s)
		if err != nil {
			return nil, "", err
		}
		if rating == "" {
			return nil, "No analyst recommendations available.", nil
		}
		return nil, fmt.Sprintf("Majority recommendation: **%s** (%d analysts)", rating, votes), nil
	},
	"news": func(ctx context.Context, y *dataflows.YFinanceUtils, s string, _ *dataOptions, _ string) (*dataflows.Table, string, error) {
		text, err := y.GetNews(ctx, s)
		return nil, text, err
	},
	"insider": func(ctx context.Context, y *dataflows.YFinanceUtils, s string, _ *dataOptions, _ string) (*dataflows.Table, string, error) {
		text, err := y.GetInsiderTransactions(ctx, s)
		if err == nil && text == "" {
			text = "No insider transactions reported."
		}
		return nil, text, err
	},
}

func accessorNames() []string {
	names := make([]string, 0, len(dataAccessors))
	for n := range dataAccessors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func newDataCmd(app *appContext) *cobra.Command {
	opts := &dataOptions{}
	cmd := &cobra.Command{
		Use:   "data KIND SYMBOL",
		Short: "Fetch raw market data for a symbol",
		Long:  "Fetch market data directly from Yahoo Finance. KIND is one of: " + strings.Join(accessorNames(), ", "),
		Example: `  tradecortex data stock AAPL --start 2025-01-01 --end 2025-03-31
  tradecortex data dividends MSFT --save`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return accessorNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fetch, ok := dataAccessors[strings.ToLower(args[0])]
			if !ok {
				return fmt.Errorf("unknown data kind %q, want one of %s", args[0], strings.Join(accessorNames(), ", "))
			}
			symbol := dataflows.NormalizeSymbol(args[1])
			if err := dataflows.ValidateSymbol(symbol); err != nil {
				return err
			}
			if opts.end == "" {
				opts.end = time.Now().Format(time.DateOnly)
			}
			if opts.start == "" {
				end, err := time.Parse(time.DateOnly, opts.end)
				if err != nil {
					return fmt.Errorf("%w: %q", dataflows.ErrInvalidDate, opts.end)
				}
				opts.start = end.AddDate(0, -1, 0).Format(time.DateOnly)
			}

			y := dataflows.NewYFinanceUtils(dataflows.NewYahooClient())
			table, text, err := fetch(cmd.Context(), y, symbol, opts, app.cfg.DataCacheDir)
			if err != nil {
				return err
			}
			if table.Empty() && text == "" {
				app.out.Warning("no %s data for %s", args[0], symbol)
				return nil
			}
			if table != nil {
				app.out.Table(table.Columns, table.Rows)
			}
			if text != "" {
				app.out.Markdown(text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.start, "start", "", "Start date (YYYY-MM-DD), default one month before --end")
	cmd.Flags().StringVar(&opts.end, "end", "", "End date (YYYY-MM-DD), default today")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Also save company/dividends tables as CSV under the data cache dir")
	return cmd
}

func savePath(o *dataOptions, dir, symbol, kind string) string {
	if !o.save || dir == "" {
		return ""
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", symbol, kind))
}

func mapTable(m map[string]any) *dataflows.Table {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	t := dataflows.NewTable("Field", "Value")
	for _, k := range keys {
		t.Append(k, fmt.Sprint(m[k]))
	}
	return t
}

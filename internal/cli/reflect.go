package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyike/TradeCortex/internal/dataflows"
	"github.com/dyike/TradeCortex/internal/graph"
)

func newReflectCmd(app *appContext) *cobra.Command {
	var ticker, date, returns string
	cmd := &cobra.Command{
		Use:   "reflect",
		Short: "Learn from the realized outcome of a past run",
		Long: `Load the state logged for TICKER on DATE, have each learning agent review
its part of that run against the realized returns, and store the lessons in
the agents' memories for future runs.`,
		Example: `  tradecortex reflect --ticker NVDA --date 2025-07-04 --returns "+4.2% over 5 days"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ticker = dataflows.NormalizeSymbol(ticker)
			if ticker == "" || date == "" || strings.TrimSpace(returns) == "" {
				return fmt.Errorf("--ticker, --date and --returns are required")
			}
			state, err := graph.LoadStateLog(app.cfg.ResultsDir, ticker, date)
			if err != nil {
				return fmt.Errorf("load state for %s on %s: %w", ticker, date, err)
			}

			ctx := cmd.Context()
			g, err := graph.New(ctx, app.cfg)
			if err != nil {
				return fmt.Errorf("build trading graph: %w", err)
			}
			defer g.Close()

			g.SetState(state)
			if err := g.ReflectAndRemember(ctx, returns); err != nil {
				return err
			}
			app.out.Success("stored reflections for %s on %s", ticker, date)
			return nil
		},
	}
	cmd.Flags().StringVarP(&ticker, "ticker", "t", "", "Ticker symbol")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Trade date of the run (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&returns, "returns", "r", "", "Realized returns or losses, free text")
	return cmd
}

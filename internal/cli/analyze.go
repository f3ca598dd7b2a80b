package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/internal/graph"
	"github.com/dyike/TradeCortex/internal/logger"
	"github.com/dyike/TradeCortex/internal/storage"
)

type analyzeOptions struct {
	ticker    string
	date      string
	analysts  []string
	rounds    int
	yes       bool
	noHistory bool
}

func newAnalyzeCmd(app *appContext) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full agent pipeline for one ticker",
		Long: `Run analysts, the bull/bear debate, the trader and the risk team for one
ticker on one trade date. Missing flags are asked for interactively.`,
		Example: `  tradecortex analyze --ticker NVDA --date 2025-07-04
  tradecortex analyze --ticker 700.HK --analysts market,news --rounds 2 -y`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, app, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.ticker, "ticker", "t", "", "Ticker symbol")
	cmd.Flags().StringVarP(&opts.date, "date", "d", "", "Trade date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&opts.analysts, "analysts", nil, "Analysts to run: market,social,news,fundamentals")
	cmd.Flags().IntVar(&opts.rounds, "rounds", 0, "Debate rounds for research and risk")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record this run in the session database")
	return cmd
}

func runAnalyze(cmd *cobra.Command, app *appContext, opts *analyzeOptions) error {
	interactive := opts.ticker == ""
	var err error
	if opts.ticker == "" {
		if opts.ticker, err = PromptForTicker(); err != nil {
			return err
		}
	}
	if opts.date == "" {
		if interactive {
			if opts.date, err = PromptForAnalysisDate(); err != nil {
				return err
			}
		} else {
			opts.date = time.Now().Format(time.DateOnly)
		}
	}
	if len(opts.analysts) == 0 && interactive {
		if opts.analysts, err = PromptForAnalysts(); err != nil {
			return err
		}
	}
	if opts.rounds == 0 && interactive {
		if opts.rounds, err = PromptForResearchDepth(); err != nil {
			return err
		}
	}

	cfg := app.cfg.Clone()
	if len(opts.analysts) > 0 {
		cfg.SelectedAnalysts = normalizeList(opts.analysts)
	}
	if opts.rounds > 0 {
		cfg.MaxDebateRounds = opts.rounds
		cfg.MaxRiskDiscussRounds = opts.rounds
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if interactive && !opts.yes {
		ok, err := PromptForConfirmation(strings.ToUpper(opts.ticker), opts.date, cfg.Analysts(), cfg.MaxDebateRounds)
		if err != nil {
			return err
		}
		if !ok {
			app.out.Info("analysis cancelled")
			return nil
		}
	}

	graphOpts := []graph.Option{
		graph.WithProgress(func(ev graph.NodeEvent) {
			app.out.NodeProgress(ev.Node, ev.Done, ev.Err, ev.Duration)
		}),
	}
	if !opts.noHistory {
		store, err := storage.Shared(cfg)
		switch {
		case err == nil:
			graphOpts = append(graphOpts, graph.WithSessionStore(store))
		case !errors.Is(err, storage.ErrDatabaseNotConfigured):
			logger.L().Warn("session history disabled", zap.Error(err))
		}
	}

	ctx := cmd.Context()
	g, err := graph.New(ctx, cfg, graphOpts...)
	if err != nil {
		return fmt.Errorf("build trading graph: %w", err)
	}
	defer g.Close()

	app.out.Banner()
	app.out.Section(fmt.Sprintf("Analyzing %s for %s", strings.ToUpper(opts.ticker), opts.date))
	start := time.Now()
	state, decision, err := g.Propagate(ctx, opts.ticker, opts.date)
	if err != nil {
		app.out.Error(err)
		return err
	}
	app.out.Results(state, decision)
	app.out.Success("completed in %s, reports in %s", time.Since(start).Round(time.Second), cfg.ResultsDir)
	return nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

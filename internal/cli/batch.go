package cli

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyike/TradeCortex/config"
	"github.com/dyike/TradeCortex/internal/app"
	"github.com/dyike/TradeCortex/internal/display"
)

type batchOptions struct {
	file        string
	date        string
	concurrency int
}

func newBatchCmd(appCtx *appContext) *cobra.Command {
	opts := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch [SYMBOLS...]",
		Short: "Analyze several tickers for one trade date",
		Long: `Analyze several tickers concurrently. Symbols come from the arguments
and/or a file with one symbol per line ('#' starts a comment). The config
file is watched while the batch runs; edits apply to symbols not yet started.`,
		Example: `  tradecortex batch AAPL MSFT NVDA --date 2025-07-04
  tradecortex batch --file watchlist.txt --concurrency 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, appCtx, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "File with one symbol per line")
	cmd.Flags().StringVarP(&opts.date, "date", "d", "", "Trade date (YYYY-MM-DD), default today")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 2, "Symbols analyzed in parallel")
	return cmd
}

func runBatch(cmd *cobra.Command, appCtx *appContext, opts *batchOptions, args []string) error {
	symbols := normalizeSymbols(args)
	if opts.file != "" {
		fromFile, err := LoadSymbolsFromFile(opts.file)
		if err != nil {
			return err
		}
		symbols = append(symbols, fromFile...)
	}
	symbols = dedupe(symbols)
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols given: pass SYMBOLS or --file")
	}
	if opts.date == "" {
		opts.date = time.Now().Format(time.DateOnly)
	}

	mgrOpts := []config.ManagerOption{config.WithInitialConfig(appCtx.cfg)}
	if appCtx.cfgPath != "" {
		mgrOpts = append(mgrOpts, config.WithConfigPath(appCtx.cfgPath))
	}
	mgr, err := config.NewManager(mgrOpts...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rt, err := app.NewRuntime(ctx, mgr, app.WithNotifier(func(topic, payload string) {
		appCtx.out.Info("%s %s", topic, payload)
	}))
	if err != nil {
		return err
	}
	defer rt.Close()

	appCtx.out.Banner()
	appCtx.out.Info("analyzing %d symbols for %s (config %s)", len(symbols), opts.date, mgr.Path())

	var finished atomic.Int32
	results, err := rt.RunBatch(ctx, symbols, opts.date, opts.concurrency, func(r app.Result) {
		n := finished.Add(1)
		if r.Err != nil {
			appCtx.out.Warning("[%d/%d] %s failed: %v", n, len(symbols), r.Symbol, r.Err)
			return
		}
		appCtx.out.Success("[%d/%d] %s %s", n, len(symbols), r.Symbol, r.Decision)
	})

	appCtx.out.Section("Batch results")
	appCtx.out.Table([]string{"Symbol", "Decision", "Elapsed", "Error"}, resultRows(results))
	if err != nil {
		return err
	}
	if failed := countFailed(results); failed > 0 {
		return fmt.Errorf("%d of %d symbols failed", failed, len(results))
	}
	return nil
}

func resultRows(results []app.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		decision := "-"
		if r.Decision != "" {
			decision = display.Signal(r.Decision)
		}
		rows = append(rows, []string{r.Symbol, decision, r.Elapsed.Round(time.Second).String(), errText})
	}
	return rows
}

func countFailed(results []app.Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// LoadSymbolsFromFile loads symbols from a text file (one symbol per line)
func LoadSymbolsFromFile(filename string) ([]string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read symbols file: %w", err)
	}

	var symbols []string
	for _, line := range strings.Split(string(data), "\n") {
		symbol := strings.TrimSpace(strings.ToUpper(line))
		if symbol != "" && !strings.HasPrefix(symbol, "#") {
			symbols = append(symbols, symbol)
		}
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no valid symbols found in file: %s", filename)
	}
	return symbols, nil
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(strings.ToUpper(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dyike/TradeCortex/config"
	"github.com/dyike/TradeCortex/internal/debug"
	"github.com/dyike/TradeCortex/internal/display"
	"github.com/dyike/TradeCortex/internal/logger"
	"github.com/dyike/TradeCortex/internal/trace"
)

// appContext is shared by every subcommand; it is filled in by the root
// command's PersistentPreRunE.
type appContext struct {
	cfgPath string
	debug   bool

	cfg *config.Config
	out *display.Printer
}

func (a *appContext) setup(ctx context.Context) error {
	var (
		cfg *config.Config
		err error
	)
	if a.cfgPath != "" {
		cfg, err = config.LoadFile(a.cfgPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.DefaultConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if a.debug {
		cfg.Debug = true
	}
	a.cfg = cfg

	if _, err := logger.Init(logger.Options{Level: cfg.LogLevel, Debug: cfg.Debug}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if cfg.TracingEnabled {
		if err := trace.Init(ctx, os.Stderr); err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := debug.NewEinoDebugger(cfg).Initialize(ctx); err != nil {
		logger.L().Warn("eino debug unavailable", zap.Error(err))
	}
	return nil
}

func (a *appContext) teardown(ctx context.Context) {
	if err := trace.Shutdown(ctx); err != nil {
		logger.L().Warn("flush traces", zap.Error(err))
	}
	logger.Sync()
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	app := &appContext{}

	rootCmd := &cobra.Command{
		Use:   "tradecortex",
		Short: "TradeCortex - multi-agent trading analysis",
		Long: `TradeCortex runs a team of LLM agents (analysts, researchers, a trader and
a risk team) over market data and produces a BUY, SELL or HOLD decision.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app.out = display.New(cmd.OutOrStdout(), 100)
			if cmd.Name() == "version" {
				return nil
			}
			return app.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			app.teardown(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().BoolVar(&app.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&app.cfgPath, "config", "", "Configuration file path (JSON or YAML)")

	rootCmd.AddCommand(
		newAnalyzeCmd(app),
		newBatchCmd(app),
		newDataCmd(app),
		newReflectCmd(app),
		newHistoryCmd(app),
		newConfigCmd(app),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tradecortex %s\n", Version)
		},
	}
}

func newConfigCmd(app *appContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration with secrets masked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(maskSecrets(app.cfg))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and report missing credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.cfg.Validate(); err != nil {
				return err
			}
			reportWarnings(app.out, configWarnings(app.cfg))
			return nil
		},
	})
	return configCmd
}

func maskSecrets(cfg *config.Config) *config.Config {
	c := cfg.Clone()
	for _, s := range []*string{
		&c.DeepSeekAPIKey, &c.OpenAIAPIKey, &c.GoogleAPIKey, &c.FinnhubAPIKey,
		&c.LongportAppKey, &c.LongportAppSecret, &c.LongportAccessToken,
	} {
		if *s != "" {
			*s = mask(*s)
		}
	}
	return c
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func reportWarnings(out *display.Printer, warnings []string) {
	for _, w := range warnings {
		out.Warning("%s", w)
	}
	if len(warnings) == 0 {
		out.Success("configuration is valid")
	} else {
		out.Info("configuration is valid with %d warnings; some data sources will be skipped", len(warnings))
	}
}

func configWarnings(cfg *config.Config) []string {
	var w []string
	if cfg.APIKey() == "" {
		w = append(w, fmt.Sprintf("no API key for llm provider %q", cfg.LLMProvider))
	}
	if cfg.FinnhubAPIKey == "" {
		w = append(w, "FINNHUB_API_KEY not set: Finnhub news and insider data disabled")
	}
	if cfg.LongportAppKey == "" {
		w = append(w, "LONGPORT_* not set: HK/CN symbols fall back to Yahoo")
	}
	if cfg.EmbeddingProvider == "genai" && cfg.GoogleAPIKey == "" {
		w = append(w, "GOOGLE_API_KEY not set for genai embeddings")
	}
	return w
}

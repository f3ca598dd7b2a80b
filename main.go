package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dyike/TradeCortex/config"
	"github.com/dyike/TradeCortex/internal/graph"
	"github.com/dyike/TradeCortex/internal/llm"
	"github.com/dyike/TradeCortex/internal/logger"
)

// Minimal programmatic run: one ticker, quick model on both tiers.
func main() {
	cfg := config.DefaultConfig()
	cfg.DeepThinkLLM = cfg.QuickThinkLLM
	cfg.MaxDebateRounds = 1
	cfg.OnlineTools = true

	if err := run(context.Background(), cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	if _, err := logger.Init(logger.Options{Level: cfg.LogLevel}); err != nil {
		return err
	}
	defer logger.Sync()

	quick, err := llm.NewChatModel(ctx, cfg, cfg.QuickThinkLLM)
	if err != nil {
		return fmt.Errorf("create chat model: %w", err)
	}

	ta, err := graph.New(ctx, cfg, graph.WithModels(quick, quick))
	if err != nil {
		return fmt.Errorf("build trading graph: %w", err)
	}
	defer ta.Close()

	_, decision, err := ta.Propagate(ctx, "MSFT", "2025-07-04")
	if err != nil {
		return fmt.Errorf("trading analysis failed: %w", err)
	}
	fmt.Println(decision)

	// After the position closes:
	// ta.ReflectAndRemember(ctx, "+1000")
	return nil
}

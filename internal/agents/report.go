package agents

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/logger"
)

var reportFiles = map[string]string{
	consts.MarketAnalyst:       "market_report.md",
	consts.SocialMediaAnalyst:  "sentiment_report.md",
	consts.NewsAnalyst:         "news_report.md",
	consts.FundamentalsAnalyst: "fundamentals_report.md",
	consts.BullResearcher:      "bull_researcher_report.md",
	consts.BearResearcher:      "bear_researcher_report.md",
	consts.ResearchManager:     "investment_plan.md",
	consts.Trader:              "trader_investment_plan.md",
	consts.RiskyAnalyst:        "risky_analyst_report.md",
	consts.SafeAnalyst:         "safe_analyst_report.md",
	consts.NeutralAnalyst:      "neutral_analyst_report.md",
	consts.RiskJudge:           "final_trade_decision.md",
}

// ReportWriter stores agent outputs under <root>/<TICKER>/<date>/reports.
type ReportWriter struct {
	root string
}

func NewReportWriter(resultsDir string) *ReportWriter {
	return &ReportWriter{root: resultsDir}
}

func (w *ReportWriter) Dir(ticker, tradeDate string) string {
	return filepath.Join(w.root, ticker, tradeDate, "reports")
}

// Write replaces the report file of node.
func (w *ReportWriter) Write(ticker, tradeDate, node, content string) error {
	name, ok := reportFiles[node]
	if !ok {
		name = node + ".md"
	}
	return WriteMarkdown(w.Dir(ticker, tradeDate), name, content)
}

func WriteMarkdown(dir, fileName, content string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fileName)
	// 写入文件
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	logger.Named("report").Debug("written", zap.String("path", path))
	return nil
}

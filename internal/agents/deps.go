package agents

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/config"
	"github.com/dyike/TradeCortex/internal/logger"
	"github.com/dyike/TradeCortex/internal/memory"
	"github.com/dyike/TradeCortex/internal/tools"
)

// Recorder receives every agent output of a run, e.g. the session store.
type Recorder interface {
	RecordMessage(ctx context.Context, agent, content string)
}

// Deps is everything an agent node needs. One Deps serves one compiled graph.
type Deps struct {
	Config     *config.Config
	QuickModel model.ToolCallingChatModel
	DeepModel  model.ToolCallingChatModel
	Memories   *memory.Set
	Tools      tools.DataSource
	Logic      *ConditionalLogic
	Reports    *ReportWriter
	Recorder   Recorder
}

// Publish fans an agent output out to the report files and the recorder.
func (d *Deps) Publish(ctx context.Context, node, ticker, tradeDate, content string) {
	if d.Reports != nil {
		if err := d.Reports.Write(ticker, tradeDate, node, content); err != nil {
			logger.Named("agents").Warn("write report failed", zap.String("agent", node), zap.Error(err))
		}
	}
	if d.Recorder != nil {
		d.Recorder.RecordMessage(ctx, node, content)
	}
}

// PastMemories looks up the n closest situations in mem and joins their
// recommendations. Lookup failures are logged and read as no memories.
func PastMemories(ctx context.Context, mem *memory.FinancialSituationMemory, situation string, n int) string {
	if mem == nil {
		return ""
	}
	matches, err := mem.GetMemories(ctx, situation, n)
	if err != nil {
		logger.Named("agents").Warn("memory lookup failed",
			zap.String("memory", mem.Name()), zap.Error(err))
		return ""
	}
	return memory.FormatRecommendations(matches)
}

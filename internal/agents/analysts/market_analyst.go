package analysts

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/tools"
	"github.com/dyike/TradeCortex/models"
)

// NewMarketAnalystNode reads price history and technical indicators.
func NewMarketAnalystNode(ctx context.Context, deps *agents.Deps, next string) (*compose.Graph[string, string], error) {
	return newAnalystNode(ctx, deps, analyst{
		key:    consts.MarketAnalyst,
		prompt: "market_analyst",
		tools:  tools.MarketTools(deps.Tools),
		setReport: func(state *models.TradingState, report string) {
			state.MarketReport = report
		},
	}, next)
}

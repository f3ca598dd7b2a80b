package analysts

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/tools"
	"github.com/dyike/TradeCortex/models"
)

// NewFundamentalsAnalystNode covers statements, insider activity and analyst ratings.
func NewFundamentalsAnalystNode(ctx context.Context, deps *agents.Deps, next string) (*compose.Graph[string, string], error) {
	return newAnalystNode(ctx, deps, analyst{
		key:    consts.FundamentalsAnalyst,
		prompt: "fundamentals_analyst",
		tools:  tools.FundamentalsTools(deps.Tools),
		setReport: func(state *models.TradingState, report string) {
			state.FundamentalsReport = report
		},
	}, next)
}

package analysts

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/tools"
	"github.com/dyike/TradeCortex/models"
)

func NewSocialMediaAnalystNode(ctx context.Context, deps *agents.Deps, next string) (*compose.Graph[string, string], error) {
	return newAnalystNode(ctx, deps, analyst{
		key:    consts.SocialMediaAnalyst,
		prompt: "social_analyst",
		tools:  tools.SocialTools(deps.Tools),
		setReport: func(state *models.TradingState, report string) {
			state.SentimentReport = report
		},
	}, next)
}

package analysts

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/logger"
	"github.com/dyike/TradeCortex/models"
)

// analyst describes one member of the analyst team.
type analyst struct {
	key       string
	prompt    string
	tools     []tool.BaseTool
	setReport func(state *models.TradingState, report string)
}

func newAnalystNode(ctx context.Context, deps *agents.Deps, a analyst, next string) (*compose.Graph[string, string], error) {
	toolNames, err := agents.ToolNames(ctx, a.tools)
	if err != nil {
		return nil, fmt.Errorf("%s tools: %w", a.key, err)
	}

	load := func(ctx context.Context, _ string, _ ...any) ([]*schema.Message, error) {
		state, err := agents.ReadState(ctx)
		if err != nil {
			return nil, err
		}
		systemMessage, err := agents.LoadPrompt("analysts/" + a.prompt)
		if err != nil {
			return nil, err
		}
		return agents.SystemPrompt(ctx, "analysts/analyst_system", map[string]any{
			"tool_names":     toolNames,
			"system_message": systemMessage,
			"current_date":   state.TradeDate,
			"ticker":         state.CompanyOfInterest,
		}, schema.UserMessage(state.CompanyOfInterest))
	}

	route := func(ctx context.Context, input *schema.Message, _ ...any) (string, error) {
		var ticker, date, report string
		goTo, err := agents.UpdateState(ctx, func(state *models.TradingState) {
			ticker, date = state.CompanyOfInterest, state.TradeDate
			if input != nil {
				report = input.Content
				a.setReport(state, report)
				state.Messages = append(state.Messages, input)
			}
			state.Goto = next
			if next == consts.BullResearcher {
				state.AnalysisPhaseComplete = true
				state.Phase = consts.Phase_Debate
			}
		})
		if err != nil {
			return "", err
		}
		logger.Named("agents").Info("analyst report ready",
			zap.String("agent", a.key), zap.String("ticker", ticker), zap.Int("chars", len(report)))
		deps.Publish(ctx, a.key, ticker, date, report)
		return goTo, nil
	}

	return agents.NewReactAgentGraph(ctx, deps.QuickModel, a.tools, load, route)
}

// NewAnalystNode builds the analyst registered under key. next is the node
// that runs after it: the following selected analyst or the bull researcher.
func NewAnalystNode(ctx context.Context, deps *agents.Deps, key, next string) (*compose.Graph[string, string], error) {
	switch key {
	case consts.MarketAnalyst:
		return NewMarketAnalystNode(ctx, deps, next)
	case consts.SocialMediaAnalyst:
		return NewSocialMediaAnalystNode(ctx, deps, next)
	case consts.NewsAnalyst:
		return NewNewsAnalystNode(ctx, deps, next)
	case consts.FundamentalsAnalyst:
		return NewFundamentalsAnalystNode(ctx, deps, next)
	default:
		return nil, fmt.Errorf("unknown analyst %q", key)
	}
}

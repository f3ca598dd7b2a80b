package risk_mgmt

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/models"
)

// riskAnalyst is one voice of the three-way risk discussion.
type riskAnalyst struct {
	key     string
	prompt  string
	speaker string
	latest  string
	history func(*models.RiskDebateState) *string
	current func(*models.RiskDebateState) *string
}

func newRiskAnalystNode(deps *agents.Deps, a riskAnalyst) (*compose.Graph[string, string], error) {
	load := func(ctx context.Context, _ string, _ ...any) ([]*schema.Message, error) {
		state, err := agents.ReadState(ctx)
		if err != nil {
			return nil, err
		}
		risk := state.RiskDebateState
		return agents.UserPrompt(ctx, "risk_mgmt/"+a.prompt, map[string]any{
			"trader_decision":          state.TraderInvestmentPlan,
			"market_research_report":   state.MarketReport,
			"sentiment_report":         state.SentimentReport,
			"news_report":              state.NewsReport,
			"fundamentals_report":      state.FundamentalsReport,
			"history":                  risk.History,
			"current_risky_response":   risk.CurrentRiskyResponse,
			"current_safe_response":    risk.CurrentSafeResponse,
			"current_neutral_response": risk.CurrentNeutralResponse,
		})
	}

	route := func(ctx context.Context, input *schema.Message, _ ...any) (string, error) {
		var ticker, date, own string
		next, err := agents.UpdateState(ctx, func(state *models.TradingState) {
			ticker, date = state.CompanyOfInterest, state.TradeDate
			risk := state.RiskDebateState
			if input != nil {
				argument := a.speaker + ": " + strings.TrimSpace(input.Content)
				risk.History = risk.History + "\n" + argument
				h := a.history(risk)
				*h = *h + "\n" + argument
				own = *h
				*a.current(risk) = argument
				risk.LatestSpeaker = a.latest
				risk.Count++
				state.Messages = append(state.Messages, input)
			}
			state.Goto = deps.Logic.ShouldContinueRiskAnalysis(risk)
		})
		if err != nil {
			return "", err
		}
		deps.Publish(ctx, a.key, ticker, date, strings.TrimSpace(own))
		return next, nil
	}

	return agents.NewChatAgentGraph(deps.QuickModel, load, route)
}

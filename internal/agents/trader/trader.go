package trader

import (
	"context"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/memory"
	"github.com/dyike/TradeCortex/models"
)

const noPastMemories = "No past memories found."

func loadTraderMessages(deps *agents.Deps) func(ctx context.Context, _ string, _ ...any) ([]*schema.Message, error) {
	return func(ctx context.Context, _ string, _ ...any) ([]*schema.Message, error) {
		state, err := agents.ReadState(ctx)
		if err != nil {
			return nil, err
		}
		var mem *memory.FinancialSituationMemory
		if deps.Memories != nil {
			mem = deps.Memories.Trader
		}
		pastMemoryStr := agents.PastMemories(ctx, mem, state.Situation(), 2)
		if pastMemoryStr == "" {
			pastMemoryStr = noPastMemories
		}

		user, err := agents.UserPrompt(ctx, "trader/trader_user", map[string]any{
			"company_name":    state.CompanyOfInterest,
			"investment_plan": state.InvestmentPlan,
		})
		if err != nil {
			return nil, err
		}
		return agents.SystemPrompt(ctx, "trader/trader_system", map[string]any{
			"past_memory_str": pastMemoryStr,
		}, user...)
	}
}

func traderRouter(deps *agents.Deps) func(ctx context.Context, input *schema.Message, _ ...any) (string, error) {
	return func(ctx context.Context, input *schema.Message, _ ...any) (string, error) {
		var ticker, date, plan string
		next, err := agents.UpdateState(ctx, func(state *models.TradingState) {
			ticker, date = state.CompanyOfInterest, state.TradeDate
			if input != nil {
				plan = input.Content
				state.TraderInvestmentPlan = plan
				state.Messages = append(state.Messages, input)
			}
			state.TradingPhaseComplete = true
			state.Phase = consts.Phase_Risk
			state.Goto = deps.Logic.ShouldContinueRiskAnalysis(state.RiskDebateState)
		})
		if err != nil {
			return "", err
		}
		deps.Publish(ctx, consts.Trader, ticker, date, plan)
		return next, nil
	}
}

// NewTraderNode turns the investment plan into a transaction proposal.
func NewTraderNode(deps *agents.Deps) (*compose.Graph[string, string], error) {
	return agents.NewChatAgentGraph(deps.QuickModel, loadTraderMessages(deps), traderRouter(deps))
}

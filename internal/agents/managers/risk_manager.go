package managers

import (
	"context"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/memory"
	"github.com/dyike/TradeCortex/models"
)

func loadRiskManagerMessages(deps *agents.Deps) func(ctx context.Context, _ string, _ ...any) ([]*schema.Message, error) {
	return func(ctx context.Context, _ string, _ ...any) ([]*schema.Message, error) {
		state, err := agents.ReadState(ctx)
		if err != nil {
			return nil, err
		}
		var mem *memory.FinancialSituationMemory
		if deps.Memories != nil {
			mem = deps.Memories.RiskManager
		}
		return agents.UserPrompt(ctx, "managers/risk_manager", map[string]any{
			"company_name":    state.CompanyOfInterest,
			"trader_plan":     state.InvestmentPlan,
			"past_memory_str": agents.PastMemories(ctx, mem, state.Situation(), 2),
			"history":         state.RiskDebateState.History,
		})
	}
}

func riskManagerRouter(deps *agents.Deps) func(ctx context.Context, input *schema.Message, _ ...any) (string, error) {
	return func(ctx context.Context, input *schema.Message, _ ...any) (string, error) {
		var ticker, date, decision string
		next, err := agents.UpdateState(ctx, func(state *models.TradingState) {
			ticker, date = state.CompanyOfInterest, state.TradeDate
			if input != nil {
				decision = input.Content
				state.Messages = append(state.Messages, input)
			}
			risk := state.RiskDebateState
			risk.JudgeDecision = decision
			risk.LatestSpeaker = consts.Latest_Judge
			state.FinalTradeDecision = decision

			state.RiskPhaseComplete = true
			state.WorkflowComplete = true
			state.Phase = consts.Phase_Done
			state.Goto = compose.END
		})
		if err != nil {
			return "", err
		}
		deps.Publish(ctx, consts.RiskJudge, ticker, date, decision)
		return next, nil
	}
}

// NewRiskManagerNode is the risk judge: it closes the risk debate and writes
// the final trade decision.
func NewRiskManagerNode(deps *agents.Deps) (*compose.Graph[string, string], error) {
	return agents.NewChatAgentGraph(deps.DeepModel, loadRiskManagerMessages(deps), riskManagerRouter(deps))
}

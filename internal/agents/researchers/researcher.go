package researchers

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/memory"
	"github.com/dyike/TradeCortex/models"
)

// debater is one side of the investment debate.
type debater struct {
	key     string
	prompt  string
	speaker string
	memory  func(*memory.Set) *memory.FinancialSituationMemory
	history func(*models.InvestDebateState) *string
}

func newDebaterNode(deps *agents.Deps, d debater) (*compose.Graph[string, string], error) {
	load := func(ctx context.Context, _ string, _ ...any) ([]*schema.Message, error) {
		state, err := agents.ReadState(ctx)
		if err != nil {
			return nil, err
		}
		var mem *memory.FinancialSituationMemory
		if deps.Memories != nil {
			mem = d.memory(deps.Memories)
		}
		debate := state.InvestmentDebateState
		return agents.UserPrompt(ctx, "researchers/"+d.prompt, map[string]any{
			"market_research_report": state.MarketReport,
			"sentiment_report":       state.SentimentReport,
			"news_report":            state.NewsReport,
			"fundamentals_report":    state.FundamentalsReport,
			"history":                debate.History,
			"current_response":       debate.CurrentResponse,
			"past_memory_str":        agents.PastMemories(ctx, mem, state.Situation(), 2),
		})
	}

	route := func(ctx context.Context, input *schema.Message, _ ...any) (string, error) {
		var ticker, date, own string
		next, err := agents.UpdateState(ctx, func(state *models.TradingState) {
			ticker, date = state.CompanyOfInterest, state.TradeDate
			debate := state.InvestmentDebateState
			if input != nil {
				argument := d.speaker + ": " + strings.TrimSpace(input.Content)
				debate.History = debate.History + "\n" + argument
				h := d.history(debate)
				*h = *h + "\n" + argument
				own = *h
				debate.CurrentResponse = argument
				debate.Count++
				state.Messages = append(state.Messages, input)
			}
			state.Goto = deps.Logic.ShouldContinueDebate(debate)
		})
		if err != nil {
			return "", err
		}
		deps.Publish(ctx, d.key, ticker, date, strings.TrimSpace(own))
		return next, nil
	}

	return agents.NewChatAgentGraph(deps.QuickModel, load, route)
}

package managers

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/logger"
	"github.com/dyike/TradeCortex/internal/memory"
	"github.com/dyike/TradeCortex/models"
)

const (
	noBullArguments = "No recent bull arguments."
	noBearArguments = "No recent bear arguments."
)

// BuildResearchManagerPrompt fills the research manager template.
func BuildResearchManagerPrompt(pastMemoryStr, history string) string {
	tpl := agents.MustLoadPrompt("managers/research_manager")
	return strings.NewReplacer(
		"{past_memory_str}", pastMemoryStr,
		"{history}", history,
	).Replace(tpl)
}

// LatestArguments returns the last bull and bear lines of the debate
// history with the speaker prefix removed.
func LatestArguments(history string) (bull, bear string) {
	bull, bear = noBullArguments, noBearArguments
	bullPrefix := consts.SpeakerBull + ":"
	bearPrefix := consts.SpeakerBear + ":"
	for _, line := range strings.Split(history, "\n") {
		switch {
		case strings.HasPrefix(line, bullPrefix):
			bull = strings.TrimSpace(strings.ReplaceAll(line, bullPrefix, ""))
		case strings.HasPrefix(line, bearPrefix):
			bear = strings.TrimSpace(strings.ReplaceAll(line, bearPrefix, ""))
		}
	}
	return bull, bear
}

// SummarizeDebate builds the condensed investment plan handed to the trader.
func SummarizeDebate(bull, bear, conclusion string) string {
	var b strings.Builder
	b.WriteString("**Investment Debate Summary**\n\n")
	fmt.Fprintf(&b, "**Bull Analyst Key Point:** %s\n\n", bull)
	fmt.Fprintf(&b, "**Bear Analyst Key Point:** %s\n\n", bear)
	fmt.Fprintf(&b, "**Research Manager's Conclusion:** %s", conclusion)
	return b.String()
}

func loadResearchManagerMessages(deps *agents.Deps) func(ctx context.Context, _ string, _ ...any) ([]*schema.Message, error) {
	return func(ctx context.Context, _ string, _ ...any) ([]*schema.Message, error) {
		state, err := agents.ReadState(ctx)
		if err != nil {
			return nil, err
		}
		var mem *memory.FinancialSituationMemory
		if deps.Memories != nil {
			mem = deps.Memories.InvestJudge
		}
		pastMemoryStr := agents.PastMemories(ctx, mem, state.Situation(), 2)
		return []*schema.Message{
			schema.UserMessage(BuildResearchManagerPrompt(pastMemoryStr, state.InvestmentDebateState.History)),
		}, nil
	}
}

func researchManagerRouter(deps *agents.Deps) func(ctx context.Context, input *schema.Message, _ ...any) (string, error) {
	return func(ctx context.Context, input *schema.Message, _ ...any) (string, error) {
		var ticker, date, plan string
		next, err := agents.UpdateState(ctx, func(state *models.TradingState) {
			ticker, date = state.CompanyOfInterest, state.TradeDate
			response := ""
			if input != nil {
				response = input.Content
				state.Messages = append(state.Messages, input)
			}
			debate := state.InvestmentDebateState
			// History, BullHistory, BearHistory and Count are left as they are.
			debate.JudgeDecision = response
			debate.CurrentResponse = response

			bull, bear := LatestArguments(debate.History)
			plan = SummarizeDebate(bull, bear, response)
			state.InvestmentPlan = plan

			state.DebatePhaseComplete = true
			state.Phase = consts.Phase_Trading
			state.Goto = consts.Trader
		})
		if err != nil {
			return "", err
		}
		logger.Named("agents").Info("investment plan ready", zap.String("ticker", ticker))
		deps.Publish(ctx, consts.ResearchManager, ticker, date, plan)
		return next, nil
	}
}

// NewResearchManagerNode judges the bull/bear debate with the deep-think model.
func NewResearchManagerNode(deps *agents.Deps) (*compose.Graph[string, string], error) {
	return agents.NewChatAgentGraph(deps.DeepModel, loadResearchManagerMessages(deps), researchManagerRouter(deps))
}

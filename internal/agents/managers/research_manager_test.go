package managers

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/agents/agenttest"
	"github.com/dyike/TradeCortex/internal/memory"
	"github.com/dyike/TradeCortex/models"
)

func TestLatestArguments(t *testing.T) {
	history := "\nBull Analyst: first bull\nBear Analyst: first bear\nBull Analyst:   second bull  \nnoise line"
	bull, bear := LatestArguments(history)
	assert.Equal(t, "second bull", bull)
	assert.Equal(t, "first bear", bear)

	bull, bear = LatestArguments("")
	assert.Equal(t, "No recent bull arguments.", bull)
	assert.Equal(t, "No recent bear arguments.", bear)

	// only lines that start with the prefix count
	bull, _ = LatestArguments("  Bull Analyst: indented")
	assert.Equal(t, "No recent bull arguments.", bull)
}

func TestSummarizeDebate(t *testing.T) {
	got := SummarizeDebate("growth", "valuation", "Buy.")
	want := "**Investment Debate Summary**\n\n" +
		"**Bull Analyst Key Point:** growth\n\n" +
		"**Bear Analyst Key Point:** valuation\n\n" +
		"**Research Manager's Conclusion:** Buy."
	assert.Equal(t, want, got)
}

func TestBuildResearchManagerPrompt(t *testing.T) {
	p := BuildResearchManagerPrompt("lesson one\n\n", "Bull Analyst: a\nBear Analyst: b")
	assert.True(t, strings.HasPrefix(p, "As the portfolio manager and debate facilitator"))
	assert.Contains(t, p, "Here are your past reflections on mistakes:\n\"lesson one\n\n\"")
	assert.True(t, strings.HasSuffix(p, "Debate History:\nBull Analyst: a\nBear Analyst: b"))

	empty := BuildResearchManagerPrompt("", "")
	assert.Contains(t, empty, "\"\"")
}

func debatedState() *models.TradingState {
	s := models.NewTradingState("msft", "2025-07-04")
	s.MarketReport = "uptrend"
	s.SentimentReport = "positive"
	s.NewsReport = "new product"
	s.FundamentalsReport = "strong cash flow"
	s.InvestmentDebateState = &models.InvestDebateState{
		History:         "\nBull Analyst: cloud growth\nBear Analyst: stretched multiple",
		BullHistory:     "\nBull Analyst: cloud growth",
		BearHistory:     "\nBear Analyst: stretched multiple",
		CurrentResponse: "Bear Analyst: stretched multiple",
		Count:           2,
	}
	return s
}

func TestResearchManagerNode(t *testing.T) {
	ctx := context.Background()
	mems := memory.NewSet(memory.NewHashEmbedder(128), memory.NewMemStore())
	state := debatedState()
	require.NoError(t, mems.InvestJudge.AddSituations(ctx, []memory.Situation{
		{Situation: state.Situation(), Recommendation: "Do not chase momentum."},
	}))

	deep := &agenttest.ChatModel{Content: "I side with the bull. Buy."}
	rec := &agenttest.Recorder{}
	deps := &agents.Deps{DeepModel: deep, Memories: mems, Recorder: rec, Logic: agents.NewConditionalLogic(1, 1)}

	node, err := NewResearchManagerNode(deps)
	require.NoError(t, err)
	next, err := agenttest.RunNode(ctx, node, state)
	require.NoError(t, err)
	assert.Equal(t, consts.Trader, next)

	calls := deep.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0], 1)
	assert.Equal(t, schema.User, calls[0][0].Role)
	assert.Contains(t, calls[0][0].Content, "\"Do not chase momentum.\n\n\"")
	assert.Contains(t, calls[0][0].Content, "Bear Analyst: stretched multiple")

	d := state.InvestmentDebateState
	assert.Equal(t, "I side with the bull. Buy.", d.JudgeDecision)
	assert.Equal(t, "I side with the bull. Buy.", d.CurrentResponse)
	assert.Equal(t, 2, d.Count)
	assert.Equal(t, "\nBull Analyst: cloud growth", d.BullHistory)
	assert.Equal(t, "\nBear Analyst: stretched multiple", d.BearHistory)
	assert.Equal(t, SummarizeDebate("cloud growth", "stretched multiple", "I side with the bull. Buy."), state.InvestmentPlan)
	assert.Equal(t, consts.Phase_Trading, state.Phase)
	assert.Equal(t, []string{consts.ResearchManager}, rec.Agents)
}

func TestResearchManagerNodeWithoutMemories(t *testing.T) {
	deep := &agenttest.ChatModel{Content: "Hold."}
	node, err := NewResearchManagerNode(&agents.Deps{DeepModel: deep, Logic: agents.NewConditionalLogic(1, 1)})
	require.NoError(t, err)

	state := models.NewTradingState("MSFT", "2025-07-04")
	_, err = agenttest.RunNode(context.Background(), node, state)
	require.NoError(t, err)
	assert.Contains(t, deep.LastPrompt(), "Here are your past reflections on mistakes:\n\"\"")
	assert.Contains(t, state.InvestmentPlan, "**Bull Analyst Key Point:** No recent bull arguments.")
	assert.Contains(t, state.InvestmentPlan, "**Bear Analyst Key Point:** No recent bear arguments.")
}

func TestResearchManagerModelError(t *testing.T) {
	node, err := NewResearchManagerNode(&agents.Deps{DeepModel: agenttest.Failing(), Logic: agents.NewConditionalLogic(1, 1)})
	require.NoError(t, err)
	state := debatedState()
	_, err = agenttest.RunNode(context.Background(), node, state)
	require.Error(t, err)
	assert.Empty(t, state.InvestmentPlan)
}

func TestRiskManagerNode(t *testing.T) {
	state := debatedState()
	state.InvestmentPlan = "buy on dips"
	state.RiskDebateState.History = "\nRisky Analyst: go big\nSafe Analyst: careful"
	state.RiskDebateState.Count = 3

	deep := &agenttest.ChatModel{Content: "FINAL: Buy a half position."}
	node, err := NewRiskManagerNode(&agents.Deps{DeepModel: deep, Logic: agents.NewConditionalLogic(1, 1)})
	require.NoError(t, err)
	next, err := agenttest.RunNode(context.Background(), node, state)
	require.NoError(t, err)

	assert.Equal(t, compose.END, next)
	assert.Contains(t, deep.LastPrompt(), "**buy on dips**")
	assert.Contains(t, deep.LastPrompt(), "Safe Analyst: careful")
	assert.Equal(t, "FINAL: Buy a half position.", state.FinalTradeDecision)
	assert.Equal(t, "FINAL: Buy a half position.", state.RiskDebateState.JudgeDecision)
	assert.Equal(t, consts.Latest_Judge, state.RiskDebateState.LatestSpeaker)
	assert.True(t, state.WorkflowComplete)
}

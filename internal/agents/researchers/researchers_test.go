package researchers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/agents/agenttest"
	"github.com/dyike/TradeCortex/internal/memory"
	"github.com/dyike/TradeCortex/models"
)

func newDeps(quick *agenttest.ChatModel, mems *memory.Set) *agents.Deps {
	return &agents.Deps{QuickModel: quick, Memories: mems, Logic: agents.NewConditionalLogic(1, 1)}
}

func TestBullOpensDebate(t *testing.T) {
	ctx := context.Background()
	mems := memory.NewSet(memory.NewHashEmbedder(128), memory.NewMemStore())
	state := models.NewTradingState("NVDA", "2025-07-04")
	state.MarketReport = "breakout above resistance"
	require.NoError(t, mems.Bull.AddSituations(ctx, []memory.Situation{
		{Situation: state.Situation(), Recommendation: "Size in slowly."},
	}))

	quick := &agenttest.ChatModel{Content: "  Demand for GPUs keeps growing.  "}
	node, err := NewBullResearcherNode(newDeps(quick, mems))
	require.NoError(t, err)
	next, err := agenttest.RunNode(ctx, node, state)
	require.NoError(t, err)

	assert.Equal(t, consts.BearResearcher, next)
	d := state.InvestmentDebateState
	assert.Equal(t, "\nBull Analyst: Demand for GPUs keeps growing.", d.History)
	assert.Equal(t, d.History, d.BullHistory)
	assert.Empty(t, d.BearHistory)
	assert.Equal(t, "Bull Analyst: Demand for GPUs keeps growing.", d.CurrentResponse)
	assert.Equal(t, 1, d.Count)

	prompt := quick.LastPrompt()
	assert.Contains(t, prompt, "Market research report: breakout above resistance")
	assert.Contains(t, prompt, "Size in slowly.")
}

func TestBearClosesRound(t *testing.T) {
	state := models.NewTradingState("NVDA", "2025-07-04")
	state.InvestmentDebateState.History = "\nBull Analyst: growth"
	state.InvestmentDebateState.BullHistory = "\nBull Analyst: growth"
	state.InvestmentDebateState.CurrentResponse = "Bull Analyst: growth"
	state.InvestmentDebateState.Count = 1

	quick := &agenttest.ChatModel{Content: "Margins will compress."}
	node, err := NewBearResearcherNode(newDeps(quick, nil))
	require.NoError(t, err)
	next, err := agenttest.RunNode(context.Background(), node, state)
	require.NoError(t, err)

	assert.Equal(t, consts.ResearchManager, next)
	d := state.InvestmentDebateState
	assert.Equal(t, "\nBull Analyst: growth\nBear Analyst: Margins will compress.", d.History)
	assert.Equal(t, "\nBear Analyst: Margins will compress.", d.BearHistory)
	assert.Equal(t, 2, d.Count)
	assert.Contains(t, quick.LastPrompt(), "Last bull argument: Bull Analyst: growth")
}

func TestDebateContinuesWithMoreRounds(t *testing.T) {
	state := models.NewTradingState("NVDA", "2025-07-04")
	state.InvestmentDebateState.CurrentResponse = "Bull Analyst: growth"
	state.InvestmentDebateState.Count = 1

	deps := newDeps(&agenttest.ChatModel{Content: "no"}, nil)
	deps.Logic = agents.NewConditionalLogic(2, 1)
	node, err := NewBearResearcherNode(deps)
	require.NoError(t, err)
	next, err := agenttest.RunNode(context.Background(), node, state)
	require.NoError(t, err)
	assert.Equal(t, consts.BullResearcher, next)
}

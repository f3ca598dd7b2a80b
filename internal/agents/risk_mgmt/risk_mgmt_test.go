package risk_mgmt

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/compose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/agents/agenttest"
	"github.com/dyike/TradeCortex/models"
)

func TestRiskDebateRotation(t *testing.T) {
	ctx := context.Background()
	state := models.NewTradingState("AAPL", "2025-07-04")
	state.TraderInvestmentPlan = "FINAL TRANSACTION PROPOSAL: **BUY**"
	quick := &agenttest.ChatModel{}
	deps := &agents.Deps{QuickModel: quick, Logic: agents.NewConditionalLogic(1, 1)}

	builders := map[string]func(*agents.Deps) (*compose.Graph[string, string], error){
		consts.RiskyAnalyst:   NewRiskyAnalystNode,
		consts.SafeAnalyst:    NewSafeAnalystNode,
		consts.NeutralAnalyst: NewNeutralAnalystNode,
	}

	turns := []struct {
		node    string
		reply   string
		next    string
		speaker string
	}{
		{consts.RiskyAnalyst, "Go all in.", consts.SafeAnalyst, consts.Latest_Risky},
		{consts.SafeAnalyst, "Hedge it.", consts.NeutralAnalyst, consts.Latest_Safe},
		{consts.NeutralAnalyst, "Half size.", consts.RiskJudge, consts.Latest_Neutral},
	}
	for i, turn := range turns {
		quick.Content = turn.reply
		node, err := builders[turn.node](deps)
		require.NoError(t, err)
		next, err := agenttest.RunNode(ctx, node, state)
		require.NoError(t, err)
		assert.Equal(t, turn.next, next)
		assert.Equal(t, turn.speaker, state.RiskDebateState.LatestSpeaker)
		assert.Equal(t, i+1, state.RiskDebateState.Count)
	}

	r := state.RiskDebateState
	assert.Equal(t, "\nRisky Analyst: Go all in.\nSafe Analyst: Hedge it.\nNeutral Analyst: Half size.", r.History)
	assert.Equal(t, "\nRisky Analyst: Go all in.", r.RiskyHistory)
	assert.Equal(t, "Safe Analyst: Hedge it.", r.CurrentSafeResponse)
	assert.Equal(t, "Neutral Analyst: Half size.", r.CurrentNeutralResponse)

	// the neutral analyst saw both other sides
	prompt := quick.LastPrompt()
	assert.Contains(t, prompt, "Risky Analyst: Go all in.")
	assert.Contains(t, prompt, "Safe Analyst: Hedge it.")
	assert.Contains(t, prompt, "FINAL TRANSACTION PROPOSAL: **BUY**")
}

package agents

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents/agenttest"
	"github.com/dyike/TradeCortex/internal/memory"
	"github.com/dyike/TradeCortex/models"
)

func TestShouldContinueDebate(t *testing.T) {
	cl := NewConditionalLogic(1, 1)
	tests := []struct {
		name  string
		state models.InvestDebateState
		want  string
	}{
		{"opening turn", models.InvestDebateState{}, consts.BullResearcher},
		{"bull spoke", models.InvestDebateState{Count: 1, CurrentResponse: "Bull Analyst: up"}, consts.BearResearcher},
		{"bear spoke", models.InvestDebateState{Count: 1, CurrentResponse: "Bear Analyst: down"}, consts.BullResearcher},
		{"round done", models.InvestDebateState{Count: 2, CurrentResponse: "Bear Analyst: down"}, consts.ResearchManager},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cl.ShouldContinueDebate(&tt.state))
		})
	}

	two := NewConditionalLogic(2, 1)
	assert.Equal(t, consts.BearResearcher, two.ShouldContinueDebate(&models.InvestDebateState{Count: 3, CurrentResponse: "Bull Analyst: x"}))
	assert.Equal(t, consts.ResearchManager, two.ShouldContinueDebate(&models.InvestDebateState{Count: 4}))
}

func TestShouldContinueRiskAnalysis(t *testing.T) {
	cl := NewConditionalLogic(1, 1)
	assert.Equal(t, consts.RiskyAnalyst, cl.ShouldContinueRiskAnalysis(&models.RiskDebateState{}))
	assert.Equal(t, consts.SafeAnalyst, cl.ShouldContinueRiskAnalysis(&models.RiskDebateState{Count: 1, LatestSpeaker: consts.Latest_Risky}))
	assert.Equal(t, consts.NeutralAnalyst, cl.ShouldContinueRiskAnalysis(&models.RiskDebateState{Count: 2, LatestSpeaker: consts.Latest_Safe}))
	assert.Equal(t, consts.RiskJudge, cl.ShouldContinueRiskAnalysis(&models.RiskDebateState{Count: 3, LatestSpeaker: consts.Latest_Neutral}))
	assert.Equal(t, consts.RiskyAnalyst, NewConditionalLogic(1, 2).ShouldContinueRiskAnalysis(&models.RiskDebateState{Count: 3, LatestSpeaker: consts.Latest_Neutral}))
}

func TestConditionalLogicClampsRounds(t *testing.T) {
	cl := NewConditionalLogic(0, -1)
	assert.Equal(t, 1, cl.MaxDebateRounds)
	assert.Equal(t, 1, cl.MaxRiskDiscussRounds)
}

func TestReportWriter(t *testing.T) {
	root := t.TempDir()
	w := NewReportWriter(root)
	require.NoError(t, w.Write("MSFT", "2025-07-04", consts.ResearchManager, "plan"))
	require.NoError(t, w.Write("MSFT", "2025-07-04", "custom_node", "x"))

	data, err := os.ReadFile(filepath.Join(root, "MSFT", "2025-07-04", "reports", "investment_plan.md"))
	require.NoError(t, err)
	assert.Equal(t, "plan", string(data))
	assert.FileExists(t, filepath.Join(w.Dir("MSFT", "2025-07-04"), "custom_node.md"))
}

func TestPublish(t *testing.T) {
	rec := &agenttest.Recorder{}
	d := &Deps{Reports: NewReportWriter(t.TempDir()), Recorder: rec}
	d.Publish(context.Background(), consts.Trader, "MSFT", "2025-07-04", "BUY it")
	assert.Equal(t, []string{consts.Trader}, rec.Agents)
	assert.Equal(t, []string{"BUY it"}, rec.Messages)
	assert.FileExists(t, filepath.Join(d.Reports.Dir("MSFT", "2025-07-04"), "trader_investment_plan.md"))

	// nothing configured is fine
	(&Deps{}).Publish(context.Background(), consts.Trader, "MSFT", "2025-07-04", "x")
}

type brokenEmbedder struct{}

func (brokenEmbedder) EmbedStrings(context.Context, []string, ...embedding.Option) ([][]float64, error) {
	return nil, errors.New("embedding service down")
}

func TestPastMemories(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, PastMemories(ctx, nil, "anything", 2))

	mem := memory.NewFinancialSituationMemory("m", memory.NewHashEmbedder(64), memory.NewMemStore())
	require.NoError(t, mem.AddSituations(ctx, []memory.Situation{
		{Situation: "rates rising fast", Recommendation: "trim duration"},
	}))
	assert.Equal(t, "trim duration\n\n", PastMemories(ctx, mem, "rates rising fast", 2))

	broken := memory.NewFinancialSituationMemory("m", brokenEmbedder{}, memory.NewMemStore())
	assert.Empty(t, PastMemories(ctx, broken, "rates", 2))
}

func TestPromptsRender(t *testing.T) {
	ctx := context.Background()
	reports := map[string]any{
		"market_research_report": "m", "sentiment_report": "s", "news_report": "n",
		"fundamentals_report": "f", "history": "h", "current_response": "c", "past_memory_str": "p",
		"trader_decision": "t", "current_risky_response": "r", "current_safe_response": "sa",
		"current_neutral_response": "ne", "company_name": "MSFT", "trader_plan": "tp",
		"investment_plan": "ip", "returns_losses": "1%", "report": "rep", "situation": "sit",
	}
	for _, path := range []string{
		"researchers/bull_researcher", "researchers/bear_researcher",
		"risk_mgmt/risky_analyst", "risk_mgmt/safe_analyst", "risk_mgmt/neutral_analyst",
		"managers/risk_manager", "trader/trader_user", "graph/reflection_user",
	} {
		msgs, err := UserPrompt(ctx, path, reports)
		require.NoError(t, err, path)
		require.Len(t, msgs, 1)
		assert.Equal(t, schema.User, msgs[0].Role)
		assert.NotContains(t, msgs[0].Content, "{", path)
	}

	msgs, err := SystemPrompt(ctx, "analysts/analyst_system", map[string]any{
		"tool_names": "get_stock_data", "system_message": "be precise",
		"current_date": "2025-07-04", "ticker": "MSFT",
	}, schema.UserMessage("MSFT"))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "get_stock_data")
	assert.Contains(t, msgs[0].Content, "The company we want to look at is MSFT")
	assert.Equal(t, "MSFT", msgs[1].Content)

	_, err = LoadPrompt("missing/prompt")
	assert.Error(t, err)
}

func TestToolCallChecker(t *testing.T) {
	ctx := context.Background()
	plain := schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage("a", nil), schema.AssistantMessage("b", nil)})
	got, err := ToolCallChecker(ctx, plain)
	require.NoError(t, err)
	assert.False(t, got)

	call := schema.AssistantMessage("", []schema.ToolCall{{ID: "1", Function: schema.FunctionCall{Name: "get_stock_data"}}})
	withCall := schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage("", nil), call})
	got, err = ToolCallChecker(ctx, withCall)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestNewChatAgentGraphRequiresModel(t *testing.T) {
	_, err := NewChatAgentGraph(nil, nil, nil)
	assert.Error(t, err)
}

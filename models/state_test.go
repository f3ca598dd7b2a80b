package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTradingState(t *testing.T) {
	s := NewTradingState(" msft ", "2025-07-04")
	assert.Equal(t, "MSFT", s.CompanyOfInterest)
	assert.Equal(t, "2025-07-04", s.TradeDate)
	require.NotNil(t, s.InvestmentDebateState)
	require.NotNil(t, s.RiskDebateState)
	assert.Zero(t, s.InvestmentDebateState.Count)
	assert.Zero(t, s.RiskDebateState.Count)
}

func TestSituationJoinsReportsInOrder(t *testing.T) {
	s := NewTradingState("AAPL", "2025-01-02")
	s.MarketReport = "m"
	s.SentimentReport = "s"
	s.NewsReport = "n"
	s.FundamentalsReport = "f"
	assert.Equal(t, "m\n\ns\n\nn\n\nf", s.Situation())
}

func TestSnapshotIsDetached(t *testing.T) {
	s := NewTradingState("AAPL", "2025-01-02")
	snap := s.Snapshot()
	snap.InvestmentDebateState.Count = 5
	snap.RiskDebateState.History = "x"
	assert.Zero(t, s.InvestmentDebateState.Count)
	assert.Empty(t, s.RiskDebateState.History)
}

func TestStateLogKeys(t *testing.T) {
	s := NewTradingState("AAPL", "2025-01-02")
	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var keys map[string]any
	require.NoError(t, json.Unmarshal(raw, &keys))
	for _, k := range []string{"company_of_interest", "investment_debate_state", "risk_debate_state", "final_trade_decision", "investment_plan"} {
		assert.Contains(t, keys, k)
	}
	assert.NotContains(t, keys, "Goto")
}

func TestParseSignal(t *testing.T) {
	sig, ok := ParseSignal(" buy\n")
	assert.True(t, ok)
	assert.Equal(t, SignalBuy, sig)

	_, ok = ParseSignal("STRONG BUY")
	assert.False(t, ok)
}

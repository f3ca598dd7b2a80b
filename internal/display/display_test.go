package display

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/models"
)

func TestResultsMarkdown(t *testing.T) {
	state := models.NewTradingState("MSFT", "2025-07-04")
	state.MarketReport = "Uptrend intact."
	state.InvestmentDebateState.BullHistory = "\nBull Analyst: growth"
	state.FinalTradeDecision = "FINAL TRANSACTION PROPOSAL: **BUY**"

	md := ResultsMarkdown(state)
	assert.Contains(t, md, "## Market Analysis\n\nUptrend intact.")
	assert.Contains(t, md, "## Bull Researcher\n\nBull Analyst: growth")
	assert.Contains(t, md, "## Final Trade Decision")
	assert.NotContains(t, md, "## News Analysis")
}

func TestTableAndProgress(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, 80)

	p.Table([]string{"Symbol", "Decision"}, [][]string{{"MSFT", "BUY"}})
	p.NodeProgress(consts.RiskJudge, true, nil, 1500*time.Millisecond)
	p.NodeProgress(consts.Trader, true, errors.New("timeout"), 0)

	out := buf.String()
	assert.Contains(t, out, "Symbol")
	assert.Contains(t, out, "MSFT")
	assert.Contains(t, out, consts.Agent_PortfolioManager)
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "timeout")
}

func TestSignal(t *testing.T) {
	assert.Contains(t, Signal(" buy "), "BUY")
	assert.Equal(t, "MAYBE", Signal("maybe"))
}

package models

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/dyike/TradeCortex/consts"
)

// InvestDebateState represents the investment debate state
type InvestDebateState struct {
	BullHistory     string `json:"bull_history"`     // Bullish conversation history
	BearHistory     string `json:"bear_history"`     // Bearish conversation history
	History         string `json:"history"`          // Conversation history
	CurrentResponse string `json:"current_response"` // Latest response
	JudgeDecision   string `json:"judge_decision"`   // Final judge decision
	Count           int    `json:"count"`            // Length of current conversation
}

// RiskDebateState represents the risk management team debate state
type RiskDebateState struct {
	RiskyHistory           string `json:"risky_history"`            // Risky Agent's conversation history
	SafeHistory            string `json:"safe_history"`             // Safe Agent's conversation history
	NeutralHistory         string `json:"neutral_history"`          // Neutral Agent's conversation history
	History                string `json:"history"`                  // Overall conversation history
	LatestSpeaker          string `json:"latest_speaker"`           // Analyst that spoke last
	CurrentRiskyResponse   string `json:"current_risky_response"`   // Latest response by risky analyst
	CurrentSafeResponse    string `json:"current_safe_response"`    // Latest response by safe analyst
	CurrentNeutralResponse string `json:"current_neutral_response"` // Latest response by neutral analyst
	JudgeDecision          string `json:"judge_decision"`           // Judge's decision
	Count                  int    `json:"count"`                    // Length of current conversation
}

// TradingState is the graph-local state shared by every agent node of one run.
type TradingState struct {
	Messages          []*schema.Message `json:"messages,omitempty"`
	CompanyOfInterest string            `json:"company_of_interest"`
	TradeDate         string            `json:"trade_date"`

	MarketReport       string `json:"market_report"`
	SentimentReport    string `json:"sentiment_report"`
	NewsReport         string `json:"news_report"`
	FundamentalsReport string `json:"fundamentals_report"`

	InvestmentDebateState *InvestDebateState `json:"investment_debate_state"`
	InvestmentPlan        string             `json:"investment_plan"`
	TraderInvestmentPlan  string             `json:"trader_investment_plan"`
	RiskDebateState       *RiskDebateState   `json:"risk_debate_state"`
	FinalTradeDecision    string             `json:"final_trade_decision"`

	Goto string `json:"-"`

	// Workflow phase tracking
	Phase                 string `json:"phase"`
	AnalysisPhaseComplete bool   `json:"analysis_phase_complete"`
	DebatePhaseComplete   bool   `json:"debate_phase_complete"`
	TradingPhaseComplete  bool   `json:"trading_phase_complete"`
	RiskPhaseComplete     bool   `json:"risk_phase_complete"`
	WorkflowComplete      bool   `json:"workflow_complete"`
}

func NewTradingState(ticker, tradeDate string) *TradingState {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	return &TradingState{
		Messages: []*schema.Message{
			schema.UserMessage(ticker),
		},
		CompanyOfInterest:     ticker,
		TradeDate:             tradeDate,
		InvestmentDebateState: &InvestDebateState{},
		RiskDebateState:       &RiskDebateState{},
		Phase:                 consts.Phase_Analysis,
	}
}

// Situation joins the four analyst reports; it is the key for memory lookups.
func (s *TradingState) Situation() string {
	return strings.Join([]string{
		s.MarketReport,
		s.SentimentReport,
		s.NewsReport,
		s.FundamentalsReport,
	}, "\n\n")
}

// Snapshot returns a deep copy safe to read outside the state lock.
func (s *TradingState) Snapshot() *TradingState {
	cp := *s
	cp.Messages = append([]*schema.Message(nil), s.Messages...)
	if s.InvestmentDebateState != nil {
		d := *s.InvestmentDebateState
		cp.InvestmentDebateState = &d
	}
	if s.RiskDebateState != nil {
		r := *s.RiskDebateState
		cp.RiskDebateState = &r
	}
	return &cp
}

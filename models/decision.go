package models

import "strings"

// Signal is the normalised trade direction.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

func ParseSignal(s string) (Signal, bool) {
	switch Signal(strings.ToUpper(strings.TrimSpace(s))) {
	case SignalBuy:
		return SignalBuy, true
	case SignalSell:
		return SignalSell, true
	case SignalHold:
		return SignalHold, true
	}
	return "", false
}

// TradingDecision is the structured form of a final trade decision.
type TradingDecision struct {
	Symbol       string  `json:"symbol"`
	Date         string  `json:"date"`
	Timestamp    string  `json:"timestamp"`
	Action       Signal  `json:"action"`
	Reasoning    string  `json:"reasoning"`
	Confidence   float64 `json:"confidence"`
	EntryPrice   float64 `json:"entry_price,omitempty"`
	StopLoss     float64 `json:"stop_loss,omitempty"`
	TakeProfit   float64 `json:"take_profit,omitempty"`
	PositionSize float64 `json:"position_size,omitempty"`
}

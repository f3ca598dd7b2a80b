package processing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dyike/TradeCortex/models"
)

// SignalProcessor extracts a BUY/SELL/HOLD decision from free text without a
// model. It is the fallback when signal extraction by the LLM fails.
type SignalProcessor struct {
	proposal     *regexp.Regexp
	buyPatterns  []*regexp.Regexp
	sellPatterns []*regexp.Regexp
	holdPatterns []*regexp.Regexp
	prices       map[string]*regexp.Regexp
	position     *regexp.Regexp
}

func NewSignalProcessor() *SignalProcessor {
	return &SignalProcessor{
		proposal: regexp.MustCompile(`(?i)FINAL\s+TRANSACTION\s+PROPOSAL:\s*\**\s*(BUY|SELL|HOLD)\b`),
		buyPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(buy|purchase|long|bullish|accumulate|overweight)\b`),
			regexp.MustCompile(`(?i)\b(strong buy|recommended buy|buy recommendation)\b`),
			regexp.MustCompile(`(?i)\b(undervalued|oversold|growth potential|upside)\b`),
		},
		sellPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(sell|short|bearish|divest|exit|underweight)\b`),
			regexp.MustCompile(`(?i)\b(strong sell|sell recommendation|avoid)\b`),
			regexp.MustCompile(`(?i)\b(overvalued|overbought|downside)\b`),
		},
		holdPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(hold|maintain|neutral|wait|sideways)\b`),
			regexp.MustCompile(`(?i)\b(no action|stay put|keep position)\b`),
		},
		prices: map[string]*regexp.Regexp{
			"entry":  regexp.MustCompile(`(?i)entry[^$\d]*\$?(\d+(?:\.\d+)?)`),
			"stop":   regexp.MustCompile(`(?i)stop[- ]?loss[^$\d]*\$?(\d+(?:\.\d+)?)`),
			"target": regexp.MustCompile(`(?i)(?:target|take[- ]?profit)[^$\d]*\$?(\d+(?:\.\d+)?)`),
		},
		position: regexp.MustCompile(`(?i)position[^0-9]*(\d+(?:\.\d+)?)\s*%`),
	}
}

// ExtractAction returns the explicit transaction proposal when present,
// otherwise the action whose keywords occur most often. Ties read as HOLD.
func (sp *SignalProcessor) ExtractAction(text string) models.Signal {
	if m := sp.proposal.FindAllStringSubmatch(text, -1); len(m) > 0 {
		s, _ := models.ParseSignal(m[len(m)-1][1])
		return s
	}

	buy := countMatches(sp.buyPatterns, text)
	sell := countMatches(sp.sellPatterns, text)
	hold := countMatches(sp.holdPatterns, text)
	switch {
	case buy > sell && buy > hold:
		return models.SignalBuy
	case sell > buy && sell > hold:
		return models.SignalSell
	default:
		return models.SignalHold
	}
}

// Process builds a structured decision from the final decision text.
func (sp *SignalProcessor) Process(symbol, date, text string) *models.TradingDecision {
	action := sp.ExtractAction(text)
	return &models.TradingDecision{
		Symbol:       symbol,
		Date:         date,
		Action:       action,
		Confidence:   sp.confidence(text, action),
		Reasoning:    sp.reasoning(text, action),
		EntryPrice:   sp.price(text, "entry"),
		StopLoss:     sp.price(text, "stop"),
		TakeProfit:   sp.price(text, "target"),
		PositionSize: sp.positionSize(text),
	}
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, p := range patterns {
		n += len(p.FindAllString(text, -1))
	}
	return n
}

// confidence is the share of words backing action, scaled and clamped to [0.1, 1].
func (sp *SignalProcessor) confidence(text string, action models.Signal) float64 {
	totalWords := len(strings.Fields(text))
	if totalWords == 0 {
		return 0.5
	}
	if sp.proposal.MatchString(text) {
		return 1.0
	}

	var patterns []*regexp.Regexp
	switch action {
	case models.SignalBuy:
		patterns = sp.buyPatterns
	case models.SignalSell:
		patterns = sp.sellPatterns
	default:
		patterns = sp.holdPatterns
	}

	c := float64(countMatches(patterns, text)) / float64(totalWords) * 10
	if c > 1.0 {
		c = 1.0
	}
	if c < 0.1 {
		c = 0.1
	}
	return c
}

var actionWords = map[models.Signal][]string{
	models.SignalBuy:  {"buy", "bullish", "growth", "upside", "undervalued"},
	models.SignalSell: {"sell", "bearish", "risk", "decline", "overvalued"},
	models.SignalHold: {"hold", "neutral", "wait", "maintain", "uncertain"},
}

// reasoning keeps up to three sentences that mention the action.
func (sp *SignalProcessor) reasoning(text string, action models.Signal) string {
	var picked []string
	for _, sentence := range strings.Split(text, ".") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 10 {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, w := range actionWords[action] {
			if strings.Contains(lower, w) {
				picked = append(picked, sentence)
				break
			}
		}
		if len(picked) == 3 {
			break
		}
	}
	if len(picked) == 0 {
		return "Decision based on comprehensive analysis of market conditions."
	}
	return strings.Join(picked, ". ")
}

func (sp *SignalProcessor) price(text, kind string) float64 {
	m := sp.prices[kind].FindStringSubmatch(text)
	if len(m) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// positionSize reads "position ... N%" as a fraction of the portfolio.
func (sp *SignalProcessor) positionSize(text string) float64 {
	m := sp.position.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v / 100
}

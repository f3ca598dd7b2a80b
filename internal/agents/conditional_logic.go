package agents

import (
	"strings"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/models"
)

// ConditionalLogic decides who speaks next in the two debates.
type ConditionalLogic struct {
	MaxDebateRounds      int
	MaxRiskDiscussRounds int
}

func NewConditionalLogic(debateRounds, riskRounds int) *ConditionalLogic {
	if debateRounds < 1 {
		debateRounds = 1
	}
	if riskRounds < 1 {
		riskRounds = 1
	}
	return &ConditionalLogic{
		MaxDebateRounds:      debateRounds,
		MaxRiskDiscussRounds: riskRounds,
	}
}

// ShouldContinueDebate: a round is one bull and one bear turn.
func (cl *ConditionalLogic) ShouldContinueDebate(d *models.InvestDebateState) string {
	if d.Count >= 2*cl.MaxDebateRounds {
		return consts.ResearchManager
	}
	if strings.HasPrefix(d.CurrentResponse, "Bull") {
		return consts.BearResearcher
	}
	return consts.BullResearcher
}

// ShouldContinueRiskAnalysis rotates risky, safe, neutral until the judge.
func (cl *ConditionalLogic) ShouldContinueRiskAnalysis(r *models.RiskDebateState) string {
	if r.Count >= 3*cl.MaxRiskDiscussRounds {
		return consts.RiskJudge
	}
	switch {
	case strings.HasPrefix(r.LatestSpeaker, consts.Latest_Risky):
		return consts.SafeAnalyst
	case strings.HasPrefix(r.LatestSpeaker, consts.Latest_Safe):
		return consts.NeutralAnalyst
	default:
		return consts.RiskyAnalyst
	}
}

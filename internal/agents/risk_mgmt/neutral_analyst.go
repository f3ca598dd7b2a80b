package risk_mgmt

import (
	"github.com/cloudwego/eino/compose"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/models"
)

func NewNeutralAnalystNode(deps *agents.Deps) (*compose.Graph[string, string], error) {
	return newRiskAnalystNode(deps, riskAnalyst{
		key:     consts.NeutralAnalyst,
		prompt:  "neutral_analyst",
		speaker: consts.SpeakerNeutral,
		latest:  consts.Latest_Neutral,
		history: func(r *models.RiskDebateState) *string { return &r.NeutralHistory },
		current: func(r *models.RiskDebateState) *string { return &r.CurrentNeutralResponse },
	})
}

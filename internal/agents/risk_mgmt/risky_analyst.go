package risk_mgmt

import (
	"github.com/cloudwego/eino/compose"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/models"
)

// NewRiskyAnalystNode argues for the high-reward reading of the trader plan.
func NewRiskyAnalystNode(deps *agents.Deps) (*compose.Graph[string, string], error) {
	return newRiskAnalystNode(deps, riskAnalyst{
		key:     consts.RiskyAnalyst,
		prompt:  "risky_analyst",
		speaker: consts.SpeakerRisky,
		latest:  consts.Latest_Risky,
		history: func(r *models.RiskDebateState) *string { return &r.RiskyHistory },
		current: func(r *models.RiskDebateState) *string { return &r.CurrentRiskyResponse },
	})
}

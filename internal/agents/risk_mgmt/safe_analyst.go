package risk_mgmt

import (
	"github.com/cloudwego/eino/compose"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/models"
)

func NewSafeAnalystNode(deps *agents.Deps) (*compose.Graph[string, string], error) {
	return newRiskAnalystNode(deps, riskAnalyst{
		key:     consts.SafeAnalyst,
		prompt:  "safe_analyst",
		speaker: consts.SpeakerSafe,
		latest:  consts.Latest_Safe,
		history: func(r *models.RiskDebateState) *string { return &r.SafeHistory },
		current: func(r *models.RiskDebateState) *string { return &r.CurrentSafeResponse },
	})
}

package researchers

import (
	"github.com/cloudwego/eino/compose"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/memory"
	"github.com/dyike/TradeCortex/models"
)

func NewBearResearcherNode(deps *agents.Deps) (*compose.Graph[string, string], error) {
	return newDebaterNode(deps, debater{
		key:     consts.BearResearcher,
		prompt:  "bear_researcher",
		speaker: consts.SpeakerBear,
		memory:  func(s *memory.Set) *memory.FinancialSituationMemory { return s.Bear },
		history: func(d *models.InvestDebateState) *string { return &d.BearHistory },
	})
}

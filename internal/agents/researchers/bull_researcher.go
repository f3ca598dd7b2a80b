package researchers

import (
	"github.com/cloudwego/eino/compose"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/memory"
	"github.com/dyike/TradeCortex/models"
)

func NewBullResearcherNode(deps *agents.Deps) (*compose.Graph[string, string], error) {
	return newDebaterNode(deps, debater{
		key:     consts.BullResearcher,
		prompt:  "bull_researcher",
		speaker: consts.SpeakerBull,
		memory:  func(s *memory.Set) *memory.FinancialSituationMemory { return s.Bull },
		history: func(d *models.InvestDebateState) *string { return &d.BullHistory },
	})
}

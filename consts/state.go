package consts

const (
	// Analyst Team
	Agent_MarketAnalyst       = "Market Analyst"
	Agent_SocialAnalyst       = "Social Analyst"
	Agent_NewsAnalyst         = "News Analyst"
	Agent_FundamentalsAnalyst = "Fundamentals Analyst"
	// Research Team
	Agent_BullResearcher  = "Bull Researcher"
	Agent_BearResearcher  = "Bear Researcher"
	Agent_ResearchManager = "Research Manager"
	// Trading Team
	Agent_Trader = "Trader"
	// Risk Management Team
	Agent_RiskyAnalyst   = "Risky Analyst"
	Agent_NeutralAnalyst = "Neutral Analyst"
	Agent_SafeAnalyst    = "Safe Analyst"
	// Portfolio Management Team
	Agent_PortfolioManager = "Portfolio Manager"
)

// Debate speaker prefixes written into the shared history.
const (
	SpeakerBull    = "Bull Analyst"
	SpeakerBear    = "Bear Analyst"
	SpeakerRisky   = "Risky Analyst"
	SpeakerSafe    = "Safe Analyst"
	SpeakerNeutral = "Neutral Analyst"
)

// Session status values.
const (
	State_Pending   = "pending"
	State_Running   = "running"
	State_Completed = "completed"
	State_Failed    = "failed"
)

// Workflow phases.
const (
	Phase_Analysis = "analysis"
	Phase_Debate   = "debate"
	Phase_Trading  = "trading"
	Phase_Risk     = "risk"
	Phase_Done     = "done"
)

// DisplayName maps a node key to its team display name.
func DisplayName(node string) string {
	switch node {
	case MarketAnalyst:
		return Agent_MarketAnalyst
	case SocialMediaAnalyst:
		return Agent_SocialAnalyst
	case NewsAnalyst:
		return Agent_NewsAnalyst
	case FundamentalsAnalyst:
		return Agent_FundamentalsAnalyst
	case BullResearcher:
		return Agent_BullResearcher
	case BearResearcher:
		return Agent_BearResearcher
	case ResearchManager:
		return Agent_ResearchManager
	case Trader:
		return Agent_Trader
	case RiskyAnalyst:
		return Agent_RiskyAnalyst
	case SafeAnalyst:
		return Agent_SafeAnalyst
	case NeutralAnalyst:
		return Agent_NeutralAnalyst
	case RiskJudge:
		return Agent_PortfolioManager
	default:
		return node
	}
}

// Latest speaker markers in the risk debate.
const (
	Latest_Risky   = "Risky"
	Latest_Safe    = "Safe"
	Latest_Neutral = "Neutral"
	Latest_Judge   = "Judge"
)

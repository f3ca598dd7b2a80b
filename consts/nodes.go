package consts

// Graph node keys. Every agent sub-graph is registered under one of these.
const (
	// 分析师节点
	MarketAnalyst       = "market_analyst"
	SocialMediaAnalyst  = "social_media_analyst"
	NewsAnalyst         = "news_analyst"
	FundamentalsAnalyst = "fundamentals_analyst"

	// 研究员节点
	BullResearcher  = "bull_researcher"
	BearResearcher  = "bear_researcher"
	ResearchManager = "research_manager"

	// 交易员节点
	Trader = "trader"

	// 风险分析节点
	RiskyAnalyst   = "risky_analyst"
	SafeAnalyst    = "safe_analyst"
	NeutralAnalyst = "neutral_analyst"
	RiskJudge      = "risk_judge"
)

// Sub-graph inner node keys.
const (
	NodeLoad   = "load"
	NodeAgent  = "agent"
	NodeRouter = "router"
)

// Memory collection names.
const (
	MemoryBull        = "bull_memory"
	MemoryBear        = "bear_memory"
	MemoryTrader      = "trader_memory"
	MemoryInvestJudge = "invest_judge_memory"
	MemoryRiskManager = "risk_manager_memory"
)

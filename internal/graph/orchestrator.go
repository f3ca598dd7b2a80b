package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/dyike/TradeCortex/config"
	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/agents/analysts"
	"github.com/dyike/TradeCortex/internal/agents/managers"
	"github.com/dyike/TradeCortex/internal/agents/researchers"
	"github.com/dyike/TradeCortex/internal/agents/risk_mgmt"
	"github.com/dyike/TradeCortex/internal/agents/trader"
	"github.com/dyike/TradeCortex/models"
)

const graphName = "TradeCortex-TradingAgents"

var analystNodes = map[string]string{
	config.AnalystMarket:       consts.MarketAnalyst,
	config.AnalystSocial:       consts.SocialMediaAnalyst,
	config.AnalystNews:         consts.NewsAnalyst,
	config.AnalystFundamentals: consts.FundamentalsAnalyst,
}

func agentHandOff(ctx context.Context, _ string) (next string, err error) {
	err = compose.ProcessState[*models.TradingState](ctx, func(_ context.Context, state *models.TradingState) error {
		next = state.Goto
		return nil
	})
	return next, err
}

// AnalystKeys maps the selected analysts to node keys in pipeline order.
func AnalystKeys(selected []string) ([]string, error) {
	keys := make([]string, 0, len(selected))
	for _, a := range selected {
		key, ok := analystNodes[a]
		if !ok {
			return nil, fmt.Errorf("unknown analyst %q", a)
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one analyst is required")
	}
	return keys, nil
}

// NewTradingOrchestrator compiles the full agent graph: the selected analysts
// in order, the bull/bear debate, the research manager, the trader, the
// risk rotation and the risk judge. Every node hands off through state.Goto.
func NewTradingOrchestrator(ctx context.Context, deps *agents.Deps, genState compose.GenLocalState[*models.TradingState]) (compose.Runnable[string, string], error) {
	keys, err := AnalystKeys(deps.Config.Analysts())
	if err != nil {
		return nil, err
	}

	g := compose.NewGraph[string, string](
		compose.WithGenLocalState(genState),
	)

	type node struct {
		key   string
		build func() (*compose.Graph[string, string], error)
	}
	var nodes []node

	// 分析师按顺序串联，最后一个交给多头研究员
	for i, key := range keys {
		next := consts.BullResearcher
		if i+1 < len(keys) {
			next = keys[i+1]
		}
		nodes = append(nodes, node{key, func() (*compose.Graph[string, string], error) {
			return analysts.NewAnalystNode(ctx, deps, key, next)
		}})
	}

	withDeps := func(f func(*agents.Deps) (*compose.Graph[string, string], error)) func() (*compose.Graph[string, string], error) {
		return func() (*compose.Graph[string, string], error) { return f(deps) }
	}
	nodes = append(nodes,
		node{consts.BullResearcher, withDeps(researchers.NewBullResearcherNode)},
		node{consts.BearResearcher, withDeps(researchers.NewBearResearcherNode)},
		node{consts.ResearchManager, withDeps(managers.NewResearchManagerNode)},
		node{consts.Trader, withDeps(trader.NewTraderNode)},
		node{consts.RiskyAnalyst, withDeps(risk_mgmt.NewRiskyAnalystNode)},
		node{consts.SafeAnalyst, withDeps(risk_mgmt.NewSafeAnalystNode)},
		node{consts.NeutralAnalyst, withDeps(risk_mgmt.NewNeutralAnalystNode)},
		node{consts.RiskJudge, withDeps(managers.NewRiskManagerNode)},
	)

	outMap := map[string]bool{compose.END: true}
	for _, n := range nodes {
		outMap[n.key] = true
	}

	for _, n := range nodes {
		sub, err := n.build()
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", n.key, err)
		}
		if err := g.AddGraphNode(n.key, sub, compose.WithNodeName(n.key)); err != nil {
			return nil, err
		}
	}
	// 分支的目标节点必须先全部加入图中
	for _, n := range nodes {
		if err := g.AddBranch(n.key, compose.NewGraphBranch(agentHandOff, outMap)); err != nil {
			return nil, err
		}
	}

	if err := g.AddEdge(compose.START, keys[0]); err != nil {
		return nil, err
	}

	maxSteps := deps.Config.MaxRecurLimit
	if maxSteps <= 0 {
		maxSteps = config.DefaultConfigWithRoot("").MaxRecurLimit
	}
	return g.Compile(ctx,
		compose.WithGraphName(graphName),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
		compose.WithMaxRunSteps(maxSteps),
	)
}

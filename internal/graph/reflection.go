package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/memory"
	"github.com/dyike/TradeCortex/models"
)

type reflectionTarget struct {
	mem    *memory.FinancialSituationMemory
	report string
}

func (g *TradingAgentsGraph) reflectionTargets(state *models.TradingState) []reflectionTarget {
	invest := state.InvestmentDebateState
	if invest == nil {
		invest = &models.InvestDebateState{}
	}
	risk := state.RiskDebateState
	if risk == nil {
		risk = &models.RiskDebateState{}
	}
	return []reflectionTarget{
		{g.memories.Bull, invest.BullHistory},
		{g.memories.Bear, invest.BearHistory},
		{g.memories.Trader, state.TraderInvestmentPlan},
		{g.memories.InvestJudge, invest.JudgeDecision},
		{g.memories.RiskManager, risk.JudgeDecision},
	}
}

// ReflectAndRemember asks the quick model to review each learning
// component's part of the last run against returnsLosses, and stores the
// lesson in that component's memory under the run's situation.
func (g *TradingAgentsGraph) ReflectAndRemember(ctx context.Context, returnsLosses string) error {
	state := g.LastState()
	if state == nil {
		return ErrNoState
	}
	situation := state.Situation()

	eg, ctx := errgroup.WithContext(ctx)
	for _, t := range g.reflectionTargets(state) {
		eg.Go(func() error {
			lesson, err := g.reflect(ctx, returnsLosses, t.report, situation)
			if err != nil {
				return fmt.Errorf("reflect %s: %w", t.mem.Name(), err)
			}
			if err := t.mem.AddSituations(ctx, []memory.Situation{{Situation: situation, Recommendation: lesson}}); err != nil {
				return fmt.Errorf("remember %s: %w", t.mem.Name(), err)
			}
			g.log.Debug("reflection stored", zap.String("memory", t.mem.Name()))
			return nil
		})
	}
	return eg.Wait()
}

func (g *TradingAgentsGraph) reflect(ctx context.Context, returnsLosses, report, situation string) (string, error) {
	user, err := agents.UserPrompt(ctx, "graph/reflection_user", map[string]any{
		"returns_losses": returnsLosses,
		"report":         report,
		"situation":      situation,
	})
	if err != nil {
		return "", err
	}
	msgs, err := agents.SystemPrompt(ctx, "graph/reflection", nil, user...)
	if err != nil {
		return "", err
	}
	resp, err := g.quick.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

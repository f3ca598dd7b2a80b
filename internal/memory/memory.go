package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/logger"
)

// Situation pairs a market situation with the advice for it.
type Situation struct {
	Situation      string
	Recommendation string
}

// Match is a stored situation ranked against a query.
type Match struct {
	MatchedSituation string
	Recommendation   string
	Similarity       float64
}

// FinancialSituationMemory is one named memory (e.g. the trader's). All
// memories may share a store; rows are separated by name.
type FinancialSituationMemory struct {
	name     string
	embedder embedding.Embedder
	store    Store
}

func NewFinancialSituationMemory(name string, embedder embedding.Embedder, store Store) *FinancialSituationMemory {
	return &FinancialSituationMemory{name: name, embedder: embedder, store: store}
}

func (m *FinancialSituationMemory) Name() string { return m.name }

// AddSituations embeds every situation in one call and persists them.
func (m *FinancialSituationMemory) AddSituations(ctx context.Context, items []Situation) error {
	if len(items) == 0 {
		return nil
	}
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Situation
	}
	vecs, err := m.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return fmt.Errorf("%s: embed situations: %w", m.name, err)
	}
	if len(vecs) != len(items) {
		return fmt.Errorf("%s: embedder returned %d vectors for %d situations", m.name, len(vecs), len(items))
	}

	records := make([]Record, len(items))
	for i, it := range items {
		records[i] = Record{
			Name:           m.name,
			Situation:      it.Situation,
			Recommendation: it.Recommendation,
			Embedding:      vecs[i],
		}
	}
	if err := m.store.Add(ctx, records); err != nil {
		return fmt.Errorf("%s: %w", m.name, err)
	}
	logger.Named("memory").Debug("situations stored", zap.String("memory", m.name), zap.Int("count", len(items)))
	return nil
}

// GetMemories returns up to n stored situations most similar to current,
// best first. An empty memory yields no matches and no error.
func (m *FinancialSituationMemory) GetMemories(ctx context.Context, current string, n int) ([]Match, error) {
	if n <= 0 {
		return nil, nil
	}
	records, err := m.store.List(ctx, m.name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.name, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	vecs, err := m.embedder.EmbedStrings(ctx, []string{current})
	if err != nil {
		return nil, fmt.Errorf("%s: embed query: %w", m.name, err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%s: embedder returned %d vectors for the query", m.name, len(vecs))
	}

	matches := make([]Match, len(records))
	for i, r := range records {
		matches[i] = Match{
			MatchedSituation: r.Situation,
			Recommendation:   r.Recommendation,
			Similarity:       Cosine(vecs[0], r.Embedding),
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

// Set holds the memories of the five learning components.
type Set struct {
	Bull        *FinancialSituationMemory
	Bear        *FinancialSituationMemory
	Trader      *FinancialSituationMemory
	InvestJudge *FinancialSituationMemory
	RiskManager *FinancialSituationMemory
}

func NewSet(embedder embedding.Embedder, store Store) *Set {
	return &Set{
		Bull:        NewFinancialSituationMemory(consts.MemoryBull, embedder, store),
		Bear:        NewFinancialSituationMemory(consts.MemoryBear, embedder, store),
		Trader:      NewFinancialSituationMemory(consts.MemoryTrader, embedder, store),
		InvestJudge: NewFinancialSituationMemory(consts.MemoryInvestJudge, embedder, store),
		RiskManager: NewFinancialSituationMemory(consts.MemoryRiskManager, embedder, store),
	}
}

// All returns the memories in reflection order.
func (s *Set) All() []*FinancialSituationMemory {
	return []*FinancialSituationMemory{s.Bull, s.Bear, s.Trader, s.InvestJudge, s.RiskManager}
}

// FormatRecommendations joins the recommendations the way prompts expect:
// each followed by a blank line.
func FormatRecommendations(matches []Match) string {
	var b strings.Builder
	for _, m := range matches {
		b.WriteString(m.Recommendation)
		b.WriteString("\n\n")
	}
	return b.String()
}

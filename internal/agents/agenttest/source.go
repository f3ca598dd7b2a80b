package agenttest

import (
	"context"
	"fmt"
	"sync"
)

// Source is a tools.DataSource that answers every call with a canned report
// naming the method and symbol.
type Source struct {
	mu    sync.Mutex
	calls []string
}

func (s *Source) answer(method, symbol string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, method)
	s.mu.Unlock()
	return fmt.Sprintf("%s report for %s", method, symbol), nil
}

// Calls lists the invoked methods in order.
func (s *Source) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Source) StockDataReport(_ context.Context, symbol, _, _ string) (string, error) {
	return s.answer("StockDataReport", symbol)
}

func (s *Source) IndicatorReport(_ context.Context, symbol, _, _ string, _ int) (string, error) {
	return s.answer("IndicatorReport", symbol)
}

func (s *Source) YahooNews(_ context.Context, symbol string) (string, error) {
	return s.answer("YahooNews", symbol)
}

func (s *Source) GoogleNews(_ context.Context, query, _ string, _ int) (string, error) {
	return s.answer("GoogleNews", query)
}

func (s *Source) FinnhubNews(_ context.Context, symbol, _ string, _ int) (string, error) {
	return s.answer("FinnhubNews", symbol)
}

func (s *Source) RedditPosts(_ context.Context, symbol, _ string, _ int) (string, error) {
	return s.answer("RedditPosts", symbol)
}

func (s *Source) CompanyInfo(_ context.Context, symbol string) (string, error) {
	return s.answer("CompanyInfo", symbol)
}

func (s *Source) IncomeStatement(_ context.Context, symbol string) (string, error) {
	return s.answer("IncomeStatement", symbol)
}

func (s *Source) BalanceSheet(_ context.Context, symbol string) (string, error) {
	return s.answer("BalanceSheet", symbol)
}

func (s *Source) CashFlow(_ context.Context, symbol string) (string, error) {
	return s.answer("CashFlow", symbol)
}

func (s *Source) AnalystRecommendations(_ context.Context, symbol string) (string, error) {
	return s.answer("AnalystRecommendations", symbol)
}

func (s *Source) InsiderTransactions(_ context.Context, symbol string) (string, error) {
	return s.answer("InsiderTransactions", symbol)
}

func (s *Source) InsiderSentiment(_ context.Context, symbol, _ string, _ int) (string, error) {
	return s.answer("InsiderSentiment", symbol)
}

package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyike/TradeCortex/models"
)

// StateLogPath is <results>/<TICKER>/logs/full_states_log_<date>.json.
func StateLogPath(resultsDir, ticker, tradeDate string) string {
	return filepath.Join(resultsDir, ticker, "logs", fmt.Sprintf("full_states_log_%s.json", tradeDate))
}

// WriteStateLog stores state keyed by its trade date, keeping other dates
// already in the file. Chat messages are left out.
func WriteStateLog(resultsDir string, state *models.TradingState) error {
	path := StateLogPath(resultsDir, state.CompanyOfInterest, state.TradeDate)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	// 旧文件损坏时直接覆盖
	logged, _ := readStateLog(path)
	if logged == nil {
		logged = make(map[string]*models.TradingState)
	}
	entry := state.Snapshot()
	entry.Messages = nil
	logged[state.TradeDate] = entry

	data, err := json.MarshalIndent(logged, "", "    ")
	if err != nil {
		return fmt.Errorf("encode state log: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state log: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadStateLog reads back the state logged for ticker on tradeDate.
func LoadStateLog(resultsDir, ticker, tradeDate string) (*models.TradingState, error) {
	logged, err := readStateLog(StateLogPath(resultsDir, ticker, tradeDate))
	if err != nil {
		return nil, err
	}
	state, ok := logged[tradeDate]
	if !ok || state == nil {
		return nil, fmt.Errorf("no state logged for %s on %s", ticker, tradeDate)
	}
	if state.InvestmentDebateState == nil {
		state.InvestmentDebateState = &models.InvestDebateState{}
	}
	if state.RiskDebateState == nil {
		state.RiskDebateState = &models.RiskDebateState{}
	}
	return state, nil
}

func readStateLog(path string) (map[string]*models.TradingState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var logged map[string]*models.TradingState
	if err := json.Unmarshal(data, &logged); err != nil {
		return nil, fmt.Errorf("decode state log %s: %w", path, err)
	}
	return logged, nil
}

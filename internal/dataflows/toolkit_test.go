package dataflows

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolkitOfflineReadsSavedPrices(t *testing.T) {
	dir := t.TempDir()
	tk := &Toolkit{dataDir: dir}

	_, err := tk.Bars(context.Background(), "AAPL", "2024-01-02", "2024-01-03")
	assert.ErrorIs(t, err, ErrNoData)

	saved := []MarketData{bar("2024-01-02", 10), bar("2024-01-03", 11)}
	require.NoError(t, SaveDataToFile(saved, filepath.Join(dir, "price_data", "AAPL-2024-01-02-2024-01-03.json")))

	out, err := tk.StockDataReport(context.Background(), "aapl", "2024-01-02", "2024-01-03")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "## Raw market data for AAPL from 2024-01-02 to 2024-01-03:\n# Total records: 2\n\n"))
	assert.Contains(t, out, "| 2024-01-03 | 11.00 |")
}

func TestToolkitOnlineSavesPrices(t *testing.T) {
	dir := t.TempDir()
	src := &recordingSource{bars: []MarketData{bar("2024-01-02", 10)}}
	tk := &Toolkit{
		YFin:    NewYFinanceUtils(NewYahooClient(), WithPriceSource(src), WithQuoteSource(nil)),
		dataDir: dir,
		online:  true,
	}

	bars, err := tk.Bars(context.Background(), "AAPL", "2024-01-02", "2024-01-02")
	require.NoError(t, err)
	require.Len(t, bars, 1)

	var reloaded []MarketData
	require.NoError(t, LoadDataFromFile(filepath.Join(dir, "price_data", "AAPL-2024-01-02-2024-01-02.json"), &reloaded))
	assert.Len(t, reloaded, 1)
}

func TestToolkitRoutesAsianListings(t *testing.T) {
	asian := &recordingSource{bars: []MarketData{bar("2024-01-02", 300)}}
	us := &recordingSource{}
	tk := &Toolkit{
		YFin:     NewYFinanceUtils(NewYahooClient(), WithPriceSource(us), WithQuoteSource(nil)),
		Longport: asian,
		online:   true,
	}

	_, err := tk.Bars(context.Background(), "700.HK", "2024-01-02", "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-03"), asian.end)
	assert.True(t, us.start.IsZero())
}

func TestToolkitIndicatorReportRejectsUnknown(t *testing.T) {
	tk := &Toolkit{}
	_, err := tk.IndicatorReport(context.Background(), "AAPL", "kdj", "2024-06-01", 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported indicator")
}

func TestFundamentalsSnapshotReportsFailuresInline(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("c"))
	})
	mux.HandleFunc("/v10/finance/quoteSummary/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("modules") {
		case "balanceSheetHistory":
			w.WriteHeader(http.StatusNotFound)
		case "recommendationTrend":
			_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{"recommendationTrend":{"trend":[{"period":"0m","strongBuy":1,"buy":2,"hold":9,"sell":0,"strongSell":0}]}}],"error":null}}`))
		default:
			_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{}],"error":null}}`))
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api := NewYahooClient(WithYahooBaseURL(srv.URL), WithYahooCookieURL(srv.URL+"/cookie"), WithYahooRetry(&RetryConfig{MaxRetries: 0}))
	tk := &Toolkit{YFin: NewYFinanceUtils(api, WithQuoteSource(nil))}

	out, err := tk.FundamentalsSnapshot(context.Background(), "MSFT")
	require.NoError(t, err)

	assert.Contains(t, out, "## MSFT company profile:")
	assert.Contains(t, out, "No income statement data available for MSFT")
	assert.Contains(t, out, "Balance sheet unavailable:")
	assert.Contains(t, out, "No cash flow data available for MSFT")
	assert.Contains(t, out, "Analyst consensus for MSFT: hold (9 votes)")
}

package dataflows

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/TradeCortex/models"
)

func risingBars(n int, start time.Time) []MarketData {
	bars := make([]MarketData, n)
	for i := range bars {
		px := decimal.NewFromInt(int64(i + 1))
		bars[i] = MarketData{
			Symbol: "TEST",
			Date:   start.AddDate(0, 0, i),
			Open:   px, High: px.Add(decimal.NewFromInt(1)), Low: px.Sub(decimal.NewFromInt(1)),
			Close: px, AdjClose: px,
			Volume: 1000,
		}
	}
	return bars
}

func TestSMA(t *testing.T) {
	out := sma([]float64{1, 2, 3, 4, 5}, 3)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
}

func TestEMASeededWithSMA(t *testing.T) {
	out := ema([]float64{2, 4, 6, 8}, 3)
	assert.InDelta(t, 4.0, out[2], 1e-9)
	// k = 0.5
	assert.InDelta(t, 6.0, out[3], 1e-9)
}

func TestRSIBounds(t *testing.T) {
	up := rsi([]float64{1, 2, 3, 4, 5, 6}, 3)
	assert.InDelta(t, 100.0, up[5], 1e-9)

	down := rsi([]float64{6, 5, 4, 3, 2, 1}, 3)
	assert.InDelta(t, 0.0, down[5], 1e-9)
}

func TestBollingerFlatSeries(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 10
	}
	mid, upper, lower := bollinger(closes, 20, 2)
	assert.InDelta(t, 10.0, mid[24], 1e-9)
	assert.InDelta(t, 10.0, upper[24], 1e-9)
	assert.InDelta(t, 10.0, lower[24], 1e-9)
}

func TestComputeIndicatorWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := risingBars(80, start)

	from := start.AddDate(0, 0, 60)
	to := start.AddDate(0, 0, 62)
	values, err := ComputeIndicator(bars, "close_50_sma", from, to)
	require.NoError(t, err)
	require.Len(t, values, 3)

	// closes are 1..80, so the 50-bar average ending at index i is i-23.5
	assert.Equal(t, models.IndicatorValue{Date: "2024-03-01", Value: 36.5}, values[0])
	assert.InDelta(t, 38.5, values[2].Value, 1e-9)
}

func TestComputeIndicatorSkipsWarmup(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := risingBars(30, start)
	values, err := ComputeIndicator(bars, "close_200_sma", start, start.AddDate(0, 0, 29))
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestComputeIndicatorErrors(t *testing.T) {
	_, err := ComputeIndicator(nil, "rsi", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrNoData)

	_, err = ComputeIndicator(risingBars(5, time.Now()), "stochrsi", time.Time{}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close_50_sma")
}

func TestAllIndicatorsCompute(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := risingBars(260, start)
	for _, name := range SupportedIndicators() {
		t.Run(name, func(t *testing.T) {
			values, err := ComputeIndicator(bars, name, start.AddDate(0, 0, 250), start.AddDate(0, 0, 259))
			require.NoError(t, err)
			assert.Len(t, values, 10)
		})
	}
}

func TestIndicatorReportFormat(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out := IndicatorReport("rsi", from, "2024-06-03", []models.IndicatorValue{
		{Date: "2024-06-03", Value: 55.12346},
	})
	assert.True(t, strings.HasPrefix(out, "## rsi values from 2024-06-01 to 2024-06-03:\n\n2024-06-03: 55.1235\n"))
	assert.True(t, strings.HasSuffix(out, IndicatorDescriptions["rsi"]))
}

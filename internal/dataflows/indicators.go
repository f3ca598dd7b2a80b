package dataflows

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dyike/TradeCortex/models"
)

// IndicatorDescriptions lists the supported indicators and how to read them.
var IndicatorDescriptions = map[string]string{
	"close_50_sma":  "50 SMA: A medium-term trend indicator. Usage: Identify trend direction and serve as dynamic support/resistance. Tips: It lags price; combine with faster indicators for timely signals.",
	"close_200_sma": "200 SMA: A long-term trend benchmark. Usage: Confirm overall market trend and identify golden/death cross setups. Tips: It reacts slowly; best for strategic trend confirmation rather than frequent trading entries.",
	"close_10_ema":  "10 EMA: A responsive short-term average. Usage: Capture quick shifts in momentum and potential entry points. Tips: Prone to noise in choppy markets; use alongside longer averages for filtering false signals.",
	"vwma":          "VWMA: A moving average weighted by volume. Usage: Confirm trends by integrating price action with volume data. Tips: Watch for skewed results from volume spikes; use in combination with other volume analyses.",
	"macd":          "MACD: Computes momentum via differences of EMAs. Usage: Look for crossovers and divergence as signals of trend changes. Tips: Confirm with other indicators in low-volatility or sideways markets.",
	"macds":         "MACD Signal: An EMA smoothing of the MACD line. Usage: Use crossovers with the MACD line to trigger trades. Tips: Should be part of a broader strategy to avoid false positives.",
	"macdh":         "MACD Histogram: Shows the gap between the MACD line and its signal. Usage: Visualize momentum strength and spot divergence early. Tips: Can be volatile; complement with additional filters in fast-moving markets.",
	"rsi":           "RSI: Measures momentum to flag overbought/oversold conditions. Usage: Apply 70/30 thresholds and watch for divergence to signal reversals. Tips: In strong trends, RSI may remain extreme; always cross-check with trend analysis.",
	"mfi":           "MFI: The Money Flow Index is a momentum indicator that uses both price and volume to measure buying and selling pressure. Usage: Identify overbought (>80) or oversold (<20) conditions and confirm the strength of trends or reversals. Tips: Use alongside RSI or MACD to confirm signals; divergence between price and MFI can indicate potential reversals.",
	"boll":          "Bollinger Middle: A 20 SMA serving as the basis for Bollinger Bands. Usage: Acts as a dynamic benchmark for price movement. Tips: Combine with the upper and lower bands to effectively spot breakouts or reversals.",
	"boll_ub":       "Bollinger Upper Band: Typically 2 standard deviations above the middle line. Usage: Signals potential overbought conditions and breakout zones. Tips: Confirm signals with other tools; prices may ride the band in strong trends.",
	"boll_lb":       "Bollinger Lower Band: Typically 2 standard deviations below the middle line. Usage: Indicates potential oversold conditions. Tips: Use additional analysis to avoid false reversal signals.",
	"atr":           "ATR: Averages true range to measure volatility. Usage: Set stop-loss levels and adjust position sizes based on current market volatility. Tips: It's a reactive measure, so use it as part of a broader risk management strategy.",
}

// SupportedIndicators returns the indicator names, sorted.
func SupportedIndicators() []string {
	names := make([]string, 0, len(IndicatorDescriptions))
	for k := range IndicatorDescriptions {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ComputeIndicator evaluates indicator over bars (sorted by date) and returns
// the values that fall inside [from, to]. Warm-up points are skipped.
func ComputeIndicator(bars []MarketData, indicator string, from, to time.Time) ([]models.IndicatorValue, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("indicator %s: %w", indicator, ErrNoData)
	}
	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i], _ = b.Close.Float64()
		highs[i], _ = b.High.Float64()
		lows[i], _ = b.Low.Float64()
		volumes[i] = float64(b.Volume)
	}

	var series []float64
	switch indicator {
	case "close_50_sma":
		series = sma(closes, 50)
	case "close_200_sma":
		series = sma(closes, 200)
	case "close_10_ema":
		series = ema(closes, 10)
	case "rsi":
		series = rsi(closes, 14)
	case "macd":
		series, _, _ = macd(closes)
	case "macds":
		_, series, _ = macd(closes)
	case "macdh":
		_, _, series = macd(closes)
	case "boll":
		series, _, _ = bollinger(closes, 20, 2)
	case "boll_ub":
		_, series, _ = bollinger(closes, 20, 2)
	case "boll_lb":
		_, _, series = bollinger(closes, 20, 2)
	case "atr":
		series = atr(highs, lows, closes, 14)
	case "vwma":
		series = vwma(closes, volumes, 20)
	case "mfi":
		series = mfi(highs, lows, closes, volumes, 14)
	default:
		return nil, fmt.Errorf("unsupported indicator %q, choose from: %s", indicator, strings.Join(SupportedIndicators(), ", "))
	}

	var out []models.IndicatorValue
	for i, b := range bars {
		d := b.Date.Truncate(24 * time.Hour)
		if d.Before(from) || d.After(to) || math.IsNaN(series[i]) {
			continue
		}
		out = append(out, models.IndicatorValue{Date: d.Format(dateLayout), Value: series[i]})
	}
	return out, nil
}

// IndicatorReport renders values the way the market analyst expects them.
func IndicatorReport(indicator string, from time.Time, currDate string, values []models.IndicatorValue) string {
	var b strings.Builder
	for _, v := range values {
		fmt.Fprintf(&b, "%s: %.4f\n", v.Date, v.Value)
	}
	return fmt.Sprintf("## %s values from %s to %s:\n\n%s\n\n%s",
		indicator, from.Format(dateLayout), currDate, b.String(), IndicatorDescriptions[indicator])
}

func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

func sma(xs []float64, period int) []float64 {
	out := nanSeries(len(xs))
	var sum float64
	for i, x := range xs {
		sum += x
		if i >= period {
			sum -= xs[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// ema seeds with the SMA of the first period values.
func ema(xs []float64, period int) []float64 {
	out := nanSeries(len(xs))
	if len(xs) < period {
		return out
	}
	k := 2.0 / float64(period+1)
	var seed float64
	for _, x := range xs[:period] {
		seed += x
	}
	prev := seed / float64(period)
	out[period-1] = prev
	for i := period; i < len(xs); i++ {
		prev = xs[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

func macd(closes []float64) (line, signal, hist []float64) {
	fast, slow := ema(closes, 12), ema(closes, 26)
	line = nanSeries(len(closes))
	var valid []float64
	first := -1
	for i := range closes {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) {
			continue
		}
		line[i] = fast[i] - slow[i]
		if first < 0 {
			first = i
		}
		valid = append(valid, line[i])
	}
	signal = nanSeries(len(closes))
	hist = nanSeries(len(closes))
	if first < 0 {
		return line, signal, hist
	}
	sig := ema(valid, 9)
	for j, v := range sig {
		i := first + j
		signal[i] = v
		if !math.IsNaN(v) {
			hist[i] = line[i] - v
		}
	}
	return line, signal, hist
}

// rsi uses Wilder smoothing.
func rsi(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if len(closes) <= period {
		return out
	}
	var gain, loss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	gain /= float64(period)
	loss /= float64(period)
	out[period] = rsiValue(gain, loss)
	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		g, l := 0.0, 0.0
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		gain = (gain*float64(period-1) + g) / float64(period)
		loss = (loss*float64(period-1) + l) / float64(period)
		out[i] = rsiValue(gain, loss)
	}
	return out
}

func rsiValue(gain, loss float64) float64 {
	if loss == 0 {
		return 100
	}
	return 100 - 100/(1+gain/loss)
}

func bollinger(closes []float64, period int, mult float64) (mid, upper, lower []float64) {
	mid = sma(closes, period)
	upper = nanSeries(len(closes))
	lower = nanSeries(len(closes))
	for i := period - 1; i < len(closes); i++ {
		var variance float64
		for _, x := range closes[i-period+1 : i+1] {
			variance += (x - mid[i]) * (x - mid[i])
		}
		sd := math.Sqrt(variance / float64(period))
		upper[i] = mid[i] + mult*sd
		lower[i] = mid[i] - mult*sd
	}
	return mid, upper, lower
}

func atr(highs, lows, closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if len(closes) < period {
		return out
	}
	tr := make([]float64, len(closes))
	for i := range closes {
		tr[i] = highs[i] - lows[i]
		if i > 0 {
			tr[i] = math.Max(tr[i], math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		}
	}
	var sum float64
	for _, v := range tr[:period] {
		sum += v
	}
	prev := sum / float64(period)
	out[period-1] = prev
	for i := period; i < len(tr); i++ {
		prev = (prev*float64(period-1) + tr[i]) / float64(period)
		out[i] = prev
	}
	return out
}

func vwma(closes, volumes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	for i := period - 1; i < len(closes); i++ {
		var pv, v float64
		for j := i - period + 1; j <= i; j++ {
			pv += closes[j] * volumes[j]
			v += volumes[j]
		}
		if v > 0 {
			out[i] = pv / v
		}
	}
	return out
}

func mfi(highs, lows, closes, volumes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	typical := make([]float64, len(closes))
	for i := range closes {
		typical[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	for i := period; i < len(closes); i++ {
		var pos, neg float64
		for j := i - period + 1; j <= i; j++ {
			flow := typical[j] * volumes[j]
			switch {
			case typical[j] > typical[j-1]:
				pos += flow
			case typical[j] < typical[j-1]:
				neg += flow
			}
		}
		if neg == 0 {
			out[i] = 100
			continue
		}
		out[i] = 100 - 100/(1+pos/neg)
	}
	return out
}

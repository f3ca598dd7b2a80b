package dataflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"
	"github.com/shopspring/decimal"
)

// LongportClient serves OHLCV for Hong Kong and mainland listings.
type LongportClient struct {
	quoteCtx *quote.QuoteContext
}

func NewLongportClient(appKey, appSecret, accessToken string) (*LongportClient, error) {
	if appKey == "" || appSecret == "" || accessToken == "" {
		return nil, fmt.Errorf("longport credentials: %w", ErrNotConfigured)
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(appKey, appSecret, accessToken))
	if err != nil {
		return nil, err
	}
	quoteContext, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, err
	}
	return &LongportClient{quoteCtx: quoteContext}, nil
}

// History implements PriceSource. Longport only pages backwards from today,
// so enough daily sticks are requested to reach start and then clipped.
func (lpc *LongportClient) History(ctx context.Context, symbol string, start, end time.Time) ([]MarketData, error) {
	if lpc == nil || lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	count := int(time.Since(start).Hours()/24) + 1
	if count > 1000 {
		count = 1000
	}
	if count < 1 {
		count = 1
	}
	sticks, err := lpc.quoteCtx.Candlesticks(ctx, symbol, quote.PeriodDay, int32(count), quote.AdjustTypeNo)
	if err != nil {
		return nil, fmt.Errorf("longport candlesticks %s: %w", symbol, err)
	}

	out := make([]MarketData, 0, len(sticks))
	for _, s := range sticks {
		closePx := decimalFromPtr(s.Close)
		out = append(out, MarketData{
			Symbol:   symbol,
			Date:     time.Unix(s.Timestamp, 0).UTC().Truncate(24 * time.Hour),
			Open:     decimalFromPtr(s.Open),
			High:     decimalFromPtr(s.High),
			Low:      decimalFromPtr(s.Low),
			Close:    closePx,
			AdjClose: closePx,
			Volume:   s.Volume,
		})
	}
	return clipBars(out, start, end), nil
}

func (lpc *LongportClient) Close() {
	if lpc != nil && lpc.quoteCtx != nil {
		lpc.quoteCtx.Close()
	}
}

func decimalFromPtr(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

package price

import (
	"context"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Candle is one closed daily candle
type Candle struct {
	Time  time.Time
	Close decimal.Decimal
}

// History reads daily closes for {SYMBOL}{CURRENCY} pairs from Binance spot
type History struct {
	client   *binance.Client
	currency string
}

// NewHistory builds a history reader. An empty baseURL keeps the library default.
func NewHistory(baseURL, currency string) *History {
	client := binance.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if currency == "" {
		currency = "EUR"
	}
	return &History{client: client, currency: strings.ToUpper(currency)}
}

// DailyCloses returns up to days daily candles, oldest first
func (h *History) DailyCloses(ctx context.Context, symbol string, days int) ([]Candle, error) {
	klines, err := h.client.NewKlinesService().
		Symbol(symbol + h.currency).
		Interval("1d").
		Limit(days).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "klines for %s", symbol)
	}

	candles := make([]Candle, 0, len(klines))
	for _, k := range klines {
		closePrice, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "parse close %q", k.Close)
		}
		candles = append(candles, Candle{
			Time:  time.UnixMilli(k.OpenTime).UTC(),
			Close: closePrice,
		})
	}
	return candles, nil
}

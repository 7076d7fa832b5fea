package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const defaultBinanceURL = "https://api.binance.com"

// BinanceOptions configure the Binance spot ticker source
type BinanceOptions struct {
	BaseURL  string
	Currency string
	Timeout  time.Duration
}

// BinanceSource quotes symbols against a fiat currency on Binance spot
type BinanceSource struct {
	baseURL  string
	currency string
	client   *http.Client
}

// NewBinanceSource builds a source for {SYMBOL}{CURRENCY} pairs
func NewBinanceSource(opts BinanceOptions) *BinanceSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBinanceURL
	}
	currency := strings.ToUpper(opts.Currency)
	if currency == "" {
		currency = "EUR"
	}

	return &BinanceSource{
		baseURL:  baseURL,
		currency: currency,
		client:   &http.Client{Timeout: opts.Timeout},
	}
}

type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Quote calls /api/v3/ticker/price once
func (s *BinanceSource) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", s.baseURL, url.QueryEscape(symbol+s.currency))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "create ticker request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, Transient(errors.Wrap(err, "ticker request"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, Transient(errors.Wrap(err, "read ticker response"))
	}

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, Transient(errors.Errorf("binance responded with %d for %s", resp.StatusCode, symbol))
	}

	var ticker tickerPrice
	if err := json.Unmarshal(body, &ticker); err != nil {
		return decimal.Zero, errors.Wrap(err, "decode ticker response")
	}
	if ticker.Price == "" {
		return decimal.Zero, nil
	}

	p, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse price %q", ticker.Price)
	}
	return p, nil
}

var _ Source = (*BinanceSource)(nil)

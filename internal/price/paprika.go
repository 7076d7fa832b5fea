package price

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// PaprikaOptions configure the CoinPaprika source
type PaprikaOptions struct {
	APIProKey  string
	Currency   string
	HTTPClient *http.Client
}

// PaprikaSource quotes symbols through the CoinPaprika ticker API
type PaprikaSource struct {
	client   *coinpaprika.Client
	currency string
	coinIDs  *cache.Cache
}

// NewPaprikaSource builds a CoinPaprika backed source
func NewPaprikaSource(opts PaprikaOptions) *PaprikaSource {
	currency := strings.ToUpper(opts.Currency)
	if currency == "" {
		currency = "EUR"
	}

	var client *coinpaprika.Client
	if opts.APIProKey != "" {
		client = coinpaprika.NewClient(opts.HTTPClient, coinpaprika.WithAPIKey(opts.APIProKey))
	} else {
		client = coinpaprika.NewClient(opts.HTTPClient)
	}

	return &PaprikaSource{
		client:   client,
		currency: currency,
		coinIDs:  cache.New(time.Hour, 2*time.Hour),
	}
}

// Quote resolves symbol to a coin id and reads its ticker in the configured currency
func (s *PaprikaSource) Quote(_ context.Context, symbol string) (decimal.Decimal, error) {
	id, err := s.coinID(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	ticker, err := s.client.Tickers.GetByID(id, &coinpaprika.TickersOptions{Quotes: s.currency})
	if err != nil {
		return decimal.Zero, Transient(errors.Wrapf(err, "ticker %s", id))
	}

	quote, ok := ticker.Quotes[s.currency]
	if !ok || quote.Price == nil {
		return decimal.Zero, errors.Errorf("no %s quote for %s", s.currency, id)
	}
	return decimal.NewFromFloat(*quote.Price), nil
}

func (s *PaprikaSource) coinID(symbol string) (string, error) {
	if id, found := s.coinIDs.Get(symbol); found {
		return id.(string), nil
	}

	result, err := s.client.Search.Search(&coinpaprika.SearchOptions{
		Query:      symbol,
		Categories: "currencies",
		Modifier:   "symbol_search",
	})
	if err != nil {
		return "", Transient(errors.Wrapf(err, "search %s", symbol))
	}
	if result == nil {
		return "", errors.Errorf("empty search result for %s", symbol)
	}

	for _, coin := range result.Currencies {
		if coin.ID != nil && coin.Symbol != nil && strings.EqualFold(*coin.Symbol, symbol) {
			log.Debugf("Best match for symbol '%s' is: %s", symbol, *coin.ID)
			s.coinIDs.Set(symbol, *coin.ID, cache.DefaultExpiration)
			return *coin.ID, nil
		}
	}
	return "", errors.Errorf("invalid coin symbol: %s", symbol)
}

var _ Source = (*PaprikaSource)(nil)

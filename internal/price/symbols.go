package price

import (
	"context"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const symbolsKey = "symbols"

// Symbols is a cached catalogue of base assets traded against the quote currency
type Symbols struct {
	client   *binance.Client
	currency string
	cache    *cache.Cache
}

// NewSymbols builds a catalogue refreshed every ttl
func NewSymbols(baseURL, currency string, ttl time.Duration) *Symbols {
	client := binance.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if currency == "" {
		currency = "EUR"
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Symbols{
		client:   client,
		currency: strings.ToUpper(currency),
		cache:    cache.New(ttl, 2*ttl),
	}
}

// Load fetches the exchange info and returns how many symbols are known
func (s *Symbols) Load(ctx context.Context) (int, error) {
	info, err := s.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "exchange info")
	}

	known := make(map[string]struct{})
	for _, sym := range info.Symbols {
		if sym.QuoteAsset == s.currency {
			known[sym.BaseAsset] = struct{}{}
		}
	}
	s.cache.Set(symbolsKey, known, cache.DefaultExpiration)
	log.Debugf("Loaded %d valid symbols", len(known))
	return len(known), nil
}

// Known reports whether symbol is listed. loaded is false when the catalogue
// could not be fetched, in which case known carries no information.
func (s *Symbols) Known(ctx context.Context, symbol string) (known, loaded bool) {
	set, found := s.cache.Get(symbolsKey)
	if !found {
		if _, err := s.Load(ctx); err != nil {
			log.Warnf("Could not load valid symbols: %v", err)
			return false, false
		}
		set, _ = s.cache.Get(symbolsKey)
	}

	m, ok := set.(map[string]struct{})
	if !ok || len(m) == 0 {
		return false, false
	}
	_, known = m[symbol]
	return known, true
}

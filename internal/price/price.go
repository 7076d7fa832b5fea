package price

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ErrUnavailable is returned when no usable quote could be obtained for a symbol
var ErrUnavailable = errors.New("price unavailable")

// Source performs a single quote request for a symbol
type Source interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth retrying
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err, or anything it wraps, was marked with Transient
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// FetcherOptions tune the retry policy
type FetcherOptions struct {
	Retries  int
	Delay    time.Duration
	MaxDelay time.Duration
	Logger   *log.Entry
}

// Fetcher resolves a symbol to a price, retrying transient failures
type Fetcher struct {
	source   Source
	retries  int
	delay    time.Duration
	maxDelay time.Duration
	logger   *log.Entry
}

// NewFetcher wraps source with the given retry policy
func NewFetcher(source Source, opts FetcherOptions) *Fetcher {
	if opts.Retries < 1 {
		opts.Retries = 3
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	if opts.MaxDelay < opts.Delay {
		opts.MaxDelay = opts.Delay
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "price_fetcher")
	}

	return &Fetcher{
		source:   source,
		retries:  opts.Retries,
		delay:    opts.Delay,
		maxDelay: opts.MaxDelay,
		logger:   opts.Logger,
	}
}

// Fetch returns the current price of symbol. Every failure wraps ErrUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	wait := &backoff.Backoff{Min: f.delay, Max: f.maxDelay, Factor: 2}

	var lastErr error
	for attempt := 1; attempt <= f.retries; attempt++ {
		p, err := f.source.Quote(ctx, symbol)
		if err == nil {
			if !p.IsPositive() {
				f.logger.Warnf("Non-positive quote %s for %s", p.String(), symbol)
				return decimal.Zero, errors.Wrapf(ErrUnavailable, "quote for %s is %s", symbol, p.String())
			}
			return p, nil
		}

		if !IsTransient(err) {
			f.logger.Errorf("Error parsing price for %s: %v", symbol, err)
			return decimal.Zero, errors.Wrapf(ErrUnavailable, "%s: %v", symbol, err)
		}

		lastErr = err
		f.logger.Warnf("Quote attempt %d/%d for %s failed: %v", attempt, f.retries, symbol, err)

		if attempt == f.retries {
			break
		}

		select {
		case <-ctx.Done():
			return decimal.Zero, errors.Wrapf(ErrUnavailable, "%s: %v", symbol, ctx.Err())
		case <-time.After(wait.Duration()):
		}
	}

	f.logger.Errorf("Failed to get price for %s after %d attempts", symbol, f.retries)
	return decimal.Zero, errors.Wrapf(ErrUnavailable, "%s after %d attempts: %v", symbol, f.retries, lastErr)
}

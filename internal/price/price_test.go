package price

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedSource struct {
	mu      sync.Mutex
	results []scriptedResult
	calls   int
}

type scriptedResult struct {
	price string
	err   error
}

func (s *scriptedSource) Quote(_ context.Context, _ string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.results[len(s.results)-1]
	if s.calls < len(s.results) {
		r = s.results[s.calls]
	}
	s.calls++
	if r.err != nil {
		return decimal.Zero, r.err
	}
	return decimal.RequireFromString(r.price), nil
}

func newTestFetcher(src Source, retries int) (*Fetcher, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return NewFetcher(src, FetcherOptions{
		Retries: retries,
		Delay:   time.Millisecond,
		Logger:  logrus.NewEntry(logger),
	}), hook
}

func TestFetcher_FirstAttemptSucceeds(t *testing.T) {
	src := &scriptedSource{results: []scriptedResult{{price: "51000.12"}}}
	f, _ := newTestFetcher(src, 3)

	p, err := f.Fetch(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "51000.12", p.String())
	assert.Equal(t, 1, src.calls)
}

func TestFetcher_RetriesTransientFailures(t *testing.T) {
	src := &scriptedSource{results: []scriptedResult{
		{err: Transient(errors.New("status 502"))},
		{err: Transient(errors.New("connection reset"))},
		{price: "1800"},
	}}
	f, hook := newTestFetcher(src, 3)

	p, err := f.Fetch(context.Background(), "ETH")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.NewFromInt(1800)))
	assert.Equal(t, 3, src.calls)
	assert.Len(t, hook.AllEntries(), 2)
}

func TestFetcher_ExhaustedRetriesAreUnavailable(t *testing.T) {
	src := &scriptedSource{results: []scriptedResult{{err: Transient(errors.New("timeout"))}}}
	f, hook := newTestFetcher(src, 3)

	_, err := f.Fetch(context.Background(), "BTC")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestFetcher_PermanentFailureIsNotRetried(t *testing.T) {
	src := &scriptedSource{results: []scriptedResult{{err: errors.New("unexpected end of JSON input")}}}
	f, _ := newTestFetcher(src, 3)

	_, err := f.Fetch(context.Background(), "BTC")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, src.calls)
}

func TestFetcher_NonPositivePriceIsUnavailable(t *testing.T) {
	src := &scriptedSource{results: []scriptedResult{{price: "0"}}}
	f, _ := newTestFetcher(src, 3)

	_, err := f.Fetch(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, src.calls)
}

func TestFetcher_CancelledContextStopsWaiting(t *testing.T) {
	src := &scriptedSource{results: []scriptedResult{{err: Transient(errors.New("timeout"))}}}
	logger, _ := test.NewNullLogger()
	f := NewFetcher(src, FetcherOptions{Retries: 5, Delay: time.Hour, Logger: logrus.NewEntry(logger)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "BTC")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, src.calls)
}

func TestTransient(t *testing.T) {
	assert.Nil(t, Transient(nil))

	err := errors.Wrap(Transient(errors.New("boom")), "quote")
	assert.True(t, IsTransient(err))
	assert.False(t, IsTransient(errors.New("boom")))
}

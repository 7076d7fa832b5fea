package price

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinanceSource_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCEUR", r.URL.Query().Get("symbol"))
		_ = json.NewEncoder(w).Encode(map[string]string{"symbol": "BTCEUR", "price": "51000.45670000"})
	}))
	defer srv.Close()

	src := NewBinanceSource(BinanceOptions{BaseURL: srv.URL, Currency: "eur", Timeout: time.Second})
	p, err := src.Quote(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "51000.4567", p.String())
}

func TestBinanceSource_StatusErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := NewBinanceSource(BinanceOptions{BaseURL: srv.URL})
	_, err := src.Quote(context.Background(), "BTC")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestBinanceSource_MalformedBodyIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"price": 12`))
	}))
	defer srv.Close()

	src := NewBinanceSource(BinanceOptions{BaseURL: srv.URL})
	_, err := src.Quote(context.Background(), "BTC")
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestBinanceSource_UnknownSymbolYieldsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": 0}`))
	}))
	defer srv.Close()

	src := NewBinanceSource(BinanceOptions{BaseURL: srv.URL})
	p, err := src.Quote(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.True(t, p.IsZero())
}

func TestFetcherWithBinance_RecoversAfterServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"symbol":"ETHEUR","price":"1799.99"}`))
	}))
	defer srv.Close()

	f, _ := newTestFetcher(NewBinanceSource(BinanceOptions{BaseURL: srv.URL}), 3)
	p, err := f.Fetch(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Equal(t, "1799.99", p.String())
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

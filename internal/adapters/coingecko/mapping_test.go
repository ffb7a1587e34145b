package coingecko_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alejandrodnm/atrbot/internal/adapters/coingecko"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVsCurrency(t *testing.T) {
	assert.Equal(t, "usd", coingecko.NormalizeVsCurrency("usdc"))
	assert.Equal(t, "usd", coingecko.NormalizeVsCurrency("USDT"))
	assert.Equal(t, "usd", coingecko.NormalizeVsCurrency(" dai "))
	assert.Equal(t, "usd", coingecko.NormalizeVsCurrency(""))
	assert.Equal(t, "eur", coingecko.NormalizeVsCurrency("EUR"))
	assert.Equal(t, "btc", coingecko.NormalizeVsCurrency("btc"))
}

func TestMapping_GarbledOHLCRowsSkipped(t *testing.T) {
	// Mezcla de filas válidas, cortas y no numéricas: sólo las válidas cuentan.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			[1700000000000, 100.0, 105.0, 98.0, 103.0],
			[1700086400000, 103.0],
			["garbage"],
			[1700172800000, 103.0, 106.0, 102.0, 105.0]
		]`))
	}))
	defer srv.Close()

	candles, err := newTestClient(srv).DailyCandles(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.InDelta(t, 103.0, candles[0].Close, 0.001)
	assert.InDelta(t, 105.0, candles[1].Close, 0.001)
}

func TestMapping_GarbledPriceRowsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prices":[[1700000000000,100.5],["x","y"],[1700000060000]]}`))
	}))
	defer srv.Close()

	points, err := newTestClient(srv).MinutePrices(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 100.5, points[0].Price, 0.001)
}

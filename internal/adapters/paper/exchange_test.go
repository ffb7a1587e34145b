package paper_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/alejandrodnm/atrbot/internal/adapters/paper"
	"github.com/alejandrodnm/atrbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaper() *paper.Exchange {
	return paper.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPlaceOrder_EchoesRequest(t *testing.T) {
	ex := newPaper()
	order, err := ex.PlaceOrder(context.Background(), domain.OrderRequest{
		Pair:   "BTC/USDC",
		Side:   domain.SideBuy,
		Type:   domain.OrderMarket,
		Amount: 0.0007,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.ID, "paper-"))
	assert.Equal(t, "BTC/USDC", order.Pair)
	assert.Equal(t, domain.SideBuy, order.Side)
	assert.InDelta(t, 0.0007, order.Amount, 1e-12)
}

func TestPlaceOrder_UniqueIDs(t *testing.T) {
	ex := newPaper()
	a, err := ex.PlaceOrder(context.Background(), domain.OrderRequest{Pair: "BTC/USDC", Side: domain.SideBuy})
	require.NoError(t, err)
	b, err := ex.PlaceOrder(context.Background(), domain.OrderRequest{Pair: "BTC/USDC", Side: domain.SideSell})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestValidatePair(t *testing.T) {
	ex := newPaper()
	assert.NoError(t, ex.ValidatePair(context.Background(), "BTC/USDC"))
	assert.Error(t, ex.ValidatePair(context.Background(), ""))
}

func TestNoConstraints(t *testing.T) {
	ex := newPaper()

	limits, err := ex.Limits(context.Background(), "BTC/USDC")
	require.NoError(t, err)
	assert.Zero(t, limits.MinAmount)
	assert.Zero(t, limits.MinCost)

	// Sin pasos, el redondeo es identidad.
	assert.InDelta(t, 0.000761, ex.RoundAmount("BTC/USDC", 0.000761), 1e-15)
	assert.InDelta(t, 65000.129, ex.RoundPrice("BTC/USDC", 65000.129), 1e-15)

	balances, err := ex.Balance(context.Background())
	require.NoError(t, err)
	assert.Empty(t, balances)
}

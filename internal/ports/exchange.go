package ports

import (
	"context"

	"github.com/alejandrodnm/atrbot/internal/domain"
)

// Exchange abstrae el venue de ejecución (Binance real o simulador paper).
type Exchange interface {
	// Name identifica el venue en logs y registros de trades.
	Name() string
	// ValidatePair comprueba que el par existe y es operable en spot.
	ValidatePair(ctx context.Context, pair string) error
	// Limits devuelve los límites de orden del par (mínimos y pasos).
	Limits(ctx context.Context, pair string) (domain.PairLimits, error)
	// RoundAmount ajusta una cantidad base al paso del par, hacia abajo.
	RoundAmount(pair string, amount float64) float64
	// RoundPrice ajusta un precio al tick del par, hacia abajo.
	RoundPrice(pair string, price float64) float64
	// QuoteCostMarketBuy indica si las compras market se expresan en quote
	// (coste) en lugar de cantidad base.
	QuoteCostMarketBuy() bool
	// PlaceOrder envía la orden y devuelve el acuse del venue.
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error)
	// Balance devuelve los saldos libres por moneda.
	Balance(ctx context.Context) (map[string]float64, error)
}

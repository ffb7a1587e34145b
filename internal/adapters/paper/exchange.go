package paper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alejandrodnm/atrbot/internal/domain"
)

// Exchange simula un venue: acepta cualquier par, no impone mínimos y las
// órdenes nunca salen del proceso. La contabilidad del fill la pone el loop
// con su propia convención de precio, igual que en modo live.
type Exchange struct {
	log *slog.Logger
}

// New crea el simulador.
func New(log *slog.Logger) *Exchange {
	return &Exchange{log: log}
}

// Name identifica el venue en logs y registros.
func (e *Exchange) Name() string { return "paper" }

// QuoteCostMarketBuy es false: el simulador dimensiona siempre en cantidad base.
func (e *Exchange) QuoteCostMarketBuy() bool { return false }

// ValidatePair acepta cualquier par no vacío.
func (e *Exchange) ValidatePair(ctx context.Context, pair string) error {
	if pair == "" {
		return fmt.Errorf("paper.ValidatePair: empty pair")
	}
	return nil
}

// Limits no impone mínimos ni pasos.
func (e *Exchange) Limits(ctx context.Context, pair string) (domain.PairLimits, error) {
	return domain.PairLimits{}, nil
}

// RoundAmount es identidad: sin metadata no hay paso al que ajustar.
func (e *Exchange) RoundAmount(pair string, amount float64) float64 { return amount }

// RoundPrice es identidad.
func (e *Exchange) RoundPrice(pair string, price float64) float64 { return price }

// PlaceOrder devuelve un acuse local que refleja la petición.
func (e *Exchange) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	order := domain.Order{
		ID:     "paper-" + uuid.NewString(),
		Pair:   req.Pair,
		Side:   req.Side,
		Type:   req.Type,
		Amount: req.Amount,
		Price:  req.Price,
	}
	e.log.Debug("paper order simulated",
		"side", req.Side,
		"type", req.Type,
		"amount", req.Amount,
	)
	return order, nil
}

// Balance devuelve un mapa vacío: en paper no se consulta saldo real.
func (e *Exchange) Balance(ctx context.Context) (map[string]float64, error) {
	return map[string]float64{}, nil
}

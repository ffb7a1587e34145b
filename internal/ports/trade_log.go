package ports

import (
	"context"

	"github.com/alejandrodnm/atrbot/internal/domain"
)

// TradeLog registra cada fill ejecutado para auditoría posterior.
type TradeLog interface {
	// RecordTrade inserta un trade ejecutado.
	RecordTrade(ctx context.Context, t domain.TradeRecord) error
	// RecentTrades devuelve los últimos limit trades, el más reciente primero.
	RecentTrades(ctx context.Context, limit int) ([]domain.TradeRecord, error)
	// Stats agrega contadores y PnL sobre todo el histórico.
	Stats(ctx context.Context) (domain.TradeStats, error)
	// Close libera la conexión subyacente.
	Close() error
}

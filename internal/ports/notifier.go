package ports

import (
	"context"

	"github.com/alejandrodnm/atrbot/internal/domain"
)

// Notifier publica eventos de trading hacia el operador.
type Notifier interface {
	// TradeFilled anuncia un fill ya aplicado al estado.
	TradeFilled(ctx context.Context, t domain.TradeRecord) error

	// Summary publica el resumen de la sesión al apagar el bot.
	Summary(ctx context.Context, state domain.BotState, stats domain.TradeStats) error
}

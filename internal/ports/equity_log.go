package ports

import (
	"context"

	"github.com/alejandrodnm/atrbot/internal/domain"
)

// EquityLog acumula la curva de equity realizada, un punto por cierre.
type EquityLog interface {
	// Append añade un punto al final de la curva.
	Append(ctx context.Context, p domain.EquityPoint) error
}

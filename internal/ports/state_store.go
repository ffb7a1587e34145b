package ports

import (
	"context"

	"github.com/alejandrodnm/atrbot/internal/domain"
)

// StateStore persiste el estado del bot entre arranques.
type StateStore interface {
	// Load lee el estado persistido; existed es false si no había fichero,
	// en cuyo caso state viene con los valores cero.
	Load(ctx context.Context) (state domain.BotState, existed bool, err error)

	// Save persiste el estado de forma atómica: o queda el estado nuevo
	// completo o queda el anterior, nunca un fichero a medias.
	Save(ctx context.Context, state domain.BotState) error
}

package notify

import (
	"context"
	"errors"

	"github.com/alejandrodnm/atrbot/internal/domain"
	"github.com/alejandrodnm/atrbot/internal/ports"
)

// Fanout reparte cada evento a varios notificadores. Un fallo en uno no
// impide que los demás reciban el evento; los errores se devuelven juntos.
type Fanout struct {
	targets []ports.Notifier
}

// NewFanout compone los notificadores dados.
func NewFanout(targets ...ports.Notifier) *Fanout {
	return &Fanout{targets: targets}
}

func (f *Fanout) TradeFilled(ctx context.Context, t domain.TradeRecord) error {
	var errs []error
	for _, n := range f.targets {
		if err := n.TradeFilled(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Summary(ctx context.Context, state domain.BotState, stats domain.TradeStats) error {
	var errs []error
	for _, n := range f.targets {
		if err := n.Summary(ctx, state, stats); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

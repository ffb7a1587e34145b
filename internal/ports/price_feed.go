package ports

import (
	"context"
	"errors"

	"github.com/alejandrodnm/atrbot/internal/domain"
)

// ErrUnsupported indica que el feed no publica ese dato para el par
// configurado (p.ej. OHLC diario inexistente para la moneda). El caller puede
// pasar a una fuente alternativa sin tratarlo como incidente.
var ErrUnsupported = errors.New("not supported by the price feed")

// PriceFeed sirve el precio spot y el histórico del activo configurado.
// El par (asset/quote) queda fijado al construir el adaptador; los reintentos
// de red viven dentro del adaptador, nunca en el caller.
type PriceFeed interface {
	// LastPrice devuelve el último precio spot conocido.
	LastPrice(ctx context.Context) (float64, error)
	// DailyCandles devuelve velas OHLC diarias de los últimos days días.
	DailyCandles(ctx context.Context, days int) ([]domain.Candle, error)
	// MinutePrices devuelve la serie de precios por minuto de los últimos
	// days días; es el fallback cuando DailyCandles no está disponible.
	MinutePrices(ctx context.Context, days int) ([]domain.PricePoint, error)
}

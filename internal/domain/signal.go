package domain

// Signal es la decisión del generador de señales para un tick.
type Signal int

const (
	SignalNone Signal = iota
	SignalBuy
	SignalSell
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "none"
	}
}

// StrategyParams son las constantes de la estrategia ATR, inmutables por run.
type StrategyParams struct {
	K           float64 // multiplicador de la banda de entrada/salida
	StopLossATR float64 // multiplicador de la banda de stop-loss
	StopEnabled bool
}

// Decide mapea (precio, atr, modo, precio de referencia) a una señal. Es una
// función pura: toda la persistencia vive en BotState y este generador solo
// la lee.
//
//   - FLAT: baseline = refPrice si está fijado, si no el precio actual.
//     price <= baseline - K×atr → BUY, con stop sugerido
//     price - StopLossATR×atr cuando el stop está habilitado (informativo,
//     este componente no lo ejecuta).
//   - LONG: price >= baseline + K×atr → SELL (take-profit). Si no, con stop
//     habilitado y refPrice fijado, price <= refPrice - StopLossATR×atr →
//     SELL por la vía de stop-loss (stopExit=true; solo cambia la anotación
//     en el log, no el efecto).
//
// Un ATR de 0 es entrada válida pero nunca produce señal: con banda nula
// cualquier movimiento contaría como ruptura. refPrice a 0 significa "sin
// fijar" (los precios son estrictamente positivos).
func Decide(p StrategyParams, price, atr float64, mode Mode, refPrice float64) (sig Signal, stop float64, stopExit bool) {
	if atr <= 0 {
		return SignalNone, 0, false
	}

	base := refPrice
	if base == 0 {
		base = price
	}

	switch mode {
	case ModeFlat:
		trigger := base - p.K*atr
		if price <= trigger {
			if p.StopEnabled {
				stop = price - p.StopLossATR*atr
			}
			return SignalBuy, stop, false
		}

	case ModeLong:
		trigger := base + p.K*atr
		if price >= trigger {
			return SignalSell, 0, false
		}
		if p.StopEnabled && refPrice != 0 && price <= refPrice-p.StopLossATR*atr {
			return SignalSell, 0, true
		}
	}

	return SignalNone, 0, false
}

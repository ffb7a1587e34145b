package domain

import "math"

// Motivos de bloqueo del gate de riesgo.
const (
	ReasonMaxTrades  = "max_trades_per_day reached"
	ReasonCooldown   = "in cooldown"
	ReasonKillSwitch = "max_daily_loss_pct kill-switch triggered"
)

// RiskParams son los límites de riesgo, inmutables por run.
type RiskParams struct {
	MaxTradesPerDay int
	CooldownSeconds int
	MaxDailyLossPct float64 // 0 desactiva el kill-switch
	StartEquity     float64
	TakerFeePct     float64 // por pata, en porcentaje
}

// CanTrade evalúa los límites de riesgo y devuelve el primer motivo de
// bloqueo. Es un predicado puro de (ahora, contadores diarios); no guarda
// estado. El orden de chequeo es fijo y corta en el primero que falla:
//
//  1. trades_today >= max_trades_per_day
//  2. cooldown desde el último trade (lastTradeTS a 0 = nunca)
//  3. pérdida diaria acumulada >= límite (kill-switch)
//
// El kill-switch se reevalúa en cada tick en vez de quedar enclavado; como
// realized_pnl_today solo cambia al cerrar posiciones, en la práctica bloquea
// el resto del día.
func CanTrade(p RiskParams, nowMs int64, tradesToday int, lastTradeTS int64, realizedPnLToday float64) (bool, string) {
	if tradesToday >= p.MaxTradesPerDay {
		return false, ReasonMaxTrades
	}
	if lastTradeTS != 0 && nowMs-lastTradeTS < int64(p.CooldownSeconds)*1000 {
		return false, ReasonCooldown
	}
	if p.MaxDailyLossPct > 0 && realizedPnLToday <= -math.Abs(p.MaxDailyLossPct/100.0*p.StartEquity) {
		return false, ReasonKillSwitch
	}
	return true, ""
}

// Fee estima la comisión taker de una pata: |notional| × taker_fee_pct / 100.
// El SELL carga dos patas (proceeds y cost basis) para reflejar el coste de
// ida y vuelta.
func Fee(p RiskParams, notional float64) float64 {
	return math.Abs(notional) * (p.TakerFeePct / 100.0)
}

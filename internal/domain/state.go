package domain

import "time"

// Mode es el estado del modelo de posición única: sin posición o en largo.
type Mode string

const (
	ModeFlat Mode = "FLAT"
	ModeLong Mode = "LONG"
)

// BotState es el estado persistente del bot: máquina de posición, PnL
// realizado, comisiones acumuladas y contadores diarios del gate de riesgo.
// Hay exactamente una instancia, mutada solo por el loop de orquestación y
// persistida atómicamente tras cada mutación.
//
// RefPrice y LastTradeTS usan el valor cero como "sin fijar"/"nunca": los
// precios son estrictamente positivos y 0 ms nunca es un trade real.
type BotState struct {
	Mode             Mode    `json:"mode"`
	RefPrice         float64 `json:"ref_price"`
	PositionQty      float64 `json:"position_qty"`
	RealizedPnL      float64 `json:"realized_pnl"`
	RealizedPnLToday float64 `json:"realized_pnl_today"`
	CumFees          float64 `json:"cum_fees"`
	TradesToday      int     `json:"trades_today"`
	LastTradeTS      int64   `json:"last_trade_ts"`
	EquityStartOfDay float64 `json:"equity_start_of_day"`
	DayKey           string  `json:"day_key"`
}

// NewBotState devuelve el estado inicial: FLAT, contadores a cero y day_key
// del día actual.
func NewBotState(now time.Time) BotState {
	return BotState{
		Mode:   ModeFlat,
		DayKey: DayKey(now),
	}
}

// DayKey formatea el día calendario UTC (YYYY-MM-DD) al que pertenecen los
// contadores diarios.
func DayKey(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// Rollover reinicia los contadores diarios si el estado pertenece a un día
// anterior: trades_today y realized_pnl_today a cero, y snapshot de
// realized_pnl en equity_start_of_day como baseline del límite de pérdida.
// Se aplica al cargar el estado en el arranque del proceso. Devuelve true si
// hubo rollover (el caller debe persistir).
func (s *BotState) Rollover(today string) bool {
	if s.DayKey == today {
		return false
	}
	s.TradesToday = 0
	s.RealizedPnLToday = 0
	s.EquityStartOfDay = s.RealizedPnL
	s.DayKey = today
	return true
}

// ApplyBuy registra un fill de compra: pasa a LONG, ancla el precio de
// referencia al fill, acumula la cantidad base y la comisión, y actualiza los
// contadores del gate de riesgo. La conversión coste→cantidad de los venues
// que dimensionan market buys por coste quote la hace el caller antes de
// llamar (baseQty = coste / precio de fill).
func (s *BotState) ApplyBuy(fillPrice, baseQty, fee float64, nowMs int64) {
	s.Mode = ModeLong
	s.RefPrice = fillPrice
	s.PositionQty += baseQty
	s.CumFees += fee
	s.LastTradeTS = nowMs
	s.TradesToday++
}

// ApplySell registra el cierre de la posición completa (el modelo no admite
// salidas parciales) y devuelve el PnL realizado:
//
//	proceeds   = qty × fillPrice
//	cost basis = qty × ref_price   (fillPrice si ref no está fijado)
//	pnl        = proceeds - cost basis - fee
//
// fee debe venir ya calculado a dos patas (proceeds + cost basis). El estado
// queda FLAT con ref_price anclado al fill de salida; el caller emite el
// punto de equity.
func (s *BotState) ApplySell(fillPrice, qty, fee float64, nowMs int64) (pnl float64) {
	ref := s.RefPrice
	if ref == 0 {
		ref = fillPrice
	}
	proceeds := qty * fillPrice
	costBasis := qty * ref
	pnl = proceeds - costBasis - fee

	s.RealizedPnL += pnl
	s.RealizedPnLToday += pnl
	s.CumFees += fee
	s.Mode = ModeFlat
	s.RefPrice = fillPrice
	s.PositionQty = 0
	s.LastTradeTS = nowMs
	s.TradesToday++
	return pnl
}

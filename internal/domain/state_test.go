package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBotState_Defaults(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	st := NewBotState(now)
	assert.Equal(t, ModeFlat, st.Mode)
	assert.Equal(t, "2025-06-15", st.DayKey)
	assert.Equal(t, 0.0, st.RefPrice)
	assert.Equal(t, int64(0), st.LastTradeTS)
}

func TestDayKey_UTC(t *testing.T) {
	// 23:30 en UTC-5 ya es el día siguiente en UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2025, 6, 15, 23, 30, 0, 0, loc)
	assert.Equal(t, "2025-06-16", DayKey(now))
}

func TestRollover_NewDay(t *testing.T) {
	st := BotState{
		Mode:             ModeLong,
		RefPrice:         100,
		PositionQty:      0.5,
		RealizedPnL:      42.5,
		RealizedPnLToday: -12,
		TradesToday:      7,
		DayKey:           "2025-06-14",
	}
	changed := st.Rollover("2025-06-15")
	require.True(t, changed)

	assert.Equal(t, 0, st.TradesToday)
	assert.Equal(t, 0.0, st.RealizedPnLToday)
	assert.Equal(t, 42.5, st.EquityStartOfDay)
	assert.Equal(t, "2025-06-15", st.DayKey)

	// La posición y el PnL acumulado sobreviven al rollover.
	assert.Equal(t, ModeLong, st.Mode)
	assert.Equal(t, 0.5, st.PositionQty)
	assert.Equal(t, 42.5, st.RealizedPnL)
}

func TestRollover_SameDayNoop(t *testing.T) {
	st := BotState{TradesToday: 3, RealizedPnLToday: -5, DayKey: "2025-06-15"}
	assert.False(t, st.Rollover("2025-06-15"))
	assert.Equal(t, 3, st.TradesToday)
	assert.Equal(t, -5.0, st.RealizedPnLToday)
}

// --- Transiciones del ledger ---

func TestApplyBuy(t *testing.T) {
	st := NewBotState(time.Now())
	st.ApplyBuy(100, 0.5, 0.05, 1_000)

	assert.Equal(t, ModeLong, st.Mode)
	assert.Equal(t, 100.0, st.RefPrice)
	assert.Equal(t, 0.5, st.PositionQty)
	assert.Equal(t, 0.05, st.CumFees)
	assert.Equal(t, int64(1_000), st.LastTradeTS)
	assert.Equal(t, 1, st.TradesToday)
	assert.Equal(t, 0.0, st.RealizedPnL) // comprar no realiza PnL
}

func TestApplyBuy_AccumulatesQty(t *testing.T) {
	st := NewBotState(time.Now())
	st.ApplyBuy(100, 0.5, 0, 1_000)
	st.ApplyBuy(90, 0.5, 0, 2_000)
	assert.Equal(t, 1.0, st.PositionQty)
	assert.Equal(t, 90.0, st.RefPrice) // el ref se reancla al último fill
}

func TestApplySell_Profit(t *testing.T) {
	st := NewBotState(time.Now())
	st.ApplyBuy(100, 1, 0, 1_000)

	pnl := st.ApplySell(110, 1, 0, 2_000)
	assert.InDelta(t, 10.0, pnl, 0.0001) // 110 - 100

	assert.Equal(t, ModeFlat, st.Mode)
	assert.Equal(t, 110.0, st.RefPrice) // ancla de la próxima entrada
	assert.Equal(t, 0.0, st.PositionQty)
	assert.InDelta(t, 10.0, st.RealizedPnL, 0.0001)
	assert.InDelta(t, 10.0, st.RealizedPnLToday, 0.0001)
	assert.Equal(t, 2, st.TradesToday)
}

func TestApplySell_RefUnsetFallsBackToFill(t *testing.T) {
	// Recuperación tras crash: vender sin ref usa el fill como cost basis.
	st := BotState{Mode: ModeLong, PositionQty: 1, DayKey: "2025-06-15"}
	pnl := st.ApplySell(110, 1, 0, 2_000)
	assert.Equal(t, 0.0, pnl)
}

func TestLedger_RoundTripZeroFee(t *testing.T) {
	// BUY y SELL de la misma cantidad al mismo precio sin fees:
	// realized_pnl queda en 0 y la posición vuelve a 0.
	st := NewBotState(time.Now())
	st.ApplyBuy(100, 0.5, 0, 1_000)
	pnl := st.ApplySell(100, 0.5, 0, 2_000)

	assert.Equal(t, 0.0, pnl)
	assert.Equal(t, 0.0, st.RealizedPnL)
	assert.Equal(t, 0.0, st.PositionQty)
	assert.Equal(t, ModeFlat, st.Mode)
}

func TestLedger_RoundTripWithFees(t *testing.T) {
	// Con fee rate distinto de cero el realized_pnl cae exactamente el doble
	// de la fee de una pata (el SELL carga proceeds + cost basis).
	risk := RiskParams{TakerFeePct: 0.1}
	st := NewBotState(time.Now())

	buyFee := Fee(risk, 0.5*100)
	st.ApplyBuy(100, 0.5, buyFee, 1_000)

	sellFee := Fee(risk, 0.5*100) + Fee(risk, 0.5*100)
	pnl := st.ApplySell(100, 0.5, sellFee, 2_000)

	oneLeg := Fee(risk, 50)
	assert.InDelta(t, -2*oneLeg, pnl, 0.0001)
	assert.InDelta(t, -2*oneLeg, st.RealizedPnL, 0.0001)
	assert.InDelta(t, 3*oneLeg, st.CumFees, 0.0001) // 1 pata BUY + 2 patas SELL
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testStrategy = StrategyParams{K: 1.0, StopLossATR: 1.0, StopEnabled: true}

func TestDecide_FlatEntry(t *testing.T) {
	// ref=100, k=1, atr=2 → trigger de compra en 98
	sig, stop, stopExit := Decide(testStrategy, 97, 2, ModeFlat, 100)
	assert.Equal(t, SignalBuy, sig)
	assert.InDelta(t, 95.0, stop, 0.0001) // 97 - 1×2
	assert.False(t, stopExit)

	sig, _, _ = Decide(testStrategy, 99, 2, ModeFlat, 100)
	assert.Equal(t, SignalNone, sig)
}

func TestDecide_FlatEntry_TriggerInclusive(t *testing.T) {
	sig, _, _ := Decide(testStrategy, 98, 2, ModeFlat, 100)
	assert.Equal(t, SignalBuy, sig)
}

func TestDecide_FlatEntry_StopDisabled(t *testing.T) {
	p := StrategyParams{K: 1.0, StopLossATR: 1.0, StopEnabled: false}
	sig, stop, _ := Decide(p, 97, 2, ModeFlat, 100)
	assert.Equal(t, SignalBuy, sig)
	assert.Equal(t, 0.0, stop) // sin stop sugerido
}

func TestDecide_FlatEntry_NoRefUsesPrice(t *testing.T) {
	// Sin ref_price la baseline es el propio precio: nunca hay ruptura
	// inmediata porque trigger = price - k×atr < price.
	sig, _, _ := Decide(testStrategy, 100, 2, ModeFlat, 0)
	assert.Equal(t, SignalNone, sig)
}

func TestDecide_LongTakeProfit(t *testing.T) {
	// ref=100, k=1, atr=2 → trigger de venta en 102
	sig, _, stopExit := Decide(testStrategy, 103, 2, ModeLong, 100)
	assert.Equal(t, SignalSell, sig)
	assert.False(t, stopExit)

	sig, _, _ = Decide(testStrategy, 101, 2, ModeLong, 100)
	assert.Equal(t, SignalNone, sig)
}

func TestDecide_LongStopLoss(t *testing.T) {
	// stop_loss_atr=1, atr=2 → stop en 100-2=98; 97.5 vende por stop
	sig, _, stopExit := Decide(testStrategy, 97.5, 2, ModeLong, 100)
	assert.Equal(t, SignalSell, sig)
	assert.True(t, stopExit)
}

func TestDecide_LongStopLoss_Disabled(t *testing.T) {
	p := StrategyParams{K: 1.0, StopLossATR: 1.0, StopEnabled: false}
	sig, _, _ := Decide(p, 97.5, 2, ModeLong, 100)
	assert.Equal(t, SignalNone, sig)
}

func TestDecide_LongStopLoss_NoRefNoStop(t *testing.T) {
	// Sin ref_price no hay vía de stop (y baseline = precio → tampoco TP).
	sig, _, _ := Decide(testStrategy, 97.5, 2, ModeLong, 0)
	assert.Equal(t, SignalNone, sig)
}

func TestDecide_ZeroATRRefusesSignal(t *testing.T) {
	// Con ATR 0 cualquier movimiento contaría como ruptura: se rechaza.
	sig, _, _ := Decide(testStrategy, 50, 0, ModeFlat, 100)
	assert.Equal(t, SignalNone, sig)

	sig, _, _ = Decide(testStrategy, 150, 0, ModeLong, 100)
	assert.Equal(t, SignalNone, sig)
}

func TestDecide_NegativeATRRefusesSignal(t *testing.T) {
	sig, _, _ := Decide(testStrategy, 50, -1, ModeFlat, 100)
	assert.Equal(t, SignalNone, sig)
}

func TestSignal_String(t *testing.T) {
	assert.Equal(t, "BUY", SignalBuy.String())
	assert.Equal(t, "SELL", SignalSell.String())
	assert.Equal(t, "none", SignalNone.String())
}

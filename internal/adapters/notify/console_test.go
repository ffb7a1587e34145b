package notify_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alejandrodnm/atrbot/internal/adapters/notify"
	"github.com/alejandrodnm/atrbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFill(side domain.Side, pnl float64, paper bool) domain.TradeRecord {
	mode := domain.ModeLong
	if side == domain.SideSell {
		mode = domain.ModeFlat
	}
	return domain.TradeRecord{
		ID:        "t-1",
		TS:        1700000000000, // 2023-11-14T22:13:20Z
		Pair:      "BTC/USDC",
		Side:      side,
		Type:      domain.OrderMarket,
		Price:     65000.5,
		Quantity:  0.00076,
		Notional:  49.4,
		Fee:       0.0494,
		PnL:       pnl,
		ModeAfter: mode,
		Paper:     paper,
	}
}

func TestConsole_TradeFilled_CompactBuy(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	err := n.TradeFilled(context.Background(), makeFill(domain.SideBuy, 0, true))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[22:13:20]")
	assert.Contains(t, out, "BUY 0.00076 BTC/USDC @ 65000.5")
	assert.Contains(t, out, "fee $0.0494")
	assert.Contains(t, out, "LONG")
	assert.Contains(t, out, "(paper)")
	assert.NotContains(t, out, "pnl")
}

func TestConsole_TradeFilled_SellShowsPnL(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	err := n.TradeFilled(context.Background(), makeFill(domain.SideSell, -0.42, false))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "SELL")
	assert.Contains(t, out, "pnl $-0.4200")
	assert.Contains(t, out, "FLAT")
	assert.NotContains(t, out, "(paper)")
}

func TestConsole_TradeFilled_TableMode(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	err := n.TradeFilled(context.Background(), makeFill(domain.SideBuy, 0, true))
	require.NoError(t, err)

	out := buf.String()
	// cabecera de la tabla y valores de la fila
	assert.Contains(t, strings.ToUpper(out), "NOTIONAL")
	assert.Contains(t, strings.ToUpper(out), "MODE")
	assert.Contains(t, out, "2023-11-14 22:13:20")
	assert.Contains(t, out, "$49.40")
	assert.Contains(t, out, "paper fill")
}

func TestConsole_Summary(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	state := domain.BotState{
		Mode:             domain.ModeLong,
		RefPrice:         64000,
		PositionQty:      0.00076,
		RealizedPnL:      1.23,
		RealizedPnLToday: -0.5,
		TradesToday:      3,
	}
	stats := domain.TradeStats{Trades: 7, Buys: 4, Sells: 3, TotalPnL: 1.23, TotalFees: 0.35}

	err := n.Summary(context.Background(), state, stats)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "SESSION SUMMARY")
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "$+1.2300")
	assert.Contains(t, out, "Ref price:    64000")
	assert.Contains(t, out, "PnL today:    $-0.5000 (total $+1.2300)")
	assert.Contains(t, out, "Trades today: 3")
}

func TestConsole_Summary_NoRefPriceLine(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	err := n.Summary(context.Background(), domain.BotState{Mode: domain.ModeFlat}, domain.TradeStats{})
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "Ref price")
}

func TestConsole_PrintTradeHistory(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	n.PrintTradeHistory([]domain.TradeRecord{
		makeFill(domain.SideSell, 1.5, true),
		makeFill(domain.SideBuy, 0, true),
	})

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "NOTIONAL")
	assert.Contains(t, out, "SELL")
	assert.Contains(t, out, "BUY")
	assert.Contains(t, out, "$+1.5000")
}

func TestConsole_PrintTradeHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	n.PrintTradeHistory(nil)
	assert.Contains(t, buf.String(), "no trades recorded")
}

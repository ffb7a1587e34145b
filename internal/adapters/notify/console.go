// Package notify publica fills y resúmenes de sesión hacia el operador:
// consola siempre, Telegram opcional.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/atrbot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier escribiendo en un io.Writer.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout. Con table=true cada
// fill se imprime como tabla; si no, como línea compacta.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// TradeFilled imprime un fill ya contabilizado.
func (c *Console) TradeFilled(_ context.Context, t domain.TradeRecord) error {
	if c.table {
		c.printFillTable(t)
	} else {
		c.printFillLine(t)
	}
	return nil
}

// printFillLine imprime lo esencial del fill en una línea.
func (c *Console) printFillLine(t domain.TradeRecord) {
	ts := time.UnixMilli(t.TS).UTC().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s %s %s @ %s ($%.2f) fee $%.4f",
		ts, t.Side, formatQty(t.Quantity), t.Pair, formatPrice(t.Price), t.Notional, t.Fee)
	if t.Side == domain.SideSell {
		fmt.Fprintf(&sb, " pnl %s", formatSignedUSD(t.PnL))
	}
	fmt.Fprintf(&sb, " → %s", t.ModeAfter)
	if t.Paper {
		sb.WriteString(" (paper)")
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFillTable imprime el fill como tabla de una fila.
func (c *Console) printFillTable(t domain.TradeRecord) {
	ts := time.UnixMilli(t.TS).UTC().Format("2006-01-02 15:04:05")

	pnl := "-"
	if t.Side == domain.SideSell {
		pnl = formatSignedUSD(t.PnL)
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Side", "Type", "Pair", "Price", "Qty", "Notional", "Fee", "PnL", "Mode")
	table.Append(
		ts,
		string(t.Side),
		string(t.Type),
		t.Pair,
		formatPrice(t.Price),
		formatQty(t.Quantity),
		fmt.Sprintf("$%.2f", t.Notional),
		fmt.Sprintf("$%.4f", t.Fee),
		pnl,
		string(t.ModeAfter),
	)
	table.Render()

	if t.Paper {
		fmt.Fprintln(c.out, "  (paper fill, no se envió orden real)")
	}
}

// Summary imprime el resumen de cierre: histórico agregado y estado final.
func (c *Console) Summary(_ context.Context, state domain.BotState, stats domain.TradeStats) error {
	fmt.Fprintf(c.out, "\n── SESSION SUMMARY ──\n")

	table := tablewriter.NewWriter(c.out)
	table.Header("Trades", "Buys", "Sells", "Total PnL", "Total Fees")
	table.Append(
		strconv.Itoa(stats.Trades),
		strconv.Itoa(stats.Buys),
		strconv.Itoa(stats.Sells),
		formatSignedUSD(stats.TotalPnL),
		fmt.Sprintf("$%.4f", stats.TotalFees),
	)
	table.Render()

	fmt.Fprintf(c.out, "  Mode:         %s\n", state.Mode)
	fmt.Fprintf(c.out, "  Position:     %s\n", formatQty(state.PositionQty))
	if state.RefPrice > 0 {
		fmt.Fprintf(c.out, "  Ref price:    %s\n", formatPrice(state.RefPrice))
	}
	fmt.Fprintf(c.out, "  PnL today:    %s (total %s)\n",
		formatSignedUSD(state.RealizedPnLToday), formatSignedUSD(state.RealizedPnL))
	fmt.Fprintf(c.out, "  Trades today: %d\n", state.TradesToday)
	fmt.Fprintln(c.out)

	return nil
}

// PrintTradeHistory imprime los últimos trades como tabla, el más reciente
// primero. No forma parte de ports.Notifier; lo usa el cierre del proceso
// para el reporte final.
func (c *Console) PrintTradeHistory(trades []domain.TradeRecord) {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "  (no trades recorded)")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Side", "Type", "Price", "Qty", "Notional", "Fee", "PnL", "Paper")
	for _, t := range trades {
		pnl := "-"
		if t.Side == domain.SideSell {
			pnl = formatSignedUSD(t.PnL)
		}
		paper := ""
		if t.Paper {
			paper = "yes"
		}
		table.Append(
			time.UnixMilli(t.TS).UTC().Format("2006-01-02 15:04:05"),
			string(t.Side),
			string(t.Type),
			formatPrice(t.Price),
			formatQty(t.Quantity),
			fmt.Sprintf("$%.2f", t.Notional),
			fmt.Sprintf("$%.4f", t.Fee),
			pnl,
			paper,
		)
	}
	table.Render()
}

// --- helpers ---

// formatQty imprime cantidades base con la representación más corta exacta.
func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// formatSignedUSD imprime un importe con signo explícito.
func formatSignedUSD(v float64) string {
	return fmt.Sprintf("$%+.4f", v)
}

package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/alejandrodnm/atrbot/internal/domain"
	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram implementa ports.Notifier enviando mensajes a un chat fijo.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

// NewTelegram crea el notificador de Telegram. endpoint vacío usa la API
// pública; se puede inyectar otro para tests. La construcción valida el token
// contra getMe, así que falla rápido con credenciales malas.
func NewTelegram(token string, chatID int64, endpoint string) (*Telegram, error) {
	if endpoint == "" {
		endpoint = tgbot.APIEndpoint
	}
	bot, err := tgbot.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// TradeFilled envía el fill como mensaje de texto.
func (t *Telegram) TradeFilled(_ context.Context, tr domain.TradeRecord) error {
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, fillText(tr))); err != nil {
		return fmt.Errorf("notify.Telegram: send fill: %w", err)
	}
	return nil
}

// Summary envía el resumen de cierre de sesión.
func (t *Telegram) Summary(_ context.Context, state domain.BotState, stats domain.TradeStats) error {
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, summaryText(state, stats))); err != nil {
		return fmt.Errorf("notify.Telegram: send summary: %w", err)
	}
	return nil
}

func fillText(t domain.TradeRecord) string {
	var sb strings.Builder
	icon := "🟢"
	if t.Side == domain.SideSell {
		icon = "🔴"
	}
	fmt.Fprintf(&sb, "%s %s %s %s @ %s\n", icon, t.Side, formatQty(t.Quantity), t.Pair, formatPrice(t.Price))
	fmt.Fprintf(&sb, "notional $%.2f | fee $%.4f", t.Notional, t.Fee)
	if t.Side == domain.SideSell {
		fmt.Fprintf(&sb, " | pnl %s", formatSignedUSD(t.PnL))
	}
	fmt.Fprintf(&sb, "\nmode: %s", t.ModeAfter)
	if t.Paper {
		sb.WriteString(" (paper)")
	}
	return sb.String()
}

func summaryText(state domain.BotState, stats domain.TradeStats) string {
	var sb strings.Builder
	sb.WriteString("📊 Session summary\n")
	fmt.Fprintf(&sb, "trades: %d (buys %d / sells %d)\n", stats.Trades, stats.Buys, stats.Sells)
	fmt.Fprintf(&sb, "total pnl: %s | fees $%.4f\n", formatSignedUSD(stats.TotalPnL), stats.TotalFees)
	fmt.Fprintf(&sb, "today: %s in %d trades\n", formatSignedUSD(state.RealizedPnLToday), state.TradesToday)
	fmt.Fprintf(&sb, "mode: %s, position: %s", state.Mode, formatQty(state.PositionQty))
	return sb.String()
}

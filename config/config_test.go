package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/atrbot/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig escribe un YAML temporal y devuelve su ruta.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// clearEnv neutraliza las variables de entorno que Load consulta, para que el
// entorno de la máquina que ejecuta los tests no contamine los resultados.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LOG_LEVEL", "LOG_FORMAT", "COINGECKO_API_KEY",
		"BINANCE_API_KEY", "BINANCE_API_SECRET",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	} {
		t.Setenv(k, "")
	}
}

// --- Defaults ---

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "# vacío a propósito\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "binance", cfg.Exchange.ID)
	assert.Equal(t, "market", cfg.Exchange.OrderType)
	assert.Equal(t, "BTC/USDC", cfg.Market.Symbol)
	assert.True(t, cfg.MinOrderNotionalWarn())
	assert.True(t, cfg.MinOrderAmountWarn())
	assert.Equal(t, "bitcoin", cfg.Feed.CoinID)
	assert.Equal(t, 14, cfg.Feed.ATRWindow)
	assert.Equal(t, 60*time.Second, cfg.PollInterval())
	assert.Equal(t, 10*time.Second, cfg.FeedTimeout())
	assert.InDelta(t, 1.5, cfg.Strategy.K, 1e-9)
	assert.InDelta(t, 1.0, cfg.Strategy.StopLossATR, 1e-9)
	assert.True(t, cfg.StopEnabled())
	assert.Equal(t, "notional", cfg.Sizing.Mode)
	assert.InDelta(t, 50.0, cfg.Sizing.Notional, 1e-9)
	assert.True(t, cfg.RoundToStep())
	assert.Equal(t, 10, cfg.Risk.MaxTradesPerDay)
	assert.Equal(t, 60, cfg.Risk.CooldownSeconds)
	assert.InDelta(t, 1000.0, cfg.Risk.StartEquity, 1e-9)
	assert.Equal(t, "state.json", cfg.Storage.StateFile)
	assert.Equal(t, "atrbot.db", cfg.Storage.DSN)
	assert.True(t, cfg.Paper(), "sin configurar debe operar en paper")
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_FileValues(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
exchange:
  id: paper
  order_type: limit
  limit_slippage_bps: 8
market:
  symbol: ETH/USDT
  min_order_amount_warn: false
coingecko:
  coin_id: ethereum
  vs_currency: usdt
  poll_interval_seconds: 30
  atr_window: 7
strategy:
  k: 2.0
  stop_enabled: false
  taker_fee_pct: 0.0
sizing:
  mode: quantity
  quantity: 0.25
  round_to_step: false
runtime:
  paper: false
  once: true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "paper", cfg.Exchange.ID)
	assert.Equal(t, "limit", cfg.Exchange.OrderType)
	assert.InDelta(t, 8.0, cfg.Exchange.LimitSlippageBps, 1e-9)
	assert.Equal(t, "ETH", cfg.BaseAsset())
	assert.Equal(t, "USDT", cfg.QuoteAsset())
	assert.Equal(t, "ethereum", cfg.Feed.CoinID)
	assert.Equal(t, 30*time.Second, cfg.PollInterval())
	assert.InDelta(t, 2.0, cfg.Strategy.K, 1e-9)
	assert.False(t, cfg.StopEnabled(), "stop_enabled: false explícito debe respetarse")
	assert.Zero(t, cfg.Strategy.TakerFeePct, "taker_fee_pct: 0 explícito es válido")
	assert.Equal(t, "quantity", cfg.Sizing.Mode)
	assert.InDelta(t, 0.25, cfg.Sizing.Quantity, 1e-9)
	assert.False(t, cfg.RoundToStep())
	assert.False(t, cfg.MinOrderAmountWarn(), "min_order_amount_warn: false explícito debe respetarse")
	assert.True(t, cfg.MinOrderNotionalWarn())
	assert.False(t, cfg.Paper())
	assert.True(t, cfg.Runtime.Once)
}

// --- Overrides de entorno ---

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("COINGECKO_API_KEY", "cg-test-key")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")

	path := writeConfig(t, "log:\n  level: warn\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level, "el entorno gana sobre el YAML")
	assert.Equal(t, "cg-test-key", cfg.Feed.APIKey)
	assert.Equal(t, "123:abc", cfg.Notify.TelegramToken)
	assert.Equal(t, int64(-100200300), cfg.Notify.TelegramChatID)
}

func TestLoad_BadTelegramChatID(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "no-numérico")

	path := writeConfig(t, "")
	_, err := config.Load(path)
	assert.Error(t, err)
}

// --- Validación eager ---

func TestLoad_UnknownExchange(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "exchange:\n  id: kraken\n")
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange id")
}

func TestLoad_BadOrderType(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "exchange:\n  order_type: stop\n")
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_type")
}

func TestLoad_QuantityModeNeedsQuantity(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "sizing:\n  mode: quantity\n")
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sizing.quantity")
}

func TestLoad_BadSymbol(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "market:\n  symbol: BTCUSDC\n")
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BASE/QUOTE")
}

func TestLoad_TelegramTokenWithoutChat(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	path := writeConfig(t, "")
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_CHAT_ID")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "no-existe.yaml"))
	assert.Error(t, err)
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Exchange ExchangeConfig `yaml:"exchange"`
	Market   MarketConfig   `yaml:"market"`
	Feed     FeedConfig     `yaml:"coingecko"`
	Strategy StrategyConfig `yaml:"strategy"`
	Sizing   SizingConfig   `yaml:"sizing"`
	Risk     RiskConfig     `yaml:"risk"`
	Storage  StorageConfig  `yaml:"storage"`
	Runtime  RuntimeConfig  `yaml:"runtime"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Notify   NotifyConfig   `yaml:"notify"`
	Log      LogConfig      `yaml:"log"`
}

// ExchangeConfig selecciona el venue de ejecución y el tipo de orden.
type ExchangeConfig struct {
	ID               string  `yaml:"id"`                 // binance | paper
	OrderType        string  `yaml:"order_type"`         // market | limit
	LimitSlippageBps float64 `yaml:"limit_slippage_bps"` // desplazamiento del precio límite respecto al last
	AllowDerivatives bool    `yaml:"allow_derivatives"`  // permitir símbolos que no son spot

	// Credenciales, sólo por entorno (.env o variables reales).
	APIKey    string `yaml:"-"`
	APISecret string `yaml:"-"`
}

// MarketConfig identifica el par operado y los chequeos de mínimos. Los dos
// toggles son punteros porque su default es true: desactivar un chequeo exige
// un false explícito.
type MarketConfig struct {
	Symbol string `yaml:"symbol"` // formato BASE/QUOTE, p.ej. BTC/USDC
	// Chequear los mínimos publicados por el venue antes de enviar la orden.
	MinOrderNotionalWarn *bool `yaml:"min_order_notional_warn"`
	MinOrderAmountWarn   *bool `yaml:"min_order_amount_warn"`
}

// FeedConfig controla el feed de precios de CoinGecko y el ritmo del loop.
type FeedConfig struct {
	CoinID              string `yaml:"coin_id"`
	VsCurrency          string `yaml:"vs_currency"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	ATRWindow           int    `yaml:"atr_window"`
	OHLCDays            int    `yaml:"ohlc_days"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`

	APIKey string `yaml:"-"` // COINGECKO_API_KEY, activa el endpoint pro
}

// StrategyConfig son los parámetros de la banda ATR. StopEnabled es puntero
// para distinguir "ausente" (default true) de un false explícito.
type StrategyConfig struct {
	K           float64 `yaml:"k"`
	StopLossATR float64 `yaml:"stop_loss_atr"`
	StopEnabled *bool   `yaml:"stop_enabled"`
	TakerFeePct float64 `yaml:"taker_fee_pct"` // fee por pata, en porcentaje
}

// SizingConfig define cómo se dimensiona cada orden.
type SizingConfig struct {
	Mode        string  `yaml:"mode"` // notional | quantity
	Notional    float64 `yaml:"notional"`
	Quantity    float64 `yaml:"quantity"`
	RoundToStep *bool   `yaml:"round_to_step"` // default true
}

// RiskConfig son los límites del gate de riesgo.
type RiskConfig struct {
	MaxTradesPerDay int     `yaml:"max_trades_per_day"`
	CooldownSeconds int     `yaml:"cooldown_seconds"`
	MaxDailyLossPct float64 `yaml:"max_daily_loss_pct"` // 0 desactiva el kill-switch
	StartEquity     float64 `yaml:"start_equity"`
}

// StorageConfig controla dónde se persisten estado, trades y equity.
type StorageConfig struct {
	StateFile  string `yaml:"state_file"`
	DSN        string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
	EquityFile string `yaml:"equity_file"`
}

// RuntimeConfig controla el modo de ejecución. Paper es puntero porque el
// default es true: operar en real exige un false explícito (o el flag -live).
type RuntimeConfig struct {
	Paper *bool `yaml:"paper"` // simular fills, sin órdenes reales
	Once  bool  `yaml:"once"`  // un solo tick y salir
}

// MetricsConfig controla el endpoint Prometheus opcional.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// NotifyConfig controla las notificaciones externas. El token y el chat de
// Telegram llegan sólo por entorno; con ambos presentes se activa el notifier.
type NotifyConfig struct {
	TelegramToken  string `yaml:"-"`
	TelegramChatID int64  `yaml:"-"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del entorno sobreescriben los del YAML para las keys que
// correspondan, y la configuración resultante se valida antes de devolverse.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}

// PollInterval devuelve el intervalo entre ticks como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Feed.PollIntervalSeconds) * time.Second
}

// FeedTimeout devuelve el timeout HTTP del feed como time.Duration.
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.Feed.TimeoutSeconds) * time.Second
}

// BaseAsset devuelve la parte base del símbolo (BTC en BTC/USDC).
func (c *Config) BaseAsset() string {
	base, _, _ := strings.Cut(c.Market.Symbol, "/")
	return base
}

// QuoteAsset devuelve la parte quote del símbolo (USDC en BTC/USDC).
func (c *Config) QuoteAsset() string {
	_, quote, _ := strings.Cut(c.Market.Symbol, "/")
	return quote
}

// StopEnabled devuelve el valor efectivo del stop-loss.
func (c *Config) StopEnabled() bool {
	return c.Strategy.StopEnabled == nil || *c.Strategy.StopEnabled
}

// RoundToStep devuelve si las cantidades se ajustan al paso del venue.
func (c *Config) RoundToStep() bool {
	return c.Sizing.RoundToStep == nil || *c.Sizing.RoundToStep
}

// Paper devuelve el modo de ejecución efectivo del YAML (los flags de la CLI
// pueden sobreescribirlo después).
func (c *Config) Paper() bool {
	return c.Runtime.Paper == nil || *c.Runtime.Paper
}

// MinOrderNotionalWarn devuelve si se chequea el notional mínimo del venue.
func (c *Config) MinOrderNotionalWarn() bool {
	return c.Market.MinOrderNotionalWarn == nil || *c.Market.MinOrderNotionalWarn
}

// MinOrderAmountWarn devuelve si se chequea la cantidad base mínima del venue.
func (c *Config) MinOrderAmountWarn() bool {
	return c.Market.MinOrderAmountWarn == nil || *c.Market.MinOrderAmountWarn
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	cfg.Feed.APIKey = os.Getenv("COINGECKO_API_KEY")
	cfg.Exchange.APIKey = os.Getenv("BINANCE_API_KEY")
	cfg.Exchange.APISecret = os.Getenv("BINANCE_API_SECRET")
	cfg.Notify.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse TELEGRAM_CHAT_ID %q: %w", v, err)
		}
		cfg.Notify.TelegramChatID = id
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Exchange.ID == "" {
		cfg.Exchange.ID = "binance"
	}
	if cfg.Exchange.OrderType == "" {
		cfg.Exchange.OrderType = "market"
	}
	if cfg.Exchange.LimitSlippageBps <= 0 {
		cfg.Exchange.LimitSlippageBps = 5
	}
	if cfg.Market.Symbol == "" {
		cfg.Market.Symbol = "BTC/USDC"
	}
	if cfg.Market.MinOrderNotionalWarn == nil {
		v := true
		cfg.Market.MinOrderNotionalWarn = &v
	}
	if cfg.Market.MinOrderAmountWarn == nil {
		v := true
		cfg.Market.MinOrderAmountWarn = &v
	}
	if cfg.Feed.CoinID == "" {
		cfg.Feed.CoinID = "bitcoin"
	}
	if cfg.Feed.VsCurrency == "" {
		cfg.Feed.VsCurrency = "usd"
	}
	if cfg.Feed.PollIntervalSeconds <= 0 {
		cfg.Feed.PollIntervalSeconds = 60
	}
	if cfg.Feed.ATRWindow <= 0 {
		cfg.Feed.ATRWindow = 14
	}
	if cfg.Feed.OHLCDays <= 0 {
		cfg.Feed.OHLCDays = 30
	}
	if cfg.Feed.TimeoutSeconds <= 0 {
		cfg.Feed.TimeoutSeconds = 10
	}
	if cfg.Strategy.K <= 0 {
		cfg.Strategy.K = 1.5
	}
	if cfg.Strategy.StopLossATR <= 0 {
		cfg.Strategy.StopLossATR = 1.0
	}
	if cfg.Strategy.StopEnabled == nil {
		v := true
		cfg.Strategy.StopEnabled = &v
	}
	if cfg.Sizing.Mode == "" {
		cfg.Sizing.Mode = "notional"
	}
	if cfg.Sizing.RoundToStep == nil {
		v := true
		cfg.Sizing.RoundToStep = &v
	}
	if cfg.Runtime.Paper == nil {
		v := true
		cfg.Runtime.Paper = &v
	}
	if cfg.Sizing.Mode == "notional" && cfg.Sizing.Notional <= 0 {
		cfg.Sizing.Notional = 50
	}
	if cfg.Risk.MaxTradesPerDay <= 0 {
		cfg.Risk.MaxTradesPerDay = 10
	}
	if cfg.Risk.CooldownSeconds <= 0 {
		cfg.Risk.CooldownSeconds = 60
	}
	if cfg.Risk.StartEquity <= 0 {
		cfg.Risk.StartEquity = 1000
	}
	if cfg.Storage.StateFile == "" {
		cfg.Storage.StateFile = "state.json"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "atrbot.db"
	}
	if cfg.Storage.EquityFile == "" {
		cfg.Storage.EquityFile = "equity.csv"
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate comprueba que la configuración sea coherente; se ejecuta dentro de
// Load para fallar en el arranque y no a mitad de un tick.
func (c *Config) Validate() error {
	switch c.Exchange.ID {
	case "binance", "paper":
	default:
		return fmt.Errorf("config.Validate: unknown exchange id %q (supported: binance, paper)", c.Exchange.ID)
	}
	switch c.Exchange.OrderType {
	case "market", "limit":
	default:
		return fmt.Errorf("config.Validate: order_type must be market or limit, got %q", c.Exchange.OrderType)
	}
	if !strings.Contains(c.Market.Symbol, "/") {
		return fmt.Errorf("config.Validate: symbol %q must be BASE/QUOTE", c.Market.Symbol)
	}
	switch c.Sizing.Mode {
	case "notional":
		if c.Sizing.Notional <= 0 {
			return fmt.Errorf("config.Validate: sizing.notional must be > 0 in notional mode")
		}
	case "quantity":
		if c.Sizing.Quantity <= 0 {
			return fmt.Errorf("config.Validate: sizing.quantity must be > 0 in quantity mode")
		}
	default:
		return fmt.Errorf("config.Validate: sizing.mode must be notional or quantity, got %q", c.Sizing.Mode)
	}
	if c.Risk.MaxDailyLossPct < 0 {
		return fmt.Errorf("config.Validate: risk.max_daily_loss_pct must be >= 0")
	}
	if c.Risk.MaxDailyLossPct > 0 && c.Risk.StartEquity <= 0 {
		return fmt.Errorf("config.Validate: risk.start_equity must be > 0 when the kill-switch is active")
	}
	if c.Strategy.TakerFeePct < 0 {
		return fmt.Errorf("config.Validate: strategy.taker_fee_pct must be >= 0")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.Validate: log.level must be debug|info|warn|error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config.Validate: log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Notify.TelegramToken != "" && c.Notify.TelegramChatID == 0 {
		return fmt.Errorf("config.Validate: TELEGRAM_BOT_TOKEN set but TELEGRAM_CHAT_ID missing")
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alejandrodnm/atrbot/config"
	"github.com/alejandrodnm/atrbot/internal/adapters/binance"
	"github.com/alejandrodnm/atrbot/internal/adapters/coingecko"
	"github.com/alejandrodnm/atrbot/internal/adapters/notify"
	"github.com/alejandrodnm/atrbot/internal/adapters/paper"
	"github.com/alejandrodnm/atrbot/internal/adapters/storage"
	"github.com/alejandrodnm/atrbot/internal/domain"
	"github.com/alejandrodnm/atrbot/internal/metrics"
	"github.com/alejandrodnm/atrbot/internal/ports"
	"github.com/alejandrodnm/atrbot/internal/trader"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one tick and exit")
	paperMode := flag.Bool("paper", false, "force paper mode, no real orders (wins over -live)")
	live := flag.Bool("live", false, "force live mode, real orders")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print fills as tables (default: compact 1-line)")
	validate := flag.Bool("validate", false, "validate config and exit")
	seedRef := flag.Bool("seed-ref", false, "write a fresh state with ref_price anchored to the current price and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)
	log := slog.Default()

	if *validate {
		slog.Info("config OK", "path", *configPath, "pair", cfg.Market.Symbol, "exchange", cfg.Exchange.ID)
		return
	}

	// -paper gana sobre -live; el venue paper implica modo paper.
	isPaper := cfg.Paper()
	if *live {
		isPaper = false
	}
	if *paperMode || cfg.Exchange.ID == "paper" {
		isPaper = true
	}
	runOnce := *once || cfg.Runtime.Once

	slog.Info("atrbot starting",
		"config", *configPath,
		"pair", cfg.Market.Symbol,
		"exchange", cfg.Exchange.ID,
		"paper", isPaper,
		"interval", cfg.PollInterval(),
		"once", runOnce,
	)

	if err := ensureParentDirs(cfg.Storage.StateFile, cfg.Storage.DSN, cfg.Storage.EquityFile); err != nil {
		slog.Error("failed to create data directories", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	feed := coingecko.NewClient(coingecko.Config{
		CoinID:     cfg.Feed.CoinID,
		VsCurrency: cfg.Feed.VsCurrency,
		APIKey:     cfg.Feed.APIKey,
		Timeout:    cfg.FeedTimeout(),
	}, log)
	states := storage.NewStateFile(cfg.Storage.StateFile)

	if *seedRef {
		if err := seedRefPrice(ctx, feed, states); err != nil {
			slog.Error("failed to seed ref price", "err", err)
			os.Exit(1)
		}
		return
	}

	var exchange ports.Exchange
	if isPaper {
		exchange = paper.New(log)
	} else {
		exchange = binance.New(cfg.Exchange.APIKey, cfg.Exchange.APISecret, "", cfg.Exchange.AllowDerivatives, log)
	}

	trades, err := storage.NewTradeStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open trade store", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer trades.Close()
	equity := storage.NewEquityFile(cfg.Storage.EquityFile)

	console := notify.NewConsole(*table)
	var notifier ports.Notifier = console
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, "")
		if err != nil {
			slog.Error("failed to connect to Telegram", "err", err)
			os.Exit(1)
		}
		notifier = notify.NewFanout(console, tg)
		slog.Info("telegram notifications enabled", "chat_id", cfg.Notify.TelegramChatID)
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, log); err != nil {
				slog.Error("metrics server failed", "err", err)
			}
		}()
	}

	tr := trader.New(trader.Config{
		Pair:             cfg.Market.Symbol,
		QuoteAsset:       cfg.QuoteAsset(),
		OrderType:        domain.OrderType(cfg.Exchange.OrderType),
		LimitSlippageBps: cfg.Exchange.LimitSlippageBps,
		PollInterval:     cfg.PollInterval(),
		ATRWindow:        cfg.Feed.ATRWindow,
		OHLCDays:         cfg.Feed.OHLCDays,
		Strategy: domain.StrategyParams{
			K:           cfg.Strategy.K,
			StopLossATR: cfg.Strategy.StopLossATR,
			StopEnabled: cfg.StopEnabled(),
		},
		Risk: domain.RiskParams{
			MaxTradesPerDay: cfg.Risk.MaxTradesPerDay,
			CooldownSeconds: cfg.Risk.CooldownSeconds,
			MaxDailyLossPct: cfg.Risk.MaxDailyLossPct,
			StartEquity:     cfg.Risk.StartEquity,
			TakerFeePct:     cfg.Strategy.TakerFeePct,
		},
		SizingMode:       cfg.Sizing.Mode,
		Notional:         cfg.Sizing.Notional,
		Quantity:         cfg.Sizing.Quantity,
		RoundToStep:      cfg.RoundToStep(),
		MinNotionalCheck: cfg.MinOrderNotionalWarn(),
		MinAmountCheck:   cfg.MinOrderAmountWarn(),
		Paper:            isPaper,
		Once:             runOnce,
	}, log, feed, exchange, states, trades, equity, notifier)

	if err := tr.Run(ctx); err != nil {
		slog.Error("trader exited with error", "err", err)
		os.Exit(1)
	}

	printShutdownReport(tr.State(), trades, console, notifier)
	slog.Info("atrbot stopped cleanly")
}

// seedRefPrice escribe un estado nuevo con ref_price anclado al precio spot
// actual. Sobreescribe el estado existente.
func seedRefPrice(ctx context.Context, feed ports.PriceFeed, states ports.StateStore) error {
	price, err := feed.LastPrice(ctx)
	if err != nil {
		return err
	}
	state := domain.NewBotState(time.Now())
	state.RefPrice = price
	if err := states.Save(ctx, state); err != nil {
		return err
	}
	slog.Info("ref price seeded", "ref_price", price)
	return nil
}

// printShutdownReport emite el resumen de sesión por todos los notifiers y la
// tabla de últimos trades por consola. Usa un contexto propio: el del proceso
// ya está cancelado al llegar aquí.
func printShutdownReport(state domain.BotState, trades *storage.TradeStore, console *notify.Console, notifier ports.Notifier) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("daily summary",
		"realized_pnl_today", state.RealizedPnLToday,
		"realized_pnl", state.RealizedPnL,
		"trades_today", state.TradesToday,
		"cum_fees", state.CumFees,
	)

	stats, err := trades.Stats(ctx)
	if err != nil {
		slog.Warn("could not aggregate trade stats", "err", err)
		return
	}
	if err := notifier.Summary(ctx, state, stats); err != nil {
		slog.Warn("could not publish summary", "err", err)
	}

	recent, err := trades.RecentTrades(ctx, 10)
	if err != nil {
		slog.Warn("could not fetch recent trades", "err", err)
		return
	}
	console.PrintTradeHistory(recent)
}

// ensureParentDirs crea los directorios de los archivos de datos si no existen.
func ensureParentDirs(paths ...string) error {
	for _, p := range paths {
		if p == "" || p == ":memory:" {
			continue
		}
		dir := filepath.Dir(p)
		if dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

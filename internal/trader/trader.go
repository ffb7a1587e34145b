// Package trader implementa el loop de orquestación del bot: un tick por
// intervalo de poll que encadena precio → ATR → señal → gate de riesgo →
// ejecución → contabilidad → persistencia. Es el único escritor del estado;
// la lógica pura (ATR, señal, riesgo, posición) vive en domain y los efectos
// (feed, venue, storage, notificación) entran como puertos.
package trader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/atrbot/internal/domain"
	"github.com/alejandrodnm/atrbot/internal/metrics"
	"github.com/alejandrodnm/atrbot/internal/ports"
)

// Espera máxima tras un tick con error antes de reintentar.
const errorSleepCap = 30 * time.Second

// Config son los parámetros del loop, fijados al arrancar.
type Config struct {
	Pair       string
	QuoteAsset string

	OrderType        domain.OrderType
	LimitSlippageBps float64

	PollInterval time.Duration
	ATRWindow    int
	OHLCDays     int

	Strategy domain.StrategyParams
	Risk     domain.RiskParams

	SizingMode string // "notional" o "quantity"
	Notional   float64
	Quantity   float64

	RoundToStep      bool
	MinNotionalCheck bool
	MinAmountCheck   bool

	Paper bool
	Once  bool
}

// Trader es el loop de orquestación. Mantiene la única copia mutable del
// estado del bot y la persiste tras cada mutación.
type Trader struct {
	cfg Config
	log *slog.Logger

	feed     ports.PriceFeed
	exchange ports.Exchange
	states   ports.StateStore
	trades   ports.TradeLog
	equity   ports.EquityLog
	notifier ports.Notifier

	buySizer  sizer
	sellSizer sizer

	state domain.BotState
}

// New construye el trader. El sizing se resuelve aquí una sola vez a partir
// de las capacidades del venue.
func New(cfg Config, log *slog.Logger, feed ports.PriceFeed, exchange ports.Exchange, states ports.StateStore, trades ports.TradeLog, equity ports.EquityLog, notifier ports.Notifier) *Trader {
	caps := venueCaps{QuoteCostMarketBuy: exchange.QuoteCostMarketBuy()}
	buy, sell := resolveSizers(cfg.SizingMode, cfg.Notional, cfg.Quantity, cfg.OrderType, caps)
	return &Trader{
		cfg:       cfg,
		log:       log,
		feed:      feed,
		exchange:  exchange,
		states:    states,
		trades:    trades,
		equity:    equity,
		notifier:  notifier,
		buySizer:  buy,
		sellSizer: sell,
	}
}

// State devuelve una copia del estado actual. Solo es seguro llamarlo cuando
// Run ya ha devuelto.
func (t *Trader) State() domain.BotState {
	return t.state
}

// Run ejecuta el loop hasta que el contexto se cancele; devuelve nil en un
// apagado limpio. Con Once ejecuta un único tick tras el arranque y devuelve
// su resultado.
func (t *Trader) Run(ctx context.Context) error {
	if err := t.startup(ctx); err != nil {
		return err
	}
	t.log.Info("bot started",
		"exchange", t.exchange.Name(),
		"pair", t.cfg.Pair,
		"paper", t.cfg.Paper,
		"k", t.cfg.Strategy.K,
		"atr_window", t.cfg.ATRWindow,
	)

	if t.cfg.Once {
		return t.tick(ctx)
	}

	for {
		started := time.Now()
		err := t.tick(ctx)
		if ctx.Err() != nil {
			return nil
		}
		wait := t.cfg.PollInterval - time.Since(started)
		if err != nil {
			t.log.Error("tick failed", "err", err)
			metrics.IncTickError()
			wait = errorSleepCap
			if t.cfg.PollInterval < wait {
				wait = t.cfg.PollInterval
			}
		}
		if wait < 0 {
			wait = 0
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// startup carga el estado, aplica el rollover diario y valida el par en el
// venue. Siempre persiste el estado resultante, para que day_key y baseline
// de equity queden en disco antes del primer tick.
func (t *Trader) startup(ctx context.Context) error {
	state, existed, err := t.states.Load(ctx)
	if err != nil {
		return fmt.Errorf("trader: load state: %w", err)
	}
	now := time.Now()
	if !existed {
		state = domain.NewBotState(now)
		t.log.Info("no previous state, starting flat")
	}
	if state.Rollover(domain.DayKey(now)) {
		t.log.Info("day rollover, daily counters reset", "day", state.DayKey)
	}
	// Estados escritos antes de que existiera el baseline diario.
	if state.EquityStartOfDay == 0 && state.RealizedPnL != 0 {
		state.EquityStartOfDay = state.RealizedPnL
	}
	t.state = state
	if err := t.states.Save(ctx, t.state); err != nil {
		return fmt.Errorf("trader: save state: %w", err)
	}

	if err := t.exchange.ValidatePair(ctx, t.cfg.Pair); err != nil {
		return fmt.Errorf("trader: validate pair: %w", err)
	}
	if !t.cfg.Paper {
		t.logQuoteBalance(ctx)
	}
	return nil
}

// logQuoteBalance consulta el saldo libre en quote y avisa si no cubre el
// notional configurado. Un fallo aquí no impide arrancar.
func (t *Trader) logQuoteBalance(ctx context.Context) {
	balances, err := t.exchange.Balance(ctx)
	if err != nil {
		t.log.Warn("could not fetch balance", "err", err)
		return
	}
	free := balances[t.cfg.QuoteAsset]
	t.log.Info("quote balance", "asset", t.cfg.QuoteAsset, "free", free)
	if t.cfg.SizingMode == "notional" && free < t.cfg.Notional {
		t.log.Warn("free balance below configured notional", "free", free, "notional", t.cfg.Notional)
	}
}

// tick ejecuta una pasada completa del pipeline. Un error corta el tick sin
// tocar el estado; la política de espera la decide el loop.
func (t *Trader) tick(ctx context.Context) error {
	metrics.IncTick()

	// 1. Precio: el último spot es la entrada de todo lo demás.
	price, err := t.feed.LastPrice(ctx)
	if err != nil {
		return fmt.Errorf("trader: last price: %w", err)
	}
	metrics.SetLastPrice(price)

	// 2. Volatilidad: ATR sobre velas diarias, con fallback a la serie por
	// minutos. Sin ATR utilizable no hay decisión.
	atr, ok, err := t.computeATR(ctx)
	if err != nil {
		return err
	}
	if !ok {
		t.log.Warn("ATR not available yet, skipping tick")
		return nil
	}
	metrics.SetATR(atr)

	// 3. Señal.
	sig, stop, stopExit := domain.Decide(t.cfg.Strategy, price, atr, t.state.Mode, t.state.RefPrice)
	t.log.Info("tick",
		"price", price,
		"atr", atr,
		"mode", t.state.Mode,
		"ref_price", t.state.RefPrice,
		"signal", sig.String(),
	)

	// 4. Gate de riesgo: se evalúa en cada tick, haya señal o no.
	nowMs := time.Now().UnixMilli()
	allowed, reason := domain.CanTrade(t.cfg.Risk, nowMs, t.state.TradesToday, t.state.LastTradeTS, t.state.RealizedPnLToday)
	if !allowed {
		t.log.Info("risk_block", "reason", reason)
		metrics.IncRiskBlock(reason)
		return nil
	}

	// 5. Ejecución.
	switch sig {
	case domain.SignalBuy:
		return t.executeBuy(ctx, price, stop)
	case domain.SignalSell:
		return t.executeSell(ctx, price, stopExit)
	}
	return nil
}

// computeATR calcula el ATR con velas OHLC diarias y, si el feed no puede
// servirlas, con la serie de precios por minuto del último día. Que el feed
// devuelva velas pero insuficientes no activa el fallback: es el warm-up
// normal del indicador.
func (t *Trader) computeATR(ctx context.Context) (float64, bool, error) {
	candles, err := t.feed.DailyCandles(ctx, t.cfg.OHLCDays)
	if err == nil {
		atr, ok := domain.ATRFromCandles(candles, t.cfg.ATRWindow)
		return atr, ok, nil
	}
	if ctx.Err() != nil {
		return 0, false, fmt.Errorf("trader: daily candles: %w", err)
	}
	if errors.Is(err, ports.ErrUnsupported) {
		t.log.Debug("daily OHLC not published for this pair, using minute prices", "err", err)
	} else {
		t.log.Warn("daily OHLC unavailable, falling back to minute prices", "err", err)
	}

	points, err := t.feed.MinutePrices(ctx, 1)
	if err != nil {
		return 0, false, fmt.Errorf("trader: ATR fallback: %w", err)
	}
	atr, ok := domain.ATRFromPrices(points, t.cfg.ATRWindow)
	return atr, ok, nil
}

// executeBuy dimensiona, valida y envía la compra, y aplica el fill al
// estado. El stop sugerido por la señal es informativo: queda en el log y no
// se envía al venue.
func (t *Trader) executeBuy(ctx context.Context, last, stop float64) error {
	if stop > 0 {
		t.log.Debug("suggested stop for entry", "stop", stop)
	}

	sized := t.buySizer.size(last)
	amount := sized.Amount
	if t.cfg.RoundToStep && !sized.QuoteSized {
		amount = t.exchange.RoundAmount(t.cfg.Pair, amount)
		sized.EstCost = amount * last
	}

	if amount <= 0 || !t.passesMinimums(ctx, amount, sized.EstCost, sized.QuoteSized) {
		if amount <= 0 {
			metrics.IncOrderSkipped("zero_amount")
		}
		t.log.Info("order not placed due to validation or zero amount", "amount", amount, "est_cost", sized.EstCost)
		return nil
	}

	id := uuid.NewString()
	order, fillPrice, err := t.placeOrder(ctx, domain.SideBuy, amount, last, sized.QuoteSized, id)
	if err != nil {
		return fmt.Errorf("trader: buy: %w", err)
	}

	baseQty := amount
	if sized.QuoteSized {
		baseQty = amount / fillPrice
	}
	fee := domain.Fee(t.cfg.Risk, baseQty*fillPrice)
	nowMs := time.Now().UnixMilli()
	t.state.ApplyBuy(fillPrice, baseQty, fee, nowMs)

	t.log.Info("filled_buy", "price", fillPrice, "amount", baseQty, "fees", fee, "paper", t.cfg.Paper)
	metrics.IncTrade("BUY")
	metrics.SetPositionQty(t.state.PositionQty)

	t.finishTrade(ctx, domain.TradeRecord{
		ID:        id,
		TS:        nowMs,
		Pair:      t.cfg.Pair,
		Side:      domain.SideBuy,
		Type:      order.Type,
		Price:     fillPrice,
		Quantity:  baseQty,
		Notional:  baseQty * fillPrice,
		Fee:       fee,
		ModeAfter: t.state.Mode,
		Paper:     t.cfg.Paper,
	})
	return nil
}

// executeSell cierra la posición completa. La cantidad enviada al venue es la
// posición en libros, redondeada al paso; solo si no hay posición registrada
// se recurre al sizing configurado.
func (t *Trader) executeSell(ctx context.Context, last float64, stopExit bool) error {
	if stopExit {
		t.log.Info("stop-loss trigger reached", "ref_price", t.state.RefPrice)
	}

	qty := t.state.PositionQty
	if qty <= 0 {
		qty = t.sellSizer.size(last).Amount
	}
	if t.cfg.RoundToStep {
		qty = t.exchange.RoundAmount(t.cfg.Pair, qty)
	}
	estProceeds := qty * last

	if qty <= 0 || !t.passesMinimums(ctx, qty, estProceeds, false) {
		if qty <= 0 {
			metrics.IncOrderSkipped("zero_amount")
		}
		t.log.Info("order not placed due to validation or zero amount", "amount", qty, "est_cost", estProceeds)
		return nil
	}

	id := uuid.NewString()
	order, fillPrice, err := t.placeOrder(ctx, domain.SideSell, qty, last, false, id)
	if err != nil {
		return fmt.Errorf("trader: sell: %w", err)
	}

	// Comisión a dos patas: proceeds de la salida y cost basis de la entrada.
	ref := t.state.RefPrice
	if ref == 0 {
		ref = fillPrice
	}
	fee := domain.Fee(t.cfg.Risk, qty*fillPrice) + domain.Fee(t.cfg.Risk, qty*ref)
	nowMs := time.Now().UnixMilli()
	pnl := t.state.ApplySell(fillPrice, qty, fee, nowMs)

	if err := t.equity.Append(ctx, domain.EquityPoint{
		TS:          nowMs,
		RealizedPnL: t.state.RealizedPnL,
		CumFees:     t.state.CumFees,
		PositionQty: t.state.PositionQty,
	}); err != nil {
		t.log.Warn("could not append equity point", "err", err)
	}

	t.log.Info("filled_sell",
		"price", fillPrice,
		"pnl", pnl,
		"realized_pnl", t.state.RealizedPnL,
		"fees", fee,
		"paper", t.cfg.Paper,
	)
	metrics.IncTrade("SELL")
	metrics.SetRealizedPnL(t.state.RealizedPnL)
	metrics.SetPositionQty(t.state.PositionQty)

	t.finishTrade(ctx, domain.TradeRecord{
		ID:        id,
		TS:        nowMs,
		Pair:      t.cfg.Pair,
		Side:      domain.SideSell,
		Type:      order.Type,
		Price:     fillPrice,
		Quantity:  qty,
		Notional:  qty * fillPrice,
		Fee:       fee,
		PnL:       pnl,
		ModeAfter: t.state.Mode,
		Paper:     t.cfg.Paper,
	})
	return nil
}

// placeOrder construye la orden, fija el precio limit con el slippage
// configurado y la envía. El precio de fill contabilizado es el último spot
// en market y el precio limit en limit; el acuse del venue no se usa para
// valorar el fill.
func (t *Trader) placeOrder(ctx context.Context, side domain.Side, amount, last float64, quoteSized bool, clientID string) (domain.Order, float64, error) {
	req := domain.OrderRequest{
		Pair:       t.cfg.Pair,
		Side:       side,
		Type:       t.cfg.OrderType,
		Amount:     amount,
		QuoteSized: quoteSized,
		ClientID:   clientID,
	}
	fillPrice := last
	if t.cfg.OrderType == domain.OrderLimit {
		bps := t.cfg.LimitSlippageBps / 10000.0
		price := last * (1 - bps)
		if side == domain.SideSell {
			price = last * (1 + bps)
		}
		price = t.exchange.RoundPrice(t.cfg.Pair, price)
		req.Price = price
		fillPrice = price
	}

	order, err := t.exchange.PlaceOrder(ctx, req)
	if err != nil {
		return domain.Order{}, 0, err
	}
	t.log.Debug("venue ack", "order_id", order.ID, "side", side, "amount", amount)
	return order, fillPrice, nil
}

// passesMinimums comprueba los mínimos publicados por el venue cuando los
// chequeos están habilitados. Si los límites no se pueden consultar la orden
// pasa: el venue la rechazará si de verdad está por debajo. El mínimo de
// cantidad no aplica a órdenes dimensionadas por coste quote.
func (t *Trader) passesMinimums(ctx context.Context, amount, estCost float64, quoteSized bool) bool {
	if !t.cfg.MinAmountCheck && !t.cfg.MinNotionalCheck {
		return true
	}
	limits, err := t.exchange.Limits(ctx, t.cfg.Pair)
	if err != nil {
		t.log.Warn("could not fetch pair limits", "err", err)
		return true
	}
	if t.cfg.MinAmountCheck && !quoteSized && limits.MinAmount > 0 && amount < limits.MinAmount {
		t.log.Warn("amount below venue minimum", "amount", amount, "min_amount", limits.MinAmount)
		metrics.IncOrderSkipped("below_min_amount")
		return false
	}
	if t.cfg.MinNotionalCheck && limits.MinCost > 0 && estCost < limits.MinCost {
		t.log.Warn("notional below venue minimum", "est_cost", estCost, "min_cost", limits.MinCost)
		metrics.IncOrderSkipped("below_min_notional")
		return false
	}
	return true
}

// finishTrade registra el trade, lo anuncia y persiste el estado. Ninguno de
// los tres pasos aborta el tick: el estado ya avanzó y la orden ya se
// ejecutó.
func (t *Trader) finishTrade(ctx context.Context, rec domain.TradeRecord) {
	if err := t.trades.RecordTrade(ctx, rec); err != nil {
		t.log.Warn("could not record trade", "err", err)
	}
	if err := t.notifier.TradeFilled(ctx, rec); err != nil {
		t.log.Warn("could not notify fill", "err", err)
	}
	if err := t.states.Save(ctx, t.state); err != nil {
		t.log.Warn("could not save state", "err", err)
	}
}

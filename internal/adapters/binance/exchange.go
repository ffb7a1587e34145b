package binance

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	gobinance "github.com/adshao/go-binance/v2"

	"github.com/alejandrodnm/atrbot/internal/domain"
)

// Exchange es el adaptador de ejecución sobre la API spot de Binance.
// El loop es de un solo hilo, así que la caché de metadata no lleva lock.
type Exchange struct {
	client           *gobinance.Client
	allowDerivatives bool
	log              *slog.Logger

	symbols map[string]gobinance.Symbol  // venueSymbol → metadata
	limits  map[string]domain.PairLimits // venueSymbol → límites parseados
}

// New crea el adaptador con las credenciales dadas. baseURL vacío usa la API
// de producción de Binance.
func New(apiKey, apiSecret, baseURL string, allowDerivatives bool, log *slog.Logger) *Exchange {
	client := gobinance.NewClient(apiKey, apiSecret)
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	return &Exchange{
		client:           client,
		allowDerivatives: allowDerivatives,
		log:              log,
		limits:           make(map[string]domain.PairLimits),
	}
}

// Name identifica el venue en logs y registros.
func (e *Exchange) Name() string { return "binance" }

// QuoteCostMarketBuy es true: las compras market pueden expresarse como coste
// en quote vía el parámetro quoteOrderQty.
func (e *Exchange) QuoteCostMarketBuy() bool { return true }

// ValidatePair carga la metadata del venue la primera vez y comprueba que el
// símbolo existe, cotiza y es spot (salvo allow_derivatives).
func (e *Exchange) ValidatePair(ctx context.Context, pair string) error {
	symbol := VenueSymbol(pair)

	if e.symbols == nil {
		info, err := e.client.NewExchangeInfoService().Do(ctx)
		if err != nil {
			return fmt.Errorf("binance.ValidatePair: exchange info: %w", err)
		}
		e.symbols = make(map[string]gobinance.Symbol, len(info.Symbols))
		for _, s := range info.Symbols {
			e.symbols[s.Symbol] = s
		}
		e.log.Debug("exchange info loaded", "symbols", len(e.symbols))
	}

	s, ok := e.symbols[symbol]
	if !ok {
		return fmt.Errorf("binance.ValidatePair: symbol %q not listed (known: %s, ...)",
			symbol, sampleSymbols(e.symbols, 5))
	}
	if s.Status != "TRADING" {
		return fmt.Errorf("binance.ValidatePair: symbol %q not trading (status %s)", symbol, s.Status)
	}
	if !s.IsSpotTradingAllowed && !e.allowDerivatives {
		return fmt.Errorf("binance.ValidatePair: %q is not a spot market; set exchange.allow_derivatives to trade it", symbol)
	}

	e.limits[symbol] = parseFilters(s.Filters)
	return nil
}

// Limits devuelve los límites del par, cargando la metadata si hace falta.
func (e *Exchange) Limits(ctx context.Context, pair string) (domain.PairLimits, error) {
	symbol := VenueSymbol(pair)
	if l, ok := e.limits[symbol]; ok {
		return l, nil
	}
	if err := e.ValidatePair(ctx, pair); err != nil {
		return domain.PairLimits{}, fmt.Errorf("binance.Limits: %w", err)
	}
	return e.limits[symbol], nil
}

// RoundAmount trunca una cantidad base al paso del par. Sin metadata cargada
// devuelve la cantidad intacta.
func (e *Exchange) RoundAmount(pair string, amount float64) float64 {
	return roundToStep(amount, e.limits[VenueSymbol(pair)].AmountStep)
}

// RoundPrice trunca un precio al tick del par.
func (e *Exchange) RoundPrice(pair string, price float64) float64 {
	return roundToStep(price, e.limits[VenueSymbol(pair)].PriceStep)
}

// PlaceOrder envía la orden al venue y devuelve su acuse.
func (e *Exchange) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	symbol := VenueSymbol(req.Pair)
	limits := e.limits[symbol]

	svc := e.client.NewCreateOrderService().
		Symbol(symbol).
		Side(sideType(req.Side))

	switch req.Type {
	case domain.OrderLimit:
		svc.Type(gobinance.OrderTypeLimit).
			TimeInForce(gobinance.TimeInForceTypeGTC).
			Quantity(formatAmount(req.Amount, limits.AmountStep)).
			Price(formatAmount(req.Price, limits.PriceStep))
	default:
		svc.Type(gobinance.OrderTypeMarket)
		if req.QuoteSized {
			// Compra market dimensionada en quote: el coste va tal cual,
			// sin truncar al paso de la cantidad base.
			svc.QuoteOrderQty(formatAmount(req.Amount, 0))
		} else {
			svc.Quantity(formatAmount(req.Amount, limits.AmountStep))
		}
	}

	if req.ClientID != "" {
		svc.NewClientOrderID(req.ClientID)
	}

	resp, err := svc.Do(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("binance.PlaceOrder: %s %s %s: %w", req.Side, req.Type, symbol, err)
	}

	order := mapOrder(req, resp)
	e.log.Debug("order placed",
		"symbol", symbol,
		"side", req.Side,
		"type", req.Type,
		"order_id", order.ID,
	)
	return order, nil
}

// Balance devuelve los saldos libres no nulos por moneda.
func (e *Exchange) Balance(ctx context.Context) (map[string]float64, error) {
	acc, err := e.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance.Balance: %w", err)
	}
	out := make(map[string]float64)
	for _, b := range acc.Balances {
		free, err := strconv.ParseFloat(b.Free, 64)
		if err != nil || free == 0 {
			continue
		}
		out[b.Asset] = free
	}
	return out, nil
}

func sideType(s domain.Side) gobinance.SideType {
	if s == domain.SideSell {
		return gobinance.SideTypeSell
	}
	return gobinance.SideTypeBuy
}

// mapOrder construye el acuse de dominio a partir de la respuesta del venue.
func mapOrder(req domain.OrderRequest, resp *gobinance.CreateOrderResponse) domain.Order {
	price, _ := strconv.ParseFloat(resp.Price, 64)
	qty, _ := strconv.ParseFloat(resp.ExecutedQuantity, 64)
	if qty == 0 {
		qty, _ = strconv.ParseFloat(resp.OrigQuantity, 64)
	}
	return domain.Order{
		ID:     strconv.FormatInt(resp.OrderID, 10),
		Pair:   req.Pair,
		Side:   req.Side,
		Type:   req.Type,
		Amount: qty,
		Price:  price,
	}
}

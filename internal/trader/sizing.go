package trader

import "github.com/alejandrodnm/atrbot/internal/domain"

// venueCaps son las capacidades del venue que afectan al sizing. Se consultan
// una sola vez al construir el trader; el loop no contiene ramas por venue.
type venueCaps struct {
	// QuoteCostMarketBuy: las compras market se dimensionan por coste en
	// moneda quote en lugar de cantidad base.
	QuoteCostMarketBuy bool
}

// sizedOrder es el resultado del sizing para un tick. Con QuoteSized, Amount
// es el coste en moneda quote y no se redondea al paso de cantidad.
type sizedOrder struct {
	Amount     float64
	EstCost    float64
	QuoteSized bool
}

// sizer convierte el último precio en una orden dimensionada.
type sizer interface {
	size(lastPrice float64) sizedOrder
}

// quantitySizer envía siempre una cantidad base fija.
type quantitySizer struct{ qty float64 }

func (s quantitySizer) size(lastPrice float64) sizedOrder {
	return sizedOrder{Amount: s.qty, EstCost: s.qty * lastPrice}
}

// notionalSizer convierte un notional quote fijo a cantidad base al último
// precio.
type notionalSizer struct{ notional float64 }

func (s notionalSizer) size(lastPrice float64) sizedOrder {
	qty := s.notional / lastPrice
	return sizedOrder{Amount: qty, EstCost: qty * lastPrice}
}

// quoteCostSizer expresa la orden directamente como coste quote, para market
// buys en venues que dimensionan así.
type quoteCostSizer struct{ notional float64 }

func (s quoteCostSizer) size(float64) sizedOrder {
	return sizedOrder{Amount: s.notional, EstCost: s.notional, QuoteSized: true}
}

// resolveSizers elige los sizers de compra y venta según el modo configurado
// y las capacidades del venue. El sizing por coste quote solo aplica a la
// pata de compra con órdenes market; la venta siempre se expresa en cantidad
// base.
func resolveSizers(mode string, notional, quantity float64, orderType domain.OrderType, caps venueCaps) (buy, sell sizer) {
	if mode == "quantity" {
		q := quantitySizer{qty: quantity}
		return q, q
	}
	sell = notionalSizer{notional: notional}
	if caps.QuoteCostMarketBuy && orderType == domain.OrderMarket {
		return quoteCostSizer{notional: notional}, sell
	}
	return notionalSizer{notional: notional}, sell
}

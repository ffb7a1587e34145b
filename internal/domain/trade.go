package domain

// Side es el lado de una orden.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType es el tipo de ejecución de una orden.
type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
)

// OrderRequest describe una orden lista para enviar al exchange.
// Amount es cantidad en moneda base, salvo que QuoteSized sea true: entonces
// es el coste en moneda quote (market BUY en venues que dimensionan por coste).
type OrderRequest struct {
	Pair       string
	Side       Side
	Type       OrderType
	Amount     float64
	Price      float64 // solo órdenes limit; 0 en market
	QuoteSized bool
	ClientID   string
}

// Order es la confirmación que devuelve el exchange al colocar una orden.
type Order struct {
	ID     string
	Pair   string
	Side   Side
	Type   OrderType
	Amount float64
	Price  float64
}

// TradeRecord es un fill contabilizado, tal como se persiste en el histórico.
type TradeRecord struct {
	ID        string
	TS        int64 // epoch ms
	Pair      string
	Side      Side
	Type      OrderType
	Price     float64
	Quantity  float64 // cantidad base
	Notional  float64 // Quantity × Price
	Fee       float64
	PnL       float64 // 0 en BUY; PnL realizado en SELL
	ModeAfter Mode
	Paper     bool
}

// PairLimits son los mínimos y pasos de redondeo del venue para un par.
// Un campo a 0 significa "sin restricción publicada".
type PairLimits struct {
	MinAmount  float64 // cantidad base mínima por orden
	MinCost    float64 // notional mínimo por orden
	AmountStep float64 // paso de redondeo de cantidad base
	PriceStep  float64 // paso de redondeo de precio
}

// EquityPoint es una fila de la curva de equity; se emite una por posición
// cerrada.
type EquityPoint struct {
	TS          int64
	RealizedPnL float64
	CumFees     float64
	PositionQty float64
}

// TradeStats agrega el histórico de trades para el resumen de cierre.
type TradeStats struct {
	Trades    int
	Buys      int
	Sells     int
	TotalPnL  float64
	TotalFees float64
}

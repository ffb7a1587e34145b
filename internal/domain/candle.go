package domain

// Candle es una vela OHLC diaria del feed de precios.
type Candle struct {
	TS    int64 // epoch ms
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// PricePoint es una muestra (timestamp, precio) de la serie por minutos.
// Se usa como fallback cuando el feed no puede servir velas OHLC.
type PricePoint struct {
	TS    int64 // epoch ms
	Price float64
}

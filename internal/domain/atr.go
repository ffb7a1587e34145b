package domain

import "math"

// ATRFromCandles calcula el Average True Range de una serie de velas diarias.
//
// True Range por vela (a partir de la segunda):
//
//	TR = max(high-low, |high-prevClose|, |low-prevClose|)
//
// El resultado es la media simple (SMA) de los últimos min(window, n) True
// Ranges, no el suavizado exponencial de Wilder. Filas corruptas (precios no
// positivos, high < low) se descartan sin abortar el cálculo.
//
// Devuelve ok=false cuando no hay al menos dos velas utilizables.
func ATRFromCandles(candles []Candle, window int) (atr float64, ok bool) {
	trs := make([]float64, 0, len(candles))
	var prevClose float64
	havePrev := false
	for _, c := range candles {
		if c.High <= 0 || c.Low <= 0 || c.Close <= 0 || c.High < c.Low {
			continue
		}
		if havePrev {
			tr := math.Max(c.High-c.Low,
				math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
			trs = append(trs, tr)
		}
		prevClose = c.Close
		havePrev = true
	}
	return atrFromTrueRanges(trs, window)
}

// ATRFromPrices aproxima el ATR desde una serie de precios por minuto: el
// True Range se toma como |p_t - p_{t-1}| entre muestras consecutivas. Es el
// fallback cuando el feed no sirve velas OHLC. Muestras con precio no
// positivo se descartan.
//
// Devuelve ok=false cuando no hay al menos dos muestras utilizables.
func ATRFromPrices(points []PricePoint, window int) (atr float64, ok bool) {
	trs := make([]float64, 0, len(points))
	var prev float64
	havePrev := false
	for _, p := range points {
		if p.Price <= 0 {
			continue
		}
		if havePrev {
			trs = append(trs, math.Abs(p.Price-prev))
		}
		prev = p.Price
		havePrev = true
	}
	return atrFromTrueRanges(trs, window)
}

// atrFromTrueRanges promedia los últimos min(window, len(trs)) True Ranges,
// con un mínimo de 1 para tolerar windows mal configurados.
func atrFromTrueRanges(trs []float64, window int) (float64, bool) {
	if len(trs) == 0 {
		return 0, false
	}
	n := window
	if n > len(trs) {
		n = len(trs)
	}
	if n < 1 {
		n = 1
	}
	sum := 0.0
	for _, tr := range trs[len(trs)-n:] {
		sum += tr
	}
	return sum / float64(n), true
}

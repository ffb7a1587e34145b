package coingecko

import (
	"encoding/json"
	"strings"

	"github.com/alejandrodnm/atrbot/internal/domain"
)

// Monedas quote que varios endpoints de CoinGecko no aceptan directamente;
// se consultan como usd.
var stablecoinsToUSD = map[string]bool{
	"usdc": true,
	"usdt": true,
	"busd": true,
	"tusd": true,
	"usdd": true,
	"dai":  true,
}

// NormalizeVsCurrency pasa la moneda quote a minúsculas y convierte las
// stablecoins conocidas a usd. Vacío se trata como usd.
func NormalizeVsCurrency(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || stablecoinsToUSD[v] {
		return "usd"
	}
	return v
}

// mapOHLCRows convierte filas [ms, open, high, low, close] a domain.Candle.
// Devuelve además cuántas filas se descartaron por malformadas.
func mapOHLCRows(rows []json.RawMessage) ([]domain.Candle, int) {
	candles := make([]domain.Candle, 0, len(rows))
	skipped := 0
	for _, raw := range rows {
		var row []float64
		if err := json.Unmarshal(raw, &row); err != nil || len(row) < 5 {
			skipped++
			continue
		}
		candles = append(candles, domain.Candle{
			TS:    int64(row[0]),
			Open:  row[1],
			High:  row[2],
			Low:   row[3],
			Close: row[4],
		})
	}
	return candles, skipped
}

// mapPriceRows convierte filas [ms, price] a domain.PricePoint.
func mapPriceRows(rows []json.RawMessage) ([]domain.PricePoint, int) {
	points := make([]domain.PricePoint, 0, len(rows))
	skipped := 0
	for _, raw := range rows {
		var row []float64
		if err := json.Unmarshal(raw, &row); err != nil || len(row) < 2 {
			skipped++
			continue
		}
		points = append(points, domain.PricePoint{TS: int64(row[0]), Price: row[1]})
	}
	return points, skipped
}

package binance

import (
	"math"
	"sort"
	"strconv"
	"strings"

	gobinance "github.com/adshao/go-binance/v2"

	"github.com/alejandrodnm/atrbot/internal/domain"
)

// VenueSymbol convierte un par BASE/QUOTE al símbolo del venue (BTC/USDC → BTCUSDC).
func VenueSymbol(pair string) string {
	return strings.ToUpper(strings.ReplaceAll(pair, "/", ""))
}

// parseFilters extrae los límites de orden de los filtros del símbolo.
// Binance publica NOTIONAL en spot y MIN_NOTIONAL en mercados antiguos.
func parseFilters(filters []map[string]interface{}) domain.PairLimits {
	var l domain.PairLimits
	for _, f := range filters {
		switch f["filterType"] {
		case "LOT_SIZE":
			l.MinAmount = filterFloat(f, "minQty")
			l.AmountStep = filterFloat(f, "stepSize")
		case "PRICE_FILTER":
			l.PriceStep = filterFloat(f, "tickSize")
		case "NOTIONAL", "MIN_NOTIONAL":
			if v := filterFloat(f, "minNotional"); v > 0 {
				l.MinCost = v
			}
		}
	}
	return l
}

// filterFloat lee un campo numérico de un filtro; Binance los publica como strings.
func filterFloat(f map[string]interface{}, key string) float64 {
	s, ok := f[key].(string)
	if !ok {
		return 0
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// roundToStep trunca v al múltiplo inferior de step. El epsilon evita que un
// cociente como 0.3/0.1 = 2.9999... trunque un paso de más.
func roundToStep(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Floor(v/step+1e-9) * step
}

// stepDecimals devuelve los decimales implícitos en un paso (0.001 → 3).
func stepDecimals(step float64) int {
	s := strconv.FormatFloat(step, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

// formatAmount serializa una cantidad con los decimales del paso; sin paso
// usa la representación más corta exacta.
func formatAmount(v, step float64) string {
	if step > 0 {
		return strconv.FormatFloat(v, 'f', stepDecimals(step), 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// sampleSymbols devuelve los primeros n símbolos en orden alfabético, para
// mensajes de error legibles.
func sampleSymbols(symbols map[string]gobinance.Symbol, n int) string {
	names := make([]string, 0, len(symbols))
	for name := range symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > n {
		names = names[:n]
	}
	return strings.Join(names, ", ")
}

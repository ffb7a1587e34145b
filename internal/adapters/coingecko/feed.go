package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/atrbot/internal/domain"
	"github.com/alejandrodnm/atrbot/internal/ports"
)

// LastPrice devuelve el último precio spot probando tres endpoints en orden:
// /simple/price, /coins/markets y /coins/{id}. El primero que responde gana.
func (c *Client) LastPrice(ctx context.Context) (float64, error) {
	price, err := c.simplePrice(ctx)
	if err == nil {
		return price, nil
	}
	c.log.Debug("coingecko simple/price failed, falling back", "err", err)

	price, err = c.marketsPrice(ctx)
	if err == nil {
		c.log.Info("price fallback used", "endpoint", "coins/markets")
		return price, nil
	}
	c.log.Debug("coingecko coins/markets failed, falling back", "err", err)

	price, err = c.coinPrice(ctx)
	if err == nil {
		c.log.Info("price fallback used", "endpoint", "coins/{id}")
		return price, nil
	}
	return 0, fmt.Errorf("coingecko.LastPrice: all endpoints failed: %w", err)
}

func (c *Client) simplePrice(ctx context.Context) (float64, error) {
	q := url.Values{}
	q.Set("ids", c.coinID)
	q.Set("vs_currencies", c.vs)

	var resp map[string]map[string]float64
	if err := c.getJSON(ctx, c.priceLimiter, c.base+"/simple/price?"+q.Encode(), &resp); err != nil {
		return 0, err
	}
	price, ok := resp[c.coinID][c.vs]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("simple/price: no price for %s/%s", c.coinID, c.vs)
	}
	return price, nil
}

func (c *Client) marketsPrice(ctx context.Context) (float64, error) {
	q := url.Values{}
	q.Set("vs_currency", c.vs)
	q.Set("ids", c.coinID)
	q.Set("per_page", "1")
	q.Set("page", "1")

	var resp []struct {
		CurrentPrice float64 `json:"current_price"`
	}
	if err := c.getJSON(ctx, c.priceLimiter, c.base+"/coins/markets?"+q.Encode(), &resp); err != nil {
		return 0, err
	}
	if len(resp) == 0 || resp[0].CurrentPrice <= 0 {
		return 0, fmt.Errorf("coins/markets: no price for %s", c.coinID)
	}
	return resp[0].CurrentPrice, nil
}

func (c *Client) coinPrice(ctx context.Context) (float64, error) {
	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")
	q.Set("market_data", "true")
	q.Set("community_data", "false")
	q.Set("developer_data", "false")
	q.Set("sparkline", "false")
	u := fmt.Sprintf("%s/coins/%s?%s", c.base, c.coinID, q.Encode())

	var resp struct {
		MarketData struct {
			CurrentPrice map[string]float64 `json:"current_price"`
		} `json:"market_data"`
	}
	if err := c.getJSON(ctx, c.priceLimiter, u, &resp); err != nil {
		return 0, err
	}
	price, ok := resp.MarketData.CurrentPrice[c.vs]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("coins/{id}: no price for vs=%s", c.vs)
	}
	return price, nil
}

// DailyCandles devuelve velas OHLC diarias de los últimos days días.
// Las filas malformadas se descartan sin abortar la llamada.
func (c *Client) DailyCandles(ctx context.Context, days int) ([]domain.Candle, error) {
	q := url.Values{}
	q.Set("vs_currency", c.vs)
	q.Set("days", strconv.Itoa(days))
	u := fmt.Sprintf("%s/coins/%s/ohlc?%s", c.base, c.coinID, q.Encode())

	var rows []json.RawMessage
	if err := c.getJSON(ctx, c.chartLimiter, u, &rows); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, fmt.Errorf("coingecko.DailyCandles: %w", ports.ErrUnsupported)
		}
		return nil, fmt.Errorf("coingecko.DailyCandles: %w", err)
	}

	candles, skipped := mapOHLCRows(rows)
	if skipped > 0 {
		c.log.Debug("ohlc rows skipped", "skipped", skipped, "total", len(rows))
	}
	return candles, nil
}

// MinutePrices devuelve la serie de precios por minuto de los últimos days
// días; es la fuente del TR aproximado cuando no hay OHLC.
func (c *Client) MinutePrices(ctx context.Context, days int) ([]domain.PricePoint, error) {
	q := url.Values{}
	q.Set("vs_currency", c.vs)
	q.Set("days", strconv.Itoa(days))
	q.Set("interval", "minute")
	u := fmt.Sprintf("%s/coins/%s/market_chart?%s", c.base, c.coinID, q.Encode())

	var resp struct {
		Prices []json.RawMessage `json:"prices"`
	}
	if err := c.getJSON(ctx, c.chartLimiter, u, &resp); err != nil {
		return nil, fmt.Errorf("coingecko.MinutePrices: %w", err)
	}

	points, skipped := mapPriceRows(resp.Prices)
	if skipped > 0 {
		c.log.Debug("market_chart rows skipped", "skipped", skipped, "total", len(resp.Prices))
	}
	if len(points) == 0 {
		c.log.Warn("market_chart returned no usable prices", "coin", c.coinID, "vs", c.vs)
	}
	return points, nil
}

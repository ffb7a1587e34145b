package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	publicBase = "https://api.coingecko.com/api/v3"
	proBase    = "https://pro-api.coingecko.com/api/v3"

	// Header de autenticación del plan pro.
	proKeyHeader = "x-cg-pro-api-key"
)

// Rate limits conservadores para el plan público (~30 llamadas/min compartidas
// entre todos los endpoints).
const (
	priceRatePerSec = 0.5  // simple/price, coins/markets, coins/{id}
	chartRatePerSec = 0.25 // ohlc y market_chart pesan más
)

// RetryPolicy define los reintentos ante fallos transitorios: error de red,
// HTTP 429 o 5xx. La espera dobla desde BaseWait sin superar MaxWait.
type RetryPolicy struct {
	MaxAttempts int // intentos totales, incluido el primero
	BaseWait    time.Duration
	MaxWait     time.Duration
}

// DefaultRetryPolicy es la política usada en producción.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 4,
	BaseWait:    time.Second,
	MaxWait:     30 * time.Second,
}

// wait devuelve la espera previa al reintento número attempt (1-based).
func (p RetryPolicy) wait(attempt int) time.Duration {
	d := p.BaseWait
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxWait {
			return p.MaxWait
		}
	}
	if d > p.MaxWait {
		return p.MaxWait
	}
	return d
}

// statusError es un error HTTP que no se reintenta.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("client error %d: %s", e.code, e.body)
}

// Config son los parámetros de construcción del cliente.
type Config struct {
	CoinID     string
	VsCurrency string // se normaliza: stablecoins → usd
	BaseURL    string // vacío → base pública, o pro si hay APIKey
	APIKey     string
	Timeout    time.Duration
	Retry      RetryPolicy // zero value → DefaultRetryPolicy
}

// Client es el cliente HTTP de CoinGecko con rate limiting y retries.
// El par coin/vs queda fijado en la construcción.
type Client struct {
	http         *http.Client
	base         string
	apiKey       string
	coinID       string
	vs           string
	priceLimiter *rate.Limiter
	chartLimiter *rate.Limiter
	retry        RetryPolicy
	log          *slog.Logger
}

// NewClient crea un Client para el par coin/vs dado.
func NewClient(cfg Config, log *slog.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = publicBase
		if cfg.APIKey != "" {
			base = proBase
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy
	}
	return &Client{
		http:         &http.Client{Timeout: timeout},
		base:         base,
		apiKey:       cfg.APIKey,
		coinID:       cfg.CoinID,
		vs:           NormalizeVsCurrency(cfg.VsCurrency),
		priceLimiter: rate.NewLimiter(priceRatePerSec, 2),
		chartLimiter: rate.NewLimiter(chartRatePerSec, 1),
		retry:        retry,
		log:          log,
	}
}

// getJSON hace un GET con rate limiting y la política de reintentos del cliente.
func (c *Client) getJSON(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, c.retry.wait(attempt-1)); err != nil {
				return err
			}
		}
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set(proKeyHeader, c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.log.Warn("coingecko request failed", "attempt", attempt, "err", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			c.log.Warn("coingecko retryable status", "status", resp.StatusCode, "attempt", attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return &statusError{code: resp.StatusCode, body: string(body)}
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

// sleepCtx espera d respetando la cancelación del contexto.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

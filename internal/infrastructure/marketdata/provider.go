package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"alert-relay/internal/domain/marketdata"
)

const (
	defaultPrimaryBase  = "https://www.alphavantage.co"
	defaultFallbackBase = "https://query1.finance.yahoo.com"

	// Yahoo rejects requests without a browser-looking agent.
	fallbackUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Provider fetches spot prices from Alpha Vantage, falling back to the Yahoo
// chart endpoint when the primary returns nothing usable (rate limits show up
// as empty quote objects, not HTTP errors).
type Provider struct {
	apiKey       string
	primaryBase  string
	fallbackBase string
	httpClient   *http.Client
}

func NewProvider(apiKey string, timeout time.Duration) *Provider {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Provider{
		apiKey:       apiKey,
		primaryBase:  defaultPrimaryBase,
		fallbackBase: defaultFallbackBase,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// GetPrice returns the latest quote for symbol, trying the primary source
// first. When both sources fail the error wraps marketdata.ErrUnavailable so
// callers can skip the cycle without treating it as a fault.
func (p *Provider) GetPrice(ctx context.Context, symbol string) (marketdata.Quote, error) {
	price, primaryErr := p.fetchAlphaVantage(ctx, symbol)
	if primaryErr == nil {
		return marketdata.Quote{Symbol: symbol, Price: price, ObservedAt: time.Now()}, nil
	}
	log.WithFields(log.Fields{"symbol": symbol, "error": primaryErr}).
		Debug("primary price source failed, trying fallback")

	price, fallbackErr := p.fetchYahoo(ctx, symbol)
	if fallbackErr == nil {
		return marketdata.Quote{Symbol: symbol, Price: price, ObservedAt: time.Now()}, nil
	}

	return marketdata.Quote{}, fmt.Errorf("%w: primary: %v, fallback: %v",
		marketdata.ErrUnavailable, primaryErr, fallbackErr)
}

func (p *Provider) fetchAlphaVantage(ctx context.Context, symbol string) (float64, error) {
	if p.apiKey == "" {
		return 0, fmt.Errorf("no api key configured")
	}

	url := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		p.primaryBase, symbol, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}

	raw, ok := body.GlobalQuote["05. price"]
	if !ok || raw == "" {
		return 0, fmt.Errorf("quote missing price field for %s", symbol)
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable price %q: %w", raw, err)
	}
	return price, nil
}

func (p *Provider) fetchYahoo(ctx context.Context, symbol string) (float64, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s", p.fallbackBase, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", fallbackUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Chart struct {
			Result []struct {
				Meta struct {
					RegularMarketPrice *float64 `json:"regularMarketPrice"`
				} `json:"meta"`
			} `json:"result"`
		} `json:"chart"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}

	if len(body.Chart.Result) == 0 || body.Chart.Result[0].Meta.RegularMarketPrice == nil {
		return 0, fmt.Errorf("chart response missing price for %s", symbol)
	}
	return *body.Chart.Result[0].Meta.RegularMarketPrice, nil
}

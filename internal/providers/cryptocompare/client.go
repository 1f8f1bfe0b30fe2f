// Package cryptocompare fetches hourly USD candles and derives the spot
// price, 24h change, and sparkline served by price lookups.
package cryptocompare

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/httpx"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
)

const defaultBaseURL = "https://min-api.cryptocompare.com"

type Client struct {
	http    *httpx.Client
	baseURL string
	apiKey  string
	now     func() time.Time
}

func New(httpClient *httpx.Client, apiKey string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: defaultBaseURL,
		apiKey:  strings.TrimSpace(apiKey),
		now:     time.Now,
	}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:          "cryptocompare",
		Type:          "price",
		RequiresKey:   false,
		KeyEnvVarName: "BLOCKTALK_CRYPTOCOMPARE_API_KEY",
		Capabilities: []string{
			"price.histohour",
		},
	}
}

type histoResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     struct {
		Data []struct {
			Time  int64   `json:"time"`
			Close float64 `json:"close"`
		} `json:"Data"`
	} `json:"Data"`
}

func (c *Client) Price(ctx context.Context, symbol string) (model.PriceData, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return model.PriceData{}, clierr.New(clierr.CodeUsage, "token symbol is required")
	}

	vals := url.Values{}
	vals.Set("fsym", symbol)
	vals.Set("tsym", "USD")
	vals.Set("limit", "24")

	endpoint := fmt.Sprintf("%s/data/v2/histohour?%s", strings.TrimRight(c.baseURL, "/"), vals.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.PriceData{}, clierr.Wrap(clierr.CodeInternal, "build price request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Apikey "+c.apiKey)
	}

	var resp histoResponse
	if _, err := c.http.DoJSON(ctx, req, &resp); err != nil {
		return model.PriceData{}, err
	}
	if strings.EqualFold(resp.Response, "Error") {
		return model.PriceData{}, clierr.New(clierr.CodePriceUnavailable, fmt.Sprintf("price data unavailable for %s: %s", symbol, resp.Message))
	}
	candles := resp.Data.Data
	if len(candles) == 0 {
		return model.PriceData{}, clierr.New(clierr.CodePriceUnavailable, fmt.Sprintf("no price data for %s", symbol))
	}

	sparkline := make([]float64, 0, len(candles))
	for _, candle := range candles {
		sparkline = append(sparkline, candle.Close)
	}
	first := candles[0].Close
	last := candles[len(candles)-1].Close
	change := 0.0
	if first > 0 {
		change = (last - first) / first * 100
	}

	return model.PriceData{
		Symbol:       symbol,
		PriceUSD:     last,
		Change24hPct: change,
		Sparkline:    sparkline,
		LastUpdated:  c.now().UTC().Format(time.RFC3339),
	}, nil
}

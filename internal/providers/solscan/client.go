// Package solscan looks up token display metadata. Failures here degrade to
// "Unknown" rather than failing a portfolio listing.
package solscan

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/httpx"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
)

const defaultBaseURL = "https://public-api.solscan.io"

type Client struct {
	http    *httpx.Client
	baseURL string
}

func New(httpClient *httpx.Client) *Client {
	return &Client{
		http:    httpClient,
		baseURL: defaultBaseURL,
	}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:        "solscan",
		Type:        "token-metadata",
		RequiresKey: false,
		Capabilities: []string{
			"token.meta",
		},
	}
}

type metaResponse struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

func (c *Client) TokenSymbol(ctx context.Context, mint string) (string, error) {
	mint = strings.TrimSpace(mint)
	if mint == "" {
		return "", clierr.New(clierr.CodeUsage, "token mint is required")
	}

	vals := url.Values{}
	vals.Set("tokenAddress", mint)
	endpoint := fmt.Sprintf("%s/token/meta?%s", strings.TrimRight(c.baseURL, "/"), vals.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeInternal, "build token meta request", err)
	}

	var resp metaResponse
	if _, err := c.http.DoJSON(ctx, req, &resp); err != nil {
		return "", err
	}
	symbol := strings.TrimSpace(resp.Symbol)
	if symbol == "" {
		symbol = strings.TrimSpace(resp.Name)
	}
	if symbol == "" {
		return "", clierr.New(clierr.CodeTokenNotFound, fmt.Sprintf("no metadata for mint %s", mint))
	}
	return symbol, nil
}

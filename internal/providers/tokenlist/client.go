// Package tokenlist resolves token symbols to mint addresses using the
// community-maintained Solana token list.
package tokenlist

import (
	"context"
	"net/http"
	"strings"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/httpx"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
	"github.com/Divyanshu11011/BlockTalk/internal/registry"
)

const defaultListURL = "https://cdn.jsdelivr.net/gh/solana-labs/token-list@main/src/tokens/solana.tokenlist.json"

type Client struct {
	http    *httpx.Client
	listURL string
}

func New(httpClient *httpx.Client) *Client {
	return &Client{
		http:    httpClient,
		listURL: defaultListURL,
	}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:        "solana-token-list",
		Type:        "token-directory",
		RequiresKey: false,
		Capabilities: []string{
			"token.resolve",
		},
	}
}

type listResponse struct {
	Tokens []struct {
		ChainID int    `json:"chainId"`
		Symbol  string `json:"symbol"`
		Address string `json:"address"`
	} `json:"tokens"`
}

// Tokens returns an upper-case symbol to mint mapping for one cluster.
// Duplicate symbols keep the first occurrence, matching list ordering.
func (c *Client) Tokens(ctx context.Context, network registry.Network) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listURL, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "build token list request", err)
	}

	var resp listResponse
	if _, err := c.http.DoJSON(ctx, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Tokens) == 0 {
		return nil, clierr.New(clierr.CodeUnavailable, "token list is empty")
	}

	chainID := registry.TokenListChainID(network)
	out := make(map[string]string)
	for _, token := range resp.Tokens {
		if token.ChainID != chainID {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(token.Symbol))
		if symbol == "" || token.Address == "" {
			continue
		}
		if _, exists := out[symbol]; exists {
			continue
		}
		out[symbol] = token.Address
	}
	return out, nil
}

package jupiter

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/httpx"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
	"github.com/Divyanshu11011/BlockTalk/internal/providers"
	"github.com/Divyanshu11011/BlockTalk/internal/registry"
)

const (
	defaultLiteBase = "https://lite-api.jup.ag/swap/v1"
	defaultProBase  = "https://api.jup.ag/swap/v1"
)

type Client struct {
	http    *httpx.Client
	baseURL string
	apiKey  string
	now     func() time.Time
}

func New(httpClient *httpx.Client, apiKey string) *Client {
	apiKey = strings.TrimSpace(apiKey)
	baseURL := defaultLiteBase
	if apiKey != "" {
		baseURL = defaultProBase
	}
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  apiKey,
		now:     time.Now,
	}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:          "jupiter",
		Type:          "swap",
		RequiresKey:   false,
		KeyEnvVarName: "BLOCKTALK_JUPITER_API_KEY",
		Capabilities: []string{
			"swap.quote",
		},
	}
}

type quoteResponse struct {
	OutAmount      string `json:"outAmount"`
	PriceImpactPct string `json:"priceImpactPct"`
	RoutePlan      []struct {
		SwapInfo struct {
			Label string `json:"label"`
		} `json:"swapInfo"`
	} `json:"routePlan"`
}

func (c *Client) QuoteSwap(ctx context.Context, req providers.SwapQuoteRequest) (model.SwapQuote, error) {
	if req.Network != registry.NetworkMainnet {
		return model.SwapQuote{}, clierr.New(clierr.CodeUnsupported, "swap quotes are available on mainnet only")
	}

	vals := url.Values{}
	vals.Set("inputMint", req.FromMint)
	vals.Set("outputMint", req.ToMint)
	vals.Set("amount", req.AmountBaseUnits)
	vals.Set("slippageBps", "50")

	endpoint := fmt.Sprintf("%s/quote?%s", strings.TrimRight(c.baseURL, "/"), vals.Encode())
	hReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.SwapQuote{}, clierr.Wrap(clierr.CodeInternal, "build jupiter quote request", err)
	}
	if c.apiKey != "" {
		hReq.Header.Set("x-api-key", c.apiKey)
	}

	var resp quoteResponse
	if _, err := c.http.DoJSON(ctx, hReq, &resp); err != nil {
		return model.SwapQuote{}, err
	}
	if strings.TrimSpace(resp.OutAmount) == "" {
		return model.SwapQuote{}, clierr.New(clierr.CodeUnavailable, "jupiter quote missing output amount")
	}

	return model.SwapQuote{
		Provider:       "jupiter",
		Network:        req.Network.String(),
		FromSymbol:     req.FromSymbol,
		ToSymbol:       req.ToSymbol,
		FromMint:       req.FromMint,
		ToMint:         req.ToMint,
		InAmount:       req.AmountDecimal,
		OutAmount:      decimalFromBaseUnits(resp.OutAmount, req.ToDecimals),
		OutBaseUnits:   resp.OutAmount,
		PriceImpactPct: parsePriceImpactPct(resp.PriceImpactPct),
		Route:          routeFromPlan(resp.RoutePlan),
		NeedsApproval:  true,
		FetchedAt:      c.now().UTC().Format(time.RFC3339),
	}, nil
}

func decimalFromBaseUnits(raw string, decimals int) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v / math.Pow10(decimals)
}

func parsePriceImpactPct(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	if f < 0 {
		return 0
	}
	return f
}

func routeFromPlan(plan []struct {
	SwapInfo struct {
		Label string `json:"label"`
	} `json:"swapInfo"`
}) string {
	if len(plan) == 0 {
		return "jupiter"
	}

	parts := make([]string, 0, len(plan))
	for _, hop := range plan {
		label := strings.TrimSpace(hop.SwapInfo.Label)
		if label == "" {
			continue
		}
		if len(parts) == 0 || parts[len(parts)-1] != label {
			parts = append(parts, label)
		}
	}
	if len(parts) == 0 {
		return "jupiter"
	}
	return strings.Join(parts, " > ")
}

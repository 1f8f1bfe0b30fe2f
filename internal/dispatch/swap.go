package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
	"github.com/Divyanshu11011/BlockTalk/internal/providers"
	"github.com/Divyanshu11011/BlockTalk/internal/registry"
)

func (d *Dispatcher) swap(ctx context.Context, record intent.ActionRecord, rctx intent.Context) Result {
	from := strings.ToUpper(record.FromToken())
	to := strings.ToUpper(record.ToToken())
	amount := record.Amount()
	if from == "" || to == "" || amount <= 0 {
		return failure(record.Kind, rctx.Network,
			clierr.New(clierr.CodeUsage, "Insufficient parameters for SWAP_TOKENS. A from token, a to token, and a positive amount are required."))
	}
	if d.swaps == nil {
		return failure(record.Kind, rctx.Network,
			clierr.New(clierr.CodeUnsupported, "no swap provider configured"))
	}

	fromMint, err := d.resolveMint(ctx, rctx.Network, from)
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}
	toMint, err := d.resolveMint(ctx, rctx.Network, to)
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}

	fromDecimals := tokenDecimals(from)
	quote, err := d.swaps.QuoteSwap(ctx, providers.SwapQuoteRequest{
		Network:         rctx.Network,
		FromSymbol:      from,
		ToSymbol:        to,
		FromMint:        fromMint,
		ToMint:          toMint,
		AmountDecimal:   amount,
		AmountBaseUnits: baseUnits(amount, fromDecimals),
		FromDecimals:    fromDecimals,
		ToDecimals:      tokenDecimals(to),
	})
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}
	return Result{Kind: record.Kind, Network: rctx.Network, Quote: &quote}
}

// resolveMint looks a symbol up in the community token list, falling back
// to the seed table when the list is unreachable or does not carry it.
func (d *Dispatcher) resolveMint(ctx context.Context, network registry.Network, symbol string) (string, error) {
	if d.tokens != nil {
		directory, err := d.tokenDirectory(ctx, network)
		if err == nil {
			if mint, ok := directory[symbol]; ok {
				return mint, nil
			}
		} else {
			d.log.Debug("token list unavailable",
				zap.String("network", network.String()), zap.Error(err))
		}
	}
	if mint, ok := registry.KnownMint(network, symbol); ok {
		return mint, nil
	}
	return "", clierr.New(clierr.CodeTokenNotFound, fmt.Sprintf("Token %s not found for network %s.", symbol, network))
}

// tokenDirectory fetches the symbol-to-mint map, served from cache within
// its TTL. Expired entries are refetched, never reused.
func (d *Dispatcher) tokenDirectory(ctx context.Context, network registry.Network) (map[string]string, error) {
	key := "tokenList_" + network.String()
	if res, err := d.store.Get(key); err == nil && res.Hit && !res.Stale {
		var directory map[string]string
		if err := json.Unmarshal(res.Value, &directory); err == nil {
			return directory, nil
		}
	}

	directory, err := d.tokens.Tokens(ctx, network)
	if err != nil {
		return nil, err
	}
	if buf, err := json.Marshal(directory); err == nil {
		_ = d.store.Set(key, buf, d.tokenListTTL)
	}
	return directory, nil
}

// tokenDecimals returns base-unit precision for the common pairs. The token
// list does not travel with decimals here, so anything unrecognized is
// assumed to use the native 9.
func tokenDecimals(symbol string) int {
	switch symbol {
	case "USDC", "USDT":
		return 6
	default:
		return 9
	}
}

func baseUnits(amount float64, decimals int) string {
	units := uint64(amount*math.Pow10(decimals) + 0.5)
	return strconv.FormatUint(units, 10)
}

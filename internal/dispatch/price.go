package dispatch

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
)

func (d *Dispatcher) price(ctx context.Context, record intent.ActionRecord, rctx intent.Context) Result {
	symbol := strings.ToUpper(record.Symbol())
	if symbol == "" {
		symbol = "SOL"
	}
	if d.prices == nil {
		return failure(record.Kind, rctx.Network,
			clierr.New(clierr.CodePriceUnavailable, "no price provider configured"))
	}

	key := "price_" + strings.ToLower(symbol)
	if res, err := d.store.Get(key); err == nil && res.Hit && !res.Stale {
		var data model.PriceData
		if err := json.Unmarshal(res.Value, &data); err == nil {
			d.log.Debug("price served from cache",
				zap.String("symbol", symbol), zap.Duration("age", res.Age))
			return Result{Kind: record.Kind, Network: rctx.Network, Price: &data}
		}
	}

	data, err := d.prices.Price(ctx, symbol)
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}
	if buf, err := json.Marshal(data); err == nil {
		_ = d.store.Set(key, buf, d.priceTTL)
	}
	return Result{Kind: record.Kind, Network: rctx.Network, Price: &data}
}

package dispatch

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Divyanshu11011/BlockTalk/internal/id"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
)

func (d *Dispatcher) allBalances(ctx context.Context, record intent.ActionRecord, rctx intent.Context) Result {
	address, err := id.ParseAddress(rctx.Address)
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}
	client, cerr := d.ledger(rctx.Network)
	if cerr != nil {
		return failure(record.Kind, rctx.Network, cerr)
	}

	lamports, err := client.BalanceLamports(ctx, address)
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}
	tokens, err := client.TokenAccounts(ctx, address)
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}

	// Metadata lookups are best effort: a mint the indexer does not know
	// stays labeled Unknown instead of sinking the whole listing.
	if d.meta != nil {
		var group errgroup.Group
		group.SetLimit(summaryFanOut)
		for i := range tokens {
			if tokens[i].Symbol != "" {
				continue
			}
			group.Go(func() error {
				symbol, err := d.meta.TokenSymbol(ctx, tokens[i].Mint)
				if err != nil || symbol == "" {
					d.log.Debug("token metadata unavailable",
						zap.String("mint", tokens[i].Mint), zap.Error(err))
					symbol = "Unknown"
				}
				tokens[i].Symbol = symbol
				return nil
			})
		}
		_ = group.Wait()
	} else {
		for i := range tokens {
			if tokens[i].Symbol == "" {
				tokens[i].Symbol = "Unknown"
			}
		}
	}

	return Result{
		Kind:    record.Kind,
		Network: rctx.Network,
		Balances: &model.BalanceList{
			Network: rctx.Network.String(),
			Address: address,
			SOL:     id.LamportsToSOL(lamports),
			Tokens:  tokens,
		},
	}
}

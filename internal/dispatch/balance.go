package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/Divyanshu11011/BlockTalk/internal/id"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
)

func (d *Dispatcher) balance(ctx context.Context, record intent.ActionRecord, rctx intent.Context) Result {
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
	d.log.Debug("balance fetched",
		zap.String("network", rctx.Network.String()),
		zap.Uint64("lamports", lamports))

	return Result{
		Kind:    record.Kind,
		Network: rctx.Network,
		Balance: &model.Balance{
			Network:  rctx.Network.String(),
			Address:  address,
			Lamports: lamports,
			SOL:      id.LamportsToSOL(lamports),
		},
	}
}

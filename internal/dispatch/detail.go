package dispatch

import (
	"context"

	"github.com/Divyanshu11011/BlockTalk/internal/id"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
)

func (d *Dispatcher) transactionInfo(ctx context.Context, record intent.ActionRecord, rctx intent.Context) Result {
	signature, err := id.ParseSignature(record.TxHash())
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}
	client, cerr := d.ledger(rctx.Network)
	if cerr != nil {
		return failure(record.Kind, rctx.Network, cerr)
	}

	detail, err := client.TransactionDetail(ctx, signature)
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}
	return Result{Kind: record.Kind, Network: rctx.Network, Detail: &detail}
}

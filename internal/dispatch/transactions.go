package dispatch

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Divyanshu11011/BlockTalk/internal/id"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
)

// summaryFanOut bounds concurrent per-signature lookups against the RPC
// endpoint so bursty histories do not trip public rate limits.
const summaryFanOut = 8

func (d *Dispatcher) transactions(ctx context.Context, record intent.ActionRecord, rctx intent.Context) Result {
	address, err := id.ParseAddress(rctx.Address)
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}
	client, cerr := d.ledger(rctx.Network)
	if cerr != nil {
		return failure(record.Kind, rctx.Network, cerr)
	}

	count := record.Count()
	signatures, err := client.Signatures(ctx, address, count)
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}

	list := &model.TransactionList{
		Network: rctx.Network.String(),
		Address: address,
	}
	if len(signatures) == 0 {
		list.Empty = true
		return Result{Kind: record.Kind, Network: rctx.Network, Transactions: list}
	}

	// Fetch summaries concurrently but keep signature order. A failed
	// lookup yields a placeholder record rather than failing the batch.
	records := make([]model.TransactionRecord, len(signatures))
	var group errgroup.Group
	group.SetLimit(summaryFanOut)
	for i, sig := range signatures {
		group.Go(func() error {
			rec, err := client.TransactionSummary(ctx, sig)
			if err != nil {
				d.log.Debug("transaction summary unavailable",
					zap.String("signature", sig), zap.Error(err))
				rec = model.TransactionRecord{
					Signature: sig,
					Time:      "Unknown",
					Status:    "Unknown",
					Type:      "Unknown",
					Sender:    "Unknown",
					Receiver:  "Unknown",
				}
			}
			records[i] = rec
			return nil
		})
	}
	_ = group.Wait()

	list.Items = records
	return Result{Kind: record.Kind, Network: rctx.Network, Transactions: list}
}

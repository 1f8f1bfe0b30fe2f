package dispatch

import (
	"context"
	"fmt"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/id"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
)

// transfer builds an unsigned SOL transfer for the caller's wallet to sign.
// The sender balance is checked up front so signing a doomed transaction is
// never offered.
func (d *Dispatcher) transfer(ctx context.Context, record intent.ActionRecord, rctx intent.Context) Result {
	amount := record.Amount()
	recipientRaw := record.Recipient()
	if recipientRaw == "" || amount <= 0 {
		return failure(record.Kind, rctx.Network,
			clierr.New(clierr.CodeUsage, fmt.Sprintf("Insufficient parameters for %s. A recipient address and a positive amount are required.", record.Kind)))
	}

	sender, err := id.ParseAddress(rctx.Address)
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}
	recipient, err := id.ParseAddress(recipientRaw)
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}
	client, cerr := d.ledger(rctx.Network)
	if cerr != nil {
		return failure(record.Kind, rctx.Network, cerr)
	}

	lamports, err := client.BalanceLamports(ctx, sender)
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}
	balance := id.LamportsToSOL(lamports)
	if balance < amount {
		return failure(record.Kind, rctx.Network,
			clierr.New(clierr.CodeInsufficientBalance, fmt.Sprintf("Insufficient balance. Your current balance is %s SOL, which is less than the requested send amount of %g SOL.", id.FormatSOL(balance), amount)))
	}

	unsigned, err := client.BuildTransfer(ctx, sender, recipient, id.SOLToLamports(amount))
	if err != nil {
		return failure(record.Kind, rctx.Network, err)
	}

	return Result{
		Kind:    record.Kind,
		Network: rctx.Network,
		Transfer: &model.TransferPlan{
			Network:   rctx.Network.String(),
			Sender:    sender,
			Recipient: recipient,
			AmountSOL: amount,
			Unsigned:  &unsigned,
		},
	}
}

package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/id"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
	"github.com/Divyanshu11011/BlockTalk/internal/registry"
)

// airdrop targets the network named in the request, defaulting to devnet:
// faucets only exist on test clusters, so the mainnet default used by read
// actions would reject every unqualified "airdrop me some SOL".
func (d *Dispatcher) airdrop(ctx context.Context, record intent.ActionRecord, rctx intent.Context) Result {
	network := registry.NetworkDevnet
	if raw := record.NetworkParam(); raw != "" {
		parsed, ok := registry.ParseNetwork(raw)
		if !ok {
			return failure(record.Kind, rctx.Network,
				clierr.New(clierr.CodeInvalidNetwork, fmt.Sprintf("Invalid network specified: %s. Airdrops are available on devnet and testnet.", raw)))
		}
		network = parsed
	}

	limit, ok := registry.AirdropCapSOL(network)
	if !ok {
		return failure(record.Kind, network,
			clierr.New(clierr.CodeUnsupported, "Airdrop is not available on mainnet. Please use devnet or testnet for testing purposes."))
	}
	amount := record.AirdropAmount()
	if amount > limit {
		return failure(record.Kind, network,
			clierr.New(clierr.CodeAirdropLimit, fmt.Sprintf("Airdrop request rejected. The maximum allowed airdrop on %s is %g SOL. Please request %g SOL or less.", network, limit, limit)))
	}

	address, err := id.ParseAddress(rctx.Address)
	if err != nil {
		return failure(record.Kind, network, err)
	}
	client, cerr := d.ledger(network)
	if cerr != nil {
		return failure(record.Kind, network, cerr)
	}

	signature, err := client.RequestAirdrop(ctx, address, id.SOLToLamports(amount))
	if err != nil {
		return failure(record.Kind, network, err)
	}
	d.log.Info("airdrop requested",
		zap.String("network", network.String()),
		zap.Float64("amount_sol", amount),
		zap.String("signature", signature))

	confirmation := model.ConfirmationNotAwaited
	if d.confirmAirdrop {
		// The faucet already accepted the request; a failed or expired
		// wait downgrades the outcome instead of erasing it.
		confirmation = model.ConfirmationUnconfirmed
		confirmed, cerr := client.AwaitConfirmation(ctx, signature)
		if cerr != nil {
			d.log.Warn("airdrop confirmation wait failed",
				zap.String("signature", signature), zap.Error(cerr))
		} else if confirmed {
			confirmation = model.ConfirmationConfirmed
		}
	}

	return Result{
		Kind:    record.Kind,
		Network: network,
		Airdrop: &model.AirdropResult{
			Network:      network.String(),
			Address:      address,
			AmountSOL:    amount,
			Signature:    signature,
			Confirmation: confirmation,
		},
	}
}

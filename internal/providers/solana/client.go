// Package solanarpc wraps one cluster's JSON-RPC endpoint behind the
// ledger interface used by action dispatch.
package solanarpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/id"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
	"github.com/Divyanshu11011/BlockTalk/internal/registry"
)

type Client struct {
	rpc      *rpc.Client
	network  registry.Network
	endpoint string

	confirmWait time.Duration
}

func New(network registry.Network, endpoint string, confirmWait time.Duration) *Client {
	if confirmWait <= 0 {
		confirmWait = 20 * time.Second
	}
	return &Client{
		rpc:         rpc.New(endpoint),
		network:     network,
		endpoint:    endpoint,
		confirmWait: confirmWait,
	}
}

func (c *Client) Network() registry.Network { return c.network }

func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) BalanceLamports(ctx context.Context, address string) (uint64, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("invalid wallet address %q", address), err)
	}
	res, err := c.rpc.GetBalance(ctx, pk, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, clierr.Wrap(clierr.CodeUnavailable, fmt.Sprintf("fetch balance on %s", c.network), err)
	}
	return res.Value, nil
}

func (c *Client) Signatures(ctx context.Context, address string, limit int) ([]string, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("invalid wallet address %q", address), err)
	}
	if limit <= 0 {
		limit = 10
	}
	sigs, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, pk, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, fmt.Sprintf("fetch signatures on %s", c.network), err)
	}
	out := make([]string, 0, len(sigs))
	for _, sig := range sigs {
		out = append(out, sig.Signature.String())
	}
	return out, nil
}

func (c *Client) getTransaction(ctx context.Context, signature string) (*rpc.GetTransactionResult, solana.Signature, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, solana.Signature{}, clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("invalid transaction hash %q", signature), err)
	}
	maxVersion := uint64(0)
	res, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, sig, clierr.Wrap(clierr.CodeUnavailable, fmt.Sprintf("fetch transaction on %s", c.network), err)
	}
	if res == nil {
		return nil, sig, clierr.New(clierr.CodeTransactionNotFound, fmt.Sprintf("transaction %s not found on %s", signature, c.network))
	}
	return res, sig, nil
}

// TransactionSummary builds the compact row used in history listings.
func (c *Client) TransactionSummary(ctx context.Context, signature string) (model.TransactionRecord, error) {
	res, sig, err := c.getTransaction(ctx, signature)
	if err != nil {
		return model.TransactionRecord{}, err
	}

	record := model.TransactionRecord{
		Signature: sig.String(),
		Slot:      res.Slot,
		Status:    statusFromMeta(res.Meta),
		Time:      formatBlockTime(res.BlockTime),
		Type:      "Unknown",
		Sender:    "Unknown",
		Receiver:  "Unknown",
	}
	if res.Meta != nil {
		record.FeeSOL = id.LamportsToSOL(res.Meta.Fee)
	}

	parsed, err := res.Transaction.GetTransaction()
	if err != nil || parsed == nil {
		return record, nil
	}
	keys := parsed.Message.AccountKeys
	if len(keys) > 0 {
		record.Sender = keys[0].String()
	}
	record.Type = transactionKind(parsed, keys)
	if res.Meta != nil && len(res.Meta.PreBalances) > 0 && len(res.Meta.PostBalances) > 0 {
		// Moved amount approximated by the fee payer's debit net of fees.
		delta := int64(res.Meta.PreBalances[0]) - int64(res.Meta.PostBalances[0]) - int64(res.Meta.Fee)
		if delta > 0 {
			record.AmountSOL = id.LamportsToSOL(uint64(delta))
		}
		record.Receiver = largestCreditAccount(keys, res.Meta)
	}
	return record, nil
}

func (c *Client) TransactionDetail(ctx context.Context, signature string) (model.TransactionDetail, error) {
	res, sig, err := c.getTransaction(ctx, signature)
	if err != nil {
		return model.TransactionDetail{}, err
	}

	detail := model.TransactionDetail{
		Network:   c.network.String(),
		Signature: sig.String(),
		Slot:      res.Slot,
		Time:      formatBlockTime(res.BlockTime),
		Status:    statusFromMeta(res.Meta),
	}
	if res.Meta != nil {
		detail.FeeSOL = id.LamportsToSOL(res.Meta.Fee)
		detail.Logs = res.Meta.LogMessages
	}

	parsed, err := res.Transaction.GetTransaction()
	if err != nil || parsed == nil {
		return detail, nil
	}

	msg := parsed.Message
	keys := msg.AccountKeys
	header := msg.Header
	for i, key := range keys {
		detail.Accounts = append(detail.Accounts, model.AccountMeta{
			Pubkey:   key.String(),
			Signer:   i < int(header.NumRequiredSignatures),
			Writable: accountIsWritable(i, len(keys), header),
		})
	}
	for _, inst := range msg.Instructions {
		detail.Instructions = append(detail.Instructions, programName(programKey(keys, inst.ProgramIDIndex)))
	}
	if res.Meta != nil {
		limit := len(keys)
		if len(res.Meta.PreBalances) < limit {
			limit = len(res.Meta.PreBalances)
		}
		if len(res.Meta.PostBalances) < limit {
			limit = len(res.Meta.PostBalances)
		}
		for i := 0; i < limit; i++ {
			delta := int64(res.Meta.PostBalances[i]) - int64(res.Meta.PreBalances[i])
			if delta == 0 {
				continue
			}
			detail.BalanceChanges = append(detail.BalanceChanges, model.BalanceChange{
				Account:  keys[i].String(),
				DeltaSOL: id.LamportsToSOL(absLamports(delta)) * signOf(delta),
				PreSOL:   id.LamportsToSOL(res.Meta.PreBalances[i]),
				PostSOL:  id.LamportsToSOL(res.Meta.PostBalances[i]),
			})
		}
	}
	return detail, nil
}

type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			TokenAmount struct {
				UIAmount float64 `json:"uiAmount"`
				Decimals int     `json:"decimals"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

func (c *Client) TokenAccounts(ctx context.Context, address string) ([]model.TokenBalance, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("invalid wallet address %q", address), err)
	}
	res, err := c.rpc.GetTokenAccountsByOwner(ctx, pk,
		&rpc.GetTokenAccountsConfig{ProgramId: solana.TokenProgramID.ToPointer()},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingJSONParsed},
	)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, fmt.Sprintf("fetch token accounts on %s", c.network), err)
	}

	out := make([]model.TokenBalance, 0, len(res.Value))
	for _, acc := range res.Value {
		if acc == nil || acc.Account.Data == nil {
			continue
		}
		var parsed parsedTokenAccount
		if err := json.Unmarshal(acc.Account.Data.GetRawJSON(), &parsed); err != nil {
			continue
		}
		info := parsed.Parsed.Info
		if info.Mint == "" || info.TokenAmount.UIAmount <= 0 {
			continue
		}
		out = append(out, model.TokenBalance{
			Mint:     info.Mint,
			Amount:   info.TokenAmount.UIAmount,
			Decimals: info.TokenAmount.Decimals,
		})
	}
	return out, nil
}

func (c *Client) RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("invalid wallet address %q", address), err)
	}
	sig, err := c.rpc.RequestAirdrop(ctx, pk, lamports, rpc.CommitmentConfirmed)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUnavailable, fmt.Sprintf("request airdrop on %s", c.network), err)
	}
	return sig.String(), nil
}

// AwaitConfirmation polls signature status until the cluster reports the
// transaction confirmed or the wait budget runs out.
func (c *Client) AwaitConfirmation(ctx context.Context, signature string) (bool, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return false, clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("invalid transaction hash %q", signature), err)
	}

	deadline := time.Now().Add(c.confirmWait)
	for time.Now().Before(deadline) {
		res, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
		if err == nil && res != nil && len(res.Value) > 0 && res.Value[0] != nil {
			status := res.Value[0]
			if status.Err != nil {
				return false, clierr.New(clierr.CodeUnavailable, fmt.Sprintf("transaction %s failed on %s", signature, c.network))
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return true, nil
			}
		}
		select {
		case <-ctx.Done():
			return false, clierr.Wrap(clierr.CodeTimeout, "confirmation wait cancelled", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	return false, nil
}

// BuildTransfer assembles an unsigned system transfer against a fresh
// blockhash and serializes it for out-of-process signing.
func (c *Client) BuildTransfer(ctx context.Context, sender, recipient string, lamports uint64) (model.UnsignedTransaction, error) {
	from, err := solana.PublicKeyFromBase58(sender)
	if err != nil {
		return model.UnsignedTransaction{}, clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("invalid sender address %q", sender), err)
	}
	to, err := solana.PublicKeyFromBase58(recipient)
	if err != nil {
		return model.UnsignedTransaction{}, clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("invalid recipient address %q", recipient), err)
	}

	blockhash, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return model.UnsignedTransaction{}, clierr.Wrap(clierr.CodeUnavailable, fmt.Sprintf("fetch blockhash on %s", c.network), err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(lamports, from, to).Build(),
		},
		blockhash.Value.Blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return model.UnsignedTransaction{}, clierr.Wrap(clierr.CodeInternal, "build transfer transaction", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return model.UnsignedTransaction{}, clierr.Wrap(clierr.CodeInternal, "serialize transfer transaction", err)
	}

	return model.UnsignedTransaction{
		PayloadBase64: base64.StdEncoding.EncodeToString(raw),
		Network:       c.network.String(),
		Endpoint:      c.endpoint,
	}, nil
}

func statusFromMeta(meta *rpc.TransactionMeta) string {
	if meta == nil {
		return "Unknown"
	}
	if meta.Err != nil {
		return "Failed"
	}
	return "Success"
}

func formatBlockTime(bt *solana.UnixTimeSeconds) string {
	if bt == nil {
		return "Unknown"
	}
	return bt.Time().UTC().Format(time.RFC3339)
}

func programKey(keys []solana.PublicKey, index uint16) solana.PublicKey {
	if int(index) >= len(keys) {
		return solana.PublicKey{}
	}
	return keys[index]
}

var wellKnownPrograms = map[solana.PublicKey]string{
	solana.SystemProgramID: "System Transfer",
	solana.TokenProgramID:  "Token Instruction",
	solana.MustPublicKeyFromBase58("Vote111111111111111111111111111111111111111"):  "Vote",
	solana.MustPublicKeyFromBase58("Stake11111111111111111111111111111111111111"):  "Stake",
	solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111"):  "Compute Budget",
	solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"):  "Memo",
	solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"): "Associated Token",
}

func programName(key solana.PublicKey) string {
	if name, ok := wellKnownPrograms[key]; ok {
		return name
	}
	if key.IsZero() {
		return "Unknown"
	}
	return key.String()
}

func transactionKind(tx *solana.Transaction, keys []solana.PublicKey) string {
	if tx == nil || len(tx.Message.Instructions) == 0 {
		return "Unknown"
	}
	return programName(programKey(keys, tx.Message.Instructions[0].ProgramIDIndex))
}

func largestCreditAccount(keys []solana.PublicKey, meta *rpc.TransactionMeta) string {
	best := "Unknown"
	var bestDelta int64
	limit := len(keys)
	if len(meta.PreBalances) < limit {
		limit = len(meta.PreBalances)
	}
	if len(meta.PostBalances) < limit {
		limit = len(meta.PostBalances)
	}
	// The fee payer is a debit, so start from index 1.
	for i := 1; i < limit; i++ {
		delta := int64(meta.PostBalances[i]) - int64(meta.PreBalances[i])
		if delta > bestDelta {
			bestDelta = delta
			best = keys[i].String()
		}
	}
	return best
}

func accountIsWritable(index, total int, header solana.MessageHeader) bool {
	signed := int(header.NumRequiredSignatures)
	if index < signed {
		return index < signed-int(header.NumReadonlySignedAccounts)
	}
	return index < total-int(header.NumReadonlyUnsignedAccounts)
}

func absLamports(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

func signOf(v int64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

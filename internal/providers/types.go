package providers

import (
	"context"

	"github.com/Divyanshu11011/BlockTalk/internal/model"
	"github.com/Divyanshu11011/BlockTalk/internal/registry"
)

type Provider interface {
	Info() model.ProviderInfo
}

// CompletionProvider is a chat language model returning plain text for a
// prompt. Temperature follows the caller: low for structured extraction,
// higher for prose.
type CompletionProvider interface {
	Provider
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// LedgerClient talks to one Solana cluster. Implementations return model
// types so callers never see raw RPC shapes.
type LedgerClient interface {
	Network() registry.Network
	Endpoint() string

	BalanceLamports(ctx context.Context, address string) (uint64, error)
	Signatures(ctx context.Context, address string, limit int) ([]string, error)
	TransactionSummary(ctx context.Context, signature string) (model.TransactionRecord, error)
	TransactionDetail(ctx context.Context, signature string) (model.TransactionDetail, error)
	TokenAccounts(ctx context.Context, address string) ([]model.TokenBalance, error)
	RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error)
	AwaitConfirmation(ctx context.Context, signature string) (bool, error)
	BuildTransfer(ctx context.Context, sender, recipient string, lamports uint64) (model.UnsignedTransaction, error)
}

type PriceProvider interface {
	Provider
	Price(ctx context.Context, symbol string) (model.PriceData, error)
}

// TokenDirectory resolves upper-case symbols to mint addresses for one
// cluster.
type TokenDirectory interface {
	Provider
	Tokens(ctx context.Context, network registry.Network) (map[string]string, error)
}

// TokenMetadataProvider looks up display metadata for a mint.
type TokenMetadataProvider interface {
	Provider
	TokenSymbol(ctx context.Context, mint string) (string, error)
}

type SwapQuoteRequest struct {
	Network         registry.Network
	FromSymbol      string
	ToSymbol        string
	FromMint        string
	ToMint          string
	AmountDecimal   float64
	AmountBaseUnits string
	FromDecimals    int
	ToDecimals      int
}

type SwapProvider interface {
	Provider
	QuoteSwap(ctx context.Context, req SwapQuoteRequest) (model.SwapQuote, error)
}

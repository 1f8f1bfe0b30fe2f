// Package dispatch executes classified actions against ledger, price, and
// swap providers. Failures never cross the dispatch boundary as panics or
// returned errors: every outcome is a Result, with Err set for failures so
// the synthesizer can phrase them for the user.
package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Divyanshu11011/BlockTalk/internal/cache"
	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
	"github.com/Divyanshu11011/BlockTalk/internal/providers"
	"github.com/Divyanshu11011/BlockTalk/internal/registry"
)

const unknownRequestReply = "I'm sorry, I couldn't understand your request. Could you please rephrase it?"

// Result is the tagged outcome of one dispatched action. Exactly one
// payload field (or Message, or Err) is populated per kind.
type Result struct {
	Kind    intent.ActionKind
	Network registry.Network

	Message      string
	Balance      *model.Balance
	Transactions *model.TransactionList
	Detail       *model.TransactionDetail
	Balances     *model.BalanceList
	Airdrop      *model.AirdropResult
	Transfer     *model.TransferPlan
	Quote        *model.SwapQuote
	Price        *model.PriceData

	Err *clierr.Error
}

func (r Result) Failed() bool { return r.Err != nil }

type Dispatcher struct {
	ledgers map[registry.Network]providers.LedgerClient
	prices  providers.PriceProvider
	tokens  providers.TokenDirectory
	meta    providers.TokenMetadataProvider
	swaps   providers.SwapProvider

	store          *cache.Store
	priceTTL       time.Duration
	tokenListTTL   time.Duration
	confirmAirdrop bool

	log *zap.Logger
	now func() time.Time
}

type Options struct {
	Ledgers map[registry.Network]providers.LedgerClient
	Prices  providers.PriceProvider
	Tokens  providers.TokenDirectory
	Meta    providers.TokenMetadataProvider
	Swaps   providers.SwapProvider

	Store          *cache.Store
	PriceTTL       time.Duration
	TokenListTTL   time.Duration
	ConfirmAirdrop bool

	Logger *zap.Logger
}

func New(opts Options) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	priceTTL := opts.PriceTTL
	if priceTTL <= 0 {
		priceTTL = time.Minute
	}
	tokenTTL := opts.TokenListTTL
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Dispatcher{
		ledgers:        opts.Ledgers,
		prices:         opts.Prices,
		tokens:         opts.Tokens,
		meta:           opts.Meta,
		swaps:          opts.Swaps,
		store:          opts.Store,
		priceTTL:       priceTTL,
		tokenListTTL:   tokenTTL,
		confirmAirdrop: opts.ConfirmAirdrop,
		log:            log,
		now:            time.Now,
	}
}

// Dispatch runs one action. The switch is exhaustive over the kind enum.
func (d *Dispatcher) Dispatch(ctx context.Context, record intent.ActionRecord, rctx intent.Context) Result {
	switch record.Kind {
	case intent.KindGetBalance, intent.KindGetTestnetBalance, intent.KindGetDevnetBalance:
		return d.balance(ctx, record, rctx)
	case intent.KindGetTransactions, intent.KindGenerateSummary:
		return d.transactions(ctx, record, rctx)
	case intent.KindGetAllBalances:
		return d.allBalances(ctx, record, rctx)
	case intent.KindGetTransactionInfo:
		return d.transactionInfo(ctx, record, rctx)
	case intent.KindRequestAirdrop:
		return d.airdrop(ctx, record, rctx)
	case intent.KindSendTransaction, intent.KindSendTestnetTransaction, intent.KindSendDevnetTransaction:
		return d.transfer(ctx, record, rctx)
	case intent.KindSwapTokens:
		return d.swap(ctx, record, rctx)
	case intent.KindGetCryptoPrice:
		return d.price(ctx, record, rctx)
	case intent.KindUnknown:
		return Result{Kind: record.Kind, Network: rctx.Network, Message: unknownRequestReply}
	default:
		return Result{Kind: record.Kind, Network: rctx.Network, Message: unknownRequestReply}
	}
}

func (d *Dispatcher) ledger(network registry.Network) (providers.LedgerClient, *clierr.Error) {
	client, ok := d.ledgers[network]
	if !ok || client == nil {
		return nil, clierr.New(clierr.CodeInvalidNetwork, "no ledger endpoint configured for network "+network.String())
	}
	return client, nil
}

// failure normalizes an arbitrary error into a Result with a coded Err.
func failure(kind intent.ActionKind, network registry.Network, err error) Result {
	coded, ok := clierr.As(err)
	if !ok {
		coded = clierr.Wrap(clierr.CodeInternal, "action failed", err)
	}
	return Result{Kind: kind, Network: network, Err: coded}
}

package dispatch

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Divyanshu11011/BlockTalk/internal/cache"
	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
	"github.com/Divyanshu11011/BlockTalk/internal/providers"
	"github.com/Divyanshu11011/BlockTalk/internal/registry"
)

const (
	testWallet    = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	testRecipient = "Vote111111111111111111111111111111111111111"
	testSig       = "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7"
)

type fakeLedger struct {
	network  registry.Network
	lamports uint64

	signatures  []string
	summaryErrs map[string]error
	detail      model.TransactionDetail
	detailErr   error
	tokens      []model.TokenBalance

	airdropSig   string
	airdropErr   error
	airdropCalls int
	confirmed    bool
	confirmErr   error
}

func (f *fakeLedger) Network() registry.Network { return f.network }
func (f *fakeLedger) Endpoint() string          { return "http://fake" }

func (f *fakeLedger) BalanceLamports(ctx context.Context, address string) (uint64, error) {
	return f.lamports, nil
}

func (f *fakeLedger) Signatures(ctx context.Context, address string, limit int) ([]string, error) {
	if limit < len(f.signatures) {
		return f.signatures[:limit], nil
	}
	return f.signatures, nil
}

func (f *fakeLedger) TransactionSummary(ctx context.Context, signature string) (model.TransactionRecord, error) {
	if err, ok := f.summaryErrs[signature]; ok {
		return model.TransactionRecord{}, err
	}
	return model.TransactionRecord{Signature: signature, Status: "Success", Type: "Transfer"}, nil
}

func (f *fakeLedger) TransactionDetail(ctx context.Context, signature string) (model.TransactionDetail, error) {
	if f.detailErr != nil {
		return model.TransactionDetail{}, f.detailErr
	}
	return f.detail, nil
}

func (f *fakeLedger) TokenAccounts(ctx context.Context, address string) ([]model.TokenBalance, error) {
	return f.tokens, nil
}

func (f *fakeLedger) RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error) {
	f.airdropCalls++
	if f.airdropErr != nil {
		return "", f.airdropErr
	}
	return f.airdropSig, nil
}

func (f *fakeLedger) AwaitConfirmation(ctx context.Context, signature string) (bool, error) {
	if f.confirmErr != nil {
		return false, f.confirmErr
	}
	return f.confirmed, nil
}

func (f *fakeLedger) BuildTransfer(ctx context.Context, sender, recipient string, lamports uint64) (model.UnsignedTransaction, error) {
	return model.UnsignedTransaction{
		PayloadBase64: "dGVzdA==",
		Network:       f.network.String(),
		Endpoint:      f.Endpoint(),
	}, nil
}

type fakePrices struct {
	data  model.PriceData
	err   error
	calls int
}

func (f *fakePrices) Info() model.ProviderInfo { return model.ProviderInfo{Name: "fake-prices"} }

func (f *fakePrices) Price(ctx context.Context, symbol string) (model.PriceData, error) {
	f.calls++
	if f.err != nil {
		return model.PriceData{}, f.err
	}
	return f.data, nil
}

type fakeDirectory struct {
	tokens map[string]string
	err    error
	calls  int
}

func (f *fakeDirectory) Info() model.ProviderInfo { return model.ProviderInfo{Name: "fake-tokens"} }

func (f *fakeDirectory) Tokens(ctx context.Context, network registry.Network) (map[string]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

type fakeMeta struct {
	symbols map[string]string
}

func (f *fakeMeta) Info() model.ProviderInfo { return model.ProviderInfo{Name: "fake-meta"} }

func (f *fakeMeta) TokenSymbol(ctx context.Context, mint string) (string, error) {
	if s, ok := f.symbols[mint]; ok {
		return s, nil
	}
	return "", clierr.New(clierr.CodeTokenNotFound, "no metadata")
}

type fakeSwaps struct {
	lastReq providers.SwapQuoteRequest
	quote   model.SwapQuote
	err     error
}

func (f *fakeSwaps) Info() model.ProviderInfo { return model.ProviderInfo{Name: "fake-swaps"} }

func (f *fakeSwaps) QuoteSwap(ctx context.Context, req providers.SwapQuoteRequest) (model.SwapQuote, error) {
	f.lastReq = req
	if f.err != nil {
		return model.SwapQuote{}, f.err
	}
	return f.quote, nil
}

func testStore(t *testing.T) *cache.Store {
	t.Helper()
	tmp := t.TempDir()
	store, err := cache.Open(filepath.Join(tmp, "cache.db"), filepath.Join(tmp, "cache.lock"))
	if err != nil {
		t.Fatalf("Open cache failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestDispatcher(opts Options) *Dispatcher {
	if opts.Ledgers == nil {
		opts.Ledgers = map[registry.Network]providers.LedgerClient{}
	}
	return New(opts)
}

func record(kind intent.ActionKind, params map[string]string) intent.ActionRecord {
	if params == nil {
		params = map[string]string{}
	}
	return intent.ActionRecord{Kind: kind, WalletType: intent.WalletMine, Params: params}
}

func mainnetCtx() intent.Context {
	return intent.Context{Address: testWallet, Network: registry.NetworkMainnet}
}

func TestDispatchBalance(t *testing.T) {
	ledger := &fakeLedger{network: registry.NetworkMainnet, lamports: 2_500_000_000}
	d := newTestDispatcher(Options{Ledgers: map[registry.Network]providers.LedgerClient{
		registry.NetworkMainnet: ledger,
	}})

	res := d.Dispatch(context.Background(), record(intent.KindGetBalance, nil), mainnetCtx())
	if res.Failed() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Balance == nil || res.Balance.SOL != 2.5 {
		t.Fatalf("expected 2.5 SOL, got %+v", res.Balance)
	}
}

func TestDispatchBalanceMissingNetwork(t *testing.T) {
	d := newTestDispatcher(Options{})
	res := d.Dispatch(context.Background(), record(intent.KindGetBalance, nil), mainnetCtx())
	if !res.Failed() || res.Err.Code != clierr.CodeInvalidNetwork {
		t.Fatalf("expected invalid network error, got %+v", res)
	}
}

func TestDispatchTransactionsEmpty(t *testing.T) {
	ledger := &fakeLedger{network: registry.NetworkMainnet}
	d := newTestDispatcher(Options{Ledgers: map[registry.Network]providers.LedgerClient{
		registry.NetworkMainnet: ledger,
	}})

	res := d.Dispatch(context.Background(), record(intent.KindGetTransactions, nil), mainnetCtx())
	if res.Failed() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Transactions == nil || !res.Transactions.Empty || len(res.Transactions.Items) != 0 {
		t.Fatalf("expected empty list, got %+v", res.Transactions)
	}
}

func TestDispatchTransactionsPlaceholderOnSummaryFailure(t *testing.T) {
	ledger := &fakeLedger{
		network:    registry.NetworkMainnet,
		signatures: []string{"sigA", "sigB", "sigC"},
		summaryErrs: map[string]error{
			"sigB": clierr.New(clierr.CodeUnavailable, "rpc hiccup"),
		},
	}
	d := newTestDispatcher(Options{Ledgers: map[registry.Network]providers.LedgerClient{
		registry.NetworkMainnet: ledger,
	}})

	res := d.Dispatch(context.Background(), record(intent.KindGetTransactions, map[string]string{"count": "3"}), mainnetCtx())
	if res.Failed() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	items := res.Transactions.Items
	if len(items) != 3 {
		t.Fatalf("expected 3 records, got %d", len(items))
	}
	if items[0].Signature != "sigA" || items[2].Signature != "sigC" {
		t.Fatalf("order not preserved: %+v", items)
	}
	if items[1].Status != "Unknown" || items[1].Sender != "Unknown" {
		t.Fatalf("expected placeholder for failed summary, got %+v", items[1])
	}
}

func TestDispatchAllBalancesMetadataDegrades(t *testing.T) {
	ledger := &fakeLedger{
		network:  registry.NetworkMainnet,
		lamports: 1_000_000_000,
		tokens: []model.TokenBalance{
			{Mint: "mintKnown", Amount: 5},
			{Mint: "mintMystery", Amount: 7},
		},
	}
	d := newTestDispatcher(Options{
		Ledgers: map[registry.Network]providers.LedgerClient{registry.NetworkMainnet: ledger},
		Meta:    &fakeMeta{symbols: map[string]string{"mintKnown": "USDC"}},
	})

	res := d.Dispatch(context.Background(), record(intent.KindGetAllBalances, nil), mainnetCtx())
	if res.Failed() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	tokens := res.Balances.Tokens
	if tokens[0].Symbol != "USDC" {
		t.Fatalf("expected resolved symbol, got %+v", tokens[0])
	}
	if tokens[1].Symbol != "Unknown" {
		t.Fatalf("expected Unknown for unresolved mint, got %+v", tokens[1])
	}
}

func TestDispatchAirdropMainnetRejectedWithoutRPC(t *testing.T) {
	ledger := &fakeLedger{network: registry.NetworkMainnet}
	d := newTestDispatcher(Options{Ledgers: map[registry.Network]providers.LedgerClient{
		registry.NetworkMainnet: ledger,
	}})

	res := d.Dispatch(context.Background(),
		record(intent.KindRequestAirdrop, map[string]string{"network": "mainnet"}), mainnetCtx())
	if !res.Failed() || res.Err.Code != clierr.CodeUnsupported {
		t.Fatalf("expected unsupported error, got %+v", res)
	}
	if !strings.Contains(res.Err.Message, "not available on mainnet") {
		t.Fatalf("unexpected message: %q", res.Err.Message)
	}
	if ledger.airdropCalls != 0 {
		t.Fatalf("airdrop RPC should not be called on mainnet")
	}
}

func TestDispatchAirdropCapExceeded(t *testing.T) {
	d := newTestDispatcher(Options{})
	res := d.Dispatch(context.Background(),
		record(intent.KindRequestAirdrop, map[string]string{"network": "devnet", "amount": "5"}), mainnetCtx())
	if !res.Failed() || res.Err.Code != clierr.CodeAirdropLimit {
		t.Fatalf("expected airdrop limit error, got %+v", res)
	}
	if !strings.Contains(res.Err.Message, "maximum allowed airdrop on devnet is 2 SOL") {
		t.Fatalf("unexpected message: %q", res.Err.Message)
	}
}

func TestDispatchAirdropDefaultsToDevnetOneSOL(t *testing.T) {
	ledger := &fakeLedger{network: registry.NetworkDevnet, airdropSig: testSig}
	d := newTestDispatcher(Options{Ledgers: map[registry.Network]providers.LedgerClient{
		registry.NetworkDevnet: ledger,
	}})

	res := d.Dispatch(context.Background(), record(intent.KindRequestAirdrop, nil), mainnetCtx())
	if res.Failed() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Network != registry.NetworkDevnet {
		t.Fatalf("expected devnet default, got %s", res.Network)
	}
	if res.Airdrop.AmountSOL != 1 || res.Airdrop.Signature != testSig {
		t.Fatalf("unexpected airdrop result: %+v", res.Airdrop)
	}
	if res.Airdrop.Confirmation != model.ConfirmationNotAwaited {
		t.Fatalf("confirmation must not run without the policy, got %q", res.Airdrop.Confirmation)
	}
}

func TestDispatchAirdropConfirmPolicy(t *testing.T) {
	ledger := &fakeLedger{network: registry.NetworkDevnet, airdropSig: testSig, confirmed: true}
	d := newTestDispatcher(Options{
		Ledgers:        map[registry.Network]providers.LedgerClient{registry.NetworkDevnet: ledger},
		ConfirmAirdrop: true,
	})

	res := d.Dispatch(context.Background(), record(intent.KindRequestAirdrop, nil), mainnetCtx())
	if res.Failed() || res.Airdrop.Confirmation != model.ConfirmationConfirmed {
		t.Fatalf("expected confirmed airdrop, got %+v", res)
	}
}

func TestDispatchAirdropUnconfirmedWhenWaitExpires(t *testing.T) {
	ledger := &fakeLedger{network: registry.NetworkDevnet, airdropSig: testSig, confirmed: false}
	d := newTestDispatcher(Options{
		Ledgers:        map[registry.Network]providers.LedgerClient{registry.NetworkDevnet: ledger},
		ConfirmAirdrop: true,
	})

	res := d.Dispatch(context.Background(), record(intent.KindRequestAirdrop, nil), mainnetCtx())
	if res.Failed() {
		t.Fatalf("expired wait must not fail the airdrop: %+v", res.Err)
	}
	if res.Airdrop.Confirmation != model.ConfirmationUnconfirmed {
		t.Fatalf("expected unconfirmed outcome, got %q", res.Airdrop.Confirmation)
	}
}

func TestDispatchAirdropConfirmErrorKeepsSignature(t *testing.T) {
	ledger := &fakeLedger{
		network:    registry.NetworkDevnet,
		airdropSig: testSig,
		confirmErr: clierr.New(clierr.CodeUnavailable, "rpc unavailable"),
	}
	d := newTestDispatcher(Options{
		Ledgers:        map[registry.Network]providers.LedgerClient{registry.NetworkDevnet: ledger},
		ConfirmAirdrop: true,
	})

	res := d.Dispatch(context.Background(), record(intent.KindRequestAirdrop, nil), mainnetCtx())
	if res.Failed() {
		t.Fatalf("a confirmation error after a sent airdrop must not fail the action: %+v", res.Err)
	}
	if res.Airdrop.Signature != testSig || res.Airdrop.Confirmation != model.ConfirmationUnconfirmed {
		t.Fatalf("unexpected airdrop result: %+v", res.Airdrop)
	}
}

func TestDispatchTransferInsufficientBalance(t *testing.T) {
	ledger := &fakeLedger{network: registry.NetworkMainnet, lamports: 1_000_000_000}
	d := newTestDispatcher(Options{Ledgers: map[registry.Network]providers.LedgerClient{
		registry.NetworkMainnet: ledger,
	}})

	res := d.Dispatch(context.Background(),
		record(intent.KindSendTransaction, map[string]string{"recipient": testRecipient, "amount": "2"}), mainnetCtx())
	if !res.Failed() || res.Err.Code != clierr.CodeInsufficientBalance {
		t.Fatalf("expected insufficient balance, got %+v", res)
	}
	if !strings.Contains(res.Err.Message, "1.000000 SOL") {
		t.Fatalf("balance should be shown with six decimals: %q", res.Err.Message)
	}
}

func TestDispatchTransferBuildsUnsignedPlan(t *testing.T) {
	ledger := &fakeLedger{network: registry.NetworkMainnet, lamports: 5_000_000_000}
	d := newTestDispatcher(Options{Ledgers: map[registry.Network]providers.LedgerClient{
		registry.NetworkMainnet: ledger,
	}})

	res := d.Dispatch(context.Background(),
		record(intent.KindSendTransaction, map[string]string{"recipient": testRecipient, "amount": "1.5"}), mainnetCtx())
	if res.Failed() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	plan := res.Transfer
	if plan == nil || plan.Unsigned == nil || plan.Unsigned.PayloadBase64 == "" {
		t.Fatalf("expected unsigned payload, got %+v", plan)
	}
	if plan.AmountSOL != 1.5 || plan.Recipient != testRecipient {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestDispatchTransferMissingParams(t *testing.T) {
	d := newTestDispatcher(Options{})
	res := d.Dispatch(context.Background(), record(intent.KindSendTransaction, nil), mainnetCtx())
	if !res.Failed() || res.Err.Code != clierr.CodeUsage {
		t.Fatalf("expected usage error, got %+v", res)
	}
}

func TestDispatchSwapResolvesMintsFromDirectory(t *testing.T) {
	directory := &fakeDirectory{tokens: map[string]string{
		"SOL":  "So11111111111111111111111111111111111111112",
		"BONK": "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
	}}
	swaps := &fakeSwaps{quote: model.SwapQuote{Provider: "jupiter", OutAmount: 123}}
	d := newTestDispatcher(Options{Tokens: directory, Swaps: swaps, Store: testStore(t)})

	res := d.Dispatch(context.Background(),
		record(intent.KindSwapTokens, map[string]string{"fromtoken": "sol", "totoken": "bonk", "amount": "2"}), mainnetCtx())
	if res.Failed() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Quote.OutAmount != 123 {
		t.Fatalf("unexpected quote: %+v", res.Quote)
	}
	req := swaps.lastReq
	if req.FromMint != "So11111111111111111111111111111111111111112" {
		t.Fatalf("from mint not resolved: %+v", req)
	}
	if req.AmountBaseUnits != "2000000000" {
		t.Fatalf("expected 9-decimal base units, got %q", req.AmountBaseUnits)
	}
}

func TestDispatchSwapFallsBackToSeedMints(t *testing.T) {
	directory := &fakeDirectory{err: clierr.New(clierr.CodeUnavailable, "cdn down")}
	swaps := &fakeSwaps{quote: model.SwapQuote{Provider: "jupiter"}}
	d := newTestDispatcher(Options{Tokens: directory, Swaps: swaps})

	res := d.Dispatch(context.Background(),
		record(intent.KindSwapTokens, map[string]string{"fromtoken": "SOL", "totoken": "USDC", "amount": "1"}), mainnetCtx())
	if res.Failed() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if swaps.lastReq.ToMint != "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v" {
		t.Fatalf("seed table fallback not used: %+v", swaps.lastReq)
	}
	if swaps.lastReq.ToDecimals != 6 {
		t.Fatalf("expected USDC decimals 6, got %d", swaps.lastReq.ToDecimals)
	}
}

func TestDispatchSwapUnknownToken(t *testing.T) {
	d := newTestDispatcher(Options{Tokens: &fakeDirectory{tokens: map[string]string{}}, Swaps: &fakeSwaps{}})
	res := d.Dispatch(context.Background(),
		record(intent.KindSwapTokens, map[string]string{"fromtoken": "NOPE", "totoken": "SOL", "amount": "1"}), mainnetCtx())
	if !res.Failed() || res.Err.Code != clierr.CodeTokenNotFound {
		t.Fatalf("expected token not found, got %+v", res)
	}
}

func TestDispatchPriceUsesFreshCache(t *testing.T) {
	prices := &fakePrices{data: model.PriceData{Symbol: "SOL", PriceUSD: 150}}
	d := newTestDispatcher(Options{Prices: prices, Store: testStore(t), PriceTTL: time.Minute})

	first := d.Dispatch(context.Background(),
		record(intent.KindGetCryptoPrice, map[string]string{"symbol": "SOL"}), mainnetCtx())
	if first.Failed() || first.Price.PriceUSD != 150 {
		t.Fatalf("unexpected first result: %+v", first)
	}
	second := d.Dispatch(context.Background(),
		record(intent.KindGetCryptoPrice, map[string]string{"symbol": "sol"}), mainnetCtx())
	if second.Failed() || second.Price.PriceUSD != 150 {
		t.Fatalf("unexpected second result: %+v", second)
	}
	if prices.calls != 1 {
		t.Fatalf("expected single upstream call, got %d", prices.calls)
	}
}

func TestDispatchPriceRefetchesAfterTTL(t *testing.T) {
	prices := &fakePrices{data: model.PriceData{Symbol: "SOL", PriceUSD: 150}}
	d := newTestDispatcher(Options{Prices: prices, Store: testStore(t), PriceTTL: time.Second})

	first := d.Dispatch(context.Background(),
		record(intent.KindGetCryptoPrice, map[string]string{"symbol": "SOL"}), mainnetCtx())
	if first.Failed() {
		t.Fatalf("unexpected first result: %+v", first)
	}

	// Entry timestamps are stored at second granularity; 1.5s puts the
	// entry safely past its 1s TTL.
	time.Sleep(1500 * time.Millisecond)

	second := d.Dispatch(context.Background(),
		record(intent.KindGetCryptoPrice, map[string]string{"symbol": "SOL"}), mainnetCtx())
	if second.Failed() || second.Price.PriceUSD != 150 {
		t.Fatalf("unexpected second result: %+v", second)
	}
	if prices.calls != 2 {
		t.Fatalf("expired entry must trigger exactly one refetch, got %d calls", prices.calls)
	}
}

func TestDispatchPriceDefaultsToSOL(t *testing.T) {
	prices := &fakePrices{data: model.PriceData{Symbol: "SOL", PriceUSD: 150}}
	d := newTestDispatcher(Options{Prices: prices})

	res := d.Dispatch(context.Background(), record(intent.KindGetCryptoPrice, nil), mainnetCtx())
	if res.Failed() || res.Price.Symbol != "SOL" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestDispatchDetailNotFound(t *testing.T) {
	ledger := &fakeLedger{
		network:   registry.NetworkMainnet,
		detailErr: clierr.New(clierr.CodeTransactionNotFound, "transaction not found"),
	}
	d := newTestDispatcher(Options{Ledgers: map[registry.Network]providers.LedgerClient{
		registry.NetworkMainnet: ledger,
	}})

	res := d.Dispatch(context.Background(),
		record(intent.KindGetTransactionInfo, map[string]string{"txhash": testSig}), mainnetCtx())
	if !res.Failed() || res.Err.Code != clierr.CodeTransactionNotFound {
		t.Fatalf("expected not found, got %+v", res)
	}
}

func TestDispatchUnknownKind(t *testing.T) {
	d := newTestDispatcher(Options{})
	res := d.Dispatch(context.Background(), record(intent.KindUnknown, nil), mainnetCtx())
	if res.Failed() {
		t.Fatalf("unknown kind must not fail: %+v", res)
	}
	if res.Message != unknownRequestReply {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

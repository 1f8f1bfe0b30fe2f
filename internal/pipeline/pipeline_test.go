package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/Divyanshu11011/BlockTalk/internal/dispatch"
	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
	"github.com/Divyanshu11011/BlockTalk/internal/memory"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
	"github.com/Divyanshu11011/BlockTalk/internal/providers"
	"github.com/Divyanshu11011/BlockTalk/internal/registry"
	"github.com/Divyanshu11011/BlockTalk/internal/synth"
)

const testWallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

// scriptedCompleter replies in order: first the classification, then any
// narration or follow-up calls.
type scriptedCompleter struct {
	replies []string
	errs    []error
	calls   int
	prompts []string
}

func (f *scriptedCompleter) Info() model.ProviderInfo { return model.ProviderInfo{Name: "scripted"} }

func (f *scriptedCompleter) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", clierr.New(clierr.CodeUnavailable, "no scripted reply")
}

type stubLedger struct {
	lamports uint64
}

func (s *stubLedger) Network() registry.Network { return registry.NetworkMainnet }
func (s *stubLedger) Endpoint() string          { return "http://stub" }

func (s *stubLedger) BalanceLamports(ctx context.Context, address string) (uint64, error) {
	return s.lamports, nil
}

func (s *stubLedger) Signatures(ctx context.Context, address string, limit int) ([]string, error) {
	return nil, nil
}

func (s *stubLedger) TransactionSummary(ctx context.Context, signature string) (model.TransactionRecord, error) {
	return model.TransactionRecord{}, clierr.New(clierr.CodeUnavailable, "not scripted")
}

func (s *stubLedger) TransactionDetail(ctx context.Context, signature string) (model.TransactionDetail, error) {
	return model.TransactionDetail{}, clierr.New(clierr.CodeTransactionNotFound, "transaction not found")
}

func (s *stubLedger) TokenAccounts(ctx context.Context, address string) ([]model.TokenBalance, error) {
	return nil, nil
}

func (s *stubLedger) RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error) {
	return "airdropsig", nil
}

func (s *stubLedger) AwaitConfirmation(ctx context.Context, signature string) (bool, error) {
	return true, nil
}

func (s *stubLedger) BuildTransfer(ctx context.Context, sender, recipient string, lamports uint64) (model.UnsignedTransaction, error) {
	return model.UnsignedTransaction{PayloadBase64: "dGVzdA==", Network: "mainnet"}, nil
}

func newTestPipeline(llm providers.CompletionProvider) (*Pipeline, *memory.Log) {
	mem := memory.NewLog()
	classifier := intent.NewClassifier(llm, mem, 6, nil)
	dispatcher := dispatch.New(dispatch.Options{
		Ledgers: map[registry.Network]providers.LedgerClient{
			registry.NetworkMainnet: &stubLedger{lamports: 2_500_000_000},
		},
	})
	return New(classifier, dispatcher, synth.New(llm, nil), mem, nil), mem
}

func TestHandleBalanceRequest(t *testing.T) {
	llm := &scriptedCompleter{replies: []string{
		"Classification: GET_BALANCE\nwalletType: MY_WALLET",
		"Your wallet holds 2.5 SOL on mainnet.",
	}}
	p, mem := newTestPipeline(llm)

	res, err := p.Handle(context.Background(), "what's my balance", testWallet)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if res.Narrative != "Your wallet holds 2.5 SOL on mainnet." {
		t.Fatalf("unexpected narrative: %q", res.Narrative)
	}
	if res.Action != "GET_BALANCE" || res.Network != "mainnet" {
		t.Fatalf("unexpected action/network: %+v", res)
	}
	if mem.Len() != 1 {
		t.Fatalf("expected conversation logged, got %d entries", mem.Len())
	}
	entry, _ := mem.Last()
	if entry.Input != "what's my balance" || entry.Output != res.Narrative {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
}

func TestHandleClassificationFailureIsFatal(t *testing.T) {
	llm := &scriptedCompleter{errs: []error{clierr.New(clierr.CodeUnavailable, "model down")}}
	p, mem := newTestPipeline(llm)

	_, err := p.Handle(context.Background(), "anything", testWallet)
	if err == nil {
		t.Fatal("expected error")
	}
	coded, ok := clierr.As(err)
	if !ok || coded.Code != clierr.CodeClassification {
		t.Fatalf("expected classification error, got %v", err)
	}
	if mem.Len() != 0 {
		t.Fatalf("failed classification must not be logged")
	}
}

func TestHandleUnknownKind(t *testing.T) {
	llm := &scriptedCompleter{replies: []string{"Classification: UNKNOWN"}}
	p, _ := newTestPipeline(llm)

	res, err := p.Handle(context.Background(), "sing me a song", testWallet)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if res.Narrative != "I'm sorry, I couldn't understand your request. Could you please rephrase it?" {
		t.Fatalf("unexpected narrative: %q", res.Narrative)
	}
	if llm.calls != 1 {
		t.Fatalf("unknown kind must not call the model again, got %d calls", llm.calls)
	}
}

func TestHandleMissingWalletBecomesReply(t *testing.T) {
	llm := &scriptedCompleter{replies: []string{
		"Classification: GET_BALANCE\nwalletType: MY_WALLET",
	}}
	p, _ := newTestPipeline(llm)

	res, err := p.Handle(context.Background(), "what's my balance", "")
	if err != nil {
		t.Fatalf("resolution failures must become replies, got error: %v", err)
	}
	if !strings.Contains(res.Narrative, "wallet address is required") {
		t.Fatalf("unexpected narrative: %q", res.Narrative)
	}
}

func TestHandleTransferCarriesUnsignedTransaction(t *testing.T) {
	llm := &scriptedCompleter{replies: []string{
		"Classification: SEND_TRANSACTION\nwalletType: MY_WALLET\nrecipient: Vote111111111111111111111111111111111111111\namount: 1.5\nnetwork: mainnet",
		"Transaction ready to sign.",
	}}
	p, _ := newTestPipeline(llm)

	res, err := p.Handle(context.Background(), "send 1.5 sol", testWallet)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if res.UnsignedTransaction == nil || res.UnsignedTransaction.PayloadBase64 == "" {
		t.Fatalf("expected unsigned transaction, got %+v", res)
	}
}

func TestFollowUpsUsesConversationLog(t *testing.T) {
	llm := &scriptedCompleter{replies: []string{
		"Classification: GET_BALANCE\nwalletType: MY_WALLET",
		"Your wallet holds 2.5 SOL on mainnet.",
		"Check my SOL balance on devnet\nWhat is the current price of SOLANA",
	}}
	p, _ := newTestPipeline(llm)

	if _, err := p.Handle(context.Background(), "what's my balance", testWallet); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	followUps, err := p.FollowUps(context.Background(), "")
	if err != nil {
		t.Fatalf("FollowUps failed: %v", err)
	}
	if len(followUps.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %v", followUps.Suggestions)
	}
	if !strings.Contains(llm.prompts[2], "Your wallet holds 2.5 SOL on mainnet.") {
		t.Fatalf("follow-up prompt should embed the last reply")
	}
}

func TestFollowUpsWithoutHistory(t *testing.T) {
	llm := &scriptedCompleter{}
	p, _ := newTestPipeline(llm)

	followUps, err := p.FollowUps(context.Background(), "")
	if err != nil {
		t.Fatalf("FollowUps failed: %v", err)
	}
	if len(followUps.Suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %v", followUps.Suggestions)
	}
	if llm.calls != 0 {
		t.Fatalf("model must not be called without history")
	}
}

package model

import "time"

const EnvelopeVersion = "v1"

type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type EnvelopeMeta struct {
	RequestID string           `json:"request_id"`
	Timestamp time.Time        `json:"timestamp"`
	Command   string           `json:"command"`
	Providers []ProviderStatus `json:"providers,omitempty"`
	Cache     CacheStatus      `json:"cache"`
	Partial   bool             `json:"partial"`
}

type ProviderStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

type CacheStatus struct {
	Status string `json:"status"`
	AgeMS  int64  `json:"age_ms"`
	Stale  bool   `json:"stale"`
}

type ProviderInfo struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	RequiresKey   bool     `json:"requires_key"`
	Capabilities  []string `json:"capabilities"`
	KeyEnvVarName string   `json:"key_env_var,omitempty"`
}

// ChatResponse is the outward shape of one answered request: the narrative
// plus whatever structured payloads the action produced.
type ChatResponse struct {
	Narrative           string               `json:"narrative"`
	Action              string               `json:"action,omitempty"`
	Network             string               `json:"network,omitempty"`
	Price               *PriceData           `json:"price_data,omitempty"`
	Quote               *SwapQuote           `json:"quote_data,omitempty"`
	UnsignedTransaction *UnsignedTransaction `json:"unsigned_transaction,omitempty"`
}

type FollowUps struct {
	Suggestions []string `json:"suggestions"`
}

type Balance struct {
	Network  string  `json:"network"`
	Address  string  `json:"address"`
	Lamports uint64  `json:"lamports"`
	SOL      float64 `json:"sol"`
}

type TransactionRecord struct {
	Signature string  `json:"signature"`
	Time      string  `json:"time"`
	Slot      uint64  `json:"slot"`
	Status    string  `json:"status"`
	FeeSOL    float64 `json:"fee_sol"`
	AmountSOL float64 `json:"amount_sol"`
	Type      string  `json:"type"`
	Sender    string  `json:"sender"`
	Receiver  string  `json:"receiver"`
}

// TransactionList distinguishes "no transactions found" from a populated
// history so downstream rendering never conflates the two.
type TransactionList struct {
	Network string              `json:"network"`
	Address string              `json:"address"`
	Empty   bool                `json:"empty"`
	Items   []TransactionRecord `json:"items,omitempty"`
}

type AccountMeta struct {
	Pubkey   string `json:"pubkey"`
	Signer   bool   `json:"signer"`
	Writable bool   `json:"writable"`
}

type BalanceChange struct {
	Account  string  `json:"account"`
	DeltaSOL float64 `json:"delta_sol"`
	PreSOL   float64 `json:"pre_sol"`
	PostSOL  float64 `json:"post_sol"`
}

type TransactionDetail struct {
	Network        string          `json:"network"`
	Signature      string          `json:"signature"`
	Slot           uint64          `json:"slot"`
	Time           string          `json:"time"`
	Status         string          `json:"status"`
	FeeSOL         float64         `json:"fee_sol"`
	Instructions   []string        `json:"instructions"`
	Accounts       []AccountMeta   `json:"accounts"`
	BalanceChanges []BalanceChange `json:"balance_changes,omitempty"`
	Logs           []string        `json:"logs,omitempty"`
}

type TokenBalance struct {
	Symbol   string  `json:"symbol"`
	Mint     string  `json:"mint"`
	Amount   float64 `json:"amount"`
	Decimals int     `json:"decimals"`
}

type BalanceList struct {
	Network string         `json:"network"`
	Address string         `json:"address"`
	SOL     float64        `json:"sol"`
	Tokens  []TokenBalance `json:"tokens,omitempty"`
}

// Airdrop confirmation outcomes. NotAwaited means the confirmation policy
// was off and the signature was never polled; Unconfirmed means polling ran
// and the wait expired (or errored) before the cluster confirmed it.
const (
	ConfirmationNotAwaited  = "not_awaited"
	ConfirmationConfirmed   = "confirmed"
	ConfirmationUnconfirmed = "unconfirmed"
)

type AirdropResult struct {
	Network      string  `json:"network"`
	Address      string  `json:"address"`
	AmountSOL    float64 `json:"amount_sol"`
	Signature    string  `json:"signature"`
	Confirmation string  `json:"confirmation"`
}

// UnsignedTransaction carries a serialized, unsigned transaction for the
// caller's wallet to sign and submit. Keys never enter this process.
type UnsignedTransaction struct {
	PayloadBase64 string `json:"payload_base64"`
	Network       string `json:"network"`
	Endpoint      string `json:"endpoint"`
}

type TransferPlan struct {
	Network   string               `json:"network"`
	Sender    string               `json:"sender"`
	Recipient string               `json:"recipient"`
	AmountSOL float64              `json:"amount_sol"`
	Unsigned  *UnsignedTransaction `json:"unsigned_transaction"`
}

type SwapQuote struct {
	Provider       string  `json:"provider"`
	Network        string  `json:"network"`
	FromSymbol     string  `json:"from_symbol"`
	ToSymbol       string  `json:"to_symbol"`
	FromMint       string  `json:"from_mint"`
	ToMint         string  `json:"to_mint"`
	InAmount       float64 `json:"in_amount"`
	OutAmount      float64 `json:"out_amount"`
	OutBaseUnits   string  `json:"out_base_units"`
	PriceImpactPct float64 `json:"price_impact_pct"`
	Route          string  `json:"route"`
	NeedsApproval  bool    `json:"requires_confirmation"`
	FetchedAt      string  `json:"fetched_at"`
}

type PriceData struct {
	Symbol       string    `json:"symbol"`
	PriceUSD     float64   `json:"price_usd"`
	Change24hPct float64   `json:"change_24h_pct"`
	Sparkline    []float64 `json:"sparkline"`
	LastUpdated  string    `json:"last_updated"`
}

// Package intent turns free-form user text into a structured action via a
// language-model classifier and a tolerant line-oriented parser.
package intent

import (
	"strings"

	"github.com/Divyanshu11011/BlockTalk/internal/registry"
)

// ActionKind is the closed set of actions the classifier may emit.
type ActionKind string

const (
	KindGetBalance             ActionKind = "GET_BALANCE"
	KindGetTestnetBalance      ActionKind = "GET_TESTNET_BALANCE"
	KindGetDevnetBalance       ActionKind = "GET_DEVNET_BALANCE"
	KindGetTransactions        ActionKind = "GET_TRANSACTIONS"
	KindGenerateSummary        ActionKind = "GENERATE_SUMMARY"
	KindGetAllBalances         ActionKind = "GET_ALL_BALANCES"
	KindGetTransactionInfo     ActionKind = "GET_TRANSACTION_INFO"
	KindRequestAirdrop         ActionKind = "REQUEST_AIRDROP"
	KindSendTransaction        ActionKind = "SEND_TRANSACTION"
	KindSendTestnetTransaction ActionKind = "SEND_TESTNET_TRANSACTION"
	KindSendDevnetTransaction  ActionKind = "SEND_DEVNET_TRANSACTION"
	KindSwapTokens             ActionKind = "SWAP_TOKENS"
	KindGetCryptoPrice         ActionKind = "GET_CRYPTO_PRICE"
	KindUnknown                ActionKind = "UNKNOWN"
)

var allKinds = map[ActionKind]struct{}{
	KindGetBalance:             {},
	KindGetTestnetBalance:      {},
	KindGetDevnetBalance:       {},
	KindGetTransactions:        {},
	KindGenerateSummary:        {},
	KindGetAllBalances:         {},
	KindGetTransactionInfo:     {},
	KindRequestAirdrop:         {},
	KindSendTransaction:        {},
	KindSendTestnetTransaction: {},
	KindSendDevnetTransaction:  {},
	KindSwapTokens:             {},
	KindGetCryptoPrice:         {},
	KindUnknown:                {},
}

// ParseKind normalizes classifier output to a known kind, mapping anything
// unrecognized to UNKNOWN.
func ParseKind(raw string) ActionKind {
	kind := ActionKind(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := allKinds[kind]; ok {
		return kind
	}
	return KindUnknown
}

func (k ActionKind) String() string { return string(k) }

// NetworkSuffix reports the cluster baked into the kind name itself. A
// TESTNET or DEVNET suffix takes precedence over any network parameter.
func (k ActionKind) NetworkSuffix() (registry.Network, bool) {
	name := string(k)
	if strings.Contains(name, "TESTNET") {
		return registry.NetworkTestnet, true
	}
	if strings.Contains(name, "DEVNET") {
		return registry.NetworkDevnet, true
	}
	return "", false
}

package intent

import (
	"strings"

	"github.com/Divyanshu11011/BlockTalk/internal/id"
)

type WalletType string

const (
	WalletMine      WalletType = "MY_WALLET"
	WalletSpecified WalletType = "SPECIFIED_WALLET"
)

// ActionRecord is the structured form of one classified request. Params
// keys are stored lower-cased; lookups are case-insensitive prefix matches
// to tolerate model spelling drift.
type ActionRecord struct {
	Kind       ActionKind
	WalletType WalletType
	Params     map[string]string
	Raw        string
}

// Param finds a parameter whose key starts with the given name, matching
// how the model sometimes emits variants like "recipient address".
func (r ActionRecord) Param(key string) (string, bool) {
	key = strings.ToLower(key)
	if v, ok := r.Params[key]; ok {
		return v, true
	}
	for k, v := range r.Params {
		if strings.HasPrefix(k, key) {
			return v, true
		}
	}
	return "", false
}

func (r ActionRecord) paramOr(key, def string) string {
	if v, ok := r.Param(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r ActionRecord) Address() string   { return r.paramOr("address", "") }
func (r ActionRecord) Recipient() string { return r.paramOr("recipient", "") }
func (r ActionRecord) TxHash() string    { return r.paramOr("txhash", "") }
func (r ActionRecord) Symbol() string    { return r.paramOr("symbol", "") }
func (r ActionRecord) FromToken() string { return r.paramOr("fromtoken", "") }
func (r ActionRecord) ToToken() string   { return r.paramOr("totoken", "") }
func (r ActionRecord) NetworkParam() string {
	return r.paramOr("network", "")
}

// Count returns the requested history depth, defaulting to 10.
func (r ActionRecord) Count() int {
	return id.ParseCount(r.paramOr("count", ""), 10)
}

// Amount returns the requested SOL amount, defaulting to 0.
func (r ActionRecord) Amount() float64 {
	return id.ParseAmount(r.paramOr("amount", ""))
}

// AirdropAmount defaults to 1 SOL when the model omits the figure.
func (r ActionRecord) AirdropAmount() float64 {
	if v, ok := r.Param("amount"); ok && strings.TrimSpace(v) != "" {
		return id.ParseAmount(v)
	}
	return 1
}

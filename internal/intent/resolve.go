package intent

import (
	"fmt"
	"strings"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/registry"
)

// Context is the resolved execution target for one action: which address
// to act on and which cluster to talk to.
type Context struct {
	Address string
	Network registry.Network
}

// Resolve picks the effective address and network for a record. Kind
// suffixes outrank the network parameter, which outranks the mainnet
// default. The caller's wallet fills in whenever the record does not name
// a usable address.
func Resolve(record ActionRecord, callerWallet string) (Context, error) {
	address := strings.TrimSpace(callerWallet)
	if record.WalletType == WalletSpecified {
		if specified := record.Address(); specified != "" && !strings.EqualFold(specified, "unspecified") {
			address = specified
		}
	}
	if address == "" && !kindIsAddressFree(record.Kind) {
		return Context{}, clierr.New(clierr.CodeMissingAddress, "a wallet address is required for this action")
	}

	network := registry.NetworkMainnet
	if suffix, ok := record.Kind.NetworkSuffix(); ok {
		network = suffix
	} else if param := record.NetworkParam(); param != "" {
		parsed, ok := registry.ParseNetwork(param)
		if !ok {
			return Context{}, clierr.New(clierr.CodeInvalidNetwork, fmt.Sprintf("unknown network %q: use mainnet, testnet, or devnet", param))
		}
		network = parsed
	}

	return Context{Address: address, Network: network}, nil
}

// kindIsAddressFree marks actions that can run without any wallet.
func kindIsAddressFree(kind ActionKind) bool {
	switch kind {
	case KindGetCryptoPrice, KindGetTransactionInfo, KindUnknown:
		return true
	}
	return false
}

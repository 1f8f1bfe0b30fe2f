// Package registry holds the static Solana network catalog: cluster names,
// default RPC endpoints, airdrop limits, and bootstrap token mints.
package registry

import "strings"

type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkDevnet  Network = "devnet"
)

func (n Network) String() string { return string(n) }

func (n Network) Valid() bool {
	switch n {
	case NetworkMainnet, NetworkTestnet, NetworkDevnet:
		return true
	}
	return false
}

// ParseNetwork accepts the common spellings of the three clusters.
func ParseNetwork(raw string) (Network, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "mainnet", "mainnet-beta", "main":
		return NetworkMainnet, true
	case "testnet", "test":
		return NetworkTestnet, true
	case "devnet", "dev":
		return NetworkDevnet, true
	}
	return "", false
}

func Networks() []Network {
	return []Network{NetworkMainnet, NetworkTestnet, NetworkDevnet}
}

var defaultRPC = map[Network]string{
	NetworkMainnet: "https://api.mainnet-beta.solana.com",
	NetworkTestnet: "https://api.testnet.solana.com",
	NetworkDevnet:  "https://api.devnet.solana.com",
}

// RPCURL returns the public endpoint for a cluster. Overrides from config
// take precedence when non-empty.
func RPCURL(n Network, override string) string {
	if override != "" {
		return override
	}
	return defaultRPC[n]
}

// AirdropCapSOL returns the per-request faucet limit. ok is false on
// mainnet, where airdrops are not available.
func AirdropCapSOL(n Network) (float64, bool) {
	switch n {
	case NetworkDevnet:
		return 2, true
	case NetworkTestnet:
		return 1, true
	}
	return 0, false
}

// TokenListChainID maps a cluster to its chain id in the community token
// list (101 mainnet, 102 testnet, 103 devnet).
func TokenListChainID(n Network) int {
	switch n {
	case NetworkTestnet:
		return 102
	case NetworkDevnet:
		return 103
	default:
		return 101
	}
}

// knownMints seeds symbol resolution so the common pairs work even when the
// token list is unreachable. Keys are upper-case symbols.
var knownMints = map[Network]map[string]string{
	NetworkMainnet: {
		"SOL":  "So11111111111111111111111111111111111111112",
		"USDC": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		"USDT": "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
	},
	NetworkTestnet: {
		"SOL":  "So11111111111111111111111111111111111111112",
		"USDC": "CpMah17kQEL2wqyMKt3mZBdTnZbkbfx4nqmQMFDP5vwp",
	},
	NetworkDevnet: {
		"SOL":  "So11111111111111111111111111111111111111112",
		"USDC": "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU",
	},
}

// KnownMint resolves an upper-case symbol against the seed table.
func KnownMint(n Network, symbol string) (string, bool) {
	mints, ok := knownMints[n]
	if !ok {
		return "", false
	}
	mint, ok := mints[strings.ToUpper(symbol)]
	return mint, ok
}

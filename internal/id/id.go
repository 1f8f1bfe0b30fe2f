// Package id validates and formats on-ledger identifiers and amounts.
package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
)

// ParseAddress validates a base58 account address.
func ParseAddress(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", clierr.New(clierr.CodeMissingAddress, "wallet address is required")
	}
	pk, err := solana.PublicKeyFromBase58(trimmed)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("invalid wallet address %q", trimmed), err)
	}
	return pk.String(), nil
}

// ParseSignature validates a base58 transaction signature.
func ParseSignature(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", clierr.New(clierr.CodeUsage, "transaction hash is required")
	}
	sig, err := solana.SignatureFromBase58(trimmed)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("invalid transaction hash %q", trimmed), err)
	}
	return sig.String(), nil
}

func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / float64(solana.LAMPORTS_PER_SOL)
}

func SOLToLamports(amount float64) uint64 {
	if amount <= 0 {
		return 0
	}
	return uint64(amount*float64(solana.LAMPORTS_PER_SOL) + 0.5)
}

// FormatSOL renders an amount with six decimal places, the display precision
// used everywhere a SOL figure reaches the user.
func FormatSOL(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 6, 64)
}

// ParseAmount reads a decimal SOL amount, returning 0 for anything
// unparseable or negative.
func ParseAmount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ParseCount reads a positive integer, falling back to def.
func ParseCount(raw string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

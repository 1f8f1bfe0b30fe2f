package intent

import (
	"testing"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/registry"
)

const caller = "CallerWallet1111111111111111111111111111111"

func TestResolveSuffixBeatsNetworkParam(t *testing.T) {
	record := Parse("Classification: GET_TESTNET_BALANCE\nwalletType: MY_WALLET\nnetwork: devnet")
	ctx, err := Resolve(record, caller)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ctx.Network != registry.NetworkTestnet {
		t.Fatalf("network = %s, want testnet", ctx.Network)
	}
}

func TestResolveNetworkParam(t *testing.T) {
	record := Parse("Classification: GET_BALANCE\nwalletType: MY_WALLET\nnetwork: Devnet")
	ctx, err := Resolve(record, caller)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ctx.Network != registry.NetworkDevnet {
		t.Fatalf("network = %s, want devnet", ctx.Network)
	}
}

func TestResolveDefaultsToMainnet(t *testing.T) {
	record := Parse("Classification: GET_BALANCE\nwalletType: MY_WALLET")
	ctx, err := Resolve(record, caller)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ctx.Network != registry.NetworkMainnet {
		t.Fatalf("network = %s, want mainnet", ctx.Network)
	}
	if ctx.Address != caller {
		t.Fatalf("address = %q", ctx.Address)
	}
}

func TestResolveInvalidNetworkParam(t *testing.T) {
	record := Parse("Classification: GET_BALANCE\nwalletType: MY_WALLET\nnetwork: localnet")
	_, err := Resolve(record, caller)
	cErr, ok := clierr.As(err)
	if !ok || cErr.Code != clierr.CodeInvalidNetwork {
		t.Fatalf("expected invalid network error, got %v", err)
	}
}

func TestResolveSpecifiedWallet(t *testing.T) {
	record := Parse("Classification: GET_TRANSACTIONS\nwalletType: SPECIFIED_WALLET\naddress: ob2htHLoCu2P6tX7RrNVtiG1mYTas8NGJEVLaFEUngk")
	ctx, err := Resolve(record, caller)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ctx.Address != "ob2htHLoCu2P6tX7RrNVtiG1mYTas8NGJEVLaFEUngk" {
		t.Fatalf("address = %q", ctx.Address)
	}
}

func TestResolveUnspecifiedAddressFallsBackToCaller(t *testing.T) {
	record := Parse("Classification: GET_BALANCE\nwalletType: SPECIFIED_WALLET\naddress: unspecified")
	ctx, err := Resolve(record, caller)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ctx.Address != caller {
		t.Fatalf("address = %q, want caller fallback", ctx.Address)
	}
}

func TestResolveMissingAddress(t *testing.T) {
	record := Parse("Classification: GET_BALANCE\nwalletType: MY_WALLET")
	_, err := Resolve(record, "")
	cErr, ok := clierr.As(err)
	if !ok || cErr.Code != clierr.CodeMissingAddress {
		t.Fatalf("expected missing address error, got %v", err)
	}
}

func TestResolveAddressFreeKinds(t *testing.T) {
	record := Parse("Classification: GET_CRYPTO_PRICE\nsymbol: BTC")
	ctx, err := Resolve(record, "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ctx.Address != "" {
		t.Fatalf("address = %q", ctx.Address)
	}
}

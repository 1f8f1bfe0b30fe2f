package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadPrecedenceFlagsOverEnvOverFile(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(configPath, []byte("output: plain\nretries: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("BLOCKTALK_OUTPUT", "json")
	flags := GlobalFlags{ConfigPath: configPath, Plain: true, Retries: 5}
	settings, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OutputMode != "plain" {
		t.Fatalf("expected flag to win, got output=%s", settings.OutputMode)
	}
	if settings.Retries != 5 {
		t.Fatalf("expected retries from flags, got %d", settings.Retries)
	}
}

func TestLoadMutuallyExclusiveOutputFlags(t *testing.T) {
	_, err := Load(GlobalFlags{JSON: true, Plain: true, Retries: -1})
	if err == nil {
		t.Fatal("expected error with --json and --plain")
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	body := `
openai:
  model: gpt-4o
networks:
  devnet_rpc: http://localhost:8899
cache:
  price_ttl: 90s
airdrop:
  confirm: true
`
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	settings, err := Load(GlobalFlags{ConfigPath: configPath, Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OpenAIModel != "gpt-4o" {
		t.Fatalf("openai model = %q", settings.OpenAIModel)
	}
	if settings.RPCDevnet != "http://localhost:8899" {
		t.Fatalf("devnet rpc = %q", settings.RPCDevnet)
	}
	if settings.PriceTTL != 90*time.Second {
		t.Fatalf("price ttl = %v", settings.PriceTTL)
	}
	if !settings.AirdropConfirm {
		t.Fatalf("expected airdrop confirm enabled")
	}
}

func TestLoadEnvAPIKey(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("BLOCKTALK_OPENAI_API_KEY", "sk-test")
	settings, err := Load(GlobalFlags{ConfigPath: filepath.Join(tmp, "missing.yaml"), Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OpenAIAPIKey != "sk-test" {
		t.Fatalf("api key = %q", settings.OpenAIAPIKey)
	}
}

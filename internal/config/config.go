package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type GlobalFlags struct {
	ConfigPath     string
	JSON           bool
	Plain          bool
	Select         string
	ResultsOnly    bool
	EnableCommands string
	Timeout        string
	Retries        int
	NoCache        bool
	Verbose        bool
}

type Settings struct {
	OutputMode     string
	SelectFields   []string
	ResultsOnly    bool
	EnableCommands []string
	Timeout        time.Duration
	Retries        int
	CacheEnabled   bool
	CachePath      string
	CacheLockPath  string
	Verbose        bool

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	RPCMainnet string
	RPCTestnet string
	RPCDevnet  string

	PriceTTL       time.Duration
	TokenListTTL   time.Duration
	MemoryDepth    int
	AirdropConfirm bool
	AirdropWait    time.Duration

	ListenAddr string
}

type fileConfig struct {
	Output  string `yaml:"output"`
	Timeout string `yaml:"timeout"`
	Retries *int   `yaml:"retries"`
	Verbose *bool  `yaml:"verbose"`
	Cache   struct {
		Enabled      *bool  `yaml:"enabled"`
		Path         string `yaml:"path"`
		LockPath     string `yaml:"lock_path"`
		PriceTTL     string `yaml:"price_ttl"`
		TokenListTTL string `yaml:"token_list_ttl"`
	} `yaml:"cache"`
	OpenAI struct {
		APIKey    string `yaml:"api_key"`
		APIKeyEnv string `yaml:"api_key_env"`
		BaseURL   string `yaml:"base_url"`
		Model     string `yaml:"model"`
	} `yaml:"openai"`
	Networks struct {
		Mainnet string `yaml:"mainnet_rpc"`
		Testnet string `yaml:"testnet_rpc"`
		Devnet  string `yaml:"devnet_rpc"`
	} `yaml:"networks"`
	Airdrop struct {
		Confirm *bool  `yaml:"confirm"`
		Wait    string `yaml:"wait"`
	} `yaml:"airdrop"`
	Memory struct {
		Depth *int `yaml:"depth"`
	} `yaml:"memory"`
	Serve struct {
		Listen string `yaml:"listen"`
	} `yaml:"serve"`
}

func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}

	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 15 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.PriceTTL <= 0 {
		settings.PriceTTL = time.Minute
	}
	if settings.TokenListTTL <= 0 {
		settings.TokenListTTL = time.Hour
	}
	if settings.MemoryDepth <= 0 {
		settings.MemoryDepth = 6
	}
	if settings.AirdropWait <= 0 {
		settings.AirdropWait = 20 * time.Second
	}

	return settings, nil
}

func defaultSettings() (Settings, error) {
	cachePath, lockPath, err := defaultCachePaths()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		OutputMode:    "json",
		Timeout:       15 * time.Second,
		Retries:       2,
		CacheEnabled:  true,
		CachePath:     cachePath,
		CacheLockPath: lockPath,
		OpenAIBaseURL: "https://api.openai.com/v1",
		OpenAIModel:   "gpt-4o-mini",
		PriceTTL:      time.Minute,
		TokenListTTL:  time.Hour,
		MemoryDepth:   6,
		AirdropWait:   20 * time.Second,
		ListenAddr:    "127.0.0.1:8765",
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "blocktalk", "config.yaml"), nil
}

func defaultCachePaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "blocktalk")
	return filepath.Join(dir, "cache.db"), filepath.Join(dir, "cache.lock"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Output != "" {
		settings.OutputMode = strings.ToLower(cfg.Output)
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.Verbose != nil {
		settings.Verbose = *cfg.Verbose
	}
	if cfg.Cache.Enabled != nil {
		settings.CacheEnabled = *cfg.Cache.Enabled
	}
	if cfg.Cache.Path != "" {
		settings.CachePath = cfg.Cache.Path
	}
	if cfg.Cache.LockPath != "" {
		settings.CacheLockPath = cfg.Cache.LockPath
	}
	if cfg.Cache.PriceTTL != "" {
		d, err := time.ParseDuration(cfg.Cache.PriceTTL)
		if err != nil {
			return fmt.Errorf("config cache.price_ttl: %w", err)
		}
		settings.PriceTTL = d
	}
	if cfg.Cache.TokenListTTL != "" {
		d, err := time.ParseDuration(cfg.Cache.TokenListTTL)
		if err != nil {
			return fmt.Errorf("config cache.token_list_ttl: %w", err)
		}
		settings.TokenListTTL = d
	}
	if cfg.OpenAI.APIKey != "" {
		settings.OpenAIAPIKey = cfg.OpenAI.APIKey
	}
	if cfg.OpenAI.APIKeyEnv != "" {
		settings.OpenAIAPIKey = os.Getenv(cfg.OpenAI.APIKeyEnv)
	}
	if cfg.OpenAI.BaseURL != "" {
		settings.OpenAIBaseURL = cfg.OpenAI.BaseURL
	}
	if cfg.OpenAI.Model != "" {
		settings.OpenAIModel = cfg.OpenAI.Model
	}
	if cfg.Networks.Mainnet != "" {
		settings.RPCMainnet = cfg.Networks.Mainnet
	}
	if cfg.Networks.Testnet != "" {
		settings.RPCTestnet = cfg.Networks.Testnet
	}
	if cfg.Networks.Devnet != "" {
		settings.RPCDevnet = cfg.Networks.Devnet
	}
	if cfg.Airdrop.Confirm != nil {
		settings.AirdropConfirm = *cfg.Airdrop.Confirm
	}
	if cfg.Airdrop.Wait != "" {
		d, err := time.ParseDuration(cfg.Airdrop.Wait)
		if err != nil {
			return fmt.Errorf("config airdrop.wait: %w", err)
		}
		settings.AirdropWait = d
	}
	if cfg.Memory.Depth != nil {
		settings.MemoryDepth = *cfg.Memory.Depth
	}
	if cfg.Serve.Listen != "" {
		settings.ListenAddr = cfg.Serve.Listen
	}

	return nil
}

func applyEnv(settings *Settings) {
	if v := os.Getenv("BLOCKTALK_OUTPUT"); v != "" {
		settings.OutputMode = strings.ToLower(v)
	}
	if v := os.Getenv("BLOCKTALK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := os.Getenv("BLOCKTALK_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Retries = n
		}
	}
	if v := os.Getenv("BLOCKTALK_NO_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.CacheEnabled = !b
		}
	}
	if v := os.Getenv("BLOCKTALK_CACHE_PATH"); v != "" {
		settings.CachePath = v
	}
	if v := os.Getenv("BLOCKTALK_CACHE_LOCK_PATH"); v != "" {
		settings.CacheLockPath = v
	}
	if v := os.Getenv("BLOCKTALK_OPENAI_API_KEY"); v != "" {
		settings.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && settings.OpenAIAPIKey == "" {
		settings.OpenAIAPIKey = v
	}
	if v := os.Getenv("BLOCKTALK_OPENAI_BASE_URL"); v != "" {
		settings.OpenAIBaseURL = v
	}
	if v := os.Getenv("BLOCKTALK_OPENAI_MODEL"); v != "" {
		settings.OpenAIModel = v
	}
	if v := os.Getenv("BLOCKTALK_MAINNET_RPC"); v != "" {
		settings.RPCMainnet = v
	}
	if v := os.Getenv("BLOCKTALK_TESTNET_RPC"); v != "" {
		settings.RPCTestnet = v
	}
	if v := os.Getenv("BLOCKTALK_DEVNET_RPC"); v != "" {
		settings.RPCDevnet = v
	}
	if v := os.Getenv("BLOCKTALK_AIRDROP_CONFIRM"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.AirdropConfirm = b
		}
	}
	if v := os.Getenv("BLOCKTALK_LISTEN"); v != "" {
		settings.ListenAddr = v
	}
	if v := os.Getenv("BLOCKTALK_VERBOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.Verbose = b
		}
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return fmt.Errorf("cannot use --json and --plain together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if strings.TrimSpace(flags.Select) != "" {
		parts := strings.Split(flags.Select, ",")
		fields := make([]string, 0, len(parts))
		for _, part := range parts {
			f := strings.TrimSpace(part)
			if f != "" {
				fields = append(fields, f)
			}
		}
		settings.SelectFields = fields
	}
	settings.ResultsOnly = flags.ResultsOnly

	if strings.TrimSpace(flags.EnableCommands) != "" {
		parts := strings.Split(flags.EnableCommands, ",")
		allowed := make([]string, 0, len(parts))
		for _, part := range parts {
			v := strings.TrimSpace(part)
			if v != "" {
				allowed = append(allowed, v)
			}
		}
		settings.EnableCommands = allowed
	}

	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if flags.NoCache {
		settings.CacheEnabled = false
	}
	if flags.Verbose {
		settings.Verbose = true
	}

	if settings.OutputMode != "json" && settings.OutputMode != "plain" {
		return fmt.Errorf("output must be json or plain")
	}

	return nil
}

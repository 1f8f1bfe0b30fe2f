// Package app wires configuration, providers, and the chat pipeline into
// the blocktalk command tree.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Divyanshu11011/BlockTalk/internal/cache"
	"github.com/Divyanshu11011/BlockTalk/internal/config"
	"github.com/Divyanshu11011/BlockTalk/internal/dispatch"
	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/httpx"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
	"github.com/Divyanshu11011/BlockTalk/internal/memory"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
	"github.com/Divyanshu11011/BlockTalk/internal/out"
	"github.com/Divyanshu11011/BlockTalk/internal/pipeline"
	"github.com/Divyanshu11011/BlockTalk/internal/policy"
	"github.com/Divyanshu11011/BlockTalk/internal/providers"
	"github.com/Divyanshu11011/BlockTalk/internal/providers/cryptocompare"
	"github.com/Divyanshu11011/BlockTalk/internal/providers/jupiter"
	"github.com/Divyanshu11011/BlockTalk/internal/providers/openai"
	solanarpc "github.com/Divyanshu11011/BlockTalk/internal/providers/solana"
	"github.com/Divyanshu11011/BlockTalk/internal/providers/solscan"
	"github.com/Divyanshu11011/BlockTalk/internal/providers/tokenlist"
	"github.com/Divyanshu11011/BlockTalk/internal/registry"
	"github.com/Divyanshu11011/BlockTalk/internal/schema"
	"github.com/Divyanshu11011/BlockTalk/internal/synth"
	"github.com/Divyanshu11011/BlockTalk/internal/version"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
}

type runtimeState struct {
	runner      *Runner
	flags       config.GlobalFlags
	settings    config.Settings
	cache       *cache.Store
	root        *cobra.Command
	lastCommand string
	log         *zap.Logger

	llm           providers.CompletionProvider
	ledgers       map[registry.Network]providers.LedgerClient
	prices        providers.PriceProvider
	tokens        providers.TokenDirectory
	meta          providers.TokenMetadataProvider
	swaps         providers.SwapProvider
	providerInfos []model.ProviderInfo

	mem        *memory.Log
	dispatcher *dispatch.Dispatcher
	pipeline   *pipeline.Pipeline
}

func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r}
	root := state.newRootCommand()
	state.root = root
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.Execute()
	err = normalizeRunError(err)
	if state.cache != nil {
		_ = state.cache.Close()
	}
	if err == nil {
		return 0
	}

	state.renderError("", err)
	return clierr.ExitCode(err)
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "Conversational Solana assistant",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load configuration", err)
			}
			s.settings = settings

			path := trimRootPath(cmd.CommandPath())
			s.lastCommand = path
			if err := policy.CheckCommandAllowed(settings.EnableCommands, path); err != nil {
				return err
			}

			if s.log == nil {
				s.log = newLogger(settings.Verbose, s.runner.stderr)
			}
			if settings.CacheEnabled && shouldOpenCache(path) && s.cache == nil {
				cacheStore, err := cache.Open(settings.CachePath, settings.CacheLockPath)
				if err != nil {
					return clierr.Wrap(clierr.CodeInternal, "open cache", err)
				}
				s.cache = cacheStore
			}
			s.buildServices()
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.CodeUsage, "parse flags", err)
	})

	cmd.PersistentFlags().BoolVar(&s.flags.JSON, "json", false, "Output JSON (default)")
	cmd.PersistentFlags().BoolVar(&s.flags.Plain, "plain", false, "Output plain text")
	cmd.PersistentFlags().StringVar(&s.flags.Select, "select", "", "Select fields from data (comma-separated)")
	cmd.PersistentFlags().BoolVar(&s.flags.ResultsOnly, "results-only", false, "Output only data payload")
	cmd.PersistentFlags().StringVar(&s.flags.EnableCommands, "enable-commands", "", "Allowlist command paths (comma-separated)")
	cmd.PersistentFlags().StringVar(&s.flags.Timeout, "timeout", "", "Upstream request timeout")
	cmd.PersistentFlags().IntVar(&s.flags.Retries, "retries", -1, "Retries per upstream request")
	cmd.PersistentFlags().BoolVar(&s.flags.NoCache, "no-cache", false, "Disable cache reads and writes")
	cmd.PersistentFlags().BoolVar(&s.flags.Verbose, "verbose", false, "Log wiring and upstream calls to stderr")
	cmd.PersistentFlags().StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")

	cmd.AddCommand(s.newAskCommand())
	cmd.AddCommand(s.newFollowupsCommand())
	cmd.AddCommand(s.newServeCommand())
	cmd.AddCommand(s.newBalanceCommand())
	cmd.AddCommand(s.newTransactionsCommand())
	cmd.AddCommand(s.newPriceCommand())
	cmd.AddCommand(s.newNetworksCommand())
	cmd.AddCommand(s.newProvidersCommand())
	cmd.AddCommand(s.newSchemaCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// buildServices constructs the provider graph once per process. Every
// upstream shares one retrying HTTP client.
func (s *runtimeState) buildServices() {
	if s.pipeline != nil {
		return
	}
	settings := s.settings

	httpClient := httpx.New(settings.Timeout, settings.Retries)
	openaiClient := openai.New(httpClient, settings.OpenAIAPIKey, settings.OpenAIBaseURL, settings.OpenAIModel)
	priceClient := cryptocompare.New(httpClient, "")
	tokenClient := tokenlist.New(httpClient)
	metaClient := solscan.New(httpClient)
	swapClient := jupiter.New(httpClient, "")

	s.llm = openaiClient
	s.prices = priceClient
	s.tokens = tokenClient
	s.meta = metaClient
	s.swaps = swapClient
	s.providerInfos = []model.ProviderInfo{
		openaiClient.Info(),
		priceClient.Info(),
		tokenClient.Info(),
		metaClient.Info(),
		swapClient.Info(),
	}

	overrides := map[registry.Network]string{
		registry.NetworkMainnet: settings.RPCMainnet,
		registry.NetworkTestnet: settings.RPCTestnet,
		registry.NetworkDevnet:  settings.RPCDevnet,
	}
	s.ledgers = make(map[registry.Network]providers.LedgerClient, len(overrides))
	for _, network := range registry.Networks() {
		endpoint := registry.RPCURL(network, overrides[network])
		s.ledgers[network] = solanarpc.New(network, endpoint, settings.AirdropWait)
	}

	s.dispatcher = dispatch.New(dispatch.Options{
		Ledgers:        s.ledgers,
		Prices:         s.prices,
		Tokens:         s.tokens,
		Meta:           s.meta,
		Swaps:          s.swaps,
		Store:          s.cache,
		PriceTTL:       settings.PriceTTL,
		TokenListTTL:   settings.TokenListTTL,
		ConfirmAirdrop: settings.AirdropConfirm,
		Logger:         s.log,
	})

	s.mem = memory.NewLog()
	classifier := intent.NewClassifier(s.llm, s.mem, settings.MemoryDepth, s.log)
	synthesizer := synth.New(s.llm, s.log)
	s.pipeline = pipeline.New(classifier, s.dispatcher, synthesizer, s.mem, s.log)
}

func newLogger(verbose bool, stderr io.Writer) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(writerSyncer{stderr}), zapcore.DebugLevel)
	return zap.New(core)
}

type writerSyncer struct{ io.Writer }

func (writerSyncer) Sync() error { return nil }

func (s *runtimeState) newAskCommand() *cobra.Command {
	var wallet string
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Ask the assistant in natural language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return clierr.New(clierr.CodeUsage, "message must not be empty")
			}

			ctx, cancel := context.WithTimeout(context.Background(), s.requestBudget())
			defer cancel()

			start := time.Now()
			response, err := s.pipeline.Handle(ctx, message, wallet)
			status := []model.ProviderStatus{{
				Name:      s.llm.Info().Name,
				Status:    statusFromErr(err),
				LatencyMS: time.Since(start).Milliseconds(),
			}}
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), response, nil, cacheMetaBypass(), status)
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "Caller wallet address used for MY_WALLET requests")
	return cmd
}

func (s *runtimeState) newFollowupsCommand() *cobra.Command {
	var last string
	cmd := &cobra.Command{
		Use:   "followups",
		Short: "Suggest follow-up questions for the last reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), s.requestBudget())
			defer cancel()

			followUps, err := s.pipeline.FollowUps(ctx, last)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), followUps, nil, cacheMetaBypass(), nil)
		},
	}
	cmd.Flags().StringVar(&last, "last", "", "Reply to base suggestions on (defaults to the conversation log)")
	return cmd
}

func (s *runtimeState) newBalanceCommand() *cobra.Command {
	var address string
	var networkArg string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "SOL balance of a wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runAction(cmd, intent.KindGetBalance, address, map[string]string{"network": networkArg})
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Wallet address")
	cmd.Flags().StringVar(&networkArg, "network", "mainnet", "Cluster (mainnet|testnet|devnet)")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func (s *runtimeState) newTransactionsCommand() *cobra.Command {
	var address string
	var networkArg string
	var count int
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Recent transactions of a wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runAction(cmd, intent.KindGetTransactions, address, map[string]string{
				"network": networkArg,
				"count":   fmt.Sprintf("%d", count),
			})
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Wallet address")
	cmd.Flags().StringVar(&networkArg, "network", "mainnet", "Cluster (mainnet|testnet|devnet)")
	cmd.Flags().IntVar(&count, "count", 10, "Number of transactions to return")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func (s *runtimeState) newPriceCommand() *cobra.Command {
	var symbol string
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Current price with 24h sparkline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runAction(cmd, intent.KindGetCryptoPrice, "", map[string]string{"symbol": symbol})
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "SOL", "Asset symbol")
	return cmd
}

// runAction drives the dispatcher directly, bypassing the language model.
// The structured payload lands in the envelope instead of a narrative.
func (s *runtimeState) runAction(cmd *cobra.Command, kind intent.ActionKind, address string, params map[string]string) error {
	record := intent.ActionRecord{Kind: kind, WalletType: intent.WalletMine, Params: map[string]string{}}
	for key, value := range params {
		if strings.TrimSpace(value) != "" {
			record.Params[key] = value
		}
	}

	rctx, err := intent.Resolve(record, address)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.requestBudget())
	defer cancel()

	start := time.Now()
	result := s.dispatcher.Dispatch(ctx, record, rctx)
	if result.Err != nil {
		return result.Err
	}
	status := []model.ProviderStatus{{
		Name:      "solana-rpc",
		Status:    "ok",
		LatencyMS: time.Since(start).Milliseconds(),
	}}

	var data any
	switch {
	case result.Balance != nil:
		data = result.Balance
	case result.Transactions != nil:
		data = result.Transactions
	case result.Price != nil:
		data = result.Price
		status[0].Name = s.prices.Info().Name
	default:
		data = result
	}
	return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), status)
}

func (s *runtimeState) newNetworksCommand() *cobra.Command {
	root := &cobra.Command{Use: "networks", Short: "Network catalog"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List supported clusters and their endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[registry.Network]string{
				registry.NetworkMainnet: s.settings.RPCMainnet,
				registry.NetworkTestnet: s.settings.RPCTestnet,
				registry.NetworkDevnet:  s.settings.RPCDevnet,
			}
			type networkEntry struct {
				Name          string  `json:"name"`
				RPC           string  `json:"rpc"`
				AirdropCapSOL float64 `json:"airdrop_cap_sol"`
				Airdrops      bool    `json:"airdrops"`
			}
			entries := make([]networkEntry, 0, 3)
			for _, network := range registry.Networks() {
				limit, ok := registry.AirdropCapSOL(network)
				entries = append(entries, networkEntry{
					Name:          network.String(),
					RPC:           registry.RPCURL(network, overrides[network]),
					AirdropCapSOL: limit,
					Airdrops:      ok,
				})
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), entries, nil, cacheMetaBypass(), nil)
		},
	}
	root.AddCommand(list)
	return root
}

func (s *runtimeState) newProvidersCommand() *cobra.Command {
	root := &cobra.Command{Use: "providers", Short: "Provider commands"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List upstream providers and API key metadata (no keys required)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), s.providerInfos, nil, cacheMetaBypass(), nil)
		},
	}
	root.AddCommand(list)
	return root
}

func (s *runtimeState) newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [command path]",
		Short: "Print machine-readable command schema",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = strings.Join(args, " ")
			}
			data, err := schema.Build(s.root, path)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "build schema", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil)
		},
	}
	return cmd
}

func newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Long())
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.CLIVersion)
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Print extended build metadata")
	return cmd
}

// requestBudget leaves room for the two model calls plus the RPC round
// trips a single chat turn can fan out into.
func (s *runtimeState) requestBudget() time.Duration {
	budget := 4 * s.settings.Timeout
	if budget <= 0 {
		budget = time.Minute
	}
	return budget
}

func (s *runtimeState) emitSuccess(commandPath string, data any, warnings []string, cacheStatus model.CacheStatus, providerStatus []model.ProviderStatus) error {
	env := model.Envelope{
		Version:  model.EnvelopeVersion,
		Success:  true,
		Data:     data,
		Error:    nil,
		Warnings: warnings,
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
			Providers: providerStatus,
			Cache:     cacheStatus,
		},
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

func (s *runtimeState) renderError(commandPath string, err error) {
	if strings.TrimSpace(commandPath) == "" {
		commandPath = s.lastCommand
		if commandPath == "" {
			commandPath = version.CLIName
		}
	}
	code := clierr.ExitCode(err)
	typ := "internal_error"
	message := err.Error()
	if cErr, ok := clierr.As(err); ok {
		message = cErr.Message
		if cErr.Cause != nil {
			message = fmt.Sprintf("%s: %v", cErr.Message, cErr.Cause)
		}
		typ = errorType(cErr.Code)
	}

	settings := s.settings
	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	settings.ResultsOnly = false
	settings.SelectFields = nil
	env := model.Envelope{
		Version: model.EnvelopeVersion,
		Success: false,
		Data:    []any{},
		Error: &model.ErrorBody{
			Code:    code,
			Type:    typ,
			Message: message,
		},
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
			Cache:     cacheMetaBypass(),
		},
	}
	_ = out.Render(s.runner.stderr, env, settings)
}

func errorType(code clierr.Code) string {
	switch code {
	case clierr.CodeUsage:
		return "usage_error"
	case clierr.CodeAuth:
		return "auth_error"
	case clierr.CodeRateLimited:
		return "rate_limited"
	case clierr.CodeUnavailable:
		return "upstream_unavailable"
	case clierr.CodeUnsupported:
		return "unsupported"
	case clierr.CodeTimeout:
		return "timeout"
	case clierr.CodeBlocked:
		return "command_blocked"
	case clierr.CodeClassification:
		return "classification_error"
	case clierr.CodeMissingAddress:
		return "missing_address"
	case clierr.CodeInvalidNetwork:
		return "invalid_network"
	case clierr.CodeInsufficientBalance:
		return "insufficient_balance"
	case clierr.CodeAirdropLimit:
		return "airdrop_limit"
	case clierr.CodeTransactionNotFound:
		return "transaction_not_found"
	case clierr.CodeTokenNotFound:
		return "token_not_found"
	case clierr.CodePriceUnavailable:
		return "price_unavailable"
	default:
		return "internal_error"
	}
}

func statusFromErr(err error) string {
	if err == nil {
		return "ok"
	}
	if cErr, ok := clierr.As(err); ok {
		switch cErr.Code {
		case clierr.CodeAuth:
			return "auth_error"
		case clierr.CodeRateLimited:
			return "rate_limited"
		case clierr.CodeUnavailable:
			return "unavailable"
		default:
			return "error"
		}
	}
	return "error"
}

func cacheMetaBypass() model.CacheStatus {
	return model.CacheStatus{Status: "bypass", AgeMS: 0, Stale: false}
}

func newRequestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func trimRootPath(path string) string {
	parts := strings.Fields(path)
	if len(parts) <= 1 {
		return path
	}
	return strings.Join(parts[1:], " ")
}

func normalizeRunError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := clierr.As(err); ok {
		return err
	}
	if isLikelyUsageError(err) {
		return clierr.Wrap(clierr.CodeUsage, "invalid command input", err)
	}
	return clierr.Wrap(clierr.CodeInternal, "execute command", err)
}

func isLikelyUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"required flag(s)",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid args",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func shouldOpenCache(commandPath string) bool {
	switch normalizeCommandPath(commandPath) {
	case "", "version", "schema", "networks", "networks list", "providers", "providers list":
		return false
	default:
		return true
	}
}

func normalizeCommandPath(commandPath string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(commandPath))), " ")
}

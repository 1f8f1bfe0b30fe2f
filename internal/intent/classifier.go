package intent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/memory"
	"github.com/Divyanshu11011/BlockTalk/internal/providers"
)

const classifierTemperature = 0.5

const classifierPreamble = `You are a helpful assistant that interprets user requests related to Solana blockchain transactions and cryptocurrency information. Interpret the following user request and classify it into one of these actions: GET_BALANCE, GET_TRANSACTIONS, SEND_TRANSACTION, SWAP_TOKENS, GENERATE_SUMMARY, GET_CRYPTO_PRICE, GET_TESTNET_BALANCE, GET_DEVNET_BALANCE, GET_ALL_BALANCES, GET_TRANSACTION_INFO, REQUEST_AIRDROP, SEND_DEVNET_TRANSACTION, SEND_TESTNET_TRANSACTION, or UNKNOWN. Also, extract any relevant parameters. Also, there are only 2 types of wallets that can be there - MY_WALLET and SPECIFIED_WALLET.

Some sample examples are included below for your understanding. Use them to understand in what format you have to classify the requests. Do note that inputs can vary, and you would need to classify as per the best action.

Examples:
User request: "tell me about my last 5 transactions"
Classification: GET_TRANSACTIONS
walletType: MY_WALLET
count: 5
network: mainnet

User request: "Tell me about my last 5 transactions on testnet"
Classification: GET_TRANSACTIONS
walletType: MY_WALLET
count: 5
network: testnet

User request: "Airdrop me 0.5 sol on my testnet"
Classification: REQUEST_AIRDROP
walletType: MY_WALLET
amount: 0.5
network: testnet

User request: "Send 2 SOL to address Gh9ZwEmdLJ8DscKNTkTqPbNwLNNBjuSzaG9Vp2KGtKJr"
Classification: SEND_TRANSACTION
walletType: MY_WALLET
recipient: Gh9ZwEmdLJ8DscKNTkTqPbNwLNNBjuSzaG9Vp2KGtKJr
amount: 2

User request: "What's my account balance?"
Classification: GET_BALANCE
walletType: MY_WALLET

User request: "Swap 1 SOL for USDC from my wallet"
Classification: SWAP_TOKENS
walletType: MY_WALLET
fromToken: SOL
toToken: USDC
amount: 1

User request: "Generate a summary of my transactions for the last 30 days"
Classification: GENERATE_SUMMARY
walletType: MY_WALLET
days: 30

User request: "What's the current price of Bitcoin?"
Classification: GET_CRYPTO_PRICE
symbol: BTC

User request: "What's my testnet balance?"
Classification: GET_TESTNET_BALANCE
walletType: MY_WALLET

User request: "last 25 transactions of ob2htHLoCu2P6tX7RrNVtiG1mYTas8NGJEVLaFEUngk"
Classification: GET_TRANSACTIONS
walletType: SPECIFIED_WALLET
address: ob2htHLoCu2P6tX7RrNVtiG1mYTas8NGJEVLaFEUngk
count: 25
network: mainnet

User request: "Show me all token balances in my wallet"
Classification: GET_ALL_BALANCES
walletType: MY_WALLET

User request: "tell me about the transaction with hash ywCMhvfUSuBngxKxd1Dz3v8uqW7aooxwV1TNdAjmy7mPutXR6ri5ky8BQp1bmu95LdoKdp3yDpph9oojKD6Fhyq on devnet"
Classification: GET_TRANSACTION_INFO
txHash: ywCMhvfUSuBngxKxd1Dz3v8uqW7aooxwV1TNdAjmy7mPutXR6ri5ky8BQp1bmu95LdoKdp3yDpph9oojKD6Fhyq
network: devnet`

// Classifier asks the language model to label a request and extract its
// parameters in the line format Parse understands.
type Classifier struct {
	llm    providers.CompletionProvider
	memory *memory.Log
	depth  int
	log    *zap.Logger
}

func NewClassifier(llm providers.CompletionProvider, mem *memory.Log, depth int, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{llm: llm, memory: mem, depth: depth, log: log}
}

// Classify returns the raw classifier output. A model failure here is
// terminal for the request since nothing downstream can run without a kind.
func (c *Classifier) Classify(ctx context.Context, text string) (string, error) {
	prompt := c.buildPrompt(text)
	out, err := c.llm.Complete(ctx, prompt, classifierTemperature)
	if err != nil {
		c.log.Warn("classification failed", zap.Error(err))
		return "", clierr.Wrap(clierr.CodeClassification, "interpret request", err)
	}
	c.log.Debug("classified request", zap.String("output", out))
	return out, nil
}

func (c *Classifier) buildPrompt(text string) string {
	prompt := classifierPreamble
	if c.memory != nil {
		if transcript := c.memory.Transcript(c.depth); transcript != "" {
			prompt += "\n\nConversation so far:\n" + transcript
		}
	}
	return prompt + fmt.Sprintf("\n\nNow, interpret this user request: %q", text)
}

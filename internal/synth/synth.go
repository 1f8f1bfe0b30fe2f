// Package synth turns dispatch results into conversational replies. A
// second model call rephrases the deterministic rendering; when the model
// is unavailable the deterministic text is the reply, so the pipeline
// degrades to terse but correct answers instead of failing.
package synth

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Divyanshu11011/BlockTalk/internal/dispatch"
	"github.com/Divyanshu11011/BlockTalk/internal/id"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
	"github.com/Divyanshu11011/BlockTalk/internal/providers"
)

const (
	narrateTemperature  = 0.5
	followUpTemperature = 0.2
	maxFollowUps        = 3
)

const narratePrompt = `You are a helpful assistant that explains Solana blockchain transactions and cryptocurrency information in simple terms. Convert the following data into a human-readable format, keeping in mind that this information is from the %s network:

%s

Provide a clear and concise explanation of the information or action described in the data. Keep your tone helpful and professional. Include all the data you received without missing anything. You don't have to mention that you are explicitly showing the data in "human readable format". Conclude with an invitation for the user to ask for further assistance if needed.`

const followUpPrompt = `You are a helpful assistant that suggests precise follow-up questions based on the previous bot message. The user interacts with a system that supports the following actions related to the Solana blockchain and cryptocurrency:

1) Checking the balance of a wallet on a specific network (mainnet, testnet, or devnet).
2) Retrieving the last few transactions from a wallet.
3) Sending SOL to another wallet on a specific network (mainnet, testnet, or devnet).
4) Checking the current price of a specific cryptocurrency.
Given the bot's last response, generate 2-3 follow-up questions or actions that the user might ask or perform next, ensuring they are relevant to the actions listed above.

Bot's last response: "%s"

Your task is to generate only the follow-up questions or actions. Avoid any suffix, prefix, numbering or additional text. The follow-up messages should be explicit and specific. For instance:

If the question is about the price of a cryptocurrency, mention the specific asset (whats the current price of SOLANA).
If inquiring about wallet balance, specify the network (e.g., "Check my SOL balance on devnet").
If inquiring about sending transaction, specify wallet like - send 0.2 sol to C1Q85yjUtPQookfxbAFzJo9whF7nnN5RqduDFviZ9FVZ on devnet
Suggested follow-up questions or actions:`

type Synthesizer struct {
	llm providers.CompletionProvider
	log *zap.Logger
}

// New accepts a nil llm, in which case replies stay deterministic.
func New(llm providers.CompletionProvider, log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{llm: llm, log: log}
}

// Narrate produces the user-facing reply for a dispatch result. Failed
// results carry their message through verbatim so the exact rejection
// texts (airdrop caps, insufficient balance) reach the user unaltered.
func (s *Synthesizer) Narrate(ctx context.Context, res dispatch.Result) string {
	if res.Err != nil {
		return res.Err.Message
	}
	if res.Message != "" {
		return res.Message
	}

	rendered := Render(res)
	reply := rendered.Text
	if s.llm != nil {
		prompt := fmt.Sprintf(narratePrompt, res.Network, rendered.Text)
		out, err := s.llm.Complete(ctx, prompt, narrateTemperature)
		if err != nil {
			s.log.Warn("narration model failed, using deterministic reply", zap.Error(err))
		} else if strings.TrimSpace(out) != "" {
			reply = strings.TrimSpace(out)
		}
	}

	// The raw transaction list is appended verbatim after the narration so
	// signatures survive any paraphrasing by the model.
	if rendered.TransactionBlock != "" {
		reply = reply + "\n\nHere is the full list of transactions:\n" + rendered.TransactionBlock
	}
	return reply
}

// FollowUps suggests what the user might ask next, based on the last reply.
func (s *Synthesizer) FollowUps(ctx context.Context, lastReply string) ([]string, error) {
	if s.llm == nil {
		return nil, nil
	}
	out, err := s.llm.Complete(ctx, fmt.Sprintf(followUpPrompt, lastReply), followUpTemperature)
	if err != nil {
		return nil, err
	}

	var suggestions []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
		if line == "" {
			continue
		}
		suggestions = append(suggestions, line)
		if len(suggestions) == maxFollowUps {
			break
		}
	}
	return suggestions, nil
}

// Rendered is the deterministic form of a result: the text handed to the
// narration model, plus the raw transaction block kept out of its reach.
type Rendered struct {
	Text             string
	TransactionBlock string
}

func Render(res dispatch.Result) Rendered {
	switch {
	case res.Balance != nil:
		b := res.Balance
		return Rendered{Text: fmt.Sprintf("Balance of %s on %s: %s SOL", b.Address, b.Network, id.FormatSOL(b.SOL))}

	case res.Transactions != nil:
		list := res.Transactions
		if list.Empty {
			return Rendered{Text: fmt.Sprintf("No transactions found for %s on the %s network.", list.Address, list.Network)}
		}
		text := fmt.Sprintf("Summary of %d transactions on the %s network.", len(list.Items), list.Network)
		if res.Kind == intent.KindGenerateSummary {
			text += "\n" + summaryStats(list)
		}
		return Rendered{Text: text, TransactionBlock: transactionBlock(list)}

	case res.Detail != nil:
		return Rendered{Text: detailText(res)}

	case res.Balances != nil:
		var sb strings.Builder
		fmt.Fprintf(&sb, "Balances of %s on %s:\n", res.Balances.Address, res.Balances.Network)
		fmt.Fprintf(&sb, "SOL: %s\n", id.FormatSOL(res.Balances.SOL))
		for _, token := range res.Balances.Tokens {
			fmt.Fprintf(&sb, "%s: %g\n", token.Symbol, token.Amount)
		}
		return Rendered{Text: strings.TrimRight(sb.String(), "\n")}

	case res.Airdrop != nil:
		a := res.Airdrop
		text := fmt.Sprintf("Airdrop of %g SOL requested for %s on %s. Transaction signature: %s.", a.AmountSOL, a.Address, a.Network, a.Signature)
		switch a.Confirmation {
		case model.ConfirmationConfirmed:
			text += " The airdrop has been confirmed."
		case model.ConfirmationUnconfirmed:
			text += " The airdrop was sent but is not yet confirmed. It should land shortly; check the signature if it does not."
		}
		return Rendered{Text: text}

	case res.Transfer != nil:
		p := res.Transfer
		return Rendered{Text: fmt.Sprintf("Transaction created to send %g SOL from %s to %s on %s. Sign and submit it with your wallet to complete the transfer.", p.AmountSOL, p.Sender, p.Recipient, p.Network)}

	case res.Quote != nil:
		q := res.Quote
		text := fmt.Sprintf("Swap quote on %s: %g %s for approximately %g %s via %s (price impact %.4f%%).", q.Network, q.InAmount, q.FromSymbol, q.OutAmount, q.ToSymbol, q.Route, q.PriceImpactPct)
		if q.NeedsApproval {
			text += " This quote requires your confirmation before the swap is executed."
		}
		return Rendered{Text: text}

	case res.Price != nil:
		p := res.Price
		return Rendered{Text: fmt.Sprintf("%s is trading at $%.2f USD, %+.2f%% over the last 24 hours.", p.Symbol, p.PriceUSD, p.Change24hPct)}
	}
	return Rendered{Text: res.Message}
}

func transactionBlock(list *model.TransactionList) string {
	entries := make([]string, 0, len(list.Items))
	for i, tx := range list.Items {
		entries = append(entries, fmt.Sprintf("Transaction %d:\nSignature: %s\nTime: %s\nStatus: %s\nFee: %g\nAmount: %g\nType: %s",
			i+1, tx.Signature, tx.Time, tx.Status, tx.FeeSOL, tx.AmountSOL, tx.Type))
	}
	return strings.Join(entries, "\n")
}

// summaryStats aggregates a history into headline figures so the narration
// has real numbers to work with instead of a bare list.
func summaryStats(list *model.TransactionList) string {
	var succeeded, failed int
	var fees, moved, largest float64
	typeCounts := make(map[string]int)
	for _, tx := range list.Items {
		switch tx.Status {
		case "Success":
			succeeded++
		case "Failed":
			failed++
		}
		fees += tx.FeeSOL
		moved += tx.AmountSOL
		if tx.AmountSOL > largest {
			largest = tx.AmountSOL
		}
		typeCounts[tx.Type]++
	}
	// Break type-count ties by list order so the figure is stable.
	frequent := ""
	best := 0
	for _, tx := range list.Items {
		if c := typeCounts[tx.Type]; c > best {
			best, frequent = c, tx.Type
		}
	}
	return fmt.Sprintf("Succeeded: %d, Failed: %d, Total fees: %s SOL, Total moved: %s SOL, Largest: %s SOL, Most frequent type: %s",
		succeeded, failed, id.FormatSOL(fees), id.FormatSOL(moved), id.FormatSOL(largest), frequent)
}

func detailText(res dispatch.Result) string {
	d := res.Detail
	accounts := make([]string, 0, len(d.Accounts))
	for _, acc := range d.Accounts {
		accounts = append(accounts, acc.Pubkey)
	}
	changes := make([]string, 0, len(d.BalanceChanges))
	for _, change := range d.BalanceChanges {
		changes = append(changes, fmt.Sprintf("%s: %s SOL", change.Account, id.FormatSOL(change.DeltaSOL)))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Transaction Details on %s:\n", d.Network)
	fmt.Fprintf(&sb, "Signature: %s\n", d.Signature)
	fmt.Fprintf(&sb, "Block Time: %s\n", d.Time)
	fmt.Fprintf(&sb, "Slot: %d\n", d.Slot)
	fmt.Fprintf(&sb, "Fee: %s\n", id.FormatSOL(d.FeeSOL))
	fmt.Fprintf(&sb, "Status: %s\n", d.Status)
	fmt.Fprintf(&sb, "Instructions: %s\n", strings.Join(d.Instructions, ", "))
	fmt.Fprintf(&sb, "Accounts Involved: %s\n", strings.Join(accounts, ", "))
	fmt.Fprintf(&sb, "Balance Changes: %s", strings.Join(changes, ", "))
	if len(d.Logs) > 0 {
		fmt.Fprintf(&sb, "\nLogs: %s", strings.Join(d.Logs, "\n"))
	}
	return sb.String()
}

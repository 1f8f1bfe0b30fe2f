// Package pipeline chains classification, resolution, dispatch, and
// synthesis into the single chat entry point shared by the CLI and the
// HTTP server.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/Divyanshu11011/BlockTalk/internal/dispatch"
	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/intent"
	"github.com/Divyanshu11011/BlockTalk/internal/memory"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
	"github.com/Divyanshu11011/BlockTalk/internal/synth"
)

type Pipeline struct {
	classifier *intent.Classifier
	dispatcher *dispatch.Dispatcher
	synth      *synth.Synthesizer
	mem        *memory.Log
	log        *zap.Logger
}

func New(classifier *intent.Classifier, dispatcher *dispatch.Dispatcher, s *synth.Synthesizer, mem *memory.Log, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{classifier: classifier, dispatcher: dispatcher, synth: s, mem: mem, log: log}
}

// Handle answers one chat message. Only classification failures surface as
// errors; everything downstream becomes a narrated reply, so the caller can
// always show something.
func (p *Pipeline) Handle(ctx context.Context, text, callerWallet string) (model.ChatResponse, error) {
	raw, err := p.classifier.Classify(ctx, text)
	if err != nil {
		return model.ChatResponse{}, err
	}
	record := intent.Parse(raw)
	p.log.Debug("request classified",
		zap.String("kind", record.Kind.String()),
		zap.String("wallet_type", string(record.WalletType)))

	var result dispatch.Result
	rctx, err := intent.Resolve(record, callerWallet)
	if err != nil {
		coded, ok := clierr.As(err)
		if !ok {
			coded = clierr.Wrap(clierr.CodeInternal, "resolve request", err)
		}
		result = dispatch.Result{Kind: record.Kind, Network: rctx.Network, Err: coded}
	} else {
		result = p.dispatcher.Dispatch(ctx, record, rctx)
	}
	if result.Failed() {
		p.log.Info("action failed",
			zap.String("kind", record.Kind.String()),
			zap.Int("code", int(result.Err.Code)),
			zap.String("message", result.Err.Message))
	}

	reply := p.synth.Narrate(ctx, result)
	if p.mem != nil {
		p.mem.Append(text, reply)
	}

	response := model.ChatResponse{
		Narrative: reply,
		Action:    record.Kind.String(),
		Network:   result.Network.String(),
		Price:     result.Price,
		Quote:     result.Quote,
	}
	if result.Transfer != nil {
		response.UnsignedTransaction = result.Transfer.Unsigned
	}
	return response, nil
}

// FollowUps suggests next messages based on the last reply. The explicit
// argument wins; otherwise the conversation log supplies it.
func (p *Pipeline) FollowUps(ctx context.Context, lastReply string) (model.FollowUps, error) {
	if lastReply == "" && p.mem != nil {
		if entry, ok := p.mem.Last(); ok {
			lastReply = entry.Output
		}
	}
	if lastReply == "" {
		return model.FollowUps{Suggestions: []string{}}, nil
	}
	suggestions, err := p.synth.FollowUps(ctx, lastReply)
	if err != nil {
		return model.FollowUps{}, err
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return model.FollowUps{Suggestions: suggestions}, nil
}

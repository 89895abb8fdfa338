package pipeline

import (
	"context"
	"log/slog"
)

// Executor performs effects against the remote service.
type Executor struct {
	remote   Remote
	resolver *Resolver
	logger   *slog.Logger
}

// NewExecutor creates an Executor. logger may be nil.
func NewExecutor(r Remote, resolver *Resolver, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		remote:   r,
		resolver: resolver,
		logger:   logger,
	}
}

// Execute performs eff and returns the resulting event. It blocks on the
// network and must not run on the Machine's goroutine. Notice effects
// produce no event and return nil.
func (e *Executor) Execute(ctx context.Context, eff Effect) Event {
	switch eff := eff.(type) {
	case EncodeCall:
		ids, err := e.remote.Encode(ctx, eff.Corpus, eff.Text)
		return EncodeCompleted{
			Generation: eff.Generation,
			Text:       eff.Text,
			Corpus:     eff.Corpus,
			IDs:        ids,
			Err:        err,
		}

	case ResolveCall:
		return TokensResolved{
			Generation: eff.Generation,
			Tokens:     e.resolver.Resolve(ctx, eff.Corpus, eff.IDs),
		}

	case VerifyCall:
		text, err := e.remote.Decode(ctx, eff.Corpus, eff.IDs)
		if err != nil {
			e.logger.Debug("verification decode failed", "generation", eff.Generation, "err", err)
		}
		return VerificationCompleted{Generation: eff.Generation, Text: text, Err: err}

	case DecodeCall:
		text, err := e.remote.Decode(ctx, eff.Corpus, eff.IDs)
		return DecodeCompleted{Seq: eff.Seq, IDs: eff.IDs, Text: text, Err: err}

	default:
		return nil
	}
}

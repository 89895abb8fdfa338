package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru"

	"github.com/born-ml/vani/internal/parallel"
	"github.com/born-ml/vani/internal/remote"
)

// DefaultCacheSize is the number of per-token decode results kept.
const DefaultCacheSize = 4096

// Remote is the tokenization service as seen by the pipeline.
type Remote interface {
	Encode(ctx context.Context, corpus remote.Corpus, text string) ([]int32, error)
	Decode(ctx context.Context, corpus remote.Corpus, ids []int32) (string, error)
}

type cacheKey struct {
	corpus remote.Corpus
	id     int32
}

// Resolver looks up the display text of each token with one decode call
// per token ID.
type Resolver struct {
	remote Remote
	cfg    parallel.Config
	cache  *lru.Cache // cacheKey -> string, nil when disabled
	logger *slog.Logger
}

// NewResolver creates a Resolver. cacheSize <= 0 disables caching.
func NewResolver(r Remote, cfg parallel.Config, cacheSize int, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	res := &Resolver{
		remote: r,
		cfg:    cfg,
		logger: logger,
	}
	if cacheSize > 0 {
		cache, err := lru.New(cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create token cache: %w", err)
		}
		res.cache = cache
	}
	return res, nil
}

// Resolve decodes every id on its own and joins the results in order.
//
// A failed or empty decode yields the placeholder "<id>"; Resolve itself
// never fails and always returns len(ids) records.
func (r *Resolver) Resolve(ctx context.Context, corpus remote.Corpus, ids []int32) []TokenRecord {
	records := make([]TokenRecord, len(ids))
	parallel.For(len(ids), func(i int) {
		records[i] = r.resolveOne(ctx, corpus, ids[i])
	}, r.cfg)
	return records
}

func (r *Resolver) resolveOne(ctx context.Context, corpus remote.Corpus, id int32) TokenRecord {
	key := cacheKey{corpus: corpus, id: id}
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			return TokenRecord{ID: id, Text: v.(string), Resolved: true} //nolint:forcetypeassert // Only strings are stored.
		}
	}

	text, err := r.remote.Decode(ctx, corpus, []int32{id})
	if err != nil || text == "" {
		if err != nil {
			r.logger.Debug("token decode failed", "id", id, "err", err)
		}
		return TokenRecord{ID: id, Text: Placeholder(id), Resolved: true, Fallback: true}
	}

	if r.cache != nil {
		r.cache.Add(key, text)
	}
	return TokenRecord{ID: id, Text: text, Resolved: true}
}

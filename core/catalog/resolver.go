package catalog

import (
	"context"

	"ajnadfm/logger"
	"ajnadfm/model"
)

// Source is one independent catalog lookup. Implementations must treat
// the search term as optional and cap their results at limit.
type Source func(ctx context.Context, q string, page, limit int) ([]model.Nasheed, error)

// Resolver races independent sources and returns the best-available
// listing: the first source to complete with a non-empty result wins.
type Resolver struct {
	sources []Source
}

// NewResolver builds a resolver over the given sources.
func NewResolver(sources ...Source) *Resolver {
	return &Resolver{sources: sources}
}

// Resolve fans the lookup out to every source and returns the first
// non-empty result to arrive. If every source completes empty, the
// last-seen empty result is returned. A source error degrades to an
// empty result for that source only; it never fails the resolution.
func (r *Resolver) Resolve(ctx context.Context, q string, page, limit int) []model.Nasheed {
	if len(r.sources) == 0 {
		return nil
	}

	// Buffered so losers can complete after the caller has moved on.
	results := make(chan []model.Nasheed, len(r.sources))
	for _, src := range r.sources {
		go func(src Source) {
			rows, err := src(ctx, q, page, limit)
			if err != nil {
				logger.Debug("catalog source failed", logger.ErrorField(err))
				rows = nil
			}
			results <- rows
		}(src)
	}

	var last []model.Nasheed
	for i := 0; i < len(r.sources); i++ {
		select {
		case rows := <-results:
			if len(rows) > 0 {
				return rows
			}
			last = rows
		case <-ctx.Done():
			return last
		}
	}
	return last
}

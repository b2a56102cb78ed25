package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// maxEnrichConcurrency bounds the per-item calls in flight for one collection.
const maxEnrichConcurrency = 8

// EnrichmentError reports a failed per-item secondary call. It is logged and
// replaced with a fallback, never surfaced as the collection's error.
type EnrichmentError struct {
	Item string
	Err  error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrich item %s: %v", e.Item, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// Enrichment tracks a batch of per-item calls started by Enrich.
type Enrichment struct {
	done chan struct{}
}

// Done is closed once every item has settled.
func (e *Enrichment) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until every item has settled or ctx ends.
func (e *Enrichment) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enrich starts one independent call per id and returns without waiting.
// apply runs as each call settles, in completion order; a failed call is
// applied with fallback instead.
func Enrich[V any](ctx context.Context, ids []string, call func(context.Context, string) (V, error), fallback V, apply func(string, V), logger *slog.Logger) *Enrichment {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Enrichment{done: make(chan struct{})}

	go func() {
		defer close(e.done)

		var g errgroup.Group
		g.SetLimit(maxEnrichConcurrency)
		for _, id := range ids {
			g.Go(func() error {
				v, err := call(ctx, id)
				if err != nil {
					enrichErr := &EnrichmentError{Item: id, Err: err}
					logger.Warn("enrichment failed, using fallback", "item", id, "error", enrichErr)
					v = fallback
				}
				apply(id, v)
				return nil
			})
		}
		_ = g.Wait()
	}()

	return e
}

package fetch

import "context"

type cacheKey struct{}

// WithCache stores the cache in context so presentation code can reach the
// instance that owns its keys.
func WithCache(ctx context.Context, c *Cache) context.Context {
	return context.WithValue(ctx, cacheKey{}, c)
}

// FromContext returns the cache from context, if present.
func FromContext(ctx context.Context) (*Cache, bool) {
	c, ok := ctx.Value(cacheKey{}).(*Cache)
	return c, ok && c != nil
}

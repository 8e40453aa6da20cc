package cache

import (
	"context"
	"encoding/json"
)

// Remember returns the value cached under key, or computes, caches and
// returns it. The boolean reports whether the value came from the cache.
//
// Only compute can make Remember fail. A cached payload that no longer
// decodes into T is dropped and recomputed, and a failed write is logged and
// otherwise ignored.
func Remember[T any](ctx context.Context, c *Cache, key string, compute func(context.Context) (T, error)) (T, bool, error) {
	if raw, ok := c.Get(key); ok {
		var v T
		err := json.Unmarshal(raw, &v)
		if err == nil {
			return v, true, nil
		}
		c.logger.Debug().Err(err).Str("key", short(key)).Msg("cached payload does not match result type")
		_ = c.Delete(key)
	}

	v, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	if err := c.PutValue(key, v); err != nil {
		c.logger.Warn().Err(err).Str("key", short(key)).Msg("result not cached")
	}
	return v, false, nil
}

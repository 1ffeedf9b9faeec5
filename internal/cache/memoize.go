// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// Key derives a deterministic cache key from a namespace, positional
// arguments, and keyword arguments. Keyword arguments are sorted by name
// so the key is independent of their order. The raw argument tokens are
// kept in the key ahead of the hash so that substring invalidation by
// identity, item, or category token keeps working.
func Key(namespace string, args []any, kwargs map[string]any) string {
	type kv struct {
		K string `json:"k"`
		V any    `json:"v"`
	}

	pairs := make([]kv, 0, len(kwargs))
	for k, v := range kwargs {
		pairs = append(pairs, kv{K: k, V: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].K < pairs[j].K })

	payload := struct {
		Args   []any `json:"args"`
		Kwargs []kv  `json:"kwargs"`
	}{Args: args, Kwargs: pairs}

	data, err := json.Marshal(payload)
	if err != nil {
		// Unmarshalable arguments fall back to a stringified key.
		return fmt.Sprintf("%s:%v:%v", namespace, args, kwargs)
	}

	sum := sha256.Sum256(data)

	tokens := make([]string, 0, len(args)+len(pairs))
	for _, a := range args {
		tokens = append(tokens, fmt.Sprintf("%v", a))
	}
	for _, p := range pairs {
		tokens = append(tokens, fmt.Sprintf("%v", p.V))
	}

	key := namespace
	for _, t := range tokens {
		key += ":" + t
	}
	return fmt.Sprintf("%s:%x", key, sum[:16])
}

// Through returns the cached value for key, or runs load and caches its
// result for ttl (the instance default when ttl <= 0 leaves no expiry;
// pass the cache's configured TTL for the usual behavior).
//
// The loader is always invoked without the cache lock held, so a slow or
// suspending load never blocks other cache users. Load errors are
// returned as-is and nothing is cached.
func Through[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.Set(key, v)
	return v, nil
}

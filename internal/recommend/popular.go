// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pickplate/pickplate/internal/cache"
	"github.com/pickplate/pickplate/internal/catalog"
	"github.com/pickplate/pickplate/internal/profile"
)

// DefaultPopularLimit is how many items a popular query returns when
// the caller does not say.
const DefaultPopularLimit = 10

// PopularItem pairs a catalog item with its favorite count.
type PopularItem struct {
	Item      catalog.Item `json:"item"`
	Favorites int          `json:"favorites"`
}

// PopularList serves the most-favorited active items. Results are
// memoized in a dedicated cache instance; freshness is bounded by that
// cache's TTL, not by favorite writes.
type PopularList struct {
	store  *profile.Store
	view   catalog.View
	cache  *cache.Cache
	logger zerolog.Logger
}

// NewPopularList creates a popular-items view over the given store and
// catalog, memoized in popularCache.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPopularList(store *profile.Store, view catalog.View, popularCache *cache.Cache, logger zerolog.Logger) *PopularList {
	return &PopularList{
		store:  store,
		view:   view,
		cache:  popularCache,
		logger: logger.With().Str("component", "popular").Logger(),
	}
}

// Items returns up to limit active items ranked by favorite count,
// most favorited first, names breaking ties. Items nobody has
// favorited rank last but are not excluded.
func (p *PopularList) Items(ctx context.Context, limit int) ([]PopularItem, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}

	key := cache.Key("popular_items", []any{limit}, nil)
	return cache.Through(ctx, p.cache, key, func(ctx context.Context) ([]PopularItem, error) {
		return p.build(ctx, limit)
	})
}

func (p *PopularList) build(ctx context.Context, limit int) ([]PopularItem, error) {
	counts, err := p.store.Repo().FavoriteCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("favorite counts: %w", err)
	}

	items, err := p.view.ActiveItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("active items: %w", err)
	}

	out := make([]PopularItem, 0, len(items))
	for _, it := range items {
		out = append(out, PopularItem{Item: it, Favorites: counts[it.ID]})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Favorites != out[j].Favorites {
			return out[i].Favorites > out[j].Favorites
		}
		if out[i].Item.Name != out[j].Item.Name {
			return out[i].Item.Name < out[j].Item.Name
		}
		return out[i].Item.ID < out[j].Item.ID
	})

	if len(out) > limit {
		out = out[:limit]
	}

	p.logger.Debug().Int("items", len(out)).Int("limit", limit).Msg("popular list built")
	return out, nil
}

// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package catalog

import (
	"context"

	"github.com/pickplate/pickplate/internal/cache"
)

// CachedView fronts a View with two cache instances: one for single-item
// lookups and one for listings. Keys embed the raw id or slot token, so
// substring invalidation by item id or slot works across both.
type CachedView struct {
	next  View
	items *cache.Cache
	lists *cache.Cache
}

var _ View = (*CachedView)(nil)

// NewCachedView wraps next with the given item and listing caches.
func NewCachedView(next View, items, lists *cache.Cache) *CachedView {
	return &CachedView{next: next, items: items, lists: lists}
}

func (v *CachedView) Item(ctx context.Context, id string) (Item, error) {
	key := cache.Key("item", []any{id}, nil)
	return cache.Through(ctx, v.items, key, func(ctx context.Context) (Item, error) {
		return v.next.Item(ctx, id)
	})
}

func (v *CachedView) ItemsForSlot(ctx context.Context, slot TimeSlot) ([]Item, error) {
	key := cache.Key("items_by_slot", []any{string(slot)}, nil)
	return cache.Through(ctx, v.lists, key, func(ctx context.Context) ([]Item, error) {
		return v.next.ItemsForSlot(ctx, slot)
	})
}

func (v *CachedView) ActiveItems(ctx context.Context) ([]Item, error) {
	key := cache.Key("items_active", nil, nil)
	return cache.Through(ctx, v.lists, key, func(ctx context.Context) ([]Item, error) {
		return v.next.ActiveItems(ctx)
	})
}

// Invalidate drops every cached entry whose key contains token, across
// both caches. Callers pass an item id, a slot, or "items" to drop all
// listings.
func (v *CachedView) Invalidate(token string) int {
	return v.items.InvalidateContaining(token) + v.lists.InvalidateContaining(token)
}

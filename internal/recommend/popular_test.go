// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pickplate/pickplate/internal/cache"
	"github.com/pickplate/pickplate/internal/catalog"
	"github.com/pickplate/pickplate/internal/profile"
)

func testPopular(t *testing.T) (*PopularList, *catalog.MemoryView, *profile.Store, *cache.Cache) {
	t.Helper()

	_, _, view, store := testEngine(t)
	popularCache := cache.New("popular", 100, time.Minute, zerolog.Nop())
	return NewPopularList(store, view, popularCache, zerolog.Nop()), view, store, popularCache
}

func favorite(t *testing.T, store *profile.Store, session, itemID string) {
	t.Helper()

	err := store.RecordInteraction(context.Background(), profile.InteractionEvent{
		Identity: profile.Identity{SessionID: session},
		ItemID:   itemID,
		Type:     profile.InteractionFavorite,
	})
	if err != nil {
		t.Fatalf("favorite %s: %v", itemID, err)
	}
}

func TestPopularItemsRankedByFavoriteCount(t *testing.T) {
	popular, view, store, _ := testPopular(t)

	a := view.Put(catalog.Item{Name: "a", TimeSlot: catalog.Lunch, Active: true})
	b := view.Put(catalog.Item{Name: "b", TimeSlot: catalog.Lunch, Active: true})
	c := view.Put(catalog.Item{Name: "c", TimeSlot: catalog.Dinner, Active: true})

	favorite(t, store, "s1", b.ID)
	favorite(t, store, "s2", b.ID)
	favorite(t, store, "s3", c.ID)

	got, err := popular.Items(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("items = %d, want 3", len(got))
	}
	if got[0].Item.ID != b.ID || got[0].Favorites != 2 {
		t.Fatalf("first = %s (%d), want %s (2)", got[0].Item.Name, got[0].Favorites, b.Name)
	}
	if got[1].Item.ID != c.ID || got[1].Favorites != 1 {
		t.Fatalf("second = %s (%d), want %s (1)", got[1].Item.Name, got[1].Favorites, c.Name)
	}
	// Never-favorited items still rank, last.
	if got[2].Item.ID != a.ID || got[2].Favorites != 0 {
		t.Fatalf("third = %s (%d), want %s (0)", got[2].Item.Name, got[2].Favorites, a.Name)
	}
}

func TestPopularItemsNameBreaksTies(t *testing.T) {
	popular, view, _, _ := testPopular(t)

	view.Put(catalog.Item{Name: "zebra", TimeSlot: catalog.Lunch, Active: true})
	view.Put(catalog.Item{Name: "apple", TimeSlot: catalog.Lunch, Active: true})

	got, err := popular.Items(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Item.Name != "apple" || got[1].Item.Name != "zebra" {
		t.Fatalf("tie order wrong: %+v", got)
	}
}

func TestPopularItemsLimitAndDefault(t *testing.T) {
	popular, view, store, _ := testPopular(t)

	for i := 0; i < DefaultPopularLimit+5; i++ {
		view.Put(catalog.Item{Name: string(rune('a' + i)), TimeSlot: catalog.Lunch, Active: true})
	}
	first, _ := view.ActiveItems(context.Background())
	favorite(t, store, "s1", first[0].ID)

	got, err := popular.Items(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("items = %d, want 2", len(got))
	}
	if got[0].Item.ID != first[0].ID {
		t.Fatalf("first = %s, want the favorited item", got[0].Item.Name)
	}

	// limit <= 0 falls back to the default.
	got, err = popular.Items(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != DefaultPopularLimit {
		t.Fatalf("items = %d, want %d", len(got), DefaultPopularLimit)
	}
}

func TestPopularItemsExcludesInactive(t *testing.T) {
	popular, view, store, _ := testPopular(t)

	active := view.Put(catalog.Item{Name: "up", TimeSlot: catalog.Lunch, Active: true})
	retired := view.Put(catalog.Item{Name: "gone", TimeSlot: catalog.Lunch, Active: false})
	favorite(t, store, "s1", active.ID)

	got, err := popular.Items(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("items = %d, want 1", len(got))
	}
	if got[0].Item.ID == retired.ID {
		t.Fatal("inactive item must not appear")
	}
}

func TestPopularItemsMemoized(t *testing.T) {
	popular, view, store, popularCache := testPopular(t)

	item := view.Put(catalog.Item{Name: "a", TimeSlot: catalog.Lunch, Active: true})
	other := view.Put(catalog.Item{Name: "b", TimeSlot: catalog.Lunch, Active: true})
	favorite(t, store, "s1", item.ID)

	first, err := popular.Items(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A favorite landing after the first query does not reorder the
	// cached list until the entry expires or is cleared.
	favorite(t, store, "s2", other.ID)
	favorite(t, store, "s3", other.ID)

	cached, err := popular.Items(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached[0].Item.ID != first[0].Item.ID {
		t.Fatal("expected the memoized list to be served")
	}
	if popularCache.Stats().Hits == 0 {
		t.Fatal("expected a cache hit on the second query")
	}

	popularCache.Clear()

	fresh, err := popular.Items(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh[0].Item.ID != other.ID || fresh[0].Favorites != 2 {
		t.Fatalf("first after clear = %s (%d), want %s (2)", fresh[0].Item.Name, fresh[0].Favorites, other.Name)
	}
}

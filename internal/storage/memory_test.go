// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/pickplate/pickplate/internal/catalog"
	"github.com/pickplate/pickplate/internal/profile"
)

func TestMemoryProfileIsolation(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	p := profile.NewProfile(profile.Identity{UserID: "u1"}, profile.GroupA)
	if err := repo.PutProfile(ctx, p); err != nil {
		t.Fatalf("put profile: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	p.Attributes[catalog.AttrSpicy] = 0.99

	got, found, err := repo.GetProfile(ctx, "user:u1")
	if err != nil || !found {
		t.Fatalf("get profile: found=%v err=%v", found, err)
	}
	if got.Attributes[catalog.AttrSpicy] == 0.99 {
		t.Fatal("expected stored profile to be isolated from caller mutation")
	}

	// And mutating the returned copy must not leak either.
	got.Attributes[catalog.AttrMeat] = 0.01
	again, _, err := repo.GetProfile(ctx, "user:u1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if again.Attributes[catalog.AttrMeat] == 0.01 {
		t.Fatal("expected returned profile to be a copy")
	}
}

func TestMemoryExposureWindows(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	base := time.Now()
	for i, sid := range []string{"s1", "s2", "s1"} {
		rec := profile.ExposureRecord{
			ID:       "e" + string(rune('0'+i)),
			Identity: profile.Identity{SessionID: sid},
			Strategy: "simple",
			At:       base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.AppendExposure(ctx, rec); err != nil {
			t.Fatalf("append exposure: %v", err)
		}
	}

	recent, err := repo.RecentExposures(ctx, "session:s1", 5)
	if err != nil {
		t.Fatalf("recent exposures: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d, want 2 for s1", len(recent))
	}
	if recent[0].ID != "e2" {
		t.Fatalf("first = %s, want e2 (newest)", recent[0].ID)
	}

	global, err := repo.GlobalRecentExposures(ctx, 2)
	if err != nil {
		t.Fatalf("global exposures: %v", err)
	}
	if len(global) != 2 || global[0].ID != "e2" {
		t.Fatalf("global = %+v, want newest-first window of 2", global)
	}
}

func TestMemoryFavoriteCounts(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.AddFavorite(ctx, "user:u1", "item-a"); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if err := repo.AddFavorite(ctx, "user:u2", "item-a"); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if err := repo.AddFavorite(ctx, "user:u2", "item-b"); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	counts, err := repo.FavoriteCounts(ctx)
	if err != nil {
		t.Fatalf("favorite counts: %v", err)
	}
	if counts["item-a"] != 2 || counts["item-b"] != 1 || len(counts) != 2 {
		t.Fatalf("counts = %v, want item-a:2 item-b:1", counts)
	}
}

// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/pickplate/pickplate/internal/catalog"
	"github.com/pickplate/pickplate/internal/profile"
)

func seedSlot(view *catalog.MemoryView, slot catalog.TimeSlot, n int) []catalog.Item {
	items := make([]catalog.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, view.Put(catalog.Item{
			Name:     string(rune('a' + i)),
			TimeSlot: slot,
			Rating:   4.0,
			Active:   true,
		}))
	}
	return items
}

func TestRecommendRequiresIdentity(t *testing.T) {
	e, _, _, _ := testEngine(t)

	_, err := e.Recommend(context.Background(), Request{Mode: ModeSimple, TimeSlot: catalog.Lunch})
	if !errors.Is(err, profile.ErrNoIdentity) {
		t.Fatalf("error = %v, want ErrNoIdentity", err)
	}
}

func TestRecommendUnknownMode(t *testing.T) {
	e, _, _, _ := testEngine(t)

	_, err := e.Recommend(context.Background(), Request{
		Mode: "psychic", Identity: profile.Identity{UserID: "u1"},
	})
	if !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("error = %v, want ErrUnknownMode", err)
	}
}

func TestRecommendInvalidTimeSlot(t *testing.T) {
	e, _, _, _ := testEngine(t)

	_, err := e.Recommend(context.Background(), Request{
		Mode: ModeSimple, Identity: profile.Identity{UserID: "u1"}, TimeSlot: "brunch",
	})
	if !errors.Is(err, ErrInvalidTimeSlot) {
		t.Fatalf("error = %v, want ErrInvalidTimeSlot", err)
	}
}

func TestSimpleModeRanksSlotItems(t *testing.T) {
	e, repo, view, _ := testEngine(t)
	seedSlot(view, catalog.Lunch, 3)
	seedSlot(view, catalog.Dinner, 2)

	resp, err := e.Recommend(context.Background(), Request{
		Mode: ModeSimple, Identity: profile.Identity{UserID: "u1"},
		TimeSlot: catalog.Lunch, Limit: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Items) != 3 {
		t.Fatalf("items = %d, want 3 lunch items", len(resp.Items))
	}
	for _, s := range resp.Items {
		if s.Item.TimeSlot != catalog.Lunch {
			t.Fatalf("item %s in slot %s, want lunch only", s.Item.Name, s.Item.TimeSlot)
		}
		if s.Score < 0 || s.Score > 1 {
			t.Fatalf("score %f outside [0, 1]", s.Score)
		}
	}
	for i := 1; i < len(resp.Items); i++ {
		if resp.Items[i].Score > resp.Items[i-1].Score {
			t.Fatal("expected descending score order")
		}
	}

	if resp.Group != profile.GroupA {
		t.Fatalf("group = %s, want A", resp.Group)
	}
	if resp.Strategy != StrategySimple {
		t.Fatalf("strategy = %s, want simple", resp.Strategy)
	}

	exposures, err := repo.RecentExposures(context.Background(), "user:u1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exposures) != 1 {
		t.Fatalf("exposures = %d, want 1", len(exposures))
	}
	if exposures[0].Strategy != StrategySimple {
		t.Fatalf("exposure strategy = %s, want simple", exposures[0].Strategy)
	}
	if len(exposures[0].ItemIDs) != 3 {
		t.Fatalf("exposed ids = %d, want 3", len(exposures[0].ItemIDs))
	}
}

func TestRepeatExclusion(t *testing.T) {
	e, _, view, _ := testEngine(t)
	seedSlot(view, catalog.Lunch, 6)
	id := profile.Identity{UserID: "u1"}

	first, err := e.Recommend(context.Background(), Request{
		Mode: ModeSimple, Identity: id, TimeSlot: catalog.Lunch, Limit: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Items) != 3 {
		t.Fatalf("first items = %d, want 3", len(first.Items))
	}

	shown := make(map[string]bool)
	for _, s := range first.Items {
		shown[s.Item.ID] = true
	}

	second, err := e.Recommend(context.Background(), Request{
		Mode: ModeSimple, Identity: id, TimeSlot: catalog.Lunch, Limit: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range second.Items {
		if shown[s.Item.ID] {
			t.Fatalf("item %s repeated within the exclusion window", s.Item.Name)
		}
	}
}

func TestRepeatExclusionSkippedWhenPoolEmpties(t *testing.T) {
	e, _, view, _ := testEngine(t)
	seedSlot(view, catalog.Lunch, 2)
	id := profile.Identity{UserID: "u1"}

	// First request shows everything the slot has.
	_, err := e.Recommend(context.Background(), Request{
		Mode: ModeSimple, Identity: id, TimeSlot: catalog.Lunch, Limit: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// With every candidate excluded, exclusion is skipped entirely.
	resp, err := e.Recommend(context.Background(), Request{
		Mode: ModeSimple, Identity: id, TimeSlot: catalog.Lunch, Limit: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2 (exclusion skipped)", len(resp.Items))
	}
}

func TestQuizRequiredFilterSoupBothWays(t *testing.T) {
	e, _, view, _ := testEngine(t)
	view.Put(catalog.Item{Name: "soup dish", HasSoup: true, TimeSlot: catalog.Dinner, Active: true})
	view.Put(catalog.Item{Name: "dry dish", TimeSlot: catalog.Dinner, Active: true})

	id := profile.Identity{UserID: "u1"}

	// Asking for soup keeps only soup dishes.
	resp, err := e.Recommend(context.Background(), Request{
		Mode: ModeQuiz, Identity: id, Limit: 10,
		Answers: map[string]string{"food_type": "국물요리"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Item.Name != "soup dish" {
		t.Fatalf("items = %+v, want only the soup dish", resp.Items)
	}

	// Not asking for soup excludes every soup dish.
	resp, err = e.Recommend(context.Background(), Request{
		Mode: ModeQuiz, Identity: profile.Identity{UserID: "u2"}, Limit: 10,
		Answers: map[string]string{"taste": "spicy"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range resp.Items {
		if s.Item.HasSoup {
			t.Fatalf("item %s has soup but soup was not requested", s.Item.Name)
		}
	}
}

func TestQuizRequiredFilterStrictAnd(t *testing.T) {
	e, _, view, _ := testEngine(t)
	view.Put(catalog.Item{Name: "match", Vegetarian: true, TimeSlot: catalog.Lunch, Category: catalog.Category{Country: "Korea"}, Active: true})
	view.Put(catalog.Item{Name: "wrong slot", Vegetarian: true, TimeSlot: catalog.Dinner, Category: catalog.Category{Country: "Korea"}, Active: true})
	view.Put(catalog.Item{Name: "not vegetarian", TimeSlot: catalog.Lunch, Category: catalog.Category{Country: "Korea"}, Active: true})
	view.Put(catalog.Item{Name: "wrong country", Vegetarian: true, TimeSlot: catalog.Lunch, Category: catalog.Category{Country: "Japan"}, Active: true})

	resp, err := e.Recommend(context.Background(), Request{
		Mode: ModeQuiz, Identity: profile.Identity{UserID: "u1"}, Limit: 10,
		Answers: map[string]string{
			"time_slot": "lunch",
			"diet":      "vegetarian",
			"country":   "Korea",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Item.Name != "match" {
		t.Fatalf("items = %+v, want only the full match", resp.Items)
	}
}

func TestQuizUnsatisfiableFilterYieldsEmptyResult(t *testing.T) {
	e, repo, view, _ := testEngine(t)
	view.Put(catalog.Item{Name: "dry dish", TimeSlot: catalog.Lunch, Active: true})

	resp, err := e.Recommend(context.Background(), Request{
		Mode: ModeQuiz, Identity: profile.Identity{UserID: "u1"}, Limit: 10,
		Answers: map[string]string{"food_type": "soup"},
	})
	if err != nil {
		t.Fatalf("empty result must not be an error, got %v", err)
	}
	if len(resp.Items) != 0 {
		t.Fatalf("items = %d, want 0", len(resp.Items))
	}
	if resp.Group != profile.GroupA {
		t.Fatal("empty response still carries the experiment group")
	}

	// Nothing shown means nothing recorded.
	exposures, err := repo.RecentExposures(context.Background(), "user:u1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exposures) != 0 {
		t.Fatalf("exposures = %d, want 0 for an empty result", len(exposures))
	}
}

func TestQuizSynthesizesSelectionEvents(t *testing.T) {
	e, _, view, store := testEngine(t)
	view.Put(catalog.Item{Name: "spicy dish", Spicy: true, TimeSlot: catalog.Lunch, Active: true})

	id := profile.Identity{UserID: "u1"}
	resp, err := e.Recommend(context.Background(), Request{
		Mode: ModeQuiz, Identity: id, Limit: 5,
		Answers: map[string]string{"taste": "spicy"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(resp.Items))
	}

	events, err := store.Repo().ItemEvents(context.Background(), resp.Items[0].Item.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 synthesized selection", len(events))
	}
	if events[0].Type != profile.InteractionRecommendSelect {
		t.Fatalf("type = %s, want recommend_select", events[0].Type)
	}
	if events[0].Strength != e.cfg.SynthStrength {
		t.Fatalf("strength = %f, want %f", events[0].Strength, e.cfg.SynthStrength)
	}

	// The synthesized event feeds the profile.
	p, err := store.GetOrCreate(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TotalInteractions != 1 {
		t.Fatalf("total interactions = %d, want 1", p.TotalInteractions)
	}
}

func TestQuizPersistsAnswersOnExposure(t *testing.T) {
	e, repo, view, _ := testEngine(t)
	view.Put(catalog.Item{Name: "spicy dish", Spicy: true, TimeSlot: catalog.Lunch, Active: true})

	answers := map[string]string{"taste": "매운맛"}
	_, err := e.Recommend(context.Background(), Request{
		Mode: ModeQuiz, Identity: profile.Identity{UserID: "u1"}, Limit: 5,
		Answers: answers,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exposures, err := repo.RecentExposures(context.Background(), "user:u1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exposures) != 1 {
		t.Fatalf("exposures = %d, want 1", len(exposures))
	}
	if exposures[0].Strategy != StrategyQuizHybrid {
		t.Fatalf("strategy = %s, want quiz_hybrid", exposures[0].Strategy)
	}
	if exposures[0].Answers["taste"] != "매운맛" {
		t.Fatalf("answers = %v, want raw answers preserved", exposures[0].Answers)
	}
}

func TestDiversifyLimitAndOrder(t *testing.T) {
	e, _, _, _ := testEngine(t)

	scored := make([]ScoredItem, 0, 10)
	for i := 0; i < 10; i++ {
		scored = append(scored, ScoredItem{
			Item:  catalog.Item{ID: string(rune('a' + i))},
			Score: float64(i) / 10,
		})
	}

	picked := e.diversify(scored, 3)
	if len(picked) != 3 {
		t.Fatalf("picked = %d, want 3", len(picked))
	}
	for i := 1; i < len(picked); i++ {
		if picked[i].Score > picked[i-1].Score {
			t.Fatal("expected picked items in descending score order")
		}
	}

	// Sampling stays within the top pool of CandidatePool*limit.
	for _, s := range picked {
		if s.Score < 0.4 {
			t.Fatalf("picked item with score %f from outside the top pool", s.Score)
		}
	}
}

func TestDiversifySmallPoolReturnsAll(t *testing.T) {
	e, _, _, _ := testEngine(t)

	scored := []ScoredItem{
		{Item: catalog.Item{ID: "a"}, Score: 0.9},
		{Item: catalog.Item{ID: "b"}, Score: 0.5},
	}

	picked := e.diversify(scored, 5)
	if len(picked) != 2 {
		t.Fatalf("picked = %d, want all 2", len(picked))
	}
	if picked[0].Item.ID != "a" {
		t.Fatal("expected highest score first")
	}
}

func TestCanceledContextWritesNothing(t *testing.T) {
	e, repo, view, _ := testEngine(t)
	seedSlot(view, catalog.Lunch, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Recommend(ctx, Request{
		Mode: ModeSimple, Identity: profile.Identity{UserID: "u1"},
		TimeSlot: catalog.Lunch, Limit: 2,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}

	exposures, err := repo.RecentExposures(context.Background(), "user:u1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exposures) != 0 {
		t.Fatalf("exposures = %d, want 0 after cancellation", len(exposures))
	}
}

func TestCollaborativeMode(t *testing.T) {
	e, repo, view, store := testEngine(t)
	ctx := context.Background()

	liked := view.Put(catalog.Item{Name: "neighbor favorite", TimeSlot: catalog.Dinner, Active: true})
	shared := view.Put(catalog.Item{Name: "already own", TimeSlot: catalog.Dinner, Active: true})

	caller := profile.Identity{UserID: "caller"}
	if _, err := store.GetOrCreate(ctx, caller); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.AddFavorite(ctx, caller.Key(), shared.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	neighbor := profile.NewProfile(profile.Identity{UserID: "neighbor"}, profile.GroupB)
	neighbor.TotalInteractions = 10
	if err := repo.PutProfile(ctx, neighbor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, itemID := range []string{liked.ID, shared.ID} {
		if err := repo.AddFavorite(ctx, "user:neighbor", itemID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	resp, err := e.Recommend(ctx, Request{Mode: ModeCollaborative, Identity: caller, Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Items) != 1 {
		t.Fatalf("items = %d, want 1 (own favorite excluded)", len(resp.Items))
	}
	if resp.Items[0].Item.ID != liked.ID {
		t.Fatalf("item = %s, want the neighbor favorite", resp.Items[0].Item.Name)
	}
	if resp.Items[0].Score <= 0 || resp.Items[0].Score > 1 {
		t.Fatalf("score = %f outside (0, 1]", resp.Items[0].Score)
	}
	if resp.Items[0].Reason != "liked by 1 similar diners" {
		t.Fatalf("reason = %q", resp.Items[0].Reason)
	}
	if resp.Strategy != StrategyCollaborative {
		t.Fatalf("strategy = %s, want collaborative", resp.Strategy)
	}

	exposures, err := repo.RecentExposures(ctx, caller.Key(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exposures) != 1 || exposures[0].Strategy != StrategyCollaborative {
		t.Fatalf("exposures = %+v, want one collaborative record", exposures)
	}
}

func TestCollaborativeModeNoNeighbors(t *testing.T) {
	e, _, _, _ := testEngine(t)

	resp, err := e.Recommend(context.Background(), Request{
		Mode: ModeCollaborative, Identity: profile.Identity{UserID: "loner"}, Limit: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Fatalf("items = %d, want 0 without neighbors", len(resp.Items))
	}
}

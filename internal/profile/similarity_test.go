// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package profile

import (
	"context"
	"math"
	"testing"

	"github.com/pickplate/pickplate/internal/catalog"
)

func TestVectorOrder(t *testing.T) {
	p := NewProfile(Identity{UserID: "u1"}, GroupA)
	p.Attributes[catalog.AttrSpicy] = 0.9
	p.Attributes[catalog.AttrMeat] = 0.1
	p.TimeSlots[catalog.Breakfast] = 0.8
	p.TimeSlots[catalog.Dinner] = 0.2

	v := p.Vector()

	if v[0] != 0.9 {
		t.Fatalf("v[0] = %f, want spicy 0.9", v[0])
	}
	if v[6] != 0.1 {
		t.Fatalf("v[6] = %f, want meat 0.1", v[6])
	}
	if v[7] != 0.8 {
		t.Fatalf("v[7] = %f, want breakfast 0.8", v[7])
	}
	if v[9] != 0.2 {
		t.Fatalf("v[9] = %f, want dinner 0.2", v[9])
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a    [VectorDim]float64
		b    [VectorDim]float64
		want float64
	}{
		{
			name: "identical non-degenerate vectors",
			a:    [VectorDim]float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5},
			b:    [VectorDim]float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5},
			want: 1.0,
		},
		{
			name: "orthogonal vectors",
			a:    [VectorDim]float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			b:    [VectorDim]float64{0, 1, 0, 0, 0, 0, 0, 0, 0, 0},
			want: 0.0,
		},
		{
			name: "zero left vector",
			a:    [VectorDim]float64{},
			b:    [VectorDim]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
			want: 0.0,
		},
		{
			name: "zero right vector",
			a:    [VectorDim]float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			b:    [VectorDim]float64{},
			want: 0.0,
		},
		{
			name: "scaled vectors stay parallel",
			a:    [VectorDim]float64{0.2, 0.4, 0, 0, 0, 0, 0, 0, 0, 0},
			b:    [VectorDim]float64{0.4, 0.8, 0, 0, 0, 0, 0, 0, 0, 0},
			want: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("cosine = %f, want %f", got, tt.want)
			}
			if got < -1 || got > 1 {
				t.Fatalf("cosine = %f outside [-1, 1]", got)
			}
		})
	}
}

func TestNeighborsFiltering(t *testing.T) {
	store, repo, _ := testStore(t)
	ctx := context.Background()

	self := NewProfile(Identity{UserID: "self"}, GroupA)
	self.TotalInteractions = 10
	if err := repo.PutProfile(ctx, self); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Similar taste and enough history: qualifies.
	similar := NewProfile(Identity{UserID: "similar"}, GroupB)
	similar.TotalInteractions = 10
	if err := repo.PutProfile(ctx, similar); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Similar taste, too little history: excluded by the floor.
	sparse := NewProfile(Identity{UserID: "sparse"}, GroupA)
	sparse.TotalInteractions = MinNeighborInteractions - 1
	if err := repo.PutProfile(ctx, sparse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	neighbors, err := store.Neighbors(ctx, Identity{UserID: "self"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(neighbors) != 1 {
		t.Fatalf("neighbors = %d, want 1", len(neighbors))
	}
	if neighbors[0].Profile.Identity.UserID != "similar" {
		t.Fatalf("neighbor = %s, want similar", neighbors[0].Profile.Identity.UserID)
	}
	if neighbors[0].Similarity <= NeighborThreshold {
		t.Fatalf("similarity = %f, want above threshold", neighbors[0].Similarity)
	}
}

func TestNeighborsExcludesSelf(t *testing.T) {
	store, repo, _ := testStore(t)
	ctx := context.Background()

	self := NewProfile(Identity{UserID: "self"}, GroupA)
	self.TotalInteractions = 10
	if err := repo.PutProfile(ctx, self); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	neighbors, err := store.Neighbors(ctx, Identity{UserID: "self"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(neighbors) != 0 {
		t.Fatalf("neighbors = %d, want 0 (self excluded)", len(neighbors))
	}
}

func TestNeighborsSortedBySimilarity(t *testing.T) {
	store, repo, _ := testStore(t)
	ctx := context.Background()

	self := NewProfile(Identity{UserID: "self"}, GroupA)
	self.Attributes[catalog.AttrSpicy] = 1.0
	self.TotalInteractions = 10
	if err := repo.PutProfile(ctx, self); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	near := NewProfile(Identity{UserID: "near"}, GroupA)
	near.Attributes[catalog.AttrSpicy] = 1.0
	near.TotalInteractions = 10
	if err := repo.PutProfile(ctx, near); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	far := NewProfile(Identity{UserID: "far"}, GroupA)
	far.Attributes[catalog.AttrSpicy] = 0.0
	far.Attributes[catalog.AttrHealthy] = 1.0
	far.TotalInteractions = 10
	if err := repo.PutProfile(ctx, far); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	neighbors, err := store.Neighbors(ctx, Identity{UserID: "self"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(neighbors); i++ {
		if neighbors[i].Similarity > neighbors[i-1].Similarity {
			t.Fatal("expected neighbors sorted most similar first")
		}
	}
	if len(neighbors) > 0 && neighbors[0].Profile.Identity.UserID != "near" {
		t.Fatalf("first neighbor = %s, want near", neighbors[0].Profile.Identity.UserID)
	}
}

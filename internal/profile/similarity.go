// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package profile

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/pickplate/pickplate/internal/catalog"
)

// VectorDim is the dimensionality of a profile vector: the seven item
// attributes followed by the three meal slots.
const VectorDim = 10

const (
	// MinNeighborInteractions is the interaction floor below which a
	// profile is too noisy to serve as a neighbor.
	MinNeighborInteractions = 5

	// NeighborThreshold is the minimum cosine similarity for a profile
	// to count as a neighbor. Strictly greater-than.
	NeighborThreshold = 0.3
)

// Vector flattens the profile into a fixed-order preference vector. The
// order is part of the similarity contract and never changes:
// spicy, healthy, vegetarian, quick, rice, soup, meat, breakfast,
// lunch, dinner.
func (p Profile) Vector() [VectorDim]float64 {
	return [VectorDim]float64{
		p.Preference(catalog.AttrSpicy),
		p.Preference(catalog.AttrHealthy),
		p.Preference(catalog.AttrVegetarian),
		p.Preference(catalog.AttrQuick),
		p.Preference(catalog.AttrRice),
		p.Preference(catalog.AttrSoup),
		p.Preference(catalog.AttrMeat),
		p.SlotPreference(catalog.Breakfast),
		p.SlotPreference(catalog.Lunch),
		p.SlotPreference(catalog.Dinner),
	}
}

// Cosine returns the cosine similarity of two preference vectors, in
// [-1, 1]. Either vector having zero magnitude yields 0.
func Cosine(a, b [VectorDim]float64) float64 {
	var dot, magA, magB float64
	for i := 0; i < VectorDim; i++ {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Neighbor is another identity whose taste resembles the caller's.
type Neighbor struct {
	Profile    Profile
	Similarity float64
}

// Neighbors scans all other profiles and returns those with at least
// MinNeighborInteractions interactions and similarity strictly above
// NeighborThreshold, sorted most similar first.
func (s *Store) Neighbors(ctx context.Context, id Identity) ([]Neighbor, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	self, err := s.GetOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}
	selfVec := self.Vector()

	all, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	neighbors := make([]Neighbor, 0, len(all))
	for _, other := range all {
		if other.Identity.Key() == id.Key() {
			continue
		}
		if other.TotalInteractions < MinNeighborInteractions {
			continue
		}

		sim := Cosine(selfVec, other.Vector())
		if sim <= NeighborThreshold {
			continue
		}

		neighbors = append(neighbors, Neighbor{Profile: other, Similarity: sim})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		return neighbors[i].Profile.Identity.Key() < neighbors[j].Profile.Identity.Key()
	})

	return neighbors, nil
}

// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package recommend

import (
	"math/rand"
	"sync"

	"github.com/pickplate/pickplate/internal/profile"
)

// WeightSet is the per-group answer-match weight table used by content
// scoring. Each field is the bonus an item earns when a quiz answer
// requests the attribute and the item has it.
type WeightSet struct {
	Spicy      float64 `json:"spicy"`
	Healthy    float64 `json:"healthy"`
	Vegetarian float64 `json:"vegetarian"`
	Quick      float64 `json:"quick"`
	Rice       float64 `json:"rice"`
	Soup       float64 `json:"soup"`
	Meat       float64 `json:"meat"`
}

// The three experiment arms. Group A is the baseline table; B favors
// health-driven answers, C taste-driven ones.
var weightSets = map[profile.Group]WeightSet{
	profile.GroupA: {Spicy: 3.0, Healthy: 3.0, Vegetarian: 4.0, Quick: 2.0, Rice: 2.0, Soup: 2.0, Meat: 2.0},
	profile.GroupB: {Spicy: 2.0, Healthy: 4.0, Vegetarian: 3.0, Quick: 2.5, Rice: 2.0, Soup: 2.5, Meat: 2.0},
	profile.GroupC: {Spicy: 4.0, Healthy: 2.0, Vegetarian: 2.0, Quick: 3.0, Rice: 1.5, Soup: 2.0, Meat: 2.5},
}

// WeightsFor returns the weight table for a group. Unknown or empty
// groups fall back to group A so stale profiles keep working.
func WeightsFor(g profile.Group) WeightSet {
	if ws, ok := weightSets[g]; ok {
		return ws
	}
	return weightSets[profile.GroupA]
}

var groups = []profile.Group{profile.GroupA, profile.GroupB, profile.GroupC}

var (
	assignMu  sync.Mutex
	assignRng = rand.New(rand.NewSource(rand.Int63())) //nolint:gosec // experiment bucketing, not security
)

// AssignGroup picks an experiment group uniformly at random. Injected
// into the profile store so assignment happens exactly once, at profile
// creation.
func AssignGroup() profile.Group {
	assignMu.Lock()
	defer assignMu.Unlock()
	return groups[assignRng.Intn(len(groups))]
}

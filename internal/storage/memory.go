// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/pickplate/pickplate/internal/profile"
)

// MemoryRepository implements profile.Repository entirely in memory,
// for development mode and tests.
type MemoryRepository struct {
	mu           sync.RWMutex
	profiles     map[string]profile.Profile
	interactions []profile.InteractionEvent
	favorites    map[string]map[string]bool
	exposures    []profile.ExposureRecord
}

var _ profile.Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		profiles:  make(map[string]profile.Profile),
		favorites: make(map[string]map[string]bool),
	}
}

func (r *MemoryRepository) GetProfile(ctx context.Context, key string) (profile.Profile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[key]
	if ok {
		p = p.Clone()
	}
	return p, ok, nil
}

func (r *MemoryRepository) PutProfile(ctx context.Context, p profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Identity.Key()] = p.Clone()
	return nil
}

func (r *MemoryRepository) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]profile.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Identity.Key() < out[j].Identity.Key()
	})
	return out, nil
}

func (r *MemoryRepository) AppendInteraction(ctx context.Context, ev profile.InteractionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interactions = append(r.interactions, ev)
	return nil
}

func (r *MemoryRepository) ItemEvents(ctx context.Context, itemID string) ([]profile.InteractionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []profile.InteractionEvent
	for _, ev := range r.interactions {
		if ev.ItemID == itemID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *MemoryRepository) AddFavorite(ctx context.Context, key, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.favorites[key] == nil {
		r.favorites[key] = make(map[string]bool)
	}
	r.favorites[key][itemID] = true
	return nil
}

func (r *MemoryRepository) IsFavorite(ctx context.Context, key, itemID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.favorites[key][itemID], nil
}

func (r *MemoryRepository) Favorites(ctx context.Context, key string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.favorites[key]))
	for id := range r.favorites[key] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (r *MemoryRepository) FavoriteCounts(ctx context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, items := range r.favorites {
		for id := range items {
			counts[id]++
		}
	}
	return counts, nil
}

func (r *MemoryRepository) AppendExposure(ctx context.Context, rec profile.ExposureRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exposures = append(r.exposures, rec)
	return nil
}

func (r *MemoryRepository) RecentExposures(ctx context.Context, key string, n int) ([]profile.ExposureRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []profile.ExposureRecord
	for i := len(r.exposures) - 1; i >= 0 && len(out) < n; i-- {
		if r.exposures[i].Identity.Key() == key {
			out = append(out, r.exposures[i])
		}
	}
	return out, nil
}

func (r *MemoryRepository) GlobalRecentExposures(ctx context.Context, n int) ([]profile.ExposureRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []profile.ExposureRecord
	for i := len(r.exposures) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.exposures[i])
	}
	return out, nil
}

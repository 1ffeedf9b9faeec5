// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package profile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pickplate/pickplate/internal/cache"
	"github.com/pickplate/pickplate/internal/catalog"
	"github.com/pickplate/pickplate/internal/metrics"
)

// Repository persists profiles, interaction events, favorites, and
// exposure records. Implementations live in internal/storage.
type Repository interface {
	GetProfile(ctx context.Context, key string) (Profile, bool, error)
	PutProfile(ctx context.Context, p Profile) error
	ListProfiles(ctx context.Context) ([]Profile, error)

	AppendInteraction(ctx context.Context, ev InteractionEvent) error
	ItemEvents(ctx context.Context, itemID string) ([]InteractionEvent, error)

	AddFavorite(ctx context.Context, key, itemID string) error
	IsFavorite(ctx context.Context, key, itemID string) (bool, error)
	Favorites(ctx context.Context, key string) ([]string, error)
	FavoriteCounts(ctx context.Context) (map[string]int, error)

	AppendExposure(ctx context.Context, rec ExposureRecord) error
	RecentExposures(ctx context.Context, key string, n int) ([]ExposureRecord, error)
	GlobalRecentExposures(ctx context.Context, n int) ([]ExposureRecord, error)
}

// learningRateFactor scales interaction strength into a per-event
// learning rate.
const learningRateFactor = 0.1

// absentDecayFactor halves the learning rate when pushing an absent
// attribute down, so negative evidence moves preferences slower than
// positive evidence.
const absentDecayFactor = 0.5

// confidenceInteractions is the interaction count at which analysis
// confidence saturates at 1.
const confidenceInteractions = 50

// topPreferenceCount is how many attributes an analysis ranks.
const topPreferenceCount = 5

// Store is the preference-learning service. It owns profile mutation:
// each recorded interaction atomically updates the identity's profile
// under a per-identity lock. Reads are memoized in the profile cache;
// every mutation invalidates the identity's cached entries.
//
// Cross-request consistency is best-effort convergent: two concurrent
// interactions for the same identity serialize on the identity lock,
// but there is no transaction spanning the event log and the profile.
type Store struct {
	repo    Repository
	catalog catalog.View
	cache   *cache.Cache
	assign  func() Group
	logger  zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store. assign is called once per new profile to
// pick its experiment group.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStore(repo Repository, view catalog.View, profileCache *cache.Cache, assign func() Group, logger zerolog.Logger) *Store {
	return &Store{
		repo:    repo,
		catalog: view,
		cache:   profileCache,
		assign:  assign,
		logger:  logger.With().Str("component", "profile").Logger(),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *Store) identityLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// GetOrCreate returns the identity's profile, creating a neutral one
// with a freshly assigned experiment group on first sight. Idempotent:
// an existing profile is never modified.
func (s *Store) GetOrCreate(ctx context.Context, id Identity) (Profile, error) {
	if err := id.Validate(); err != nil {
		return Profile{}, err
	}

	key := cache.Key("profile", []any{id.Key()}, nil)
	p, err := cache.Through(ctx, s.cache, key, func(ctx context.Context) (Profile, error) {
		return s.getOrCreate(ctx, id)
	})
	if err != nil {
		return Profile{}, err
	}
	return p.Clone(), nil
}

func (s *Store) getOrCreate(ctx context.Context, id Identity) (Profile, error) {
	lock := s.identityLock(id.Key())
	lock.Lock()
	defer lock.Unlock()

	p, ok, err := s.repo.GetProfile(ctx, id.Key())
	if err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if ok {
		return p, nil
	}

	p = NewProfile(id, s.assign())
	if err := s.repo.PutProfile(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("create profile: %w", err)
	}

	metrics.ProfilesCreated.Inc()
	s.logger.Debug().
		Str("identity", id.Key()).
		Str("group", string(p.Group)).
		Msg("profile created")

	return p, nil
}

// RecordInteraction validates, persists, and learns from one event.
//
// An event referencing an unknown item fails with
// catalog.ErrItemNotFound and records nothing. A duplicate favorite
// fails with ErrAlreadyFavorited and records nothing. Otherwise the
// event is appended and, when it carries an item, the profile update
// rule is applied atomically for this interaction under the identity
// lock. Item-less events (searches) are logged but leave the profile
// untouched: no preference movement, no interaction count.
func (s *Store) RecordInteraction(ctx context.Context, ev InteractionEvent) error {
	if err := ev.Identity.Validate(); err != nil {
		return err
	}
	if !ev.Type.Valid() {
		return fmt.Errorf("profile: unknown interaction type %q", ev.Type)
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if ev.Strength <= 0 {
		ev.Strength = 1.0
	}
	ev.Strength = clamp01(ev.Strength)

	var item catalog.Item
	if ev.ItemID != "" {
		var err error
		item, err = s.catalog.Item(ctx, ev.ItemID)
		if err != nil {
			return fmt.Errorf("resolve interaction item: %w", err)
		}
	}

	lock := s.identityLock(ev.Identity.Key())
	lock.Lock()
	defer lock.Unlock()

	if ev.Type == InteractionFavorite && ev.ItemID != "" {
		dup, err := s.repo.IsFavorite(ctx, ev.Identity.Key(), ev.ItemID)
		if err != nil {
			return fmt.Errorf("check favorite: %w", err)
		}
		if dup {
			return fmt.Errorf("%w: %s", ErrAlreadyFavorited, ev.ItemID)
		}
	}

	if err := s.repo.AppendInteraction(ctx, ev); err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}

	if ev.ItemID != "" {
		if ev.Type == InteractionFavorite {
			if err := s.repo.AddFavorite(ctx, ev.Identity.Key(), ev.ItemID); err != nil {
				return fmt.Errorf("add favorite: %w", err)
			}
		}

		p, ok, err := s.repo.GetProfile(ctx, ev.Identity.Key())
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if !ok {
			p = NewProfile(ev.Identity, s.assign())
		}

		applyUpdate(&p, item, ev.Strength)
		p.TotalInteractions++
		p.LastUpdated = ev.At

		if err := s.repo.PutProfile(ctx, p); err != nil {
			return fmt.Errorf("store profile: %w", err)
		}

		s.cache.InvalidateContaining(ev.Identity.Key())
	}

	metrics.InteractionsRecorded.WithLabelValues(string(ev.Type)).Inc()

	s.logger.Debug().
		Str("identity", ev.Identity.Key()).
		Str("type", string(ev.Type)).
		Str("item", ev.ItemID).
		Float64("strength", ev.Strength).
		Msg("interaction recorded")

	return nil
}

// applyUpdate applies the online learning rule for one item interaction.
//
// lr = 0.1 * strength. Present attributes move up by lr; absent
// attributes decay down by lr/2. The item's meal slot moves up by lr;
// other slots are untouched, deliberately without renormalization. The
// item's country moves up by lr from a 0.5 default.
func applyUpdate(p *Profile, item catalog.Item, strength float64) {
	lr := learningRateFactor * strength

	for _, attr := range catalog.Attributes() {
		cur := p.Preference(attr)
		if item.Has(attr) {
			p.Attributes[attr] = clamp01(cur + lr)
		} else {
			p.Attributes[attr] = clamp01(cur - lr*absentDecayFactor)
		}
	}

	if item.TimeSlot.Valid() {
		p.TimeSlots[item.TimeSlot] = clamp01(p.SlotPreference(item.TimeSlot) + lr)
	}

	if c := item.Category.Country; c != "" {
		p.Countries[c] = clamp01(p.CountryPreference(c) + lr)
	}
}

// Analysis returns a reporting snapshot of the identity's profile: the
// raw scalars, the top-ranked attributes, and a confidence that
// saturates after enough interactions.
func (s *Store) Analysis(ctx context.Context, id Identity) (Analysis, error) {
	p, err := s.GetOrCreate(ctx, id)
	if err != nil {
		return Analysis{}, err
	}

	top := make([]TopPreference, 0, len(p.Attributes))
	for attr, v := range p.Attributes {
		top = append(top, TopPreference{Name: string(attr), Value: v})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Value != top[j].Value {
			return top[i].Value > top[j].Value
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > topPreferenceCount {
		top = top[:topPreferenceCount]
	}

	confidence := float64(p.TotalInteractions) / confidenceInteractions
	if confidence > 1 {
		confidence = 1
	}

	return Analysis{
		Identity:          p.Identity,
		Group:             p.Group,
		Attributes:        p.Attributes,
		TimeSlots:         p.TimeSlots,
		Countries:         p.Countries,
		Top:               top,
		Confidence:        confidence,
		TotalInteractions: p.TotalInteractions,
		LastActivity:      p.LastUpdated,
	}, nil
}

// Repo exposes the underlying repository for collaborators that read
// the event log and exposure windows directly.
func (s *Store) Repo() Repository {
	return s.repo
}

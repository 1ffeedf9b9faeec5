// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

// Package storage persists profiles, interaction events, favorites, and
// exposure records in BadgerDB. Keys are prefix-scoped per record kind;
// time-ordered kinds embed a zero-padded UnixNano so that reverse
// iteration yields most-recent-first.
package storage

import (
	"context"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/pickplate/pickplate/internal/profile"
)

const (
	prefixProfile        = "profile:"
	prefixInteraction    = "interaction:"
	prefixItemEvents     = "item_events:"
	prefixFavorite       = "favorite:"
	prefixExposure       = "exposure:"
	prefixExposureGlobal = "exposure_global:"
)

// BadgerRepository implements profile.Repository on a BadgerDB handle.
type BadgerRepository struct {
	db     *badger.DB
	logger zerolog.Logger
}

var _ profile.Repository = (*BadgerRepository)(nil)

// Open opens (or creates) a Badger database at path with logging routed
// nowhere. The caller owns closing the returned handle.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return db, nil
}

// NewBadgerRepository wraps an open Badger handle.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadgerRepository(db *badger.DB, logger zerolog.Logger) *BadgerRepository {
	return &BadgerRepository{
		db:     db,
		logger: logger.With().Str("component", "storage").Logger(),
	}
}

func profileKey(key string) []byte {
	return []byte(prefixProfile + key)
}

// stamp renders a timestamp so lexicographic order equals time order.
func stamp(nano int64) string {
	return fmt.Sprintf("%020d", nano)
}

// GetProfile loads a profile by identity key.
func (r *BadgerRepository) GetProfile(ctx context.Context, key string) (profile.Profile, bool, error) {
	var p profile.Profile
	found := false

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		return profile.Profile{}, false, fmt.Errorf("get profile %s: %w", key, err)
	}

	return p, found, nil
}

// PutProfile stores a profile, replacing any previous version.
func (r *BadgerRepository) PutProfile(ctx context.Context, p profile.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(profileKey(p.Identity.Key()), data)
	})
	if err != nil {
		return fmt.Errorf("put profile %s: %w", p.Identity.Key(), err)
	}
	return nil
}

// ListProfiles returns every stored profile.
func (r *BadgerRepository) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	var out []profile.Profile

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixProfile)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var p profile.Profile
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	return out, nil
}

// AppendInteraction stores an event under the time-ordered interaction
// log and, when it references an item, under the per-item index as well.
func (r *BadgerRepository) AppendInteraction(ctx context.Context, ev profile.InteractionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	ts := stamp(ev.At.UnixNano())

	err = r.db.Update(func(txn *badger.Txn) error {
		key := fmt.Sprintf("%s%s:%s", prefixInteraction, ts, ev.ID)
		if err := txn.Set([]byte(key), data); err != nil {
			return err
		}

		if ev.ItemID != "" {
			itemKey := fmt.Sprintf("%s%s:%s:%s", prefixItemEvents, ev.ItemID, ts, ev.ID)
			if err := txn.Set([]byte(itemKey), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append interaction %s: %w", ev.ID, err)
	}

	return nil
}

// ItemEvents returns all events that reference the item, oldest first.
func (r *BadgerRepository) ItemEvents(ctx context.Context, itemID string) ([]profile.InteractionEvent, error) {
	var out []profile.InteractionEvent

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixItemEvents + itemID + ":")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var ev profile.InteractionEvent
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ev)
			})
			if err != nil {
				return err
			}
			out = append(out, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("item events %s: %w", itemID, err)
	}

	return out, nil
}

// AddFavorite marks the item as favorited by the identity.
func (r *BadgerRepository) AddFavorite(ctx context.Context, key, itemID string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixFavorite+key+":"+itemID), []byte{1})
	})
	if err != nil {
		return fmt.Errorf("add favorite %s/%s: %w", key, itemID, err)
	}
	return nil
}

// IsFavorite reports whether the identity has favorited the item.
func (r *BadgerRepository) IsFavorite(ctx context.Context, key, itemID string) (bool, error) {
	found := false
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(prefixFavorite + key + ":" + itemID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("is favorite %s/%s: %w", key, itemID, err)
	}
	return found, nil
}

// Favorites lists the item ids the identity has favorited.
func (r *BadgerRepository) Favorites(ctx context.Context, key string) ([]string, error) {
	prefix := prefixFavorite + key + ":"
	var out []string

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			k := string(it.Item().Key())
			out = append(out, k[len(prefix):])
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("favorites %s: %w", key, err)
	}

	return out, nil
}

// FavoriteCounts returns how many identities have favorited each item,
// keyed by item id. Items never favorited are absent.
func (r *BadgerRepository) FavoriteCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixFavorite)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			k := string(it.Item().Key())
			// favorite:<identity key>:<item id>. Identity keys contain
			// a colon, item ids do not, so split on the last one.
			if i := strings.LastIndex(k, ":"); i >= 0 && i+1 < len(k) {
				counts[k[i+1:]]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("favorite counts: %w", err)
	}

	return counts, nil
}

// AppendExposure stores a record under both the per-identity and the
// global time-ordered logs.
func (r *BadgerRepository) AppendExposure(ctx context.Context, rec profile.ExposureRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal exposure: %w", err)
	}

	ts := stamp(rec.At.UnixNano())

	err = r.db.Update(func(txn *badger.Txn) error {
		key := fmt.Sprintf("%s%s:%s:%s", prefixExposure, rec.Identity.Key(), ts, rec.ID)
		if err := txn.Set([]byte(key), data); err != nil {
			return err
		}

		globalKey := fmt.Sprintf("%s%s:%s", prefixExposureGlobal, ts, rec.ID)
		return txn.Set([]byte(globalKey), data)
	})
	if err != nil {
		return fmt.Errorf("append exposure %s: %w", rec.ID, err)
	}

	return nil
}

// RecentExposures returns up to n of the identity's most recent
// exposure records, newest first.
func (r *BadgerRepository) RecentExposures(ctx context.Context, key string, n int) ([]profile.ExposureRecord, error) {
	return r.recentExposures(prefixExposure+key+":", n)
}

// GlobalRecentExposures returns up to n of the most recent exposure
// records across all identities, newest first.
func (r *BadgerRepository) GlobalRecentExposures(ctx context.Context, n int) ([]profile.ExposureRecord, error) {
	return r.recentExposures(prefixExposureGlobal, n)
}

func (r *BadgerRepository) recentExposures(prefix string, n int) ([]profile.ExposureRecord, error) {
	if n <= 0 {
		return nil, nil
	}

	var out []profile.ExposureRecord

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek key past the whole prefix range.
		seek := append([]byte(prefix), 0xff)
		for it.Seek(seek); it.Valid() && len(out) < n; it.Next() {
			var rec profile.ExposureRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recent exposures %s: %w", prefix, err)
	}

	return out, nil
}

// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

// Package profile holds per-identity taste profiles learned online from
// interaction events, and the similarity machinery built on top of them.
package profile

import (
	"errors"
	"time"

	"github.com/pickplate/pickplate/internal/catalog"
)

var (
	// ErrNoIdentity is returned when neither a user id nor a session id
	// is present on a request.
	ErrNoIdentity = errors.New("profile: identity has no user or session id")

	// ErrAlreadyFavorited is returned when an identity favorites an item
	// it already favorited. No state changes.
	ErrAlreadyFavorited = errors.New("profile: item already favorited")
)

// Identity addresses a caller. At least one of the two ids must be set;
// a user id takes precedence when both are present, so an anonymous
// session that later signs in keeps a single profile under the user id.
type Identity struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Validate reports whether the identity is addressable.
func (id Identity) Validate() error {
	if id.UserID == "" && id.SessionID == "" {
		return ErrNoIdentity
	}
	return nil
}

// Key returns the stable storage key for the identity.
func (id Identity) Key() string {
	if id.UserID != "" {
		return "user:" + id.UserID
	}
	return "session:" + id.SessionID
}

// Group is the experiment group an identity is assigned to at profile
// creation. The assignment is sticky for the life of the profile.
type Group string

const (
	GroupA Group = "A"
	GroupB Group = "B"
	GroupC Group = "C"
)

// InteractionType classifies an interaction event.
type InteractionType string

const (
	InteractionClick           InteractionType = "click"
	InteractionFavorite        InteractionType = "favorite"
	InteractionSearch          InteractionType = "search"
	InteractionRecommendSelect InteractionType = "recommend_select"
)

// Valid reports whether the type is one of the known interaction kinds.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionClick, InteractionFavorite, InteractionSearch, InteractionRecommendSelect:
		return true
	}
	return false
}

// InteractionEvent is one observed interaction. Events are append-only.
type InteractionEvent struct {
	ID       string            `json:"id"`
	Identity Identity          `json:"identity"`
	ItemID   string            `json:"item_id,omitempty"`
	Type     InteractionType   `json:"type"`
	Strength float64           `json:"strength"`
	Metadata map[string]string `json:"metadata,omitempty"`
	At       time.Time         `json:"at"`
}

// ExposureRecord captures one set of items shown to an identity, tagged
// with the strategy that produced it. Append-only; read back through
// bounded recency windows.
type ExposureRecord struct {
	ID       string    `json:"id"`
	Identity Identity  `json:"identity"`
	ItemIDs  []string  `json:"item_ids"`
	Strategy string    `json:"strategy"`
	At       time.Time `json:"at"`

	// Answers holds the raw quiz answers that produced the exposure,
	// when the strategy was quiz-driven.
	Answers map[string]string `json:"answers,omitempty"`
}

// neutralPreference is the starting value for every learned scalar.
const neutralPreference = 0.5

// Profile is the learned taste profile for one identity. Every scalar
// stays in [0, 1]; 0.5 is neutral.
type Profile struct {
	Identity Identity `json:"identity"`
	Group    Group    `json:"group"`

	Attributes map[catalog.Attribute]float64 `json:"attributes"`
	TimeSlots  map[catalog.TimeSlot]float64  `json:"time_slots"`
	Countries  map[string]float64            `json:"countries"`

	TotalInteractions int       `json:"total_interactions"`
	LastUpdated       time.Time `json:"last_updated"`
}

// NewProfile creates a neutral profile for the identity in the given
// experiment group.
func NewProfile(id Identity, group Group) Profile {
	p := Profile{
		Identity:   id,
		Group:      group,
		Attributes: make(map[catalog.Attribute]float64, 7),
		TimeSlots:  make(map[catalog.TimeSlot]float64, 3),
		Countries:  make(map[string]float64),
	}

	for _, attr := range catalog.Attributes() {
		p.Attributes[attr] = neutralPreference
	}
	for _, slot := range []catalog.TimeSlot{catalog.Breakfast, catalog.Lunch, catalog.Dinner} {
		p.TimeSlots[slot] = neutralPreference
	}

	return p
}

// Preference returns the learned scalar for an attribute, neutral when
// the attribute has never been touched.
func (p Profile) Preference(attr catalog.Attribute) float64 {
	if v, ok := p.Attributes[attr]; ok {
		return v
	}
	return neutralPreference
}

// SlotPreference returns the learned scalar for a meal slot.
func (p Profile) SlotPreference(slot catalog.TimeSlot) float64 {
	if v, ok := p.TimeSlots[slot]; ok {
		return v
	}
	return neutralPreference
}

// CountryPreference returns the learned scalar for a country, neutral
// for countries never interacted with.
func (p Profile) CountryPreference(country string) float64 {
	if v, ok := p.Countries[country]; ok {
		return v
	}
	return neutralPreference
}

// Clone returns a deep copy, so cached profiles can be handed out
// without aliasing the maps.
func (p Profile) Clone() Profile {
	out := p
	out.Attributes = make(map[catalog.Attribute]float64, len(p.Attributes))
	for k, v := range p.Attributes {
		out.Attributes[k] = v
	}
	out.TimeSlots = make(map[catalog.TimeSlot]float64, len(p.TimeSlots))
	for k, v := range p.TimeSlots {
		out.TimeSlots[k] = v
	}
	out.Countries = make(map[string]float64, len(p.Countries))
	for k, v := range p.Countries {
		out.Countries[k] = v
	}
	return out
}

// TopPreference is one entry in an analysis ranking.
type TopPreference struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Analysis is a read-only snapshot of a profile for reporting.
type Analysis struct {
	Identity          Identity                      `json:"identity"`
	Group             Group                         `json:"group"`
	Attributes        map[catalog.Attribute]float64 `json:"attributes"`
	TimeSlots         map[catalog.TimeSlot]float64  `json:"time_slots"`
	Countries         map[string]float64            `json:"countries"`
	Top               []TopPreference               `json:"top_preferences"`
	Confidence        float64                       `json:"confidence"`
	TotalInteractions int                           `json:"total_interactions"`
	LastActivity      time.Time                     `json:"last_activity"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

// Package catalog defines the read-only view of the food item catalog the
// engine scores against. The catalog itself is owned elsewhere; this
// package provides the Item model, the View interface, an in-memory
// implementation, a caching decorator, and a circuit-breaker guard for
// remote backends.
package catalog

import (
	"context"
	"errors"
)

// ErrItemNotFound is returned when an item id does not resolve to a
// known catalog item.
var ErrItemNotFound = errors.New("catalog: item not found")

// TimeSlot is the meal slot an item belongs to.
type TimeSlot string

const (
	Breakfast TimeSlot = "breakfast"
	Lunch     TimeSlot = "lunch"
	Dinner    TimeSlot = "dinner"
)

// Valid reports whether the slot is one of the three known meal slots.
func (t TimeSlot) Valid() bool {
	switch t {
	case Breakfast, Lunch, Dinner:
		return true
	}
	return false
}

// Attribute names a boolean property of an item. The engine learns a
// preference scalar per attribute, so the set and its order are part of
// the profile vector contract.
type Attribute string

const (
	AttrSpicy      Attribute = "spicy"
	AttrHealthy    Attribute = "healthy"
	AttrVegetarian Attribute = "vegetarian"
	AttrQuick      Attribute = "quick"
	AttrRice       Attribute = "rice"
	AttrSoup       Attribute = "soup"
	AttrMeat       Attribute = "meat"
)

// Attributes lists all item attributes in canonical order.
func Attributes() []Attribute {
	return []Attribute{
		AttrSpicy, AttrHealthy, AttrVegetarian, AttrQuick,
		AttrRice, AttrSoup, AttrMeat,
	}
}

// Category carries optional cuisine classification.
type Category struct {
	Country     string `json:"country,omitempty"`
	CuisineType string `json:"cuisine_type,omitempty"`
}

// Item is a single food dish.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Spicy      bool `json:"spicy"`
	Healthy    bool `json:"healthy"`
	Vegetarian bool `json:"vegetarian"`
	Quick      bool `json:"quick"`
	HasRice    bool `json:"has_rice"`
	HasSoup    bool `json:"has_soup"`
	HasMeat    bool `json:"has_meat"`

	TimeSlot TimeSlot `json:"time_slot"`
	Category Category `json:"category,omitempty"`

	// Rating is the aggregate rating in [0, 5].
	Rating float64 `json:"rating"`

	Active bool `json:"active"`
}

// Has reports whether the named attribute is set on the item.
func (i Item) Has(attr Attribute) bool {
	switch attr {
	case AttrSpicy:
		return i.Spicy
	case AttrHealthy:
		return i.Healthy
	case AttrVegetarian:
		return i.Vegetarian
	case AttrQuick:
		return i.Quick
	case AttrRice:
		return i.HasRice
	case AttrSoup:
		return i.HasSoup
	case AttrMeat:
		return i.HasMeat
	}
	return false
}

// View is the read-only catalog contract the engine depends on. All
// listing methods return active items only.
type View interface {
	// Item resolves a single item by id, active or not.
	// Returns ErrItemNotFound for unknown ids.
	Item(ctx context.Context, id string) (Item, error)

	// ItemsForSlot lists active items in the given meal slot.
	ItemsForSlot(ctx context.Context, slot TimeSlot) ([]Item, error)

	// ActiveItems lists all active items.
	ActiveItems(ctx context.Context) ([]Item, error)
}

// Filter returns the items for which keep returns true.
func Filter(items []Item, keep func(Item) bool) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

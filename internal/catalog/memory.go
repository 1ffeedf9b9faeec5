// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryView is an in-memory View for development and tests.
type MemoryView struct {
	mu    sync.RWMutex
	byID  map[string]Item
	order []string
}

var _ View = (*MemoryView)(nil)

// NewMemoryView creates an empty in-memory catalog.
func NewMemoryView() *MemoryView {
	return &MemoryView{byID: make(map[string]Item)}
}

// Put inserts or replaces an item. An empty ID is assigned a fresh uuid.
// Returns the stored item.
func (m *MemoryView) Put(item Item) Item {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[item.ID]; !ok {
		m.order = append(m.order, item.ID)
	}
	m.byID[item.ID] = item
	return item
}

// Item resolves an item by id.
func (m *MemoryView) Item(ctx context.Context, id string) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.byID[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return item, nil
}

// ItemsForSlot lists active items in the given meal slot, in insertion order.
func (m *MemoryView) ItemsForSlot(ctx context.Context, slot TimeSlot) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]Item, 0, len(m.order))
	for _, id := range m.order {
		it := m.byID[id]
		if it.Active && it.TimeSlot == slot {
			items = append(items, it)
		}
	}
	return items, nil
}

// ActiveItems lists all active items, in insertion order.
func (m *MemoryView) ActiveItems(ctx context.Context) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]Item, 0, len(m.order))
	for _, id := range m.order {
		if it := m.byID[id]; it.Active {
			items = append(items, it)
		}
	}
	return items, nil
}

// Len returns the number of items, active or not.
func (m *MemoryView) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// Seed populates the view with a small Korean food catalog and returns
// it. Intended for development mode and tests.
func Seed(m *MemoryView) *MemoryView {
	for _, it := range []Item{
		{Name: "Kimchi Jjigae", Spicy: true, HasSoup: true, HasMeat: true, HasRice: true, TimeSlot: Dinner, Category: Category{Country: "Korea", CuisineType: "stew"}, Rating: 4.6, Active: true},
		{Name: "Bibimbap", Healthy: true, HasRice: true, Quick: true, TimeSlot: Lunch, Category: Category{Country: "Korea", CuisineType: "rice"}, Rating: 4.5, Active: true},
		{Name: "Doenjang Jjigae", Healthy: true, HasSoup: true, TimeSlot: Dinner, Category: Category{Country: "Korea", CuisineType: "stew"}, Rating: 4.2, Active: true},
		{Name: "Bulgogi", HasMeat: true, TimeSlot: Dinner, Category: Category{Country: "Korea", CuisineType: "grill"}, Rating: 4.7, Active: true},
		{Name: "Tteokbokki", Spicy: true, Quick: true, TimeSlot: Lunch, Category: Category{Country: "Korea", CuisineType: "street"}, Rating: 4.3, Active: true},
		{Name: "Vegetable Gimbap", Vegetarian: true, Healthy: true, Quick: true, HasRice: true, TimeSlot: Lunch, Category: Category{Country: "Korea", CuisineType: "rice"}, Rating: 4.1, Active: true},
		{Name: "Juk", Healthy: true, Quick: true, HasRice: true, TimeSlot: Breakfast, Category: Category{Country: "Korea", CuisineType: "porridge"}, Rating: 3.9, Active: true},
		{Name: "Gyeran Mari", Quick: true, TimeSlot: Breakfast, Category: Category{Country: "Korea", CuisineType: "egg"}, Rating: 4.0, Active: true},
		{Name: "Samgyetang", Healthy: true, HasSoup: true, HasMeat: true, HasRice: true, TimeSlot: Lunch, Category: Category{Country: "Korea", CuisineType: "soup"}, Rating: 4.4, Active: true},
		{Name: "Buldak", Spicy: true, HasMeat: true, TimeSlot: Dinner, Category: Category{Country: "Korea", CuisineType: "grill"}, Rating: 4.2, Active: true},
	} {
		m.Put(it)
	}
	return m
}

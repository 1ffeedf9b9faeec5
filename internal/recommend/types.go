// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

// Package recommend ranks catalog items for an identity. Three
// strategies share one engine: a simple time-slot listing, a quiz-driven
// hybrid (content + collaborative + trend), and a pure collaborative
// mode built on neighbor favorites.
package recommend

import (
	"errors"

	"github.com/pickplate/pickplate/internal/catalog"
	"github.com/pickplate/pickplate/internal/profile"
)

// Mode selects the recommendation strategy.
type Mode string

const (
	ModeSimple        Mode = "simple"
	ModeQuiz          Mode = "quiz"
	ModeCollaborative Mode = "collaborative"
)

// Valid reports whether the mode is known.
func (m Mode) Valid() bool {
	switch m {
	case ModeSimple, ModeQuiz, ModeCollaborative:
		return true
	}
	return false
}

// Strategy tags recorded on exposure records, per mode.
const (
	StrategySimple        = "simple"
	StrategyQuizHybrid    = "quiz_hybrid"
	StrategyCollaborative = "collaborative"
)

var (
	// ErrUnknownMode is returned for a request with an unrecognized mode.
	ErrUnknownMode = errors.New("recommend: unknown mode")

	// ErrInvalidTimeSlot is returned when simple mode is asked for a
	// slot outside breakfast/lunch/dinner.
	ErrInvalidTimeSlot = errors.New("recommend: invalid time slot")
)

// Request is one recommendation query.
type Request struct {
	Mode     Mode              `json:"mode"`
	Identity profile.Identity  `json:"identity"`
	TimeSlot catalog.TimeSlot  `json:"time_slot,omitempty"`
	Answers  map[string]string `json:"answers,omitempty"`
	Limit    int               `json:"limit,omitempty"`
}

// ScoredItem is one ranked result.
type ScoredItem struct {
	Item catalog.Item `json:"item"`

	// Score is normalized to [0, 1].
	Score float64 `json:"score"`

	Reason string `json:"reason,omitempty"`
}

// Response is a ranked recommendation list plus the experiment context
// it was scored under.
type Response struct {
	Items    []ScoredItem  `json:"items"`
	Group    profile.Group `json:"group"`
	Weights  WeightSet     `json:"weights"`
	Strategy string        `json:"strategy"`
}

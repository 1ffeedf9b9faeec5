// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package recommend

import (
	"fmt"
)

// Config tunes the scoring engine. All values have working defaults;
// Validate catches configs that would break the [0, 1] score contract.
type Config struct {
	// BaseScore is the content score every candidate starts from.
	BaseScore float64 `koanf:"base_score"`

	// MildBonus is the bonus for non-spicy items when the caller asked
	// for mild food. The only answer bonus outside the weight table.
	MildBonus float64 `koanf:"mild_bonus"`

	// PreferenceWeights scale each learned attribute scalar's
	// contribution to the content score.
	PrefSpicy      float64 `koanf:"pref_spicy"`
	PrefHealthy    float64 `koanf:"pref_healthy"`
	PrefVegetarian float64 `koanf:"pref_vegetarian"`
	PrefQuick      float64 `koanf:"pref_quick"`
	PrefRice       float64 `koanf:"pref_rice"`
	PrefSoup       float64 `koanf:"pref_soup"`
	PrefMeat       float64 `koanf:"pref_meat"`

	// ScoreNorm divides the raw content score before clamping to [0, 1].
	ScoreNorm float64 `koanf:"score_norm"`

	// ContentWeight and CollabWeight blend the hybrid score. They must
	// sum to 1.
	ContentWeight float64 `koanf:"content_weight"`
	CollabWeight  float64 `koanf:"collab_weight"`

	// TrendWindow is how many recent global exposures feed the trend
	// signal; TrendScale is the ceiling of the normalized trend score.
	TrendWindow int     `koanf:"trend_window"`
	TrendScale  float64 `koanf:"trend_scale"`

	// RepeatWindow is how many of the identity's recent exposures are
	// excluded from new results.
	RepeatWindow int `koanf:"repeat_window"`

	// Recency multipliers for collaborative evidence.
	RecencyWeekBoost  float64 `koanf:"recency_week_boost"`
	RecencyMonthBoost float64 `koanf:"recency_month_boost"`

	// SynthStrength is the strength of the recommend_select events
	// synthesized for quiz results.
	SynthStrength float64 `koanf:"synth_strength"`

	// CandidatePool multiplies the limit to size the diversity pool.
	CandidatePool int `koanf:"candidate_pool"`

	// DefaultLimit applies when a request carries no limit.
	DefaultLimit int `koanf:"default_limit"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BaseScore:         5.0,
		MildBonus:         2.0,
		PrefSpicy:         1.5,
		PrefHealthy:       1.5,
		PrefVegetarian:    2.0,
		PrefQuick:         1.5,
		PrefRice:          1.5,
		PrefSoup:          1.5,
		PrefMeat:          1.5,
		ScoreNorm:         10.0,
		ContentWeight:     0.7,
		CollabWeight:      0.3,
		TrendWindow:       100,
		TrendScale:        3.0,
		RepeatWindow:      3,
		RecencyWeekBoost:  1.5,
		RecencyMonthBoost: 1.2,
		SynthStrength:     0.8,
		CandidatePool:     2,
		DefaultLimit:      5,
	}
}

// Validate rejects configurations that would break scoring.
func (c Config) Validate() error {
	if c.BaseScore < 0 {
		return fmt.Errorf("recommend config: base_score %f must be >= 0", c.BaseScore)
	}
	if c.ScoreNorm <= 0 {
		return fmt.Errorf("recommend config: score_norm %f must be > 0", c.ScoreNorm)
	}
	if c.ContentWeight < 0 || c.CollabWeight < 0 {
		return fmt.Errorf("recommend config: blend weights must be >= 0")
	}
	if sum := c.ContentWeight + c.CollabWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("recommend config: blend weights sum to %f, want 1.0", sum)
	}
	if c.TrendWindow < 0 {
		return fmt.Errorf("recommend config: trend_window %d must be >= 0", c.TrendWindow)
	}
	if c.TrendScale < 0 {
		return fmt.Errorf("recommend config: trend_scale %f must be >= 0", c.TrendScale)
	}
	if c.RepeatWindow < 0 {
		return fmt.Errorf("recommend config: repeat_window %d must be >= 0", c.RepeatWindow)
	}
	if c.RecencyWeekBoost < 1 || c.RecencyMonthBoost < 1 {
		return fmt.Errorf("recommend config: recency boosts must be >= 1")
	}
	if c.SynthStrength < 0 || c.SynthStrength > 1 {
		return fmt.Errorf("recommend config: synth_strength %f must be in [0, 1]", c.SynthStrength)
	}
	if c.CandidatePool < 1 {
		return fmt.Errorf("recommend config: candidate_pool %d must be >= 1", c.CandidatePool)
	}
	if c.DefaultLimit < 1 {
		return fmt.Errorf("recommend config: default_limit %d must be >= 1", c.DefaultLimit)
	}
	return nil
}

// Clone returns a copy of the config.
func (c Config) Clone() Config {
	return c
}

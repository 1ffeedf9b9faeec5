// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package recommend

import (
	"fmt"
	"strings"

	"github.com/pickplate/pickplate/internal/catalog"
	"github.com/pickplate/pickplate/internal/profile"
)

// Answer tokens the engine understands. Quiz answers arrive as free
// strings; aliases map localized values onto canonical tokens.
const (
	tokenSpicy      = "spicy"
	tokenMild       = "mild"
	tokenHealthy    = "healthy"
	tokenVegetarian = "vegetarian"
	tokenQuick      = "quick"
	tokenRice       = "rice"
	tokenSoup       = "soup"
	tokenMeat       = "meat"
)

var tokenAliases = map[string]string{
	"매운맛":  tokenSpicy,
	"순한맛":  tokenMild,
	"건강식":  tokenHealthy,
	"채식":   tokenVegetarian,
	"빠른조리": tokenQuick,
	"밥류":   tokenRice,
	"국물요리": tokenSoup,
	"고기요리": tokenMeat,
	"yes":  tokenVegetarian,
}

// normalizeToken lowercases an answer value and resolves aliases. The
// "yes" alias only makes sense for the vegetarian question, which is
// the only yes/no question in the quiz.
func normalizeToken(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := tokenAliases[t]; ok {
		return canonical
	}
	return t
}

// answerTokens extracts the normalized preference tokens from a quiz
// answer set, skipping the structural answers (time slot, country,
// cuisine type) which drive filtering rather than scoring.
func answerTokens(answers map[string]string) []string {
	tokens := make([]string, 0, len(answers))
	for q, v := range answers {
		switch q {
		case "time_slot", "country", "cuisine_type":
			continue
		}
		if t := normalizeToken(v); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// keywordScore sums the weight-table bonus for every answer token the
// item satisfies. Mild is the one inverted token: it rewards items that
// are not spicy, with a flat bonus outside the experiment table.
func (e *Engine) keywordScore(item catalog.Item, tokens []string, ws WeightSet) (float64, int) {
	score := 0.0
	matches := 0

	for _, t := range tokens {
		switch t {
		case tokenSpicy:
			if item.Spicy {
				score += ws.Spicy
				matches++
			}
		case tokenMild:
			if !item.Spicy {
				score += e.cfg.MildBonus
				matches++
			}
		case tokenHealthy:
			if item.Healthy {
				score += ws.Healthy
				matches++
			}
		case tokenVegetarian:
			if item.Vegetarian {
				score += ws.Vegetarian
				matches++
			}
		case tokenQuick:
			if item.Quick {
				score += ws.Quick
				matches++
			}
		case tokenRice:
			if item.HasRice {
				score += ws.Rice
				matches++
			}
		case tokenSoup:
			if item.HasSoup {
				score += ws.Soup
				matches++
			}
		case tokenMeat:
			if item.HasMeat {
				score += ws.Meat
				matches++
			}
		}
	}

	return score, matches
}

// prefWeight returns the configured weight for an attribute's learned
// preference scalar.
func (e *Engine) prefWeight(attr catalog.Attribute) float64 {
	switch attr {
	case catalog.AttrSpicy:
		return e.cfg.PrefSpicy
	case catalog.AttrHealthy:
		return e.cfg.PrefHealthy
	case catalog.AttrVegetarian:
		return e.cfg.PrefVegetarian
	case catalog.AttrQuick:
		return e.cfg.PrefQuick
	case catalog.AttrRice:
		return e.cfg.PrefRice
	case catalog.AttrSoup:
		return e.cfg.PrefSoup
	case catalog.AttrMeat:
		return e.cfg.PrefMeat
	}
	return 0
}

// contentScore computes the raw content score for one item:
// base + answer keyword bonuses + learned preference contributions +
// the item's rating.
func (e *Engine) contentScore(item catalog.Item, p profile.Profile, tokens []string, ws WeightSet) (float64, scoreTrace) {
	trace := scoreTrace{}

	score := e.cfg.BaseScore

	kw, matches := e.keywordScore(item, tokens, ws)
	score += kw
	trace.keywordMatches = matches

	for _, attr := range catalog.Attributes() {
		if !item.Has(attr) {
			continue
		}
		pref := p.Preference(attr)
		score += pref * e.prefWeight(attr)
		if pref > strongPreference && pref > trace.topPrefValue {
			trace.topPrefValue = pref
			trace.topPref = attr
		}
	}

	score += item.Rating
	trace.rating = item.Rating

	return score, trace
}

// strongPreference is the scalar above which a learned preference is
// worth naming in the result reason.
const strongPreference = 0.7

// highRating is the rating threshold for the "highly rated" reason.
const highRating = 4.5

// trendingThreshold is the trend score above which an item is called
// out as trending.
const trendingThreshold = 1.5

// scoreTrace remembers which signals fired, for reason strings.
type scoreTrace struct {
	keywordMatches int
	topPref        catalog.Attribute
	topPrefValue   float64
	rating         float64
	trend          float64
	collab         float64
	supporters     int
}

// reason renders a short human explanation from the strongest fired
// signal, in priority order.
func (t scoreTrace) reason() string {
	switch {
	case t.supporters > 0:
		return fmt.Sprintf("liked by %d similar diners", t.supporters)
	case t.keywordMatches > 0:
		return fmt.Sprintf("matches %d of your answers", t.keywordMatches)
	case t.trend > trendingThreshold:
		return "trending right now"
	case t.topPref != "":
		return fmt.Sprintf("you tend to enjoy %s dishes", t.topPref)
	case t.collab > 0:
		return "popular with similar diners"
	case t.rating >= highRating:
		return "highly rated"
	default:
		return ""
	}
}

// trendScores counts item appearances over the recent global exposure
// window and scales them to [0, TrendScale] against the window maximum.
func (e *Engine) trendScores(records []profile.ExposureRecord) map[string]float64 {
	counts := make(map[string]int)
	maxCount := 0
	for _, rec := range records {
		for _, id := range rec.ItemIDs {
			counts[id]++
			if counts[id] > maxCount {
				maxCount = counts[id]
			}
		}
	}

	if maxCount == 0 {
		return nil
	}

	out := make(map[string]float64, len(counts))
	for id, c := range counts {
		out[id] = float64(c) / float64(maxCount) * e.cfg.TrendScale
	}
	return out
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

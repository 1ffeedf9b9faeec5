// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pickplate/pickplate/internal/catalog"
	"github.com/pickplate/pickplate/internal/metrics"
	"github.com/pickplate/pickplate/internal/profile"
)

// Engine ranks catalog items for an identity. It holds no per-request
// state; everything it learns between requests lives in the profile
// store and its repository.
type Engine struct {
	cfg    Config
	store  *profile.Store
	view   catalog.View
	logger zerolog.Logger

	// rng feeds diversity sampling; guarded for concurrent requests.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine creates an engine. cfg must have passed Validate.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg Config, store *profile.Store, view catalog.View, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		store:  store,
		view:   view,
		logger: logger.With().Str("component", "recommend").Logger(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // sampling, not security
	}
}

// Recommend runs one request through the strategy pipeline:
// fetch candidates, drop recently shown items, apply quiz filters,
// score, diversify, then emit with best-effort side effects.
func (e *Engine) Recommend(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	if err := req.Identity.Validate(); err != nil {
		return Response{}, err
	}
	if !req.Mode.Valid() {
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}
	if req.Limit <= 0 {
		req.Limit = e.cfg.DefaultLimit
	}

	p, err := e.store.GetOrCreate(ctx, req.Identity)
	if err != nil {
		return Response{}, err
	}
	ws := WeightsFor(p.Group)

	var resp Response
	switch req.Mode {
	case ModeCollaborative:
		resp, err = e.collaborative(ctx, req, p, ws)
	default:
		resp, err = e.scored(ctx, req, p, ws)
	}
	if err != nil {
		return Response{}, err
	}

	metrics.RecommendationRequests.WithLabelValues(string(req.Mode), string(p.Group)).Inc()
	metrics.RecommendationDuration.WithLabelValues(string(req.Mode)).Observe(time.Since(start).Seconds())

	e.logger.Debug().
		Str("identity", req.Identity.Key()).
		Str("mode", string(req.Mode)).
		Str("group", string(p.Group)).
		Int("results", len(resp.Items)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendation served")

	return resp, nil
}

// scored serves the simple and quiz modes.
func (e *Engine) scored(ctx context.Context, req Request, p profile.Profile, ws WeightSet) (Response, error) {
	strategy := StrategySimple
	if req.Mode == ModeQuiz {
		strategy = StrategyQuizHybrid
	}

	empty := Response{Items: []ScoredItem{}, Group: p.Group, Weights: ws, Strategy: strategy}

	candidates, err := e.candidates(ctx, req)
	if err != nil {
		return Response{}, err
	}

	candidates, err = e.excludeRepeats(ctx, req.Identity, candidates)
	if err != nil {
		return Response{}, err
	}

	if req.Mode == ModeQuiz {
		candidates = e.filterRequired(candidates, req.Answers)
	}

	if len(candidates) == 0 {
		return empty, nil
	}

	scored, err := e.score(ctx, req, p, ws, candidates)
	if err != nil {
		return Response{}, err
	}

	picked := e.diversify(scored, req.Limit)

	// Nothing is written for a request canceled before the emit state.
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	e.emit(ctx, req, strategy, picked)

	return Response{Items: picked, Group: p.Group, Weights: ws, Strategy: strategy}, nil
}

// candidates fetches the active item pool for the request.
func (e *Engine) candidates(ctx context.Context, req Request) ([]catalog.Item, error) {
	if req.Mode == ModeQuiz {
		items, err := e.view.ActiveItems(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch candidates: %w", err)
		}
		return items, nil
	}

	slot := req.TimeSlot
	if slot == "" {
		if a, ok := req.Answers["time_slot"]; ok {
			slot = catalog.TimeSlot(normalizeToken(a))
		}
	}
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, slot)
	}

	items, err := e.view.ItemsForSlot(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	return items, nil
}

// excludeRepeats drops items the identity saw in its recent exposures.
// When exclusion would empty the pool the whole step is skipped, so a
// small catalog keeps producing results.
func (e *Engine) excludeRepeats(ctx context.Context, id profile.Identity, items []catalog.Item) ([]catalog.Item, error) {
	if e.cfg.RepeatWindow <= 0 || len(items) == 0 {
		return items, nil
	}

	recent, err := e.store.Repo().RecentExposures(ctx, id.Key(), e.cfg.RepeatWindow)
	if err != nil {
		return nil, fmt.Errorf("recent exposures: %w", err)
	}

	seen := make(map[string]bool)
	for _, rec := range recent {
		for _, itemID := range rec.ItemIDs {
			seen[itemID] = true
		}
	}
	if len(seen) == 0 {
		return items, nil
	}

	kept := catalog.Filter(items, func(it catalog.Item) bool { return !seen[it.ID] })
	if len(kept) == 0 {
		return items, nil
	}
	return kept, nil
}

// filterRequired applies the quiz's hard constraints as a strict AND
// over the answers present.
//
// The soup constraint cuts both ways: asking for soup keeps only soup
// dishes, and not asking for soup excludes them all.
func (e *Engine) filterRequired(items []catalog.Item, answers map[string]string) []catalog.Item {
	soupRequested := false
	vegetarianRequested := false
	for q, v := range answers {
		switch q {
		case "time_slot", "country", "cuisine_type":
			continue
		}
		switch normalizeToken(v) {
		case tokenSoup:
			soupRequested = true
		case tokenVegetarian:
			vegetarianRequested = true
		}
	}

	slot := catalog.TimeSlot("")
	if a, ok := answers["time_slot"]; ok {
		slot = catalog.TimeSlot(normalizeToken(a))
	}
	country := answers["country"]
	cuisine := answers["cuisine_type"]

	return catalog.Filter(items, func(it catalog.Item) bool {
		if slot != "" && it.TimeSlot != slot {
			return false
		}
		if vegetarianRequested && !it.Vegetarian {
			return false
		}
		if it.HasSoup != soupRequested {
			return false
		}
		if country != "" && it.Category.Country != country {
			return false
		}
		if cuisine != "" && it.Category.CuisineType != cuisine {
			return false
		}
		return true
	})
}

// score computes the hybrid score for every candidate. The quiz path
// adds the trend signal on top of the content score; the simple path
// blends content and collaborative evidence only.
func (e *Engine) score(ctx context.Context, req Request, p profile.Profile, ws WeightSet, items []catalog.Item) ([]ScoredItem, error) {
	tokens := answerTokens(req.Answers)

	var trends map[string]float64
	if req.Mode == ModeQuiz && e.cfg.TrendWindow > 0 {
		global, err := e.store.Repo().GlobalRecentExposures(ctx, e.cfg.TrendWindow)
		if err != nil {
			return nil, fmt.Errorf("global exposures: %w", err)
		}
		trends = e.trendScores(global)
	}

	now := time.Now()
	out := make([]ScoredItem, 0, len(items))

	for _, item := range items {
		content, trace := e.contentScore(item, p, tokens, ws)

		if req.Mode == ModeQuiz {
			trace.trend = trends[item.ID]
			content += trace.trend
		}

		collab, err := e.collaborativeScore(ctx, item.ID, now)
		if err != nil {
			return nil, err
		}
		trace.collab = collab

		raw := content*e.cfg.ContentWeight + collab*e.cfg.CollabWeight

		out = append(out, ScoredItem{
			Item:   item,
			Score:  clamp01(raw / e.cfg.ScoreNorm),
			Reason: trace.reason(),
		})
	}

	return out, nil
}

// collaborativeScore is the mean strength of the item's favorite and
// recommend_select events, boosted when the evidence is fresh.
func (e *Engine) collaborativeScore(ctx context.Context, itemID string, now time.Time) (float64, error) {
	events, err := e.store.Repo().ItemEvents(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("item events: %w", err)
	}

	sum := 0.0
	count := 0
	newest := time.Time{}
	for _, ev := range events {
		if ev.Type != profile.InteractionFavorite && ev.Type != profile.InteractionRecommendSelect {
			continue
		}
		sum += ev.Strength
		count++
		if ev.At.After(newest) {
			newest = ev.At
		}
	}
	if count == 0 {
		return 0, nil
	}

	score := sum / float64(count)

	switch age := now.Sub(newest); {
	case age < 7*24*time.Hour:
		score *= e.cfg.RecencyWeekBoost
	case age < 30*24*time.Hour:
		score *= e.cfg.RecencyMonthBoost
	}

	return score, nil
}

// diversify sorts by score, keeps the top pool of CandidatePool*limit,
// then uniformly samples limit items from it so near-tied items rotate
// across requests. The sample is returned in score order.
func (e *Engine) diversify(scored []ScoredItem, limit int) []ScoredItem {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	pool := e.cfg.CandidatePool * limit
	if pool > len(scored) {
		pool = len(scored)
	}
	top := scored[:pool]

	if len(top) <= limit {
		out := make([]ScoredItem, len(top))
		copy(out, top)
		return out
	}

	// Partial Fisher-Yates over the pool.
	sample := make([]ScoredItem, len(top))
	copy(sample, top)

	e.rngMu.Lock()
	for i := 0; i < limit; i++ {
		j := i + e.rng.Intn(len(sample)-i)
		sample[i], sample[j] = sample[j], sample[i]
	}
	e.rngMu.Unlock()

	out := sample[:limit]
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// emit records the exposure and, for quiz results, synthesizes weak
// selection events so shown items feed back into the profile. All of it
// is best-effort: failures are logged and never fail the request.
func (e *Engine) emit(ctx context.Context, req Request, strategy string, picked []ScoredItem) {
	itemIDs := make([]string, len(picked))
	for i, s := range picked {
		itemIDs[i] = s.Item.ID
	}

	rec := profile.ExposureRecord{
		ID:       uuid.NewString(),
		Identity: req.Identity,
		ItemIDs:  itemIDs,
		Strategy: strategy,
		At:       time.Now(),
	}
	if req.Mode == ModeQuiz {
		rec.Answers = req.Answers
	}

	if err := e.store.Repo().AppendExposure(ctx, rec); err != nil {
		e.logger.Warn().Err(err).Str("identity", req.Identity.Key()).Msg("exposure record failed")
	}

	if req.Mode != ModeQuiz {
		return
	}

	for _, id := range itemIDs {
		ev := profile.InteractionEvent{
			Identity: req.Identity,
			ItemID:   id,
			Type:     profile.InteractionRecommendSelect,
			Strength: e.cfg.SynthStrength,
		}
		if err := e.store.RecordInteraction(ctx, ev); err != nil {
			e.logger.Warn().Err(err).Str("item", id).Msg("synthesized selection failed")
		}
	}
}

// collaborative serves the neighbor-favorites mode: items favorited by
// similar identities that the caller has not favorited, ranked by the
// supporters' average similarity.
func (e *Engine) collaborative(ctx context.Context, req Request, p profile.Profile, ws WeightSet) (Response, error) {
	empty := Response{Items: []ScoredItem{}, Group: p.Group, Weights: ws, Strategy: StrategyCollaborative}

	neighbors, err := e.store.Neighbors(ctx, req.Identity)
	if err != nil {
		return Response{}, err
	}
	if len(neighbors) == 0 {
		return empty, nil
	}

	own, err := e.store.Repo().Favorites(ctx, req.Identity.Key())
	if err != nil {
		return Response{}, fmt.Errorf("own favorites: %w", err)
	}
	owned := make(map[string]bool, len(own))
	for _, id := range own {
		owned[id] = true
	}

	type agg struct {
		simSum     float64
		supporters int
	}
	byItem := make(map[string]*agg)

	for _, n := range neighbors {
		favs, err := e.store.Repo().Favorites(ctx, n.Profile.Identity.Key())
		if err != nil {
			return Response{}, fmt.Errorf("neighbor favorites: %w", err)
		}
		for _, id := range favs {
			if owned[id] {
				continue
			}
			a, ok := byItem[id]
			if !ok {
				a = &agg{}
				byItem[id] = a
			}
			a.simSum += n.Similarity
			a.supporters++
		}
	}

	if len(byItem) == 0 {
		return empty, nil
	}

	items := make([]ScoredItem, 0, len(byItem))
	for id, a := range byItem {
		item, err := e.view.Item(ctx, id)
		if err != nil {
			// A favorite pointing at a removed item is stale data,
			// not a request failure.
			e.logger.Debug().Err(err).Str("item", id).Msg("skipping unresolvable favorite")
			continue
		}
		if !item.Active {
			continue
		}

		avgSim := a.simSum / float64(a.supporters)
		trace := scoreTrace{supporters: a.supporters}

		items = append(items, ScoredItem{
			Item:   item,
			Score:  clamp01(avgSim),
			Reason: trace.reason(),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Item.ID < items[j].Item.ID
	})
	if len(items) > req.Limit {
		items = items[:req.Limit]
	}

	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	itemIDs := make([]string, len(items))
	for i, s := range items {
		itemIDs[i] = s.Item.ID
	}
	rec := profile.ExposureRecord{
		ID:       uuid.NewString(),
		Identity: req.Identity,
		ItemIDs:  itemIDs,
		Strategy: StrategyCollaborative,
		At:       time.Now(),
	}
	if err := e.store.Repo().AppendExposure(ctx, rec); err != nil {
		e.logger.Warn().Err(err).Str("identity", req.Identity.Key()).Msg("exposure record failed")
	}

	return Response{Items: items, Group: p.Group, Weights: ws, Strategy: StrategyCollaborative}, nil
}

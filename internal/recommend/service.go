// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

// Package recommend implements item-based collaborative filtering over
// the rating ledger. Each query rebuilds the user-item matrix and the
// item similarity matrix from a fresh snapshot; nothing is cached or
// persisted between calls, so the service itself is stateless and safe
// for concurrent use.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/emporium-dev/emporium/internal/config"
	"github.com/emporium-dev/emporium/internal/logging"
	"github.com/emporium-dev/emporium/internal/metrics"
	"github.com/emporium-dev/emporium/internal/models"
)

// Service answers recommendation queries from per-call store snapshots.
type Service struct {
	store        Store
	defaultLimit int
	maxLimit     int
}

// NewService creates a recommendation service over the given store.
func NewService(store Store, cfg *config.RecommendConfig) *Service {
	defaultLimit := 6
	maxLimit := 50
	if cfg != nil {
		if cfg.DefaultLimit > 0 {
			defaultLimit = cfg.DefaultLimit
		}
		if cfg.MaxLimit > 0 {
			maxLimit = cfg.MaxLimit
		}
	}
	return &Service{
		store:        store,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// normalizeLimit clamps a caller-supplied limit to the configured
// bounds, substituting the default for zero or negative values.
func (s *Service) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// RecommendForUser returns up to limit products ranked by predicted
// interest for the user, excluding products they already rated. A user
// with no ratings, and any internal failure, degrades to the top-rated
// fallback ranking; the Result's Source reports which branch served.
func (s *Service) RecommendForUser(ctx context.Context, userID string, limit int) (*Result, error) {
	start := time.Now()
	limit = s.normalizeLimit(limit)

	userRatings, err := s.store.ListRatingsForUser(ctx, userID)
	if err != nil {
		logging.Warn().Err(err).Str("user_id", userID).Msg("rating lookup failed, serving fallback")
		return s.fallback(ctx, "for_user", limit, "", start)
	}
	if len(userRatings) == 0 {
		return s.fallback(ctx, "for_user", limit, "", start)
	}

	sims, _, items, err := s.buildSimilarities(ctx)
	if err != nil {
		logging.Warn().Err(err).Str("user_id", userID).Msg("similarity build failed, serving fallback")
		return s.fallback(ctx, "for_user", limit, "", start)
	}

	rated := make(map[string]float64, len(userRatings))
	ratedOrder := make([]string, 0, len(userRatings))
	for _, r := range userRatings {
		if _, ok := rated[r.ProductID]; !ok {
			ratedOrder = append(ratedOrder, r.ProductID)
		}
		rated[r.ProductID] = r.Rating
	}

	candidates := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := rated[item]; !ok {
			candidates = append(candidates, item)
		}
	}

	predictions := predictScores(sims, rated, ratedOrder, candidates)

	products, err := s.resolveProducts(ctx, predictions, limit)
	if err != nil {
		logging.Warn().Err(err).Str("user_id", userID).Msg("product resolution failed, serving fallback")
		return s.fallback(ctx, "for_user", limit, "", start)
	}

	metrics.RecordRecommendation("for_user", string(SourcePersonalized), time.Since(start))
	return &Result{Products: products, Source: SourcePersonalized}, nil
}

// SimilarProducts returns up to limit products most similar to the
// given product. A product that was never rated, one never co-rated
// with anything, and any internal failure all degrade to the fallback
// ranking with the product itself excluded.
func (s *Service) SimilarProducts(ctx context.Context, productID string, limit int) (*Result, error) {
	start := time.Now()
	limit = s.normalizeLimit(limit)

	sims, _, _, err := s.buildSimilarities(ctx)
	if err != nil {
		logging.Warn().Err(err).Str("product_id", productID).Msg("similarity build failed, serving fallback")
		return s.fallback(ctx, "similar", limit, productID, start)
	}

	row, ok := sims[productID]
	if !ok {
		return s.fallback(ctx, "similar", limit, productID, start)
	}

	type scored struct {
		itemID string
		score  float64
	}
	entries := make([]scored, 0, len(row))
	for itemID, sim := range row {
		if itemID == productID {
			continue
		}
		// Zero means no common rater: no relation, not weak similarity.
		if sim == 0 {
			continue
		}
		entries = append(entries, scored{itemID: itemID, score: sim})
	}
	if len(entries) == 0 {
		// Rated, but never co-rated with anything.
		return s.fallback(ctx, "similar", limit, productID, start)
	}
	// Map iteration order is random; sort by score with an id tie-break
	// so equal similarities rank deterministically.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].itemID < entries[j].itemID
	})

	ranked := make([]prediction, 0, len(entries))
	for _, e := range entries {
		ranked = append(ranked, prediction{itemID: e.itemID, score: e.score})
	}

	products, err := s.resolveProducts(ctx, ranked, limit)
	if err != nil {
		logging.Warn().Err(err).Str("product_id", productID).Msg("product resolution failed, serving fallback")
		return s.fallback(ctx, "similar", limit, productID, start)
	}

	metrics.RecordRecommendation("similar", string(SourceSimilarity), time.Since(start))
	return &Result{Products: products, Source: SourceSimilarity}, nil
}

// buildSimilarities pulls the full rating ledger and computes the item
// similarity matrix for this query.
func (s *Service) buildSimilarities(ctx context.Context) (ItemSimilarityMatrix, []string, []string, error) {
	ratings, err := s.store.ListRatings(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list ratings: %w", err)
	}

	matrix, users, items := BuildUserItemMatrix(ratings)
	metrics.RecordMatrixBuild(len(users), len(items), len(ratings))

	return BuildItemSimilarity(matrix, users, items), users, items, nil
}

// prediction is one candidate item with its predicted score.
type prediction struct {
	itemID string
	score  float64
}

// predictScores computes the weighted-sum prediction for each candidate
// item from the user's own ratings:
//
//	predicted(item) = Σ sim(item, rated) * rating(rated) / Σ |sim(item, rated)|
//
// summed only over rated items with sim > 0. Non-positive similarities
// are treated as no evidence, not negative evidence. Candidates whose
// denominator is 0 get no prediction and are excluded entirely.
//
// The returned slice is sorted by score descending; candidates with
// equal scores keep their input (encounter) order.
func predictScores(sims ItemSimilarityMatrix, rated map[string]float64, ratedOrder, candidates []string) []prediction {
	predictions := make([]prediction, 0, len(candidates))

	for _, candidate := range candidates {
		row := sims[candidate]
		var numerator, denominator float64
		for _, ratedItem := range ratedOrder {
			sim := row[ratedItem]
			if sim <= 0 {
				continue
			}
			numerator += sim * rated[ratedItem]
			denominator += sim
		}
		if denominator == 0 {
			continue
		}
		predictions = append(predictions, prediction{
			itemID: candidate,
			score:  numerator / denominator,
		})
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].score > predictions[j].score
	})

	return predictions
}

// resolveProducts maps the first limit ranked item ids back to catalog
// records, preserving order. A missing product is an internal failure
// the caller turns into the fallback.
func (s *Service) resolveProducts(ctx context.Context, ranked []prediction, limit int) ([]models.Product, error) {
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	products := make([]models.Product, 0, len(ranked))
	for _, p := range ranked {
		product, err := s.store.GetProduct(ctx, p.itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve product %s: %w", p.itemID, err)
		}
		products = append(products, *product)
	}
	return products, nil
}

// fallback serves the unpersonalized top-rated ranking, optionally
// excluding one product id. An empty catalog yields an empty list.
func (s *Service) fallback(ctx context.Context, operation string, limit int, excludeID string, start time.Time) (*Result, error) {
	// Fetch one extra so the exclusion cannot shrink a full page.
	fetch := limit
	if excludeID != "" {
		fetch++
	}

	top, err := s.store.TopRatedProducts(ctx, fetch)
	if err != nil {
		return nil, fmt.Errorf("fallback ranking failed: %w", err)
	}

	products := make([]models.Product, 0, limit)
	for _, p := range top {
		if excludeID != "" && p.ID == excludeID {
			continue
		}
		products = append(products, p)
		if len(products) == limit {
			break
		}
	}

	metrics.RecordRecommendation(operation, string(SourceFallback), time.Since(start))
	return &Result{Products: products, Source: SourceFallback}, nil
}

// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package recommend

import (
	"context"

	"github.com/emporium-dev/emporium/internal/models"
)

// Source tags which branch produced a result set, so callers and tests
// can tell a personalized ranking from the degraded fallback.
type Source string

const (
	// SourcePersonalized means the weighted-sum predictor ranked the
	// results from the user's own ratings.
	SourcePersonalized Source = "personalized"

	// SourceSimilarity means the results were ranked by item-item
	// similarity to a reference product.
	SourceSimilarity Source = "similarity"

	// SourceFallback means the unpersonalized top-rated ranking was
	// served instead.
	SourceFallback Source = "fallback"
)

// Result is a ranked recommendation set.
type Result struct {
	Products []models.Product `json:"products"`
	Source   Source           `json:"source"`
}

// Store is the read-only data surface the recommender pulls per query.
// Implemented by the database layer; the recommender holds no state of
// its own between calls.
type Store interface {
	// ListRatings returns the full rating ledger.
	ListRatings(ctx context.Context) ([]models.Rating, error)

	// ListRatingsForUser returns one user's ratings.
	ListRatingsForUser(ctx context.Context, userID string) ([]models.Rating, error)

	// GetProduct resolves an item id to its catalog record.
	GetProduct(ctx context.Context, id string) (*models.Product, error)

	// TopRatedProducts returns up to limit products ranked by average
	// rating. This is the fallback ranking.
	TopRatedProducts(ctx context.Context, limit int) ([]models.Product, error)
}

// UserItemMatrix maps user id -> item id -> rating. Absence of an
// entry means the pair was never rated, which is distinct from a zero
// rating.
type UserItemMatrix map[string]map[string]float64

// ItemSimilarityMatrix maps item id -> item id -> cosine similarity
// in [-1, 1]. Symmetric, with 1 on the diagonal.
type ItemSimilarityMatrix map[string]map[string]float64

// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package recommend

import "math"

// BuildItemSimilarity computes the item-item cosine similarity matrix
// from the user-item matrix. Only the upper triangle is computed; the
// lower triangle is mirrored, which halves the O(I²·U) work.
//
// Diagonal entries are 1 by definition. Item pairs with no common
// rater have no signal and get similarity 0 rather than -1.
func BuildItemSimilarity(matrix UserItemMatrix, users, items []string) ItemSimilarityMatrix {
	sims := make(ItemSimilarityMatrix, len(items))
	for _, item := range items {
		sims[item] = make(map[string]float64, len(items))
		sims[item][item] = 1
	}

	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			a, b := items[i], items[j]
			sim := cosineSimilarity(coRatings(matrix, users, a, b))
			sims[a][b] = sim
			sims[b][a] = sim
		}
	}

	return sims
}

// coRatings collects the paired rating vectors contributed by every
// user who rated both items.
func coRatings(matrix UserItemMatrix, users []string, a, b string) ([]float64, []float64) {
	var vecA, vecB []float64
	for _, user := range users {
		userRatings := matrix[user]
		ratingA, okA := userRatings[a]
		ratingB, okB := userRatings[b]
		if okA && okB {
			vecA = append(vecA, ratingA)
			vecB = append(vecB, ratingB)
		}
	}
	return vecA, vecB
}

// cosineSimilarity computes the cosine of the angle between two
// equal-length vectors. Empty vectors or a zero norm yield 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

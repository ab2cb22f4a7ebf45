// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package recommend

import "github.com/emporium-dev/emporium/internal/models"

// BuildUserItemMatrix turns the flat rating ledger into the sparse
// user -> item -> rating structure, along with the distinct user and
// item ids in first-encounter order. Encounter order is what makes the
// final ranking's tie-break deterministic, so it is preserved here
// rather than sorted away.
//
// An empty ledger yields an empty matrix and empty id slices. That is
// a valid state, not an error.
func BuildUserItemMatrix(ratings []models.Rating) (UserItemMatrix, []string, []string) {
	matrix := make(UserItemMatrix)
	users := make([]string, 0)
	items := make([]string, 0)
	seenItems := make(map[string]struct{})

	for _, r := range ratings {
		if _, ok := matrix[r.UserID]; !ok {
			matrix[r.UserID] = make(map[string]float64)
			users = append(users, r.UserID)
		}
		matrix[r.UserID][r.ProductID] = r.Rating

		if _, ok := seenItems[r.ProductID]; !ok {
			seenItems[r.ProductID] = struct{}{}
			items = append(items, r.ProductID)
		}
	}

	return matrix, users, items
}

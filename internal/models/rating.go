// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package models

import "time"

// Rating is one user's numeric opinion of one product on a 0-5 scale.
// The store enforces at most one rating per (user, product) pair; a
// re-rating overwrites the previous value.
type Rating struct {
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

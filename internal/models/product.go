// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package models

import "time"

// Product is a catalog entry. AverageRating and RatingCount are
// maintained by the store whenever a rating is written, so the
// recommendation fallback can rank by them without aggregation queries.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Category      string    `json:"category"`
	Brand         string    `json:"brand,omitempty"`
	Stock         int       `json:"stock"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateProductRequest is the payload for POST /api/v1/products.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Category    string  `json:"category" validate:"required,min=1,max=100"`
	Brand       string  `json:"brand" validate:"max=100"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

// UpdateProductRequest is the payload for PUT /api/v1/products/{id}.
// Nil fields are left unchanged.
type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Brand       *string  `json:"brand,omitempty" validate:"omitempty,max=100"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category string
	Brand    string
	Search   string
	Limit    int
	Offset   int
}

// ProductsResponse wraps a product listing page.
type ProductsResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// RateProductRequest is the payload for POST /api/v1/products/{id}/rate.
// Ratings are on a 0-5 scale; rating the same product again replaces
// the previous value.
type RateProductRequest struct {
	Rating float64 `json:"rating" validate:"gte=0,lte=5"`
}

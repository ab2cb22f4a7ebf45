// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

// Package models defines the domain types shared across Emporium:
// users, products, ratings, orders, and the standard API envelopes.
//
// Types here are plain data carriers with JSON and validate tags.
// Behavior lives in the packages that operate on them (database,
// recommend, api).
package models

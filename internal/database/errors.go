// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package database

import (
	"database/sql"
	"errors"
	"io"

	"github.com/emporium-dev/emporium/internal/logging"
)

// Sentinel errors returned by store operations. Callers match with
// errors.Is to map them to API responses.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a uniqueness constraint would be
	// violated (duplicate username or email).
	ErrConflict = errors.New("record already exists")

	// ErrInsufficientStock is returned when an order requests more
	// units than are available.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOrderNotCancellable is returned when cancelling an order
	// that has left the pending state.
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")

	// ErrInvalidStatusTransition is returned for status updates that
	// skip the order lifecycle.
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// closeQuietly closes a resource and explicitly ignores any error.
// For cleanup in error paths where Close errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// rollbackQuietly rolls back a transaction, logging unexpected errors.
// A rollback after commit returns sql.ErrTxDone, which is expected.
func rollbackQuietly(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logging.Warn().Err(err).Msg("transaction rollback failed")
	}
}

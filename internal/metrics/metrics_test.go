// Emporium - E-Commerce Backend with Collaborative Filtering
// Copyright 2026 Emporium Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/emporium-dev/emporium

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		duration  time.Duration
		err       error
	}{
		{
			name:      "successful select",
			operation: "SELECT",
			table:     "products",
			duration:  10 * time.Millisecond,
		},
		{
			name:      "successful upsert",
			operation: "UPSERT",
			table:     "ratings",
			duration:  5 * time.Millisecond,
		},
		{
			name:      "failed query",
			operation: "UPDATE",
			table:     "orders",
			duration:  100 * time.Millisecond,
			err:       errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.CollectAndCount(DBQueryDuration)
			RecordDBQuery(tt.operation, tt.table, tt.duration, tt.err)
			after := testutil.CollectAndCount(DBQueryDuration)
			if after < before {
				t.Errorf("histogram series count decreased: %d -> %d", before, after)
			}
		})
	}
}

func TestRecordDBQueryErrorCounter(t *testing.T) {
	op, table := "SELECT", "test_err_counter"
	RecordDBQuery(op, table, time.Millisecond, errors.New("boom"))

	got := testutil.ToFloat64(DBQueryErrors.WithLabelValues(op, table))
	if got != 1 {
		t.Errorf("DBQueryErrors = %v, want 1", got)
	}
}

func TestRecordRecommendation(t *testing.T) {
	RecordRecommendation("for_user", "personalized", 20*time.Millisecond)
	RecordRecommendation("for_user", "fallback", 5*time.Millisecond)
	RecordRecommendation("similar", "similarity", 8*time.Millisecond)

	got := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("for_user", "personalized"))
	if got < 1 {
		t.Errorf("RecommendationsTotal(for_user, personalized) = %v, want >= 1", got)
	}
}

func TestRecordMatrixBuild(t *testing.T) {
	RecordMatrixBuild(10, 25, 140)

	if got := testutil.ToFloat64(RecommendationMatrixSize.WithLabelValues("users")); got != 10 {
		t.Errorf("matrix users gauge = %v, want 10", got)
	}
	if got := testutil.ToFloat64(RecommendationMatrixSize.WithLabelValues("items")); got != 25 {
		t.Errorf("matrix items gauge = %v, want 25", got)
	}
	if got := testutil.ToFloat64(RecommendationMatrixSize.WithLabelValues("ratings")); got != 140 {
		t.Errorf("matrix ratings gauge = %v, want 140", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != base+1 {
		t.Errorf("APIActiveRequests after inc = %v, want %v", got, base+1)
	}

	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != base {
		t.Errorf("APIActiveRequests after dec = %v, want %v", got, base)
	}
}

func TestRecordAuthAttempt(t *testing.T) {
	before := testutil.ToFloat64(AuthAttemptsTotal.WithLabelValues("login", "failure"))
	RecordAuthAttempt("login", false)
	after := testutil.ToFloat64(AuthAttemptsTotal.WithLabelValues("login", "failure"))
	if after != before+1 {
		t.Errorf("AuthAttemptsTotal(login, failure) = %v, want %v", after, before+1)
	}
}

// Reservasync - Reservation State Synchronization for Stellar Tours
// Copyright 2026 Stellar Tours
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellartours/reservasync

package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted} {
		assert.True(t, s.Valid(), "status %q", s)
	}
	assert.False(t, Status("embarcada").Valid())
	assert.False(t, Status("").Valid())
}

func TestDeltaApplyToOnlyOverwritesPresentFields(t *testing.T) {
	travel := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	r := Reservation{
		ID:            7,
		Status:        StatusPending,
		DestinationID: 3,
		ShipID:        9,
		TravelDate:    travel,
	}

	updated := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	d := Delta{
		Status:    StatusPtr(StatusConfirmed),
		UpdatedAt: TimePtr(updated),
	}

	out := d.ApplyTo(r)
	assert.Equal(t, StatusConfirmed, out.Status)
	assert.Equal(t, updated, out.UpdatedAt)
	// Absent fields keep their previous values.
	assert.Equal(t, int64(3), out.DestinationID)
	assert.Equal(t, int64(9), out.ShipID)
	assert.Equal(t, travel, out.TravelDate)
	// Input is not mutated.
	assert.Equal(t, StatusPending, r.Status)
}

func TestDeltaMergeLaterFieldsWin(t *testing.T) {
	first := Delta{
		Status:       StatusPtr(StatusCancelled),
		CancelReason: StringPtr("change of plans"),
	}
	second := Delta{
		Status: StatusPtr(StatusConfirmed),
		ShipID: Int64Ptr(4),
	}

	merged := first.Merge(second)
	require.NotNil(t, merged.Status)
	assert.Equal(t, StatusConfirmed, *merged.Status)
	require.NotNil(t, merged.CancelReason)
	assert.Equal(t, "change of plans", *merged.CancelReason)
	require.NotNil(t, merged.ShipID)
	assert.Equal(t, int64(4), *merged.ShipID)
}

func TestDeltaIsEmpty(t *testing.T) {
	assert.True(t, Delta{}.IsEmpty())
	assert.False(t, Delta{Status: StatusPtr(StatusPending)}.IsEmpty())
}

func TestUpdateEventUnmarshalFlattened(t *testing.T) {
	payload := `{"id":42,"estado":"cancelada","motivoCancelacion":"overbooked"}`

	var ev UpdateEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))
	assert.Equal(t, int64(42), ev.ID)
	require.NotNil(t, ev.Status)
	assert.Equal(t, StatusCancelled, *ev.Status)
	require.NotNil(t, ev.CancelReason)
	assert.Equal(t, "overbooked", *ev.CancelReason)
	assert.Nil(t, ev.TravelDate)
}

func TestEffectiveDateFallsBackToCreation(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := Reservation{CreatedAt: created}
	assert.Equal(t, created, r.EffectiveDate())

	travel := created.AddDate(0, 2, 0)
	r.TravelDate = travel
	assert.Equal(t, travel, r.EffectiveDate())
}

func TestFilterMatches(t *testing.T) {
	base := Reservation{
		ID:            1,
		Status:        StatusConfirmed,
		DestinationID: 5,
		ShipID:        2,
		TravelDate:    time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"zero filter matches all", Filter{}, true},
		{"status match", Filter{Status: StatusConfirmed}, true},
		{"status mismatch", Filter{Status: StatusPending}, false},
		{"from before travel", Filter{From: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}, true},
		{"from after travel", Filter{From: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)}, false},
		{"to same day inclusive", Filter{To: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)}, true},
		{"to before travel", Filter{To: time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)}, false},
		{"destination match", Filter{DestinationID: 5}, true},
		{"destination mismatch", Filter{DestinationID: 6}, false},
		{"ship match", Filter{ShipID: 2}, true},
		{"ship mismatch", Filter{ShipID: 3}, false},
		{
			"all combined",
			Filter{
				Status:        StatusConfirmed,
				From:          time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
				To:            time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
				DestinationID: 5,
				ShipID:        2,
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(base))
		})
	}
}

func TestFilterOverlay(t *testing.T) {
	f := Filter{Status: StatusPending, DestinationID: 1}
	out := f.Overlay(Filter{Status: StatusCancelled, ShipID: 8})
	assert.Equal(t, StatusCancelled, out.Status)
	assert.Equal(t, int64(1), out.DestinationID)
	assert.Equal(t, int64(8), out.ShipID)
}

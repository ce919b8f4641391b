package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forexhub/signals-platform/internal/models"
)

func TestCheckConsistency(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name         string
		endDate      time.Time
		intendedDays int
		wantErr      bool
	}{
		{
			name:         "exact window",
			endDate:      start.Add(7 * 24 * time.Hour),
			intendedDays: 7,
			wantErr:      false,
		},
		{
			name:         "within tolerance short",
			endDate:      start.Add(6*24*time.Hour + 12*time.Hour),
			intendedDays: 7,
			wantErr:      false,
		},
		{
			name:         "within tolerance long",
			endDate:      start.Add(8 * 24 * time.Hour),
			intendedDays: 7,
			wantErr:      false,
		},
		{
			name:         "window too long",
			endDate:      start.Add(10 * 24 * time.Hour),
			intendedDays: 7,
			wantErr:      true,
		},
		{
			name:         "window too short",
			endDate:      start.Add(24 * time.Hour),
			intendedDays: 30,
			wantErr:      true,
		},
		{
			name:         "end equals start",
			endDate:      start,
			intendedDays: 7,
			wantErr:      true,
		},
		{
			name:         "end before start",
			endDate:      start.Add(-24 * time.Hour),
			intendedDays: 7,
			wantErr:      true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := models.Subscription{
				UserUID:   "user-uid",
				Status:    models.StatusTrial,
				StartDate: start,
				EndDate:   tc.endDate,
			}
			err := checkConsistency(sub, tc.intendedDays)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrConsistencyViolation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckConsistency_RevokeWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sub := models.Subscription{
		UserUID:   "user-uid",
		Status:    models.StatusExpired,
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now,
	}
	assert.NoError(t, checkConsistency(sub, 1))
}

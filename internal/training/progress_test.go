package training

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litmus-ai/backend/internal/models"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		completed, total int
		want             int
		ok               bool
	}{
		{0, 0, 0, false},
		{0, 4, 0, true},
		{1, 3, 33, true},
		{2, 3, 66, true},
		{2, 4, 50, true},
		{4, 4, 100, true},
		{5, 4, 100, true},
	}
	for _, tt := range tests {
		got, ok := Percentage(tt.completed, tt.total)
		assert.Equal(t, tt.want, got, "%d/%d", tt.completed, tt.total)
		assert.Equal(t, tt.ok, ok)
	}
}

func TestApplyRollupKeepsCompletedAt(t *testing.T) {
	first := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)
	p := models.UserProgress{Status: models.StatusNotStarted}

	require.True(t, ApplyRollup(&p, 1, 2, first))
	assert.Equal(t, models.StatusInProgress, p.Status)
	assert.Nil(t, p.CompletedAt)
	require.NotNil(t, p.StartedAt)

	require.True(t, ApplyRollup(&p, 2, 2, first))
	require.NotNil(t, p.CompletedAt)
	assert.Equal(t, first, *p.CompletedAt)

	require.True(t, ApplyRollup(&p, 2, 2, later))
	assert.Equal(t, first, *p.CompletedAt)
	assert.True(t, p.LastAccessed.IsZero())
	assert.Equal(t, 100, p.ProgressPercentage)
}

func TestApplyRollupLeavingCompletedClearsCompletedAt(t *testing.T) {
	done := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	p := models.UserProgress{
		Status:             models.StatusCompleted,
		ProgressPercentage: 100,
		StartedAt:          &done,
		CompletedAt:        &done,
	}

	require.True(t, ApplyRollup(&p, 1, 4, done.Add(time.Hour)))
	assert.Equal(t, models.StatusInProgress, p.Status)
	assert.Equal(t, 25, p.ProgressPercentage)
	assert.Nil(t, p.CompletedAt)
	assert.Equal(t, done, *p.StartedAt)
}

func TestApplyRollupNoLessons(t *testing.T) {
	p := models.UserProgress{Status: models.StatusNotStarted, ProgressPercentage: 0}
	assert.False(t, ApplyRollup(&p, 0, 0, time.Now()))
	assert.Equal(t, models.StatusNotStarted, p.Status)
}

func TestApplyOverride(t *testing.T) {
	now := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		start      models.UserProgress
		req        models.ProgressUpdateRequest
		wantPct    int
		wantStatus string
		wantMins   int
	}{
		{
			name:       "never decreases",
			start:      models.UserProgress{ProgressPercentage: 40, TimeSpentMinutes: 30, Status: models.StatusInProgress},
			req:        models.ProgressUpdateRequest{ProgressPercentage: 20, TimeSpentMinutes: 10},
			wantPct:    40,
			wantStatus: models.StatusInProgress,
			wantMins:   30,
		},
		{
			name:       "capped at 100",
			start:      models.UserProgress{Status: models.StatusInProgress},
			req:        models.ProgressUpdateRequest{ProgressPercentage: 150},
			wantPct:    100,
			wantStatus: models.StatusCompleted,
		},
		{
			name:       "completed status forces 100",
			start:      models.UserProgress{ProgressPercentage: 30, Status: models.StatusInProgress},
			req:        models.ProgressUpdateRequest{ProgressPercentage: 30, Status: models.StatusCompleted, TimeSpentMinutes: 45},
			wantPct:    100,
			wantStatus: models.StatusCompleted,
			wantMins:   45,
		},
		{
			name:       "completed stays completed",
			start:      models.UserProgress{ProgressPercentage: 100, Status: models.StatusCompleted, CompletedAt: &now},
			req:        models.ProgressUpdateRequest{ProgressPercentage: 10, Status: models.StatusInProgress},
			wantPct:    100,
			wantStatus: models.StatusCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.start
			ApplyOverride(&p, tt.req, now)

			assert.Equal(t, tt.wantPct, p.ProgressPercentage)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantMins, p.TimeSpentMinutes)
			if p.Status == models.StatusCompleted {
				require.NotNil(t, p.CompletedAt)
			} else {
				assert.Nil(t, p.CompletedAt)
			}
		})
	}
}

package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litmus-ai/backend/internal/apperr"
	"github.com/litmus-ai/backend/internal/models"
)

func TestCertificationUniqueKeys(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := models.Certification{ID: "c1", UserID: "u1", CatalogID: "cat", VerificationCode: "AAAA1111", IsValid: true}
	require.NoError(t, s.InsertCertification(ctx, base))

	tests := []struct {
		name string
		cert models.Certification
		want error
	}{
		{"same code", models.Certification{ID: "c2", UserID: "u2", CatalogID: "other", VerificationCode: "AAAA1111", IsValid: true}, apperr.ErrCodeTaken},
		{"same user and entry", models.Certification{ID: "c3", UserID: "u1", CatalogID: "cat", VerificationCode: "BBBB2222", IsValid: true}, apperr.ErrAlreadyIssued},
		{"revoked duplicate allowed", models.Certification{ID: "c4", UserID: "u1", CatalogID: "cat", VerificationCode: "CCCC3333"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.InsertCertification(ctx, tt.cert)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, apperr.ErrConflict)
		})
	}

	exists, err := s.CodeExists(ctx, "AAAA1111")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.ByCode(ctx, "ZZZZ0000")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestModuleProgressUpsertKeepsFirstTimestamps(t *testing.T) {
	s := New()
	ctx := context.Background()
	started := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	done := started.Add(time.Hour)
	lesson := "lesson-1"

	require.NoError(t, s.SaveModuleProgress(ctx, models.UserProgress{
		ID: "p1", UserID: "u1", ModuleID: "m1", Status: models.StatusInProgress,
		StartedAt: &started, CurrentLessonID: &lesson,
	}))
	later := done.Add(time.Hour)
	require.NoError(t, s.SaveModuleProgress(ctx, models.UserProgress{
		ID: "p2", UserID: "u1", ModuleID: "m1", Status: models.StatusCompleted,
		StartedAt: &later, CompletedAt: &done, ProgressPercentage: 100,
	}))

	got, err := s.ModuleProgress(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, started, *got.StartedAt)
	assert.Equal(t, done, *got.CompletedAt)
	require.NotNil(t, got.CurrentLessonID)
	assert.Equal(t, lesson, *got.CurrentLessonID)

	n, err := s.CountCompletedModules(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestModuleProgressUpserts(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	row := func(status string, pct, minutes int, completedAt *time.Time) models.UserProgress {
		return models.UserProgress{
			ID: "p1", UserID: "u1", ModuleID: "m1", Status: status,
			ProgressPercentage: pct, TimeSpentMinutes: minutes,
			StartedAt: &at, CompletedAt: completedAt, LastAccessed: at,
		}
	}

	tests := []struct {
		name          string
		first         models.UserProgress
		second        models.UserProgress
		override      bool
		wantStatus    string
		wantPct       int
		wantMinutes   int
		wantCompleted bool
	}{
		{
			name:        "override never lowers values",
			first:       row(models.StatusInProgress, 40, 30, nil),
			second:      row(models.StatusInProgress, 20, 10, nil),
			override:    true,
			wantStatus:  models.StatusInProgress,
			wantPct:     40,
			wantMinutes: 30,
		},
		{
			name:        "override raises values",
			first:       row(models.StatusInProgress, 20, 10, nil),
			second:      row(models.StatusInProgress, 60, 45, nil),
			override:    true,
			wantStatus:  models.StatusInProgress,
			wantPct:     60,
			wantMinutes: 45,
		},
		{
			name:          "override keeps a completed module completed",
			first:         row(models.StatusCompleted, 100, 50, &at),
			second:        row(models.StatusInProgress, 30, 5, nil),
			override:      true,
			wantStatus:    models.StatusCompleted,
			wantPct:       100,
			wantMinutes:   50,
			wantCompleted: true,
		},
		{
			name:        "rollup leaving completed clears completed_at",
			first:       row(models.StatusCompleted, 100, 50, &at),
			second:      row(models.StatusInProgress, 25, 50, &at),
			wantStatus:  models.StatusInProgress,
			wantPct:     25,
			wantMinutes: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			ctx := context.Background()
			require.NoError(t, s.SaveModuleProgress(ctx, tt.first))

			save := s.SaveModuleProgress
			if tt.override {
				save = s.SaveModuleOverride
			}
			require.NoError(t, save(ctx, tt.second))

			got, err := s.ModuleProgress(ctx, "u1", "m1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantPct, got.ProgressPercentage)
			assert.Equal(t, tt.wantMinutes, got.TimeSpentMinutes)
			if tt.wantCompleted {
				require.NotNil(t, got.CompletedAt)
				assert.Equal(t, at, *got.CompletedAt)
			} else {
				assert.Nil(t, got.CompletedAt)
			}
		})
	}
}

func TestResultsNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveResult(ctx, models.StoredResult{ID: "old", UserID: "u1", CompletedAt: at}))
	require.NoError(t, s.SaveResult(ctx, models.StoredResult{ID: "new", UserID: "u1", CompletedAt: at.Add(time.Minute)}))
	require.NoError(t, s.SaveResult(ctx, models.StoredResult{ID: "tie", UserID: "u1", CompletedAt: at.Add(time.Minute)}))
	require.NoError(t, s.SaveResult(ctx, models.StoredResult{ID: "other", UserID: "u2", CompletedAt: at}))

	rows, err := s.ListResults(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"tie", "new", "old"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})

	_, err = s.LatestResult(ctx, "nobody")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, models.User{ID: "u1", Email: "a@example.com"}))

	err := s.CreateUser(ctx, models.User{ID: "u2", Email: "a@example.com"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = s.UserByID(ctx, "u2")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

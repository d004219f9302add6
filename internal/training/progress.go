package training

import (
	"time"

	"github.com/litmus-ai/backend/internal/models"
)

// Percentage is floor(100*completed/total). ok is false when the module has
// no lessons and nothing should change.
func Percentage(completed, total int) (pct int, ok bool) {
	if total <= 0 {
		return 0, false
	}
	if completed > total {
		completed = total
	}
	return 100 * completed / total, true
}

// ApplyRollup updates module progress from lesson completion counts. It is
// idempotent: applying the same counts twice leaves the row unchanged. A
// module that drops below 100% leaves completed and loses completed_at.
func ApplyRollup(p *models.UserProgress, completed, total int, now time.Time) bool {
	pct, ok := Percentage(completed, total)
	if !ok {
		return false
	}

	p.ProgressPercentage = pct
	switch {
	case pct == 100:
		p.Status = models.StatusCompleted
		if p.CompletedAt == nil {
			p.CompletedAt = &now
		}
	case pct > 0 || p.Status == models.StatusCompleted:
		p.Status = models.StatusInProgress
		p.CompletedAt = nil
	}
	if p.StartedAt == nil && p.Status != models.StatusNotStarted {
		p.StartedAt = &now
	}
	return true
}

// ApplyOverride merges a client-reported progress update. Percentage and
// minutes never decrease; completing sets the percentage to 100 and stamps
// completed_at once. A completed module stays completed.
func ApplyOverride(p *models.UserProgress, req models.ProgressUpdateRequest, now time.Time) {
	pct := req.ProgressPercentage
	if pct < p.ProgressPercentage {
		pct = p.ProgressPercentage
	}
	if pct > 100 {
		pct = 100
	}
	if req.TimeSpentMinutes > p.TimeSpentMinutes {
		p.TimeSpentMinutes = req.TimeSpentMinutes
	}

	complete := req.Status == models.StatusCompleted || pct >= 100 || p.Status == models.StatusCompleted
	if complete {
		pct = 100
		p.Status = models.StatusCompleted
		if p.CompletedAt == nil {
			p.CompletedAt = &now
		}
	} else {
		p.Status = models.StatusInProgress
	}

	p.ProgressPercentage = pct
	p.LastAccessed = now
	if p.StartedAt == nil {
		p.StartedAt = &now
	}
}

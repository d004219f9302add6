package training

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"

	"github.com/litmus-ai/backend/internal/apperr"
	"github.com/litmus-ai/backend/internal/certification"
	"github.com/litmus-ai/backend/internal/models"
)

// Repository is the training persistence. Single-row getters return
// apperr.ErrNotFound when the row does not exist.
type Repository interface {
	ListModules(ctx context.Context) ([]models.TrainingModule, error)
	Module(ctx context.Context, id string) (models.TrainingModule, error)
	ListLessons(ctx context.Context, moduleID string) ([]models.Lesson, error)
	Lesson(ctx context.Context, id string) (models.Lesson, error)

	ModuleProgress(ctx context.Context, userID, moduleID string) (models.UserProgress, error)
	ListModuleProgress(ctx context.Context, userID string) ([]models.UserProgress, error)
	SaveModuleProgress(ctx context.Context, p models.UserProgress) error
	// SaveModuleOverride upserts like SaveModuleProgress but never lowers the
	// stored percentage or minutes, and never demotes a completed module.
	SaveModuleOverride(ctx context.Context, p models.UserProgress) error
	CountCompletedModules(ctx context.Context, userID string) (int, error)

	LessonProgress(ctx context.Context, userID, lessonID string) (models.LessonProgress, error)
	ListLessonProgress(ctx context.Context, userID, moduleID string) ([]models.LessonProgress, error)
	SaveLessonProgress(ctx context.Context, p models.LessonProgress) error
}

// ResultSource supplies the caller's latest assessment for recommendations.
type ResultSource interface {
	LatestResult(ctx context.Context, userID string) (*models.AssessmentResult, error)
}

type Service struct {
	repo    Repository
	results ResultSource
	now     func() time.Time
}

func NewService(repo Repository, results ResultSource) *Service {
	return &Service{repo: repo, results: results, now: time.Now}
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// ── Catalog ─────────────────────────────────────────────

// Modules lists active modules, filtered by role (modules for that role plus
// General ones) and by the highest tier the caller can access.
func (s *Service) Modules(ctx context.Context, role, tier string) (*models.ModulesResponse, error) {
	modules, err := s.repo.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}

	var kept []models.TrainingModule
	for _, m := range modules {
		if !m.IsActive {
			continue
		}
		if role != "" && m.RoleSpecific != role && m.RoleSpecific != "General" {
			continue
		}
		if tier != "" && !certification.HasTierAccess(tier, m.RequiredTier()) {
			continue
		}
		kept = append(kept, m)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Title < kept[j].Title })

	summaries := []models.ModuleSummary{}
	if len(kept) > 0 {
		if err := copier.Copy(&summaries, &kept); err != nil {
			return nil, fmt.Errorf("copy modules: %w", err)
		}
	}
	return &models.ModulesResponse{Modules: summaries}, nil
}

func (s *Service) Module(ctx context.Context, id string) (*models.ModuleDetailResponse, error) {
	m, err := s.activeModule(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ModuleDetailResponse{Module: m}, nil
}

func (s *Service) activeModule(ctx context.Context, id string) (models.TrainingModule, error) {
	m, err := s.repo.Module(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && !m.IsActive) {
		return m, apperr.NotFound("Module", id)
	}
	if err != nil {
		return m, fmt.Errorf("get module: %w", err)
	}
	return m, nil
}

// ── Module progress ─────────────────────────────────────

// Enroll creates module progress, or moves an existing not-started row to
// in progress.
func (s *Service) Enroll(ctx context.Context, userID, moduleID string) (*models.EnrollResponse, error) {
	if _, err := s.activeModule(ctx, moduleID); err != nil {
		return nil, err
	}

	now := s.clock()
	p, err := s.moduleProgressOrNew(ctx, userID, moduleID, now)
	if err != nil {
		return nil, err
	}
	if p.Status != models.StatusCompleted {
		p.Status = models.StatusInProgress
	}
	if p.StartedAt == nil {
		p.StartedAt = &now
	}
	p.LastAccessed = now

	if err := s.repo.SaveModuleProgress(ctx, p); err != nil {
		return nil, fmt.Errorf("save module progress: %w", err)
	}
	log.Info().Str("user_id", userID).Str("module_id", moduleID).Msg("module_enrolled")
	return &models.EnrollResponse{
		Message:  "Successfully enrolled in module",
		ModuleID: moduleID,
		Status:   p.Status,
	}, nil
}

// UpdateProgress applies a manual progress report.
func (s *Service) UpdateProgress(ctx context.Context, userID, moduleID string, req models.ProgressUpdateRequest) (*models.ProgressUpdateResponse, error) {
	if req.ProgressPercentage < 0 || req.TimeSpentMinutes < 0 {
		return nil, apperr.Validation("progress_percentage and time_spent_minutes cannot be negative")
	}
	switch req.Status {
	case "", models.StatusInProgress, models.StatusCompleted:
	default:
		return nil, apperr.Validation("status must be 'in_progress' or 'completed'")
	}
	if _, err := s.activeModule(ctx, moduleID); err != nil {
		return nil, err
	}

	now := s.clock()
	p, err := s.moduleProgressOrNew(ctx, userID, moduleID, now)
	if err != nil {
		return nil, err
	}
	ApplyOverride(&p, req, now)

	if err := s.repo.SaveModuleOverride(ctx, p); err != nil {
		return nil, fmt.Errorf("save module progress: %w", err)
	}
	// A concurrent override may have stored higher values.
	if p, err = s.repo.ModuleProgress(ctx, userID, moduleID); err != nil {
		return nil, fmt.Errorf("reload module progress: %w", err)
	}
	log.Info().
		Str("user_id", userID).
		Str("module_id", moduleID).
		Int("progress_percentage", p.ProgressPercentage).
		Str("status", p.Status).
		Msg("module_progress_updated")

	return &models.ProgressUpdateResponse{
		Message:            "Progress updated successfully",
		ModuleID:           moduleID,
		Status:             p.Status,
		ProgressPercentage: p.ProgressPercentage,
		TimeSpentMinutes:   p.TimeSpentMinutes,
		CompletedAt:        p.CompletedAt,
	}, nil
}

// Progress lists every module the user has progress on.
func (s *Service) Progress(ctx context.Context, userID string) (*models.ProgressListResponse, error) {
	rows, err := s.repo.ListModuleProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	modules, err := s.repo.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	titles := make(map[string]string, len(modules))
	for _, m := range modules {
		titles[m.ID] = m.Title
	}

	views := make([]models.ModuleProgressView, 0, len(rows))
	for _, p := range rows {
		views = append(views, models.ModuleProgressView{
			ModuleID:           p.ModuleID,
			ModuleTitle:        titles[p.ModuleID],
			Status:             p.Status,
			ProgressPercentage: p.ProgressPercentage,
			TimeSpentMinutes:   p.TimeSpentMinutes,
			LastAccessed:       p.LastAccessed,
			CompletedAt:        p.CompletedAt,
		})
	}
	return &models.ProgressListResponse{Progress: views}, nil
}

// CompletedModuleCount feeds certification rules.
func (s *Service) CompletedModuleCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountCompletedModules(ctx, userID)
}

func (s *Service) moduleProgressOrNew(ctx context.Context, userID, moduleID string, now time.Time) (models.UserProgress, error) {
	p, err := s.repo.ModuleProgress(ctx, userID, moduleID)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.UserProgress{
			ID:           uuid.NewString(),
			UserID:       userID,
			ModuleID:     moduleID,
			Status:       models.StatusNotStarted,
			LastAccessed: now,
		}, nil
	}
	if err != nil {
		return p, fmt.Errorf("get module progress: %w", err)
	}
	return p, nil
}

// ── Lessons ─────────────────────────────────────────────

func (s *Service) ModuleLessons(ctx context.Context, userID, moduleID string) (*models.ModuleLessonsResponse, error) {
	m, err := s.activeModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.repo.ListLessons(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	progress, err := s.repo.ListLessonProgress(ctx, userID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("list lesson progress: %w", err)
	}
	byLesson := make(map[string]models.LessonProgress, len(progress))
	for _, p := range progress {
		byLesson[p.LessonID] = p
	}

	summaries := make([]models.LessonSummary, 0, len(lessons))
	for _, l := range lessons {
		sum := models.LessonSummary{
			ID:                       l.ID,
			Title:                    l.Title,
			Description:              l.Description,
			OrderIndex:               l.OrderIndex,
			ContentType:              l.ContentType,
			EstimatedDurationMinutes: l.EstimatedDurationMinutes,
			IsRequired:               l.IsRequired,
			Status:                   models.StatusNotStarted,
		}
		if p, ok := byLesson[l.ID]; ok {
			sum.Status = p.Status
			sum.TimeSpentMinutes = p.TimeSpentMinutes
			sum.QuizScore = p.QuizScore
			sum.CompletedAt = p.CompletedAt
		}
		summaries = append(summaries, sum)
	}

	return &models.ModuleLessonsResponse{
		Module: models.ModuleHeader{
			ID:           m.ID,
			Title:        m.Title,
			Description:  m.Description,
			TotalLessons: len(lessons),
		},
		Lessons: summaries,
	}, nil
}

// OpenLesson returns a lesson's content. The first open starts the lesson
// and the module; later opens only touch last_accessed.
func (s *Service) OpenLesson(ctx context.Context, userID, lessonID string) (*models.LessonDetail, error) {
	lesson, err := s.lesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	lp, err := s.repo.LessonProgress(ctx, userID, lessonID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		lp = models.LessonProgress{
			ID:           uuid.NewString(),
			UserID:       userID,
			LessonID:     lessonID,
			ModuleID:     lesson.ModuleID,
			Status:       models.StatusInProgress,
			StartedAt:    &now,
			LastAccessed: now,
		}
		if err := s.repo.SaveLessonProgress(ctx, lp); err != nil {
			return nil, fmt.Errorf("save lesson progress: %w", err)
		}
		if err := s.startModule(ctx, userID, lesson, now); err != nil {
			return nil, err
		}
		log.Info().Str("user_id", userID).Str("lesson_id", lessonID).Msg("lesson_started")
	case err != nil:
		return nil, fmt.Errorf("get lesson progress: %w", err)
	default:
		lp.LastAccessed = now
		if err := s.repo.SaveLessonProgress(ctx, lp); err != nil {
			return nil, fmt.Errorf("save lesson progress: %w", err)
		}
	}

	return &models.LessonDetail{Lesson: lesson, Progress: lp}, nil
}

func (s *Service) startModule(ctx context.Context, userID string, lesson models.Lesson, now time.Time) error {
	p, err := s.moduleProgressOrNew(ctx, userID, lesson.ModuleID, now)
	if err != nil {
		return err
	}
	if p.Status == models.StatusNotStarted {
		p.Status = models.StatusInProgress
	}
	if p.StartedAt == nil {
		p.StartedAt = &now
	}
	current := lesson.ID
	p.CurrentLessonID = &current
	p.LastAccessed = now
	if err := s.repo.SaveModuleProgress(ctx, p); err != nil {
		return fmt.Errorf("save module progress: %w", err)
	}
	return nil
}

// CompleteLesson marks a lesson completed and rolls the module up.
func (s *Service) CompleteLesson(ctx context.Context, userID, lessonID string, req models.CompleteLessonRequest) (*models.CompleteLessonResponse, error) {
	if req.TimeSpentMinutes != nil && *req.TimeSpentMinutes < 0 {
		return nil, apperr.Validation("time_spent_minutes cannot be negative")
	}
	if req.QuizScore != nil && (*req.QuizScore < 0 || *req.QuizScore > 100) {
		return nil, apperr.Validation("quiz_score must be between 0 and 100")
	}

	lesson, err := s.lesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	lp, err := s.repo.LessonProgress(ctx, userID, lessonID)
	if errors.Is(err, apperr.ErrNotFound) {
		lp = models.LessonProgress{
			ID:        uuid.NewString(),
			UserID:    userID,
			LessonID:  lessonID,
			ModuleID:  lesson.ModuleID,
			StartedAt: &now,
		}
	} else if err != nil {
		return nil, fmt.Errorf("get lesson progress: %w", err)
	}

	lp.Status = models.StatusCompleted
	lp.CompletedAt = &now
	lp.LastAccessed = now
	if req.TimeSpentMinutes != nil {
		lp.TimeSpentMinutes = *req.TimeSpentMinutes
	}
	if lesson.ContentType == models.LessonQuiz && req.QuizScore != nil {
		score := *req.QuizScore
		lp.QuizScore = &score
		lp.QuizAttempts++
	}
	if err := s.repo.SaveLessonProgress(ctx, lp); err != nil {
		return nil, fmt.Errorf("save lesson progress: %w", err)
	}

	mp, err := s.Recompute(ctx, userID, lesson.ModuleID)
	if err != nil {
		return nil, err
	}
	if mp != nil && !mp.LastAccessed.Equal(now) {
		mp.LastAccessed = now
		if err := s.repo.SaveModuleProgress(ctx, *mp); err != nil {
			return nil, fmt.Errorf("save module progress: %w", err)
		}
	}

	log.Info().Str("user_id", userID).Str("lesson_id", lessonID).Msg("lesson_completed")
	return &models.CompleteLessonResponse{
		Message:        "Lesson completed successfully",
		Progress:       lp,
		ModuleProgress: mp,
	}, nil
}

// Recompute rolls lesson completion up into module progress. It returns nil
// when the module has no lessons.
func (s *Service) Recompute(ctx context.Context, userID, moduleID string) (*models.UserProgress, error) {
	lessons, err := s.repo.ListLessons(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	progress, err := s.repo.ListLessonProgress(ctx, userID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("list lesson progress: %w", err)
	}

	inModule := make(map[string]bool, len(lessons))
	for _, l := range lessons {
		inModule[l.ID] = true
	}
	completed := 0
	for _, p := range progress {
		if p.Status == models.StatusCompleted && inModule[p.LessonID] {
			completed++
		}
	}

	now := s.clock()
	mp, err := s.moduleProgressOrNew(ctx, userID, moduleID, now)
	if err != nil {
		return nil, err
	}
	if !ApplyRollup(&mp, completed, len(lessons), now) {
		return nil, nil
	}
	if err := s.repo.SaveModuleProgress(ctx, mp); err != nil {
		return nil, fmt.Errorf("save module progress: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Str("module_id", moduleID).
		Int("progress_percentage", mp.ProgressPercentage).
		Str("status", mp.Status).
		Msg("module_progress_updated")
	return &mp, nil
}

func (s *Service) lesson(ctx context.Context, id string) (models.Lesson, error) {
	l, err := s.repo.Lesson(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return l, apperr.NotFound("Lesson", id)
	}
	if err != nil {
		return l, fmt.Errorf("get lesson: %w", err)
	}
	return l, nil
}

// ── Recommendations ─────────────────────────────────────

// Recommended ranks active modules against the caller's latest assessment.
func (s *Service) Recommended(ctx context.Context, userID string) (*models.RecommendedModulesResponse, error) {
	latest, err := s.results.LatestResult(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("latest result: %w", err)
	}
	if latest == nil {
		return &models.RecommendedModulesResponse{Modules: []models.RecommendedModule{}}, nil
	}

	resp, err := s.Modules(ctx, "", "")
	if err != nil {
		return nil, err
	}
	return &models.RecommendedModulesResponse{
		HasAssessment: true,
		Modules:       Rank(resp.Modules, latest.DomainScores),
	}, nil
}

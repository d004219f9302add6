package training

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/litmus-ai/backend/internal/apperr"
	"github.com/litmus-ai/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// ── Modules ─────────────────────────────────────────────

const moduleColumns = `id, title, description, COALESCE(role_specific, ''), difficulty_level,
	estimated_duration_minutes, content_type, COALESCE(content_url, ''), is_premium,
	COALESCE(access_tier, ''), learning_objectives, prerequisites, resources, content_sections,
	target_domains, is_active, created_at`

func (s *Store) ListModules(ctx context.Context) ([]models.TrainingModule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+moduleColumns+` FROM training_modules WHERE is_active ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer rows.Close()

	var modules []models.TrainingModule
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

func (s *Store) Module(ctx context.Context, id string) (models.TrainingModule, error) {
	m, err := scanModule(s.db.QueryRowContext(ctx,
		`SELECT `+moduleColumns+` FROM training_modules WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return m, apperr.ErrNotFound
	}
	return m, err
}

func scanModule(sc scanner) (models.TrainingModule, error) {
	var (
		m                                        models.TrainingModule
		objectives, prereqs, resources, sections []byte
		created                                  sql.NullTime
	)
	err := sc.Scan(&m.ID, &m.Title, &m.Description, &m.RoleSpecific, &m.DifficultyLevel,
		&m.EstimatedDurationMinutes, &m.ContentType, &m.ContentURL, &m.IsPremium,
		&m.AccessTier, &objectives, &prereqs, &resources, &sections,
		pq.Array(&m.TargetDomains), &m.IsActive, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return m, err
	}
	if err != nil {
		return m, fmt.Errorf("scan module: %w", err)
	}

	for _, f := range []struct {
		raw  []byte
		dest any
	}{
		{objectives, &m.LearningObjectives},
		{prereqs, &m.Prerequisites},
		{resources, &m.Resources},
		{sections, &m.ContentSections},
	} {
		if err := json.Unmarshal(f.raw, f.dest); err != nil {
			return m, fmt.Errorf("decode module %s: %w", m.ID, err)
		}
	}
	m.CreatedAt = created.Time
	return m, nil
}

// ── Lessons ─────────────────────────────────────────────

const lessonColumns = `id, module_id, title, description, order_index, content_type, content,
	estimated_duration_minutes, is_required`

func (s *Store) ListLessons(ctx context.Context, moduleID string) ([]models.Lesson, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE module_id = $1 ORDER BY order_index`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (s *Store) Lesson(ctx context.Context, id string) (models.Lesson, error) {
	l, err := scanLesson(s.db.QueryRowContext(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return l, apperr.ErrNotFound
	}
	return l, err
}

func scanLesson(sc scanner) (models.Lesson, error) {
	var (
		l       models.Lesson
		content []byte
	)
	err := sc.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Description, &l.OrderIndex, &l.ContentType,
		&content, &l.EstimatedDurationMinutes, &l.IsRequired)
	if errors.Is(err, sql.ErrNoRows) {
		return l, err
	}
	if err != nil {
		return l, fmt.Errorf("scan lesson: %w", err)
	}
	l.Content = json.RawMessage(content)
	return l, nil
}

// ── Module progress ─────────────────────────────────────

const progressColumns = `id, user_id, module_id, status, progress_percentage, time_spent_minutes,
	started_at, completed_at, last_accessed, current_lesson_id`

func (s *Store) ModuleProgress(ctx context.Context, userID, moduleID string) (models.UserProgress, error) {
	p, err := scanProgress(s.db.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM user_progress WHERE user_id = $1 AND module_id = $2`,
		userID, moduleID))
	if errors.Is(err, sql.ErrNoRows) {
		return p, apperr.ErrNotFound
	}
	return p, err
}

func (s *Store) ListModuleProgress(ctx context.Context, userID string) ([]models.UserProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+progressColumns+` FROM user_progress WHERE user_id = $1 ORDER BY last_accessed DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var list []models.UserProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

const upsertModuleProgress = `INSERT INTO user_progress
	   (id, user_id, module_id, status, progress_percentage, time_spent_minutes,
	    started_at, completed_at, last_accessed, current_lesson_id)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	 ON CONFLICT (user_id, module_id) DO UPDATE SET `

// SaveModuleProgress upserts on (user_id, module_id). completed_at is written
// once and cleared when the module leaves completed.
func (s *Store) SaveModuleProgress(ctx context.Context, p models.UserProgress) error {
	return s.upsertProgress(ctx, p, upsertModuleProgress+`
	   status = EXCLUDED.status,
	   progress_percentage = EXCLUDED.progress_percentage,
	   time_spent_minutes = EXCLUDED.time_spent_minutes,
	   started_at = COALESCE(user_progress.started_at, EXCLUDED.started_at),
	   completed_at = CASE WHEN EXCLUDED.status = 'completed'
	     THEN COALESCE(user_progress.completed_at, EXCLUDED.completed_at) END,
	   last_accessed = EXCLUDED.last_accessed,
	   current_lesson_id = COALESCE(EXCLUDED.current_lesson_id, user_progress.current_lesson_id)`)
}

// SaveModuleOverride upserts a manual progress report. Percentage and minutes
// take the larger of the stored and reported values, and a completed row
// stays completed, so concurrent reports converge.
func (s *Store) SaveModuleOverride(ctx context.Context, p models.UserProgress) error {
	return s.upsertProgress(ctx, p, upsertModuleProgress+`
	   status = CASE WHEN user_progress.status = 'completed'
	     THEN user_progress.status ELSE EXCLUDED.status END,
	   progress_percentage = GREATEST(user_progress.progress_percentage, EXCLUDED.progress_percentage),
	   time_spent_minutes = GREATEST(user_progress.time_spent_minutes, EXCLUDED.time_spent_minutes),
	   started_at = COALESCE(user_progress.started_at, EXCLUDED.started_at),
	   completed_at = COALESCE(user_progress.completed_at, EXCLUDED.completed_at),
	   last_accessed = EXCLUDED.last_accessed,
	   current_lesson_id = COALESCE(EXCLUDED.current_lesson_id, user_progress.current_lesson_id)`)
}

func (s *Store) upsertProgress(ctx context.Context, p models.UserProgress, query string) error {
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.ModuleID, p.Status, p.ProgressPercentage, p.TimeSpentMinutes,
		p.StartedAt, p.CompletedAt, p.LastAccessed, p.CurrentLessonID,
	)
	if err != nil {
		return fmt.Errorf("upsert module progress: %w", err)
	}
	return nil
}

func (s *Store) CountCompletedModules(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_progress WHERE user_id = $1 AND status = $2`,
		userID, models.StatusCompleted,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completed modules: %w", err)
	}
	return n, nil
}

func scanProgress(sc scanner) (models.UserProgress, error) {
	var (
		p                  models.UserProgress
		started, completed sql.NullTime
		accessed           sql.NullTime
		current            sql.NullString
	)
	err := sc.Scan(&p.ID, &p.UserID, &p.ModuleID, &p.Status, &p.ProgressPercentage, &p.TimeSpentMinutes,
		&started, &completed, &accessed, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("scan progress: %w", err)
	}
	p.StartedAt = nullTime(started)
	p.CompletedAt = nullTime(completed)
	p.LastAccessed = accessed.Time
	if current.Valid {
		p.CurrentLessonID = &current.String
	}
	return p, nil
}

// ── Lesson progress ─────────────────────────────────────

const lessonProgressColumns = `id, user_id, lesson_id, module_id, status, time_spent_minutes,
	quiz_score, quiz_attempts, started_at, completed_at, last_accessed`

func (s *Store) LessonProgress(ctx context.Context, userID, lessonID string) (models.LessonProgress, error) {
	p, err := scanLessonProgress(s.db.QueryRowContext(ctx,
		`SELECT `+lessonProgressColumns+` FROM lesson_progress WHERE user_id = $1 AND lesson_id = $2`,
		userID, lessonID))
	if errors.Is(err, sql.ErrNoRows) {
		return p, apperr.ErrNotFound
	}
	return p, err
}

func (s *Store) ListLessonProgress(ctx context.Context, userID, moduleID string) ([]models.LessonProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+lessonProgressColumns+` FROM lesson_progress WHERE user_id = $1 AND module_id = $2`,
		userID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("query lesson progress: %w", err)
	}
	defer rows.Close()

	var list []models.LessonProgress
	for rows.Next() {
		p, err := scanLessonProgress(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// SaveLessonProgress upserts on (user_id, lesson_id).
func (s *Store) SaveLessonProgress(ctx context.Context, p models.LessonProgress) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lesson_progress
		   (id, user_id, lesson_id, module_id, status, time_spent_minutes, quiz_score, quiz_attempts,
		    started_at, completed_at, last_accessed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (user_id, lesson_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   time_spent_minutes = EXCLUDED.time_spent_minutes,
		   quiz_score = EXCLUDED.quiz_score,
		   quiz_attempts = EXCLUDED.quiz_attempts,
		   started_at = COALESCE(lesson_progress.started_at, EXCLUDED.started_at),
		   completed_at = EXCLUDED.completed_at,
		   last_accessed = EXCLUDED.last_accessed`,
		p.ID, p.UserID, p.LessonID, p.ModuleID, p.Status, p.TimeSpentMinutes, p.QuizScore, p.QuizAttempts,
		p.StartedAt, p.CompletedAt, p.LastAccessed,
	)
	if err != nil {
		return fmt.Errorf("upsert lesson progress: %w", err)
	}
	return nil
}

func scanLessonProgress(sc scanner) (models.LessonProgress, error) {
	var (
		p                  models.LessonProgress
		quiz               sql.NullFloat64
		started, completed sql.NullTime
		accessed           sql.NullTime
	)
	err := sc.Scan(&p.ID, &p.UserID, &p.LessonID, &p.ModuleID, &p.Status, &p.TimeSpentMinutes,
		&quiz, &p.QuizAttempts, &started, &completed, &accessed)
	if errors.Is(err, sql.ErrNoRows) {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("scan lesson progress: %w", err)
	}
	if quiz.Valid {
		p.QuizScore = &quiz.Float64
	}
	p.StartedAt = nullTime(started)
	p.CompletedAt = nullTime(completed)
	p.LastAccessed = accessed.Time
	return p, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

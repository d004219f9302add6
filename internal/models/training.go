package models

import (
	"encoding/json"
	"time"
)

const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

const (
	LessonQuiz        = "quiz"
	LessonVideo       = "video"
	LessonText        = "text"
	LessonInteractive = "interactive"
)

type Resource struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

type ContentSection struct {
	Title           string `json:"title" yaml:"title"`
	Summary         string `json:"summary" yaml:"summary"`
	DurationMinutes int    `json:"duration_minutes" yaml:"duration_minutes"`
}

type TrainingModule struct {
	ID                       string           `json:"id" yaml:"id"`
	Title                    string           `json:"title" yaml:"title"`
	Description              string           `json:"description" yaml:"description"`
	RoleSpecific             string           `json:"role_specific" yaml:"role_specific"`
	DifficultyLevel          int              `json:"difficulty_level" yaml:"difficulty_level"`
	EstimatedDurationMinutes int              `json:"estimated_duration_minutes" yaml:"estimated_duration_minutes"`
	ContentType              string           `json:"content_type" yaml:"content_type"`
	ContentURL               string           `json:"content_url" yaml:"content_url"`
	IsPremium                bool             `json:"is_premium" yaml:"is_premium"`
	AccessTier               string           `json:"access_tier,omitempty" yaml:"access_tier"`
	LearningObjectives       []string         `json:"learning_objectives" yaml:"learning_objectives"`
	Prerequisites            []string         `json:"prerequisites" yaml:"prerequisites"`
	Resources                []Resource       `json:"resources" yaml:"resources"`
	ContentSections          []ContentSection `json:"content_sections" yaml:"content_sections"`
	TargetDomains            []string         `json:"target_domains" yaml:"target_domains"`
	IsActive                 bool             `json:"-" yaml:"-"`
	CreatedAt                time.Time        `json:"created_at" yaml:"-"`
}

// RequiredTier mirrors CertificationType.RequiredTier for modules.
func (m TrainingModule) RequiredTier() string {
	if m.AccessTier != "" {
		return m.AccessTier
	}
	if m.IsPremium {
		return TierProfessional
	}
	return TierFree
}

// ModuleSummary is the list view of a module.
type ModuleSummary struct {
	ID                       string   `json:"id"`
	Title                    string   `json:"title"`
	Description              string   `json:"description"`
	RoleSpecific             string   `json:"role_specific"`
	DifficultyLevel          int      `json:"difficulty_level"`
	EstimatedDurationMinutes int      `json:"estimated_duration_minutes"`
	ContentType              string   `json:"content_type"`
	ContentURL               string   `json:"content_url"`
	IsPremium                bool     `json:"is_premium"`
	LearningObjectives       []string `json:"learning_objectives"`
	Prerequisites            []string `json:"prerequisites"`
	TargetDomains            []string `json:"target_domains"`
}

type Lesson struct {
	ID                       string          `json:"id"`
	ModuleID                 string          `json:"module_id"`
	Title                    string          `json:"title"`
	Description              string          `json:"description"`
	OrderIndex               int             `json:"order_index"`
	ContentType              string          `json:"content_type"`
	Content                  json.RawMessage `json:"content"`
	EstimatedDurationMinutes int             `json:"estimated_duration_minutes"`
	IsRequired               bool            `json:"is_required"`
}

// UserProgress is the module-level progress row, unique per (user, module).
type UserProgress struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"-"`
	ModuleID           string     `json:"module_id"`
	Status             string     `json:"status"`
	ProgressPercentage int        `json:"progress_percentage"`
	TimeSpentMinutes   int        `json:"time_spent_minutes"`
	StartedAt          *time.Time `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at"`
	LastAccessed       time.Time  `json:"last_accessed"`
	CurrentLessonID    *string    `json:"current_lesson_id,omitempty"`
}

// LessonProgress is unique per (user, lesson).
type LessonProgress struct {
	ID               string     `json:"-"`
	UserID           string     `json:"-"`
	LessonID         string     `json:"-"`
	ModuleID         string     `json:"-"`
	Status           string     `json:"status"`
	TimeSpentMinutes int        `json:"time_spent_minutes"`
	QuizScore        *float64   `json:"quiz_score"`
	QuizAttempts     int        `json:"quiz_attempts"`
	StartedAt        *time.Time `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	LastAccessed     time.Time  `json:"last_accessed"`
}

// ── Requests ─────────────────────────────────────────────

type ProgressUpdateRequest struct {
	ProgressPercentage int    `json:"progress_percentage"`
	TimeSpentMinutes   int    `json:"time_spent_minutes"`
	Status             string `json:"status"`
}

type CompleteLessonRequest struct {
	TimeSpentMinutes *int     `json:"time_spent_minutes"`
	QuizScore        *float64 `json:"quiz_score"`
}

// ── Responses ────────────────────────────────────────────

type ModulesResponse struct {
	Modules []ModuleSummary `json:"modules"`
}

type ModuleDetailResponse struct {
	Module TrainingModule `json:"module"`
}

type ModuleProgressView struct {
	ModuleID           string     `json:"module_id"`
	ModuleTitle        string     `json:"module_title"`
	Status             string     `json:"status"`
	ProgressPercentage int        `json:"progress_percentage"`
	TimeSpentMinutes   int        `json:"time_spent_minutes"`
	LastAccessed       time.Time  `json:"last_accessed"`
	CompletedAt        *time.Time `json:"completed_at"`
}

type ProgressListResponse struct {
	Progress []ModuleProgressView `json:"progress"`
}

type EnrollResponse struct {
	Message  string `json:"message"`
	ModuleID string `json:"module_id"`
	Status   string `json:"status"`
}

type ProgressUpdateResponse struct {
	Message            string     `json:"message"`
	ModuleID           string     `json:"module_id"`
	Status             string     `json:"status"`
	ProgressPercentage int        `json:"progress_percentage"`
	TimeSpentMinutes   int        `json:"time_spent_minutes"`
	CompletedAt        *time.Time `json:"completed_at"`
}

type LessonSummary struct {
	ID                       string     `json:"id"`
	Title                    string     `json:"title"`
	Description              string     `json:"description"`
	OrderIndex               int        `json:"order_index"`
	ContentType              string     `json:"content_type"`
	EstimatedDurationMinutes int        `json:"estimated_duration_minutes"`
	IsRequired               bool       `json:"is_required"`
	Status                   string     `json:"status"`
	TimeSpentMinutes         int        `json:"time_spent_minutes"`
	QuizScore                *float64   `json:"quiz_score"`
	CompletedAt              *time.Time `json:"completed_at"`
}

type ModuleHeader struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	TotalLessons int    `json:"total_lessons"`
}

type ModuleLessonsResponse struct {
	Module  ModuleHeader    `json:"module"`
	Lessons []LessonSummary `json:"lessons"`
}

type LessonDetail struct {
	Lesson
	Progress LessonProgress `json:"progress"`
}

type CompleteLessonResponse struct {
	Message        string         `json:"message"`
	Progress       LessonProgress `json:"progress"`
	ModuleProgress *UserProgress  `json:"module_progress,omitempty"`
}

// RecommendedModule is a module ranked against the caller's weakest domains.
type RecommendedModule struct {
	ModuleSummary
	Relevance      float64  `json:"relevance"`
	MatchedDomains []string `json:"matched_domains"`
}

type RecommendedModulesResponse struct {
	HasAssessment bool                `json:"has_assessment"`
	Modules       []RecommendedModule `json:"modules"`
}

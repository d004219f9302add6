package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"

	"github.com/litmus-ai/backend/internal/apperr"
	"github.com/litmus-ai/backend/internal/models"
)

// Repository is the persistence the assessment service needs.
type Repository interface {
	ListDomains(ctx context.Context) ([]models.Domain, error)
	ListQuestions(ctx context.Context) ([]models.Question, error)
	ListBandGuidance(ctx context.Context) ([]models.BandGuidance, error)
	SaveResult(ctx context.Context, row models.StoredResult) error
	ListResults(ctx context.Context, userID string) ([]models.StoredResult, error)
	LatestResult(ctx context.Context, userID string) (models.StoredResult, error)
}

type Service struct {
	repo       Repository
	thresholds Thresholds
	now        func() time.Time
}

func NewService(repo Repository, thresholds Thresholds) *Service {
	return &Service{repo: repo, thresholds: thresholds, now: time.Now}
}

// Questions returns the active bank without the answer key.
func (s *Service) Questions(ctx context.Context) (*models.QuestionsResponse, error) {
	bank, err := s.repo.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	domains, err := s.repo.ListDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}

	public := make([]models.PublicQuestion, 0, len(bank))
	if len(bank) > 0 {
		if err := copier.Copy(&public, &bank); err != nil {
			return nil, fmt.Errorf("copy questions: %w", err)
		}
	}

	return &models.QuestionsResponse{
		Questions:      public,
		TotalQuestions: len(public),
		Domains:        DomainNames(domains),
	}, nil
}

// Submit scores an attempt and, for a signed-in user, stores it. A storage
// failure does not fail the submission; the caller sees saved=false.
func (s *Service) Submit(ctx context.Context, userID string, req models.SubmitRequest) (*models.SubmitResponse, error) {
	if len(req.Answers) == 0 {
		return nil, apperr.Validation("Answers are required")
	}
	if req.TimeTakenMinutes < 0 {
		return nil, apperr.Validation("time_taken_minutes cannot be negative")
	}

	bank, err := s.repo.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	domains, err := s.repo.ListDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	guidance, err := s.repo.ListBandGuidance(ctx)
	if err != nil {
		return nil, fmt.Errorf("list band guidance: %w", err)
	}

	report := Score(bank, domains, req.Answers, req.OptionMap)
	band := s.thresholds.Classify(report.TotalScore, report.MaxScore)

	result := models.AssessmentResult{
		UserID:           userID,
		TotalScore:       report.TotalScore,
		MaxScore:         report.MaxScore,
		Percentage:       report.Percentage,
		DomainScores:     report.DomainScores,
		ScoreBand:        band,
		TimeTakenMinutes: req.TimeTakenMinutes,
		Recommendations:  Recommend(band, guidance, domains, report.DomainScores, s.thresholds),
		CompletedAt:      s.now().UTC(),
	}

	resp := &models.SubmitResponse{
		DetailedResults: report.DetailedResults,
		SaveStatus:      models.SaveStatusAnonymous,
	}

	if userID != "" {
		result.ID = uuid.NewString()
		if err := s.save(ctx, result); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("assessment_save_failed")
			result.ID = ""
			resp.SaveStatus = models.SaveStatusFailed
		} else {
			resp.Saved = true
			resp.SaveStatus = models.SaveStatusSaved
		}
	}

	resp.AssessmentResult = result
	log.Info().
		Str("user_id", userID).
		Int("total_score", result.TotalScore).
		Str("score_band", string(band)).
		Str("save_status", resp.SaveStatus).
		Msg("assessment_submitted")
	return resp, nil
}

func (s *Service) save(ctx context.Context, result models.AssessmentResult) error {
	row, err := models.NewStoredResult(result)
	if err != nil {
		return err
	}
	return s.repo.SaveResult(ctx, row)
}

// History returns the user's results, newest first, in the current shape.
func (s *Service) History(ctx context.Context, userID string) (*models.HistoryResponse, error) {
	rows, err := s.repo.ListResults(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	domains, totals, err := s.bankShape(ctx)
	if err != nil {
		return nil, err
	}

	history := make([]models.AssessmentResult, 0, len(rows))
	for _, row := range rows {
		history = append(history, NormalizeStoredResult(row, domains, totals, s.thresholds))
	}
	return &models.HistoryResponse{History: history}, nil
}

// LatestResult returns the user's most recent result, or nil when they have
// none.
func (s *Service) LatestResult(ctx context.Context, userID string) (*models.AssessmentResult, error) {
	row, err := s.repo.LatestResult(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest result: %w", err)
	}
	domains, totals, err := s.bankShape(ctx)
	if err != nil {
		return nil, err
	}
	result := NormalizeStoredResult(row, domains, totals, s.thresholds)
	return &result, nil
}

func (s *Service) bankShape(ctx context.Context) ([]models.Domain, map[string]int, error) {
	domains, err := s.repo.ListDomains(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list domains: %w", err)
	}
	bank, err := s.repo.ListQuestions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}
	return domains, DomainTotals(bank), nil
}

package assessment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

// ── Catalog ─────────────────────────────────────────────

func (s *Store) ListDomains(ctx context.Context) ([]models.Domain, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, position, remediation FROM assessment_domains ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("query domains: %w", err)
	}
	defer rows.Close()

	var domains []models.Domain
	for rows.Next() {
		var d models.Domain
		if err := rows.Scan(&d.Name, &d.Position, &d.Remediation); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

func (s *Store) ListQuestions(ctx context.Context) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT q.id, q.domain, q.question_text, q.option_a, q.option_b, q.option_c, q.option_d,
		        q.correct_answer, q.explanation, q.position
		 FROM assessment_questions q
		 JOIN assessment_domains d ON d.name = q.domain
		 WHERE q.is_active
		 ORDER BY d.position, q.position, q.id`)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Domain, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
			&q.CorrectAnswer, &q.Explanation, &q.Position); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Store) ListBandGuidance(ctx context.Context) ([]models.BandGuidance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT band, description, priority, courses FROM band_guidance`)
	if err != nil {
		return nil, fmt.Errorf("query band guidance: %w", err)
	}
	defer rows.Close()

	var bands []models.BandGuidance
	for rows.Next() {
		var b models.BandGuidance
		if err := rows.Scan(&b.Band, &b.Description, &b.Priority, pq.Array(&b.Courses)); err != nil {
			return nil, fmt.Errorf("scan band guidance: %w", err)
		}
		bands = append(bands, b)
	}
	return bands, rows.Err()
}

// ── Results ─────────────────────────────────────────────

const resultColumns = `id, user_id, total_score, max_score, percentage, domain_scores, score_band,
	functional_score, ethical_score, rhetorical_score, pedagogical_score,
	time_taken_minutes, recommendations, completed_at`

func (s *Store) SaveResult(ctx context.Context, row models.StoredResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessment_results
		   (id, user_id, total_score, max_score, percentage, domain_scores, score_band,
		    time_taken_minutes, recommendations, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		row.ID, row.UserID, row.TotalScore, row.MaxScore, row.Percentage,
		string(row.DomainScores), row.ScoreBand, row.TimeTakenMinutes,
		string(row.Recommendations), row.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *Store) ListResults(ctx context.Context, userID string) ([]models.StoredResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resultColumns+`
		 FROM assessment_results WHERE user_id = $1
		 ORDER BY completed_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []models.StoredResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) LatestResult(ctx context.Context, userID string) (models.StoredResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+resultColumns+`
		 FROM assessment_results WHERE user_id = $1
		 ORDER BY completed_at DESC LIMIT 1`, userID)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StoredResult{}, apperr.ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(sc scanner) (models.StoredResult, error) {
	var (
		r         models.StoredResult
		band      sql.NullString
		recs      sql.NullString
		completed sql.NullTime
	)
	err := sc.Scan(&r.ID, &r.UserID, &r.TotalScore, &r.MaxScore, &r.Percentage, &r.DomainScores, &band,
		&r.FunctionalScore, &r.EthicalScore, &r.RhetoricalScore, &r.PedagogicalScore,
		&r.TimeTakenMinutes, &recs, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan result: %w", err)
	}
	r.ScoreBand = band.String
	if recs.Valid {
		r.Recommendations = []byte(recs.String)
	}
	r.CompletedAt = completed.Time
	return r, nil
}

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/litmus-ai/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// seed upserts keys[i] through upsert(tx, i) inside one transaction.
func (s *Store) seed(ctx context.Context, table, keyCol string, keys []string, force bool, upsert func(tx *sql.Tx, i int) error) (models.SeedCounts, error) {
	var counts models.SeedCounts

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return counts, fmt.Errorf("begin seed %s: %w", table, err)
	}
	defer tx.Rollback()

	existsQuery := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1)`, table, keyCol)
	for i, key := range keys {
		var exists bool
		if err := tx.QueryRowContext(ctx, existsQuery, key).Scan(&exists); err != nil {
			return counts, fmt.Errorf("check %s %s: %w", table, key, err)
		}
		if exists && !force {
			counts.Skipped++
			continue
		}
		if err := upsert(tx, i); err != nil {
			return counts, fmt.Errorf("upsert %s %s: %w", table, key, err)
		}
		if exists {
			counts.Updated++
		} else {
			counts.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return counts, fmt.Errorf("commit seed %s: %w", table, err)
	}
	return counts, nil
}

func (s *Store) SeedDomains(ctx context.Context, domains []models.Domain, force bool) (models.SeedCounts, error) {
	keys := make([]string, len(domains))
	for i, d := range domains {
		keys[i] = d.Name
	}
	return s.seed(ctx, "assessment_domains", "name", keys, force, func(tx *sql.Tx, i int) error {
		d := domains[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO assessment_domains (name, position, remediation)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (name) DO UPDATE SET position = EXCLUDED.position, remediation = EXCLUDED.remediation`,
			d.Name, d.Position, d.Remediation,
		)
		return err
	})
}

func (s *Store) SeedQuestions(ctx context.Context, questions []models.Question, force bool) (models.SeedCounts, error) {
	keys := make([]string, len(questions))
	for i, q := range questions {
		keys[i] = q.ID
	}
	return s.seed(ctx, "assessment_questions", "id", keys, force, func(tx *sql.Tx, i int) error {
		q := questions[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO assessment_questions
			   (id, domain, question_text, option_a, option_b, option_c, option_d, correct_answer, explanation, position, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
			 ON CONFLICT (id) DO UPDATE SET
			   domain = EXCLUDED.domain, question_text = EXCLUDED.question_text,
			   option_a = EXCLUDED.option_a, option_b = EXCLUDED.option_b,
			   option_c = EXCLUDED.option_c, option_d = EXCLUDED.option_d,
			   correct_answer = EXCLUDED.correct_answer, explanation = EXCLUDED.explanation,
			   position = EXCLUDED.position, is_active = TRUE`,
			q.ID, q.Domain, q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
			q.CorrectAnswer, q.Explanation, q.Position,
		)
		return err
	})
}

func (s *Store) SeedBandGuidance(ctx context.Context, bands []models.BandGuidance, force bool) (models.SeedCounts, error) {
	keys := make([]string, len(bands))
	for i, b := range bands {
		keys[i] = string(b.Band)
	}
	return s.seed(ctx, "band_guidance", "band", keys, force, func(tx *sql.Tx, i int) error {
		b := bands[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO band_guidance (band, description, priority, courses)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (band) DO UPDATE SET
			   description = EXCLUDED.description, priority = EXCLUDED.priority, courses = EXCLUDED.courses`,
			b.Band, b.Description, b.Priority, pq.Array(b.Courses),
		)
		return err
	})
}

func (s *Store) SeedModules(ctx context.Context, modules []models.TrainingModule, force bool) (models.SeedCounts, error) {
	keys := make([]string, len(modules))
	for i, m := range modules {
		keys[i] = m.ID
	}
	return s.seed(ctx, "training_modules", "id", keys, force, func(tx *sql.Tx, i int) error {
		m := modules[i]
		objectives, err := jsonList(m.LearningObjectives)
		if err != nil {
			return err
		}
		prereqs, err := jsonList(m.Prerequisites)
		if err != nil {
			return err
		}
		resources, err := jsonList(m.Resources)
		if err != nil {
			return err
		}
		sections, err := jsonList(m.ContentSections)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO training_modules
			   (id, title, description, role_specific, difficulty_level, estimated_duration_minutes,
			    content_type, content_url, is_premium, access_tier, learning_objectives, prerequisites,
			    resources, content_sections, target_domains, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13, $14, $15, TRUE)
			 ON CONFLICT (id) DO UPDATE SET
			   title = EXCLUDED.title, description = EXCLUDED.description,
			   role_specific = EXCLUDED.role_specific, difficulty_level = EXCLUDED.difficulty_level,
			   estimated_duration_minutes = EXCLUDED.estimated_duration_minutes,
			   content_type = EXCLUDED.content_type, content_url = EXCLUDED.content_url,
			   is_premium = EXCLUDED.is_premium, access_tier = EXCLUDED.access_tier,
			   learning_objectives = EXCLUDED.learning_objectives, prerequisites = EXCLUDED.prerequisites,
			   resources = EXCLUDED.resources, content_sections = EXCLUDED.content_sections,
			   target_domains = EXCLUDED.target_domains, is_active = TRUE`,
			m.ID, m.Title, m.Description, m.RoleSpecific, m.DifficultyLevel, m.EstimatedDurationMinutes,
			m.ContentType, m.ContentURL, m.IsPremium, m.AccessTier, objectives, prereqs,
			resources, sections, pq.Array(m.TargetDomains),
		)
		return err
	})
}

func (s *Store) SeedLessons(ctx context.Context, lessons []models.Lesson, force bool) (models.SeedCounts, error) {
	keys := make([]string, len(lessons))
	for i, l := range lessons {
		keys[i] = l.ID
	}
	return s.seed(ctx, "lessons", "id", keys, force, func(tx *sql.Tx, i int) error {
		l := lessons[i]
		content := string(l.Content)
		if content == "" {
			content = "{}"
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO lessons
			   (id, module_id, title, description, order_index, content_type, content,
			    estimated_duration_minutes, is_required)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO UPDATE SET
			   module_id = EXCLUDED.module_id, title = EXCLUDED.title, description = EXCLUDED.description,
			   order_index = EXCLUDED.order_index, content_type = EXCLUDED.content_type,
			   content = EXCLUDED.content, estimated_duration_minutes = EXCLUDED.estimated_duration_minutes,
			   is_required = EXCLUDED.is_required`,
			l.ID, l.ModuleID, l.Title, l.Description, l.OrderIndex, l.ContentType, content,
			l.EstimatedDurationMinutes, l.IsRequired,
		)
		return err
	})
}

func (s *Store) SeedCertificationTypes(ctx context.Context, certs []models.CertificationType, force bool) (models.SeedCounts, error) {
	keys := make([]string, len(certs))
	for i, c := range certs {
		keys[i] = c.ID
	}
	return s.seed(ctx, "certification_types", "id", keys, force, func(tx *sql.Tx, i int) error {
		c := certs[i]
		requirements, err := jsonList(c.Requirements)
		if err != nil {
			return err
		}
		rules, err := jsonList(c.Rules)
		if err != nil {
			return err
		}
		skills, err := jsonList(c.SkillsValidated)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO certification_types
			   (id, title, description, requirements, rules, estimated_time, skills_validated, access_tier, is_premium)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO UPDATE SET
			   title = EXCLUDED.title, description = EXCLUDED.description,
			   requirements = EXCLUDED.requirements, rules = EXCLUDED.rules,
			   estimated_time = EXCLUDED.estimated_time, skills_validated = EXCLUDED.skills_validated,
			   access_tier = EXCLUDED.access_tier, is_premium = EXCLUDED.is_premium, updated_at = NOW()`,
			c.ID, c.Title, c.Description, requirements, rules, c.EstimatedTime, skills,
			c.RequiredTier(), c.IsPremium,
		)
		return err
	})
}

// jsonList encodes a slice for a JSONB column, writing [] for nil. The
// result is a string because lib/pq sends []byte parameters as bytea.
func jsonList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(b), nil
}

package certification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/litmus-ai/backend/internal/apperr"
	"github.com/litmus-ai/backend/internal/models"
)

const (
	codeConstraint        = "certifications_verification_code_key"
	userCatalogConstraint = "certifications_user_catalog_valid_key"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Catalog ─────────────────────────────────────────────

const catalogColumns = `id, title, description, requirements, rules, COALESCE(estimated_time, ''),
	skills_validated, access_tier, is_premium, updated_at`

func (s *Store) ListCatalog(ctx context.Context) ([]models.CertificationType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+catalogColumns+` FROM certification_types ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var certs []models.CertificationType
	for rows.Next() {
		c, err := scanCatalog(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}

func (s *Store) CatalogEntry(ctx context.Context, id string) (models.CertificationType, error) {
	c, err := scanCatalog(s.db.QueryRowContext(ctx,
		`SELECT `+catalogColumns+` FROM certification_types WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, apperr.ErrNotFound
	}
	return c, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCatalog(sc scanner) (models.CertificationType, error) {
	var (
		c                           models.CertificationType
		requirements, rules, skills []byte
		updated                     sql.NullTime
	)
	err := sc.Scan(&c.ID, &c.Title, &c.Description, &requirements, &rules, &c.EstimatedTime,
		&skills, &c.AccessTier, &c.IsPremium, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return c, err
	}
	if err != nil {
		return c, fmt.Errorf("scan catalog entry: %w", err)
	}
	if err := json.Unmarshal(requirements, &c.Requirements); err != nil {
		return c, fmt.Errorf("decode requirements of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal(rules, &c.Rules); err != nil {
		return c, fmt.Errorf("decode rules of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal(skills, &c.SkillsValidated); err != nil {
		return c, fmt.Errorf("decode skills of %s: %w", c.ID, err)
	}
	if updated.Valid {
		c.UpdatedAt = &updated.Time
	}
	return c, nil
}

// ── Certificates ────────────────────────────────────────

const certColumns = `c.id, c.user_id, COALESCE(c.catalog_id, ''), c.certification_type, c.verification_code,
	c.issued_at, c.expires_at, c.is_valid, c.badge_url, COALESCE(c.skills_validated, ''),
	COALESCE(t.access_tier, '')`

const certFrom = ` FROM certifications c LEFT JOIN certification_types t ON t.id = c.catalog_id`

func (s *Store) FindValid(ctx context.Context, userID, catalogID string) (models.Certification, error) {
	c, err := scanCert(s.db.QueryRowContext(ctx,
		`SELECT `+certColumns+certFrom+`
		 WHERE c.user_id = $1 AND c.catalog_id = $2 AND c.is_valid
		 ORDER BY c.issued_at DESC LIMIT 1`, userID, catalogID))
	if errors.Is(err, sql.ErrNoRows) {
		return c, apperr.ErrNotFound
	}
	return c, err
}

func (s *Store) ByCode(ctx context.Context, code string) (models.Certification, error) {
	c, err := scanCert(s.db.QueryRowContext(ctx,
		`SELECT `+certColumns+certFrom+` WHERE c.verification_code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return c, apperr.ErrNotFound
	}
	return c, err
}

func (s *Store) ListEarned(ctx context.Context, userID string) ([]models.Certification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+certColumns+certFrom+` WHERE c.user_id = $1 ORDER BY c.issued_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query certifications: %w", err)
	}
	defer rows.Close()

	var certs []models.Certification
	for rows.Next() {
		c, err := scanCert(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}

func (s *Store) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM certifications WHERE verification_code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return exists, nil
}

func (s *Store) InsertCertification(ctx context.Context, c models.Certification) error {
	skills, err := json.Marshal(c.SkillsValidated)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO certifications
		   (id, user_id, catalog_id, certification_type, verification_code, issued_at, expires_at,
		    is_valid, badge_url, skills_validated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.UserID, c.CatalogID, c.CertificationType, c.VerificationCode, c.IssuedAt, c.ExpiresAt,
		c.IsValid, c.BadgeURL, string(skills),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case codeConstraint:
			return apperr.ErrCodeTaken
		case userCatalogConstraint:
			return apperr.ErrAlreadyIssued
		}
	}
	if err != nil {
		return fmt.Errorf("insert certification: %w", err)
	}
	return nil
}

func scanCert(sc scanner) (models.Certification, error) {
	var (
		c       models.Certification
		expires sql.NullTime
		badge   sql.NullString
		skills  string
	)
	err := sc.Scan(&c.ID, &c.UserID, &c.CatalogID, &c.CertificationType, &c.VerificationCode,
		&c.IssuedAt, &expires, &c.IsValid, &badge, &skills, &c.AccessTier)
	if errors.Is(err, sql.ErrNoRows) {
		return c, err
	}
	if err != nil {
		return c, fmt.Errorf("scan certification: %w", err)
	}
	if expires.Valid {
		c.ExpiresAt = &expires.Time
	}
	if badge.Valid {
		c.BadgeURL = &badge.String
	}
	c.SkillsValidated = decodeSkills(c.ID, skills)
	return c, nil
}

// decodeSkills reads the skills snapshot. Rows that hold plain text rather
// than a JSON list come back as a single skill.
func decodeSkills(id, raw string) []string {
	skills := []string{}
	if raw == "" {
		return skills
	}
	if err := json.Unmarshal([]byte(raw), &skills); err != nil {
		log.Debug().Str("certification_id", id).Msg("skills_snapshot_not_json")
		return []string{raw}
	}
	return skills
}

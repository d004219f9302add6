package certification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/litmus-ai/backend/internal/apperr"
	"github.com/litmus-ai/backend/internal/config"
	"github.com/litmus-ai/backend/internal/models"
)

// Repository is the certification persistence. InsertCertification reports
// unique violations as apperr.ErrCodeTaken or apperr.ErrAlreadyIssued.
type Repository interface {
	ListCatalog(ctx context.Context) ([]models.CertificationType, error)
	CatalogEntry(ctx context.Context, id string) (models.CertificationType, error)
	FindValid(ctx context.Context, userID, catalogID string) (models.Certification, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	InsertCertification(ctx context.Context, cert models.Certification) error
	ListEarned(ctx context.Context, userID string) ([]models.Certification, error)
	ByCode(ctx context.Context, code string) (models.Certification, error)
}

type UserSource interface {
	UserByID(ctx context.Context, id string) (models.User, error)
}

type ResultSource interface {
	LatestResult(ctx context.Context, userID string) (*models.AssessmentResult, error)
}

type ProgressSource interface {
	CompletedModuleCount(ctx context.Context, userID string) (int, error)
}

type Service struct {
	repo     Repository
	users    UserSource
	results  ResultSource
	progress ProgressSource
	rules    *Registry

	validity     time.Duration
	codeAttempts int
	newCode      func() (string, error)
	now          func() time.Time
}

func NewService(repo Repository, users UserSource, results ResultSource, progress ProgressSource, rules *Registry, cfg config.CertificationConfig) *Service {
	attempts := cfg.CodeAttempts
	if attempts <= 0 {
		attempts = 10
	}
	return &Service{
		repo:         repo,
		users:        users,
		results:      results,
		progress:     progress,
		rules:        rules,
		validity:     time.Duration(cfg.PremiumValidityDays) * 24 * time.Hour,
		codeAttempts: attempts,
		newCode:      NewVerificationCode,
		now:          time.Now,
	}
}

// ── Catalog ─────────────────────────────────────────────

func (s *Service) Catalog(ctx context.Context) (*models.CatalogResponse, error) {
	certs, err := s.repo.ListCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	sort.SliceStable(certs, func(i, j int) bool { return certs[i].Title < certs[j].Title })
	for i := range certs {
		certs[i].AccessTier = certs[i].RequiredTier()
	}

	resp := &models.CatalogResponse{Certifications: certs}
	if len(certs) == 0 {
		resp.Certifications = []models.CertificationType{}
		resp.Message = "No certification catalog configured. Seed the catalog to enable certifications."
	}
	return resp, nil
}

func (s *Service) Earned(ctx context.Context, userID string) (*models.EarnedResponse, error) {
	certs, err := s.repo.ListEarned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list earned: %w", err)
	}
	if certs == nil {
		certs = []models.Certification{}
	}
	log.Info().Str("user_id", userID).Int("count", len(certs)).Msg("certifications_listed")
	return &models.EarnedResponse{Certifications: certs}, nil
}

// ── Eligibility ─────────────────────────────────────────

// Eligibility evaluates a catalog entry for a user without issuing anything.
func (s *Service) Eligibility(ctx context.Context, userID, catalogID string) (*models.Eligibility, error) {
	entry, user, err := s.load(ctx, userID, catalogID)
	if err != nil {
		return nil, err
	}

	el := &models.Eligibility{
		CatalogID:           entry.ID,
		RequiredTier:        entry.RequiredTier(),
		CurrentTier:         NormalizeTier(user.SubscriptionTier),
		MissingRequirements: []string{},
	}

	if !HasTierAccess(el.CurrentTier, el.RequiredTier) {
		el.Status = models.EligibilityUpgradeRequired
		return el, nil
	}

	existing, err := s.repo.FindValid(ctx, userID, catalogID)
	switch {
	case err == nil:
		el.Status = models.EligibilityIssued
		el.Eligible = true
		el.Certification = &existing
		return el, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, fmt.Errorf("find certification: %w", err)
	}

	missing, err := s.missing(ctx, userID, entry)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		el.Status = models.EligibilityRequirementsNotMet
		el.MissingRequirements = missing
		return el, nil
	}

	el.Status = models.EligibilityEligiblePendingIssue
	el.Eligible = true
	return el, nil
}

// Apply checks the tier gate and the entry's rules, then issues a
// certificate. Applying again for an entry that already has a valid
// certificate returns that certificate with AlreadyIssued set.
func (s *Service) Apply(ctx context.Context, userID, catalogID string) (*models.ApplyResponse, error) {
	entry, user, err := s.load(ctx, userID, catalogID)
	if err != nil {
		return nil, err
	}

	current := NormalizeTier(user.SubscriptionTier)
	required := entry.RequiredTier()
	if !HasTierAccess(current, required) {
		log.Info().
			Str("user_id", userID).
			Str("certification_id", catalogID).
			Str("required_tier", required).
			Str("current_tier", current).
			Msg("certification_apply_insufficient_tier")
		return nil, &apperr.UpgradeRequiredError{Title: entry.Title, Required: required, Current: current}
	}

	if existing, err := s.repo.FindValid(ctx, userID, catalogID); err == nil {
		return alreadyIssued(existing), nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("find certification: %w", err)
	}

	missing, err := s.missing(ctx, userID, entry)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		log.Info().
			Str("user_id", userID).
			Str("certification_id", catalogID).
			Strs("reasons", missing).
			Msg("certification_apply_requirements_not_met")
		return nil, &apperr.RequirementsNotMetError{Reasons: missing}
	}

	cert, err := s.issue(ctx, userID, entry)
	if errors.Is(err, apperr.ErrAlreadyIssued) {
		existing, findErr := s.repo.FindValid(ctx, userID, catalogID)
		if findErr != nil {
			return nil, fmt.Errorf("find concurrent certification: %w", findErr)
		}
		return alreadyIssued(existing), nil
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("certification_id", catalogID).
		Str("verification_code", cert.VerificationCode).
		Msg("certification_awarded")
	return &models.ApplyResponse{Message: "Certification granted successfully", Certification: cert}, nil
}

func alreadyIssued(cert models.Certification) *models.ApplyResponse {
	return &models.ApplyResponse{
		Message:       "Certification already issued",
		AlreadyIssued: true,
		Certification: cert,
	}
}

func (s *Service) load(ctx context.Context, userID, catalogID string) (models.CertificationType, models.User, error) {
	entry, err := s.repo.CatalogEntry(ctx, catalogID)
	if errors.Is(err, apperr.ErrNotFound) {
		return entry, models.User{}, apperr.NotFound("Certification", catalogID)
	}
	if err != nil {
		return entry, models.User{}, fmt.Errorf("catalog entry: %w", err)
	}
	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return entry, user, fmt.Errorf("load user: %w", err)
	}
	return entry, user, nil
}

func (s *Service) missing(ctx context.Context, userID string, entry models.CertificationType) ([]string, error) {
	latest, err := s.results.LatestResult(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("latest result: %w", err)
	}
	completed, err := s.progress.CompletedModuleCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("completed modules: %w", err)
	}
	return s.rules.Missing(entry, Facts{LatestResult: latest, CompletedModules: completed}), nil
}

// issue inserts a certificate under a fresh code, regenerating the code when
// the unique constraint rejects it.
func (s *Service) issue(ctx context.Context, userID string, entry models.CertificationType) (models.Certification, error) {
	issuedAt := s.now().UTC()
	cert := models.Certification{
		UserID:            userID,
		CatalogID:         entry.ID,
		CertificationType: entry.Title,
		IssuedAt:          issuedAt,
		IsValid:           true,
		SkillsValidated:   entry.SkillsValidated,
		AccessTier:        entry.RequiredTier(),
	}
	if cert.SkillsValidated == nil {
		cert.SkillsValidated = []string{}
	}
	if entry.IsPremium {
		expires := issuedAt.Add(s.validity)
		cert.ExpiresAt = &expires
	}

	for attempt := 0; attempt < s.codeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return cert, err
		}
		taken, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return cert, fmt.Errorf("check verification code: %w", err)
		}
		if taken {
			continue
		}

		cert.ID = uuid.NewString()
		cert.VerificationCode = code
		err = s.repo.InsertCertification(ctx, cert)
		if err == nil {
			return cert, nil
		}
		if errors.Is(err, apperr.ErrCodeTaken) {
			log.Warn().Str("user_id", userID).Msg("verification_code_collision")
			continue
		}
		return cert, err
	}
	return cert, fmt.Errorf("no free verification code after %d attempts", s.codeAttempts)
}

// ── Verification ────────────────────────────────────────

func (s *Service) Verify(ctx context.Context, code string) (*models.VerifiedCertification, error) {
	cert, err := s.repo.ByCode(ctx, code)
	if errors.Is(err, apperr.ErrNotFound) {
		log.Info().Str("verification_code", code).Msg("certification_verification_failed")
		return nil, apperr.NotFound("Certification", code)
	}
	if err != nil {
		return nil, fmt.Errorf("find by code: %w", err)
	}

	holder, err := s.users.UserByID(ctx, cert.UserID)
	if err != nil {
		return nil, fmt.Errorf("load holder: %w", err)
	}

	log.Info().Str("verification_code", code).Str("catalog_id", cert.CatalogID).Msg("certification_verified")
	return &models.VerifiedCertification{
		CertificationType: cert.CertificationType,
		CatalogID:         cert.CatalogID,
		HolderName:        holder.FullName(),
		IssuedAt:          cert.IssuedAt,
		ExpiresAt:         cert.ExpiresAt,
		SkillsValidated:   cert.SkillsValidated,
		AccessTier:        cert.AccessTier,
		IsValid:           cert.IsValid,
	}, nil
}

package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/litmus-ai/backend/internal/models"
)

// Repository persists catalog fixtures. Existing rows are left alone unless
// force is set, in which case they are overwritten.
type Repository interface {
	SeedDomains(ctx context.Context, domains []models.Domain, force bool) (models.SeedCounts, error)
	SeedQuestions(ctx context.Context, questions []models.Question, force bool) (models.SeedCounts, error)
	SeedBandGuidance(ctx context.Context, bands []models.BandGuidance, force bool) (models.SeedCounts, error)
	SeedModules(ctx context.Context, modules []models.TrainingModule, force bool) (models.SeedCounts, error)
	SeedLessons(ctx context.Context, lessons []models.Lesson, force bool) (models.SeedCounts, error)
	SeedCertificationTypes(ctx context.Context, certs []models.CertificationType, force bool) (models.SeedCounts, error)
}

type Seeder struct {
	repo Repository
}

func NewSeeder(repo Repository) *Seeder {
	return &Seeder{repo: repo}
}

// Report maps table name to seed counts.
type Report map[string]models.SeedCounts

// Seed writes the bundle in foreign-key order.
func (s *Seeder) Seed(ctx context.Context, b *Bundle, force bool) (Report, error) {
	report := make(Report)

	steps := []struct {
		table string
		run   func() (models.SeedCounts, error)
	}{
		{"assessment_domains", func() (models.SeedCounts, error) { return s.repo.SeedDomains(ctx, b.Domains, force) }},
		{"assessment_questions", func() (models.SeedCounts, error) { return s.repo.SeedQuestions(ctx, b.Questions, force) }},
		{"band_guidance", func() (models.SeedCounts, error) { return s.repo.SeedBandGuidance(ctx, b.Bands, force) }},
		{"training_modules", func() (models.SeedCounts, error) { return s.repo.SeedModules(ctx, b.Modules, force) }},
		{"lessons", func() (models.SeedCounts, error) { return s.repo.SeedLessons(ctx, b.Lessons, force) }},
		{"certification_types", func() (models.SeedCounts, error) {
			return s.repo.SeedCertificationTypes(ctx, b.Certifications, force)
		}},
	}

	for _, step := range steps {
		counts, err := step.run()
		if err != nil {
			return report, fmt.Errorf("seed %s: %w", step.table, err)
		}
		report[step.table] = counts
		log.Info().
			Str("table", step.table).
			Int("inserted", counts.Inserted).
			Int("updated", counts.Updated).
			Int("skipped", counts.Skipped).
			Msg("catalog_seeded")
	}
	return report, nil
}

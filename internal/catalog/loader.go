package catalog

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/litmus-ai/backend/internal/models"
)

//go:embed fixtures/*.yaml
var embedded embed.FS

// Fixture file names, relative to the catalog directory.
const (
	DomainsFile        = "domains.yaml"
	QuestionsFile      = "questions.yaml"
	BandsFile          = "bands.yaml"
	ModulesFile        = "modules.yaml"
	LessonsFile        = "lessons.yaml"
	CertificationsFile = "certifications.yaml"
)

// Bundle is the full static catalog: question bank, band copy, training
// content and certification definitions.
type Bundle struct {
	Domains        []models.Domain
	Questions      []models.Question
	Bands          []models.BandGuidance
	Modules        []models.TrainingModule
	Lessons        []models.Lesson
	Certifications []models.CertificationType
}

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog validation failed: %s", strings.Join(e.Errors, "; "))
}

type lessonFixture struct {
	ID                       string         `yaml:"id"`
	ModuleID                 string         `yaml:"module_id"`
	Title                    string         `yaml:"title"`
	Description              string         `yaml:"description"`
	OrderIndex               int            `yaml:"order_index"`
	ContentType              string         `yaml:"content_type"`
	Content                  map[string]any `yaml:"content"`
	EstimatedDurationMinutes int            `yaml:"estimated_duration_minutes"`
	IsRequired               *bool          `yaml:"is_required"`
}

// Load reads the catalog from dir, or from the embedded fixtures when dir is
// empty.
func Load(dir string) (*Bundle, error) {
	if dir == "" {
		sub, err := fs.Sub(embedded, "fixtures")
		if err != nil {
			return nil, fmt.Errorf("open embedded fixtures: %w", err)
		}
		return LoadFS(sub)
	}
	log.Info().Str("dir", dir).Msg("loading catalog from directory")
	return LoadFS(os.DirFS(dir))
}

func LoadFS(fsys fs.FS) (*Bundle, error) {
	var (
		domains struct {
			Domains []models.Domain `yaml:"domains"`
		}
		questions struct {
			Questions []models.Question `yaml:"questions"`
		}
		bands struct {
			Bands []models.BandGuidance `yaml:"bands"`
		}
		modules struct {
			Modules []models.TrainingModule `yaml:"modules"`
		}
		lessons struct {
			Lessons []lessonFixture `yaml:"lessons"`
		}
		certs struct {
			Certifications []models.CertificationType `yaml:"certifications"`
		}
	)

	files := []struct {
		name     string
		dst      any
		optional bool
	}{
		{DomainsFile, &domains, false},
		{QuestionsFile, &questions, false},
		{BandsFile, &bands, false},
		{ModulesFile, &modules, true},
		{LessonsFile, &lessons, true},
		{CertificationsFile, &certs, true},
	}
	for _, f := range files {
		if err := readYAML(fsys, f.name, f.dst); err != nil {
			if f.optional && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
	}

	b := &Bundle{
		Domains:        domains.Domains,
		Questions:      questions.Questions,
		Bands:          bands.Bands,
		Modules:        modules.Modules,
		Certifications: certs.Certifications,
	}
	for i := range b.Modules {
		b.Modules[i].IsActive = true
	}
	for _, lf := range lessons.Lessons {
		lesson, err := lf.toLesson()
		if err != nil {
			return nil, err
		}
		b.Lessons = append(b.Lessons, lesson)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	log.Debug().
		Int("domains", len(b.Domains)).
		Int("questions", len(b.Questions)).
		Int("modules", len(b.Modules)).
		Int("lessons", len(b.Lessons)).
		Int("certifications", len(b.Certifications)).
		Msg("catalog loaded")
	return b, nil
}

func readYAML(fsys fs.FS, name string, dst any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (lf lessonFixture) toLesson() (models.Lesson, error) {
	content := lf.Content
	if content == nil {
		content = map[string]any{}
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return models.Lesson{}, fmt.Errorf("lesson %s: encode content: %w", lf.ID, err)
	}
	required := true
	if lf.IsRequired != nil {
		required = *lf.IsRequired
	}
	return models.Lesson{
		ID:                       lf.ID,
		ModuleID:                 lf.ModuleID,
		Title:                    lf.Title,
		Description:              lf.Description,
		OrderIndex:               lf.OrderIndex,
		ContentType:              lf.ContentType,
		Content:                  raw,
		EstimatedDurationMinutes: lf.EstimatedDurationMinutes,
		IsRequired:               required,
	}, nil
}

var validLabels = map[string]bool{"A": true, "B": true, "C": true, "D": true}

var validBands = map[models.ScoreBand]bool{
	models.BandBeginner:     true,
	models.BandIntermediate: true,
	models.BandAdvanced:     true,
}

var validRuleKinds = map[models.RuleKind]bool{
	models.RuleAssessmentCompleted: true,
	models.RuleMinPercentage:       true,
	models.RuleMinDomainScore:      true,
	models.RuleMinCompletedModules: true,
}

// Validate checks cross references between fixture files.
func (b *Bundle) Validate() error {
	var errs []string

	domains := make(map[string]bool)
	for _, d := range b.Domains {
		if d.Name == "" {
			errs = append(errs, "domain with empty name")
			continue
		}
		if domains[d.Name] {
			errs = append(errs, fmt.Sprintf("duplicate domain %q", d.Name))
		}
		domains[d.Name] = true
	}
	if len(domains) == 0 {
		errs = append(errs, "no domains defined")
	}

	questionIDs := make(map[string]bool)
	for _, q := range b.Questions {
		if q.ID == "" {
			errs = append(errs, "question with empty id")
			continue
		}
		if questionIDs[q.ID] {
			errs = append(errs, fmt.Sprintf("duplicate question id %q", q.ID))
		}
		questionIDs[q.ID] = true
		if !domains[q.Domain] {
			errs = append(errs, fmt.Sprintf("question %s: unknown domain %q", q.ID, q.Domain))
		}
		if !validLabels[strings.ToUpper(q.CorrectAnswer)] {
			errs = append(errs, fmt.Sprintf("question %s: invalid correct_answer %q", q.ID, q.CorrectAnswer))
		}
		if q.OptionA == "" || q.OptionB == "" || q.OptionC == "" || q.OptionD == "" {
			errs = append(errs, fmt.Sprintf("question %s: all four options are required", q.ID))
		}
	}

	seenBands := make(map[models.ScoreBand]bool)
	for _, g := range b.Bands {
		if !validBands[g.Band] {
			errs = append(errs, fmt.Sprintf("unknown band %q", g.Band))
		}
		seenBands[g.Band] = true
	}
	for band := range validBands {
		if !seenBands[band] {
			errs = append(errs, fmt.Sprintf("missing guidance for band %q", band))
		}
	}

	moduleIDs := make(map[string]bool)
	for _, m := range b.Modules {
		if moduleIDs[m.ID] {
			errs = append(errs, fmt.Sprintf("duplicate module id %q", m.ID))
		}
		moduleIDs[m.ID] = true
		for _, d := range m.TargetDomains {
			if !domains[d] {
				errs = append(errs, fmt.Sprintf("module %s: unknown target domain %q", m.ID, d))
			}
		}
	}

	lessonIDs := make(map[string]bool)
	order := make(map[string]bool)
	for _, l := range b.Lessons {
		if lessonIDs[l.ID] {
			errs = append(errs, fmt.Sprintf("duplicate lesson id %q", l.ID))
		}
		lessonIDs[l.ID] = true
		if !moduleIDs[l.ModuleID] {
			errs = append(errs, fmt.Sprintf("lesson %s: unknown module %q", l.ID, l.ModuleID))
		}
		key := fmt.Sprintf("%s#%d", l.ModuleID, l.OrderIndex)
		if order[key] {
			errs = append(errs, fmt.Sprintf("lesson %s: duplicate order_index %d in module %s", l.ID, l.OrderIndex, l.ModuleID))
		}
		order[key] = true
	}

	certIDs := make(map[string]bool)
	for _, c := range b.Certifications {
		if certIDs[c.ID] {
			errs = append(errs, fmt.Sprintf("duplicate certification id %q", c.ID))
		}
		certIDs[c.ID] = true
		for i, r := range c.Rules {
			if !validRuleKinds[r.Kind] {
				errs = append(errs, fmt.Sprintf("certification %s rule %d: unknown kind %q", c.ID, i+1, r.Kind))
			}
			if r.Kind == models.RuleMinDomainScore && !domains[r.Domain] {
				errs = append(errs, fmt.Sprintf("certification %s rule %d: unknown domain %q", c.ID, i+1, r.Domain))
			}
			if r.Message == "" {
				errs = append(errs, fmt.Sprintf("certification %s rule %d: empty message", c.ID, i+1))
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

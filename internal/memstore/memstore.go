// Package memstore keeps every repository in process memory. It backs the
// server when STORE_DRIVER=memory and the service tests, and enforces the same
// unique keys as the Postgres schema.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/litmus-ai/backend/internal/apperr"
	"github.com/litmus-ai/backend/internal/models"
)

type progressKey struct {
	userID string
	itemID string
}

type Store struct {
	mu sync.Mutex

	domains   map[string]models.Domain
	questions map[string]models.Question
	bands     map[models.ScoreBand]models.BandGuidance
	modules   map[string]models.TrainingModule
	lessons   map[string]models.Lesson
	certTypes map[string]models.CertificationType

	users   map[string]models.User
	results []models.StoredResult
	certs   []models.Certification

	moduleProgress map[progressKey]models.UserProgress
	lessonProgress map[progressKey]models.LessonProgress

	// SaveResultErr, when set, is returned by SaveResult.
	SaveResultErr error
}

func New() *Store {
	return &Store{
		domains:        make(map[string]models.Domain),
		questions:      make(map[string]models.Question),
		bands:          make(map[models.ScoreBand]models.BandGuidance),
		modules:        make(map[string]models.TrainingModule),
		lessons:        make(map[string]models.Lesson),
		certTypes:      make(map[string]models.CertificationType),
		users:          make(map[string]models.User),
		moduleProgress: make(map[progressKey]models.UserProgress),
		lessonProgress: make(map[progressKey]models.LessonProgress),
	}
}

// ── Catalog seeding ─────────────────────────────────────

func seed[K comparable, V any](m map[K]V, items []V, key func(V) K, force bool) models.SeedCounts {
	var counts models.SeedCounts
	for _, item := range items {
		k := key(item)
		_, exists := m[k]
		switch {
		case exists && !force:
			counts.Skipped++
			continue
		case exists:
			counts.Updated++
		default:
			counts.Inserted++
		}
		m[k] = item
	}
	return counts
}

func (s *Store) SeedDomains(_ context.Context, domains []models.Domain, force bool) (models.SeedCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seed(s.domains, domains, func(d models.Domain) string { return d.Name }, force), nil
}

func (s *Store) SeedQuestions(_ context.Context, questions []models.Question, force bool) (models.SeedCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seed(s.questions, questions, func(q models.Question) string { return q.ID }, force), nil
}

func (s *Store) SeedBandGuidance(_ context.Context, bands []models.BandGuidance, force bool) (models.SeedCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seed(s.bands, bands, func(b models.BandGuidance) models.ScoreBand { return b.Band }, force), nil
}

func (s *Store) SeedModules(_ context.Context, modules []models.TrainingModule, force bool) (models.SeedCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := make([]models.TrainingModule, len(modules))
	for i, m := range modules {
		m.IsActive = true
		active[i] = m
	}
	return seed(s.modules, active, func(m models.TrainingModule) string { return m.ID }, force), nil
}

func (s *Store) SeedLessons(_ context.Context, lessons []models.Lesson, force bool) (models.SeedCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lessons {
		if _, ok := s.modules[l.ModuleID]; !ok {
			return models.SeedCounts{}, apperr.NotFound("module", l.ModuleID)
		}
	}
	return seed(s.lessons, lessons, func(l models.Lesson) string { return l.ID }, force), nil
}

func (s *Store) SeedCertificationTypes(_ context.Context, certs []models.CertificationType, force bool) (models.SeedCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamped := make([]models.CertificationType, len(certs))
	for i, c := range certs {
		c.AccessTier = c.RequiredTier()
		stamped[i] = c
	}
	return seed(s.certTypes, stamped, func(c models.CertificationType) string { return c.ID }, force), nil
}

// ── Assessment ──────────────────────────────────────────

func (s *Store) ListDomains(_ context.Context) ([]models.Domain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	domains := make([]models.Domain, 0, len(s.domains))
	for _, d := range s.domains {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool {
		if domains[i].Position != domains[j].Position {
			return domains[i].Position < domains[j].Position
		}
		return domains[i].Name < domains[j].Name
	})
	return domains, nil
}

func (s *Store) ListQuestions(_ context.Context) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	questions := make([]models.Question, 0, len(s.questions))
	for _, q := range s.questions {
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool {
		a, b := questions[i], questions[j]
		pa, pb := s.domains[a.Domain].Position, s.domains[b.Domain].Position
		if pa != pb {
			return pa < pb
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})
	return questions, nil
}

func (s *Store) ListBandGuidance(_ context.Context) ([]models.BandGuidance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bands := make([]models.BandGuidance, 0, len(s.bands))
	for _, b := range s.bands {
		bands = append(bands, b)
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i].Band < bands[j].Band })
	return bands, nil
}

func (s *Store) SaveResult(_ context.Context, row models.StoredResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveResultErr != nil {
		return s.SaveResultErr
	}
	s.results = append(s.results, row)
	return nil
}

// ListResults returns the user's rows newest first; rows saved later win ties.
func (s *Store) ListResults(_ context.Context, userID string) ([]models.StoredResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []models.StoredResult
	for i := len(s.results) - 1; i >= 0; i-- {
		if s.results[i].UserID == userID {
			rows = append(rows, s.results[i])
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CompletedAt.After(rows[j].CompletedAt) })
	return rows, nil
}

func (s *Store) LatestResult(ctx context.Context, userID string) (models.StoredResult, error) {
	rows, err := s.ListResults(ctx, userID)
	if err != nil {
		return models.StoredResult{}, err
	}
	if len(rows) == 0 {
		return models.StoredResult{}, apperr.ErrNotFound
	}
	return rows[0], nil
}

// ── Users ───────────────────────────────────────────────

func (s *Store) CreateUser(_ context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return apperr.ErrConflict
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperr.NotFound("user", email)
}

func (s *Store) UserByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return u, apperr.NotFound("user", id)
	}
	return u, nil
}

// ── Certifications ──────────────────────────────────────

func (s *Store) ListCatalog(_ context.Context) ([]models.CertificationType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	certs := make([]models.CertificationType, 0, len(s.certTypes))
	for _, c := range s.certTypes {
		certs = append(certs, c)
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].Title < certs[j].Title })
	return certs, nil
}

func (s *Store) CatalogEntry(_ context.Context, id string) (models.CertificationType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.certTypes[id]
	if !ok {
		return c, apperr.ErrNotFound
	}
	return c, nil
}

func (s *Store) FindValid(_ context.Context, userID, catalogID string) (models.Certification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.certs {
		if c.UserID == userID && c.CatalogID == catalogID && c.IsValid {
			return c, nil
		}
	}
	return models.Certification{}, apperr.ErrNotFound
}

func (s *Store) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.certs {
		if c.VerificationCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) InsertCertification(_ context.Context, cert models.Certification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.certs {
		if c.VerificationCode == cert.VerificationCode {
			return apperr.ErrCodeTaken
		}
		if cert.IsValid && c.IsValid && c.UserID == cert.UserID && c.CatalogID == cert.CatalogID {
			return apperr.ErrAlreadyIssued
		}
	}
	s.certs = append(s.certs, cert)
	return nil
}

func (s *Store) ListEarned(_ context.Context, userID string) ([]models.Certification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var certs []models.Certification
	for _, c := range s.certs {
		if c.UserID == userID {
			certs = append(certs, c)
		}
	}
	sort.SliceStable(certs, func(i, j int) bool { return certs[i].IssuedAt.After(certs[j].IssuedAt) })
	return certs, nil
}

func (s *Store) ByCode(_ context.Context, code string) (models.Certification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.certs {
		if c.VerificationCode == code {
			return c, nil
		}
	}
	return models.Certification{}, apperr.ErrNotFound
}

// ── Training ────────────────────────────────────────────

func (s *Store) ListModules(_ context.Context) ([]models.TrainingModule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	modules := make([]models.TrainingModule, 0, len(s.modules))
	for _, m := range s.modules {
		if m.IsActive {
			modules = append(modules, m)
		}
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].Title < modules[j].Title })
	return modules, nil
}

func (s *Store) Module(_ context.Context, id string) (models.TrainingModule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.modules[id]
	if !ok {
		return m, apperr.ErrNotFound
	}
	return m, nil
}

func (s *Store) ListLessons(_ context.Context, moduleID string) ([]models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var lessons []models.Lesson
	for _, l := range s.lessons {
		if l.ModuleID == moduleID {
			lessons = append(lessons, l)
		}
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].OrderIndex < lessons[j].OrderIndex })
	return lessons, nil
}

func (s *Store) Lesson(_ context.Context, id string) (models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lessons[id]
	if !ok {
		return l, apperr.ErrNotFound
	}
	return l, nil
}

func (s *Store) ModuleProgress(_ context.Context, userID, moduleID string) (models.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.moduleProgress[progressKey{userID, moduleID}]
	if !ok {
		return p, apperr.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListModuleProgress(_ context.Context, userID string) ([]models.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.UserProgress
	for k, p := range s.moduleProgress {
		if k.userID == userID {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].LastAccessed.Equal(list[j].LastAccessed) {
			return list[i].LastAccessed.After(list[j].LastAccessed)
		}
		return list[i].ModuleID < list[j].ModuleID
	})
	return list, nil
}

// SaveModuleProgress upserts by (user, module) and keeps the first
// started_at and completed_at, like the Postgres upsert. completed_at is
// dropped when the row is no longer completed.
func (s *Store) SaveModuleProgress(_ context.Context, p models.UserProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := progressKey{p.UserID, p.ModuleID}
	if existing, ok := s.moduleProgress[k]; ok {
		mergeProgress(&p, existing)
	}
	if p.Status != models.StatusCompleted {
		p.CompletedAt = nil
	}
	s.moduleProgress[k] = p
	return nil
}

// SaveModuleOverride never lowers percentage or minutes and never demotes a
// completed row.
func (s *Store) SaveModuleOverride(_ context.Context, p models.UserProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := progressKey{p.UserID, p.ModuleID}
	if existing, ok := s.moduleProgress[k]; ok {
		mergeProgress(&p, existing)
		if existing.ProgressPercentage > p.ProgressPercentage {
			p.ProgressPercentage = existing.ProgressPercentage
		}
		if existing.TimeSpentMinutes > p.TimeSpentMinutes {
			p.TimeSpentMinutes = existing.TimeSpentMinutes
		}
		if existing.Status == models.StatusCompleted {
			p.Status = models.StatusCompleted
		}
	}
	s.moduleProgress[k] = p
	return nil
}

func mergeProgress(p *models.UserProgress, existing models.UserProgress) {
	p.ID = existing.ID
	if existing.StartedAt != nil {
		p.StartedAt = existing.StartedAt
	}
	if existing.CompletedAt != nil {
		p.CompletedAt = existing.CompletedAt
	}
	if p.CurrentLessonID == nil {
		p.CurrentLessonID = existing.CurrentLessonID
	}
}

func (s *Store) CountCompletedModules(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, p := range s.moduleProgress {
		if k.userID == userID && p.Status == models.StatusCompleted {
			n++
		}
	}
	return n, nil
}

func (s *Store) LessonProgress(_ context.Context, userID, lessonID string) (models.LessonProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.lessonProgress[progressKey{userID, lessonID}]
	if !ok {
		return p, apperr.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListLessonProgress(_ context.Context, userID, moduleID string) ([]models.LessonProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.LessonProgress
	for k, p := range s.lessonProgress {
		if k.userID == userID && p.ModuleID == moduleID {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].LessonID < list[j].LessonID })
	return list, nil
}

func (s *Store) SaveLessonProgress(_ context.Context, p models.LessonProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := progressKey{p.UserID, p.LessonID}
	if existing, ok := s.lessonProgress[k]; ok {
		p.ID = existing.ID
		if existing.StartedAt != nil {
			p.StartedAt = existing.StartedAt
		}
	}
	s.lessonProgress[k] = p
	return nil
}

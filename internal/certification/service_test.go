package certification

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litmus-ai/backend/internal/apperr"
	"github.com/litmus-ai/backend/internal/catalog"
	"github.com/litmus-ai/backend/internal/config"
	"github.com/litmus-ai/backend/internal/memstore"
	"github.com/litmus-ai/backend/internal/models"
)

type stubResults struct {
	mu     sync.Mutex
	byUser map[string]*models.AssessmentResult
}

func (s *stubResults) LatestResult(_ context.Context, userID string) (*models.AssessmentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byUser[userID], nil
}

type stubProgress struct {
	mu     sync.Mutex
	byUser map[string]int
}

func (s *stubProgress) CompletedModuleCount(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byUser[userID], nil
}

type fixture struct {
	svc      *Service
	store    *memstore.Store
	results  *stubResults
	progress *stubProgress
}

var testCertConfig = config.CertificationConfig{PremiumValidityDays: 365, CodeAttempts: 5}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b, err := catalog.Load("")
	require.NoError(t, err)
	store := memstore.New()
	_, err = catalog.NewSeeder(store).Seed(context.Background(), b, false)
	require.NoError(t, err)

	f := &fixture{
		store:    store,
		results:  &stubResults{byUser: make(map[string]*models.AssessmentResult)},
		progress: &stubProgress{byUser: make(map[string]int)},
	}
	f.svc = NewService(store, store, f.results, f.progress, NewRegistry(), testCertConfig)
	return f
}

func (f *fixture) addUser(t *testing.T, id, tier string) {
	t.Helper()
	require.NoError(t, f.store.CreateUser(context.Background(), models.User{
		ID:               id,
		Email:            id + "@example.com",
		FirstName:        "Ada",
		LastName:         "Lovelace",
		SubscriptionTier: tier,
	}))
}

func (f *fixture) assessed(userID string, pct float64, ethics int) {
	f.results.byUser[userID] = &models.AssessmentResult{
		Percentage: pct,
		DomainScores: map[string]models.DomainScore{
			"Ethics & Critical Thinking": {Score: ethics, Total: 3},
		},
	}
}

func TestCatalogSortedWithAccessTier(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Certifications, 3)

	titles := []string{}
	for _, c := range resp.Certifications {
		titles = append(titles, c.Title)
		assert.NotEmpty(t, c.AccessTier)
	}
	assert.Equal(t, []string{"AI Ethics Specialist", "AI Fundamentals Certificate", "LitmusAI Professional"}, titles)
	assert.Empty(t, resp.Message)
}

func TestCatalogEmpty(t *testing.T) {
	store := memstore.New()
	svc := NewService(store, store, &stubResults{}, &stubProgress{}, NewRegistry(), testCertConfig)

	resp, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, resp.Certifications)
	assert.Empty(t, resp.Certifications)
	assert.NotEmpty(t, resp.Message)
}

func TestApplyTierGateNeverIssues(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u-free", models.TierFree)
	f.assessed("u-free", 95, 3)
	f.progress.byUser["u-free"] = 10

	_, err := f.svc.Apply(context.Background(), "u-free", "litmusai-professional")

	var upgrade *apperr.UpgradeRequiredError
	require.ErrorAs(t, err, &upgrade)
	assert.Equal(t, models.TierEnterprise, upgrade.Required)
	assert.Equal(t, models.TierFree, upgrade.Current)

	earned, err := f.svc.Earned(context.Background(), "u-free")
	require.NoError(t, err)
	assert.Empty(t, earned.Certifications)
}

func TestApplyRequirementsNotMet(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u-pro", models.TierProfessional)
	f.assessed("u-pro", 60, 2)
	f.progress.byUser["u-pro"] = 1

	_, err := f.svc.Apply(context.Background(), "u-pro", "ai-ethics-specialist")

	var notMet *apperr.RequirementsNotMetError
	require.ErrorAs(t, err, &notMet)
	assert.Equal(t, []string{
		"Increase your Ethics & Critical Thinking score to 3 or higher.",
		"Complete at least 2 training modules to demonstrate applied practice.",
	}, notMet.Reasons)
}

func TestApplyIssuesPremiumWithExpiry(t *testing.T) {
	f := newFixture(t)
	issuedAt := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return issuedAt }
	f.addUser(t, "u-pro", models.TierProfessional)
	f.assessed("u-pro", 60, 3)
	f.progress.byUser["u-pro"] = 2

	resp, err := f.svc.Apply(context.Background(), "u-pro", "ai-ethics-specialist")
	require.NoError(t, err)

	cert := resp.Certification
	assert.False(t, resp.AlreadyIssued)
	assert.Equal(t, "Certification granted successfully", resp.Message)
	assert.Regexp(t, `^[A-Z0-9]{8}$`, cert.VerificationCode)
	assert.Equal(t, "AI Ethics Specialist", cert.CertificationType)
	assert.True(t, cert.IsValid)
	assert.Equal(t, issuedAt, cert.IssuedAt)
	require.NotNil(t, cert.ExpiresAt)
	assert.Equal(t, issuedAt.AddDate(0, 0, 365), *cert.ExpiresAt)
	assert.Len(t, cert.SkillsValidated, 4)
}

func TestApplyFreeCertificateNeverExpires(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u-free", "")
	f.assessed("u-free", 10, 0)

	resp, err := f.svc.Apply(context.Background(), "u-free", "ai-fundamentals")
	require.NoError(t, err)
	assert.Nil(t, resp.Certification.ExpiresAt)
	assert.Equal(t, models.TierFree, resp.Certification.AccessTier)
}

func TestApplyTwiceReturnsExisting(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", models.TierFree)
	f.assessed("u1", 50, 1)

	first, err := f.svc.Apply(context.Background(), "u1", "ai-fundamentals")
	require.NoError(t, err)
	second, err := f.svc.Apply(context.Background(), "u1", "ai-fundamentals")
	require.NoError(t, err)

	assert.True(t, second.AlreadyIssued)
	assert.Equal(t, "Certification already issued", second.Message)
	assert.Equal(t, first.Certification.VerificationCode, second.Certification.VerificationCode)

	earned, err := f.svc.Earned(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, earned.Certifications, 1)
}

func TestApplyUnknownCatalogEntry(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", models.TierEnterprise)

	_, err := f.svc.Apply(context.Background(), "u1", "does-not-exist")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentApplicationsGetDistinctCodes(t *testing.T) {
	f := newFixture(t)
	const users = 25
	for i := 0; i < users; i++ {
		id := fmt.Sprintf("user-%02d", i)
		f.addUser(t, id, models.TierFree)
		f.assessed(id, 40, 1)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[string]bool)
		errs  []error
	)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			resp, err := f.svc.Apply(context.Background(), id, "ai-fundamentals")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			codes[resp.Certification.VerificationCode] = true
		}(fmt.Sprintf("user-%02d", i))
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Len(t, codes, users)
}

// blindRepo hides existing codes from the pre-check so the unique constraint
// on insert is what catches a collision.
type blindRepo struct {
	*memstore.Store
}

func (blindRepo) CodeExists(context.Context, string) (bool, error) { return false, nil }

func sequenceCodes(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func TestIssueRetriesOnCodeCollision(t *testing.T) {
	tests := []struct {
		name string
		repo func(*memstore.Store) Repository
	}{
		{"caught by pre-check", func(s *memstore.Store) Repository { return s }},
		{"caught by insert", func(s *memstore.Store) Repository { return blindRepo{s} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.store.InsertCertification(context.Background(), models.Certification{
				ID: "existing", UserID: "someone", CatalogID: "ai-fundamentals",
				VerificationCode: "TAKEN001", IsValid: true,
			}))
			f.addUser(t, "u1", models.TierFree)
			f.assessed("u1", 40, 1)

			svc := NewService(tt.repo(f.store), f.store, f.results, f.progress, NewRegistry(), testCertConfig)
			svc.newCode = sequenceCodes("TAKEN001", "FRESH002")

			resp, err := svc.Apply(context.Background(), "u1", "ai-fundamentals")
			require.NoError(t, err)
			assert.Equal(t, "FRESH002", resp.Certification.VerificationCode)
		})
	}
}

func TestIssueGivesUpAfterAttempts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.InsertCertification(context.Background(), models.Certification{
		ID: "existing", UserID: "someone", CatalogID: "ai-fundamentals",
		VerificationCode: "TAKEN001", IsValid: true,
	}))
	f.addUser(t, "u1", models.TierFree)
	f.assessed("u1", 40, 1)
	f.svc.newCode = sequenceCodes("TAKEN001")

	_, err := f.svc.Apply(context.Background(), "u1", "ai-fundamentals")
	require.Error(t, err)
	assert.Equal(t, 500, apperr.Status(err))
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", models.TierFree)
	f.assessed("u1", 40, 1)

	resp, err := f.svc.Apply(context.Background(), "u1", "ai-fundamentals")
	require.NoError(t, err)

	got, err := f.svc.Verify(context.Background(), resp.Certification.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.HolderName)
	assert.Equal(t, "AI Fundamentals Certificate", got.CertificationType)
	assert.True(t, got.IsValid)

	_, err = f.svc.Verify(context.Background(), "NOPE0000")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEligibilityStatuses(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u-free", models.TierFree)
	f.addUser(t, "u-pro", models.TierProfessional)
	f.addUser(t, "u-done", models.TierProfessional)
	f.assessed("u-pro", 90, 3)
	f.progress.byUser["u-pro"] = 2
	f.assessed("u-done", 90, 3)
	f.progress.byUser["u-done"] = 2
	_, err := f.svc.Apply(context.Background(), "u-done", "ai-ethics-specialist")
	require.NoError(t, err)

	tests := []struct {
		name      string
		userID    string
		catalogID string
		status    string
		eligible  bool
		missing   int
	}{
		{"below tier", "u-free", "ai-ethics-specialist", models.EligibilityUpgradeRequired, false, 0},
		{"no assessment", "u-free", "ai-fundamentals", models.EligibilityRequirementsNotMet, false, 1},
		{"ready", "u-pro", "ai-ethics-specialist", models.EligibilityEligiblePendingIssue, true, 0},
		{"already has it", "u-done", "ai-ethics-specialist", models.EligibilityIssued, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, err := f.svc.Eligibility(context.Background(), tt.userID, tt.catalogID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, el.Status)
			assert.Equal(t, tt.eligible, el.Eligible)
			assert.Len(t, el.MissingRequirements, tt.missing)
		})
	}

	earned, err := f.svc.Earned(context.Background(), "u-pro")
	require.NoError(t, err)
	assert.Empty(t, earned.Certifications, "eligibility never issues")
}

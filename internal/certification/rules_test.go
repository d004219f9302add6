package certification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/litmus-ai/backend/internal/models"
)

func TestRegistryMissing(t *testing.T) {
	cert := models.CertificationType{
		ID: "ethics",
		Rules: []models.Rule{
			{Kind: models.RuleMinDomainScore, Domain: "Ethics", Min: 3, Message: "Need ethics 3."},
			{Kind: models.RuleMinCompletedModules, Min: 2},
		},
	}
	strong := &models.AssessmentResult{
		Percentage:   80,
		DomainScores: map[string]models.DomainScore{"Ethics": {Score: 3, Total: 3}},
	}
	weak := &models.AssessmentResult{
		DomainScores: map[string]models.DomainScore{"Ethics": {Score: 2, Total: 3}},
	}

	tests := []struct {
		name  string
		facts Facts
		want  []string
	}{
		{"no assessment", Facts{}, []string{"Need ethics 3.", "Complete at least 2 training modules."}},
		{"weak domain", Facts{LatestResult: weak, CompletedModules: 2}, []string{"Need ethics 3."}},
		{"modules short", Facts{LatestResult: strong, CompletedModules: 1}, []string{"Complete at least 2 training modules."}},
		{"all met", Facts{LatestResult: strong, CompletedModules: 5}, []string{}},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Missing(cert, tt.facts))
		})
	}
}

func TestRegistryPercentageAndCompletion(t *testing.T) {
	r := NewRegistry()
	cert := models.CertificationType{Rules: []models.Rule{
		{Kind: models.RuleAssessmentCompleted},
		{Kind: models.RuleMinPercentage, Min: 70},
	}}

	assert.Equal(t, []string{
		"Complete the LitmusAI assessment.",
		"Score at least 70% on the LitmusAI assessment.",
	}, r.Missing(cert, Facts{}))

	assert.Equal(t, []string{"Score at least 70% on the LitmusAI assessment."},
		r.Missing(cert, Facts{LatestResult: &models.AssessmentResult{Percentage: 69.9}}))

	assert.Empty(t, r.Missing(cert, Facts{LatestResult: &models.AssessmentResult{Percentage: 70}}))
}

func TestRegistryUnknownKindFails(t *testing.T) {
	cert := models.CertificationType{Rules: []models.Rule{{Kind: "capstone_project"}}}

	assert.Equal(t, []string{`Unsupported requirement "capstone_project".`}, NewRegistry().Missing(cert, Facts{}))
}

func TestRegistryCustomRules(t *testing.T) {
	r := NewRegistry()
	r.Register("capstone_project", func(_ models.Rule, f Facts) bool { return f.CompletedModules >= 4 })
	r.RegisterCheck("ethics", func(f Facts) (bool, string) {
		return f.LatestResult != nil, "Take the assessment first."
	})

	cert := models.CertificationType{ID: "ethics", Rules: []models.Rule{{Kind: "capstone_project", Message: "Finish the capstone."}}}

	assert.Equal(t, []string{"Finish the capstone.", "Take the assessment first."}, r.Missing(cert, Facts{}))
	assert.Empty(t, r.Missing(cert, Facts{LatestResult: &models.AssessmentResult{}, CompletedModules: 4}))
}

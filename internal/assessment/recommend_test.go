package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litmus-ai/backend/internal/models"
)

var testGuidance = []models.BandGuidance{
	{Band: models.BandBeginner, Description: "Start here.", Priority: "high", Courses: []string{"Intro", "Basics"}},
	{Band: models.BandAdvanced, Description: "Keep going.", Priority: "medium", Courses: []string{"Strategy"}},
}

func TestRecommendOverallFirst(t *testing.T) {
	scores := map[string]models.DomainScore{"Alpha": {Score: 2, Total: 2}, "Beta": {Score: 1, Total: 1}}

	recs := Recommend(models.BandAdvanced, testGuidance, testDomains, scores, DefaultThresholds())

	require.Len(t, recs, 1)
	assert.Equal(t, models.RecommendationOverall, recs[0].Type)
	assert.Equal(t, "Advanced LitmusAI Readiness", recs[0].Title)
	assert.Equal(t, "Recommended next steps: Strategy", recs[0].Action)
	assert.Equal(t, []string{"Strategy"}, recs[0].Courses)
}

func TestRecommendWeakDomainsInCatalogOrder(t *testing.T) {
	scores := map[string]models.DomainScore{
		"Beta":  {Score: 0, Total: 3},
		"Alpha": {Score: 1, Total: 3},
		"Empty": {Score: 0, Total: 0},
	}

	recs := Recommend(models.BandBeginner, testGuidance, testDomains, scores, DefaultThresholds())

	require.Len(t, recs, 3)
	assert.Equal(t, "high", recs[0].Priority)
	assert.Equal(t, "Recommended next steps: Intro; Basics", recs[0].Action)

	assert.Equal(t, "Alpha", recs[1].Domain)
	assert.Equal(t, "Deepen Alpha skills", recs[1].Title)
	assert.Equal(t, "Study alpha.", recs[1].Description)
	assert.Equal(t, "medium", recs[1].Priority)
	assert.Equal(t, "Beta", recs[2].Domain)
}

func TestRecommendSkipsDomainsAboveCut(t *testing.T) {
	scores := map[string]models.DomainScore{"Alpha": {Score: 2, Total: 3}}

	recs := Recommend(models.BandIntermediate, nil, testDomains, scores, DefaultThresholds())

	require.Len(t, recs, 1)
	assert.Equal(t, "medium", recs[0].Priority, "fallback priority without guidance")
}

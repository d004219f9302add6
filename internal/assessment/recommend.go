package assessment

import (
	"fmt"
	"strings"

	"github.com/litmus-ai/backend/internal/models"
)

const (
	priorityHigh   = "high"
	priorityMedium = "medium"

	domainAction = "Focus your next learning sprint on this competency area."
)

// Recommend builds the overall band recommendation followed by one domain
// recommendation per weak domain, in catalog order.
func Recommend(band models.ScoreBand, guidance []models.BandGuidance, domains []models.Domain, scores map[string]models.DomainScore, t Thresholds) []models.Recommendation {
	recs := []models.Recommendation{overallRecommendation(band, guidance)}

	for _, d := range orderedDomains(domains, scores) {
		ds, ok := scores[d.Name]
		if !ok || ds.Total == 0 {
			continue
		}
		if ds.Score > t.RemediationCut(ds.Total) {
			continue
		}
		recs = append(recs, models.Recommendation{
			Type:        models.RecommendationDomain,
			Domain:      d.Name,
			Title:       fmt.Sprintf("Deepen %s skills", d.Name),
			Description: d.Remediation,
			Priority:    priorityMedium,
			Action:      domainAction,
		})
	}
	return recs
}

func overallRecommendation(band models.ScoreBand, guidance []models.BandGuidance) models.Recommendation {
	g := models.BandGuidance{Band: band, Priority: priorityMedium}
	if band == models.BandBeginner {
		g.Priority = priorityHigh
	}
	for _, candidate := range guidance {
		if candidate.Band == band {
			g = candidate
			break
		}
	}
	if g.Priority == "" {
		g.Priority = priorityMedium
	}

	return models.Recommendation{
		Type:        models.RecommendationOverall,
		Title:       fmt.Sprintf("%s LitmusAI Readiness", band),
		Description: g.Description,
		Priority:    g.Priority,
		Action:      "Recommended next steps: " + strings.Join(g.Courses, "; "),
		Courses:     g.Courses,
	}
}

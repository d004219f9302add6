package training

import (
	"sort"

	"github.com/litmus-ai/backend/internal/models"
)

// Rank orders modules by how much they target the weak domains of a result.
// A domain's weakness is 1 - score/total; a module's relevance is the sum
// over its target domains. Modules with no relevance are dropped.
func Rank(modules []models.ModuleSummary, scores map[string]models.DomainScore) []models.RecommendedModule {
	weakness := make(map[string]float64, len(scores))
	for domain, ds := range scores {
		if ds.Total <= 0 {
			continue
		}
		weakness[domain] = 1 - float64(ds.Score)/float64(ds.Total)
	}

	ranked := []models.RecommendedModule{}
	for _, m := range modules {
		var (
			relevance float64
			matched   []string
		)
		for _, d := range m.TargetDomains {
			if w := weakness[d]; w > 0 {
				relevance += w
				matched = append(matched, d)
			}
		}
		if relevance <= 0 {
			continue
		}
		ranked = append(ranked, models.RecommendedModule{
			ModuleSummary:  m,
			Relevance:      relevance,
			MatchedDomains: matched,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Relevance != b.Relevance {
			return a.Relevance > b.Relevance
		}
		if a.DifficultyLevel != b.DifficultyLevel {
			return a.DifficultyLevel < b.DifficultyLevel
		}
		return a.Title < b.Title
	})
	return ranked
}

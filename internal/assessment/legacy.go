package assessment

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/litmus-ai/backend/internal/models"
)

// legacyEnvelope is the recommendations column format used before per-domain
// scores had their own column.
type legacyEnvelope struct {
	Insights       []models.Recommendation `json:"insights"`
	StrategicScore *int                    `json:"strategic_score"`
}

// NormalizeStoredResult rebuilds the uniform result shape from a stored row,
// whichever format it was written in. totals gives the current question count
// per domain and is used when the row has no per-domain totals of its own.
func NormalizeStoredResult(row models.StoredResult, domains []models.Domain, totals map[string]int, t Thresholds) models.AssessmentResult {
	recs, strategic := decodeRecommendations(row)

	scores, ok := decodeDomainScores(row)
	if !ok {
		scores = legacyDomainScores(row, domains, totals, strategic)
	}

	band := models.ScoreBand(row.ScoreBand)
	switch band {
	case models.BandBeginner, models.BandIntermediate, models.BandAdvanced:
	default:
		band = t.Classify(row.TotalScore, row.MaxScore)
	}

	return models.AssessmentResult{
		ID:               row.ID,
		UserID:           row.UserID,
		TotalScore:       row.TotalScore,
		MaxScore:         row.MaxScore,
		Percentage:       row.Percentage,
		DomainScores:     scores,
		ScoreBand:        band,
		TimeTakenMinutes: row.TimeTakenMinutes,
		Recommendations:  recs,
		CompletedAt:      row.CompletedAt,
	}
}

func decodeDomainScores(row models.StoredResult) (map[string]models.DomainScore, bool) {
	if len(row.DomainScores) == 0 || string(row.DomainScores) == "null" {
		return nil, false
	}
	var scores map[string]models.DomainScore
	if err := json.Unmarshal(row.DomainScores, &scores); err != nil {
		log.Warn().Err(err).Str("result_id", row.ID).Msg("corrupt_domain_scores")
		return nil, false
	}
	if scores == nil {
		return nil, false
	}
	return scores, true
}

// legacyDomainScores maps the scalar columns onto the first four domains in
// catalog order and the envelope's strategic score onto the fifth.
func legacyDomainScores(row models.StoredResult, domains []models.Domain, totals map[string]int, strategic int) map[string]models.DomainScore {
	columns := []int{row.FunctionalScore, row.EthicalScore, row.RhetoricalScore, row.PedagogicalScore, strategic}

	scores := make(map[string]models.DomainScore, len(domains))
	for i, d := range orderedDomains(domains, nil) {
		ds := models.DomainScore{Total: totals[d.Name]}
		if i < len(columns) {
			ds.Score = columns[i]
		}
		scores[d.Name] = ds
	}
	return scores
}

// decodeRecommendations accepts either a plain list or the legacy envelope.
// Anything unparseable yields an empty list.
func decodeRecommendations(row models.StoredResult) ([]models.Recommendation, int) {
	recs := []models.Recommendation{}
	if len(row.Recommendations) == 0 {
		return recs, 0
	}

	var list []models.Recommendation
	if err := json.Unmarshal(row.Recommendations, &list); err == nil {
		if list != nil {
			recs = list
		}
		return recs, 0
	}

	var env legacyEnvelope
	if err := json.Unmarshal(row.Recommendations, &env); err != nil {
		log.Warn().Err(err).Str("result_id", row.ID).Msg("unparseable_recommendations")
		return recs, 0
	}
	if env.Insights != nil {
		recs = env.Insights
	}
	strategic := 0
	if env.StrategicScore != nil {
		strategic = *env.StrategicScore
	}
	return recs, strategic
}

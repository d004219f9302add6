package assessment

import (
	"math"

	"github.com/litmus-ai/backend/internal/config"
	"github.com/litmus-ai/backend/internal/models"
)

const ratioEpsilon = 1e-9

// Thresholds holds the scoring cut points as ratios of the relevant total.
type Thresholds struct {
	BeginnerMaxRatio       float64
	AdvancedMinRatio       float64
	DomainRemediationRatio float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		BeginnerMaxRatio:       0.4,
		AdvancedMinRatio:       0.8,
		DomainRemediationRatio: 1.0 / 3.0,
	}
}

func ThresholdsFromConfig(cfg config.ScoringConfig) Thresholds {
	return Thresholds{
		BeginnerMaxRatio:       cfg.BeginnerMaxRatio,
		AdvancedMinRatio:       cfg.AdvancedMinRatio,
		DomainRemediationRatio: cfg.DomainRemediationRatio,
	}
}

// BeginnerMax is the highest total that is still Beginner.
func (t Thresholds) BeginnerMax(maxScore int) int {
	return int(math.Floor(t.BeginnerMaxRatio*float64(maxScore) + ratioEpsilon))
}

// AdvancedMin is the lowest total that is Advanced.
func (t Thresholds) AdvancedMin(maxScore int) int {
	return int(math.Ceil(t.AdvancedMinRatio*float64(maxScore) - ratioEpsilon))
}

// RemediationCut is the highest domain score that still earns a domain
// recommendation.
func (t Thresholds) RemediationCut(domainTotal int) int {
	return int(math.Floor(t.DomainRemediationRatio*float64(domainTotal) + ratioEpsilon))
}

// Classify places a total score in a readiness band. An empty bank is
// always Beginner.
func (t Thresholds) Classify(total, maxScore int) models.ScoreBand {
	if maxScore <= 0 || total <= t.BeginnerMax(maxScore) {
		return models.BandBeginner
	}
	if total >= t.AdvancedMin(maxScore) {
		return models.BandAdvanced
	}
	return models.BandIntermediate
}

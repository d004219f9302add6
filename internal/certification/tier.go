package certification

import (
	"strings"

	"github.com/litmus-ai/backend/internal/models"
)

var tierRank = map[string]int{
	models.TierFree:         0,
	models.TierProfessional: 1,
	models.TierEnterprise:   2,
	models.TierAffiliate:    1,
}

// NormalizeTier lower-cases a tier name and maps blanks to free.
func NormalizeTier(tier string) string {
	t := strings.ToLower(strings.TrimSpace(tier))
	if t == "" {
		return models.TierFree
	}
	return t
}

// TierRank orders subscription tiers. Unknown tiers rank with free.
func TierRank(tier string) int {
	return tierRank[NormalizeTier(tier)]
}

// HasTierAccess reports whether current ranks at or above required.
func HasTierAccess(current, required string) bool {
	return TierRank(current) >= TierRank(required)
}

package certification

import (
	"fmt"

	"github.com/litmus-ai/backend/internal/models"
)

// Facts is what a user has done that rules can be checked against.
type Facts struct {
	LatestResult     *models.AssessmentResult
	CompletedModules int
}

// Predicate reports whether facts satisfy one rule.
type Predicate func(rule models.Rule, facts Facts) bool

// Check is an extra requirement registered for a single catalog entry. It
// returns the message to show when the requirement fails.
type Check func(facts Facts) (ok bool, message string)

// Registry evaluates catalog rules by kind, plus any checks registered for a
// specific catalog id.
type Registry struct {
	predicates map[models.RuleKind]Predicate
	checks     map[string][]Check
}

func NewRegistry() *Registry {
	r := &Registry{
		predicates: make(map[models.RuleKind]Predicate),
		checks:     make(map[string][]Check),
	}
	r.Register(models.RuleAssessmentCompleted, func(_ models.Rule, f Facts) bool {
		return f.LatestResult != nil
	})
	r.Register(models.RuleMinPercentage, func(rule models.Rule, f Facts) bool {
		return f.LatestResult != nil && f.LatestResult.Percentage >= rule.Min
	})
	r.Register(models.RuleMinDomainScore, func(rule models.Rule, f Facts) bool {
		if f.LatestResult == nil {
			return false
		}
		ds, ok := f.LatestResult.DomainScores[rule.Domain]
		return ok && float64(ds.Score) >= rule.Min
	})
	r.Register(models.RuleMinCompletedModules, func(rule models.Rule, f Facts) bool {
		return float64(f.CompletedModules) >= rule.Min
	})
	return r
}

func (r *Registry) Register(kind models.RuleKind, p Predicate) {
	r.predicates[kind] = p
}

func (r *Registry) RegisterCheck(catalogID string, c Check) {
	r.checks[catalogID] = append(r.checks[catalogID], c)
}

// Missing returns the message of every failing rule, in rule order, followed
// by failing catalog checks. A rule of an unregistered kind always fails.
func (r *Registry) Missing(cert models.CertificationType, facts Facts) []string {
	missing := []string{}
	for _, rule := range cert.Rules {
		p, ok := r.predicates[rule.Kind]
		if ok && p(rule, facts) {
			continue
		}
		missing = append(missing, ruleMessage(rule))
	}
	for _, c := range r.checks[cert.ID] {
		if ok, msg := c(facts); !ok {
			missing = append(missing, msg)
		}
	}
	return missing
}

func ruleMessage(rule models.Rule) string {
	if rule.Message != "" {
		return rule.Message
	}
	switch rule.Kind {
	case models.RuleAssessmentCompleted:
		return "Complete the LitmusAI assessment."
	case models.RuleMinPercentage:
		return fmt.Sprintf("Score at least %g%% on the LitmusAI assessment.", rule.Min)
	case models.RuleMinDomainScore:
		return fmt.Sprintf("Score at least %g in %s.", rule.Min, rule.Domain)
	case models.RuleMinCompletedModules:
		return fmt.Sprintf("Complete at least %g training modules.", rule.Min)
	}
	return fmt.Sprintf("Unsupported requirement %q.", rule.Kind)
}

package assessment

import (
	"math"
	"sort"
	"strings"

	"github.com/litmus-ai/backend/internal/models"
)

// ScoreReport is the outcome of grading one submission against the bank.
type ScoreReport struct {
	TotalScore      int
	MaxScore        int
	Percentage      float64
	DomainScores    map[string]models.DomainScore
	DetailedResults []models.DetailedResult
}

// Score grades every bank question. Unanswered questions and answers for
// unknown ids count as incorrect. optionMap, when present for a question,
// holds the option texts as they were displayed so a shuffled choice is
// matched by text rather than by label.
func Score(bank []models.Question, domains []models.Domain, answers map[string]string, optionMap map[string]map[string]string) ScoreReport {
	report := ScoreReport{
		MaxScore:        len(bank),
		DomainScores:    make(map[string]models.DomainScore, len(domains)),
		DetailedResults: make([]models.DetailedResult, 0, len(bank)),
	}
	for _, d := range domains {
		report.DomainScores[d.Name] = models.DomainScore{}
	}

	for _, q := range bank {
		chosen := answers[q.ID]
		correct := isCorrect(q, chosen, optionMap[q.ID])

		ds := report.DomainScores[q.Domain]
		ds.Total++
		if correct {
			ds.Score++
			report.TotalScore++
		}
		report.DomainScores[q.Domain] = ds

		report.DetailedResults = append(report.DetailedResults, models.DetailedResult{
			QuestionID:    q.ID,
			Domain:        q.Domain,
			UserAnswer:    chosen,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
			Explanation:   q.Explanation,
		})
	}

	report.Percentage = Percentage(report.TotalScore, report.MaxScore)
	return report
}

// Percentage is 100*total/max rounded to one decimal, or 0 for an empty bank.
func Percentage(total, maxScore int) float64 {
	if maxScore <= 0 {
		return 0
	}
	return math.Round(1000*float64(total)/float64(maxScore)) / 10
}

func isCorrect(q models.Question, chosen string, displayed map[string]string) bool {
	label := normalizeLabel(chosen)
	if label == "" {
		return false
	}

	if chosenText, ok := optionText(displayed, label); ok {
		if correctText, ok := q.Option(q.CorrectAnswer); ok {
			return strings.EqualFold(strings.TrimSpace(chosenText), strings.TrimSpace(correctText))
		}
	}

	return label == normalizeLabel(q.CorrectAnswer)
}

func normalizeLabel(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// optionText looks a label up in a displayed-options map, ignoring case.
func optionText(displayed map[string]string, label string) (string, bool) {
	if len(displayed) == 0 {
		return "", false
	}
	if text, ok := displayed[label]; ok && strings.TrimSpace(text) != "" {
		return text, true
	}
	for k, text := range displayed {
		if normalizeLabel(k) == label && strings.TrimSpace(text) != "" {
			return text, true
		}
	}
	return "", false
}

// orderedDomains returns catalog domains by position, followed by any other
// domain present in scores in name order.
func orderedDomains(domains []models.Domain, scores map[string]models.DomainScore) []models.Domain {
	ordered := make([]models.Domain, len(domains))
	copy(ordered, domains)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	known := make(map[string]bool, len(ordered))
	for _, d := range ordered {
		known[d.Name] = true
	}
	var extra []string
	for name := range scores {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		ordered = append(ordered, models.Domain{Name: name})
	}
	return ordered
}

// DomainNames lists domain names in catalog order.
func DomainNames(domains []models.Domain) []string {
	ordered := orderedDomains(domains, nil)
	names := make([]string, len(ordered))
	for i, d := range ordered {
		names[i] = d.Name
	}
	return names
}

// DomainTotals counts bank questions per domain.
func DomainTotals(bank []models.Question) map[string]int {
	totals := make(map[string]int)
	for _, q := range bank {
		totals[q.Domain]++
	}
	return totals
}

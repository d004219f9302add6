package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

type GeneratedBatch struct {
	Questions []GeneratedQuestion `json:"questions"`
}

type GeneratedQuestion struct {
	Domain        string `json:"-"`
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

// Options returns the option texts in label order.
func (q GeneratedQuestion) Options() []string {
	return []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

// CorrectText returns the text of the option the key points at.
func (q GeneratedQuestion) CorrectText() string {
	i := strings.Index("ABCD", q.CorrectAnswer)
	if i < 0 || len(q.CorrectAnswer) != 1 {
		return ""
	}
	return q.Options()[i]
}

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

func ParseResponse(responseBody string) (*GeneratedBatch, error) {
	cleaned := stripCodeFences(responseBody)

	var batch GeneratedBatch
	if err := json.Unmarshal([]byte(cleaned), &batch); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	for i := range batch.Questions {
		batch.Questions[i].CorrectAnswer = strings.ToUpper(strings.TrimSpace(batch.Questions[i].CorrectAnswer))
	}

	if err := validateBatch(&batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

var validAnswers = map[string]bool{"A": true, "B": true, "C": true, "D": true}

func validateBatch(batch *GeneratedBatch) error {
	var errs []string

	if len(batch.Questions) == 0 {
		return &ValidationError{Errors: []string{"no questions in batch"}}
	}

	correctAnswerCounts := make(map[string]int)

	for i, q := range batch.Questions {
		qNum := i + 1

		textLen := len(q.QuestionText)
		if textLen < 20 || textLen > 400 {
			errs = append(errs, fmt.Sprintf("question %d: question_text length %d outside range [20, 400]", qNum, textLen))
		}

		seen := make(map[string]bool, 4)
		for j, opt := range q.Options() {
			label := string(rune('A' + j))
			trimmed := strings.TrimSpace(opt)
			if trimmed == "" {
				errs = append(errs, fmt.Sprintf("question %d: option %s is empty", qNum, label))
				continue
			}
			if len(trimmed) > 200 {
				errs = append(errs, fmt.Sprintf("question %d: option %s length %d over 200", qNum, label, len(trimmed)))
			}
			key := strings.ToLower(trimmed)
			if seen[key] {
				errs = append(errs, fmt.Sprintf("question %d: option %s duplicates another option", qNum, label))
			}
			seen[key] = true
		}

		if !validAnswers[q.CorrectAnswer] {
			errs = append(errs, fmt.Sprintf("question %d: invalid correct_answer %q", qNum, q.CorrectAnswer))
		}
		if strings.TrimSpace(q.Explanation) == "" {
			errs = append(errs, fmt.Sprintf("question %d: empty explanation", qNum))
		}

		correctAnswerCounts[q.CorrectAnswer]++
	}

	// Clustered keys are a warning, not a rejection.
	for letter, count := range correctAnswerCounts {
		if count > 2 && len(batch.Questions) >= 6 {
			log.Warn().Str("answer", letter).Int("count", count).Int("batch", len(batch.Questions)).Msg("correct answers clustered")
		}
	}

	checkTopicDiversity(batch.Questions)

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// checkTopicDiversity warns if any two questions share >60% keyword overlap.
func checkTopicDiversity(questions []GeneratedQuestion) {
	if len(questions) < 2 {
		return
	}

	tokenSets := make([]map[string]bool, len(questions))
	for i, q := range questions {
		tokenSets[i] = tokenize(q.QuestionText)
	}

	for i := 0; i < len(questions); i++ {
		for j := i + 1; j < len(questions); j++ {
			overlap := jaccardSimilarity(tokenSets[i], tokenSets[j])
			if overlap > 0.60 {
				log.Warn().Int("first", i+1).Int("second", j+1).Float64("overlap", overlap).Msg("questions overlap heavily")
			}
		}
	}
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.Trim(word, ".,;:?!\"'()")
		// Skip very short words (articles, prepositions)
		if len(word) > 3 {
			tokens[word] = true
		}
	}
	return tokens
}

func jaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// MaxOverlap returns the highest keyword overlap between text and any of the
// existing texts.
func MaxOverlap(text string, existing []string) float64 {
	tokens := tokenize(text)
	best := 0.0
	for _, e := range existing {
		if o := jaccardSimilarity(tokens, tokenize(e)); o > best {
			best = o
		}
	}
	return best
}

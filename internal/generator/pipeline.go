package generator

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/litmus-ai/backend/internal/models"
)

// duplicateOverlap is the keyword overlap above which a generated question
// is treated as a repeat of one already in the bank.
const duplicateOverlap = 0.80

// Pipeline runs generation, optional review, scoring and de-duplication for
// one domain at a time.
type Pipeline struct {
	gen       *Generator
	validator *Validator
}

// NewPipeline builds a pipeline. validator may be nil, in which case every
// question is scored as unvalidated.
func NewPipeline(gen *Generator, validator *Validator) *Pipeline {
	return &Pipeline{gen: gen, validator: validator}
}

type ScoredQuestion struct {
	Question GeneratedQuestion
	Score    float64
	Status   string
}

type PipelineReport struct {
	Domain       string
	Generated    int
	Rejected     int
	Duplicates   int
	Accepted     []ScoredQuestion
	PromptTokens int
	OutputTokens int
}

// Run generates count questions for domain. existing holds the texts of
// questions already in the bank.
func (p *Pipeline) Run(ctx context.Context, domain models.Domain, count int, existing []string) (*PipelineReport, error) {
	batch, resp, err := p.gen.GenerateBatch(ctx, domain, count, existing)
	if err != nil {
		return nil, err
	}

	report := &PipelineReport{
		Domain:       domain.Name,
		Generated:    len(batch.Questions),
		PromptTokens: resp.PromptTokens,
		OutputTokens: resp.OutputTokens,
	}

	bank := append([]string(nil), existing...)
	for i, q := range batch.Questions {
		overlap := MaxOverlap(q.QuestionText, bank)
		if overlap > duplicateOverlap {
			log.Info().Int("question", i+1).Float64("overlap", overlap).Msg("dropping near-duplicate question")
			report.Duplicates++
			continue
		}

		var (
			vr *ValidationResult
			ar *AdversarialResult
		)
		if p.validator != nil {
			vr, ar = p.validator.Review(ctx, i, q)
			if vr != nil {
				report.PromptTokens += vr.PromptTokens
				report.OutputTokens += vr.OutputTokens
			}
			if ar != nil {
				report.PromptTokens += ar.PromptTokens
				report.OutputTokens += ar.OutputTokens
			}
		}

		score := ComputeQualityScore(vr, ar, ComputeStructuralScore(q, overlap))
		status := ClassifyQuality(score)
		if status == "reject" {
			log.Info().Int("question", i+1).Float64("score", score).Msg("rejecting low quality question")
			report.Rejected++
			continue
		}

		report.Accepted = append(report.Accepted, ScoredQuestion{Question: q, Score: score, Status: status})
		bank = append(bank, q.QuestionText)
	}

	log.Info().
		Str("domain", domain.Name).
		Int("generated", report.Generated).
		Int("accepted", len(report.Accepted)).
		Int("rejected", report.Rejected).
		Int("duplicates", report.Duplicates).
		Msg("generation pipeline complete")

	return report, nil
}

// NextSlots returns the next free numeric question ID across the bank and
// the next position within domain.
func NextSlots(bank []models.Question, domain string) (nextID, nextPosition int) {
	nextID, nextPosition = 1, 1
	for _, q := range bank {
		if n, err := strconv.Atoi(q.ID); err == nil && n >= nextID {
			nextID = n + 1
		}
		if q.Domain == domain && q.Position >= nextPosition {
			nextPosition = q.Position + 1
		}
	}
	return nextID, nextPosition
}

// ToQuestions converts accepted questions into catalog rows, numbering IDs
// and positions from the given starting points.
func ToQuestions(accepted []ScoredQuestion, startID, startPosition int) []models.Question {
	out := make([]models.Question, 0, len(accepted))
	for i, sq := range accepted {
		q := sq.Question
		out = append(out, models.Question{
			ID:            strconv.Itoa(startID + i),
			Domain:        q.Domain,
			Position:      startPosition + i,
			QuestionText:  q.QuestionText,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	return out
}

// WriteYAML writes questions in the catalog's questions.yaml layout.
func WriteYAML(w io.Writer, questions []models.Question) error {
	doc := struct {
		Questions []models.Question `yaml:"questions"`
	}{Questions: questions}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	return enc.Close()
}

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type ScoreBand string

const (
	BandBeginner     ScoreBand = "Beginner"
	BandIntermediate ScoreBand = "Intermediate"
	BandAdvanced     ScoreBand = "Advanced"
)

const (
	RecommendationOverall = "overall"
	RecommendationDomain  = "domain"
)

// Domain is one competency area of the question bank. Position fixes the
// order domains appear in scores and recommendations.
type Domain struct {
	Name        string `json:"name" yaml:"name"`
	Position    int    `json:"position" yaml:"position"`
	Remediation string `json:"remediation" yaml:"remediation"`
}

type Question struct {
	ID            string `json:"id" yaml:"id"`
	Domain        string `json:"domain" yaml:"domain"`
	QuestionText  string `json:"question_text" yaml:"question_text"`
	OptionA       string `json:"option_a" yaml:"option_a"`
	OptionB       string `json:"option_b" yaml:"option_b"`
	OptionC       string `json:"option_c" yaml:"option_c"`
	OptionD       string `json:"option_d" yaml:"option_d"`
	CorrectAnswer string `json:"correct_answer" yaml:"correct_answer"`
	Explanation   string `json:"explanation" yaml:"explanation"`
	Position      int    `json:"position" yaml:"position"`
}

// Option returns the text of the option with the given label (A-D).
func (q Question) Option(label string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "A":
		return q.OptionA, q.OptionA != ""
	case "B":
		return q.OptionB, q.OptionB != ""
	case "C":
		return q.OptionC, q.OptionC != ""
	case "D":
		return q.OptionD, q.OptionD != ""
	}
	return "", false
}

// PublicQuestion is the question as served to test takers, without the
// answer key.
type PublicQuestion struct {
	ID           string `json:"id"`
	Domain       string `json:"domain"`
	QuestionText string `json:"question_text"`
	OptionA      string `json:"option_a"`
	OptionB      string `json:"option_b"`
	OptionC      string `json:"option_c"`
	OptionD      string `json:"option_d"`
}

type QuestionsResponse struct {
	Questions      []PublicQuestion `json:"questions"`
	TotalQuestions int              `json:"total_questions"`
	Domains        []string         `json:"domains"`
}

type DomainScore struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

type DetailedResult struct {
	QuestionID    string `json:"question_id"`
	Domain        string `json:"domain"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Explanation   string `json:"explanation"`
}

type Recommendation struct {
	Type        string   `json:"type"`
	Domain      string   `json:"domain,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Action      string   `json:"action"`
	Courses     []string `json:"courses,omitempty"`
}

// BandGuidance is the copy used for the overall recommendation of a band.
type BandGuidance struct {
	Band        ScoreBand `json:"band" yaml:"band"`
	Description string    `json:"description" yaml:"description"`
	Priority    string    `json:"priority" yaml:"priority"`
	Courses     []string  `json:"courses" yaml:"courses"`
}

// ── Submission ───────────────────────────────────────────

// SubmitRequest carries one attempt. OptionMap maps question id to the
// label/text pairs as they were displayed, for clients that shuffle options.
type SubmitRequest struct {
	Answers          map[string]string            `json:"answers"`
	OptionMap        map[string]map[string]string `json:"option_map,omitempty"`
	TimeTakenMinutes int                          `json:"time_taken_minutes"`
}

const (
	SaveStatusSaved     = "saved"
	SaveStatusFailed    = "failed"
	SaveStatusAnonymous = "anonymous"
)

type AssessmentResult struct {
	ID               string                 `json:"id,omitempty"`
	UserID           string                 `json:"-"`
	TotalScore       int                    `json:"total_score"`
	MaxScore         int                    `json:"max_score"`
	Percentage       float64                `json:"percentage"`
	DomainScores     map[string]DomainScore `json:"domain_scores"`
	ScoreBand        ScoreBand              `json:"score_band"`
	TimeTakenMinutes int                    `json:"time_taken_minutes"`
	Recommendations  []Recommendation       `json:"recommendations"`
	CompletedAt      time.Time              `json:"completed_at"`
}

type SubmitResponse struct {
	AssessmentResult
	DetailedResults []DetailedResult `json:"detailed_results"`
	Saved           bool             `json:"saved"`
	SaveStatus      string           `json:"save_status"`
}

type HistoryResponse struct {
	History []AssessmentResult `json:"history"`
}

// ── Persistence ──────────────────────────────────────────

// StoredResult is an assessment_results row as read from storage. Rows
// written before per-domain scores existed have nil DomainScores and carry
// the first four domains in the scalar columns, with the fifth stashed in a
// {insights, strategic_score} recommendations envelope.
type StoredResult struct {
	ID               string
	UserID           string
	TotalScore       int
	MaxScore         int
	Percentage       float64
	DomainScores     []byte
	ScoreBand        string
	FunctionalScore  int
	EthicalScore     int
	RhetoricalScore  int
	PedagogicalScore int
	TimeTakenMinutes int
	Recommendations  []byte
	CompletedAt      time.Time
}

// NewStoredResult encodes a scored result in the current row format.
func NewStoredResult(r AssessmentResult) (StoredResult, error) {
	scores, err := json.Marshal(r.DomainScores)
	if err != nil {
		return StoredResult{}, fmt.Errorf("encode domain scores: %w", err)
	}
	recs := r.Recommendations
	if recs == nil {
		recs = []Recommendation{}
	}
	recJSON, err := json.Marshal(recs)
	if err != nil {
		return StoredResult{}, fmt.Errorf("encode recommendations: %w", err)
	}
	return StoredResult{
		ID:               r.ID,
		UserID:           r.UserID,
		TotalScore:       r.TotalScore,
		MaxScore:         r.MaxScore,
		Percentage:       r.Percentage,
		DomainScores:     scores,
		ScoreBand:        string(r.ScoreBand),
		TimeTakenMinutes: r.TimeTakenMinutes,
		Recommendations:  recJSON,
		CompletedAt:      r.CompletedAt,
	}, nil
}

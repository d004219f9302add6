package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Validator handles Stage 2 (self-verification) and Stage 3 (adversarial) checks.
type Validator struct {
	llm LLMClient
}

// NewValidator returns nil for a nil client; callers skip validation then.
func NewValidator(llm LLMClient) *Validator {
	if llm == nil {
		return nil
	}
	return &Validator{llm: llm}
}

// ── Stage 2: Self-Verification ─────────────────────────────

type ValidationResult struct {
	QuestionIndex   int    `json:"question_index"`
	SelectedAnswer  string `json:"selected_answer"`
	GeneratedAnswer string `json:"generated_answer"`
	Matches         bool   `json:"matches"`
	Confidence      string `json:"confidence"`
	Reasoning       string `json:"reasoning"`
	PotentialIssues string `json:"potential_issues"`
	PromptTokens    int    `json:"prompt_tokens"`
	OutputTokens    int    `json:"output_tokens"`
}

type verificationResponse struct {
	SelectedAnswer  string `json:"selected_answer"`
	Confidence      string `json:"confidence"`
	Reasoning       string `json:"reasoning"`
	PotentialIssues string `json:"potential_issues"`
}

// ValidateQuestion has the model answer the question blind and compares its
// pick with the generated key.
func (v *Validator) ValidateQuestion(ctx context.Context, q GeneratedQuestion) (*ValidationResult, error) {
	resp, err := v.llm.Generate(ctx, verificationSystemPrompt, buildVerificationPrompt(q))
	if err != nil {
		return nil, fmt.Errorf("verification call failed: %w", err)
	}

	var vResp verificationResponse
	if err := json.Unmarshal([]byte(stripCodeFences(resp.Content)), &vResp); err != nil {
		return nil, fmt.Errorf("failed to parse verification response: %w", err)
	}

	selected := strings.ToUpper(strings.TrimSpace(vResp.SelectedAnswer))
	return &ValidationResult{
		SelectedAnswer:  selected,
		GeneratedAnswer: q.CorrectAnswer,
		Matches:         selected == q.CorrectAnswer,
		Confidence:      vResp.Confidence,
		Reasoning:       vResp.Reasoning,
		PotentialIssues: vResp.PotentialIssues,
		PromptTokens:    resp.PromptTokens,
		OutputTokens:    resp.OutputTokens,
	}, nil
}

const verificationSystemPrompt = `You are an experienced AI trainer reviewing a workplace AI-literacy question to determine if the indicated correct answer is actually correct. Think through each option before answering. Respond with JSON only.`

func buildVerificationPrompt(q GeneratedQuestion) string {
	var sb strings.Builder
	sb.WriteString("QUESTION:\n")
	sb.WriteString(q.QuestionText)
	sb.WriteString("\n\nOPTIONS:\n")
	for i, opt := range q.Options() {
		sb.WriteString(fmt.Sprintf("(%c) %s\n", 'A'+i, opt))
	}
	sb.WriteString(`
Select the BEST answer. Respond with JSON only:
{
  "selected_answer": "B",
  "confidence": "high",
  "reasoning": "Why you selected this answer and why each other option is wrong...",
  "potential_issues": "Any ambiguity you notice in the question..."
}`)
	return sb.String()
}

// ── Stage 3: Adversarial Check ─────────────────────────────

type AdversarialResult struct {
	QuestionIndex         int                    `json:"question_index"`
	Challenges            []AdversarialChallenge `json:"challenges"`
	OverallQuality        string                 `json:"overall_quality"`
	OverallRecommendation string                 `json:"overall_recommendation"`
	PromptTokens          int                    `json:"prompt_tokens"`
	OutputTokens          int                    `json:"output_tokens"`
}

type AdversarialChallenge struct {
	OptionID        string `json:"option_id"`
	DefenseStrength string `json:"defense_strength"`
	DefenseArgument string `json:"defense_argument"`
}

type adversarialResponse struct {
	Challenges            []AdversarialChallenge `json:"challenges"`
	OverallQuality        string                 `json:"overall_quality"`
	OverallRecommendation string                 `json:"overall_recommendation"`
}

func (v *Validator) AdversarialCheckQuestion(ctx context.Context, q GeneratedQuestion) (*AdversarialResult, error) {
	resp, err := v.llm.Generate(ctx, adversarialSystemPrompt, buildAdversarialPrompt(q))
	if err != nil {
		return nil, fmt.Errorf("adversarial call failed: %w", err)
	}

	var aResp adversarialResponse
	if err := json.Unmarshal([]byte(stripCodeFences(resp.Content)), &aResp); err != nil {
		return nil, fmt.Errorf("failed to parse adversarial response: %w", err)
	}

	return &AdversarialResult{
		Challenges:            aResp.Challenges,
		OverallQuality:        aResp.OverallQuality,
		OverallRecommendation: aResp.OverallRecommendation,
		PromptTokens:          resp.PromptTokens,
		OutputTokens:          resp.OutputTokens,
	}, nil
}

const adversarialSystemPrompt = `You are reviewing a workplace AI-literacy question for quality. Argue for every incorrect option. If any wrong option can reasonably be defended, the question is ambiguous and should be flagged. Respond with JSON only.`

func buildAdversarialPrompt(q GeneratedQuestion) string {
	var sb strings.Builder
	sb.WriteString("QUESTION:\n")
	sb.WriteString(q.QuestionText)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("MARKED CORRECT: (%s) %s\n\n", q.CorrectAnswer, q.CorrectText()))
	sb.WriteString("INCORRECT OPTIONS TO CHALLENGE:\n")
	for i, opt := range q.Options() {
		label := string(rune('A' + i))
		if label != q.CorrectAnswer {
			sb.WriteString(fmt.Sprintf("(%s) %s\n", label, opt))
		}
	}
	sb.WriteString(`
For each incorrect option, make the STRONGEST possible argument that it could be correct.

Respond with JSON only:
{
  "challenges": [
    {"option_id": "A", "defense_strength": "weak", "defense_argument": "..."}
  ],
  "overall_quality": "high",
  "overall_recommendation": "accept"
}

defense_strength must be one of: "strong", "moderate", "weak", "none"
overall_recommendation must be one of: "accept", "flag", "reject"`)
	return sb.String()
}

// Review runs both stages for one question. A stage that errors is logged
// and treated as missing rather than failing the question.
func (v *Validator) Review(ctx context.Context, index int, q GeneratedQuestion) (*ValidationResult, *AdversarialResult) {
	vr, err := v.ValidateQuestion(ctx, q)
	if err != nil {
		log.Warn().Err(err).Int("question", index+1).Msg("verification failed, scoring as unvalidated")
		vr = nil
	} else {
		vr.QuestionIndex = index
	}

	ar, err := v.AdversarialCheckQuestion(ctx, q)
	if err != nil {
		log.Warn().Err(err).Int("question", index+1).Msg("adversarial check failed, scoring as clean")
		ar = nil
	} else {
		ar.QuestionIndex = index
	}
	return vr, ar
}

package generator

import (
	"fmt"
	"strings"

	"github.com/litmus-ai/backend/internal/models"
)

// domainFocus steers each competency area toward what it should test.
var domainFocus = map[string]string{
	"AI Fundamentals": `- How machine learning systems learn from data, and what they cannot do
- The difference between narrow AI, generative AI and traditional rule-based software
- Core vocabulary: model, training data, prompt, hallucination, bias`,

	"Practical Usage": `- Writing clear prompts with context, constraints and an expected format
- Choosing when an AI tool fits a workplace task and when it does not
- Checking, editing and iterating on AI output before using it`,

	"Ethics & Critical Thinking": `- Spotting bias in training data and in outputs
- Privacy, consent and handling confidential information with AI tools
- Verifying claims, citing sources and recognising fabricated content`,

	"AI Impact & Applications": `- How AI changes roles, workflows and customer experiences
- Realistic benefits and limits of AI in sales, HR, marketing and operations
- Measuring whether an AI rollout actually helped`,

	"Strategic Understanding": `- Building an AI adoption roadmap and governance policy
- Evaluating vendors, cost and risk
- Change management and upskilling teams`,
}

func SystemPrompt() string {
	return `You are an instructional designer who writes workplace AI-literacy assessments for non-technical professionals. Your questions measure whether someone can use AI tools safely and effectively at work.

QUESTION TEXT:
- One or two sentences, 20-400 characters
- Plain business language, no jargon that is not explained
- Scenario-based where possible: a realistic workplace situation followed by a question
- Never reference this assessment, certification, or test-taking

OPTIONS:
- Exactly 4 options labeled A through D, each under 200 characters
- Exactly ONE correct option
- Wrong options must be plausible misconceptions a real employee might hold, not jokes
- Options must be distinct from each other and similar in length

EXPLANATION:
- 1-3 sentences explaining why the correct option is right and what misconception the strongest distractor reflects

You must respond with valid JSON only. No markdown, no explanation outside the JSON.`
}

// BuildUserPrompt asks for count questions in one domain, listing existing
// question texts the model must not repeat.
func BuildUserPrompt(domain models.Domain, count int, avoid []string) string {
	focus, ok := domainFocus[domain.Name]
	if !ok {
		focus = "- " + domain.Remediation
	}

	var avoidLines strings.Builder
	for _, a := range avoid {
		avoidLines.WriteString("- ")
		avoidLines.WriteString(a)
		avoidLines.WriteString("\n")
	}
	if avoidLines.Len() == 0 {
		avoidLines.WriteString("- (none yet)\n")
	}

	return fmt.Sprintf(`Generate exactly %d multiple-choice questions.

Competency area: %s

What this area should test:
%s

Existing questions in this area. Do not repeat or paraphrase them:
%s
Respond with this exact JSON structure:
{
  "questions": [
    {
      "question_text": "...",
      "option_a": "...",
      "option_b": "...",
      "option_c": "...",
      "option_d": "...",
      "correct_answer": "B",
      "explanation": "..."
    }
  ]
}

Requirements:
- Each question must cover a DIFFERENT workplace scenario
- Vary the position of the correct answer across A-D; do not cluster correct answers`,
		count, domain.Name, focus, avoidLines.String())
}

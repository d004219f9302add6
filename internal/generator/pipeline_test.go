package generator

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/litmus-ai/backend/internal/models"
)

const firstMockText = "[Mock] A team is adopting AI for customer support chatbots. Which practice best reduces the risk of acting on a wrong output?"

var fundamentals = models.Domain{Name: "AI Fundamentals", Position: 1}

// reviewClient answers generation with the mock batch, always picks A when
// verifying, and always finds a strong defense when challenged.
type reviewClient struct {
	MockClient
}

func (c *reviewClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (*LLMResponse, error) {
	switch systemPrompt {
	case verificationSystemPrompt:
		return &LLMResponse{Content: `{"selected_answer":"a","confidence":"high"}`, PromptTokens: 10, OutputTokens: 5}, nil
	case adversarialSystemPrompt:
		return &LLMResponse{Content: "```json\n" + `{"challenges":[{"option_id":"B","defense_strength":"strong"}],"overall_recommendation":"flag"}` + "\n```", PromptTokens: 10, OutputTokens: 5}, nil
	}
	return c.MockClient.Generate(ctx, systemPrompt, userPrompt)
}

func TestPipeline_UnvalidatedKeepsMockBatch(t *testing.T) {
	p := NewPipeline(NewGeneratorWithClient(NewMockClient(), "mock"), nil)

	report, err := p.Run(context.Background(), fundamentals, 6, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Generated != 6 || len(report.Accepted) != 6 {
		t.Fatalf("expected 6 generated and accepted, got %d/%d", report.Generated, len(report.Accepted))
	}
	if report.Rejected != 0 || report.Duplicates != 0 {
		t.Errorf("expected no drops, got rejected=%d duplicates=%d", report.Rejected, report.Duplicates)
	}
	if report.Accepted[0].Status != "passed" {
		t.Errorf("expected first question to pass, got %q", report.Accepted[0].Status)
	}
	for _, sq := range report.Accepted {
		if sq.Question.Domain != fundamentals.Name {
			t.Errorf("expected domain %q, got %q", fundamentals.Name, sq.Question.Domain)
		}
	}
	if report.PromptTokens != 800 || report.OutputTokens != 1600 {
		t.Errorf("unexpected token usage %d/%d", report.PromptTokens, report.OutputTokens)
	}
}

func TestPipeline_DropsNearDuplicates(t *testing.T) {
	p := NewPipeline(NewGeneratorWithClient(NewMockClient(), "mock"), nil)

	report, err := p.Run(context.Background(), fundamentals, 6, []string{firstMockText})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Duplicates != 1 {
		t.Errorf("expected 1 duplicate, got %d", report.Duplicates)
	}
	if len(report.Accepted) != 5 {
		t.Errorf("expected 5 accepted, got %d", len(report.Accepted))
	}
}

func TestPipeline_ReviewRejectsWrongKeys(t *testing.T) {
	llm := &reviewClient{}
	p := NewPipeline(NewGeneratorWithClient(llm, "mock"), NewValidator(llm))

	report, err := p.Run(context.Background(), fundamentals, 6, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Mock keys cycle A-D, so only questions 1 and 5 agree with the reviewer.
	if len(report.Accepted) != 2 || report.Rejected != 4 {
		t.Fatalf("expected 2 accepted and 4 rejected, got %d/%d", len(report.Accepted), report.Rejected)
	}
	for _, sq := range report.Accepted {
		if sq.Question.CorrectAnswer != "A" {
			t.Errorf("accepted question keyed %q", sq.Question.CorrectAnswer)
		}
		if sq.Status != "flagged" {
			t.Errorf("expected flagged status with a strong defense, got %q", sq.Status)
		}
	}
	if want := 800 + 6*20; report.PromptTokens != want {
		t.Errorf("expected %d prompt tokens, got %d", want, report.PromptTokens)
	}
}

func TestNewValidator_NilClient(t *testing.T) {
	if NewValidator(nil) != nil {
		t.Error("expected nil validator for nil client")
	}
}

func TestNextSlots(t *testing.T) {
	bank := []models.Question{
		{ID: "1", Domain: "AI Fundamentals", Position: 1},
		{ID: "2", Domain: "AI Fundamentals", Position: 2},
		{ID: "9", Domain: "Practical Usage", Position: 1},
		{ID: "legacy", Domain: "AI Fundamentals", Position: 3},
	}

	id, pos := NextSlots(bank, "AI Fundamentals")
	if id != 10 || pos != 4 {
		t.Errorf("expected (10, 4), got (%d, %d)", id, pos)
	}

	id, pos = NextSlots(nil, "AI Fundamentals")
	if id != 1 || pos != 1 {
		t.Errorf("expected (1, 1) for an empty bank, got (%d, %d)", id, pos)
	}
}

func TestWriteYAML_CatalogLayout(t *testing.T) {
	q := validQuestion("B")
	q.Domain = "Ethics & Critical Thinking"
	questions := ToQuestions([]ScoredQuestion{{Question: q, Score: 0.9, Status: "passed"}}, 16, 4)

	var buf bytes.Buffer
	if err := WriteYAML(&buf, questions); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "questions:\n") {
		t.Errorf("expected top-level questions key, got:\n%s", buf.String())
	}

	var doc struct {
		Questions []models.Question `yaml:"questions"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if len(doc.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(doc.Questions))
	}
	got := doc.Questions[0]
	if got.ID != "16" || got.Position != 4 || got.Domain != q.Domain || got.CorrectAnswer != "B" {
		t.Errorf("unexpected question %+v", got)
	}
}

package generator

import (
	"strings"
	"testing"

	"github.com/litmus-ai/backend/internal/models"
)

func TestSystemPrompt(t *testing.T) {
	prompt := SystemPrompt()

	required := []string{"4 options", "A through D", "ONE correct", "JSON", "EXPLANATION"}
	for _, keyword := range required {
		if !strings.Contains(prompt, keyword) {
			t.Errorf("system prompt missing keyword %q", keyword)
		}
	}
}

func TestBuildUserPrompt(t *testing.T) {
	domain := models.Domain{Name: "Ethics & Critical Thinking", Position: 3}
	prompt := BuildUserPrompt(domain, 5, []string{"What is algorithmic bias?"})

	required := []string{
		"exactly 5",
		"Ethics & Critical Thinking",
		"Spotting bias",
		"- What is algorithmic bias?",
		`"option_d"`,
		`"correct_answer"`,
	}
	for _, keyword := range required {
		if !strings.Contains(prompt, keyword) {
			t.Errorf("user prompt missing %q", keyword)
		}
	}
}

func TestBuildUserPrompt_UnknownDomainUsesRemediation(t *testing.T) {
	domain := models.Domain{Name: "Data Literacy", Remediation: "Practise reading charts and dashboards"}
	prompt := BuildUserPrompt(domain, 2, nil)

	if !strings.Contains(prompt, "- Practise reading charts and dashboards") {
		t.Error("expected remediation text as focus for an unknown domain")
	}
	if !strings.Contains(prompt, "(none yet)") {
		t.Error("expected placeholder when there are no existing questions")
	}
}

func TestDomainFocusCoversCatalogDomains(t *testing.T) {
	for _, name := range []string{
		"AI Fundamentals",
		"Practical Usage",
		"Ethics & Critical Thinking",
		"AI Impact & Applications",
		"Strategic Understanding",
	} {
		if domainFocus[name] == "" {
			t.Errorf("domain %q has no focus text", name)
		}
	}
}

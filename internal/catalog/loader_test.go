package catalog

import (
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litmus-ai/backend/internal/models"
)

func TestLoadEmbedded(t *testing.T) {
	b, err := Load("")
	require.NoError(t, err)

	require.Len(t, b.Domains, 5)
	assert.Equal(t, "AI Fundamentals", b.Domains[0].Name)
	assert.Equal(t, "Strategic Understanding", b.Domains[4].Name)

	require.Len(t, b.Questions, 15)
	perDomain := make(map[string]int)
	for _, q := range b.Questions {
		perDomain[q.Domain]++
	}
	for _, d := range b.Domains {
		assert.Equal(t, 3, perDomain[d.Name], d.Name)
	}

	assert.Len(t, b.Bands, 3)
	assert.Len(t, b.Certifications, 3)
	assert.NotEmpty(t, b.Modules)
	for _, m := range b.Modules {
		assert.True(t, m.IsActive, m.ID)
	}
}

func TestLoadEmbeddedLessonsCarryJSONContent(t *testing.T) {
	b, err := Load("")
	require.NoError(t, err)

	var quiz *models.Lesson
	for i := range b.Lessons {
		if b.Lessons[i].ID == "lesson-gae-check" {
			quiz = &b.Lessons[i]
		}
	}
	require.NotNil(t, quiz)
	assert.Equal(t, models.LessonQuiz, quiz.ContentType)
	assert.True(t, quiz.IsRequired)

	var content map[string]any
	require.NoError(t, json.Unmarshal(quiz.Content, &content))
	assert.EqualValues(t, 70, content["passing_score"])
}

func TestLoadEmbeddedCertificationRules(t *testing.T) {
	b, err := Load("")
	require.NoError(t, err)

	byID := make(map[string]models.CertificationType)
	for _, c := range b.Certifications {
		byID[c.ID] = c
	}

	ethics := byID["ai-ethics-specialist"]
	require.Len(t, ethics.Rules, 2)
	assert.Equal(t, models.RuleMinDomainScore, ethics.Rules[0].Kind)
	assert.Equal(t, "Ethics & Critical Thinking", ethics.Rules[0].Domain)
	assert.Equal(t, 3.0, ethics.Rules[0].Min)
	assert.Equal(t, models.TierProfessional, ethics.RequiredTier())

	assert.Equal(t, models.TierEnterprise, byID["litmusai-professional"].RequiredTier())
	assert.Equal(t, models.TierFree, byID["ai-fundamentals"].RequiredTier())
}

const minimalDomains = `
domains:
  - name: Alpha
    position: 1
    remediation: Study alpha.
`

const minimalBands = `
bands:
  - band: Beginner
    priority: high
    description: b
    courses: [one]
  - band: Intermediate
    priority: medium
    description: i
    courses: [two]
  - band: Advanced
    priority: medium
    description: a
    courses: [three]
`

func TestLoadFSOptionalFilesMissing(t *testing.T) {
	fsys := fstest.MapFS{
		DomainsFile: {Data: []byte(minimalDomains)},
		BandsFile:   {Data: []byte(minimalBands)},
		QuestionsFile: {Data: []byte(`
questions:
  - id: q1
    domain: Alpha
    question_text: Which?
    option_a: a
    option_b: b
    option_c: c
    option_d: d
    correct_answer: C
`)},
	}

	b, err := LoadFS(fsys)
	require.NoError(t, err)
	assert.Len(t, b.Questions, 1)
	assert.Empty(t, b.Modules)
	assert.Empty(t, b.Certifications)
}

func TestLoadFSValidation(t *testing.T) {
	fsys := fstest.MapFS{
		DomainsFile: {Data: []byte(minimalDomains)},
		BandsFile:   {Data: []byte(minimalBands)},
		QuestionsFile: {Data: []byte(`
questions:
  - id: q1
    domain: Beta
    question_text: Which?
    option_a: a
    option_b: b
    option_c: c
    option_d: d
    correct_answer: E
`)},
		CertificationsFile: {Data: []byte(`
certifications:
  - id: c1
    title: Cert
    rules:
      - kind: min_streak
        message: nope
`)},
	}

	_, err := LoadFS(fsys)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, `question q1: unknown domain "Beta"`)
	assert.Contains(t, verr.Errors, `question q1: invalid correct_answer "E"`)
	assert.Contains(t, verr.Errors, `certification c1 rule 1: unknown kind "min_streak"`)
}

func TestLoadFSRejectsUnknownFields(t *testing.T) {
	fsys := fstest.MapFS{
		DomainsFile: {Data: []byte(`
domains:
  - name: Alpha
    weight: 2
`)},
		BandsFile:     {Data: []byte(minimalBands)},
		QuestionsFile: {Data: []byte("questions: []\n")},
	}

	_, err := LoadFS(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse domains.yaml")
}

func TestLoadFSRequiresQuestionBank(t *testing.T) {
	fsys := fstest.MapFS{
		DomainsFile: {Data: []byte(minimalDomains)},
		BandsFile:   {Data: []byte(minimalBands)},
	}

	_, err := LoadFS(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read questions.yaml")
}

package moderation

import (
	"strings"
	"testing"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "/tmp/uolink-moderation-test.log")
	m.Run()
}

func TestEvaluateTextCleanContent(t *testing.T) {
	e := NewEngine()

	v := e.EvaluateText("Calculus II lecture notes covering integration by parts and partial fractions.")
	assert.True(t, v.Allowed)
	assert.Empty(t, v.Labels)
	assert.Zero(t, v.Score)
}

func TestEvaluateTextBannedTerm(t *testing.T) {
	e := NewEngine()

	v := e.EvaluateText("Best ESSAY WRITING SERVICE for your finals, message me")
	assert.False(t, v.Allowed)
	assert.Contains(t, v.Labels, LabelBannedTerm)
}

func TestEvaluateTextLinkSpam(t *testing.T) {
	e := NewEngine()

	v := e.EvaluateText("check https://a.example https://b.example https://c.example now")
	assert.Contains(t, v.Labels, LabelLinkSpam)

	// A single link in a normal sentence is fine
	v = e.EvaluateText("Solutions reference the formula sheet at https://example.edu/formulas which the professor shared in week three of the course.")
	assert.NotContains(t, v.Labels, LabelLinkSpam)
	assert.True(t, v.Allowed)
}

func TestEvaluateTextRepeatedCharacters(t *testing.T) {
	e := NewEngine()

	v := e.EvaluateText("freeeeeee notes here")
	assert.Contains(t, v.Labels, LabelRepeatedChars)
	assert.True(t, v.Allowed) // flag-worthy, not reject-worthy on its own
}

func TestEvaluateTextExcessiveCaps(t *testing.T) {
	e := NewEngine()

	v := e.EvaluateText("DOWNLOAD THESE AMAZING NOTES RIGHT NOW BEFORE EXAMS")
	assert.Contains(t, v.Labels, LabelExcessiveCaps)

	// Short all-caps strings (course codes) pass
	v = e.EvaluateText("CS101 MIDTERM")
	assert.NotContains(t, v.Labels, LabelExcessiveCaps)
}

func TestEvaluateTextScoresAccumulate(t *testing.T) {
	e := NewEngine()

	// Multiple spam signals together cross the reject threshold even
	// without a banned term.
	v := e.EvaluateText(strings.ToUpper("buy nowwwwwww ") +
		"HTTPS://SPAM.EXAMPLE HTTPS://MORE.EXAMPLE CLICK THESE LINKS TODAY")
	assert.False(t, v.Allowed)
	assert.GreaterOrEqual(t, len(v.Labels), 2)
}

func TestEvaluateTextMemoization(t *testing.T) {
	e := NewEngine()

	text := "Organic chemistry reaction mechanisms summary"
	first := e.EvaluateText(text)
	_, cached := e.verdicts.Get(contentHash(text))
	assert.True(t, cached)

	second := e.EvaluateText(text)
	assert.Equal(t, first, second)
}

func TestEngineWithCustomTerms(t *testing.T) {
	e := NewEngineWithTerms([]string{"forbidden phrase"})

	v := e.EvaluateText("this contains a Forbidden Phrase in the middle")
	assert.False(t, v.Allowed)

	// Default terms are not active on a custom engine
	v = e.EvaluateText("crypto giveaway")
	assert.True(t, v.Allowed)
}

func TestEnforceModerationOutcomes(t *testing.T) {
	e := NewEngine()

	status, labels, apiErr := e.EnforceModeration("Linear Algebra notes", "Eigenvalues and eigenvectors explained")
	assert.Nil(t, apiErr)
	assert.Equal(t, models.NoteStatusActive, status)
	assert.Empty(t, labels)

	status, labels, apiErr = e.EnforceModeration("Statistics cheat sheeeeeeet", "covers hypothesis testing")
	assert.Nil(t, apiErr)
	assert.Equal(t, models.NoteStatusPending, status)
	assert.Contains(t, labels, LabelRepeatedChars)

	_, labels, apiErr = e.EnforceModeration("notes", "huge crypto giveaway inside")
	assert.NotNil(t, apiErr)
	assert.Contains(t, labels, LabelBannedTerm)
}

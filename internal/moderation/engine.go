// Package moderation implements a rule-based text classifier for
// user-submitted content. Uploads run through EvaluateText before any
// file touches storage; the verdict either rejects the upload, flags it
// for review, or lets it through clean.
package moderation

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	apierrors "github.com/Aazib-Ai/UOLink-App-sub006/internal/errors"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	// Labels attached to verdicts. Stored on flagged notes so
	// moderators can see why a note landed in the review queue.
	LabelBannedTerm    = "banned_term"
	LabelLinkSpam      = "link_spam"
	LabelRepeatedChars = "repeated_characters"
	LabelExcessiveCaps = "excessive_caps"

	// verdictCacheSize bounds the memoization cache. Re-submissions of
	// the same text (retry storms, copy-paste spam) hit the cache.
	verdictCacheSize = 2048

	// Score weights per rule. Scores accumulate; rejectThreshold
	// decides, flagThreshold sends borderline content to review.
	scoreBannedTerm    = 1.0
	scoreLinkSpam      = 0.5
	scoreRepeatedChars = 0.35
	scoreExcessiveCaps = 0.35

	rejectThreshold = 0.8
	flagThreshold   = 0.3

	// linkSpamRatio is URLs per word above which text reads as spam.
	linkSpamRatio = 0.2

	// repeatRunLength is the repeated-character run that trips the rule.
	repeatRunLength = 6

	// capsRatio applies only to text with at least capsMinLetters
	// letters, so acronyms and course codes pass.
	capsRatio      = 0.7
	capsMinLetters = 20
)

var urlPattern = regexp.MustCompile(`(?i)https?://\S+|www\.\S+`)

// defaultBannedTerms is deliberately small; real deployments extend it
// through NewEngineWithTerms.
var defaultBannedTerms = []string{
	"buy followers",
	"crypto giveaway",
	"essay writing service",
	"free money",
	"onlyfans",
	"telegram @",
	"whatsapp +",
}

// Verdict is the outcome of evaluating a piece of text
type Verdict struct {
	Allowed bool     `json:"allowed"`
	Labels  []string `json:"labels,omitempty"`
	Score   float64  `json:"score"`
}

// Engine evaluates text against the rule set, memoizing verdicts by
// content hash. Safe for concurrent use.
type Engine struct {
	bannedTerms []string
	verdicts    *lru.Cache[string, Verdict]
}

// NewEngine creates an engine with the default banned-term list
func NewEngine() *Engine {
	return NewEngineWithTerms(defaultBannedTerms)
}

// NewEngineWithTerms creates an engine with a custom banned-term list.
// Terms are matched case-insensitively as substrings.
func NewEngineWithTerms(terms []string) *Engine {
	cache, _ := lru.New[string, Verdict](verdictCacheSize)
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}
	return &Engine{
		bannedTerms: lowered,
		verdicts:    cache,
	}
}

// EvaluateText classifies a piece of text. Identical text always yields
// an identical verdict, served from the memoization cache after the
// first evaluation.
func (e *Engine) EvaluateText(text string) Verdict {
	key := contentHash(text)
	if v, ok := e.verdicts.Get(key); ok {
		return v
	}

	v := e.classify(text)
	e.verdicts.Add(key, v)
	return v
}

func (e *Engine) classify(text string) Verdict {
	var labels []string
	var score float64

	lowered := strings.ToLower(text)
	for _, term := range e.bannedTerms {
		if strings.Contains(lowered, term) {
			labels = append(labels, LabelBannedTerm)
			score += scoreBannedTerm
			break
		}
	}

	if hasLinkSpam(text) {
		labels = append(labels, LabelLinkSpam)
		score += scoreLinkSpam
	}
	if hasRepeatedRun(text, repeatRunLength) {
		labels = append(labels, LabelRepeatedChars)
		score += scoreRepeatedChars
	}
	if hasExcessiveCaps(text) {
		labels = append(labels, LabelExcessiveCaps)
		score += scoreExcessiveCaps
	}

	return Verdict{
		Allowed: score < rejectThreshold,
		Labels:  labels,
		Score:   score,
	}
}

// EnforceModeration evaluates the combined text fields of an upload and
// maps the verdict onto the note lifecycle: a rejecting verdict returns
// an error carrying its labels, a borderline verdict flags the note for
// review, and a clean verdict activates it.
func (e *Engine) EnforceModeration(fields ...string) (models.NoteStatus, []string, *apierrors.APIError) {
	v := e.EvaluateText(strings.Join(fields, "\n"))

	if !v.Allowed {
		logger.Log.Info("Upload rejected by moderation",
			zap.Strings("labels", v.Labels),
			zap.Float64("score", v.Score),
		)
		return models.NoteStatusRemoved, v.Labels, apierrors.ModerationRejected(v.Labels)
	}
	if v.Score >= flagThreshold {
		return models.NoteStatusPending, v.Labels, nil
	}
	return models.NoteStatusActive, nil, nil
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func hasLinkSpam(text string) bool {
	urls := len(urlPattern.FindAllString(text, -1))
	if urls == 0 {
		return false
	}
	words := len(strings.Fields(text))
	if words == 0 {
		return true
	}
	return float64(urls)/float64(words) > linkSpamRatio
}

// hasRepeatedRun reports whether any character repeats runLength times
// in a row. Whitespace runs are ignored.
func hasRepeatedRun(text string, runLength int) bool {
	var prev rune
	run := 1
	for _, r := range text {
		if r == prev && !unicode.IsSpace(r) {
			run++
			if run >= runLength {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}

func hasExcessiveCaps(text string) bool {
	letters, uppers := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters < capsMinLetters {
		return false
	}
	return float64(uppers)/float64(letters) > capsRatio
}

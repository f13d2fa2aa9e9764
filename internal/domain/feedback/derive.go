// Package feedback derives the normalized display model from the backend's
// raw, loosely-typed feedback payload. Derivation is a pure function:
// identical input always yields identical output.
package feedback

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/okian/rehearse/internal/domain/model"
)

const (
	// transcriptUnavailable is the backend's literal sentinel for a question
	// that produced no usable audio.
	transcriptUnavailable = "Audio response unavailable."

	defaultSentiment  = "neutral"
	defaultConfidence = 5.0

	fallbackStrength        = "Communication skills adequate"
	noAudioStrengthsText    = "No audio response provided"
	noAudioImprovementsText = "Please provide an audio response for detailed feedback"
	defaultStrengthsText    = "Good effort on this response"
	defaultImprovementsText = "Continue practicing this area."

	maxStrengths = 3
)

// Derive transforms a raw feedback payload into the normalized display model.
func Derive(raw model.RawFeedback) model.NormalizedFeedback {
	overallText := firstNonEmptyList(raw.OverallFeedback, raw.OverallFeedbackSummary)
	steps := firstNonEmptyList(raw.ImprovementSteps, raw.OverallImprovementSteps)
	sentiment := firstNonEmptyString(raw.Sentiment, raw.OverallSentiment, defaultSentiment)

	strengths := raw.CommunicationAssessment
	if len(strengths) > maxStrengths {
		strengths = strengths[:maxStrengths]
	}
	if len(strengths) == 0 {
		strengths = []string{fallbackStrength}
	} else {
		strengths = append([]string(nil), strengths...)
	}

	perQuestion := make([]model.QuestionFeedback, 0, len(raw.QuestionAnalysis))
	for i, qa := range raw.QuestionAnalysis {
		perQuestion = append(perQuestion, deriveQuestion(i, qa))
	}

	joined := strings.Join(overallText, " ")

	return model.NormalizedFeedback{
		OverallScore:        overallScore(raw.ConfidenceScore, sentiment),
		Strengths:           strengths,
		AreasToImprove:      append([]string(nil), steps...),
		PerQuestion:         perQuestion,
		MissedKeywords:      MissedKeywords(joined),
		OverallFeedbackText: joined,
	}
}

// overallScore applies the base/sentiment formula without the per-question
// index term: (confidence or 5)*10, +-10 for sentiment, clamped to [0,100].
func overallScore(confidence *float64, sentiment string) int {
	score := baseScore(confidence) + sentimentAdjustment(sentiment)
	return int(math.Round(clamp(score, 0, 100)))
}

// deriveQuestion scores and normalizes a single question analysis entry.
// index is the zero-based position of the entry in the payload; it feeds the
// per-question variation term.
func deriveQuestion(index int, qa model.QuestionAnalysis) model.QuestionFeedback {
	if strings.TrimSpace(qa.Transcript) == "" || qa.Transcript == transcriptUnavailable || !hasFeedback(qa.Feedback) {
		return model.QuestionFeedback{
			Question:         qa.Question,
			StrengthsText:    noAudioStrengthsText,
			ImprovementsText: noAudioImprovementsText,
			Score:            0,
		}
	}

	// A question entry carries a single sentiment field; it resolves against
	// the neutral default only and never inherits the payload-level
	// sentiment chain.
	sentiment := firstNonEmptyString(qa.Sentiment, defaultSentiment)
	score := clamp(baseScore(qa.ConfidenceScore)+sentimentAdjustment(sentiment), 0, 100)
	// Index-based variation with a narrower final band. The clamp sequence is
	// part of the contract; downstream consumers depend on the exact values.
	score = clamp(score+float64(index*5-10), 50, 95)

	strengthsEntries, improvementEntries := bucketEntries(flattenFeedback(qa.Feedback))

	strengthsText := strings.Join(strengthsEntries, ". ")
	if strengthsText == "" {
		strengthsText = firstNonEmptyString(qa.ToneAnalysis, qa.ToneAndStyle, defaultStrengthsText)
	}
	improvementsText := strings.Join(improvementEntries, ". ")
	if improvementsText == "" {
		improvementsText = defaultImprovementsText
	}

	return model.QuestionFeedback{
		Question:         qa.Question,
		StrengthsText:    strengthsText,
		ImprovementsText: improvementsText,
		Score:            int(math.Round(score)),
	}
}

func baseScore(confidence *float64) float64 {
	c := defaultConfidence
	if confidence != nil {
		c = *confidence
	}
	return c * 10
}

func sentimentAdjustment(sentiment string) float64 {
	switch strings.ToLower(sentiment) {
	case "positive":
		return 10
	case "negative":
		return -10
	default:
		return 0
	}
}

// hasFeedback reports whether the raw feedback field carries a value.
func hasFeedback(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// flattenFeedback accepts either a flat list of strings or an object with
// strengths, areas_for_improvement and tips_for_improvement lists, which are
// concatenated in that order.
func flattenFeedback(raw json.RawMessage) []string {
	var flat []string
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat
	}

	var categorized model.CategorizedFeedback
	if err := json.Unmarshal(raw, &categorized); err != nil {
		return nil
	}
	out := make([]string, 0, len(categorized.Strengths)+len(categorized.AreasForImprovement)+len(categorized.TipsForImprovement))
	out = append(out, categorized.Strengths...)
	out = append(out, categorized.AreasForImprovement...)
	out = append(out, categorized.TipsForImprovement...)
	return out
}

// bucketEntries groups entries mentioning "strength" (case-insensitive) into
// the strengths bucket; everything else is an improvement.
func bucketEntries(entries []string) (strengths, improvements []string) {
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e), "strength") {
			strengths = append(strengths, e)
		} else {
			improvements = append(improvements, e)
		}
	}
	return strengths, improvements
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func firstNonEmptyList(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return []string{}
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package model

import "encoding/json"

// Feedback generation status values reported by the backend.
const (
	FeedbackProcessing = "processing"
	FeedbackCompleted  = "completed"
	FeedbackSuccess    = "success"
	FeedbackError      = "error"
	FeedbackNotStarted = "not_started"
)

// FeedbackStatusReport is the backend's answer to a status poll.
type FeedbackStatusReport struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// RawFeedback is the loosely-structured payload produced by the backend.
// Several logical fields arrive under alternate keys; resolution precedence
// lives in the feedback package, not here.
type RawFeedback struct {
	OverallFeedback         []string           `json:"overall_feedback"`
	OverallFeedbackSummary  []string           `json:"overall_feedback_summary"`
	ImprovementSteps        []string           `json:"improvement_steps"`
	OverallImprovementSteps []string           `json:"overall_improvement_steps"`
	Sentiment               string             `json:"sentiment"`
	OverallSentiment        string             `json:"overall_sentiment"`
	ConfidenceScore         *float64           `json:"confidence_score"`
	CommunicationAssessment []string           `json:"communication_assessment"`
	QuestionAnalysis        []QuestionAnalysis `json:"question_analysis"`
}

// QuestionAnalysis is the backend's per-question assessment. Feedback is kept
// raw because it arrives either as a flat list of strings or as an object of
// categorized lists.
type QuestionAnalysis struct {
	Question        string          `json:"question"`
	Transcript      string          `json:"transcript"`
	ConfidenceScore *float64        `json:"confidence_score"`
	Sentiment       string          `json:"sentiment"`
	Feedback        json.RawMessage `json:"feedback"`
	ToneAnalysis    string          `json:"tone_analysis"`
	ToneAndStyle    string          `json:"tone_and_style"`
}

// CategorizedFeedback is the object form of QuestionAnalysis.Feedback.
type CategorizedFeedback struct {
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	TipsForImprovement  []string `json:"tips_for_improvement"`
}

// QuestionFeedback is the normalized per-question display model.
type QuestionFeedback struct {
	Question         string `json:"question"`
	StrengthsText    string `json:"strengths_text"`
	ImprovementsText string `json:"improvements_text"`
	Score            int    `json:"score"`
}

// NormalizedFeedback is the display model produced by the deriver. It is
// built fresh on every derivation call and carries no identity of its own.
type NormalizedFeedback struct {
	OverallScore        int                `json:"overall_score"`
	Strengths           []string           `json:"strengths"`
	AreasToImprove      []string           `json:"areas_to_improve"`
	PerQuestion         []QuestionFeedback `json:"per_question"`
	MissedKeywords      []string           `json:"missed_keywords"`
	OverallFeedbackText string             `json:"overall_feedback_text"`
}

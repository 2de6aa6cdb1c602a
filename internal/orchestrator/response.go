package orchestrator

import "time"

// Response is the final output of one turn. Built once, returned
// immutably, JSON-serializable for the HTTP surface.
type Response struct {
	// SessionID echoes the conversation this turn belongs to.
	SessionID string `json:"sessionId"`

	// Reply is the natural-language answer. Never empty, even on failure.
	Reply string `json:"reply"`

	// Language is the detected language of this turn ("en" or "zh").
	Language string `json:"language"`

	// Steps is the ordered, user-facing trace of what ran, including
	// failure annotations.
	Steps []string `json:"steps"`

	// Outputs holds successful tool outputs under fixed semantic keys:
	// "documents", "predictions", "report".
	Outputs map[string]any `json:"outputs"`

	// Confidence summarizes prediction confidence when the predictor ran
	// successfully; absent otherwise.
	Confidence *float64 `json:"confidence,omitempty"`

	// Degraded names the capabilities that were unavailable this turn.
	Degraded []string `json:"degraded,omitempty"`

	// Suggestions are optional follow-up prompts.
	Suggestions []string `json:"suggestions,omitempty"`

	// CreatedAt is when the response was composed.
	CreatedAt time.Time `json:"createdAt"`
}

package i18n

// englishMessages holds the English message table.
var englishMessages = map[string]string{
	// Step trace entries, appended when a tool starts.
	"step.retriever":   "Retrieving reference material…",
	"step.predictor":   "Running water-quality prediction…",
	"step.synthesizer": "Generating report…",

	// Step trace failure annotations.
	"step.retriever.failed":   "Retrieval failed: %s",
	"step.predictor.failed":   "Prediction failed: %s",
	"step.synthesizer.failed": "Report generation failed: %s",

	// Reply assembly.
	"reply.fallback": "I received your message: %q. Ask me about water-quality data, predictions, or reports.",
	"reply.success":  "Done. I completed %d step(s) for you.",
	"reply.apology":  "Sorry, something went wrong while handling your request. Please try again.",

	// Degraded-capability notices, one per unavailable tool.
	"degraded.retriever":   "Knowledge lookup was unavailable, so the answer below may lack references.",
	"degraded.predictor":   "Water-quality prediction was unavailable for this turn.",
	"degraded.synthesizer": "The report could not be generated this time.",
	"degraded.suffix":      "Here is what I could still do.",

	// Tool-level failure reasons surfaced to users.
	"tool.missing_location": "no location available; share a location or include one in your message",
	"tool.dependency":       "upstream dependency %s failed",
	"tool.timeout":          "timed out",

	// Follow-up suggestions.
	"suggest.predict": "Ask for a water-quality prediction at your location",
	"suggest.report":  "Request a full water-quality report",
	"suggest.search":  "Search the knowledge base for monitoring guidelines",
}

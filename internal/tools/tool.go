// Package tools provides the capability adapters invoked by the
// orchestrator: knowledge retrieval, water-quality prediction, and report
// synthesis. Each adapter wraps an external collaborator behind the uniform
// Tool contract and owns its own input validation.
package tools

import (
	"context"
	"fmt"
)

// Tool names. The registry holds exactly these three in production.
const (
	NameRetriever   = "retriever"
	NamePredictor   = "predictor"
	NameSynthesizer = "synthesizer"
)

// Well-known input bag keys.
const (
	KeyMessage   = "message"   // raw user message text
	KeyQuery     = "query"     // retrieval query (defaults to message)
	KeyTopK      = "topK"      // retrieval result limit
	KeyLatitude  = "latitude"  // float64 degrees
	KeyLongitude = "longitude" // float64 degrees
	KeyFeatures  = "features"  // map[string]float64 of sensor/spectral inputs
	KeyLanguage  = "language"  // language tag for generated text

	// KeyUnavailable lists names of failed upstream dependencies whose
	// outputs are missing from the input bag. Tools that can degrade
	// gracefully inspect it; tools that cannot declare the dependency
	// mandatory instead and never see it.
	KeyUnavailable = "unavailableDependencies"
)

// Well-known output bag keys, one per tool.
const (
	KeyDocuments   = "documents"   // []Document
	KeyPredictions = "predictions" // map[string]predict.Prediction
	KeyConfidence  = "confidence"  // float64 in [0,1]
	KeyReport      = "report"      // report.Report
)

// Input is the per-invocation input bag. Constructed fresh per turn.
type Input map[string]any

// Output is a tool's structured result bag. Immutable once produced.
type Output map[string]any

// Tool is the uniform capability adapter contract.
//
// Invoke is a single, non-resumable call: no streaming, no retries. The
// orchestrator may cancel the context on timeout; implementations should
// return promptly once the context is done.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string

	// Describe returns a human-readable capability summary for
	// diagnostics and UI.
	Describe() string

	// OutputKey returns the output bag key this tool's result lives
	// under, both in its own Output and in downstream inputs.
	OutputKey() string

	// Mandatory returns the names of upstream tools whose success this
	// tool requires. The executor short-circuits the invocation with a
	// dependency failure when any of them failed.
	Mandatory() []string

	// Invoke runs the tool. Errors are always *Error values.
	Invoke(ctx context.Context, input Input) (Output, error)
}

// String reads a string value from the input bag.
func (in Input) String(key string) (string, bool) {
	v, ok := in[key].(string)
	return v, ok
}

// Float reads a float64 value from the input bag, accepting common numeric
// types (JSON decoding yields float64, but callers may hand over ints).
func (in Input) Float(key string) (float64, bool) {
	switch v := in[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Int reads an int value from the input bag.
func (in Input) Int(key string) (int, bool) {
	switch v := in[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Coordinates reads the latitude/longitude pair from the input bag.
func (in Input) Coordinates() (lat, lon float64, ok bool) {
	lat, latOK := in.Float(KeyLatitude)
	lon, lonOK := in.Float(KeyLongitude)
	return lat, lon, latOK && lonOK
}

// Document is the retriever's output payload for one matched document.
type Document struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float32 `json:"relevanceScore"`
}

// invalid is a helper for malformed-input failures inside adapters.
func invalid(tool, format string, args ...any) *Error {
	return &Error{Tool: tool, Kind: KindInput, Message: fmt.Sprintf(format, args...)}
}

package tools

import (
	"context"
	"log/slog"

	"github.com/aquasense/aquasense/internal/predict"
	"github.com/aquasense/aquasense/internal/report"
)

// SynthesizerService is the report-generation surface the synthesizer tool
// depends on. report.Generator satisfies it.
type SynthesizerService interface {
	GenerateReport(ctx context.Context, lat, lon float64, rc report.Context) (report.Report, error)
}

// Synthesizer composes a water-quality report from upstream retrieval and
// prediction outputs.
//
// Predictions are mandatory: a report with no numbers behind it would be
// fabrication, so the executor short-circuits the synthesizer when the
// predictor failed. Documents are optional context.
type Synthesizer struct {
	service SynthesizerService
	logger  *slog.Logger
}

// NewSynthesizer creates the synthesizer tool.
func NewSynthesizer(service SynthesizerService, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{service: service, logger: logger}
}

func (s *Synthesizer) Name() string { return NameSynthesizer }

func (s *Synthesizer) Describe() string {
	return "generates a water-quality report from predictions and reference documents"
}

func (s *Synthesizer) OutputKey() string { return KeyReport }

func (s *Synthesizer) Mandatory() []string { return []string{NamePredictor} }

// Invoke renders the report.
func (s *Synthesizer) Invoke(ctx context.Context, input Input) (Output, error) {
	lat, lon, ok := input.Coordinates()
	if !ok {
		return nil, invalid(NameSynthesizer, "no location available for the report")
	}

	predictions, ok := input[KeyPredictions].(map[string]predict.Prediction)
	if !ok || len(predictions) == 0 {
		return nil, invalid(NameSynthesizer, "no predictions available for the report")
	}

	lang, _ := input.String(KeyLanguage)

	rc := report.Context{
		Language:    lang,
		Predictions: predictions,
	}
	if docs, ok := input[KeyDocuments].([]Document); ok {
		for _, doc := range docs {
			rc.Sources = append(rc.Sources, doc.Source)
		}
	}

	rep, err := s.service.GenerateReport(ctx, lat, lon, rc)
	if err != nil {
		return nil, &Error{Tool: NameSynthesizer, Kind: KindExecution, Message: "report generation failed", Err: err}
	}

	s.logger.Debug("report synthesized", "report_id", rep.ID, "sources", len(rc.Sources))
	return Output{KeyReport: rep}, nil
}

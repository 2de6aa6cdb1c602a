package tools

import (
	"context"
	"log/slog"

	"github.com/aquasense/aquasense/internal/predict"
)

// PredictorService is the inference surface the predictor tool depends on.
// predict.Client satisfies it.
type PredictorService interface {
	Predict(ctx context.Context, lat, lon float64, features map[string]float64) (map[string]predict.Prediction, error)
}

// Predictor runs water-quality inference for a geographic location.
type Predictor struct {
	service PredictorService
	logger  *slog.Logger
}

// NewPredictor creates the predictor tool.
func NewPredictor(service PredictorService, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Predictor{service: service, logger: logger}
}

func (p *Predictor) Name() string { return NamePredictor }

func (p *Predictor) Describe() string {
	return "predicts water-quality indicators for a geographic location"
}

func (p *Predictor) OutputKey() string { return KeyPredictions }

func (p *Predictor) Mandatory() []string { return nil }

// Invoke runs inference. A missing location is an input failure: there is
// no sensible default coordinate to predict for.
func (p *Predictor) Invoke(ctx context.Context, input Input) (Output, error) {
	lat, lon, ok := input.Coordinates()
	if !ok {
		return nil, invalid(NamePredictor, "no location available for prediction")
	}
	if err := predict.ValidateCoordinates(lat, lon); err != nil {
		return nil, &Error{Tool: NamePredictor, Kind: KindInput, Message: "invalid coordinates", Err: err}
	}

	var features map[string]float64
	if f, ok := input[KeyFeatures].(map[string]float64); ok {
		features = f
	}

	predictions, err := p.service.Predict(ctx, lat, lon, features)
	if err != nil {
		return nil, &Error{Tool: NamePredictor, Kind: KindExecution, Message: "inference failed", Err: err}
	}

	p.logger.Debug("prediction completed", "latitude", lat, "longitude", lon, "targets", len(predictions))
	return Output{
		KeyPredictions: predictions,
		KeyConfidence:  averageConfidence(predictions),
	}, nil
}

// averageConfidence summarizes per-target confidence for composition.
func averageConfidence(predictions map[string]predict.Prediction) float64 {
	if len(predictions) == 0 {
		return 0
	}
	var sum float64
	for _, p := range predictions {
		sum += p.Confidence
	}
	return sum / float64(len(predictions))
}

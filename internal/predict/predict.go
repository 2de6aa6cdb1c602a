// Package predict provides the client for the water-quality inference
// service. The numeric model itself is an external collaborator; this
// package owns input validation, transport, and result shaping.
package predict

import (
	"errors"
	"fmt"
)

// QualityTier grades a predicted value by how much the model trusts it.
type QualityTier string

// Quality tiers, ordered from most to least reliable.
const (
	TierExcellent QualityTier = "excellent"
	TierGood      QualityTier = "good"
	TierModerate  QualityTier = "moderate"
	TierPoor      QualityTier = "poor"
)

// Prediction is one predicted water-quality target.
type Prediction struct {
	Value      float64     `json:"value"`
	Confidence float64     `json:"confidenceScore"`
	Tier       QualityTier `json:"qualityTier"`
}

// Well-known prediction target names.
const (
	TargetNitrogen   = "nitrogen"
	TargetPhosphorus = "phosphorus"
	TargetPH         = "ph"
	TargetTurbidity  = "turbidity"
	TargetOxygen     = "oxygen"
)

// Sentinel errors for input validation. Check with errors.Is().
var (
	// ErrLatitudeRange indicates a latitude outside [-90, 90].
	ErrLatitudeRange = errors.New("latitude out of range [-90, 90]")

	// ErrLongitudeRange indicates a longitude outside [-180, 180].
	ErrLongitudeRange = errors.New("longitude out of range [-180, 180]")

	// ErrServiceUnavailable indicates the inference backend could not be
	// reached or returned a non-success status.
	ErrServiceUnavailable = errors.New("prediction service unavailable")
)

// ValidateCoordinates checks geospatial bounds.
// The service fails loudly rather than silently returning nulls.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: %v", ErrLatitudeRange, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: %v", ErrLongitudeRange, lon)
	}
	return nil
}

// TierForConfidence maps a confidence score to a quality tier.
func TierForConfidence(confidence float64) QualityTier {
	switch {
	case confidence >= 0.9:
		return TierExcellent
	case confidence >= 0.75:
		return TierGood
	case confidence >= 0.5:
		return TierModerate
	default:
		return TierPoor
	}
}

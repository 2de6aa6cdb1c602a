package predict

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientPredict(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/predict" {
				t.Errorf("path = %s", r.URL.Path)
			}
			var req struct {
				Latitude  float64            `json:"latitude"`
				Longitude float64            `json:"longitude"`
				Features  map[string]float64 `json:"features"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if req.Latitude != 36.05 || req.Longitude != 120.38 {
				t.Errorf("coordinates = (%v, %v)", req.Latitude, req.Longitude)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"predictions": map[string]Prediction{
					TargetPH: {Value: 8.05, Confidence: 0.88, Tier: TierGood},
				},
			})
		}))
		defer srv.Close()

		got, err := NewClient(srv.URL, nil).Predict(ctx, 36.05, 120.38, nil)
		if err != nil {
			t.Fatalf("Predict() error = %v", err)
		}
		p, ok := got[TargetPH]
		if !ok {
			t.Fatalf("predictions = %v, want ph target", got)
		}
		if p.Value != 8.05 || p.Confidence != 0.88 || p.Tier != TierGood {
			t.Errorf("prediction = %+v", p)
		}
	})

	t.Run("normalizes confidence and tier", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"predictions": map[string]any{
					"ph":       map[string]any{"value": 8.0, "confidenceScore": 1.7},
					"nitrogen": map[string]any{"value": 0.4, "confidenceScore": -0.2},
				},
			})
		}))
		defer srv.Close()

		got, err := NewClient(srv.URL, nil).Predict(ctx, 0, 0, nil)
		if err != nil {
			t.Fatalf("Predict() error = %v", err)
		}
		if p := got["ph"]; p.Confidence != 1 || p.Tier != TierExcellent {
			t.Errorf("ph = %+v, want clamped confidence 1 and excellent tier", p)
		}
		if p := got["nitrogen"]; p.Confidence != 0 || p.Tier != TierPoor {
			t.Errorf("nitrogen = %+v, want clamped confidence 0 and poor tier", p)
		}
	})

	t.Run("rejects invalid coordinates before calling backend", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, nil).Predict(ctx, -95, 0, nil)
		if !errors.Is(err, ErrLatitudeRange) {
			t.Errorf("Predict() error = %v, want ErrLatitudeRange", err)
		}
		if called {
			t.Error("backend was called with invalid coordinates")
		}
	})

	t.Run("non-200 status is service unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, nil).Predict(ctx, 0, 0, nil)
		if !errors.Is(err, ErrServiceUnavailable) {
			t.Errorf("Predict() error = %v, want ErrServiceUnavailable", err)
		}
	})

	t.Run("empty prediction set is service unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"predictions": map[string]any{}})
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, nil).Predict(ctx, 0, 0, nil)
		if !errors.Is(err, ErrServiceUnavailable) {
			t.Errorf("Predict() error = %v, want ErrServiceUnavailable", err)
		}
	})
}

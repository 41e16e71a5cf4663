package artifacts

import "fmt"

// StandardScaler applies the deterministic (x-mean)/scale transform fitted by
// the offline training pipeline. Read-only after load.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Transform scales a feature vector elementwise. Zero scale entries (a
// constant training column) pass the centered value through unchanged.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(x))
	}

	out := make([]float64, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

func (s *StandardScaler) validate() error {
	if len(s.Mean) == 0 {
		return fmt.Errorf("scaler has no mean vector")
	}
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("scaler mean/scale length mismatch: %d vs %d", len(s.Mean), len(s.Scale))
	}
	return nil
}

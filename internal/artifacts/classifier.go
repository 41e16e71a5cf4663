package artifacts

import (
	"fmt"
	"math"
)

// LogisticClassifier is a multinomial logistic model exported by the training
// pipeline: one coefficient row and intercept per class, softmax over the
// linear scores. Probabilities are emitted in class order, which matches the
// label encoder's class order.
type LogisticClassifier struct {
	Classes      []string    `json:"classes"`
	Coefficients [][]float64 `json:"coefficients"`
	Intercepts   []float64   `json:"intercepts"`
}

// PredictProba returns one probability per class for a scaled feature vector.
func (c *LogisticClassifier) PredictProba(x []float64) ([]float64, error) {
	if len(c.Coefficients) == 0 {
		return nil, fmt.Errorf("classifier has no coefficients")
	}
	if len(x) != len(c.Coefficients[0]) {
		return nil, fmt.Errorf("classifier expects %d features, got %d", len(c.Coefficients[0]), len(x))
	}

	scores := make([]float64, len(c.Coefficients))
	for i, row := range c.Coefficients {
		s := c.Intercepts[i]
		for j, w := range row {
			s += w * x[j]
		}
		scores[i] = s
	}
	return softmax(scores), nil
}

// softmax with the max-subtraction trick for numerical stability.
func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}

	probs := make([]float64, len(scores))
	sum := 0.0
	for i, s := range scores {
		probs[i] = math.Exp(s - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func (c *LogisticClassifier) validate(featureCount int) error {
	if len(c.Classes) == 0 {
		return fmt.Errorf("classifier has no classes")
	}
	if len(c.Coefficients) != len(c.Classes) {
		return fmt.Errorf("classifier has %d coefficient rows for %d classes", len(c.Coefficients), len(c.Classes))
	}
	if len(c.Intercepts) != len(c.Classes) {
		return fmt.Errorf("classifier has %d intercepts for %d classes", len(c.Intercepts), len(c.Classes))
	}
	for i, row := range c.Coefficients {
		if len(row) != featureCount {
			return fmt.Errorf("coefficient row %d has %d features, expected %d", i, len(row), featureCount)
		}
	}
	return nil
}

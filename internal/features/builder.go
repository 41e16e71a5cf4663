package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultScore is the neutral value substituted for competencies the user has
// no recorded score for. Midpoint of the normalized scoring scale.
const DefaultScore = 0.5

// ErrInvalidScoreType indicates a resolved score value was not numeric.
var ErrInvalidScoreType = errors.New("score value is not numeric")

// Vector is a numeric feature vector aligned to the canonical feature order,
// together with the names of features that had to be filled with
// DefaultScore. Two users missing the same competency get an identical value
// for that dimension, so Missing must be surfaced, never swallowed.
type Vector struct {
	Values  []float64
	Missing []string
}

// Build maps an arbitrary competency-score mapping onto the canonical feature
// order. Lookup is two-phase: an exact key match first, then a
// case-insensitive whitespace-trimmed match to tolerate naming drift between
// content data and training artifacts. Features absent from both phases get
// DefaultScore and are recorded in Missing.
func Build(featureNames []string, scores map[string]any) (Vector, error) {
	// When several input keys collapse to the same normalized key, the first
	// in sorted order wins, so repeated calls with the same input resolve the
	// collision identically.
	keys := make([]string, 0, len(scores))
	for key := range scores {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	normalized := make(map[string]any, len(scores))
	for _, key := range keys {
		norm := normalizeKey(key)
		if _, exists := normalized[norm]; !exists {
			normalized[norm] = scores[key]
		}
	}

	v := Vector{Values: make([]float64, 0, len(featureNames))}

	for _, feature := range featureNames {
		raw, ok := scores[feature]
		if !ok {
			raw, ok = normalized[normalizeKey(feature)]
		}
		if !ok {
			v.Values = append(v.Values, DefaultScore)
			v.Missing = append(v.Missing, feature)
			continue
		}

		value, err := toFloat(raw)
		if err != nil {
			return Vector{}, fmt.Errorf("feature %q: %w", feature, err)
		}
		v.Values = append(v.Values, value)
	}

	return v, nil
}

// FromScores adapts an aggregated competency-score map to Build's input.
func FromScores(scores map[string]float64) map[string]any {
	out := make(map[string]any, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidScoreType, n.String())
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrInvalidScoreType, v)
	}
}

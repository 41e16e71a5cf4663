package scoring

import (
	"math"
	"strings"
)

// ResponseScore is one answered scenario reduced to the competency it is
// tagged with and the point value of the chosen option.
type ResponseScore struct {
	Competency string
	Score      float64
}

// NormalizeCompetency trims whitespace and strips stray quote characters so
// that differently formatted occurrences of the same competency name collapse
// to a single aggregation key. Some content imports carry names like
// `' Empathy'` and they must score together with `Empathy`.
func NormalizeCompetency(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, `"`, "")
	return strings.TrimSpace(s)
}

// Round1 rounds to one decimal place, half away from zero. All user-facing
// competency scores use this precision.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Aggregate computes one mean score per competency from a user's full set of
// recorded responses. Pure function over its input snapshot; the order of the
// input does not affect the result. Zero responses yield an empty map, the
// caller decides whether that is fatal.
func Aggregate(responses []ResponseScore) map[string]float64 {
	totals := make(map[string]float64)
	counts := make(map[string]int)

	for _, r := range responses {
		key := NormalizeCompetency(r.Competency)
		if key == "" {
			continue
		}
		totals[key] += r.Score
		counts[key]++
	}

	scores := make(map[string]float64, len(totals))
	for key, total := range totals {
		scores[key] = Round1(total / float64(counts[key]))
	}
	return scores
}

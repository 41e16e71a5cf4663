package predict

import "sort"

// CompatibilityScore is one occupation's rounded percentage match. The JSON
// field names are the platform's wire contract and must not change: external
// clients consume them bit-exact.
type CompatibilityScore struct {
	Occupation    string `json:"meslek"`
	Compatibility int    `json:"uyum"`
}

// CompetencyComparison is one per-competency row comparing the user against
// the winning occupation's group average, all values at one decimal.
type CompetencyComparison struct {
	Competency   string  `json:"yetkinlik"`
	UserScore    float64 `json:"kullanici_skoru"`
	GroupAverage float64 `json:"grup_ortalamasi"`
	Delta        float64 `json:"fark"`
}

// Result is the externally consumed prediction report.
type Result struct {
	CompatibilityScores   []CompatibilityScore   `json:"uyum_skorlari"`
	WinningOccupation     string                 `json:"kazanan_meslek"`
	CompetencyComparisons []CompetencyComparison `json:"yetkinlik_karsilastirmasi"`

	// MissingFeatures names the competencies that were filled with the
	// neutral default. Surfaced for observability, not part of the wire
	// contract.
	MissingFeatures []string `json:"-"`
}

// Assemble shapes the engine's raw output into the final immutable result:
// compatibility list stable-sorted descending (ties keep encoder class
// order), winner label and comparison rows attached. Pure shaping, no I/O,
// identical inputs always produce identical output.
func Assemble(compatibility []CompatibilityScore, winner string, comparisons []CompetencyComparison, missing []string) *Result {
	sorted := make([]CompatibilityScore, len(compatibility))
	copy(sorted, compatibility)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Compatibility > sorted[j].Compatibility
	})

	return &Result{
		CompatibilityScores:   sorted,
		WinningOccupation:     winner,
		CompetencyComparisons: comparisons,
		MissingFeatures:       missing,
	}
}

package predict

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/yetria/guidance/internal/artifacts"
	"github.com/yetria/guidance/internal/features"
	"github.com/yetria/guidance/internal/scoring"
)

// Scaler transforms a raw feature vector into the classifier's input space.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
}

// Classifier maps a scaled feature vector to one probability per class.
type Classifier interface {
	PredictProba(x []float64) ([]float64, error)
}

// GroupAverageSource resolves an occupation to its mean competency scores.
type GroupAverageSource interface {
	Row(occupation string) (map[string]float64, bool)
}

// GroupAverageMap is a map-backed GroupAverageSource for tests and fixtures.
type GroupAverageMap map[string]map[string]float64

func (m GroupAverageMap) Row(occupation string) (map[string]float64, bool) {
	row, ok := m[occupation]
	return row, ok
}

// PredictionError wraps a downstream scaler/classifier failure so the caller
// sees a structured error instead of a crash.
type PredictionError struct {
	Stage string
	Err   error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed at %s: %v", e.Stage, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

// Engine turns a competency-score mapping into a full prediction report.
// Stateless per call; the injected model components are read-only, so one
// Engine serves arbitrarily many concurrent predictions.
type Engine struct {
	scaler        Scaler
	classifier    Classifier
	classes       []string
	featureNames  []string
	groupAverages GroupAverageSource
	logger        *slog.Logger
}

// Config assembles an Engine from explicit parts. Used directly in tests
// with stub components; production wiring goes through FromBundle.
type Config struct {
	Scaler        Scaler
	Classifier    Classifier
	Classes       []string
	FeatureNames  []string
	GroupAverages GroupAverageSource
	Logger        *slog.Logger
}

// New creates an engine from explicit parts.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		scaler:        cfg.Scaler,
		classifier:    cfg.Classifier,
		classes:       cfg.Classes,
		featureNames:  cfg.FeatureNames,
		groupAverages: cfg.GroupAverages,
		logger:        logger,
	}
}

// FromBundle wires an engine to a loaded artifact bundle.
func FromBundle(b *artifacts.Bundle, logger *slog.Logger) *Engine {
	return New(Config{
		Scaler:        b.Scaler,
		Classifier:    b.Classifier,
		Classes:       b.Encoder.Classes,
		FeatureNames:  b.FeatureNames,
		GroupAverages: b.GroupAverages,
		Logger:        logger,
	})
}

// Predict runs the full pipeline: align scores to the canonical feature
// order, scale, classify, and assemble the ranked report. Input problems
// (non-numeric scores) come back as the underlying error; downstream
// scaler/classifier failures come back as *PredictionError. Neither escapes
// as a panic.
func (e *Engine) Predict(userScores map[string]any) (*Result, error) {
	vec, err := features.Build(e.featureNames, userScores)
	if err != nil {
		return nil, err
	}

	if len(vec.Missing) > 0 {
		e.logger.Warn("competency scores missing, neutral default substituted",
			"missing", vec.Missing,
			"default", features.DefaultScore,
			"note", "users missing the same competencies receive identical values for those dimensions",
		)
	}

	scaled, err := e.scaler.Transform(vec.Values)
	if err != nil {
		return nil, &PredictionError{Stage: "scaling", Err: err}
	}

	probs, err := e.classifier.PredictProba(scaled)
	if err != nil {
		return nil, &PredictionError{Stage: "classification", Err: err}
	}
	if len(probs) != len(e.classes) {
		return nil, &PredictionError{
			Stage: "classification",
			Err:   fmt.Errorf("classifier returned %d probabilities for %d classes", len(probs), len(e.classes)),
		}
	}

	compatibility := make([]CompatibilityScore, len(e.classes))
	winnerIdx := 0
	for i, class := range e.classes {
		compatibility[i] = CompatibilityScore{
			Occupation:    class,
			Compatibility: int(math.Round(probs[i] * 100)),
		}
		// Strict greater keeps the lowest class index on ties.
		if probs[i] > probs[winnerIdx] {
			winnerIdx = i
		}
	}
	winner := e.classes[winnerIdx]

	comparisons := e.compareAgainstGroup(winner, vec.Values)

	return Assemble(compatibility, winner, comparisons, vec.Missing), nil
}

// compareAgainstGroup builds the per-competency rows for the winning
// occupation. userValues is already aligned to the canonical feature order,
// defaults included. Group-average gaps (schema drift) fall back to the same
// neutral default rather than failing.
func (e *Engine) compareAgainstGroup(winner string, userValues []float64) []CompetencyComparison {
	row, ok := e.groupAverages.Row(winner)
	if !ok {
		e.logger.Warn("no group-average row for predicted occupation, using neutral defaults",
			"occupation", winner)
	}

	comparisons := make([]CompetencyComparison, len(e.featureNames))
	for i, feature := range e.featureNames {
		groupAvg, found := 0.0, false
		if ok {
			groupAvg, found = row[feature]
		}
		if !found {
			groupAvg = features.DefaultScore
			if ok {
				e.logger.Warn("group-average row is missing a canonical feature",
					"occupation", winner, "feature", feature)
			}
		}

		// The delta is rounded from the raw values. Rounding user score and
		// group average first can shift it by 0.1 when the average carries
		// more than one decimal.
		comparisons[i] = CompetencyComparison{
			Competency:   feature,
			UserScore:    scoring.Round1(userValues[i]),
			GroupAverage: scoring.Round1(groupAvg),
			Delta:        scoring.Round1(userValues[i] - groupAvg),
		}
	}
	return comparisons
}

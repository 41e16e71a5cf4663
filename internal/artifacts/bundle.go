package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// ErrArtifactMissing indicates a required artifact kind has neither an
	// optimized nor a legacy file on disk. Fatal at startup.
	ErrArtifactMissing = errors.New("required model artifact missing")

	// ErrFeatureOrderMismatch indicates the artifacts disagree on the
	// canonical feature order. Fatal at startup.
	ErrFeatureOrderMismatch = errors.New("artifact feature order mismatch")
)

// Bundle is the immutable set of co-versioned model artifacts: classifier,
// scaler, label encoder and the group-average table. Loaded once at service
// start and shared read-only across concurrent predictions.
type Bundle struct {
	Classifier    *LogisticClassifier
	Scaler        *StandardScaler
	Encoder       *LabelEncoder
	GroupAverages *GroupAverages

	// FeatureNames is the canonical feature order every component aligns to,
	// derived from the group-average table.
	FeatureNames []string

	// Sources records which file satisfied each artifact kind, for health
	// reporting and operator sanity checks.
	Sources BundleSources
}

// BundleSources names the files each artifact was loaded from.
type BundleSources struct {
	Classifier    string `json:"classifier"`
	Scaler        string `json:"scaler"`
	Encoder       string `json:"label_encoder"`
	GroupAverages string `json:"group_averages"`
}

// Load reads the most recent artifacts of each kind from dir. Optimized
// variants (timestamp-suffixed by the training pipeline) are preferred over
// the legacy baseline file of the same kind; among several optimized files
// the one with the latest modification time wins. All cross-artifact
// consistency checks happen here so that a bad artifact set refuses to serve
// rather than failing mid-prediction.
func Load(dir string, logger *slog.Logger) (*Bundle, error) {
	if logger == nil {
		logger = slog.Default()
	}

	groupAvgPath, err := selectArtifact(dir, "", "group_averages.json")
	if err != nil {
		return nil, err
	}
	ga, err := loadGroupAverages(groupAvgPath)
	if err != nil {
		return nil, err
	}

	scalerPath, err := selectArtifact(dir, "", "scaler.json")
	if err != nil {
		return nil, err
	}
	scaler := &StandardScaler{}
	if err := loadJSON(scalerPath, scaler); err != nil {
		return nil, err
	}
	if err := scaler.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(scalerPath), err)
	}

	classifierPath, err := selectArtifact(dir, "classifier_optimized_*.json", "classifier.json")
	if err != nil {
		return nil, err
	}
	classifier := &LogisticClassifier{}
	if err := loadJSON(classifierPath, classifier); err != nil {
		return nil, err
	}

	encoderPath, err := selectArtifact(dir, "label_encoder_*.json", "label_encoder.json")
	if err != nil {
		return nil, err
	}
	encoder := &LabelEncoder{}
	if err := loadJSON(encoderPath, encoder); err != nil {
		return nil, err
	}
	if err := encoder.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(encoderPath), err)
	}

	bundle := &Bundle{
		Classifier:    classifier,
		Scaler:        scaler,
		Encoder:       encoder,
		GroupAverages: ga,
		FeatureNames:  ga.FeatureNames,
		Sources: BundleSources{
			Classifier:    filepath.Base(classifierPath),
			Scaler:        filepath.Base(scalerPath),
			Encoder:       filepath.Base(encoderPath),
			GroupAverages: filepath.Base(groupAvgPath),
		},
	}

	if err := bundle.validate(); err != nil {
		return nil, err
	}

	logger.Info("model artifact bundle loaded",
		"classifier", bundle.Sources.Classifier,
		"scaler", bundle.Sources.Scaler,
		"label_encoder", bundle.Sources.Encoder,
		"group_averages", bundle.Sources.GroupAverages,
		"features", len(bundle.FeatureNames),
		"classes", encoder.Len(),
	)

	return bundle, nil
}

// validate enforces the cross-artifact contract: all four artifacts must
// agree on the canonical feature order and the class set.
func (b *Bundle) validate() error {
	n := len(b.FeatureNames)

	if len(b.Scaler.Mean) != n {
		return fmt.Errorf("%w: scaler fitted on %d features, group averages list %d",
			ErrFeatureOrderMismatch, len(b.Scaler.Mean), n)
	}
	if err := b.Classifier.validate(n); err != nil {
		return fmt.Errorf("%w: %v", ErrFeatureOrderMismatch, err)
	}
	if !equalStrings(b.Classifier.Classes, b.Encoder.Classes) {
		return fmt.Errorf("%w: classifier classes %v do not match label encoder classes %v",
			ErrFeatureOrderMismatch, b.Classifier.Classes, b.Encoder.Classes)
	}
	for _, class := range b.Encoder.Classes {
		if _, ok := b.GroupAverages.Row(class); !ok {
			return fmt.Errorf("%w: class %q has no group-average row",
				ErrFeatureOrderMismatch, class)
		}
	}
	return nil
}

// selectArtifact picks the newest file matching pattern, falling back to the
// legacy name when no optimized variant exists. Returns ErrArtifactMissing
// when neither is present.
func selectArtifact(dir, pattern, legacy string) (string, error) {
	if pattern != "" {
		var newest string
		var newestMod int64

		entries, err := os.ReadDir(dir)
		if err != nil {
			return "", fmt.Errorf("reading artifact directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ok, err := filepath.Match(pattern, entry.Name())
			if err != nil || !ok {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
				newest = entry.Name()
				newestMod = mod
			}
		}
		if newest != "" {
			return filepath.Join(dir, newest), nil
		}
	}

	legacyPath := filepath.Join(dir, legacy)
	if _, err := os.Stat(legacyPath); err != nil {
		if pattern != "" {
			return "", fmt.Errorf("%w: no %q match and no legacy %s in %s",
				ErrArtifactMissing, pattern, legacy, dir)
		}
		return "", fmt.Errorf("%w: %s not found in %s", ErrArtifactMissing, legacy, dir)
	}
	return legacyPath, nil
}

func loadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening artifact %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decoding artifact %s: %w", filepath.Base(path), err)
	}
	return nil
}

func loadGroupAverages(path string) (*GroupAverages, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening artifact %s: %w", path, err)
	}
	defer f.Close()

	ga, err := ParseGroupAverages(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return ga, nil
}

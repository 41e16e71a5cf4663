package artifacts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeValidBundle lays down a complete, consistent artifact set with two
// classes and two features.
func writeValidBundle(t *testing.T, dir string) {
	t.Helper()
	writeArtifact(t, dir, "group_averages.json",
		`{"Doctor": {"Empathy": 4.2, "Logic": 3.0}, "Engineer": {"Empathy": 2.8, "Logic": 4.4}}`)
	writeArtifact(t, dir, "scaler.json",
		`{"mean": [3.0, 3.5], "scale": [1.0, 0.5]}`)
	writeArtifact(t, dir, "classifier.json",
		`{"classes": ["Doctor", "Engineer"], "coefficients": [[1.0, -1.0], [-1.0, 1.0]], "intercepts": [0.0, 0.0]}`)
	writeArtifact(t, dir, "label_encoder.json",
		`{"classes": ["Doctor", "Engineer"]}`)
}

func TestLoadLegacyBundle(t *testing.T) {
	dir := t.TempDir()
	writeValidBundle(t, dir)

	bundle, err := Load(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Empathy", "Logic"}, bundle.FeatureNames)
	assert.Equal(t, "classifier.json", bundle.Sources.Classifier)
	assert.Equal(t, "label_encoder.json", bundle.Sources.Encoder)
	assert.Equal(t, 2, bundle.Encoder.Len())
}

func TestLoadPrefersOptimizedVariants(t *testing.T) {
	dir := t.TempDir()
	writeValidBundle(t, dir)
	writeArtifact(t, dir, "classifier_optimized_20240101.json",
		`{"classes": ["Doctor", "Engineer"], "coefficients": [[0.5, -0.5], [-0.5, 0.5]], "intercepts": [0.1, -0.1]}`)
	writeArtifact(t, dir, "label_encoder_20240101.json",
		`{"classes": ["Doctor", "Engineer"]}`)

	bundle, err := Load(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, "classifier_optimized_20240101.json", bundle.Sources.Classifier)
	assert.Equal(t, "label_encoder_20240101.json", bundle.Sources.Encoder)
	assert.Equal(t, 0.1, bundle.Classifier.Intercepts[0])
}

func TestLoadPicksLatestOptimizedByModTime(t *testing.T) {
	dir := t.TempDir()
	writeValidBundle(t, dir)

	older := writeArtifact(t, dir, "classifier_optimized_20240101.json",
		`{"classes": ["Doctor", "Engineer"], "coefficients": [[1.0, 0.0], [0.0, 1.0]], "intercepts": [0.0, 0.0]}`)
	newer := writeArtifact(t, dir, "classifier_optimized_20240401.json",
		`{"classes": ["Doctor", "Engineer"], "coefficients": [[2.0, 0.0], [0.0, 2.0]], "intercepts": [0.0, 0.0]}`)

	// Lexical order must not matter, only modification time does.
	now := time.Now()
	require.NoError(t, os.Chtimes(older, now, now))
	require.NoError(t, os.Chtimes(newer, now.Add(-time.Hour), now.Add(-time.Hour)))

	bundle, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "classifier_optimized_20240101.json", bundle.Sources.Classifier)
}

func TestLoadMissingArtifactFails(t *testing.T) {
	tests := []struct {
		name   string
		remove string
	}{
		{name: "no classifier at all", remove: "classifier.json"},
		{name: "no scaler", remove: "scaler.json"},
		{name: "no label encoder", remove: "label_encoder.json"},
		{name: "no group averages", remove: "group_averages.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeValidBundle(t, dir)
			require.NoError(t, os.Remove(filepath.Join(dir, tt.remove)))

			_, err := Load(dir, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrArtifactMissing)
		})
	}
}

func TestLoadRejectsInconsistentArtifacts(t *testing.T) {
	t.Run("scaler feature count differs", func(t *testing.T) {
		dir := t.TempDir()
		writeValidBundle(t, dir)
		writeArtifact(t, dir, "scaler.json", `{"mean": [3.0], "scale": [1.0]}`)

		_, err := Load(dir, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFeatureOrderMismatch)
	})

	t.Run("classifier coefficient width differs", func(t *testing.T) {
		dir := t.TempDir()
		writeValidBundle(t, dir)
		writeArtifact(t, dir, "classifier.json",
			`{"classes": ["Doctor", "Engineer"], "coefficients": [[1.0], [2.0]], "intercepts": [0.0, 0.0]}`)

		_, err := Load(dir, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFeatureOrderMismatch)
	})

	t.Run("classifier and encoder class order differ", func(t *testing.T) {
		dir := t.TempDir()
		writeValidBundle(t, dir)
		writeArtifact(t, dir, "label_encoder.json", `{"classes": ["Engineer", "Doctor"]}`)

		_, err := Load(dir, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFeatureOrderMismatch)
	})

	t.Run("encoder class without group-average row", func(t *testing.T) {
		dir := t.TempDir()
		writeValidBundle(t, dir)
		writeArtifact(t, dir, "classifier.json",
			`{"classes": ["Doctor", "Pilot"], "coefficients": [[1.0, -1.0], [-1.0, 1.0]], "intercepts": [0.0, 0.0]}`)
		writeArtifact(t, dir, "label_encoder.json", `{"classes": ["Doctor", "Pilot"]}`)

		_, err := Load(dir, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFeatureOrderMismatch)
	})
}

func TestLoadRejectsMalformedArtifactJSON(t *testing.T) {
	dir := t.TempDir()
	writeValidBundle(t, dir)
	writeArtifact(t, dir, "scaler.json", `{"mean": "oops"}`)

	_, err := Load(dir, nil)
	assert.Error(t, err)
}

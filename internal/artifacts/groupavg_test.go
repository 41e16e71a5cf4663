package artifacts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupAverages(t *testing.T) {
	doc := `{
		"Doctor":   {"Empathy": 4.2, "Analytical Thinking": 3.8, "Leadership": 3.1},
		"Engineer": {"Empathy": 2.9, "Analytical Thinking": 4.5, "Leadership": 3.3}
	}`

	ga, err := ParseGroupAverages(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"Empathy", "Analytical Thinking", "Leadership"}, ga.FeatureNames)
	assert.Equal(t, []string{"Doctor", "Engineer"}, ga.Occupations())

	row, ok := ga.Row("Doctor")
	require.True(t, ok)
	assert.Equal(t, 4.2, row["Empathy"])
	assert.Equal(t, 3.8, row["Analytical Thinking"])

	_, ok = ga.Row("Pilot")
	assert.False(t, ok)
}

func TestParseGroupAveragesPreservesFileKeyOrder(t *testing.T) {
	// Deliberately non-alphabetical; the file order is the canonical order.
	doc := `{"Doctor": {"Zeal": 1.0, "Attention": 2.0, "Memory": 3.0}}`

	ga, err := ParseGroupAverages(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeal", "Attention", "Memory"}, ga.FeatureNames)
}

func TestParseGroupAveragesRejectsOrderMismatch(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "different key order",
			doc:  `{"Doctor": {"A": 1, "B": 2}, "Engineer": {"B": 2, "A": 1}}`,
		},
		{
			name: "missing feature in second row",
			doc:  `{"Doctor": {"A": 1, "B": 2}, "Engineer": {"A": 1}}`,
		},
		{
			name: "extra feature in second row",
			doc:  `{"Doctor": {"A": 1}, "Engineer": {"A": 1, "B": 2}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGroupAverages(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFeatureOrderMismatch)
		})
	}
}

func TestParseGroupAveragesRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty table", doc: `{}`},
		{name: "not an object", doc: `[1, 2]`},
		{name: "non-numeric mean", doc: `{"Doctor": {"A": "high"}}`},
		{name: "empty row", doc: `{"Doctor": {}}`},
		{name: "duplicate occupation", doc: `{"Doctor": {"A": 1}, "Doctor": {"A": 2}}`},
		{name: "duplicate competency", doc: `{"Doctor": {"A": 1, "A": 2}}`},
		{name: "truncated document", doc: `{"Doctor": {"A": 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGroupAverages(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

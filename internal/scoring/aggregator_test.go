package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCompetency(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain name unchanged",
			input:    "Empathy",
			expected: "Empathy",
		},
		{
			name:     "trims surrounding whitespace",
			input:    "  Analytical Thinking  ",
			expected: "Analytical Thinking",
		},
		{
			name:     "strips single quotes",
			input:    "'Empathy'",
			expected: "Empathy",
		},
		{
			name:     "strips double quotes",
			input:    `"Leadership"`,
			expected: "Leadership",
		},
		{
			name:     "quotes and whitespace combined",
			input:    ` ' Empathy ' `,
			expected: "Empathy",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCompetency(tt.input))
		})
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name      string
		responses []ResponseScore
		expected  map[string]float64
	}{
		{
			name:      "empty input yields empty map",
			responses: nil,
			expected:  map[string]float64{},
		},
		{
			name: "single response",
			responses: []ResponseScore{
				{Competency: "Empathy", Score: 3},
			},
			expected: map[string]float64{"Empathy": 3.0},
		},
		{
			name: "mean across multiple responses for one competency",
			responses: []ResponseScore{
				{Competency: "Empathy", Score: 3},
				{Competency: "Empathy", Score: 1},
				{Competency: "Empathy", Score: 5},
			},
			expected: map[string]float64{"Empathy": 3.0},
		},
		{
			name: "mean rounded to one decimal",
			responses: []ResponseScore{
				{Competency: "Leadership", Score: 2},
				{Competency: "Leadership", Score: 3},
				{Competency: "Leadership", Score: 3},
			},
			expected: map[string]float64{"Leadership": 2.7},
		},
		{
			name: "differently formatted names collapse to one key",
			responses: []ResponseScore{
				{Competency: "Empathy", Score: 2},
				{Competency: " Empathy ", Score: 4},
				{Competency: "'Empathy'", Score: 3},
			},
			expected: map[string]float64{"Empathy": 3.0},
		},
		{
			name: "independent competencies aggregate separately",
			responses: []ResponseScore{
				{Competency: "Empathy", Score: 4},
				{Competency: "Leadership", Score: 2},
				{Competency: "Empathy", Score: 5},
			},
			expected: map[string]float64{"Empathy": 4.5, "Leadership": 2.0},
		},
		{
			name: "blank competency names are skipped",
			responses: []ResponseScore{
				{Competency: "   ", Score: 5},
				{Competency: "Empathy", Score: 3},
			},
			expected: map[string]float64{"Empathy": 3.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Aggregate(tt.responses))
		})
	}
}

func TestAggregateOrderIndependence(t *testing.T) {
	forward := []ResponseScore{
		{Competency: "Empathy", Score: 1},
		{Competency: "Empathy", Score: 2},
		{Competency: "Leadership", Score: 5},
	}
	reversed := []ResponseScore{
		{Competency: "Leadership", Score: 5},
		{Competency: "Empathy", Score: 2},
		{Competency: "Empathy", Score: 1},
	}

	assert.Equal(t, Aggregate(forward), Aggregate(reversed))
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 2.7, Round1(2.666666))
	assert.Equal(t, 3.0, Round1(2.95))
	assert.Equal(t, -1.5, Round1(-1.45))
	assert.Equal(t, 0.0, Round1(0))
}

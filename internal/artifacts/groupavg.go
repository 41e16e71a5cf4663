package artifacts

import (
	"encoding/json"
	"fmt"
	"io"
)

// GroupAverages holds the per-occupation mean competency scores observed in
// training data. The key order of a row is semantically meaningful: it is the
// canonical feature order the classifier was trained on, so the table is
// parsed with an order-preserving decoder instead of unmarshalling into maps
// directly.
type GroupAverages struct {
	// FeatureNames is the canonical feature order, taken from the first row
	// and verified identical across all rows.
	FeatureNames []string

	occupations []string
	rows        map[string]map[string]float64
}

// Row returns the mean competency scores for an occupation.
func (g *GroupAverages) Row(occupation string) (map[string]float64, bool) {
	row, ok := g.rows[occupation]
	return row, ok
}

// Occupations lists the occupations in file order.
func (g *GroupAverages) Occupations() []string {
	return g.occupations
}

// ParseGroupAverages reads a `{occupation: {competency: mean}}` document with
// a token walk so that key order survives decoding. Rows that disagree on
// feature names or their order fail the parse.
func ParseGroupAverages(r io.Reader) (*GroupAverages, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("group averages: %w", err)
	}

	g := &GroupAverages{rows: make(map[string]map[string]float64)}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("group averages: %w", err)
		}
		occupation, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("group averages: expected occupation key, got %v", tok)
		}

		features, row, err := parseRow(dec)
		if err != nil {
			return nil, fmt.Errorf("group averages: row %q: %w", occupation, err)
		}

		if g.FeatureNames == nil {
			g.FeatureNames = features
		} else if !equalStrings(g.FeatureNames, features) {
			return nil, fmt.Errorf("%w: row %q lists %v, expected %v",
				ErrFeatureOrderMismatch, occupation, features, g.FeatureNames)
		}

		if _, dup := g.rows[occupation]; dup {
			return nil, fmt.Errorf("group averages: duplicate occupation %q", occupation)
		}
		g.occupations = append(g.occupations, occupation)
		g.rows[occupation] = row
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("group averages: %w", err)
	}
	if len(g.occupations) == 0 {
		return nil, fmt.Errorf("group averages: no occupations in table")
	}
	return g, nil
}

func parseRow(dec *json.Decoder) ([]string, map[string]float64, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, nil, err
	}

	var features []string
	row := make(map[string]float64)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected competency key, got %v", tok)
		}

		tok, err = dec.Token()
		if err != nil {
			return nil, nil, err
		}
		num, ok := tok.(json.Number)
		if !ok {
			return nil, nil, fmt.Errorf("competency %q: expected numeric mean, got %v", name, tok)
		}
		value, err := num.Float64()
		if err != nil {
			return nil, nil, fmt.Errorf("competency %q: %w", name, err)
		}

		if _, dup := row[name]; dup {
			return nil, nil, fmt.Errorf("duplicate competency %q", name)
		}
		features = append(features, name)
		row[name] = value
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, nil, err
	}
	if len(features) == 0 {
		return nil, nil, fmt.Errorf("row has no competencies")
	}
	return features, row, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

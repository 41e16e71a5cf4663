package database

import (
	"fmt"
	"strings"
)

// ListScenarios returns all scenarios with their competency name and their
// options in stable id order, display letters attached. The letter is
// computed here, when the scenario is served, and the same ordering rule is
// used when a submitted letter is resolved back to an option.
func (r *Repository) ListScenarios() ([]Scenario, error) {
	rows, err := r.db.Query(`
		SELECT s.id, s.title, s.description, s.competency_id, c.name
		FROM scenarios s
		JOIN competencies c ON c.id = s.competency_id
		ORDER BY s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []Scenario
	index := make(map[int64]int)
	for rows.Next() {
		var s Scenario
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.CompetencyID, &s.Competency); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		index[s.ID] = len(scenarios)
		scenarios = append(scenarios, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scenarios: %w", err)
	}

	optRows, err := r.db.Query(`
		SELECT id, scenario_id, option_text, score
		FROM scenario_options
		ORDER BY scenario_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var opt ScenarioOption
		if err := optRows.Scan(&opt.ID, &opt.ScenarioID, &opt.OptionText, &opt.Score); err != nil {
			return nil, fmt.Errorf("failed to scan scenario option: %w", err)
		}
		i, ok := index[opt.ScenarioID]
		if !ok {
			continue
		}
		opt.Letter = OptionLetter(len(scenarios[i].Options))
		scenarios[i].Options = append(scenarios[i].Options, opt)
	}
	if err := optRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scenario options: %w", err)
	}

	return scenarios, nil
}

// Assessment shape: four stages of four scenarios each.
const (
	ScenariosPerStage = 4
	StageCount        = 4
)

// ScenariosForStage returns the Nth block of four scenarios from the
// id-ordered list. Stage numbers run 1 through 4.
func (r *Repository) ScenariosForStage(stage int) ([]Scenario, error) {
	if stage < 1 || stage > StageCount {
		return nil, fmt.Errorf("stage must be between 1 and %d, got %d", StageCount, stage)
	}

	scenarios, err := r.ListScenarios()
	if err != nil {
		return nil, err
	}

	start := (stage - 1) * ScenariosPerStage
	if start >= len(scenarios) {
		return []Scenario{}, nil
	}
	end := start + ScenariosPerStage
	if end > len(scenarios) {
		end = len(scenarios)
	}
	return scenarios[start:end], nil
}

// ScenarioOptions returns one scenario's options in stable id order with
// letters attached.
func (r *Repository) ScenarioOptions(scenarioID int64) ([]ScenarioOption, error) {
	rows, err := r.db.Query(`
		SELECT id, scenario_id, option_text, score
		FROM scenario_options
		WHERE scenario_id = ?
		ORDER BY id
	`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options for scenario %d: %w", scenarioID, err)
	}
	defer rows.Close()

	var options []ScenarioOption
	for rows.Next() {
		var opt ScenarioOption
		if err := rows.Scan(&opt.ID, &opt.ScenarioID, &opt.OptionText, &opt.Score); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		opt.Letter = OptionLetter(len(options))
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate options: %w", err)
	}
	return options, nil
}

// ResolveOptionByLetter maps a submitted display letter back to the stored
// option using the same id ordering the letters were derived from.
// Case-insensitive; out-of-range letters are an input error.
func (r *Repository) ResolveOptionByLetter(scenarioID int64, letter string) (*ScenarioOption, error) {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return nil, fmt.Errorf("invalid option letter %q", letter)
	}

	options, err := r.ScenarioOptions(scenarioID)
	if err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("no options found for scenario %d", scenarioID)
	}

	index := int(letter[0] - 'A')
	if index >= len(options) {
		return nil, fmt.Errorf("option letter %s out of range for scenario %d", letter, scenarioID)
	}
	return &options[index], nil
}

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yetria/guidance/internal/scoring"
)

// ResponseUpsert is one resolved submission: the scenario being answered and
// the chosen option.
type ResponseUpsert struct {
	ScenarioID int64
	OptionID   int64
}

// ReplaceResponses applies last-write-wins semantics at scenario granularity
// in a single transaction: for every submitted scenario, any prior response
// of this user is deleted and the new one inserted. Previously answered
// scenarios that are not part of the submission stay intact. A concurrent
// read of the user's responses never observes a half-replaced scenario.
func (r *Repository) ReplaceResponses(userID int64, submissions []ResponseUpsert) (int, error) {
	// Last entry wins for duplicate scenarios within one payload.
	unique := make(map[int64]ResponseUpsert, len(submissions))
	var order []int64
	for _, sub := range submissions {
		if _, seen := unique[sub.ScenarioID]; !seen {
			order = append(order, sub.ScenarioID)
		}
		unique[sub.ScenarioID] = sub
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin response transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	saved := 0
	for _, scenarioID := range order {
		sub := unique[scenarioID]

		_, err := tx.Exec(`
			DELETE FROM scenario_responses
			WHERE user_id = ?
			  AND scenario_option_id IN (
				SELECT id FROM scenario_options WHERE scenario_id = ?
			  )
		`, userID, scenarioID)
		if err != nil {
			return 0, fmt.Errorf("failed to clear prior response for scenario %d: %w", scenarioID, err)
		}

		_, err = tx.Exec(`
			INSERT INTO scenario_responses (user_id, scenario_option_id, response_time)
			VALUES (?, ?, ?)
		`, userID, sub.OptionID, now)
		if err != nil {
			return 0, fmt.Errorf("failed to save response for scenario %d: %w", scenarioID, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit responses: %w", err)
	}
	return saved, nil
}

// ResponseScores resolves the user's complete answered-scenario state into
// (competency name, option score) tuples, ready for aggregation.
func (r *Repository) ResponseScores(userID int64) ([]scoring.ResponseScore, error) {
	rows, err := r.db.Query(`
		SELECT c.name, o.score
		FROM scenario_responses sr
		JOIN scenario_options o ON o.id = sr.scenario_option_id
		JOIN scenarios s ON s.id = o.scenario_id
		JOIN competencies c ON c.id = s.competency_id
		WHERE sr.user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query response scores: %w", err)
	}
	defer rows.Close()

	var scores []scoring.ResponseScore
	for rows.Next() {
		var rs scoring.ResponseScore
		if err := rows.Scan(&rs.Competency, &rs.Score); err != nil {
			return nil, fmt.Errorf("failed to scan response score: %w", err)
		}
		scores = append(scores, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate response scores: %w", err)
	}
	return scores, nil
}

// CountResponses returns how many scenarios the user has answered.
func (r *Repository) CountResponses(userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM scenario_responses WHERE user_id = ?
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}

// ResponseForScenario returns the user's stored response for one scenario,
// or ErrNotFound.
func (r *Repository) ResponseForScenario(userID, scenarioID int64) (*UserResponse, error) {
	var resp UserResponse
	err := r.db.QueryRow(`
		SELECT sr.id, sr.user_id, sr.scenario_option_id, sr.response_time
		FROM scenario_responses sr
		JOIN scenario_options o ON o.id = sr.scenario_option_id
		WHERE sr.user_id = ? AND o.scenario_id = ?
	`, userID, scenarioID).Scan(&resp.ID, &resp.UserID, &resp.OptionID, &resp.ResponseTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query response: %w", err)
	}
	return &resp, nil
}

package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yetria/guidance/internal/predict"
)

// Thresholds for classifying a competency as a strength or weakness in the
// persisted snapshot.
const (
	strongCompetencyMin = 4.0
	weakCompetencyMax   = 3.0
)

// NewAssessmentResult flattens a prediction report into its persisted
// snapshot form.
func NewAssessmentResult(userID int64, totalResponses int, result *predict.Result) (*AssessmentResult, error) {
	scores := make(map[string]float64, len(result.CompetencyComparisons))
	var strong, weak []string
	for _, cmp := range result.CompetencyComparisons {
		scores[cmp.Competency] = cmp.UserScore
		if cmp.UserScore >= strongCompetencyMin {
			strong = append(strong, cmp.Competency)
		}
		if cmp.UserScore < weakCompetencyMax {
			weak = append(weak, cmp.Competency)
		}
	}

	compatibility := 0
	for _, cs := range result.CompatibilityScores {
		if cs.Occupation == result.WinningOccupation {
			compatibility = cs.Compatibility
			break
		}
	}

	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return nil, fmt.Errorf("failed to encode competency scores: %w", err)
	}
	strongJSON, err := json.Marshal(emptyIfNil(strong))
	if err != nil {
		return nil, fmt.Errorf("failed to encode strong competencies: %w", err)
	}
	weakJSON, err := json.Marshal(emptyIfNil(weak))
	if err != nil {
		return nil, fmt.Errorf("failed to encode weak competencies: %w", err)
	}
	compatJSON, err := json.Marshal(result.CompatibilityScores)
	if err != nil {
		return nil, fmt.Errorf("failed to encode compatibility scores: %w", err)
	}

	return &AssessmentResult{
		UserID:                 userID,
		RecommendedOccupation:  result.WinningOccupation,
		Compatibility:          compatibility,
		CompetencyScoresJSON:   string(scoresJSON),
		StrongCompetenciesJSON: string(strongJSON),
		WeakCompetenciesJSON:   string(weakJSON),
		CompatibilityJSON:      string(compatJSON),
		TotalResponses:         totalResponses,
		IsFinal:                true,
		UpdatedAt:              time.Now().UTC(),
	}, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// SaveAssessmentResult upserts the user's snapshot; a user has at most one
// current result.
func (r *Repository) SaveAssessmentResult(result *AssessmentResult) error {
	_, err := r.db.Exec(`
		INSERT INTO assessment_results (
			user_id, recommended_occupation, compatibility, competency_scores,
			strong_competencies, weak_competencies, compatibility_scores,
			total_responses, is_final, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			recommended_occupation = excluded.recommended_occupation,
			compatibility = excluded.compatibility,
			competency_scores = excluded.competency_scores,
			strong_competencies = excluded.strong_competencies,
			weak_competencies = excluded.weak_competencies,
			compatibility_scores = excluded.compatibility_scores,
			total_responses = excluded.total_responses,
			is_final = excluded.is_final,
			updated_at = excluded.updated_at
	`, result.UserID, result.RecommendedOccupation, result.Compatibility,
		result.CompetencyScoresJSON, result.StrongCompetenciesJSON,
		result.WeakCompetenciesJSON, result.CompatibilityJSON,
		result.TotalResponses, result.IsFinal, result.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save assessment result: %w", err)
	}
	return nil
}

// GetAssessmentResult returns the user's stored snapshot or ErrNotFound.
func (r *Repository) GetAssessmentResult(userID int64) (*AssessmentResult, error) {
	var res AssessmentResult
	err := r.db.QueryRow(`
		SELECT user_id, recommended_occupation, compatibility, competency_scores,
			strong_competencies, weak_competencies, compatibility_scores,
			total_responses, is_final, updated_at
		FROM assessment_results WHERE user_id = ?
	`, userID).Scan(&res.UserID, &res.RecommendedOccupation, &res.Compatibility,
		&res.CompetencyScoresJSON, &res.StrongCompetenciesJSON,
		&res.WeakCompetenciesJSON, &res.CompatibilityJSON,
		&res.TotalResponses, &res.IsFinal, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query assessment result: %w", err)
	}
	return &res, nil
}

package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yetria/guidance/internal/database"
)

// PrivacyService handles data export and erasure for user accounts.
type PrivacyService struct {
	repo *database.Repository
}

// NewService creates a new privacy service
func NewService(repo *database.Repository) *PrivacyService {
	return &PrivacyService{repo: repo}
}

// AnonymizeIdentifier hashes a personal identifier for log output.
func (ps *PrivacyService) AnonymizeIdentifier(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:16]
}

// ExportUserData gathers everything stored about a user into one document,
// suitable for a data-access request.
func (ps *PrivacyService) ExportUserData(userID int64) (map[string]any, error) {
	user, err := ps.repo.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	export := map[string]any{
		"profile": map[string]any{
			"user_id":    user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"age":        user.Age,
			"created_at": user.CreatedAt,
		},
	}

	scores, err := ps.repo.ResponseScores(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to export responses: %w", err)
	}
	export["response_count"] = len(scores)

	result, err := ps.repo.GetAssessmentResult(userID)
	switch {
	case err == nil:
		var compatibility []map[string]any
		if jsonErr := json.Unmarshal([]byte(result.CompatibilityJSON), &compatibility); jsonErr == nil {
			export["assessment"] = map[string]any{
				"recommended_occupation": result.RecommendedOccupation,
				"compatibility":          result.Compatibility,
				"compatibility_scores":   compatibility,
				"total_responses":        result.TotalResponses,
				"updated_at":             result.UpdatedAt,
			}
		}
	case errors.Is(err, database.ErrNotFound):
		// No completed assessment yet.
	default:
		return nil, fmt.Errorf("failed to export assessment result: %w", err)
	}

	requests, err := ps.repo.ListMentorshipRequests(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to export mentorship requests: %w", err)
	}
	export["mentorship_requests"] = requests

	return export, nil
}

// DeleteUserData removes the account and everything attached to it.
func (ps *PrivacyService) DeleteUserData(userID int64) error {
	user, err := ps.repo.GetUserByID(userID)
	if err != nil {
		return err
	}

	slog.Info("Deleting user data",
		"user", ps.AnonymizeIdentifier(user.Email))

	if err := ps.repo.DeleteUser(userID); err != nil {
		return fmt.Errorf("failed to delete user data: %w", err)
	}
	return nil
}

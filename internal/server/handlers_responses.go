package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yetria/guidance/internal/database"
	apperrors "github.com/yetria/guidance/internal/errors"
	"github.com/yetria/guidance/internal/predict"
	"github.com/yetria/guidance/internal/scoring"
)

type responseSubmission struct {
	ScenarioID   int64  `json:"scenario_id" binding:"required"`
	OptionLetter string `json:"option_letter" binding:"required"`
}

// handleSubmitResponses stores the submitted answers and returns a fresh
// prediction over ALL of the user's stored responses, not just this
// submission.
func (s *Server) handleSubmitResponses(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	var submissions []responseSubmission
	if err := c.ShouldBindJSON(&submissions); err != nil {
		c.Error(apperrors.NewValidationError("invalid responses payload", err))
		return
	}
	if len(submissions) == 0 {
		c.Error(apperrors.NewValidationError("at least one response is required", nil))
		return
	}

	upserts := make([]database.ResponseUpsert, 0, len(submissions))
	for _, sub := range submissions {
		option, err := s.repo.ResolveOptionByLetter(sub.ScenarioID, sub.OptionLetter)
		if err != nil {
			c.Error(apperrors.NewValidationError("invalid option selection", err))
			return
		}
		upserts = append(upserts, database.ResponseUpsert{ScenarioID: sub.ScenarioID, OptionID: option.ID})
	}

	saved, err := s.repo.ReplaceResponses(userID, upserts)
	if err != nil {
		c.Error(err)
		return
	}
	s.metrics.AddResponsesSaved(saved)

	result, total, err := s.predictFromStored(userID)
	if err != nil {
		s.metrics.IncrementPredictionError()
		c.Error(err)
		return
	}
	s.metrics.IncrementPrediction()

	// The snapshot is a convenience copy; failing to store it must not
	// cost the user their result.
	if snapshot, snapErr := database.NewAssessmentResult(userID, total, result); snapErr != nil {
		s.logger.Warn("Could not build assessment snapshot", "user_id", userID, "error", snapErr)
	} else if saveErr := s.repo.SaveAssessmentResult(snapshot); saveErr != nil {
		s.logger.Warn("Could not save assessment snapshot", "user_id", userID, "error", saveErr)
	}

	c.JSON(http.StatusOK, result)
}

// predictFromStored aggregates every stored response of the user into
// competency means and runs the prediction pipeline.
func (s *Server) predictFromStored(userID int64) (*predict.Result, int, error) {
	responseScores, err := s.repo.ResponseScores(userID)
	if err != nil {
		return nil, 0, err
	}

	means := scoring.Aggregate(responseScores)
	userScores := make(map[string]any, len(means))
	for name, mean := range means {
		userScores[name] = mean
	}

	start := time.Now()
	result, err := s.engine.Predict(userScores)
	if err != nil {
		return nil, 0, err
	}

	s.logger.PredictionLogger(userID, result.WinningOccupation, topCompatibility(result), len(result.MissingFeatures), time.Since(start))
	return result, len(responseScores), nil
}

func topCompatibility(result *predict.Result) int {
	for _, cs := range result.CompatibilityScores {
		if cs.Occupation == result.WinningOccupation {
			return cs.Compatibility
		}
	}
	return 0
}

func (s *Server) handleProgress(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	total, err := s.repo.CountResponses(userID)
	if err != nil {
		c.Error(err)
		return
	}

	completed := total / database.ScenariosPerStage
	if completed > database.StageCount {
		completed = database.StageCount
	}
	currentStage := completed + 1
	if completed >= database.StageCount {
		currentStage = database.StageCount
	}
	completedStages := make([]int, 0, completed)
	for stage := 1; stage <= completed; stage++ {
		completedStages = append(completedStages, stage)
	}

	c.JSON(http.StatusOK, gin.H{
		"total_responses":  total,
		"current_stage":    currentStage,
		"completed_stages": completedStages,
	})
}

func (s *Server) handleRecomputeResult(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	total, err := s.repo.CountResponses(userID)
	if err != nil {
		c.Error(err)
		return
	}
	if total == 0 {
		c.Error(apperrors.NewValidationError("no responses found for user", nil))
		return
	}

	result, _, err := s.predictFromStored(userID)
	if err != nil {
		s.metrics.IncrementPredictionError()
		c.Error(err)
		return
	}
	s.metrics.IncrementPrediction()

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleAssessmentResult(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	result, err := s.repo.GetAssessmentResult(userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Error(apperrors.NewNotFoundError("assessment result not found, complete the assessment first"))
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleAssessmentStatus(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	result, err := s.repo.GetAssessmentResult(userID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		c.Error(err)
		return
	}

	status := gin.H{
		"has_completed_assessment": false,
		"can_view_results":         false,
	}
	if result != nil {
		status["has_completed_assessment"] = true
		status["can_view_results"] = true
		status["assessment_completed_at"] = result.UpdatedAt
		status["recommended_occupation"] = result.RecommendedOccupation
	}

	c.JSON(http.StatusOK, status)
}

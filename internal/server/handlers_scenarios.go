package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yetria/guidance/internal/errors"
)

func (s *Server) handleListScenarios(c *gin.Context) {
	stageParam := c.Query("stage")
	if stageParam == "" {
		scenarios, err := s.repo.ListScenarios()
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, scenarios)
		return
	}

	stage, err := strconv.Atoi(stageParam)
	if err != nil {
		c.Error(apperrors.NewValidationError("stage must be a number", err))
		return
	}

	scenarios, err := s.repo.ScenariosForStage(stage)
	if err != nil {
		c.Error(apperrors.NewValidationError("stage must be between 1 and 4", err))
		return
	}

	c.JSON(http.StatusOK, scenarios)
}

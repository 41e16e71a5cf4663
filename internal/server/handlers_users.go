package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yetria/guidance/internal/auth"
	"github.com/yetria/guidance/internal/database"
	apperrors "github.com/yetria/guidance/internal/errors"
)

type updateProfileRequest struct {
	Name string `json:"name" binding:"required"`
	Age  *int   `json:"age"`
}

func (s *Server) currentUserID(c *gin.Context) (int64, bool) {
	id, ok := auth.UserID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("authentication required"))
	}
	return id, ok
}

func (s *Server) handleGetProfile(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Error(apperrors.NewNotFoundError("user not found"))
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid profile payload", err))
		return
	}

	user, err := s.repo.UpdateUser(userID, strings.TrimSpace(req.Name), req.Age)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Error(apperrors.NewNotFoundError("user not found"))
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) handleDeleteAccount(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	if err := s.privacy.DeleteUserData(userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Error(apperrors.NewNotFoundError("user not found"))
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

func (s *Server) handleExportAccount(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	export, err := s.privacy.ExportUserData(userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Error(apperrors.NewNotFoundError("user not found"))
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, export)
}

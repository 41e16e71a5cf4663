package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yetria/guidance/internal/database"
	apperrors "github.com/yetria/guidance/internal/errors"
)

type registerRequest struct {
	Name             string `json:"name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	Age              *int   `json:"age"`
	EducationLevelID *int64 `json:"education_level_id"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid registration payload", err))
		return
	}

	hash, err := s.authSvc.HashPassword(req.Password)
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to process password", err))
		return
	}

	user, err := s.repo.CreateUser(strings.TrimSpace(req.Name), req.Email, hash, req.Age, req.EducationLevelID)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			c.Error(apperrors.NewValidationError("email already registered", nil))
			return
		}
		c.Error(err)
		return
	}

	token, err := s.authSvc.GenerateSessionToken(user.ID)
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to issue token", err))
		return
	}

	c.JSON(http.StatusCreated, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid login payload", err))
		return
	}

	user, err := s.repo.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Error(apperrors.NewUnauthorizedError("invalid email or password"))
			return
		}
		c.Error(err)
		return
	}

	if !s.authSvc.CheckPassword(user.PasswordHash, req.Password) {
		c.Error(apperrors.NewUnauthorizedError("invalid email or password"))
		return
	}

	token, err := s.authSvc.GenerateSessionToken(user.ID)
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to issue token", err))
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

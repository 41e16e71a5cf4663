package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yetria/guidance/internal/database"
	apperrors "github.com/yetria/guidance/internal/errors"
)

func (s *Server) handleListCourses(c *gin.Context) {
	courses, err := s.repo.ListCourses()
	if err != nil {
		c.Error(err)
		return
	}
	if courses == nil {
		courses = []database.Course{}
	}
	c.JSON(http.StatusOK, courses)
}

// recommendedOccupation resolves the user's saved winner, or reports that no
// assessment exists yet.
func (s *Server) recommendedOccupation(c *gin.Context, userID int64) (string, bool) {
	result, err := s.repo.GetAssessmentResult(userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Error(apperrors.NewNotFoundError("complete the assessment to get recommendations"))
			return "", false
		}
		c.Error(err)
		return "", false
	}
	return result.RecommendedOccupation, true
}

func (s *Server) handleCourseRecommendations(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	occupation, ok := s.recommendedOccupation(c, userID)
	if !ok {
		return
	}

	courses, err := s.repo.CoursesForOccupation(occupation)
	if err != nil {
		c.Error(err)
		return
	}
	if courses == nil {
		courses = []database.Course{}
	}

	c.JSON(http.StatusOK, gin.H{
		"recommended_occupation": occupation,
		"courses":                courses,
	})
}

func (s *Server) handleCoursesByKeywords(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.Error(apperrors.NewValidationError("query parameter q is required", nil))
		return
	}

	terms := strings.Split(query, ",")
	courses, err := s.repo.CoursesByKeywords(terms)
	if err != nil {
		c.Error(err)
		return
	}
	if courses == nil {
		courses = []database.Course{}
	}
	c.JSON(http.StatusOK, courses)
}

func (s *Server) handleRecommendMentors(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	occupation, ok := s.recommendedOccupation(c, userID)
	if !ok {
		return
	}

	mentors, err := s.repo.MentorsForOccupation(occupation)
	if err != nil {
		c.Error(err)
		return
	}
	if mentors == nil {
		mentors = []database.MentorProfile{}
	}

	c.JSON(http.StatusOK, gin.H{
		"recommended_occupation": occupation,
		"mentors":                mentors,
	})
}

type mentorshipRequestPayload struct {
	MentorID int64  `json:"mentor_id" binding:"required"`
	Message  string `json:"message"`
}

func (s *Server) handleCreateMentorshipRequest(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	var req mentorshipRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid mentorship request payload", err))
		return
	}

	if _, err := s.repo.GetMentorProfile(req.MentorID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Error(apperrors.NewNotFoundError("mentor not found"))
			return
		}
		c.Error(err)
		return
	}

	created, err := s.repo.CreateMentorshipRequest(userID, req.MentorID, strings.TrimSpace(req.Message))
	if err != nil {
		if errors.Is(err, database.ErrDuplicateRequest) {
			c.Error(apperrors.NewConflictError("a pending request toward this mentor already exists"))
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleListMentorshipRequests(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	requests, err := s.repo.ListMentorshipRequests(userID)
	if err != nil {
		c.Error(err)
		return
	}
	if requests == nil {
		requests = []database.MentorshipRequest{}
	}
	c.JSON(http.StatusOK, requests)
}

type mentorshipDecisionPayload struct {
	Status string `json:"status" binding:"required,oneof=accepted rejected"`
}

func (s *Server) handleUpdateMentorshipRequest(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperrors.NewValidationError("request id must be a number", err))
		return
	}

	var req mentorshipDecisionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("status must be accepted or rejected", err))
		return
	}

	updated, err := s.repo.UpdateMentorshipRequestStatus(requestID, userID, req.Status)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Error(apperrors.NewNotFoundError("no pending request you can decide was found"))
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	dbStatus := "ok"
	if err := s.db.Ping(); err != nil {
		dbStatus = "unreachable"
	}

	status := http.StatusOK
	overall := "ok"
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"timestamp": time.Now().Format(time.RFC3339),
		"database":  dbStatus,
		"artifacts": s.sources,
		"pool":      s.db.GetPoolStats(),
		"cache":     s.cache.Stats(),
		"metrics":   s.metrics.GetStats(),
	})
}

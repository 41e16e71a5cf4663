package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yetria/guidance/internal/artifacts"
	"github.com/yetria/guidance/internal/auth"
	"github.com/yetria/guidance/internal/cache"
	"github.com/yetria/guidance/internal/config"
	"github.com/yetria/guidance/internal/database"
	apperrors "github.com/yetria/guidance/internal/errors"
	"github.com/yetria/guidance/internal/monitoring"
	"github.com/yetria/guidance/internal/predict"
	"github.com/yetria/guidance/internal/privacy"
	"github.com/yetria/guidance/internal/security"
)

// Predictor runs the career prediction pipeline over aggregated competency
// scores.
type Predictor interface {
	Predict(userScores map[string]any) (*predict.Result, error)
}

// Server wires repositories, the prediction engine and the middleware chain
// into a gin router.
type Server struct {
	cfg      *config.Config
	db       *database.DB
	repo     *database.Repository
	engine   Predictor
	authSvc  *auth.Service
	privacy  *privacy.PrivacyService
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	cache    *cache.Cache
	sources  artifacts.BundleSources
	security *security.SecurityMiddleware
}

// New assembles a server from its dependencies.
func New(cfg *config.Config, db *database.DB, engine Predictor, authSvc *auth.Service, sources artifacts.BundleSources, logger *monitoring.Logger) *Server {
	repo := database.NewRepository(db)
	metrics := monitoring.NewMetrics()

	secCfg := security.DefaultSecurityConfig()
	secCfg.MaxRequestsPerMin = cfg.RequestsPerMinute
	secCfg.AllowedOrigins = cfg.AllowedOrigins
	secCfg.RequestTimeout = cfg.RequestTimeout

	sec := security.NewSecurityMiddleware(secCfg, metrics)
	sec.Cleanup()

	return &Server{
		cfg:      cfg,
		db:       db,
		repo:     repo,
		engine:   engine,
		authSvc:  authSvc,
		privacy:  privacy.NewService(repo),
		metrics:  metrics,
		logger:   logger,
		cache:    cache.NewCache(cfg.CacheTTL),
		sources:  sources,
		security: sec,
	}
}

// Metrics exposes the metrics registry for monitors started in main.
func (s *Server) Metrics() *monitoring.Metrics {
	return s.metrics
}

// Router builds the gin engine with the full middleware chain and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	corsCfg := cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(security.SecurityHeadersMiddleware())
	r.Use(cors.New(corsCfg))
	r.Use(s.security.RateLimitByIP)
	r.Use(s.security.ValidateContentType)
	r.Use(s.security.RequestTimeout)
	r.Use(apperrors.ErrorHandler())

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", s.handleRegister)
			authGroup.POST("/login", s.handleLogin)
		}

		protected := api.Group("")
		protected.Use(auth.Middleware(s.authSvc))
		{
			protected.GET("/users/me", s.handleGetProfile)
			protected.PUT("/users/me", s.handleUpdateProfile)
			protected.DELETE("/users/me", s.handleDeleteAccount)
			protected.GET("/users/me/export", s.handleExportAccount)

			protected.GET("/scenarios", s.cache.Middleware(s.metrics, "/api/scenarios"), s.handleListScenarios)

			protected.POST("/responses", s.handleSubmitResponses)
			protected.GET("/responses/progress", s.handleProgress)
			protected.GET("/responses/result", s.handleRecomputeResult)
			protected.GET("/assessment-result", s.handleAssessmentResult)
			protected.GET("/assessment-status", s.handleAssessmentStatus)

			protected.GET("/courses", s.cache.Middleware(s.metrics, "/api/courses"), s.handleListCourses)
			protected.GET("/courses/recommendations", s.handleCourseRecommendations)
			protected.GET("/courses/by-keywords", s.handleCoursesByKeywords)

			protected.GET("/mentors/recommend", s.handleRecommendMentors)
			protected.POST("/mentorship/requests", s.handleCreateMentorshipRequest)
			protected.GET("/mentorship/requests", s.handleListMentorshipRequests)
			protected.PUT("/mentorship/requests/:id", s.handleUpdateMentorshipRequest)
		}
	}

	return r
}

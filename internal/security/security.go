package security

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yetria/guidance/internal/monitoring"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxRequestsPerMin int           `json:"max_requests_per_min"`
	AllowedOrigins    []string      `json:"allowed_origins"`
	TrustedProxies    []string      `json:"trusted_proxies"`
	RequestTimeout    time.Duration `json:"request_timeout"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxRequestsPerMin: 120,
		AllowedOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
		TrustedProxies:    []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		RequestTimeout:    30 * time.Second,
	}
}

// SecurityMiddleware provides rate limiting, security headers and request
// timeouts for the API.
type SecurityMiddleware struct {
	config  SecurityConfig
	metrics *monitoring.Metrics

	mu         sync.Mutex
	ipLimiters map[string]*ipLimiter
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig, metrics *monitoring.Metrics) *SecurityMiddleware {
	if config.MaxRequestsPerMin <= 0 {
		config.MaxRequestsPerMin = DefaultSecurityConfig().MaxRequestsPerMin
	}
	return &SecurityMiddleware{
		config:     config,
		metrics:    metrics,
		ipLimiters: make(map[string]*ipLimiter),
	}
}

// RateLimitByIP implements per-IP rate limiting
func (sm *SecurityMiddleware) RateLimitByIP(c *gin.Context) {
	clientIP := c.ClientIP()

	sm.mu.Lock()
	entry, exists := sm.ipLimiters[clientIP]
	if !exists {
		rps := rate.Limit(float64(sm.config.MaxRequestsPerMin) / 60.0)
		burst := sm.config.MaxRequestsPerMin / 2
		if burst < 5 {
			burst = 5
		}
		entry = &ipLimiter{limiter: rate.NewLimiter(rps, burst)}
		sm.ipLimiters[clientIP] = entry
	}
	entry.lastSeen = time.Now()
	limiter := entry.limiter
	sm.mu.Unlock()

	if !limiter.Allow() {
		if sm.metrics != nil {
			sm.metrics.IncrementRateLimitBlock(c.FullPath())
		}
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"retry_after": "60",
		})
		c.Abort()
		return
	}

	c.Next()
}

// ValidateContentType validates request content type
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	contentType := c.GetHeader("Content-Type")

	allowedTypes := []string{
		"application/json",
		"application/x-www-form-urlencoded",
	}

	if contentType != "" && c.Request.Method != http.MethodGet {
		found := false
		for _, allowed := range allowedTypes {
			if strings.Contains(strings.ToLower(contentType), allowed) {
				found = true
				break
			}
		}

		if !found {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{
				"error": "unsupported content type",
			})
			c.Abort()
			return
		}
	}

	c.Next()
}

// RequestTimeout enforces request timeout
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// Cleanup periodically removes rate limiters for IPs not seen lately.
func (sm *SecurityMiddleware) Cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for range ticker.C {
			sm.cleanupOldLimiters(1 * time.Hour)
		}
	}()
}

func (sm *SecurityMiddleware) cleanupOldLimiters(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)

	sm.mu.Lock()
	defer sm.mu.Unlock()
	for ip, entry := range sm.ipLimiters {
		if entry.lastSeen.Before(cutoff) {
			delete(sm.ipLimiters, ip)
		}
	}
}

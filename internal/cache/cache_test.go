package cache

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/yetria/guidance/internal/monitoring"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)

	_, found := c.Get("missing")
	assert.False(t, found)

	c.Set("key", []byte("value"))
	data, found := c.Get("key")
	assert.True(t, found)
	assert.Equal(t, []byte("value"), data)

	c.Delete("key")
	_, found = c.Get("key")
	assert.False(t, found)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Set("key", []byte("value"))

	time.Sleep(20 * time.Millisecond)
	_, found := c.Get("key")
	assert.False(t, found)
}

func TestCacheStats(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	stats := c.Stats()
	assert.Equal(t, 2, stats["total_items"])
	assert.Equal(t, 2, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestMiddlewareCachesListings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := NewCache(time.Minute)
	metrics := monitoring.NewMetrics()

	var handlerCalls int64
	r := gin.New()
	r.Use(c.Middleware(metrics, "/api/scenarios"))
	r.GET("/api/scenarios", func(ctx *gin.Context) {
		atomic.AddInt64(&handlerCalls, 1)
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/api/responses", func(ctx *gin.Context) {
		atomic.AddInt64(&handlerCalls, 1)
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	get := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", target, nil)
		r.ServeHTTP(w, req)
		return w
	}

	first := get("/api/scenarios?stage=1")
	second := get("/api/scenarios?stage=1")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int64(1), atomic.LoadInt64(&handlerCalls), "second hit served from cache")

	// A different query string is a different entry.
	get("/api/scenarios?stage=2")
	assert.Equal(t, int64(2), atomic.LoadInt64(&handlerCalls))

	// Non-matching paths bypass the cache entirely.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/responses", nil)
	r.ServeHTTP(w, req)
	req2, _ := http.NewRequest("POST", "/api/responses", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	assert.Equal(t, int64(4), atomic.LoadInt64(&handlerCalls))
}

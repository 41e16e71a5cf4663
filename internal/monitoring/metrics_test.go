package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.IncrementRequest()
	m.IncrementRequest()
	m.IncrementError()
	m.IncrementCacheHit()
	m.IncrementCacheMiss()
	m.IncrementPrediction()
	m.IncrementPredictionError()
	m.AddResponsesSaved(4)
	m.RecordRequestByStatus(200)
	m.RecordRequestByStatus(200)
	m.RecordRequestByStatus(500)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, int64(1), stats["error_count"])
	assert.Equal(t, float64(50), stats["error_rate_percent"])
	assert.Equal(t, float64(50), stats["cache_hit_rate_percent"])
	assert.Equal(t, int64(1), stats["prediction_count"])
	assert.Equal(t, int64(1), stats["prediction_errors"])
	assert.Equal(t, int64(4), stats["responses_saved"])

	dist := m.GetStatusCodeDistribution()
	assert.Equal(t, int64(2), dist[200])
	assert.Equal(t, int64(1), dist[500])
}

func TestPercentileResponseTime(t *testing.T) {
	m := NewMetrics()
	assert.Equal(t, time.Duration(0), m.GetPercentileResponseTime(95))

	for i := 1; i <= 100; i++ {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}

	p50 := m.GetPercentileResponseTime(50)
	p99 := m.GetPercentileResponseTime(99)
	assert.True(t, p50 < p99)
	assert.True(t, p99 >= 99*time.Millisecond)
}

func TestRateLimitStats(t *testing.T) {
	m := NewMetrics()
	m.IncrementRateLimitBlock("/api/responses")
	m.IncrementRateLimitBlock("/api/responses")
	m.IncrementRateLimitBlock("/api/auth/login")

	stats := m.GetRateLimitStats()
	assert.Equal(t, int64(3), stats["total_blocks"])
	blocks := stats["endpoint_blocks"].(map[string]int64)
	assert.Equal(t, int64(2), blocks["/api/responses"])
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.IncrementRequest()
	m.RecordResponseTime(time.Millisecond)
	m.RecordRequestByStatus(200)

	m.Reset()

	stats := m.GetStats()
	assert.Equal(t, int64(0), stats["total_requests"])
	assert.Empty(t, m.GetStatusCodeDistribution())
	assert.Equal(t, time.Duration(0), m.GetPercentileResponseTime(95))
}

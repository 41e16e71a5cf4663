package monitoring

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// MemoryStats is one sample of runtime memory statistics.
type MemoryStats struct {
	Alloc         uint64    `json:"alloc_bytes"`
	TotalAlloc    uint64    `json:"total_alloc_bytes"`
	Sys           uint64    `json:"sys_bytes"`
	HeapAlloc     uint64    `json:"heap_alloc_bytes"`
	HeapSys       uint64    `json:"heap_sys_bytes"`
	HeapInuse     uint64    `json:"heap_inuse_bytes"`
	GCCPUFraction float64   `json:"gc_cpu_fraction"`
	GCPauseTotal  uint64    `json:"gc_pause_total_ns"`
	NumGC         uint32    `json:"num_gc"`
	NumGoroutine  int       `json:"num_goroutine"`
	Timestamp     time.Time `json:"timestamp"`
}

// MemoryMonitor periodically samples runtime memory statistics and feeds
// them into the metrics registry so they show up on the health endpoint.
type MemoryMonitor struct {
	metrics     *Metrics
	logger      *Logger
	interval    time.Duration
	stopChannel chan struct{}
	stopOnce    sync.Once

	mutex  sync.RWMutex
	latest MemoryStats
}

// NewMemoryMonitor creates a new memory monitor
func NewMemoryMonitor(interval time.Duration, metrics *Metrics, logger *Logger) *MemoryMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &MemoryMonitor{
		metrics:     metrics,
		logger:      logger,
		interval:    interval,
		stopChannel: make(chan struct{}),
	}
}

// Start begins memory monitoring in a goroutine
func (mm *MemoryMonitor) Start() {
	go func() {
		ticker := time.NewTicker(mm.interval)
		defer ticker.Stop()

		mm.logger.SystemLogger("memory_monitoring_started", fmt.Sprintf("interval:%s", mm.interval))
		mm.collect()

		for {
			select {
			case <-ticker.C:
				mm.collect()
			case <-mm.stopChannel:
				mm.logger.SystemLogger("memory_monitoring_stopped", "")
				return
			}
		}
	}()
}

// Stop stops memory monitoring
func (mm *MemoryMonitor) Stop() {
	mm.stopOnce.Do(func() { close(mm.stopChannel) })
}

func (mm *MemoryMonitor) collect() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	sample := MemoryStats{
		Alloc:         memStats.Alloc,
		TotalAlloc:    memStats.TotalAlloc,
		Sys:           memStats.Sys,
		HeapAlloc:     memStats.HeapAlloc,
		HeapSys:       memStats.HeapSys,
		HeapInuse:     memStats.HeapInuse,
		GCCPUFraction: memStats.GCCPUFraction,
		GCPauseTotal:  memStats.PauseTotalNs,
		NumGC:         memStats.NumGC,
		NumGoroutine:  runtime.NumGoroutine(),
		Timestamp:     time.Now(),
	}

	mm.mutex.Lock()
	mm.latest = sample
	mm.mutex.Unlock()

	mm.metrics.RecordGCMetrics(
		int64(memStats.NumGC),
		int64(memStats.PauseTotalNs),
		int64(memStats.HeapAlloc),
		int64(memStats.HeapSys),
	)
}

// Latest returns the most recent sample.
func (mm *MemoryMonitor) Latest() MemoryStats {
	mm.mutex.RLock()
	defer mm.mutex.RUnlock()
	return mm.latest
}

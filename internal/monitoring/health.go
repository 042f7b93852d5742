package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/logger"
	"github.com/SID-Devu/LLM-Attention-DeepDive/internal/sysmem"
)

// HealthStatus represents the health status of the benchmark process
type HealthStatus struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    time.Duration `json:"uptime"`
	System    SystemInfo    `json:"system"`
	Bench     BenchInfo     `json:"bench"`
}

// SystemInfo contains system-level information
type SystemInfo struct {
	GoVersion      string  `json:"go_version"`
	OS             string  `json:"os"`
	Arch           string  `json:"arch"`
	NumCPU         int     `json:"num_cpu"`
	CPUFeatures    string  `json:"cpu_features"`
	TotalMemoryMB  int     `json:"total_memory_mb"`
	HeapAllocMB    int     `json:"heap_alloc_mb"`
	HeapSysMB      int     `json:"heap_sys_mb"`
	HeapUsagePct   float64 `json:"heap_usage_pct"`
	NumGoroutine   int     `json:"num_goroutine"`
	LastGCPauseMs  float64 `json:"last_gc_pause_ms"`
}

// BenchInfo summarizes benchmark activity since process start
type BenchInfo struct {
	RunsCompleted int       `json:"runs_completed"`
	LastStrategy  string    `json:"last_strategy"`
	LastLatencyMs float64   `json:"last_latency_ms"`
	LastRun       time.Time `json:"last_run"`
}

// HealthMonitor serves health and Prometheus metrics endpoints
type HealthMonitor struct {
	startTime time.Time
	server    *http.Server

	mu            sync.RWMutex
	runsCompleted int
	lastStrategy  string
	lastLatencyMs float64
	lastRun       time.Time
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{startTime: time.Now()}
}

// Handler returns the HTTP handler serving all monitoring endpoints.
func (hm *HealthMonitor) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", hm.handleHealth)
	mux.HandleFunc("/healthz", hm.handleHealth) // Kubernetes compatibility
	mux.HandleFunc("/status", hm.handleDetailedStatus)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// Start serves the monitoring endpoints on addr. It blocks until the server
// stops, so callers typically run it in a goroutine.
func (hm *HealthMonitor) Start(addr string) error {
	hm.server = &http.Server{
		Addr:         addr,
		Handler:      hm.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Log.Info("Health monitor starting", "addr", addr)
	return hm.server.ListenAndServe()
}

// Stop shuts the monitoring server down
func (hm *HealthMonitor) Stop(ctx context.Context) error {
	if hm.server != nil {
		return hm.server.Shutdown(ctx)
	}
	return nil
}

// RecordRun notes a completed benchmark run for the status endpoint.
func (hm *HealthMonitor) RecordRun(strategy string, latencyMs float64) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	hm.runsCompleted++
	hm.lastStrategy = strategy
	hm.lastLatencyMs = latencyMs
	hm.lastRun = time.Now()
}

func (hm *HealthMonitor) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (hm *HealthMonitor) handleDetailedStatus(w http.ResponseWriter, r *http.Request) {
	status := hm.getHealthStatus()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (hm *HealthMonitor) getHealthStatus() HealthStatus {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	return HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(hm.startTime),
		System:    getSystemInfo(),
		Bench: BenchInfo{
			RunsCompleted: hm.runsCompleted,
			LastStrategy:  hm.lastStrategy,
			LastLatencyMs: hm.lastLatencyMs,
			LastRun:       hm.lastRun,
		},
	}
}

func getSystemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	usagePct := 0.0
	if m.HeapSys > 0 {
		usagePct = float64(m.HeapAlloc) / float64(m.HeapSys) * 100
	}

	return SystemInfo{
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		NumCPU:        runtime.NumCPU(),
		CPUFeatures:   strings.Join(sysmem.CPUSummary(), ","),
		TotalMemoryMB: int(sysmem.Total() / 1024 / 1024),
		HeapAllocMB:   int(m.HeapAlloc / 1024 / 1024),
		HeapSysMB:     int(m.HeapSys / 1024 / 1024),
		HeapUsagePct:  usagePct,
		NumGoroutine:  runtime.NumGoroutine(),
		LastGCPauseMs: float64(m.PauseNs[(m.NumGC+255)%256]) / 1e6,
	}
}

// Package health tracks liveness information for the relay process and
// builds the /health response body.
package health

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Status represents the health status of a component
type Status string

const (
	StatusOK        Status = "ok"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ComponentHealth represents the health status of a single component
type ComponentHealth struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// ProcessStats carries process-level resource usage
type ProcessStats struct {
	CPUPercent float64 `json:"cpu_percent"`
	RSSMB      uint64  `json:"rss_mb"`
}

// RelayHealth is the /health response body. The first five fields are the
// stable contract consumed by external monitors; the rest is diagnostic detail.
type RelayHealth struct {
	Status           Status            `json:"status"`
	Message          string            `json:"message"`
	Timestamp        int64             `json:"timestamp"`
	ConnectedClients int               `json:"connected_clients"`
	ConnectedAgents  int               `json:"connected_agents"`
	UptimeSeconds    int64             `json:"uptime_seconds"`
	Goroutines       int               `json:"goroutines"`
	MemoryMB         uint64            `json:"memory_mb"`
	Process          *ProcessStats     `json:"process,omitempty"`
	Components       []ComponentHealth `json:"components,omitempty"`
}

// Monitor tracks server health metrics
type Monitor struct {
	startTime  time.Time
	mu         sync.RWMutex
	components map[string]*ComponentHealth
	proc       *process.Process
}

// NewMonitor creates a new health monitor
func NewMonitor() *Monitor {
	// Process handle is optional; health still works without resource detail
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &Monitor{
		startTime:  time.Now(),
		components: make(map[string]*ComponentHealth),
		proc:       proc,
	}
}

// SetComponentStatus updates the status of a component
func (m *Monitor) SetComponentStatus(name string, status Status, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[name] = &ComponentHealth{
		Name:        name,
		Status:      status,
		Description: description,
		LastChecked: time.Now(),
	}
}

// GetHealth returns the current relay health for the given connection counts
func (m *Monitor) GetHealth(connectedClients, connectedAgents int) *RelayHealth {
	m.mu.RLock()
	components := make([]ComponentHealth, 0, len(m.components))
	overall := StatusOK
	message := "Server is running."
	for _, comp := range m.components {
		components = append(components, *comp)
		if comp.Status == StatusUnhealthy {
			overall = StatusDegraded
			message = "Server is running, but " + comp.Name + " is unhealthy."
		} else if comp.Status == StatusDegraded && overall == StatusOK {
			overall = StatusDegraded
			message = "Server is running, but " + comp.Name + " is degraded."
		}
	}
	m.mu.RUnlock()

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	return &RelayHealth{
		Status:           overall,
		Message:          message,
		Timestamp:        time.Now().Unix(),
		ConnectedClients: connectedClients,
		ConnectedAgents:  connectedAgents,
		UptimeSeconds:    int64(time.Since(m.startTime).Seconds()),
		Goroutines:       runtime.NumGoroutine(),
		MemoryMB:         stats.Alloc / 1024 / 1024,
		Process:          m.processStats(),
		Components:       components,
	}
}

// processStats reads CPU and RSS for this process; nil when unavailable
func (m *Monitor) processStats() *ProcessStats {
	if m.proc == nil {
		return nil
	}

	stats := &ProcessStats{}
	if cpu, err := m.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	if mem, err := m.proc.MemoryInfo(); err == nil && mem != nil {
		stats.RSSMB = mem.RSS / 1024 / 1024
	}
	return stats
}

package metrics

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthStatus represents the health of one component.
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "degraded", "unhealthy"
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// HealthReport represents the overall health report.
type HealthReport struct {
	Status     string                  `json:"status"`
	Timestamp  time.Time               `json:"timestamp"`
	Components map[string]HealthStatus `json:"components"`
	SystemInfo map[string]interface{}  `json:"system_info"`
}

// HealthCheck is one component probe.
type HealthCheck func() HealthStatus

// HealthChecker aggregates registered component checks plus system resource
// readings into one report.
type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

// NewHealthChecker creates an empty health checker.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checks: make(map[string]HealthCheck)}
}

// RegisterCheck adds a named component check.
func (h *HealthChecker) RegisterCheck(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Report runs every registered check and samples system resources.
func (h *HealthChecker) Report() HealthReport {
	h.mu.RLock()
	checks := make(map[string]HealthCheck, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()

	report := HealthReport{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]HealthStatus, len(checks)),
		SystemInfo: systemInfo(),
	}

	for name, check := range checks {
		status := check()
		report.Components[name] = status
		switch status.Status {
		case "unhealthy":
			report.Status = "unhealthy"
		case "degraded":
			if report.Status == "healthy" {
				report.Status = "degraded"
			}
		}
	}

	return report
}

// Healthy is a convenience HealthStatus constructor.
func Healthy(message string) HealthStatus {
	return HealthStatus{Status: "healthy", Message: message, Timestamp: time.Now().UTC()}
}

// Unhealthy is a convenience HealthStatus constructor.
func Unhealthy(message string) HealthStatus {
	return HealthStatus{Status: "unhealthy", Message: message, Timestamp: time.Now().UTC()}
}

func systemInfo() map[string]interface{} {
	info := make(map[string]interface{})

	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		info["cpu_percent"] = percentages[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info["memory_percent"] = vm.UsedPercent
	}
	if usage, err := disk.Usage("/"); err == nil {
		info["disk_percent"] = usage.UsedPercent
	}

	return info
}

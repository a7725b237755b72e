// Package diagnostics assembles privacy-scrubbed support bundles for
// troubleshooting FloraCast-Go installations. A bundle carries system
// facts, the redacted configuration, per-domain artifact status and a
// recent log tail, packaged as a zip archive by the support command.
package diagnostics

import (
	"time"
)

// Bundle is a collection of support data gathered from one installation.
// Sensitive configuration values are redacted before the bundle leaves
// the collector.
type Bundle struct {
	ID         string           `json:"id"`
	Timestamp  time.Time        `json:"timestamp"`
	SystemID   string           `json:"system_id"`
	Version    string           `json:"version"`
	SystemInfo SystemInfo       `json:"system_info"`
	Config     map[string]any   `json:"config,omitempty"`
	Artifacts  []ArtifactStatus `json:"artifacts,omitempty"`
	Logs       []LogEntry       `json:"logs,omitempty"`
}

// SystemInfo describes the host environment. Collection degrades
// gracefully, fields stay at their zero value when the platform probe
// fails. The hostname is deliberately not part of the bundle.
type SystemInfo struct {
	OS              string      `json:"os"`
	Architecture    string      `json:"architecture"`
	GoVersion       string      `json:"go_version"`
	NumCPU          int         `json:"num_cpu"`
	CPUModel        string      `json:"cpu_model,omitempty"`
	Platform        string      `json:"platform,omitempty"`
	PlatformVersion string      `json:"platform_version,omitempty"`
	KernelVersion   string      `json:"kernel_version,omitempty"`
	UptimeSeconds   uint64      `json:"uptime_seconds,omitempty"`
	Container       bool        `json:"container"`
	MemoryTotal     uint64      `json:"memory_total,omitempty"`
	MemoryUsed      uint64      `json:"memory_used,omitempty"`
	MemoryUsedPerc  float64     `json:"memory_used_percent,omitempty"`
	Disks           []DiskUsage `json:"disks,omitempty"`
}

// DiskUsage holds usage statistics for one real filesystem mount.
type DiskUsage struct {
	Mountpoint string  `json:"mountpoint"`
	Fstype     string  `json:"fstype"`
	Total      uint64  `json:"total"`
	Used       uint64  `json:"used"`
	Free       uint64  `json:"free"`
	UsedPerc   float64 `json:"used_percent"`
}

// ArtifactStatus reports the on-disk state of one domain's artifact set.
// Files maps each expected artifact file name to its size in bytes, -1
// when the file is absent.
type ArtifactStatus struct {
	Domain       string           `json:"domain"`
	Dir          string           `json:"dir"`
	Files        map[string]int64 `json:"files"`
	ModelVersion string           `json:"model_version,omitempty"`
	TrainedAt    string           `json:"trained_at,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// LogEntry is a single parsed line from the application log files.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
}

// Options selects which data a Collect call gathers.
type Options struct {
	IncludeLogs       bool          `json:"include_logs"`
	IncludeConfig     bool          `json:"include_config"`
	IncludeSystemInfo bool          `json:"include_system_info"`
	IncludeArtifacts  bool          `json:"include_artifacts"`
	LogDuration       time.Duration `json:"log_duration"`
	MaxLogSize        int64         `json:"max_log_size"`
	ScrubSensitive    bool          `json:"scrub_sensitive"`
}

// DefaultOptions returns collector options that include every section,
// keep three days of logs capped at 10MB and scrub sensitive values.
func DefaultOptions() Options {
	return Options{
		IncludeLogs:       true,
		IncludeConfig:     true,
		IncludeSystemInfo: true,
		IncludeArtifacts:  true,
		LogDuration:       72 * time.Hour,
		MaxLogSize:        10 * 1024 * 1024,
		ScrubSensitive:    true,
	}
}

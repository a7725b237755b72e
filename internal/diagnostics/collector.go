package diagnostics

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"gopkg.in/yaml.v3"

	"github.com/mgarzon/floracast-go/internal/artifact"
	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/errors"
)

// Collector gathers support data for one installation.
type Collector struct {
	settings *conf.Settings
}

// NewCollector creates a support data collector bound to the given settings.
func NewCollector(settings *conf.Settings) *Collector {
	return &Collector{settings: settings}
}

// Collect gathers the sections selected in opts into a Bundle.
func (c *Collector) Collect(ctx context.Context, opts Options) (*Bundle, error) {
	if !opts.IncludeLogs && !opts.IncludeConfig && !opts.IncludeSystemInfo && !opts.IncludeArtifacts {
		return nil, errors.Newf("at least one data type must be included in a support bundle").
			Component("diagnostics").
			Category(errors.CategoryValidation).
			Context("operation", "validate_collect_options").
			Build()
	}

	bundle := &Bundle{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		SystemID:  c.settings.SystemID,
		Version:   c.settings.Version,
	}

	if opts.IncludeSystemInfo {
		bundle.SystemInfo = collectSystemInfo(ctx)
	}

	if opts.IncludeConfig {
		config, err := c.collectConfig(opts.ScrubSensitive)
		if err != nil {
			return nil, errors.New(err).
				Component("diagnostics").
				Category(errors.CategoryConfiguration).
				Context("operation", "collect_config").
				Context("scrub_sensitive", opts.ScrubSensitive).
				Build()
		}
		bundle.Config = config
	}

	if opts.IncludeArtifacts {
		bundle.Artifacts = c.collectArtifacts()
	}

	if opts.IncludeLogs {
		bundle.Logs = c.collectLogs(opts.LogDuration, opts.MaxLogSize)
	}

	return bundle, nil
}

// collectSystemInfo gathers host facts. Probe failures leave the
// corresponding fields at their zero value, a partial bundle is more
// useful than none.
func collectSystemInfo(ctx context.Context) SystemInfo {
	info := SystemInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		Container:    conf.RunningInContainer(),
	}

	if hostInfo, err := host.InfoWithContext(ctx); err == nil {
		info.Platform = hostInfo.Platform
		info.PlatformVersion = hostInfo.PlatformVersion
		info.KernelVersion = hostInfo.KernelVersion
		info.UptimeSeconds = hostInfo.Uptime
	}

	if cpuInfo, err := cpu.InfoWithContext(ctx); err == nil && len(cpuInfo) > 0 {
		info.CPUModel = cpuInfo[0].ModelName
	}

	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemoryTotal = memInfo.Total
		info.MemoryUsed = memInfo.Used
		info.MemoryUsedPerc = memInfo.UsedPercent
	}

	info.Disks = collectDiskUsage(ctx)

	return info
}

// collectDiskUsage reports usage for real filesystem mounts, skipping
// virtual and pseudo filesystems.
func collectDiskUsage(ctx context.Context) []DiskUsage {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil
	}

	var disks []DiskUsage
	for _, partition := range partitions {
		if skipFilesystem(partition.Fstype) {
			continue
		}
		usage, err := disk.UsageWithContext(ctx, partition.Mountpoint)
		if err != nil {
			continue
		}
		disks = append(disks, DiskUsage{
			Mountpoint: partition.Mountpoint,
			Fstype:     partition.Fstype,
			Total:      usage.Total,
			Used:       usage.Used,
			Free:       usage.Free,
			UsedPerc:   usage.UsedPercent,
		})
	}
	return disks
}

// skipFilesystem reports whether a filesystem type is virtual and should
// be left out of disk usage reporting.
func skipFilesystem(fstype string) bool {
	switch fstype {
	case "tmpfs", "devtmpfs", "devfs", "overlay", "squashfs", "autofs", "ramfs", "aufs":
		return true
	}
	for _, prefix := range []string{"fuse", "cgroup", "proc", "sys", "dev"} {
		if strings.HasPrefix(fstype, prefix) {
			return true
		}
	}
	return false
}

// collectConfig loads the active configuration file and optionally scrubs
// sensitive values.
func (c *Collector) collectConfig(scrub bool) (map[string]any, error) {
	configPath, err := conf.FindConfigFile()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path comes from the app config search
	if err != nil {
		return nil, err
	}

	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if scrub {
		config = scrubConfig(config)
	}

	return config, nil
}

// sensitiveKeys are redacted from the collected configuration. Matching
// is by substring on the lowercased key, so "syncurl" and "dsn" are
// covered without naming every variant.
var sensitiveKeys = []string{
	"password", "token", "secret", "key", "apikey", "api_key",
	"dsn", "username", "user", "webhook", "broker", "url", "credential",
}

// scrubConfig redacts sensitive values from a parsed configuration tree.
func scrubConfig(config map[string]any) map[string]any {
	scrubbed := make(map[string]any, len(config))
	for k, v := range config {
		scrubbed[k] = scrubValue(k, v)
	}
	return scrubbed
}

// scrubValue recursively redacts values whose key looks sensitive.
func scrubValue(key string, value any) any {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return "[REDACTED]"
		}
	}

	switch v := value.(type) {
	case map[string]any:
		scrubbed := make(map[string]any, len(v))
		for k, val := range v {
			scrubbed[k] = scrubValue(k, val)
		}
		return scrubbed
	case []any:
		scrubbed := make([]any, len(v))
		for i, item := range v {
			scrubbed[i] = scrubValue(key, item)
		}
		return scrubbed
	default:
		return value
	}
}

// collectArtifacts reports the on-disk artifact state for every
// configured domain. Missing files are recorded with size -1 rather than
// failing, an incomplete artifact set is exactly what a support bundle
// needs to show.
func (c *Collector) collectArtifacts() []ArtifactStatus {
	names := c.settings.DomainNames()
	statuses := make([]ArtifactStatus, 0, len(names))

	for _, name := range names {
		dc, _ := c.settings.Domain(name)
		status := ArtifactStatus{
			Domain: name,
			Dir:    dc.ArtifactDir,
			Files:  make(map[string]int64, 3),
		}

		for _, file := range []string{artifact.RegressorFile, artifact.EncodersFile, artifact.MetadataFile} {
			info, err := os.Stat(filepath.Join(dc.ArtifactDir, file))
			if err != nil {
				status.Files[file] = -1
				continue
			}
			status.Files[file] = info.Size()
		}

		metaPath := filepath.Join(dc.ArtifactDir, artifact.MetadataFile)
		if data, err := os.ReadFile(metaPath); err == nil { //nolint:gosec // G304: path is under the configured artifact dir
			meta, err := artifact.ParseMetadata(data)
			if err != nil {
				status.Error = err.Error()
			} else {
				status.ModelVersion = meta.ModelVersion
				status.TrainedAt = meta.TrainedAt
			}
		}

		statuses = append(statuses, status)
	}

	return statuses
}

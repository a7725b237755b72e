package diagnostics

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mgarzon/floracast-go/internal/conf"
)

// collectLogs gathers recent entries from the application log files. The
// logging package writes rotated files under a "logs" directory next to
// the working directory, older installations may keep them next to the
// config file. Unreadable paths are skipped.
func (c *Collector) collectLogs(duration time.Duration, maxSize int64) []LogEntry {
	logDirs := []string{"logs"}
	if configPath, err := conf.FindConfigFile(); err == nil {
		logDirs = append(logDirs, filepath.Join(filepath.Dir(configPath), "logs"))
	}

	cutoff := time.Now().Add(-duration)
	var logs []LogEntry
	var totalSize int64

	for _, dir := range logDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
				continue
			}
			fileLogs, size := parseLogFile(filepath.Join(dir, entry.Name()), cutoff, maxSize-totalSize)
			logs = append(logs, fileLogs...)
			totalSize += size
			if totalSize >= maxSize {
				break
			}
		}
		if totalSize >= maxSize {
			break
		}
	}

	sortLogsByTime(logs)
	return logs
}

// parseLogFile extracts entries newer than the cutoff from one log file,
// reading at most maxSize bytes. It returns the parsed entries and the
// number of bytes consumed.
func parseLogFile(path string, cutoff time.Time, maxSize int64) ([]LogEntry, int64) {
	file, err := os.Open(path) //nolint:gosec // G304: path was discovered under a known logs dir
	if err != nil {
		return nil, 0
	}
	defer func() { _ = file.Close() }()

	source := strings.TrimSuffix(filepath.Base(path), ".log")

	var logs []LogEntry
	var totalSize int64

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		totalSize += int64(len(line))
		if totalSize > maxSize {
			break
		}

		entry := parseLogLine(line)
		if entry == nil || !entry.Timestamp.After(cutoff) {
			continue
		}
		if entry.Source == "" {
			entry.Source = source
		}
		logs = append(logs, *entry)
	}

	return logs, totalSize
}

// parseLogLine parses one log line. The primary format is the JSON slog
// output of the logging package, the fallback is the plain text form
// "2006-01-02 15:04:05 [LEVEL] message". Unparseable lines yield nil.
func parseLogLine(line string) *LogEntry {
	var jsonLog map[string]any
	if err := json.Unmarshal([]byte(line), &jsonLog); err == nil {
		entry := &LogEntry{}
		if timeStr, ok := jsonLog["time"].(string); ok {
			if t, err := time.Parse(time.RFC3339, timeStr); err == nil {
				entry.Timestamp = t
			}
		}
		if level, ok := jsonLog["level"].(string); ok {
			entry.Level = strings.ToUpper(level)
		}
		if msg, ok := jsonLog["msg"].(string); ok {
			entry.Message = msg
		}
		if service, ok := jsonLog["service"].(string); ok {
			entry.Source = service
		}
		if entry.Message != "" {
			return entry
		}
		return nil
	}

	parts := strings.SplitN(line, " ", 4)
	if len(parts) < 4 {
		return nil
	}
	timestamp, err := time.Parse(time.DateTime, parts[0]+" "+parts[1])
	if err != nil {
		return nil
	}

	return &LogEntry{
		Timestamp: timestamp,
		Level:     strings.Trim(parts[2], "[]"),
		Message:   parts[3],
	}
}

// sortLogsByTime orders entries oldest first.
func sortLogsByTime(logs []LogEntry) {
	slices.SortFunc(logs, func(a, b LogEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

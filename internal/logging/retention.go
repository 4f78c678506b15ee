package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// RetentionTarget names a directory and the run log files in it that may be
// pruned. Pattern uses glob syntax; an empty pattern matches every file.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs removes files matching targets that were last modified
// more than retentionDays ago and returns how many were removed. Zero or
// negative retention keeps everything.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	keep := excludedPaths(targets)

	removed := 0
	for _, target := range targets {
		for _, path := range expiredFiles(target, cutoff) {
			if _, ok := keep[path]; ok {
				continue
			}
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
					String(FieldPath, path),
					Error(err),
					String(FieldErrorHint, "check permissions on log_dir"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			removed++
			if logger != nil {
				logger.Debug("log pruned", String(FieldPath, path), String(FieldEventType, "log_pruned"))
			}
		}
	}
	return removed
}

func excludedPaths(targets []RetentionTarget) map[string]struct{} {
	out := make(map[string]struct{})
	for _, target := range targets {
		for _, path := range target.Exclude {
			if abs, err := filepath.Abs(strings.TrimSpace(path)); err == nil {
				out[abs] = struct{}{}
			}
		}
	}
	return out
}

// expiredFiles lists absolute paths in target.Dir older than cutoff. An
// unreadable directory or an invalid pattern yields nothing.
func expiredFiles(target RetentionTarget, cutoff time.Time) []string {
	dir := strings.TrimSpace(target.Dir)
	if dir == "" {
		return nil
	}
	var matcher glob.Glob
	if pattern := strings.TrimSpace(target.Pattern); pattern != "" {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil
		}
		matcher = g
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() || (matcher != nil && !matcher.Match(entry.Name())) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		out = append(out, path)
	}
	return out
}

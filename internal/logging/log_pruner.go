package logging

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// The desktop log directory holds one active lumberjack file plus the
// rotated backups it leaves behind. The pruner deletes backups oldest-first
// whenever the directory exceeds its byte budget; the active desktop.log is
// never a candidate.

const logPruneInterval = 5 * time.Minute

var logPrunerCancel context.CancelFunc

func startLogPrunerLocked(logDir string, maxTotalSizeMB int, activePath string) {
	stopLogPrunerLocked()

	dir := strings.TrimSpace(logDir)
	if dir == "" || maxTotalSizeMB <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	logPrunerCancel = cancel
	go runLogPruner(ctx, filepath.Clean(dir), int64(maxTotalSizeMB)*1024*1024, strings.TrimSpace(activePath))
}

func stopLogPrunerLocked() {
	if logPrunerCancel != nil {
		logPrunerCancel()
		logPrunerCancel = nil
	}
}

func runLogPruner(ctx context.Context, logDir string, maxBytes int64, activePath string) {
	ticker := time.NewTicker(logPruneInterval)
	defer ticker.Stop()

	for {
		deleted, err := pruneLogDir(logDir, maxBytes, activePath)
		switch {
		case err != nil:
			log.WithError(err).Warn("logging: failed to prune desktop log directory")
		case deleted > 0:
			log.Debugf("logging: pruned %d rotated log file(s)", deleted)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// pruneLogDir deletes rotated log files oldest-first until the directory
// fits maxBytes. The active file counts toward the total but is never
// deleted, so a directory whose active file alone exceeds the budget stays
// over it until lumberjack rotates.
func pruneLogDir(logDir string, maxBytes int64, activePath string) (int, error) {
	if maxBytes <= 0 || strings.TrimSpace(logDir) == "" {
		return 0, nil
	}

	entries, err := os.ReadDir(filepath.Clean(logDir))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	active := ""
	if strings.TrimSpace(activePath) != "" {
		active = filepath.Clean(activePath)
	}

	type backup struct {
		path    string
		size    int64
		modTime time.Time
	}
	var candidates []backup
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || !rotatedLogName(entry.Name()) {
			continue
		}
		info, errInfo := entry.Info()
		if errInfo != nil || !info.Mode().IsRegular() {
			continue
		}
		total += info.Size()
		path := filepath.Join(logDir, entry.Name())
		if active != "" && filepath.Clean(path) == active {
			continue
		}
		candidates = append(candidates, backup{path: path, size: info.Size(), modTime: info.ModTime()})
	}

	if total <= maxBytes {
		return 0, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime.Before(candidates[j].modTime)
	})

	deleted := 0
	for _, file := range candidates {
		if total <= maxBytes {
			break
		}
		if errRemove := os.Remove(file.path); errRemove != nil {
			log.WithError(errRemove).Warnf("logging: failed to remove rotated log file: %s", filepath.Base(file.path))
			continue
		}
		total -= file.size
		deleted++
	}
	return deleted, nil
}

// rotatedLogName matches lumberjack output: the active .log file and the
// .log / .log.gz backups it rotates out. Anything else in the directory is
// not ours to delete.
func rotatedLogName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return false
	}
	return strings.HasSuffix(lower, ".log") || strings.HasSuffix(lower, ".log.gz")
}

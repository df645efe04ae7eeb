package discovery

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Filename suffix conventions for handler files.
const (
	// JobSuffix marks dispatchable job files, e.g. send_email_job.go.
	JobSuffix = "_job.go"
	// CronSuffix marks cron files, e.g. daily_cleanup_cron.go.
	CronSuffix = "_cron.go"
)

// Scanner walks a directory tree for candidate handler files. Every Scan
// rereads from disk; nothing is cached between calls.
type Scanner struct {
	logger *slog.Logger
}

// NewScanner creates a Scanner. A nil logger falls back to slog.Default.
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// Scan returns all files under root whose name ends in suffix, in
// traversal order, recursing to unbounded depth. Test files are never
// candidates.
//
// A missing root is not an error: the directory convention is optional, so
// Scan returns an empty slice. Unreadable subtrees are logged as warnings
// and contribute no paths without aborting sibling subtrees.
func (s *Scanner) Scan(root, suffix string) []string {
	return s.scanDir(root, suffix, true)
}

func (s *Scanner) scanDir(dir, suffix string, isRoot bool) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if isRoot && os.IsNotExist(err) {
			return nil
		}
		s.logger.Warn("skipping unreadable directory",
			slog.String("dir", dir),
			slog.String("error", err.Error()),
		)
		return nil
	}

	var paths []string
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			paths = append(paths, s.scanDir(full, suffix, false)...)
			continue
		}
		if matches(entry.Name(), suffix) {
			paths = append(paths, full)
		}
	}
	return paths
}

func matches(name, suffix string) bool {
	return strings.HasSuffix(name, suffix) && !strings.HasSuffix(name, "_test.go")
}

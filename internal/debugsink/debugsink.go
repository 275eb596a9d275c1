package debugsink

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sink archives problem pages (blocked, empty, unrecognized) to disk so
// selector drift and new block pages can be diagnosed offline. Disabled
// sinks accept every call and do nothing.
type Sink struct {
	dir     string
	enabled bool
	logger  *slog.Logger
}

func New(dir string, enabled bool) *Sink {
	return &Sink{
		dir:     dir,
		enabled: enabled,
		logger:  slog.Default().With("component", "debugsink"),
	}
}

// SavePage writes the body under a timestamped name built from the label.
// Failures are logged, never propagated: diagnostics must not break a crawl.
func (s *Sink) SavePage(content, label string) {
	if s == nil || !s.enabled {
		return
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Warn("failed to create debug directory", "dir", s.dir, "error", err)
		return
	}

	name := fmt.Sprintf("%s_%s.html", sanitizeLabel(label), time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		s.logger.Warn("failed to save debug page", "path", path, "error", err)
		return
	}

	s.logger.Info("saved debug page", "path", path, "bytes", len(content))
}

func sanitizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return "page"
	}

	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

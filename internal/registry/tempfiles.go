package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TempFileManager is a per-runtime tracker of download-created temp files
// (spec.md §3/§4.4). Dropping the manager (Close) deletes every tracked
// file, best-effort; failures are logged by the caller, never surfaced.
type TempFileManager struct {
	baseDir string
	logf    func(format string, args ...any)

	mu    sync.Mutex
	paths []string
}

// NewTempFileManager creates a manager rooted at baseDir. logf receives
// best-effort cleanup failures; pass nil to discard them silently.
func NewTempFileManager(baseDir string, logf func(string, ...any)) *TempFileManager {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &TempFileManager{baseDir: baseDir, logf: logf}
}

// NewFile creates and registers a new temp file named
// download_<unix-ms>_<id>.<ext>, matching spec.md §4.4.
func (m *TempFileManager) NewFile(ext string) (string, error) {
	name := fmt.Sprintf("download_%d_%s.%s", time.Now().UnixMilli(), shortID(), ext)
	path := filepath.Join(m.baseDir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	_ = f.Close()

	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.mu.Unlock()
	return path, nil
}

// Cleanup removes every tracked file, best-effort.
func (m *TempFileManager) Cleanup() {
	m.mu.Lock()
	paths := m.paths
	m.paths = nil
	m.mu.Unlock()

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			m.logf("tempfile cleanup failed for %s: %v", p, err)
		}
	}
}

// Close implements io.Closer as an alias for Cleanup.
func (m *TempFileManager) Close() error {
	m.Cleanup()
	return nil
}

func shortID() string {
	return uuid.NewString()[:8]
}

package platform

import (
	"log/slog"
	"os"
	"strings"
)

// IsDevRun checks if the current process is running via `go run` or `go test`.
// Both build their binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	return isDevBinary(exe, os.TempDir())
}

func isDevBinary(exe, tempDir string) bool {
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(tempDir)) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// sandboxed reports whether Direct worlds must be opened as copies: either
// the config asks for it, or dev safety is on and this is a dev run.
func sandboxed(cfg Config, devSafety bool, logger *slog.Logger) bool {
	if cfg.Session.Sandbox {
		return true
	}
	if devSafety && IsDevRun() {
		logger.Debug("dev run detected, direct worlds are opened as copies")
		return true
	}
	return false
}

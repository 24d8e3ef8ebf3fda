package platform

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

func TestIsDevBinary(t *testing.T) {
	t.Parallel()

	tmp := "/tmp"
	tests := []struct {
		name string
		exe  string
		want bool
	}{
		{"go run build", filepath.Join(tmp, "go-build123", "b001", "exe", "worldkit"), true},
		{"go test binary", "/home/me/src/worldkit/session.test", true},
		{"windows test binary", `C:\build\session.test.exe`, true},
		{"installed binary", "/usr/local/bin/worldkit", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDevBinary(tt.exe, tmp); got != tt.want {
				t.Errorf("isDevBinary(%q) = %v, want %v", tt.exe, got, tt.want)
			}
		})
	}
}

func TestSandboxed(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := DefaultConfig()
	cfg.Session.Sandbox = true
	if !sandboxed(cfg, false, logger) {
		t.Error("explicit sandbox must win over disabled dev safety")
	}

	// Tests always run as a dev binary.
	if !sandboxed(DefaultConfig(), true, logger) {
		t.Error("dev safety should sandbox a test run")
	}
	if sandboxed(DefaultConfig(), false, logger) {
		t.Error("no sandbox expected without dev safety")
	}
}

// Package logger sets up the daemon's slog handler, writing to a file so a
// daemonized process keeps its logs out of the terminal.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Environment variable to configure the log file path.
const envLogPath = "CACHEFRONTD_LOG"

// SetupFromEnv builds a logger using CACHEFRONTD_LOG or a default path next
// to the executable.
func SetupFromEnv() (*slog.Logger, io.Closer, error) {
	path := os.Getenv(envLogPath)
	if path == "" {
		if exePath, err := os.Executable(); err == nil {
			path = filepath.Join(filepath.Dir(exePath), "cachefrontd.log")
		} else {
			path = "./cachefrontd.log"
		}
	}
	return Setup(path)
}

// Setup opens path in append mode (creating parent directories if needed) and
// returns a text-handler slog logger writing to it, plus the closer for the
// underlying file.
func Setup(path string) (*slog.Logger, io.Closer, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	log := slog.New(slog.NewTextHandler(f, nil))
	return log, f, nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

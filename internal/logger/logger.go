// Package logger provides a thin wrapper around zerolog.Logger used
// throughout androidArchiver.
//
// The interactive console belongs to the prompt/progress UI, so the default
// logger writes JSON lines to a file next to the executable instead of
// stdout. Tests use Nop.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Logger embeds zerolog.Logger so the full zerolog API is available
// directly on *Logger.
type Logger struct {
	zerolog.Logger
}

// New constructs a *Logger writing to w with the given role label
// (e.g. "archiver").
func New(w io.Writer, role string) *Logger {
	logger := zerolog.New(w).With().
		Str("role", role).
		Timestamp().
		Logger()
	return &Logger{logger}
}

// NewFileLogger opens (or creates) an append-only log file next to the
// executable and returns a *Logger writing to it. If the file cannot be
// opened the logger falls back to stderr rather than failing the run.
func NewFileLogger(name, role string) *Logger {
	execPath, err := os.Executable()
	dir := "."
	if err == nil {
		dir = filepath.Dir(execPath)
	}

	logFile, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return New(os.Stderr, role)
	}
	return New(logFile, role)
}

// Nop returns a *Logger that discards all output. Intended for tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

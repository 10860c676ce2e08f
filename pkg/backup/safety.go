package backup

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Verdict classifies a candidate destination path.
type Verdict int

const (
	// DestinationAccepted means the path is safe to back up into.
	DestinationAccepted Verdict = iota
	// DestinationNetworkWarning means the path sits on a network volume.
	// Advisory only: correctness is unaffected, performance will suffer.
	DestinationNetworkWarning
	// DestinationRejected means the path is a protected system or user
	// directory. Non-negotiable, no override.
	DestinationRejected
)

// Validation is the outcome of validating a destination path.
type Validation struct {
	Verdict Verdict
	Reason  string
}

// criticalPaths returns the set of directories that must never be used as a
// backup destination directly: the user's home and its well-known
// subfolders, the filesystem root, and on Windows the system locations.
func criticalPaths() []string {
	paths := []string{string(filepath.Separator)}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			home,
			filepath.Join(home, "Documents"),
			filepath.Join(home, "Downloads"),
			filepath.Join(home, "Desktop"),
			filepath.Join(home, "Pictures"),
		)
	}

	if runtime.GOOS == "windows" {
		for _, v := range []string{"SystemDrive", "ProgramFiles", "ProgramFiles(x86)", "LocalAppData", "AppData", "windir"} {
			if p := os.Getenv(v); p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths
}

// ValidateDestination classifies path. Checks are ordered: protected
// locations reject unconditionally, then network volumes get an advisory
// warning, otherwise the path is accepted.
//
// Only the directory itself is protected; subdirectories of a critical
// location (e.g. ~/Documents/AndroidBackup) are fine.
func ValidateDestination(path string) Validation {
	normalized := normalizePath(path)

	for _, critical := range criticalPaths() {
		if normalized == normalizePath(critical) {
			return Validation{
				Verdict: DestinationRejected,
				Reason:  "protected system or user directory: " + path,
			}
		}
	}

	if isNetworkPath(path) {
		return Validation{
			Verdict: DestinationNetworkWarning,
			Reason:  "network volume: transfer will be slower",
		}
	}

	return Validation{Verdict: DestinationAccepted}
}

func normalizePath(path string) string {
	cleaned := filepath.Clean(path)
	if abs, err := filepath.Abs(cleaned); err == nil {
		cleaned = abs
	}
	if runtime.GOOS == "windows" {
		cleaned = strings.ToLower(cleaned)
	}
	return strings.TrimRight(cleaned, string(filepath.Separator))
}

// isNetworkPath detects UNC paths. Mounted network shares that look like
// local paths are not detected; the warning is best effort.
func isNetworkPath(path string) bool {
	return strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//")
}

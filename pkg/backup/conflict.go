package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mirbyte/androidArchiver/internal/logger"
)

// ConflictChoice is the user's decision when the destination already holds
// content.
type ConflictChoice int

const (
	// ChoiceMerge proceeds without touching existing files; the pull
	// overwrites on name collision.
	ChoiceMerge ConflictChoice = iota
	// ChoiceReplace clears the destination's contents first. The directory
	// itself survives.
	ChoiceReplace
	// ChoiceCancel aborts before any filesystem mutation.
	ChoiceCancel
)

// ConflictChooser obtains the merge/replace/cancel decision from the
// presentation layer.
type ConflictChooser interface {
	ChooseConflictAction(path string, existingEntries int) (ConflictChoice, error)
}

// Resolution is the outcome of resolving the destination directory.
type Resolution struct {
	// Proceed is false when the user cancelled.
	Proceed bool
	// CreatedNew is true when the destination directory was created by this
	// call. Threaded into TransferSession so cleanup never removes a
	// pre-existing directory.
	CreatedNew bool
}

// ResolveDestination prepares the destination directory for a transfer.
//
//   - Nonexistent: create it, CreatedNew=true.
//   - Exists and empty: treat as fresh, CreatedNew=false.
//   - Exists with content: ask the chooser. Merge leaves everything in
//     place, Replace deletes the contents (not the directory), Cancel
//     returns Proceed=false without mutating anything.
func ResolveDestination(path string, chooser ConflictChooser, log *logger.Logger) (Resolution, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return Resolution{}, fmt.Errorf("create destination %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("destination directory created")
		return Resolution{Proceed: true, CreatedNew: true}, nil
	case err != nil:
		return Resolution{}, fmt.Errorf("stat destination %s: %w", path, err)
	case !info.IsDir():
		return Resolution{}, fmt.Errorf("destination %s exists and is not a directory", path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return Resolution{}, fmt.Errorf("read destination %s: %w", path, err)
	}
	if len(entries) == 0 {
		return Resolution{Proceed: true, CreatedNew: false}, nil
	}

	choice, err := chooser.ChooseConflictAction(path, len(entries))
	if err != nil {
		return Resolution{}, err
	}

	switch choice {
	case ChoiceMerge:
		log.Info().Str("path", path).Int("entries", len(entries)).Msg("merging with existing backup")
		return Resolution{Proceed: true, CreatedNew: false}, nil
	case ChoiceReplace:
		if err := clearDirectory(path); err != nil {
			return Resolution{}, fmt.Errorf("clear destination %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("existing backup contents removed")
		return Resolution{Proceed: true, CreatedNew: false}, nil
	default:
		return Resolution{Proceed: false}, nil
	}
}

// clearDirectory removes every entry of dir, leaving dir itself in place.
func clearDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirbyte/androidArchiver/internal/logger"
)

// staticChooser always returns the configured choice.
type staticChooser struct {
	choice ConflictChoice
	asked  bool
}

func (c *staticChooser) ChooseConflictAction(string, int) (ConflictChoice, error) {
	c.asked = true
	return c.choice, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveDestinationCreatesMissingDir(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "backup")
	chooser := &staticChooser{}

	res, err := ResolveDestination(dst, chooser, logger.Nop())
	require.NoError(t, err)
	assert.True(t, res.Proceed)
	assert.True(t, res.CreatedNew)
	assert.False(t, chooser.asked, "no conflict, chooser must not be consulted")
	assert.DirExists(t, dst)
}

func TestResolveDestinationEmptyDirIsFresh(t *testing.T) {
	dst := t.TempDir()
	chooser := &staticChooser{}

	res, err := ResolveDestination(dst, chooser, logger.Nop())
	require.NoError(t, err)
	assert.True(t, res.Proceed)
	assert.False(t, res.CreatedNew)
	assert.False(t, chooser.asked)
}

func TestResolveDestinationMergeKeepsExistingFiles(t *testing.T) {
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "old.jpg"), "previous backup")

	res, err := ResolveDestination(dst, &staticChooser{choice: ChoiceMerge}, logger.Nop())
	require.NoError(t, err)
	assert.True(t, res.Proceed)
	assert.False(t, res.CreatedNew)
	assert.FileExists(t, filepath.Join(dst, "old.jpg"))
}

func TestResolveDestinationMergeIsIdempotent(t *testing.T) {
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "old.jpg"), "previous backup")

	// Running merge twice must never delete previously copied files.
	for i := 0; i < 2; i++ {
		res, err := ResolveDestination(dst, &staticChooser{choice: ChoiceMerge}, logger.Nop())
		require.NoError(t, err)
		assert.True(t, res.Proceed)
	}
	assert.FileExists(t, filepath.Join(dst, "old.jpg"))
}

func TestResolveDestinationReplaceClearsContentsKeepsDir(t *testing.T) {
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "old.jpg"), "previous backup")
	writeFile(t, filepath.Join(dst, "nested", "deep.txt"), "more")

	res, err := ResolveDestination(dst, &staticChooser{choice: ChoiceReplace}, logger.Nop())
	require.NoError(t, err)
	assert.True(t, res.Proceed)
	// The directory itself pre-existed and survives Replace; only the
	// contents were cleared.
	assert.False(t, res.CreatedNew)
	assert.DirExists(t, dst)

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResolveDestinationCancelMutatesNothing(t *testing.T) {
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "old.jpg"), "previous backup")

	res, err := ResolveDestination(dst, &staticChooser{choice: ChoiceCancel}, logger.Nop())
	require.NoError(t, err)
	assert.False(t, res.Proceed)
	assert.FileExists(t, filepath.Join(dst, "old.jpg"))
}

func TestResolveDestinationRejectsFileAtPath(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "not-a-dir")
	writeFile(t, dst, "regular file")

	_, err := ResolveDestination(dst, &staticChooser{}, logger.Nop())
	assert.Error(t, err)
}

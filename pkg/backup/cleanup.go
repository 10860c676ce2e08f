package backup

import (
	"os"

	"github.com/mirbyte/androidArchiver/internal/logger"
)

// CleanupSession removes the destination directory after an abnormal
// session end, but only when the engine created that directory itself
// this run. A pre-existing directory is never deleted, regardless of the
// terminal state or how much partial data was written into it.
//
// Deletion is best effort: cleanup is a courtesy, not a correctness
// requirement, so failures are logged and swallowed.
func CleanupSession(session *TransferSession, log *logger.Logger) {
	if !session.CreatedDestinationDir {
		log.Info().Str("path", session.Target.DestinationPath).
			Msg("destination pre-existed this session, leaving it in place")
		return
	}

	path := session.Target.DestinationPath
	if err := os.RemoveAll(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cleanup of created destination failed")
		return
	}
	log.Info().Str("path", path).Msg("removed destination directory created this session")
}

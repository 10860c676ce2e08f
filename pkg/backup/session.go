// Package backup implements the transfer orchestration engine: destination
// safety gating, conflict resolution, capacity advisories, the adb pull
// driver with smoothed progress tracking, and cleanup of directories the
// engine itself created.
package backup

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionState represents the lifecycle state of a transfer session.
type SessionState int

const (
	// SessionPending indicates the session is prepared but the pull has not
	// started yet.
	SessionPending SessionState = iota
	// SessionRunning indicates the pull subprocess is active. Entered
	// exactly once.
	SessionRunning
	// SessionCompleted indicates the transfer finished successfully.
	SessionCompleted
	// SessionFailed indicates the transfer terminated with a fatal error.
	SessionFailed
	// SessionCancelled indicates the transfer was interrupted by the user.
	SessionCancelled
)

// String returns a human-readable representation of the state.
func (s SessionState) String() string {
	switch s {
	case SessionPending:
		return "pending"
	case SessionRunning:
		return "running"
	case SessionCompleted:
		return "completed"
	case SessionFailed:
		return "failed"
	case SessionCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal returns true for completed, failed and cancelled.
func (s SessionState) IsTerminal() bool {
	return s == SessionCompleted || s == SessionFailed || s == SessionCancelled
}

// CanTransitionTo checks whether a state transition is legal. Transitions
// are one-way: terminal states never transition, and there is no
// resume-from-failed.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case SessionPending:
		return next == SessionRunning || next == SessionCancelled
	case SessionRunning:
		return next == SessionCompleted || next == SessionFailed || next == SessionCancelled
	default:
		return false
	}
}

// ErrInvalidTransition is returned when an illegal state transition is
// attempted.
var ErrInvalidTransition = errors.New("invalid session state transition")

// TransferSession is the single unit of mutable state for one backup run.
// It is passed explicitly through each component call; there is no ambient
// session singleton.
type TransferSession struct {
	ID     string
	Target BackupTarget

	// CreatedDestinationDir is true only when the destination directory did
	// not exist before this run. It is the sole authority the cleanup
	// supervisor consults.
	CreatedDestinationDir bool

	StartTime          time.Time
	BytesTransferred   int64
	TotalBytesEstimate int64
	SkippedFiles       int

	state SessionState
}

// NewSession creates a pending session for the given target.
func NewSession(target BackupTarget, createdDestinationDir bool) *TransferSession {
	return &TransferSession{
		ID:                    uuid.NewString(),
		Target:                target,
		CreatedDestinationDir: createdDestinationDir,
		TotalBytesEstimate:    target.EstimatedSizeBytes,
		state:                 SessionPending,
	}
}

// State returns the current session state.
func (s *TransferSession) State() SessionState {
	return s.state
}

// TransitionTo moves the session to next, enforcing one-way transitions.
func (s *TransferSession) TransitionTo(next SessionState) error {
	if !s.state.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	if next == SessionRunning {
		s.StartTime = time.Now()
	}
	s.state = next
	return nil
}

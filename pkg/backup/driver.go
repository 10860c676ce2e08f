package backup

import (
	"bufio"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mirbyte/androidArchiver/internal/logger"
)

// ErrorLogName is the per-file skip log written into the destination
// during the transfer.
const ErrorLogName = "backup_errors.log"

// Pull is the handle of a running pull subprocess.
type Pull interface {
	Stdout() io.Reader
	Stderr() io.Reader
	Wait() error
	Kill() error
}

// PullStarter launches pull subprocesses. Satisfied by an adapter over
// adb.Client; tests substitute fakes.
type PullStarter interface {
	StartPull(ctx context.Context, serial, remotePath, localPath string) (Pull, error)
}

// Driver owns the transfer lifecycle for one session: it starts the pull
// subprocess, watches the destination for written bytes, scans stderr for
// per-file skips, and emits TransferEvents until a terminal event.
//
// adb pull's stdout format is not contractually versioned, so byte progress
// comes from polling the destination tree instead of parsing tool output;
// stderr is only pattern-matched in one place (classifyFailure and the
// permission-denied check below) so format drift is absorbed here.
type Driver struct {
	Bridge PullStarter
	Serial string
	Log    *logger.Logger

	// PollInterval controls destination size sampling. Zero means 1s.
	PollInterval time.Duration
}

const defaultPollInterval = time.Second

// Run drives the pull to a terminal event. It blocks until the subprocess
// exits or ctx is cancelled, sending events on the returned channel and
// closing it afterwards. Exactly one of TransferCompleted, TransferFailed
// or TransferCancelled is the final event.
func (d *Driver) Run(ctx context.Context, session *TransferSession) <-chan TransferEvent {
	events := make(chan TransferEvent, 16)
	go func() {
		defer close(events)
		d.run(ctx, session, events)
	}()
	return events
}

func (d *Driver) run(ctx context.Context, session *TransferSession, events chan<- TransferEvent) {
	dst := session.Target.DestinationPath
	remote := session.Target.Scope.RemotePath()

	pull, err := d.Bridge.StartPull(ctx, d.Serial, remote, dst)
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to start pull")
		events <- TransferFailed{Cause: CauseBridgeTool, Err: err}
		return
	}

	stderrDone := make(chan stderrResult, 1)
	go func() {
		stderrDone <- d.scanStderr(pull.Stderr(), filepath.Join(dst, ErrorLogName))
	}()
	go func() {
		// Per-file pull notices are informational only; drain so the
		// subprocess never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, pull.Stdout())
	}()

	waitDone := make(chan error, 1)
	go func() { waitDone <- pull.Wait() }()

	interval := d.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bytes, files := scanDestination(dst, session.StartTime)
			session.BytesTransferred = bytes
			events <- BytesProgress{Bytes: bytes, Files: files}

		case <-ctx.Done():
			if err := pull.Kill(); err != nil {
				d.Log.Warn().Err(err).Msg("failed to kill pull subprocess")
			}
			<-waitDone
			<-stderrDone
			d.Log.Info().Str("session", session.ID).Msg("transfer cancelled")
			events <- TransferCancelled{}
			return

		case waitErr := <-waitDone:
			stderr := <-stderrDone
			bytes, files := scanDestination(dst, session.StartTime)
			session.BytesTransferred = bytes
			session.SkippedFiles = stderr.skipped
			events <- BytesProgress{Bytes: bytes, Files: files}

			if waitErr != nil && !onlyPermissionSkips(stderr, bytes) {
				cause := classifyFailure(stderr.errorLines)
				d.Log.Error().Err(waitErr).Str("cause", cause.String()).
					Strs("stderr", stderr.errorLines).Msg("transfer failed")
				events <- TransferFailed{Cause: cause, Err: waitErr}
				return
			}

			d.Log.Info().Str("session", session.ID).Int64("bytes", bytes).
				Int("files", files).Int("skipped", stderr.skipped).Msg("transfer completed")
			events <- TransferCompleted{SkippedFiles: stderr.skipped}
			return
		}
	}
}

// onlyPermissionSkips reports whether a non-zero pull exit is explained
// entirely by permission-protected source entries. adb exits non-zero when
// it had to skip files, which is expected for system paths and must not
// fail the session.
func onlyPermissionSkips(r stderrResult, bytesTransferred int64) bool {
	return r.skipped > 0 && len(r.errorLines) == 0 && bytesTransferred > 0
}

type stderrResult struct {
	// skipped counts source entries denied by the device.
	skipped int
	// errorLines holds the remaining error output, bounded, for
	// classification.
	errorLines []string
}

const maxErrorLines = 20

// scanStderr consumes the pull's stderr. Permission-denied lines are
// counted as per-file skips and appended to the error log in the
// destination; other error-looking lines are retained for failure
// classification.
func (d *Driver) scanStderr(r io.Reader, errorLogPath string) stderrResult {
	var result stderrResult

	logFile, err := os.OpenFile(errorLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		d.Log.Warn().Err(err).Msg("cannot open transfer error log")
	} else {
		defer logFile.Close()
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "permission denied"):
			result.skipped++
			if logFile != nil {
				timestamp := time.Now().Format("15:04:05")
				_, _ = logFile.WriteString("[" + timestamp + "] " + line + "\n")
			}
		case strings.Contains(lower, "error") ||
			strings.Contains(lower, "failed") ||
			strings.Contains(lower, "cannot") ||
			strings.Contains(lower, "no space"):
			if len(result.errorLines) < maxErrorLines {
				result.errorLines = append(result.errorLines, line)
			}
		}
	}
	return result
}

// classifyFailure maps the retained stderr lines onto a FailureCause. The
// user always sees a classified category, never raw tool output.
func classifyFailure(lines []string) FailureCause {
	joined := strings.ToLower(strings.Join(lines, "\n"))
	switch {
	case strings.Contains(joined, "no space") ||
		strings.Contains(joined, "disk full") ||
		strings.Contains(joined, "write failed") ||
		strings.Contains(joined, "i/o error"):
		return CauseDestinationWrite
	case strings.Contains(joined, "device offline") ||
		strings.Contains(joined, "not found") ||
		strings.Contains(joined, "no devices") ||
		strings.Contains(joined, "device disconnected") ||
		strings.Contains(joined, "connection reset") ||
		strings.Contains(joined, "closed"):
		return CauseDeviceDisconnected
	default:
		return CauseBridgeTool
	}
}

// scanDestination totals size and count of files written under dst since
// the session started. The transfer error log is excluded, as are files
// predating the session (possible after a Merge). Walk errors are skipped:
// the tree is being written to while we read it.
func scanDestination(dst string, since time.Time) (int64, int) {
	var total int64
	var count int
	_ = filepath.WalkDir(dst, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() || entry.Name() == ErrorLogName {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(since) {
			return nil
		}
		total += info.Size()
		count++
		return nil
	})
	return total, count
}

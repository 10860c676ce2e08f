package backup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mirbyte/androidArchiver/internal/config"
	"github.com/mirbyte/androidArchiver/internal/logger"
	"github.com/mirbyte/androidArchiver/internal/util"
	"github.com/mirbyte/androidArchiver/pkg/adb"
)

// ErrCancelled is returned when the user aborts the run before or during
// the transfer.
var ErrCancelled = errors.New("backup cancelled")

// GiB converts the user's size estimate to bytes.
const GiB = 1 << 30

// Prompter is the input half of the engine's contract with the CLI
// surface: typed values in, no business logic in the prompt layer.
type Prompter interface {
	ConflictChooser

	// SelectDevice picks one serial when several devices are attached.
	SelectDevice(devices []adb.Device) (string, error)
	// ChooseDestination returns the backup destination, offering
	// defaultPath.
	ChooseDestination(defaultPath string) (string, error)
	// ConfirmAdvisory asks the user to acknowledge a non-fatal warning.
	ConfirmAdvisory(message string) (bool, error)
	// ChooseScope selects full-device or one of the offered subfolders.
	ChooseScope(folders []string) (SourceScope, error)
	// EstimateSizeGB returns the user's size estimate in gigabytes.
	EstimateSizeGB() (float64, error)
}

// Reporter is the output half of the CLI contract.
type Reporter interface {
	DeviceDetected(info adb.DeviceInfo)
	SpaceReport(report DiskSpaceReport)
	Notice(message string)
}

// Engine wires the gates in order: device probe, destination safety,
// capacity advisory, conflict resolution, then the transfer itself. It
// enforces single-session exclusivity: one Engine drives at most one
// TransferSession.
type Engine struct {
	Bridge *adb.Client
	Prompt Prompter
	Report Reporter
	Cfg    *config.Config
	Log    *logger.Logger

	serial string
	device adb.DeviceInfo

	// pullStarter is a test seam; defaults to the adb client.
	pullStarter PullStarter
}

// NewEngine constructs an Engine around an adb client and the CLI surface.
func NewEngine(bridge *adb.Client, prompt Prompter, report Reporter, cfg *config.Config, log *logger.Logger) *Engine {
	return &Engine{
		Bridge:      bridge,
		Prompt:      prompt,
		Report:      report,
		Cfg:         cfg,
		Log:         log,
		pullStarter: adbPullStarter{bridge},
	}
}

// Device returns the identity snapshot taken during Prepare.
func (e *Engine) Device() adb.DeviceInfo { return e.device }

// Prepare runs every gate preceding the transfer and returns a pending
// session. It returns ErrCancelled when the user backs out at any gate; no
// filesystem mutation has happened at that point except what the conflict
// resolver performed on explicit user request.
func (e *Engine) Prepare(ctx context.Context) (*TransferSession, error) {
	version, err := e.Bridge.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("bridge tool not usable: %w", err)
	}
	e.Log.Info().Str("adb_version", version).Msg("bridge tool detected")

	serial, err := e.findDevice(ctx)
	if err != nil {
		return nil, err
	}
	e.serial = serial

	if state, err := e.Bridge.GetState(ctx, serial); err != nil || state != adb.StateDevice {
		return nil, fmt.Errorf("device %s is not ready: %w", serial, errors.Join(err, adb.ErrNoDevice))
	}

	e.device = e.Bridge.Probe(ctx, serial)
	e.Report.DeviceDetected(e.device)

	destination, err := e.chooseDestination()
	if err != nil {
		return nil, err
	}

	scope, err := e.chooseScope(ctx)
	if err != nil {
		return nil, err
	}

	exists, err := e.Bridge.DirExists(ctx, serial, scope.RemotePath())
	if err != nil {
		return nil, fmt.Errorf("verify source path: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("source path %s not found on device", scope.RemotePath())
	}

	estimatedGB, err := e.Prompt.EstimateSizeGB()
	if err != nil {
		return nil, err
	}
	estimatedBytes := int64(estimatedGB * GiB)

	if err := e.checkCapacity(destination, estimatedBytes); err != nil {
		return nil, err
	}

	resolution, err := ResolveDestination(destination, e.Prompt, e.Log)
	if err != nil {
		return nil, err
	}
	if !resolution.Proceed {
		return nil, ErrCancelled
	}

	target := BackupTarget{
		Scope:              scope,
		DestinationPath:    destination,
		EstimatedSizeBytes: estimatedBytes,
	}
	return NewSession(target, resolution.CreatedNew), nil
}

// findDevice enumerates attached devices, restarting the adb server once
// when nothing shows up (the tool's own reconnect handling does the rest).
func (e *Engine) findDevice(ctx context.Context) (string, error) {
	devices, err := e.Bridge.Devices(ctx)
	if err != nil {
		return "", err
	}
	if len(devices) == 0 {
		e.Report.Notice("No devices found, restarting adb server...")
		if err := e.Bridge.RestartServer(ctx); err != nil {
			return "", err
		}
		if devices, err = e.Bridge.Devices(ctx); err != nil {
			return "", err
		}
	}

	var online []adb.Device
	unauthorized := false
	for _, d := range devices {
		switch d.State {
		case adb.StateDevice:
			online = append(online, d)
		case adb.StateUnauthorized:
			unauthorized = true
		}
	}

	switch {
	case len(online) == 1:
		return online[0].Serial, nil
	case len(online) > 1:
		return e.Prompt.SelectDevice(online)
	case unauthorized:
		return "", adb.ErrUnauthorized
	default:
		return "", adb.ErrNoDevice
	}
}

// chooseDestination prompts until the path passes the safety validator.
// Rejections re-prompt unconditionally; the network-volume warning may be
// accepted explicitly.
func (e *Engine) chooseDestination() (string, error) {
	for {
		destination, err := e.Prompt.ChooseDestination(e.Cfg.BackupLocation)
		if err != nil {
			return "", err
		}

		validation := ValidateDestination(destination)
		switch validation.Verdict {
		case DestinationRejected:
			e.Report.Notice("Cannot use this location: " + validation.Reason)
			continue
		case DestinationNetworkWarning:
			ok, err := e.Prompt.ConfirmAdvisory("Network drive selected, performance may be slower. Continue?")
			if err != nil {
				return "", err
			}
			if !ok {
				continue
			}
		}
		return destination, nil
	}
}

// chooseScope offers the device's top-level folders for a partial backup.
// Dotfiles and the permission-protected Android folder are not offered.
func (e *Engine) chooseScope(ctx context.Context) (SourceScope, error) {
	entries, err := e.Bridge.ListDir(ctx, e.serial, DeviceRoot)
	if err != nil {
		e.Log.Warn().Err(err).Msg("could not list device folders, offering full backup only")
	}

	var folders []string
	for _, entry := range entries {
		if strings.HasPrefix(entry, ".") || strings.HasPrefix(entry, ProtectedFolder) {
			continue
		}
		folders = append(folders, entry)
	}
	return e.Prompt.ChooseScope(folders)
}

// checkCapacity runs the advisory disk-space gate. The verdict never
// blocks outright: the estimate is user-supplied and may be wrong, so
// proceeding past a warning is an explicit user choice.
func (e *Engine) checkCapacity(destination string, estimatedBytes int64) error {
	report, err := CheckCapacity(destination, estimatedBytes)
	if err != nil {
		// Advisory gate: an unverifiable volume is a notice, not a stop.
		e.Report.Notice("Could not verify free space: " + err.Error())
		return nil
	}
	e.Report.SpaceReport(report)

	if report.Verdict == SpaceOK {
		return nil
	}

	message := fmt.Sprintf("Only %s free for an estimated %s. Continue anyway?",
		util.FormatSize(report.AvailableBytes), util.FormatSize(report.RequiredBytes))
	ok, err := e.Prompt.ConfirmAdvisory(message)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// Transfer drives a prepared session to its terminal state, invoking
// onProgress for every snapshot. On Failed or Cancelled it invokes the
// cleanup supervisor; on Completed it writes the completion marker.
func (e *Engine) Transfer(ctx context.Context, session *TransferSession, onProgress func(ProgressSnapshot)) (Summary, error) {
	if err := session.TransitionTo(SessionRunning); err != nil {
		return Summary{}, err
	}

	driver := &Driver{Bridge: e.pullStarter, Serial: e.serial, Log: e.Log}
	tracker := NewTracker(session.TotalBytesEstimate)
	files := 0
	var cause FailureCause
	var transferErr error

	for ev := range driver.Run(ctx, session) {
		switch ev := ev.(type) {
		case BytesProgress:
			files = ev.Files
			onProgress(tracker.Observe(ev.Bytes, ev.Files, time.Now()))
		case TransferCompleted:
			session.SkippedFiles = ev.SkippedFiles
			if err := session.TransitionTo(SessionCompleted); err != nil {
				return Summary{}, err
			}
			onProgress(tracker.Completed(session.BytesTransferred, files))
		case TransferFailed:
			cause = ev.Cause
			transferErr = ev.Err
			if err := session.TransitionTo(SessionFailed); err != nil {
				return Summary{}, err
			}
		case TransferCancelled:
			if err := session.TransitionTo(SessionCancelled); err != nil {
				return Summary{}, err
			}
		}
	}

	summary := Summary{
		State:        session.State(),
		Device:       e.device,
		Source:       session.Target.Scope.String(),
		Destination:  session.Target.DestinationPath,
		Bytes:        session.BytesTransferred,
		Files:        files,
		SkippedFiles: session.SkippedFiles,
		Elapsed:      time.Since(session.StartTime),
		FailureCause: cause,
	}

	switch session.State() {
	case SessionCompleted:
		if err := WriteCompletionMarker(summary); err != nil {
			e.Log.Warn().Err(err).Msg("could not write completion marker")
		}
	case SessionFailed, SessionCancelled:
		CleanupSession(session, e.Log)
	}

	if transferErr != nil {
		return summary, fmt.Errorf("%s: %w", cause, transferErr)
	}
	return summary, nil
}

// adbPullStarter adapts adb.Client to the driver's PullStarter interface.
type adbPullStarter struct {
	client *adb.Client
}

func (s adbPullStarter) StartPull(ctx context.Context, serial, remotePath, localPath string) (Pull, error) {
	p, err := s.client.StartPull(ctx, serial, remotePath, localPath)
	if err != nil {
		return nil, err
	}
	return p, nil
}
